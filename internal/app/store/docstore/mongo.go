// internal/app/store/docstore/mongo.go
package docstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Mongo implements Store on a MongoDB database. Documents use string _id
// values supplied by the caller.
//
// Subscribe uses change streams, which require a replica-set (or Atlas)
// deployment. Each change event triggers a full re-read of the collection,
// so every delivered snapshot is the complete current set.
type Mongo struct {
	db  *mongo.Database
	log *zap.Logger
}

func NewMongo(db *mongo.Database, logger *zap.Logger) *Mongo {
	return &Mongo{db: db, log: logger}
}

// watchRetryWait is how long the watcher sleeps before reopening a failed
// change stream. Prior mirror data stays valid during the gap.
const watchRetryWait = 5 * time.Second

func (s *Mongo) Subscribe(ctx context.Context, collection string) (<-chan Event, error) {
	ch := make(chan Event, 8)
	go s.watch(ctx, collection, ch)
	return ch, nil
}

func (s *Mongo) watch(ctx context.Context, collection string, ch chan<- Event) {
	defer close(ch)

	for {
		stream, err := s.db.Collection(collection).Watch(ctx, mongo.Pipeline{})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warn("change stream open failed",
				zap.String("collection", collection), zap.Error(err))
			if !s.deliver(ctx, ch, Event{Err: err}) {
				return
			}
			if !sleepCtx(ctx, watchRetryWait) {
				return
			}
			continue
		}

		// Snapshot after the stream opens so no change falls in the gap
		// between read and watch.
		if !s.deliverSnapshot(ctx, collection, ch) {
			stream.Close(context.Background())
			return
		}

		for stream.Next(ctx) {
			if !s.deliverSnapshot(ctx, collection, ch) {
				stream.Close(context.Background())
				return
			}
		}
		streamErr := stream.Err()
		stream.Close(context.Background())
		if ctx.Err() != nil {
			return
		}
		if streamErr != nil {
			s.log.Warn("change stream interrupted",
				zap.String("collection", collection), zap.Error(streamErr))
			if !s.deliver(ctx, ch, Event{Err: streamErr}) {
				return
			}
		}
		if !sleepCtx(ctx, watchRetryWait) {
			return
		}
	}
}

func (s *Mongo) deliverSnapshot(ctx context.Context, collection string, ch chan<- Event) bool {
	snap, err := s.readAll(ctx, collection)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		return s.deliver(ctx, ch, Event{Err: err})
	}
	return s.deliver(ctx, ch, Event{Snapshot: snap})
}

func (s *Mongo) deliver(ctx context.Context, ch chan<- Event, ev Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Mongo) readAll(ctx context.Context, collection string) (*Snapshot, error) {
	cur, err := s.db.Collection(collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	snap := &Snapshot{Collection: collection}
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}
		doc := Doc{Fields: Fields{}}
		for k, v := range raw {
			if k == "_id" {
				doc.ID = idString(v)
				continue
			}
			doc.Fields[k] = normalizeValue(v)
		}
		snap.Docs = append(snap.Docs, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Mongo) Get(ctx context.Context, collection, id string) (Doc, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err == mongo.ErrNoDocuments {
		return Doc{}, ErrNotFound
	}
	if err != nil {
		return Doc{}, err
	}
	doc := Doc{ID: id, Fields: Fields{}}
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		doc.Fields[k] = normalizeValue(v)
	}
	return doc, nil
}

func (s *Mongo) Set(ctx context.Context, collection, id string, fields Fields, merge bool) error {
	if merge {
		set, unset, stamp := splitOps(fields)
		update := bson.M{}
		if len(set) > 0 {
			update["$set"] = set
		}
		if len(unset) > 0 {
			update["$unset"] = unset
		}
		if len(stamp) > 0 {
			update["$currentDate"] = stamp
		}
		if len(update) == 0 {
			return nil
		}
		_, err := s.db.Collection(collection).UpdateOne(ctx,
			bson.M{"_id": id}, update, options.Update().SetUpsert(true))
		return err
	}

	// Full replace: markers are resolved locally since ReplaceOne cannot
	// carry update operators.
	doc := bson.M{}
	for k, v := range fields {
		switch v.(type) {
		case deleteField:
			// absent in a replace
		case serverTimestamp:
			doc[k] = time.Now().UTC()
		default:
			doc[k] = v
		}
	}
	_, err := s.db.Collection(collection).ReplaceOne(ctx,
		bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *Mongo) Update(ctx context.Context, collection, id string, fields Fields) error {
	set, unset, stamp := splitOps(fields)
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if len(stamp) > 0 {
		update["$currentDate"] = stamp
	}
	if len(update) == 0 {
		return nil
	}
	_, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (s *Mongo) Delete(ctx context.Context, collection, id string) error {
	// Deleting a missing document is not an error; DeleteOne already
	// behaves that way (deleted count 0).
	_, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func splitOps(fields Fields) (set bson.M, unset bson.M, stamp bson.M) {
	set, unset, stamp = bson.M{}, bson.M{}, bson.M{}
	for k, v := range fields {
		switch v.(type) {
		case deleteField:
			unset[k] = ""
		case serverTimestamp:
			stamp[k] = true
		default:
			set[k] = v
		}
	}
	return set, unset, stamp
}

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case primitive.ObjectID:
		return id.Hex()
	default:
		return ""
	}
}

// normalizeValue maps bson decode types onto the plain Go types the rest of
// the code expects (time.Time for dates, nested Fields for documents).
func normalizeValue(v any) any {
	switch val := v.(type) {
	case primitive.DateTime:
		return val.Time().UTC()
	case bson.M:
		out := Fields{}
		for k, inner := range val {
			out[k] = normalizeValue(inner)
		}
		return out
	case primitive.A:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = normalizeValue(inner)
		}
		return out
	case int32:
		return int64(val)
	default:
		return v
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
