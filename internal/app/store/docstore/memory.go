// internal/app/store/docstore/memory.go
package docstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-memory Store used by tests. It delivers an initial
// snapshot on Subscribe and a fresh full snapshot to every subscriber after
// each mutation, mirroring the Mongo implementation's behavior.
type Memory struct {
	mu          sync.Mutex
	collections map[string]map[string]Fields
	subs        map[string][]*memSub
	now         func() time.Time

	// failNext, when set for a collection, makes the next mutation on it
	// return the error instead of applying. Used to exercise the
	// optimistic-update-without-rollback paths.
	failNext map[string]error
}

type memSub struct {
	ch     chan Event
	ctx    context.Context
	closed bool
}

func NewMemory() *Memory {
	return &Memory{
		collections: map[string]map[string]Fields{},
		subs:        map[string][]*memSub{},
		now:         func() time.Time { return time.Now().UTC() },
		failNext:    map[string]error{},
	}
}

// SetClock overrides the server clock used for ServerTimestamp values.
func (s *Memory) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailNextWrite makes the next mutating call on the collection fail.
func (s *Memory) FailNextWrite(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[collection] = err
}

// InjectStreamError delivers an error event to every open subscriber of the
// collection, simulating a subscription failure.
func (s *Memory) InjectStreamError(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs[collection] {
		sub.send(Event{Err: err})
	}
}

func (s *Memory) Subscribe(ctx context.Context, collection string) (<-chan Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &memSub{ch: make(chan Event, 256), ctx: ctx}
	s.subs[collection] = append(s.subs[collection], sub)
	sub.send(Event{Snapshot: s.snapshotLocked(collection)})

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		sub.closed = true
		close(sub.ch)
		live := s.subs[collection][:0]
		for _, other := range s.subs[collection] {
			if other != sub {
				live = append(live, other)
			}
		}
		s.subs[collection] = live
	}()

	return sub.ch, nil
}

func (sub *memSub) send(ev Event) {
	if sub.closed || sub.ctx.Err() != nil {
		return
	}
	select {
	case sub.ch <- ev:
	default:
		// Subscriber is far behind; a later snapshot supersedes anyway.
	}
}

func (s *Memory) Get(_ context.Context, collection, id string) (Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fields, ok := s.collections[collection][id]
	if !ok {
		return Doc{}, ErrNotFound
	}
	return Doc{ID: id, Fields: copyFields(fields)}, nil
}

func (s *Memory) Set(_ context.Context, collection, id string, fields Fields, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailureLocked(collection); err != nil {
		return err
	}

	coll := s.collLocked(collection)
	var doc Fields
	if merge {
		doc = coll[id]
		if doc == nil {
			doc = Fields{}
		}
	} else {
		doc = Fields{}
	}
	s.applyLocked(doc, fields)
	coll[id] = doc
	s.broadcastLocked(collection)
	return nil
}

func (s *Memory) Update(_ context.Context, collection, id string, fields Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailureLocked(collection); err != nil {
		return err
	}

	doc, ok := s.collections[collection][id]
	if !ok {
		// Matches Mongo UpdateOne without upsert: no matched document, no
		// error, no change.
		return nil
	}
	s.applyLocked(doc, fields)
	s.broadcastLocked(collection)
	return nil
}

func (s *Memory) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailureLocked(collection); err != nil {
		return err
	}

	coll, ok := s.collections[collection]
	if !ok {
		return nil
	}
	if _, existed := coll[id]; !existed {
		return nil
	}
	delete(coll, id)
	s.broadcastLocked(collection)
	return nil
}

// Snapshot returns the current contents of a collection, for test
// assertions against stored state.
func (s *Memory) Snapshot(collection string) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(collection)
}

func (s *Memory) collLocked(collection string) map[string]Fields {
	coll, ok := s.collections[collection]
	if !ok {
		coll = map[string]Fields{}
		s.collections[collection] = coll
	}
	return coll
}

func (s *Memory) takeFailureLocked(collection string) error {
	if err, ok := s.failNext[collection]; ok {
		delete(s.failNext, collection)
		return err
	}
	return nil
}

func (s *Memory) applyLocked(doc Fields, fields Fields) {
	for k, v := range fields {
		switch v.(type) {
		case deleteField:
			delete(doc, k)
		case serverTimestamp:
			doc[k] = s.now()
		default:
			doc[k] = v
		}
	}
}

func (s *Memory) broadcastLocked(collection string) {
	snap := s.snapshotLocked(collection)
	for _, sub := range s.subs[collection] {
		sub.send(Event{Snapshot: snap})
	}
}

func (s *Memory) snapshotLocked(collection string) *Snapshot {
	snap := &Snapshot{Collection: collection}
	ids := make([]string, 0, len(s.collections[collection]))
	for id := range s.collections[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		snap.Docs = append(snap.Docs, Doc{ID: id, Fields: copyFields(s.collections[collection][id])})
	}
	return snap
}

func copyFields(f Fields) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		if nested, ok := v.(Fields); ok {
			out[k] = copyFields(nested)
			continue
		}
		out[k] = v
	}
	return out
}
