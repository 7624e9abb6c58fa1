// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/tenmm/squadadmin/internal/app/store/docstore"
)

// ConnectDB establishes the MongoDB connection used by every store.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes the console's queries and the cleanup
// policy lean on. Squad names intentionally have no unique index: the
// registry's get-or-create races across processes are accepted as
// best-effort, matching the mirror-side duplicate handling.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	userIdx := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "emailLower", Value: 1}},
			Options: options.Index().SetName("idx_users_email_lower"),
		},
		{
			Keys:    bson.D{{Key: "updatedAt", Value: -1}},
			Options: options.Index().SetName("idx_users_updated_at"),
		},
	}
	if _, err := db.Collection(docstore.UsersCollection).Indexes().CreateMany(ctx, userIdx); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	allowIdx := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_allowlist_email"),
		},
	}
	if _, err := db.Collection(docstore.AllowlistCollection).Indexes().CreateMany(ctx, allowIdx); err != nil {
		return fmt.Errorf("allowlist indexes: %w", err)
	}

	squadIdx := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("idx_squads_name"),
		},
	}
	if _, err := db.Collection(docstore.SquadsCollection).Indexes().CreateMany(ctx, squadIdx); err != nil {
		return fmt.Errorf("squads indexes: %w", err)
	}

	logger.Info("ensured MongoDB indexes")
	return nil
}
