// Package migrate implements the one-off copy of the back-office collections
// from the old cluster to the new one.
package migrate

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Abdullah7175/mustafabackend/internal/config"
)

const batchSize = 500

// defaultCollections is the back-office data set copied when MIGRATE_COLLECTIONS
// is unset.
var defaultCollections = []string{"inquiries", "bookings", "agents", "users"}

func collectionsToMigrate(cfg *config.Config) []string {
	if cfg.MigrateCollections == "" {
		return defaultCollections
	}
	var names []string
	for _, name := range strings.Split(cfg.MigrateCollections, ",") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}

// Run copies every configured collection from the source cluster to the
// target cluster. Documents already present in the target (same _id) are
// skipped, so the migration can be re-run after a partial failure.
func Run(ctx context.Context, cfg *config.Config) error {
	if cfg.MigrateSourceURI == "" || cfg.MigrateTargetURI == "" {
		return fmt.Errorf("MIGRATE_SOURCE_URI and MIGRATE_TARGET_URI must be set for migrate mode")
	}

	source, err := connect(ctx, cfg.MigrateSourceURI)
	if err != nil {
		return fmt.Errorf("failed to connect to source cluster: %w", err)
	}
	defer source.Disconnect(context.Background())

	target, err := connect(ctx, cfg.MigrateTargetURI)
	if err != nil {
		return fmt.Errorf("failed to connect to target cluster: %w", err)
	}
	defer target.Disconnect(context.Background())

	sourceDB := source.Database(cfg.MigrateDbName)
	targetDB := target.Database(cfg.MigrateDbName)

	for _, name := range collectionsToMigrate(cfg) {
		copied, skipped, err := copyCollection(ctx, sourceDB.Collection(name), targetDB.Collection(name))
		if err != nil {
			return fmt.Errorf("failed to migrate collection %s: %w", name, err)
		}
		log.Printf("Migrated collection %s: %d copied, %d skipped", name, copied, skipped)
	}
	return nil
}

func connect(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// copyCollection streams documents from source to target in batches using
// unordered inserts; duplicate key failures within a batch count as skips.
func copyCollection(ctx context.Context, source, target *mongo.Collection) (int, int, error) {
	cursor, err := source.Find(ctx, bson.M{})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read source collection: %w", err)
	}
	defer cursor.Close(ctx)

	copied, skipped := 0, 0
	batch := make([]interface{}, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		result, err := target.InsertMany(ctx, batch, options.InsertMany().SetOrdered(false))
		if err != nil {
			bulkErr, ok := err.(mongo.BulkWriteException)
			if !ok {
				return err
			}
			for _, we := range bulkErr.WriteErrors {
				if we.Code != 11000 {
					return err
				}
			}
			skipped += len(bulkErr.WriteErrors)
		}
		if result != nil {
			copied += len(result.InsertedIDs)
		}
		batch = batch[:0]
		return nil
	}

	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return copied, skipped, fmt.Errorf("failed to decode source document: %w", err)
		}
		batch = append(batch, doc)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return copied, skipped, err
			}
		}
	}
	if err := cursor.Err(); err != nil {
		return copied, skipped, fmt.Errorf("source cursor error: %w", err)
	}
	if err := flush(); err != nil {
		return copied, skipped, err
	}
	return copied, skipped, nil
}
