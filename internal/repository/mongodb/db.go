// Package mongodb provides the MongoDB document store for the Alexander library.
//
// Documents use the entity UUID in string form as _id. Categories and books
// carry a denormalized owner_id copied from their bookshelf at insert time so
// that owner-scoped listings stay single-collection queries; a bookshelf's
// owner never changes.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/prn-tf/alexander-library/internal/config"
)

// Collection names.
const (
	usersCollection      = "users"
	bookshelfCollection  = "bookshelves"
	categoryCollection   = "categories"
	bookCollection       = "books"
	migrationsCollection = "schema_migrations"
)

// schemaVersion is bumped whenever EnsureIndexes gains a new index.
const schemaVersion = 1

// DB wraps a MongoDB client bound to one database.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
	logger zerolog.Logger
}

// NewDB connects to MongoDB and verifies the connection.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*DB, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout)
	if cfg.MaxOpenConns > 0 {
		opts.SetMaxPoolSize(uint64(cfg.MaxOpenConns))
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info().
		Str("database", cfg.MongoDatabase).
		Msg("connected to MongoDB")

	return &DB{
		client: client,
		db:     client.Database(cfg.MongoDatabase),
		logger: logger,
	}, nil
}

// Close disconnects the client.
func (db *DB) Close() error {
	db.logger.Info().Msg("closing MongoDB connection")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.client.Disconnect(ctx)
}

// Ping checks the connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, readpref.Primary())
}

// Health runs a server round trip against the bound database.
func (db *DB) Health(ctx context.Context) error {
	return db.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

func (db *DB) collection(name string) *mongo.Collection {
	return db.db.Collection(name)
}

// EnsureIndexes creates the unique and listing indexes the repositories rely on.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	newestFirst := func(prefix ...string) bson.D {
		keys := bson.D{}
		for _, field := range prefix {
			keys = append(keys, bson.E{Key: field, Value: 1})
		}
		return append(keys, bson.E{Key: "created_at", Value: -1}, bson.E{Key: "_id", Value: -1})
	}

	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: newestFirst()},
		},
		bookshelfCollection: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "name", Value: 1}}, Options: unique},
			{Keys: newestFirst("owner_id")},
		},
		categoryCollection: {
			{Keys: bson.D{{Key: "bookshelf_id", Value: 1}, {Key: "name", Value: 1}}, Options: unique},
			{Keys: newestFirst("owner_id")},
			{Keys: newestFirst("bookshelf_id")},
		},
		bookCollection: {
			{Keys: newestFirst("owner_id")},
			{Keys: newestFirst("bookshelf_id")},
			{Keys: bson.D{{Key: "category_id", Value: 1}}},
			{Keys: bson.D{{Key: "content_hash", Value: 1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// Migrate creates indexes and records the schema version.
func (db *DB) Migrate(ctx context.Context) error {
	if err := db.EnsureIndexes(ctx); err != nil {
		return err
	}

	_, err := db.collection(migrationsCollection).UpdateOne(ctx,
		bson.M{"_id": "indexes"},
		bson.M{"$set": bson.M{"version": schemaVersion, "applied_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	db.logger.Info().Int("version", schemaVersion).Msg("ensured MongoDB indexes")
	return nil
}

// Version returns the recorded schema version (0 if none).
func (db *DB) Version(ctx context.Context) (int, error) {
	var doc struct {
		Version int `bson:"version"`
	}
	err := db.collection(migrationsCollection).FindOne(ctx, bson.M{"_id": "indexes"}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return doc.Version, nil
}

// findPage returns the find options for one newest-first window.
func findPage(offset, limit int) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// exists reports whether any document in coll matches filter.
func exists(ctx context.Context, coll *mongo.Collection, filter any) (bool, error) {
	n, err := coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// decodeAll drains cur into domain values.
func decodeAll[T any, D interface{ toDomain() (*T, error) }](ctx context.Context, cur *mongo.Cursor) ([]*T, error) {
	defer cur.Close(ctx)

	var docs []D
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	items := make([]*T, 0, len(docs))
	for _, d := range docs {
		item, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
