package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/crimson-sun/tread/internal/model"
)

// compositeIndexName identifies the unique index enforcing one document
// per service event.
const compositeIndexName = "uniq_tire_composite"

// Mongo writes records into a MongoDB collection with unordered keyed
// replacements.
type Mongo struct {
	client    *mongo.Client
	coll      *mongo.Collection
	batchSize int
	log       *zap.Logger
}

// MongoConfig holds what Connect needs to reach the target collection.
type MongoConfig struct {
	URI            string
	Database       string
	Collection     string
	BatchSize      int
	ConnectTimeout time.Duration
}

// Connect dials the cluster and verifies it is reachable before any ETL
// work starts. A dead destination should fail the run immediately, not
// after the fetch.
func Connect(ctx context.Context, cfg MongoConfig, log *zap.Logger) (*Mongo, error) {
	dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dialCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &Mongo{
		client:    client,
		coll:      client.Database(cfg.Database).Collection(cfg.Collection),
		batchSize: cfg.BatchSize,
		log:       log,
	}, nil
}

// EnsureIndexes creates the unique composite index if missing. Mongo
// treats an identical existing index as a no-op.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	idx := mongo.IndexModel{
		Keys: bson.D{
			{Key: model.FieldReceiptNo, Value: 1},
			{Key: model.FieldTruckNo, Value: 1},
			{Key: model.FieldGarageEntryAt, Value: 1},
		},
		Options: options.Index().
			SetName(compositeIndexName).
			SetUnique(true),
	}
	if _, err := m.coll.Indexes().CreateOne(ctx, idx); err != nil {
		return fmt.Errorf("create index %s: %w", compositeIndexName, err)
	}
	return nil
}

// Upsert writes records in batches of the configured size. Batches are
// unordered bulk replacements keyed by the composite key; a failed batch
// aborts the run with the committed count so far.
func (m *Mongo) Upsert(ctx context.Context, records []model.Record, loadedAt time.Time) (Outcome, error) {
	var out Outcome
	committed := 0

	for _, batch := range partition(records, m.batchSize) {
		models := make([]mongo.WriteModel, 0, len(batch))
		for _, rec := range batch {
			key, ok := rec.Key()
			if !ok {
				// Upstream stages drop keyless records; a stray one here
				// must not corrupt the collection.
				m.log.Warn("skipping record with incomplete key at write stage")
				continue
			}
			models = append(models, mongo.NewReplaceOneModel().
				SetFilter(KeyFilter(key)).
				SetReplacement(Document(rec, loadedAt)).
				SetUpsert(true))
		}
		if len(models) == 0 {
			continue
		}

		res, err := m.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
		if err != nil {
			return out, &PersistenceError{Committed: committed, Err: err}
		}
		out.add(Outcome{
			Matched:  res.MatchedCount,
			Modified: res.ModifiedCount,
			Upserted: res.UpsertedCount,
		})
		committed += len(models)

		m.log.Debug("batch committed",
			zap.Int("batch_size", len(models)),
			zap.Int64("matched", res.MatchedCount),
			zap.Int64("upserted", res.UpsertedCount))
	}
	return out, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
