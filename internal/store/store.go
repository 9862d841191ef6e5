// Package store persists typed records into a document collection keyed
// by the composite natural key.
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/crimson-sun/tread/internal/model"
)

// Store defines the interface for record destinations.
type Store interface {
	// EnsureIndexes prepares the destination for keyed upserts. Safe to
	// call on every run.
	EnsureIndexes(ctx context.Context) error

	// Upsert writes the records, replacing any document with the same
	// composite key. loadedAt is stamped on every document as
	// etl_loaded_at.
	Upsert(ctx context.Context, records []model.Record, loadedAt time.Time) (Outcome, error)

	Close(ctx context.Context) error
}

// Outcome aggregates what the destination reported across all batches.
type Outcome struct {
	Matched  int64 // existing documents found for a key
	Modified int64 // documents actually rewritten
	Upserted int64 // documents created for previously unseen keys
}

func (o *Outcome) add(other Outcome) {
	o.Matched += other.Matched
	o.Modified += other.Modified
	o.Upserted += other.Upserted
}

// PersistenceError reports a write failure partway through a run.
// Committed counts records already durably written before the failure;
// keyed replacement makes retrying the whole run safe.
type PersistenceError struct {
	Committed int
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store: write failed after %d records committed: %v", e.Committed, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Document flattens a record into its persisted form. Absent timestamps
// persist as explicit nulls so a re-exported row can clear a previously
// set value.
func Document(rec model.Record, loadedAt time.Time) bson.M {
	doc := bson.M{
		model.FieldReceiptNo:     rec.ReceiptNo,
		model.FieldTruckNo:       rec.TruckNo,
		model.FieldGarageEntryAt: timeOrNil(rec.GarageEntryAt),
		model.FieldGarageExitAt:  timeOrNil(rec.GarageExitAt),
		model.FieldUpdatedAt:     timeOrNil(rec.UpdatedAt),
		model.FieldLoadedAt:      loadedAt,
	}
	for k, v := range rec.Extra {
		if _, taken := doc[k]; taken {
			continue
		}
		doc[k] = v
	}
	return doc
}

// KeyFilter selects the single document for a record's composite key.
func KeyFilter(key model.Key) bson.M {
	return bson.M{
		model.FieldReceiptNo:     key.ReceiptNo,
		model.FieldTruckNo:       key.TruckNo,
		model.FieldGarageEntryAt: key.GarageEntryAt,
	}
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// partition splits records into consecutive batches of at most size
// records. A non-positive size yields a single batch.
func partition(records []model.Record, size int) [][]model.Record {
	if len(records) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]model.Record{records}
	}
	batches := make([][]model.Record, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, records[start:end])
	}
	return batches
}
