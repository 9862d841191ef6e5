package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/crimson-sun/tread/internal/model"
)

// StdoutStore prints the documents a run would persist, one JSON object
// per line. Dry-run destination: nothing touches the real collection.
type StdoutStore struct {
	enc *json.Encoder
}

// NewStdout creates a StdoutStore writing to w.
func NewStdout(w io.Writer) *StdoutStore {
	return &StdoutStore{enc: json.NewEncoder(w)}
}

func (s *StdoutStore) EnsureIndexes(context.Context) error { return nil }

// Upsert encodes each record's persisted form. Every document counts as
// an upsert; there is no existing state to match against.
func (s *StdoutStore) Upsert(_ context.Context, records []model.Record, loadedAt time.Time) (Outcome, error) {
	var out Outcome
	for i, rec := range records {
		if err := s.enc.Encode(Document(rec, loadedAt)); err != nil {
			return out, &PersistenceError{Committed: i, Err: fmt.Errorf("encode: %w", err)}
		}
		out.Upserted++
	}
	return out, nil
}

func (s *StdoutStore) Close(context.Context) error { return nil }
