// Package pipeline connects the fetch, transform, and store stages into a
// single sync run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crimson-sun/tread/internal/coerce"
	"github.com/crimson-sun/tread/internal/dedup"
	"github.com/crimson-sun/tread/internal/model"
	"github.com/crimson-sun/tread/internal/schema"
	"github.com/crimson-sun/tread/internal/store"
)

// Source produces the raw rows for one run, plus the number of pages that
// contributed. Satisfied by *fetch.Collector.
type Source interface {
	Collect(ctx context.Context) ([]model.RawRow, int, error)
}

// Pipeline runs one fetch-transform-store cycle per Run call.
type Pipeline struct {
	source  Source
	mapping schema.Mapping
	store   store.Store
	log     *zap.Logger
	now     func() time.Time
}

// New creates a Pipeline from the given components.
func New(source Source, mapping schema.Mapping, st store.Store, log *zap.Logger) *Pipeline {
	return &Pipeline{
		source:  source,
		mapping: mapping,
		store:   st,
		log:     log,
		now:     time.Now,
	}
}

// Result summarizes one completed run.
type Result struct {
	RunID             string
	RowsFetched       int
	Pages             int
	EmptyRows         int // fully null rows discarded before keying
	SkippedMissingKey int
	Duplicates        int
	Matched           int64
	Modified          int64
	Upserted          int64
	Duration          time.Duration
}

// Run executes one sync: collect every page, normalize and type the rows,
// collapse duplicate keys, and upsert the survivors. Every document in a
// run carries the same etl_loaded_at stamp.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := p.now()
	loadedAt := start.UTC()
	res := &Result{RunID: uuid.NewString()}
	log := p.log.With(zap.String("run_id", res.RunID))

	rows, pages, err := p.source.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	res.RowsFetched = len(rows)
	res.Pages = pages
	log.Info("rows collected", zap.Int("rows", len(rows)), zap.Int("pages", pages))

	records := coerce.Rows(schema.Normalize(rows, p.mapping))
	records, res.EmptyRows = dropEmpty(records)

	reduced := dedup.Reduce(records)
	res.SkippedMissingKey = reduced.SkippedMissingKey
	res.Duplicates = reduced.Duplicates
	if res.EmptyRows > 0 || reduced.SkippedMissingKey > 0 || reduced.Duplicates > 0 {
		log.Info("rows discarded",
			zap.Int("empty", res.EmptyRows),
			zap.Int("missing_key", reduced.SkippedMissingKey),
			zap.Int("duplicates", reduced.Duplicates))
	}

	if len(reduced.Kept) > 0 {
		out, err := p.store.Upsert(ctx, reduced.Kept, loadedAt)
		res.Matched = out.Matched
		res.Modified = out.Modified
		res.Upserted = out.Upserted
		if err != nil {
			return nil, fmt.Errorf("persist: %w", err)
		}
	}

	res.Duration = p.now().Sub(start)
	log.Info("run complete",
		zap.Int("written", len(reduced.Kept)),
		zap.Int64("matched", res.Matched),
		zap.Int64("upserted", res.Upserted),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// dropEmpty removes records with no values at all. The export pads its
// last page with blank rows; keying would reject them anyway, but they
// deserve their own counter.
func dropEmpty(records []model.Record) ([]model.Record, int) {
	kept := records[:0]
	dropped := 0
	for _, rec := range records {
		if rec.Empty() {
			dropped++
			continue
		}
		kept = append(kept, rec)
	}
	return kept, dropped
}
