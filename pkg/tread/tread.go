package tread

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crimson-sun/tread/internal/extract"
	"github.com/crimson-sun/tread/internal/fetch"
	"github.com/crimson-sun/tread/internal/model"
	"github.com/crimson-sun/tread/internal/pipeline"
	"github.com/crimson-sun/tread/internal/schema"
	"github.com/crimson-sun/tread/internal/store"
)

// Syncer pulls the garage export into its destination collection. Create
// once and reuse; each Sync call is one complete, idempotent run.
type Syncer struct {
	pipe  *pipeline.Pipeline
	store store.Store
}

// Summary reports what one Sync run did.
type Summary struct {
	RunID             string
	RowsFetched       int
	Pages             int
	EmptyRows         int
	SkippedMissingKey int
	Duplicates        int
	Matched           int64
	Modified          int64
	Upserted          int64
	Duration          time.Duration
}

// New builds a Syncer for the given export URL and session token. The
// destination is dialed and indexed here so a dead cluster fails fast.
func New(ctx context.Context, exportURL, sessionToken string, opts ...Option) (*Syncer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if exportURL == "" {
		return nil, errors.New("tread: export URL is required")
	}
	if sessionToken == "" {
		return nil, errors.New("tread: session token is required")
	}

	st, err := buildStore(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("tread: %w", err)
	}
	if err := st.EnsureIndexes(ctx); err != nil {
		_ = st.Close(ctx)
		return nil, fmt.Errorf("tread: %w", err)
	}

	clientOpts := []fetch.Option{
		fetch.WithTimeout(o.httpTimeout),
		fetch.WithCookieName(o.cookieName),
	}
	if o.insecureTLS {
		clientOpts = append(clientOpts, fetch.WithInsecureTLS())
	}
	client := fetch.New(sessionToken, clientOpts...)

	parse := func(html string) ([]model.RawRow, error) {
		return extract.Rows(html, extract.Options{DropRagged: !o.keepRagged})
	}
	collector := fetch.NewCollector(client, parse, exportURL, o.maxPages, o.log)

	return &Syncer{
		pipe:  pipeline.New(collector, buildMapping(o), st, o.log),
		store: st,
	}, nil
}

// Sync runs one fetch-transform-store cycle.
func (s *Syncer) Sync(ctx context.Context) (Summary, error) {
	res, err := s.pipe.Run(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		RunID:             res.RunID,
		RowsFetched:       res.RowsFetched,
		Pages:             res.Pages,
		EmptyRows:         res.EmptyRows,
		SkippedMissingKey: res.SkippedMissingKey,
		Duplicates:        res.Duplicates,
		Matched:           res.Matched,
		Modified:          res.Modified,
		Upserted:          res.Upserted,
		Duration:          res.Duration,
	}, nil
}

// Close releases the destination connection.
func (s *Syncer) Close(ctx context.Context) error {
	return s.store.Close(ctx)
}

func buildStore(ctx context.Context, o options) (store.Store, error) {
	if o.dryRunTo != nil {
		return store.NewStdout(o.dryRunTo), nil
	}
	if o.mongoURI == "" {
		return nil, errors.New("destination required: use WithMongo or WithDryRun")
	}
	return store.Connect(ctx, store.MongoConfig{
		URI:            o.mongoURI,
		Database:       o.database,
		Collection:     o.collection,
		BatchSize:      o.batchSize,
		ConnectTimeout: o.connectTimeout,
	}, o.log)
}

// buildMapping layers caller aliases and fallbacks over the defaults.
func buildMapping(o options) schema.Mapping {
	if len(o.aliases) == 0 && len(o.fallbacks) == 0 {
		return schema.DefaultMapping
	}
	m := schema.Mapping{
		Rename:    make(map[string]string, len(schema.DefaultMapping.Rename)+len(o.aliases)),
		Fallbacks: make(map[string]string, len(schema.DefaultMapping.Fallbacks)+len(o.fallbacks)),
	}
	for k, v := range schema.DefaultMapping.Rename {
		m.Rename[k] = v
	}
	for raw, field := range o.aliases {
		m.Rename[schema.CanonicalizeHeader(raw)] = field
	}
	for k, v := range schema.DefaultMapping.Fallbacks {
		m.Fallbacks[k] = v
	}
	for k, v := range o.fallbacks {
		m.Fallbacks[k] = v
	}
	return m
}
