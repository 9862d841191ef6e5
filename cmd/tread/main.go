package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/crimson-sun/tread/internal/config"
	"github.com/crimson-sun/tread/internal/extract"
	"github.com/crimson-sun/tread/internal/fetch"
	"github.com/crimson-sun/tread/internal/logging"
	"github.com/crimson-sun/tread/internal/model"
	"github.com/crimson-sun/tread/internal/pipeline"
	"github.com/crimson-sun/tread/internal/schema"
	"github.com/crimson-sun/tread/internal/store"
)

func main() {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "tread: %v\n", err)
		os.Exit(2)
	}

	log, err := logging.New(cfg.Run.LogLevel, cfg.Run.PrettyLogs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tread: %v\n", err)
		os.Exit(2)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	// Cancel the run on SIGINT/SIGTERM; an aborted run is safe to retry.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := buildStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	if err := st.EnsureIndexes(ctx); err != nil {
		return err
	}

	clientOpts := []fetch.Option{
		fetch.WithTimeout(cfg.Source.Timeout),
		fetch.WithCookieName(cfg.Source.CookieName),
	}
	if cfg.Source.InsecureSkipVerify {
		clientOpts = append(clientOpts, fetch.WithInsecureTLS())
	}
	client := fetch.New(cfg.Source.SessionToken, clientOpts...)

	parse := func(html string) ([]model.RawRow, error) {
		return extract.Rows(html, extract.Options{DropRagged: cfg.Source.DropRagged})
	}
	collector := fetch.NewCollector(client, parse, cfg.Source.URL, cfg.Source.MaxPages, log)

	p := pipeline.New(collector, schema.DefaultMapping, st, log)
	res, err := p.Run(ctx)
	if err != nil {
		var authErr *fetch.AuthExpiredError
		if errors.As(err, &authErr) {
			return fmt.Errorf("session expired, refresh %s: %w", cfg.Source.CookieName, err)
		}
		return err
	}

	log.Info("sync finished",
		zap.String("run_id", res.RunID),
		zap.Int("rows_fetched", res.RowsFetched),
		zap.Int("pages", res.Pages),
		zap.Int("empty_rows", res.EmptyRows),
		zap.Int("missing_key", res.SkippedMissingKey),
		zap.Int("duplicates", res.Duplicates),
		zap.Int64("matched", res.Matched),
		zap.Int64("modified", res.Modified),
		zap.Int64("upserted", res.Upserted),
		zap.Duration("duration", res.Duration))
	return nil
}

func buildStore(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Store, error) {
	if cfg.Store.DryRun {
		log.Info("dry run: documents go to stdout")
		return store.NewStdout(os.Stdout), nil
	}
	return store.Connect(ctx, store.MongoConfig{
		URI:            cfg.Store.URI,
		Database:       cfg.Store.Database,
		Collection:     cfg.Store.Collection,
		BatchSize:      cfg.Store.BatchSize,
		ConnectTimeout: cfg.Store.ConnectTimeout,
	}, log)
}
