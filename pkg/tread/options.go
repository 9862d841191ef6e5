package tread

import (
	"io"
	"time"

	"go.uber.org/zap"
)

type options struct {
	cookieName  string
	httpTimeout time.Duration
	insecureTLS bool
	maxPages    int
	keepRagged  bool

	mongoURI       string
	database       string
	collection     string
	batchSize      int
	connectTimeout time.Duration

	dryRunTo io.Writer

	aliases   map[string]string
	fallbacks map[string]string

	log *zap.Logger
}

// Option configures a Syncer.
type Option func(*options)

// WithMongo sets the destination cluster URI. Required unless WithDryRun
// is given.
func WithMongo(uri string) Option {
	return func(o *options) { o.mongoURI = uri }
}

// WithDatabase overrides the destination database. Default: "atms".
func WithDatabase(name string) Option {
	return func(o *options) { o.database = name }
}

// WithCollection overrides the destination collection. Default: "tire".
func WithCollection(name string) Option {
	return func(o *options) { o.collection = name }
}

// WithBatchSize sets how many records go into one bulk write. Default: 1000.
func WithBatchSize(n int) Option {
	return func(o *options) { o.batchSize = n }
}

// WithCookieName overrides the session cookie name. Default: "PHPSESSID".
func WithCookieName(name string) Option {
	return func(o *options) { o.cookieName = name }
}

// WithHTTPTimeout bounds each page fetch. Default: 30s.
func WithHTTPTimeout(d time.Duration) Option {
	return func(o *options) { o.httpTimeout = d }
}

// WithInsecureTLS skips certificate verification. The export host runs a
// self-signed certificate; this is on by the CLI's default config but off
// here, where callers opt in.
func WithInsecureTLS() Option {
	return func(o *options) { o.insecureTLS = true }
}

// WithMaxPages caps the pagination walk. Default: 500.
func WithMaxPages(n int) Option {
	return func(o *options) { o.maxPages = n }
}

// WithKeepRaggedRows keeps rows whose cell count disagrees with the
// header instead of skipping them; missing cells read as empty.
func WithKeepRaggedRows() Option {
	return func(o *options) { o.keepRagged = true }
}

// WithHeaderAlias maps an additional raw header to a stable field name,
// on top of the built-in English and Arabic mappings.
func WithHeaderAlias(rawHeader, field string) Option {
	return func(o *options) {
		if o.aliases == nil {
			o.aliases = make(map[string]string)
		}
		o.aliases[rawHeader] = field
	}
}

// WithFallbackField derives field from fallback when a row lacks it.
func WithFallbackField(field, fallback string) Option {
	return func(o *options) {
		if o.fallbacks == nil {
			o.fallbacks = make(map[string]string)
		}
		o.fallbacks[field] = fallback
	}
}

// WithDryRun writes the would-be documents to w as JSON lines instead of
// touching MongoDB.
func WithDryRun(w io.Writer) Option {
	return func(o *options) { o.dryRunTo = w }
}

// WithLogger sets the logger. Default: no logging.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

func defaultOptions() options {
	return options{
		cookieName:     "PHPSESSID",
		httpTimeout:    30 * time.Second,
		maxPages:       500,
		database:       "atms",
		collection:     "tire",
		batchSize:      1000,
		connectTimeout: 20 * time.Second,
		log:            zap.NewNop(),
	}
}
