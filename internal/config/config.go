package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds all tread configuration. It is built once at startup and
// passed by reference into each component; no component reads the process
// environment directly.
type Config struct {
	Source SourceConfig
	Store  StoreConfig
	Run    RunConfig
}

// SourceConfig holds settings for the legacy export source.
type SourceConfig struct {
	// URL of the export page, or a template containing "{page}" when the
	// export is paged.
	URL string `validate:"required,url"`
	// SessionToken is the pre-established session cookie value. Acquiring
	// it is out of scope; an expired token fails the run.
	SessionToken string `validate:"required"`
	// CookieName the session token is sent under.
	CookieName string
	// Timeout for each page fetch.
	Timeout time.Duration
	// InsecureSkipVerify disables TLS certificate verification; the legacy
	// server's chain is broken.
	InsecureSkipVerify bool
	// MaxPages caps pagination as a safety valve against a misbehaving
	// server that never returns an empty page.
	MaxPages int
	// DropRagged skips data rows whose cell count doesn't match the header
	// count. Disable for export formats where short rows are expected.
	DropRagged bool
}

// StoreConfig holds target document-store settings.
type StoreConfig struct {
	URI        string `validate:"required"`
	Database   string
	Collection string
	BatchSize  int
	// ConnectTimeout bounds both connect and server selection so a dead
	// target fails fast.
	ConnectTimeout time.Duration
	// DryRun writes records to stdout instead of the store.
	DryRun bool
}

// RunConfig holds process-level settings.
type RunConfig struct {
	LogLevel   string
	PrettyLogs bool
}

// Load reads configuration from TREAD_* environment variables with
// defaults matching the legacy job. Call Validate before use.
func Load() Config {
	return Config{
		Source: SourceConfig{
			URL:                os.Getenv("TREAD_EXPORT_URL"),
			SessionToken:       os.Getenv("TREAD_SESSION"),
			CookieName:         getenv("TREAD_SESSION_COOKIE", "PHPSESSID"),
			Timeout:            getenvDuration("TREAD_HTTP_TIMEOUT", 30*time.Second),
			InsecureSkipVerify: getenvBool("TREAD_INSECURE_SKIP_VERIFY", true),
			MaxPages:           getenvInt("TREAD_MAX_PAGES", 500),
			DropRagged:         getenvBool("TREAD_DROP_RAGGED", true),
		},
		Store: StoreConfig{
			URI:            os.Getenv("TREAD_MONGO_URI"),
			Database:       getenv("TREAD_MONGO_DB", "atms"),
			Collection:     getenv("TREAD_MONGO_COLLECTION", "tire"),
			BatchSize:      getenvInt("TREAD_BATCH_SIZE", 1000),
			ConnectTimeout: getenvDuration("TREAD_MONGO_TIMEOUT", 20*time.Second),
			DryRun:         getenvBool("TREAD_DRY_RUN", false),
		},
		Run: RunConfig{
			LogLevel:   getenv("TREAD_LOG_LEVEL", "info"),
			PrettyLogs: getenvBool("TREAD_PRETTY_LOGS", false),
		},
	}
}

// MissingError reports required external inputs that were absent or
// invalid. It is fatal before any work is attempted.
type MissingError struct {
	Fields []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("config: missing or invalid: %v", e.Fields)
}

// Validate checks required fields and value sanity. Returns *MissingError
// listing every offending field so operators fix them in one pass.
func (c *Config) Validate() error {
	var fields []string
	if err := validate.Struct(c.Source); err != nil {
		fields = append(fields, fieldNames("source", err)...)
	}
	if !c.Store.DryRun {
		if err := validate.Struct(c.Store); err != nil {
			fields = append(fields, fieldNames("store", err)...)
		}
	}
	if c.Store.BatchSize <= 0 {
		fields = append(fields, "store.BatchSize")
	}
	if c.Source.MaxPages <= 0 {
		fields = append(fields, "source.MaxPages")
	}
	if len(fields) > 0 {
		return &MissingError{Fields: fields}
	}
	return nil
}

func fieldNames(prefix string, err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{prefix}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, prefix+"."+fe.Field())
	}
	return out
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
