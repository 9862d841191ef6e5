// Package coerce turns normalized string rows into typed records: day-first
// timestamp parsing for the known date columns, explicit nulls for the
// sentinel strings the export emits in place of missing values.
package coerce

import (
	"strings"
	"time"

	"github.com/crimson-sun/tread/internal/model"
)

// The export renders timestamps day-first. Layouts are tried in order;
// the first full match wins.
var timeLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02-01-2006",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// nullTokens are cell values that mean "no value". Matched after trimming
// and lowercasing.
var nullTokens = map[string]struct{}{
	"":     {},
	"-":    {},
	"n/a":  {},
	"na":   {},
	"nan":  {},
	"null": {},
}

// IsNull reports whether a raw cell value denotes an absent value.
func IsNull(s string) bool {
	_, ok := nullTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// ParseTime parses a day-first timestamp string. Returns nil for null
// tokens and for values no known layout accepts; callers treat both as
// absent rather than failing the row.
func ParseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if IsNull(s) {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// Row coerces one normalized row into a typed record. Never fails: bad
// cells degrade to nulls, and key-completeness is judged downstream.
func Row(row model.RawRow) model.Record {
	rec := model.Record{Extra: make(map[string]any)}
	for field, raw := range row {
		switch field {
		case model.FieldReceiptNo:
			rec.ReceiptNo = cleanString(raw)
		case model.FieldTruckNo:
			rec.TruckNo = cleanString(raw)
		case model.FieldGarageEntryAt:
			rec.GarageEntryAt = ParseTime(raw)
		case model.FieldGarageExitAt:
			rec.GarageExitAt = ParseTime(raw)
		case model.FieldUpdatedAt:
			rec.UpdatedAt = ParseTime(raw)
		default:
			rec.Extra[field] = coerceExtra(raw)
		}
	}
	return rec
}

// Rows coerces a batch of rows in order.
func Rows(rows []model.RawRow) []model.Record {
	out := make([]model.Record, len(rows))
	for i, row := range rows {
		out[i] = Row(row)
	}
	return out
}

func cleanString(s string) string {
	if IsNull(s) {
		return ""
	}
	return strings.TrimSpace(s)
}

func coerceExtra(raw string) any {
	if IsNull(raw) {
		return nil
	}
	return strings.TrimSpace(raw)
}
