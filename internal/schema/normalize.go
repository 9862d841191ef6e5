// Package schema canonicalizes raw export headers and maps them to the
// stable field names the rest of the pipeline keys on.
package schema

import (
	"regexp"
	"strings"

	"github.com/crimson-sun/tread/internal/model"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CanonicalizeHeader lowercases, trims, and collapses internal whitespace
// runs to a single underscore. Purely syntactic, deterministic, and
// idempotent: applying it twice yields the same result as once.
func CanonicalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return whitespaceRe.ReplaceAllString(h, "_")
}

// Normalize canonicalizes every header in every row and applies the
// mapping. Headers absent from the mapping pass through under their
// canonicalized form; the export grows columns over time and dropping
// unknowns would lose them.
func Normalize(rows []model.RawRow, m Mapping) []model.RawRow {
	out := make([]model.RawRow, len(rows))
	for i, row := range rows {
		out[i] = normalizeRow(row, m)
	}
	return out
}

func normalizeRow(row model.RawRow, m Mapping) model.RawRow {
	norm := make(model.RawRow, len(row))
	for raw, val := range row {
		key := CanonicalizeHeader(raw)
		if mapped, ok := m.Rename[key]; ok {
			key = mapped
		}
		// Two raw headers can map to one field; never let an empty cell
		// clobber a value that arrived under a sibling header.
		if existing, ok := norm[key]; ok && existing != "" {
			continue
		}
		norm[key] = val
	}

	// Derive declared alias fields from their fallbacks when absent.
	for field, fallback := range m.Fallbacks {
		if norm[field] == "" {
			if v, ok := norm[fallback]; ok && v != "" {
				norm[field] = v
			}
		}
	}
	return norm
}
