package model

// RawRow is the intermediate type produced by the table extractor and
// consumed by the schema normalizer: raw header string → trimmed cell text.
type RawRow map[string]string
