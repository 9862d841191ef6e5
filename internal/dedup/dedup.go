// Package dedup collapses rows sharing a composite key so each service
// event is written once per run.
package dedup

import (
	"sort"

	"github.com/crimson-sun/tread/internal/model"
)

// Result reports what the reducer did with a batch.
type Result struct {
	Kept              []model.Record
	Duplicates        int // rows discarded because a later row shared their key
	SkippedMissingKey int // rows dropped for an incomplete composite key
}

// Reduce drops records missing any composite-key component and collapses
// the rest by key, last occurrence winning. A re-exported row supersedes
// its earlier rendering within the same run. Kept records come back in
// the order their winning occurrence appeared.
func Reduce(records []model.Record) Result {
	if len(records) == 0 {
		return Result{}
	}

	type entry struct {
		rec model.Record
		pos int
	}
	var order []model.Key
	seen := make(map[model.Key]*entry)

	var res Result
	for i, rec := range records {
		key, ok := rec.Key()
		if !ok {
			res.SkippedMissingKey++
			continue
		}
		if e, exists := seen[key]; exists {
			// Last occurrence wins: supersede in place.
			e.rec = rec
			e.pos = i
			res.Duplicates++
			continue
		}
		seen[key] = &entry{rec: rec, pos: i}
		order = append(order, key)
	}

	// A key whose winner arrived late moves behind keys whose winners
	// stayed put.
	sort.SliceStable(order, func(a, b int) bool {
		return seen[order[a]].pos < seen[order[b]].pos
	})

	res.Kept = make([]model.Record, 0, len(order))
	for _, key := range order {
		res.Kept = append(res.Kept, seen[key].rec)
	}
	return res
}
