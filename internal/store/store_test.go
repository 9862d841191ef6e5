package store

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/tread/internal/model"
)

func TestDocumentStampsAndNulls(t *testing.T) {
	entry := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	loaded := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	rec := model.Record{
		ReceiptNo:     "R-1",
		TruckNo:       "T-9",
		GarageEntryAt: &entry,
		Extra:         map[string]any{"mechanic": "Ali", "notes": nil},
	}

	doc := Document(rec, loaded)

	assert.Equal(t, "R-1", doc[model.FieldReceiptNo])
	assert.Equal(t, "T-9", doc[model.FieldTruckNo])
	assert.Equal(t, entry, doc[model.FieldGarageEntryAt])
	assert.Equal(t, loaded, doc[model.FieldLoadedAt])
	assert.Equal(t, "Ali", doc["mechanic"])

	// Absent timestamps and null extras persist as explicit nulls.
	assert.Nil(t, doc[model.FieldGarageExitAt])
	assert.Nil(t, doc[model.FieldUpdatedAt])
	v, ok := doc["notes"]
	require.True(t, ok)
	assert.Nil(t, v)
}

func TestDocumentExtraCannotShadowCoreFields(t *testing.T) {
	entry := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	rec := model.Record{
		ReceiptNo:     "R-1",
		TruckNo:       "T-1",
		GarageEntryAt: &entry,
		Extra: map[string]any{
			model.FieldReceiptNo: "spoofed",
			model.FieldLoadedAt:  "spoofed",
		},
	}

	doc := Document(rec, time.Now())
	assert.Equal(t, "R-1", doc[model.FieldReceiptNo])
	assert.NotEqual(t, "spoofed", doc[model.FieldLoadedAt])
}

func TestKeyFilter(t *testing.T) {
	entry := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	filter := KeyFilter(model.Key{ReceiptNo: "R-1", TruckNo: "T-1", GarageEntryAt: entry})

	assert.Len(t, filter, 3)
	assert.Equal(t, "R-1", filter[model.FieldReceiptNo])
	assert.Equal(t, "T-1", filter[model.FieldTruckNo])
	assert.Equal(t, entry, filter[model.FieldGarageEntryAt])
}

func TestPartition(t *testing.T) {
	recs := make([]model.Record, 5)

	batches := partition(recs, 2)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 2)
	assert.Len(t, batches[2], 1)

	assert.Len(t, partition(recs, 10), 1)
	assert.Len(t, partition(recs, 0), 1)
	assert.Nil(t, partition(nil, 2))
}

func TestStdoutStoreWritesOneLinePerRecord(t *testing.T) {
	entry := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	loaded := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	recs := []model.Record{
		{ReceiptNo: "R-1", TruckNo: "T-1", GarageEntryAt: &entry},
		{ReceiptNo: "R-2", TruckNo: "T-2", GarageEntryAt: &entry},
	}

	var buf bytes.Buffer
	s := NewStdout(&buf)
	out, err := s.Upsert(context.Background(), recs, loaded)
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Upserted)
	assert.Zero(t, out.Matched)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for i, line := range lines {
		var doc map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &doc), "line %d", i)
		assert.Contains(t, doc, model.FieldLoadedAt)
	}
	assert.Contains(t, lines[0], `"R-1"`)
	assert.Contains(t, lines[1], `"R-2"`)
}
