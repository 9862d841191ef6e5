package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crimson-sun/tread/internal/extract"
	"github.com/crimson-sun/tread/internal/fetch"
	"github.com/crimson-sun/tread/internal/model"
	"github.com/crimson-sun/tread/internal/schema"
	"github.com/crimson-sun/tread/internal/store"
)

func exportPage(rows ...[3]string) string {
	var b strings.Builder
	b.WriteString(`<html><body><table><tr><th>Receipt No</th><th>Truck No</th><th>Garage Entry At</th></tr>`)
	for _, r := range rows {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td></tr>", r[0], r[1], r[2])
	}
	b.WriteString(`</table></body></html>`)
	return b.String()
}

// Full stack: session-cookie fetch, pagination, table extraction, header
// mapping, coercion, dedup, and a dry-run store.
func TestPipelineAgainstLiveServer(t *testing.T) {
	pages := map[string]string{
		"1": exportPage(
			[3]string{"R-1", "T-1", "01/02/2024"},
			[3]string{"R-2", "T-2", "02/02/2024"},
		),
		"2": exportPage(
			[3]string{"R-1", "T-1", "01/02/2024"}, // re-exported on a later page
		),
		"3": exportPage(),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("PHPSESSID"); err != nil || c.Value != "sess-token" {
			http.Error(w, "no session", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, pages[r.URL.Query().Get("page")])
	}))
	defer srv.Close()

	client := fetch.New("sess-token")
	parse := func(html string) ([]model.RawRow, error) {
		return extract.Rows(html, extract.Options{DropRagged: true})
	}
	collector := fetch.NewCollector(client, parse, srv.URL+"?page={page}", 50, zap.NewNop())

	var buf bytes.Buffer
	p := New(collector, schema.DefaultMapping, store.NewStdout(&buf), zap.NewNop())

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.RowsFetched)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, int64(2), res.Upserted)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "\n"))
	assert.Contains(t, out, `"receipt_no":"R-2"`)
	assert.Contains(t, out, `"receipt_no":"R-1"`)
	assert.Contains(t, out, "2024-02-01")
	assert.Contains(t, out, "etl_loaded_at")
}

// A second run over the same export produces identical documents except
// for the freshness stamp.
func TestPipelineRerunIsIdempotent(t *testing.T) {
	page := exportPage([3]string{"R-1", "T-1", "01/02/2024"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	run := func() string {
		client := fetch.New("tok")
		parse := func(html string) ([]model.RawRow, error) {
			return extract.Rows(html, extract.Options{})
		}
		collector := fetch.NewCollector(client, parse, srv.URL, 1, zap.NewNop())
		var buf bytes.Buffer
		p := New(collector, schema.DefaultMapping, store.NewStdout(&buf), zap.NewNop())
		_, err := p.Run(context.Background())
		require.NoError(t, err)
		return buf.String()
	}

	first, second := run(), run()
	assert.Equal(t, stripLoadedAt(t, first), stripLoadedAt(t, second))
}

func stripLoadedAt(t *testing.T, ndjson string) string {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(ndjson), "\n")
	for i, line := range lines {
		start := strings.Index(line, `"etl_loaded_at"`)
		require.GreaterOrEqual(t, start, 0)
		end := strings.Index(line[start:], ",")
		if end < 0 {
			end = strings.Index(line[start:], "}")
		}
		lines[i] = line[:start] + line[start+end:]
	}
	return strings.Join(lines, "\n")
}
