package fetch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/crimson-sun/tread/internal/model"
)

// PagePlaceholder marks where the page number goes in a URL template.
const PagePlaceholder = "{page}"

// Getter fetches a single URL. Satisfied by *Client.
type Getter interface {
	Get(ctx context.Context, url string) (string, error)
}

// ParseFunc turns one page of HTML into raw row records.
type ParseFunc func(html string) ([]model.RawRow, error)

// Collector walks a paged export strictly in page order, parsing each page
// as it is fetched. Downstream dedup keeps the last occurrence per key, so
// order here is load-bearing: a later page must come after an earlier one.
type Collector struct {
	client   Getter
	parse    ParseFunc
	template string
	maxPages int
	log      *zap.Logger
}

// NewCollector creates a Collector over the given URL template. A template
// without the {page} placeholder is treated as a single-page export.
// maxPages caps the walk as a safety valve against a server that never
// returns an empty page.
func NewCollector(client Getter, parse ParseFunc, template string, maxPages int, log *zap.Logger) *Collector {
	if maxPages < 1 {
		maxPages = 1
	}
	return &Collector{
		client:   client,
		parse:    parse,
		template: template,
		maxPages: maxPages,
		log:      log,
	}
}

// Collect fetches pages starting at 1 until a page yields zero rows or the
// page cap is hit, and returns all rows in fetch order plus the number of
// pages that contributed rows.
//
// Any page failure fails the whole collection: an incomplete accumulation
// must never be mistaken for "all pages consumed".
func (c *Collector) Collect(ctx context.Context) ([]model.RawRow, int, error) {
	if !strings.Contains(c.template, PagePlaceholder) {
		rows, err := c.fetchPage(ctx, c.template)
		if err != nil {
			return nil, 0, err
		}
		return rows, 1, nil
	}

	var all []model.RawRow
	pages := 0
	for page := 1; page <= c.maxPages; page++ {
		url := strings.ReplaceAll(c.template, PagePlaceholder, strconv.Itoa(page))
		rows, err := c.fetchPage(ctx, url)
		if err != nil {
			return nil, pages, fmt.Errorf("page %d: %w", page, err)
		}
		if len(rows) == 0 {
			return all, pages, nil
		}
		all = append(all, rows...)
		pages++
		c.log.Debug("collected page", zap.Int("page", page), zap.Int("rows", len(rows)))

		if page == c.maxPages {
			// Cap reached without an empty page; the data below the cap is
			// still good, but the server may hold more.
			c.log.Warn("page cap reached before empty page", zap.Int("max_pages", c.maxPages))
		}
	}
	return all, pages, nil
}

func (c *Collector) fetchPage(ctx context.Context, url string) ([]model.RawRow, error) {
	body, err := c.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	return c.parse(body)
}
