package sheet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kncci/jiinue-dashboard/internal/participant"
)

// ErrSourceUnavailable wraps any fetch or parse failure of the remote sheet.
// It aborts only the current load; a previously cached snapshot survives.
var ErrSourceUnavailable = errors.New("participant sheet unavailable")

// Loader fetches, parses, and normalizes the participant sheet, memoizing the
// result in a TTL cache. It is the only component that mutates shared state.
type Loader struct {
	fetcher *Fetcher
	cache   *Cache
	url     string
	cols    participant.Columns
	rules   participant.Rules
}

func NewLoader(fetcher *Fetcher, cache *Cache, url string, cols participant.Columns, rules participant.Rules) *Loader {
	return &Loader{
		fetcher: fetcher,
		cache:   cache,
		url:     url,
		cols:    cols,
		rules:   rules,
	}
}

// Load returns the current snapshot. Within the staleness window it returns
// the cached table without any network access; otherwise it refreshes. It
// never retries on its own — the caller re-invoking Load is the retry path.
func (l *Loader) Load(ctx context.Context) (participant.Table, error) {
	if table, _, ok := l.cache.Fresh(); ok {
		return table, nil
	}
	return l.Refresh(ctx)
}

// Refresh bypasses the staleness check, fetches the sheet, and replaces the
// cached snapshot. On failure the cache is left untouched.
func (l *Loader) Refresh(ctx context.Context) (participant.Table, error) {
	doc, err := l.fetcher.Fetch(ctx, l.url)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrSourceUnavailable, l.url, err)
	}
	defer doc.Body.Close()

	var raw *RawTable
	if strings.Contains(doc.ContentType, "html") {
		raw, err = ParseHTML(doc.Body)
	} else {
		raw, err = ParseCSV(doc.Body)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrSourceUnavailable, err)
	}

	table := participant.NormalizeTable(raw.Header, raw.Rows, l.cols, l.rules)
	l.cache.Put(table)
	return table, nil
}

// Cached exposes the last snapshot regardless of age, for callers that prefer
// stale data over a failure indicator.
func (l *Loader) Cached() (participant.Table, time.Time, bool) {
	return l.cache.Last()
}
