package sheet

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kncci/jiinue-dashboard/internal/participant"
)

const sampleCSV = "Timestamp,Full Name,WHAT IS YOUR NATIONAL ID?,Phone Number,Gender,Age,County\n" +
	"3/14/2025 09:30:00,Jane Wanjiku,123456789,+254700111222,Female,25,Nairobi\n" +
	"3/15/2025 11:00:00,John Otieno,987654321,0700333444,male,40,Kisumu\n"

// testFetcher skips the private-IP guard so httptest servers are reachable.
func testFetcher(srv *httptest.Server) *Fetcher {
	return &Fetcher{Client: srv.Client()}
}

func newTestLoader(srv *httptest.Server, clock *fakeClock) *Loader {
	cache := NewCache(600*time.Second, clock.now)
	return NewLoader(testFetcher(srv), cache, srv.URL, participant.DefaultColumns(), participant.DefaultRules())
}

func TestLoaderLoadAndNormalize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	clock := &fakeClock{t: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	loader := newTestLoader(srv, clock)

	table, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table))
	}
	if table[0].NationalID != "123456789" || table[0].County != "Nairobi" {
		t.Fatalf("unexpected first row: %+v", table[0])
	}
	if table[1].Gender != "Male" {
		t.Fatalf("expected canonical gender, got %q", table[1].Gender)
	}
	if table[1].Phone != "0700333444" {
		t.Fatalf("expected digits-only phone, got %q", table[1].Phone)
	}
}

func TestLoaderServesCacheWithinWindow(t *testing.T) {
	var hits atomic.Int32
	payload := atomic.Value{}
	payload.Store(sampleCSV)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(payload.Load().(string)))
	}))
	defer srv.Close()

	clock := &fakeClock{t: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	loader := newTestLoader(srv, clock)

	if _, err := loader.Load(context.Background()); err != nil {
		t.Fatalf("first load failed: %v", err)
	}

	// Remote changes inside the window must not be visible.
	payload.Store("Timestamp,Full Name\nnow,Someone Else\n")
	clock.advance(300 * time.Second)

	table, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("second load failed: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected a single fetch within the window, got %d", hits.Load())
	}
	if len(table) != 2 {
		t.Fatalf("expected unchanged cached table, got %d rows", len(table))
	}

	clock.advance(301 * time.Second)
	table, err = loader.Load(context.Background())
	if err != nil {
		t.Fatalf("post-window load failed: %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected refetch after window, got %d fetches", hits.Load())
	}
	if len(table) != 1 {
		t.Fatalf("expected refreshed table, got %d rows", len(table))
	}
}

func TestLoaderRefreshBypassesCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	clock := &fakeClock{t: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	loader := newTestLoader(srv, clock)

	if _, err := loader.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, err := loader.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected refresh to refetch, got %d fetches", hits.Load())
	}
}

func TestLoaderSourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusBadGateway)
	}))
	defer srv.Close()

	clock := &fakeClock{t: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	loader := newTestLoader(srv, clock)

	_, err := loader.Load(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestLoaderFailedRefreshKeepsOldSnapshot(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "gone", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	clock := &fakeClock{t: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	loader := newTestLoader(srv, clock)

	if _, err := loader.Load(context.Background()); err != nil {
		t.Fatalf("seed load failed: %v", err)
	}

	fail.Store(true)
	if _, err := loader.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh failure")
	}

	table, _, ok := loader.Cached()
	if !ok || len(table) != 2 {
		t.Fatal("expected the previous snapshot to survive a failed refresh")
	}
}

func TestLoaderParsesPublishedHTML(t *testing.T) {
	html := `<html><body><table>
		<tr><td></td><td>Full Name</td><td>County</td></tr>
		<tr><td>1</td><td>Jane Wanjiku</td><td>Nairobi</td></tr>
		<tr><td>2</td><td>John Otieno</td><td>Kisumu</td></tr>
	</table></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
	}))
	defer srv.Close()

	clock := &fakeClock{t: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	loader := newTestLoader(srv, clock)

	table, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table))
	}
	if table[0].FullName != "Jane Wanjiku" || table[1].County != "Kisumu" {
		t.Fatalf("unexpected rows: %+v", table)
	}
}
