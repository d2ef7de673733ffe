package meta

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"TickPull/pkg/cache"
	"TickPull/pkg/httpx"
	"TickPull/pkg/logger"
)

const instrumentsJSONP = `jsonp({"instruments":{` +
	`"EUR/USD":{"pipValue":0.0001,"history_start_tick":"1041379200000"},` +
	`"USD/JPY":{"pipValue":0.01,"history_start_tick":"1041379200000"},` +
	`"BROKEN/ONE":{"pipValue":0.0001},` +
	`"BAD/TS":{"pipValue":0.0001,"history_start_tick":"not-a-number"}` +
	`}})`

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestStripJSONP(t *testing.T) {
	got, err := StripJSONP([]byte(`jsonp({"a":1})`))
	if err != nil {
		t.Fatalf("strip: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("unexpected payload %q", got)
	}

	if _, err := StripJSONP([]byte(`{"a":1}`)); err == nil {
		t.Fatalf("expected error without envelope")
	}
}

func TestParseInstruments(t *testing.T) {
	raw, err := StripJSONP([]byte(instrumentsJSONP))
	if err != nil {
		t.Fatalf("strip: %v", err)
	}
	table, err := ParseInstruments(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("expected 2 usable instruments, got %d", len(table))
	}

	eur, ok := table["EURUSD"]
	if !ok {
		t.Fatalf("EURUSD missing: %v", table)
	}
	if eur.PriceScale != 10/0.0001 {
		t.Fatalf("unexpected price scale %v", eur.PriceScale)
	}
	want := time.UnixMilli(1041379200000).UTC()
	if !eur.HistoryStart.Equal(want) {
		t.Fatalf("unexpected history start %v", eur.HistoryStart)
	}

	jpy := table["USDJPY"]
	if jpy.PriceScale != 10/0.01 {
		t.Fatalf("unexpected jpy scale %v", jpy.PriceScale)
	}
}

func TestServiceLookup(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Referer") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(instrumentsJSONP))
	}))
	defer srv.Close()

	log := testLogger(t)
	client := NewClient(srv.URL, "https://freeserv.dukascopy.com/", 3, httpx.NewClient(), log)
	svc := NewService(client, cache.NewMemoryCache(), time.Hour, log)
	ctx := context.Background()

	m, err := svc.Lookup(ctx, "eurusd")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if m.Symbol != "EURUSD" {
		t.Fatalf("unexpected symbol %s", m.Symbol)
	}

	// second lookup served from cache
	if _, err := svc.Lookup(ctx, "USDJPY"); err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected 1 upstream fetch, got %d", hits.Load())
	}

	_, err = svc.Lookup(ctx, "NOPE")
	if !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
}

func TestClientRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(instrumentsJSONP))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "ref", 5, httpx.NewClient(), testLogger(t))
	raw, err := client.FetchRaw(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(raw) == 0 {
		t.Fatalf("expected payload after retries")
	}
	if hits.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits.Load())
	}
}
