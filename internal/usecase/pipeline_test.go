package usecase

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"TickPull/internal/feed"
	internalrepo "TickPull/internal/repository"
	"TickPull/pkg/httpx"
)

// Full pipeline against a stub datafeed: URL construction, fetch
// classification, LZMA decode, CSV artifact.
func TestDownloadPipeline(t *testing.T) {
	var raw bytes.Buffer
	_ = binary.Write(&raw, binary.BigEndian, int32(1500))                    // ms offset
	_ = binary.Write(&raw, binary.BigEndian, int32(10371))                   // ask
	_ = binary.Write(&raw, binary.BigEndian, int32(10369))                   // bid
	_ = binary.Write(&raw, binary.BigEndian, math.Float32bits(1.5))          // ask vol
	_ = binary.Write(&raw, binary.BigEndian, math.Float32bits(0.75))         // bid vol
	payload := compressRaw(t, raw.Bytes())

	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/EURUSD/2003/00/05/00h_ticks.bi5" {
			_, _ = w.Write(payload)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	root := t.TempDir()
	store := internalrepo.NewCSVTickStore(root)
	client := feed.NewClient(srv.URL, httpx.NewClient())
	d := NewDownloader(client, eurusd, store, nopMetrics{}, quietLogger(t),
		DownloadConfig{Concurrency: 24, RetryCount: 1, RetryDelay: 0})

	failed, err := d.Run(context.Background(), "eurusd", day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(failed) != 0 {
		t.Fatalf("unexpected permanent failures %v", failed)
	}
	if len(paths) != 24 {
		t.Fatalf("expected 24 requests, got %d", len(paths))
	}
	for _, p := range paths {
		if !strings.Contains(p, "/EURUSD/2003/00/05/") {
			t.Fatalf("unexpected request path %s", p)
		}
	}

	b, err := os.ReadFile(filepath.Join(root, "EURUSD", "EURUSD_2003_01_05_00h_ticks.csv"))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if lines[1] != "2003-01-05 00:00:01.500,1.0371,1.0369,1.5,0.75" {
		t.Fatalf("unexpected row %q", lines[1])
	}

	// 404 hours leave no artifact behind
	entries, err := os.ReadDir(filepath.Join(root, "EURUSD"))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected a single artifact, got %d", len(entries))
	}
}
