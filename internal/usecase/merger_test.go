package usecase

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeArtifact(t *testing.T, dir, name string, rows []string) {
	t.Helper()
	lines := append([]string{"datetime,ask,bid,ask_vol,bid_vol"}, rows...)
	if err := os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
}

func TestMergeSymbol(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	symDir := filepath.Join(in, "EURUSD")
	if err := os.MkdirAll(symDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	// written out of order; merge must order by name
	writeArtifact(t, symDir, "EURUSD_2003_01_05_13h_ticks.csv", []string{"2003-01-05 13:00:00.000,1.2,1.1,1,1"})
	writeArtifact(t, symDir, "EURUSD_2003_01_05_00h_ticks.csv", []string{"2003-01-05 00:00:00.000,1.0,0.9,1,1"})
	writeArtifact(t, symDir, "EURUSD_2003_01_06_02h_ticks.csv", []string{"2003-01-06 02:00:00.000,1.4,1.3,1,1"})

	m := NewMerger(in, out, quietLogger(t))
	if err := m.MergeSymbol("eurusd"); err != nil {
		t.Fatalf("merge: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(out, "EURUSD_ticks.csv"))
	if err != nil {
		t.Fatalf("read merged: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 1 header + 3 rows, got %d lines", len(lines))
	}
	if lines[0] != "datetime,ask,bid,ask_vol,bid_vol" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2003-01-05 00:") ||
		!strings.HasPrefix(lines[2], "2003-01-05 13:") ||
		!strings.HasPrefix(lines[3], "2003-01-06 02:") {
		t.Fatalf("rows out of order: %v", lines[1:])
	}
}

func TestMergeSymbolNoArtifacts(t *testing.T) {
	m := NewMerger(t.TempDir(), t.TempDir(), quietLogger(t))
	if err := m.MergeSymbol("EURUSD"); err == nil {
		t.Fatalf("expected error when nothing to merge")
	}
}
