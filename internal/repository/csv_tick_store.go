package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"TickPull/internal/domain/models"
)

// tsLayout renders tick timestamps with millisecond resolution.
const tsLayout = "2006-01-02 15:04:05.000"

// Header is the fixed first line of every tick CSV.
var Header = []string{"datetime", "ask", "bid", "ask_vol", "bid_vol"}

// CSVTickStore writes one CSV artifact per hourly file under
// {root}/{SYMBOL}/. File names are deterministic, so re-runs overwrite
// instead of duplicating, and zero padding keeps plain string sort
// chronological for the merge step.
type CSVTickStore struct {
	root string
}

// NewCSVTickStore creates a CSV sink rooted at dir.
func NewCSVTickStore(root string) *CSVTickStore {
	return &CSVTickStore{root: root}
}

// Prepare creates the symbol's output directory.
func (s *CSVTickStore) Prepare(_ context.Context, symbol string) error {
	dir := filepath.Join(s.root, strings.ToUpper(symbol))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

// Store writes the ticks of one hourly file, overwriting any previous
// artifact for the same ref.
func (s *CSVTickStore) Store(_ context.Context, ref models.HourRef, ticks []models.Tick) error {
	path := filepath.Join(s.root, ref.Symbol, ref.ArtifactName())

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		_ = f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range ticks {
		row := []string{
			t.Timestamp.UTC().Format(tsLayout),
			strconv.FormatFloat(t.Ask, 'f', -1, 64),
			strconv.FormatFloat(t.Bid, 'f', -1, 64),
			strconv.FormatFloat(t.AskVol, 'f', -1, 64),
			strconv.FormatFloat(t.BidVol, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// Close is a no-op; every Store call owns its file handle.
func (s *CSVTickStore) Close() error {
	return nil
}
