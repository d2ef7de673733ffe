package models

import (
	"fmt"
	"time"
)

// Tick is a single quote update decoded from an hourly feed file.
type Tick struct {
	Timestamp time.Time // millisecond precision, UTC
	Ask       float64
	Bid       float64
	AskVol    float64
	BidVol    float64
}

// HourRef identifies one fetchable hourly tick file: a symbol plus the UTC
// hour it covers. Month is 1-based here; the wire format is 0-based and the
// translation happens only at URL build/parse time.
type HourRef struct {
	Symbol string // uppercased
	Year   int
	Month  int // 1..12
	Day    int // 1..31
	Hour   int // 0..23
}

// Anchor returns the start-of-hour instant the file's tick offsets are
// relative to.
func (h HourRef) Anchor() time.Time {
	return time.Date(h.Year, time.Month(h.Month), h.Day, h.Hour, 0, 0, 0, time.UTC)
}

// Key is the canonical descriptor string, also used in logs and failure
// reports.
func (h HourRef) Key() string {
	return fmt.Sprintf("%s/%d/%02d/%02d/%02dh", h.Symbol, h.Year, h.Month, h.Day, h.Hour)
}

// ArtifactName is the per-hour output file name. Zero padding makes plain
// string sort equal chronological sort, which the merge step relies on.
func (h HourRef) ArtifactName() string {
	return fmt.Sprintf("%s_%d_%02d_%02d_%02dh_ticks.csv", h.Symbol, h.Year, h.Month, h.Day, h.Hour)
}

// InstrumentMeta carries the per-symbol fields needed to decode prices.
type InstrumentMeta struct {
	Symbol       string
	PriceScale   float64   // divisor for raw integer prices
	HistoryStart time.Time // earliest hour the provider has data for
}
