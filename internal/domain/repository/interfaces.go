package repository

import (
	"context"

	"TickPull/internal/domain/models"
)

// MetaLookup resolves per-symbol instrument metadata. Lookups key on the
// uppercased symbol and must fail for unknown symbols before any tick fetch
// is attempted.
type MetaLookup interface {
	Lookup(ctx context.Context, symbol string) (*models.InstrumentMeta, error)
}

// TickStore persists the decoded ticks of one hourly file. Implementations
// must tolerate concurrent Store calls for distinct refs. Prepare runs once
// per symbol before any fetch so an unusable sink fails the symbol up front.
type TickStore interface {
	Prepare(ctx context.Context, symbol string) error
	Store(ctx context.Context, ref models.HourRef, ticks []models.Tick) error
	Close() error
}

// TickFetcher retrieves the compressed payload of one hourly file.
type TickFetcher interface {
	Fetch(ctx context.Context, ref models.HourRef) ([]byte, error)
}

// Metrics records pipeline observations.
type Metrics interface {
	RecordFetch(outcome string)
	RecordTicks(symbol string, n int)
	RecordBytes(n int)
	RecordLatency(op string, seconds float64)
}
