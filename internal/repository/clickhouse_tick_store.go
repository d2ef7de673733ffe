package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"TickPull/internal/domain/models"
)

// ClickHouseTickStore batch-inserts decoded ticks into a MergeTree table.
type ClickHouseTickStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseTickStore creates a ClickHouse sink.
func NewClickHouseTickStore(db *sql.DB, table string) *ClickHouseTickStore {
	return &ClickHouseTickStore{db: db, table: table}
}

// Prepare pings the pool so a dead sink fails the symbol before any fetch.
func (s *ClickHouseTickStore) Prepare(ctx context.Context, _ string) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseTickStore) Store(ctx context.Context, ref models.HourRef, ticks []models.Tick) error {
	if len(ticks) == 0 {
		return nil
	}
	// Multi-row VALUES insert to reduce round-trips. Chunk size tuned to 2000
	// rows per statement.
	const chunkSize = 2000
	for start := 0; start < len(ticks); start += chunkSize {
		end := start + chunkSize
		if end > len(ticks) {
			end = len(ticks)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*6)
		for _, t := range ticks[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			args = append(args,
				ref.Symbol,
				t.Timestamp,
				t.Ask,
				t.Bid,
				t.AskVol,
				t.BidVol,
			)
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, ts, ask, bid, ask_vol, bid_vol) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert %s: %w", ref.Key(), err)
		}
	}
	return nil
}

// Close is a no-op; the pool is owned by pkg/clickhouse.
func (s *ClickHouseTickStore) Close() error {
	return nil
}
