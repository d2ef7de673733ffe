package meta

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"TickPull/internal/domain/models"
	"TickPull/pkg/cache"
	"TickPull/pkg/logger"
)

// ErrUnknownSymbol is returned when the provider lists no metadata for a
// symbol. It fails a symbol before any tick fetch starts.
var ErrUnknownSymbol = errors.New("meta: unknown symbol")

const cacheKey = "instruments"

// Service implements repository.MetaLookup with a cached instrument map.
// The cache lets separate invocations skip the metadata roundtrip when Redis
// backs it; the in-memory default just dedupes lookups within one run.
type Service struct {
	client *Client
	cache  cache.Service
	ttl    time.Duration
	log    *logger.Logger
}

// NewService creates a cached metadata lookup.
func NewService(client *Client, c cache.Service, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{client: client, cache: c, ttl: ttl, log: log}
}

// Lookup resolves one symbol's metadata.
func (s *Service) Lookup(ctx context.Context, symbol string) (*models.InstrumentMeta, error) {
	symbol = strings.ToUpper(symbol)

	table, err := s.instruments(ctx)
	if err != nil {
		return nil, err
	}
	m, ok := table[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return &m, nil
}

func (s *Service) instruments(ctx context.Context) (map[string]models.InstrumentMeta, error) {
	var table map[string]models.InstrumentMeta
	if err := s.cache.Get(ctx, cacheKey, &table); err == nil && len(table) > 0 {
		return table, nil
	}

	raw, err := s.client.FetchRaw(ctx)
	if err != nil {
		return nil, err
	}
	table, err = ParseInstruments(raw)
	if err != nil {
		return nil, err
	}
	s.log.Debug("instrument metadata refreshed", logger.Int("instruments", len(table)))

	if err := s.cache.Set(ctx, cacheKey, table, s.ttl); err != nil {
		s.log.Warn("metadata cache write failed", logger.Error(err))
	}
	return table, nil
}
