package usecase

import (
	"TickPull/pkg/logger"
)

// Aggregator will turn tick streams into fixed-interval OHLC candles.
// TODO: implement once the candle schema is settled; the subcommand is
// registered so the CLI surface is stable.
type Aggregator struct {
	log *logger.Logger
}

func NewAggregator(log *logger.Logger) *Aggregator {
	return &Aggregator{log: log}
}

// Run is a stub.
func (a *Aggregator) Run(symbols []string) error {
	a.log.Warn("aggregate is not implemented yet", logger.Strings("symbols", symbols))
	return nil
}
