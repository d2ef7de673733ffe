package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"TickPull/internal/domain/models"
	drepo "TickPull/internal/domain/repository"
	"TickPull/internal/feed"
	"TickPull/pkg/logger"
	"TickPull/pkg/util"
)

// DownloadConfig holds the orchestration knobs. Concurrency bounds in-flight
// fetches per batch; the historical sweet spot ranges from 24 (one day) to a
// few hundred.
type DownloadConfig struct {
	Concurrency int
	RetryCount  int
	RetryDelay  time.Duration
}

// Downloader drives the fetch/decode/store pipeline for date ranges of
// hourly tick files.
type Downloader struct {
	fetcher  drepo.TickFetcher
	meta     drepo.MetaLookup
	store    drepo.TickStore
	metrics  drepo.Metrics
	log      *logger.Logger
	cfg      DownloadConfig
	progress *Progress
}

// NewDownloader creates a download orchestrator.
func NewDownloader(fetcher drepo.TickFetcher, lookup drepo.MetaLookup, store drepo.TickStore, metrics drepo.Metrics, log *logger.Logger, cfg DownloadConfig) *Downloader {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 24
	}
	return &Downloader{
		fetcher:  fetcher,
		meta:     lookup,
		store:    store,
		metrics:  metrics,
		log:      log,
		cfg:      cfg,
		progress: NewProgress(),
	}
}

// Progress exposes the live progress tracker for the status server.
func (d *Downloader) Progress() *Progress {
	return d.progress
}

// RunAll downloads each symbol in turn. A configuration failure (unknown
// symbol, unusable sink) skips that symbol only; later symbols still run.
// Returns permanently failed refs per symbol.
func (d *Downloader) RunAll(ctx context.Context, symbols []string, start, end time.Time) map[string][]models.HourRef {
	failures := make(map[string][]models.HourRef)
	for _, symbol := range symbols {
		failed, err := d.Run(ctx, symbol, start, end)
		if err != nil {
			d.log.Error("symbol skipped", logger.String("symbol", symbol), logger.Error(err))
			continue
		}
		failures[strings.ToUpper(symbol)] = failed
	}

	for symbol, failed := range failures {
		if len(failed) == 0 {
			d.log.Info("symbol complete", logger.String("symbol", symbol))
			continue
		}
		keys := make([]string, len(failed))
		for i, ref := range failed {
			keys[i] = ref.Key()
		}
		d.log.Error("symbol finished with permanent failures",
			logger.String("symbol", symbol),
			logger.Int("count", len(failed)),
			logger.Strings("refs", keys))
	}
	return failures
}

// Run downloads one symbol's range [start, end) and returns the refs that
// never succeeded. The error return covers configuration failures only;
// residual fetch failures are reported, not fatal.
func (d *Downloader) Run(ctx context.Context, symbol string, start, end time.Time) ([]models.HourRef, error) {
	symbol = strings.ToUpper(symbol)

	// Metadata must resolve before any network access for the symbol.
	m, err := d.meta.Lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if start.Before(m.HistoryStart) {
		clamped := util.DayStart(m.HistoryStart)
		d.log.Warn("start predates instrument history, clamping",
			logger.String("symbol", symbol),
			logger.Any("requested", start),
			logger.Any("history_start", m.HistoryStart))
		start = clamped
	}

	if err := d.store.Prepare(ctx, symbol); err != nil {
		return nil, err
	}

	work := feed.BuildRange(symbol, start, end)
	d.progress.Begin(symbol, len(work))
	d.log.Info("downloading",
		logger.String("symbol", symbol),
		logger.Any("from", start),
		logger.Any("to", end),
		logger.Int("hours", len(work)))

	var permanent []models.HourRef
	for attempt := 0; ; attempt++ {
		batchStart := time.Now()
		retry, failed := d.runBatch(ctx, work, m.PriceScale)
		d.metrics.RecordLatency("batch", time.Since(batchStart).Seconds())
		permanent = append(permanent, failed...)

		if len(retry) == 0 {
			break
		}
		if attempt >= d.cfg.RetryCount {
			permanent = append(permanent, retry...)
			break
		}

		d.progress.SetAttempt(attempt + 1)
		d.log.Info("retrying failed hours",
			logger.Int("attempt", attempt+1),
			logger.Int("of", d.cfg.RetryCount),
			logger.Int("refs", len(retry)))
		if err := sleepCtx(ctx, d.cfg.RetryDelay); err != nil {
			permanent = append(permanent, retry...)
			break
		}
		work = retry
	}

	d.progress.Finish(len(permanent))
	return permanent, nil
}

type fetchResult struct {
	ref    models.HourRef
	retry  bool
	failed bool
}

// runBatch fans the work set out under the concurrency bound and partitions
// outcomes. Orchestration state is only touched after every in-flight fetch
// has finished.
func (d *Downloader) runBatch(ctx context.Context, refs []models.HourRef, priceScale float64) (retry, failed []models.HourRef) {
	sem := make(chan struct{}, d.cfg.Concurrency)
	results := make(chan fetchResult, len(refs))

	var wg sync.WaitGroup
	for _, ref := range refs {
		wg.Add(1)
		go func(ref models.HourRef) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results <- d.processOne(ctx, ref, priceScale)
		}(ref)
	}
	wg.Wait()
	close(results)

	for r := range results {
		switch {
		case r.retry:
			retry = append(retry, r.ref)
		case r.failed:
			failed = append(failed, r.ref)
		}
	}
	return retry, failed
}

func (d *Downloader) processOne(ctx context.Context, ref models.HourRef, priceScale float64) fetchResult {
	payload, err := d.fetcher.Fetch(ctx, ref)
	switch {
	case errors.Is(err, feed.ErrNoData):
		// The provider has nothing for this hour (weekend, pre-listing).
		d.metrics.RecordFetch("nodata")
		d.progress.MarkDone()
		d.log.Debug("no data", logger.String("ref", ref.Key()))
		return fetchResult{ref: ref}
	case err != nil:
		d.metrics.RecordFetch("retryable")
		d.log.Debug("fetch failed", logger.String("ref", ref.Key()), logger.Error(err))
		return fetchResult{ref: ref, retry: true}
	}
	d.metrics.RecordBytes(len(payload))

	ticks, err := feed.Decode(payload, ref, priceScale)
	if err != nil {
		// Bad payload, not bad transport: refetching returns the same bytes,
		// so this goes straight to the permanent set.
		d.metrics.RecordFetch("decode_error")
		d.log.Error("decode failed", logger.String("ref", ref.Key()), logger.Error(err))
		return fetchResult{ref: ref, failed: true}
	}

	if err := d.store.Store(ctx, ref, ticks); err != nil {
		d.metrics.RecordFetch("store_error")
		d.log.Error("store failed", logger.String("ref", ref.Key()), logger.Error(err))
		return fetchResult{ref: ref, failed: true}
	}

	d.metrics.RecordFetch("ok")
	d.metrics.RecordTicks(ref.Symbol, len(ticks))
	d.progress.MarkDone()
	d.log.Debug("hour stored", logger.String("ref", ref.Key()), logger.Int("ticks", len(ticks)))
	return fetchResult{ref: ref}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
