package di

import (
	"context"
	"fmt"
	"time"

	drepo "TickPull/internal/domain/repository"
	"TickPull/internal/feed"
	"TickPull/internal/handler/api"
	internalrepo "TickPull/internal/repository"
	"TickPull/internal/service/meta"
	"TickPull/internal/usecase"
	"TickPull/pkg/cache"
	pkgch "TickPull/pkg/clickhouse"
	"TickPull/pkg/config"
	"TickPull/pkg/httpx"
	pkgkafka "TickPull/pkg/kafka"
	"TickPull/pkg/logger"
	"TickPull/pkg/metrics"
)

// App bundles the wired components for one invocation.
type App struct {
	Cfg        *config.Config
	Log        *logger.Logger
	Downloader *usecase.Downloader
	Meta       *meta.Client
	Status     *api.StatusServer

	closers []func() error
}

// Close releases sinks and clients in reverse construction order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// InitializeApp wires up all dependencies.
func InitializeApp(cfg *config.Config) (*App, error) {
	log, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}

	rec := metrics.New()
	metaSvc, metaClient, metaCache, err := ProvideMeta(cfg, log)
	if err != nil {
		return nil, err
	}

	store, storeClosers, err := ProvideTickStore(cfg)
	if err != nil {
		_ = metaCache.Close()
		return nil, err
	}

	fetcher := ProvideFeedClient(cfg)
	dl := usecase.NewDownloader(fetcher, metaSvc, store, rec, log, usecase.DownloadConfig{
		Concurrency: cfg.Feed.Concurrency,
		RetryCount:  cfg.Feed.RetryCount,
		RetryDelay:  cfg.Feed.RetryDelay,
	})

	app := &App{
		Cfg:        cfg,
		Log:        log,
		Downloader: dl,
		Meta:       metaClient,
		closers:    append([]func() error{metaCache.Close}, storeClosers...),
	}
	if cfg.Server.Enabled {
		app.Status = api.NewStatusServer(dl.Progress(), cfg.Server.Port, cfg.Server.ShutdownTimeout, log)
	}
	return app, nil
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideFeedClient creates the datafeed fetch client.
func ProvideFeedClient(cfg *config.Config) *feed.Client {
	return feed.NewClient(cfg.Feed.BaseURL, httpx.NewClient(httpx.WithTimeout(cfg.Feed.HTTPTimeout)))
}

// ProvideMeta creates the cached instrument metadata lookup.
func ProvideMeta(cfg *config.Config, log *logger.Logger) (*meta.Service, *meta.Client, cache.Service, error) {
	var c cache.Service
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Redis.Host),
			cache.WithRedisPort(cfg.Redis.Port),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
		)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		c = rc
	} else {
		c = cache.NewMemoryCache()
	}

	client := meta.NewClient(cfg.Meta.URL, cfg.Meta.Referer, cfg.Meta.RetryCount,
		httpx.NewClient(httpx.WithTimeout(cfg.Meta.Timeout)), log)
	svc := meta.NewService(client, c, cfg.Meta.CacheTTL, log)
	return svc, client, c, nil
}

// ProvideTickStore creates the configured sink.
func ProvideTickStore(cfg *config.Config) (drepo.TickStore, []func() error, error) {
	switch cfg.Sink.Type {
	case "csv":
		return internalrepo.NewCSVTickStore(cfg.Sink.OutputDir), nil, nil

	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		table := cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
		if err := client.InitSchema(ctx, []string{
			"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
			"CREATE TABLE IF NOT EXISTS " + table +
				" (symbol String, ts DateTime64(3, 'UTC'), ask Float64, bid Float64," +
				" ask_vol Float64, bid_vol Float64)" +
				" ENGINE=MergeTree ORDER BY (symbol, ts)",
		}); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		store := internalrepo.NewClickHouseTickStore(client.DB(), table)
		return store, []func() error{client.Close}, nil

	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
			pkgkafka.WithBatchSize(cfg.Kafka.BatchSize),
			pkgkafka.WithBatchTimeout(cfg.Kafka.Linger),
			pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka producer: %w", err)
		}
		store := internalrepo.NewKafkaTickPublisher(producer, cfg.Kafka.Topic)
		return store, []func() error{store.Close}, nil

	default:
		return nil, nil, fmt.Errorf("unknown sink type %q", cfg.Sink.Type)
	}
}
