package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"TickPull/internal/di"
	"TickPull/internal/usecase"
	"TickPull/pkg/config"
	"TickPull/pkg/util"
)

const usageText = `Usage: tickpull <command> [flags] [SYMBOL ...]

Commands:
  download   fetch and decode hourly tick files for a date range
  merge      concatenate a symbol's hourly artifacts into one file
  aggregate  build OHLC candles from ticks (not implemented yet)
  meta       fetch instrument metadata and persist the raw JSON
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "download":
		runDownload(os.Args[2:])
	case "merge":
		runMerge(os.Args[2:])
	case "aggregate":
		runAggregate(os.Args[2:])
	case "meta":
		runMeta(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usageText)
		os.Exit(2)
	}
}

func loadConfig(path string, verbose bool) *config.Config {
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg
}

func runDownload(args []string) {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	configPath := fs.String("config", "config/config.yaml", "config file path")
	output := fs.String("output", "", "output directory (overrides config)")
	start := fs.String("start", "", "start date YYYY-MM-DD (default: yesterday UTC)")
	end := fs.String("end", "", "end date YYYY-MM-DD, exclusive (default: today UTC)")
	retry := fs.Int("retry-count", -1, "retry attempts for failed hours (overrides config)")
	concurrency := fs.Int("concurrency", 0, "max fetches in flight (overrides config)")
	serve := fs.Bool("serve", false, "expose /progress and /metrics while running")
	verbose := fs.Bool("verbose", false, "debug logging")
	_ = fs.Parse(args)

	symbols := fs.Args()
	if len(symbols) == 0 {
		log.Fatalf("download: at least one symbol is required (e.g. EURUSD)")
	}

	cfg := loadConfig(*configPath, *verbose)
	if *output != "" {
		cfg.Sink.OutputDir = *output
	}
	if *retry >= 0 {
		cfg.Feed.RetryCount = *retry
	}
	if *concurrency > 0 {
		cfg.Feed.Concurrency = *concurrency
	}
	if *serve {
		cfg.Server.Enabled = true
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}
	defer app.Close()

	now := time.Now().UTC()
	startT := util.ParseDateDefault(*start, util.DayStart(now.AddDate(0, 0, -1)))
	endT := util.ParseDateDefault(*end, util.DayStart(now))

	if app.Status != nil {
		app.Status.Start()
		defer app.Status.Shutdown()
	}

	// Residual failures are reported by the downloader; the process still
	// exits 0 so schedulers don't re-run healthy ranges.
	app.Downloader.RunAll(context.Background(), symbols, startT, endT)
}

func runMerge(args []string) {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	configPath := fs.String("config", "config/config.yaml", "config file path")
	input := fs.String("input", "", "directory holding per-symbol artifact dirs (default: sink output dir)")
	output := fs.String("output", "", "directory for merged files (default: input)")
	verbose := fs.Bool("verbose", false, "debug logging")
	_ = fs.Parse(args)

	symbols := fs.Args()
	if len(symbols) == 0 {
		log.Fatalf("merge: at least one symbol is required")
	}

	cfg := loadConfig(*configPath, *verbose)
	in := cfg.Sink.OutputDir
	if *input != "" {
		in = *input
	}
	out := in
	if *output != "" {
		out = *output
	}

	lg, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	m := usecase.NewMerger(in, out, lg)
	for _, symbol := range symbols {
		if err := m.MergeSymbol(symbol); err != nil {
			log.Printf("merge %s: %v", symbol, err)
		}
	}
}

func runAggregate(args []string) {
	fs := flag.NewFlagSet("aggregate", flag.ExitOnError)
	configPath := fs.String("config", "config/config.yaml", "config file path")
	verbose := fs.Bool("verbose", false, "debug logging")
	_ = fs.Parse(args)

	cfg := loadConfig(*configPath, *verbose)
	lg, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	_ = usecase.NewAggregator(lg).Run(fs.Args())
}

func runMeta(args []string) {
	fs := flag.NewFlagSet("meta", flag.ExitOnError)
	configPath := fs.String("config", "config/config.yaml", "config file path")
	output := fs.String("output", "instruments.json", "file to write the raw metadata JSON to")
	retry := fs.Int("retry-count", -1, "fetch attempts (overrides config)")
	verbose := fs.Bool("verbose", false, "debug logging")
	_ = fs.Parse(args)

	cfg := loadConfig(*configPath, *verbose)
	if *retry >= 0 {
		cfg.Meta.RetryCount = *retry
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}
	defer app.Close()

	raw, err := app.Meta.FetchRaw(context.Background())
	if err != nil {
		log.Fatalf("meta fetch failed: %v", err)
	}
	if err := os.WriteFile(*output, raw, 0o644); err != nil {
		log.Fatalf("meta write failed: %v", err)
	}
	log.Printf("meta: wrote %d bytes to %s", len(raw), *output)
}
