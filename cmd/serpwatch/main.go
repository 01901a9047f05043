package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"serpwatch/config"
	"serpwatch/models"
	"serpwatch/pipeline"
	"serpwatch/serp"
	"serpwatch/serper"
	"serpwatch/sheets"
)

func main() {
	os.Exit(run())
}

func run() int {
	defaultCfg := config.DefaultConfig()
	glDefault := defaultCfg.GL
	if value, ok := config.EnvString("SERPWATCH_GL"); ok {
		glDefault = value
	}
	hlDefault := defaultCfg.HL
	if value, ok := config.EnvString("SERPWATCH_HL"); ok {
		hlDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("SERPWATCH_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	dedupeDefault := defaultCfg.DedupeMaxSize
	if value, ok, err := config.EnvInt("SERPWATCH_DEDUPE"); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		return 1
	} else if ok {
		dedupeDefault = value
	}

	endpoint := flag.String("endpoint", defaultCfg.Endpoint, "Serper API endpoint")
	gl := flag.String("gl", glDefault, "Country code sent with each search")
	hl := flag.String("hl", hlDefault, "Interface language sent with each search")
	shape := flag.String("shape", defaultCfg.Shape, "Provider response shape: ads or organic")
	store := flag.String("store", defaultCfg.Store, "Row store backend: sheets or csv")
	outputDir := flag.String("output-dir", defaultCfg.OutputDir, "Directory for the csv store")
	configTable := flag.String("config-table", defaultCfg.ConfigTable, "Table holding keywords and competitors")
	listingsTable := flag.String("listings-table", defaultCfg.ListingsTable, "Table receiving listing rows")
	relatedTable := flag.String("related-table", defaultCfg.RelatedTable, "Table receiving related-search rows")
	timeoutSec := flag.Int("timeout", int(defaultCfg.Timeout/time.Second), "Provider request timeout (seconds)")
	intervalMs := flag.Int("interval", int(defaultCfg.RequestInterval/time.Millisecond), "Pause between provider calls (milliseconds)")
	dedupeSize := flag.Int("dedupe", dedupeDefault, "Related-search dedupe cache size (0 disables)")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.APIKey, _ = config.EnvString("SERPER_API_KEY")
	cfg.SpreadsheetID, _ = config.EnvString("SHEET_ID")
	cfg.CredentialsJSON, _ = config.EnvString("GCP_CREDENTIALS_JSON")
	cfg.Endpoint = *endpoint
	cfg.GL = *gl
	cfg.HL = *hl
	cfg.Shape = *shape
	cfg.Store = *store
	cfg.OutputDir = *outputDir
	cfg.ConfigTable = *configTable
	cfg.ListingsTable = *listingsTable
	cfg.RelatedTable = *relatedTable
	cfg.Timeout = time.Duration(*timeoutSec) * time.Second
	cfg.RequestInterval = time.Duration(*intervalMs) * time.Millisecond
	cfg.DedupeMaxSize = *dedupeSize
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		return 1
	}

	providerShape, err := serp.ParseShape(cfg.Shape)
	if err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rowStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("opening store", slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := rowStore.Close(); err != nil {
			slog.Error("close store", slog.Any("error", err))
		}
	}()

	cfgTable, err := rowStore.Get(ctx, cfg.ConfigTable)
	if err != nil {
		if errors.Is(err, sheets.ErrTableNotFound) {
			slog.Error("config table missing, cannot determine keywords",
				slog.String("table", cfg.ConfigTable))
		} else {
			slog.Error("reading config table", slog.Any("error", err))
		}
		return 1
	}
	keywords, competitors, err := sheets.ReadConfig(ctx, cfgTable)
	if err != nil {
		slog.Error("reading config table", slog.Any("error", err))
		return 1
	}

	listings, err := rowStore.GetOrCreate(ctx, cfg.ListingsTable)
	if err != nil {
		slog.Error("opening listings table", slog.Any("error", err))
		return 1
	}
	related, err := rowStore.GetOrCreate(ctx, cfg.RelatedTable)
	if err != nil {
		slog.Error("opening related-searches table", slog.Any("error", err))
		return 1
	}

	metrics := pipeline.NewMetrics()
	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	client := serper.NewClient(serper.ClientConfig{
		APIKey:   cfg.APIKey,
		Endpoint: cfg.Endpoint,
		GL:       cfg.GL,
		HL:       cfg.HL,
		Timeout:  cfg.Timeout,
	})

	p, err := pipeline.New(pipeline.Options{
		Fetcher:         client,
		Shape:           providerShape,
		Listings:        sheets.NewTableWriter(listings),
		Related:         sheets.NewTableWriter(related),
		Competitors:     competitors,
		RequestInterval: cfg.RequestInterval,
		DedupeMaxSize:   cfg.DedupeMaxSize,
		Metrics:         metrics,
	})
	if err != nil {
		slog.Error("initialising pipeline", slog.Any("error", err))
		return 1
	}

	slog.Info("starting run",
		slog.Int("keywords", len(keywords)),
		slog.Int("competitors", len(competitors)),
		slog.String("shape", providerShape.String()),
		slog.String("store", cfg.Store),
	)

	result := p.Run(ctx, keywords)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, cfg)
	return 0
}

func openStore(ctx context.Context, cfg *config.Config) (sheets.Store, error) {
	switch cfg.Store {
	case "csv":
		return sheets.NewCSVStore(cfg.OutputDir)
	case "sheets":
		return sheets.NewGoogleStore(ctx, []byte(cfg.CredentialsJSON), cfg.SpreadsheetID)
	default:
		return nil, fmt.Errorf("unsupported store: %s", cfg.Store)
	}
}

func printSummary(result *models.RunResult, cfg *config.Config) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Run complete")

	fmt.Printf("  Date:            %s\n", result.Date)
	fmt.Printf("  Keywords:        %d\n", len(result.Outcomes))
	fmt.Printf("  Failed:          %d\n", len(result.FailedKeywords))
	if len(result.FailedKeywords) > 0 {
		fmt.Printf("  Failed keywords: %v\n", result.FailedKeywords)
	}
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:     %v\n", result.ErrorsByType)
	}
	fmt.Printf("  Listing rows:    %d (%s)\n", result.ListingRows, cfg.ListingsTable)
	fmt.Printf("  Related rows:    %d (%s)\n", result.RelatedRows, cfg.RelatedTable)
	if result.DedupeHits > 0 {
		fmt.Printf("  Deduped:         %d\n", result.DedupeHits)
	}
	fmt.Printf("  Duration:        %v\n", result.EndTime.Sub(result.StartTime))
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
