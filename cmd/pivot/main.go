package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"pivotcli/internal/config"
	"pivotcli/internal/exporter"
	"pivotcli/internal/files"
	"pivotcli/internal/infrastructure"
	"pivotcli/internal/operations"
	"pivotcli/internal/scraper"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer infrastructure.CloseLogFile()

	if err := run(context.Background(), cfg, logger, os.Stdout); err != nil {
		logger.Error("Run failed",
			slog.String("step", operations.FailedStep(err)),
			slog.String("error", err.Error()))
		return 1
	}
	return 0
}

// run executes one fetch, aggregate and persist cycle and reports to stdout.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	ctx = infrastructure.EnsureRunID(ctx)
	runID := infrastructure.RunIDFromContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, cfg.Pipeline.Timeout)
	defer cancel()

	tel, err := infrastructure.InitializeTelemetry(cfg.Telemetry, os.Stderr, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	logger.InfoContext(ctx, "Starting run",
		slog.String("run_id", runID),
		slog.String("app", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("fetch_mode", cfg.Fetch.Mode),
		slog.String("page_url", cfg.Fetch.PageURL))

	fm := files.NewManager("", logger)
	client := scraper.NewHTTPClient(cfg.Fetch.HTTPTimeout, cfg.Fetch.UserAgent, logger)
	fetcher := scraper.NewFetcher(
		newResolver(cfg.Fetch, client, logger),
		scraper.NewDownloader(client, fm, logger),
		logger,
	)

	metrics := tel.StageMetrics()
	pipeline := operations.NewPipeline(tel, logger,
		operations.NewFetchStage(fetcher, cfg.Fetch, cfg.Output.RawExportFile, metrics, logger),
		operations.NewAggregateStage(fm, cfg.Pivot, cfg.Output, metrics, logger),
		operations.NewPersistStage(fm, cfg.Storage, cfg.Output.PivotSheet, metrics, logger),
	)

	state := operations.NewOperationState(runID)
	if err := pipeline.Run(ctx, state); err != nil {
		return err
	}

	if cfg.Output.PrintSummary {
		if v, ok := state.GetContext(operations.ContextFormattedTable); ok {
			exporter.RenderSummary(stdout, v.(*exporter.FormattedTable))
		}
	}
	fmt.Fprintln(stdout, config.MsgProcessCompleted)
	return nil
}

func newResolver(cfg config.FetchConfig, client *resty.Client, logger *slog.Logger) scraper.LinkResolver {
	if cfg.Mode == config.ModeHTTP {
		return scraper.NewPageResolver(client, cfg.LinkAttribute, logger)
	}
	return scraper.NewBrowserResolver(scraper.BrowserOptions{
		Headless:  cfg.Headless,
		UserAgent: cfg.UserAgent,
		Attribute: cfg.LinkAttribute,
	}, logger)
}
