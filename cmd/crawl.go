package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/jobboard-harvester/internal/clock/system"
	"github.com/JakeFAU/jobboard-harvester/internal/config"
	"github.com/JakeFAU/jobboard-harvester/internal/discovery"
	"github.com/JakeFAU/jobboard-harvester/internal/dispatcher"
	"github.com/JakeFAU/jobboard-harvester/internal/extract"
	collyfetcher "github.com/JakeFAU/jobboard-harvester/internal/fetcher/colly"
	"github.com/JakeFAU/jobboard-harvester/internal/hash/sha256"
	"github.com/JakeFAU/jobboard-harvester/internal/id"
	"github.com/JakeFAU/jobboard-harvester/internal/metrics"
	"github.com/JakeFAU/jobboard-harvester/internal/output"
	"github.com/JakeFAU/jobboard-harvester/internal/pipeline"
	"github.com/JakeFAU/jobboard-harvester/internal/progress"
	"github.com/JakeFAU/jobboard-harvester/internal/progress/sinks"
	"github.com/JakeFAU/jobboard-harvester/internal/publisher/pubsub"
	"github.com/JakeFAU/jobboard-harvester/internal/worker"
)

// progressRegisterer receives the progress collectors. Tests swap in a fresh
// registry per run.
var progressRegisterer = func() prometheus.Registerer { return prometheus.DefaultRegisterer }

// newCrawlCmd creates and configures the 'crawl' subcommand.
func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Harvests a window of index pages into a CSV table",
		Long: `Fetches index pages start-page..start-page+pages-1, visits every listing
they link to and writes one row per listing. Listings that cannot be fetched or
have no title are written as "listing unavailable" rows so the table always
holds exactly one row per discovered link.`,
		Args: cobra.NoArgs,
		RunE: runCrawlCommand,
	}
	flags := cmd.Flags()
	flags.Int("pages", 1, "number of index pages to harvest")
	flags.Int("start-page", 1, "first index page to harvest")
	flags.Int("concurrency", dispatcher.DefaultConcurrency, "listings fetched in parallel")
	flags.StringP("output", "o", output.DefaultCSVPath, "CSV file to write")
	flags.String("metrics", "", "serve /healthz, /metrics and /progress on this address during the run")
	flags.Bool("no-spinner", false, "disable the terminal progress line")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	return cmd
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	e, err := envFrom(cmd.Context())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	cfg, logger := e.cfg, e.logger
	runID, err := id.NewRunID()
	if err != nil {
		return err
	}
	logger = logger.With(zap.String("run_id", runID.String()))

	hub, err := buildHub(cmd, cfg, logger)
	if err != nil {
		return err
	}
	// Close is idempotent: the deferred call covers error paths, the explicit
	// one stops the spinner before the summary line is printed.
	closeHub := func() {
		if cerr := hub.Close(context.WithoutCancel(ctx)); cerr != nil {
			logger.Warn("progress hub close failed", zap.Error(cerr))
		}
	}
	defer closeHub()

	driver := buildDriver(cfg, runID, hub, logger)

	if cfg.Metrics.Addr != "" {
		srvCtx, stop := context.WithCancel(ctx)
		defer stop()
		go func() {
			if serr := metrics.NewServer(driver, logger.Named("metrics")).ListenAndServe(srvCtx, cfg.Metrics.Addr); serr != nil {
				logger.Error("metrics server failed", zap.Error(serr))
			}
		}()
	}

	csvWriter, err := output.CreateCSV(cfg.Output.CSVPath)
	if err != nil {
		return err
	}
	sink := output.NewFanout(csvWriter, e.app.RunWriter(runID.String()))

	summary, runErr := driver.Run(ctx, cfg.Crawler.StartPage, cfg.Crawler.Pages, sink)
	if cerr := sink.Close(); cerr != nil {
		runErr = errors.Join(runErr, fmt.Errorf("close output: %w", cerr))
	}
	if runErr != nil {
		return fmt.Errorf("harvest run %s: %w", runID, runErr)
	}

	digest, herr := sha256.HashFile(csvWriter.Path())
	if herr != nil {
		logger.Warn("csv checksum failed", zap.Error(herr))
	}

	finished, ferr := e.app.Finish(ctx, pubsub.RunSummary{
		RunID:       summary.RunID,
		StartPage:   summary.StartPage,
		Pages:       summary.Pages,
		Links:       summary.Links,
		Records:     summary.Records,
		Unavailable: summary.Unavailable,
		CSVPath:     csvWriter.Path(),
		CSVSHA256:   digest,
		StartedAt:   summary.StartedAt,
		FinishedAt:  summary.FinishedAt,
	})
	if ferr != nil {
		logger.Warn("post-run delivery incomplete", zap.Error(ferr))
	}

	closeHub()
	fmt.Fprintf(cmd.OutOrStdout(), "%d ofertas guardadas en %s (%d no disponibles)\n",
		summary.Records, finished.CSVPath, summary.Unavailable)
	return nil
}

func buildHub(cmd *cobra.Command, cfg config.Config, logger *zap.Logger) (*progress.Hub, error) {
	metrics.Init()
	promSink, err := sinks.NewPrometheusSink(progressRegisterer())
	if err != nil {
		return nil, fmt.Errorf("init progress metrics: %w", err)
	}
	progressSinks := []progress.Sink{promSink, sinks.NewLogSink(logger.Named("progress"))}
	if cfg.Progress.Spinner {
		progressSinks = append(progressSinks, sinks.NewSpinnerSink(cmd.OutOrStdout()))
	}
	return progress.NewHub(progress.Config{Logger: logger}, progressSinks...), nil
}

func buildDriver(cfg config.Config, runID uuid.UUID, hub *progress.Hub, logger *zap.Logger) *pipeline.Driver {
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Crawler.UserAgent,
		Timeout:   cfg.HTTP.Timeout,
	})
	w := worker.New(fetcher, extract.New(extract.DefaultSelectors()), logger.Named("worker"))
	disp := dispatcher.New(w,
		dispatcher.Config{
			Concurrency: cfg.Crawler.Concurrency,
			QueueDepth:  cfg.Crawler.QueueDepth,
		},
		dispatcher.WithEvents(progress.UUIDToBytes(runID), hub),
		dispatcher.WithLogger(logger.Named("dispatcher")),
	)
	return pipeline.New(
		discovery.New(fetcher, cfg.Crawler.LinkSelector, logger.Named("discovery")),
		disp,
		pipeline.Config{BaseURL: cfg.Crawler.BaseURL, PageParam: cfg.Crawler.PageParam},
		pipeline.WithRunID(runID),
		pipeline.WithClock(system.New()),
		pipeline.WithEvents(hub),
		pipeline.WithLogger(logger),
	)
}
