package cmd

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccampell/lyricscrawler/internal/archive"
	"github.com/ccampell/lyricscrawler/internal/checkpoint"
	"github.com/ccampell/lyricscrawler/internal/clock/system"
	"github.com/ccampell/lyricscrawler/internal/driver"
	"github.com/ccampell/lyricscrawler/internal/fetcher/ohla"
	"github.com/ccampell/lyricscrawler/internal/hash/sha256"
	"github.com/ccampell/lyricscrawler/internal/progress"
	"github.com/ccampell/lyricscrawler/internal/storage"
	"github.com/ccampell/lyricscrawler/internal/transcribe"
)

// newCrawlCmd creates the 'crawl' subcommand, which runs the crawl
// driver until no work remains or the process is interrupted.
func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Runs the crawl until complete or interrupted",
		Long: `Loads (or bootstraps) the checkpoint, then processes one unit of work
at a time: artist directories, album listings, song text, phonetic
transcription. Every stage transition is persisted before the next
unit is selected, so interrupting the run never loses progress.`,
		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	store, err := checkpoint.New(cfg.Checkpoint.Path, logger)
	if err != nil {
		return fmt.Errorf("init checkpoint store: %w", err)
	}
	if err := store.Acquire(); err != nil {
		return fmt.Errorf("acquire checkpoint lock: %w", err)
	}
	defer func() {
		if rerr := store.Release(); rerr != nil {
			logger.Warn("failed to release checkpoint lock", zap.Error(rerr))
		}
	}()

	tree, err := store.Load()
	switch {
	case errors.Is(err, archive.ErrNoCheckpoint):
		tree = archive.NewTree()
	case err != nil:
		return fmt.Errorf("load checkpoint: %w", err)
	}

	layout, err := storage.New(cfg.Storage.DataRoot, logger)
	if err != nil {
		return fmt.Errorf("init storage layout: %w", err)
	}
	transcriber, err := transcribe.New(transcribe.Config{
		DictionaryPath: cfg.Transcriber.DictionaryPath,
	}, logger)
	if err != nil {
		return fmt.Errorf("init transcriber: %w", err)
	}

	registry := prometheus.NewRegistry()
	promSink, err := progress.NewPrometheusSink(registry)
	if err != nil {
		return fmt.Errorf("init metrics sink: %w", err)
	}

	bar := progressbar.Default(-1, "crawling")
	defer func() { _ = bar.Finish() }()

	clk := system.New()
	reporter := progress.NewReporter(clk.Now,
		progress.NewLogSink(logger),
		promSink,
		&barSink{bar: bar},
	)

	fetcher := ohla.New(ohla.Config{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	}, logger)

	engine := driver.New(
		driver.Config{
			IndexURLs:    cfg.Archive.IndexURLs,
			FetchTimeout: cfg.FetchTimeout(),
			SaveAttempts: cfg.Crawl.SaveAttempts,
		},
		tree,
		store,
		fetcher,
		transcriber,
		layout,
		clk,
		sha256.New(),
		reporter,
		logger,
	)

	ctx := cmd.Context()
	if err := engine.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	summary, err := engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("run crawl: %w", err)
	}

	logger.Info("crawl finished",
		zap.Int("passes", summary.Passes),
		zap.Int("steps", summary.Steps),
		zap.Int("advanced", summary.Advanced),
		zap.Int("removed", summary.Removed),
		zap.Int("failed", summary.Failed),
		zap.Int("deferred", summary.Deferred),
		zap.Bool("complete", summary.Complete),
	)
	return nil
}

// barSink feeds driver progress into the terminal progress bar.
type barSink struct {
	bar *progressbar.ProgressBar
}

// Observe advances the bar for every unit that reached a decision.
func (s *barSink) Observe(evt progress.Event) {
	switch evt.Action {
	case progress.ActionAdvanced, progress.ActionRemoved, progress.ActionFailed:
		_ = s.bar.Add(1)
		if evt.Name != "" {
			s.bar.Describe(fmt.Sprintf("%s: %s", evt.Unit.Kind, evt.Name))
		}
	}
}
