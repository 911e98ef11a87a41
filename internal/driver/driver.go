// Package driver implements the crawl control loop: select the next
// unit via the resume selector, dispatch it against the fetch adapter
// and collaborators, persist the checkpoint, repeat. Processing is
// strictly sequential; each unit fully completes (fetch, mutate,
// persist) before the next selection.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ccampell/lyricscrawler/internal/archive"
	"github.com/ccampell/lyricscrawler/internal/progress"
	"github.com/ccampell/lyricscrawler/internal/resume"
)

// Config controls driver behavior.
type Config struct {
	// IndexURLs are the archive's artist index pages, fetched once to
	// seed an empty tree.
	IndexURLs []string
	// FetchTimeout bounds every fetch adapter call. Timeouts classify
	// as transient.
	FetchTimeout time.Duration
	// SaveAttempts is how many times a failing checkpoint save is
	// retried before the run aborts.
	SaveAttempts int
}

// Driver orchestrates one crawl run over a tree it owns exclusively.
type Driver struct {
	cfg         Config
	tree        *archive.Tree
	checkpoints archive.CheckpointStore
	fetcher     archive.Fetcher
	transcriber archive.Transcriber
	store       archive.Store
	clock       archive.Clock
	hasher      archive.Hasher
	reporter    *progress.Reporter
	retry       *saveRetryPolicy
	logger      *zap.Logger
}

// Summary reports what one run accomplished.
type Summary struct {
	Passes   int
	Steps    int
	Advanced int
	Removed  int
	Failed   int
	Deferred int
	// Complete is true when no incomplete unit remains anywhere.
	Complete bool
}

// outcome classifies what dispatching one unit did.
type outcome int

const (
	outcomeAdvanced outcome = iota
	outcomeRemoved
	outcomeFailed
	outcomeDeferred
)

// New builds a Driver around a loaded tree and its collaborators.
func New(
	cfg Config,
	tree *archive.Tree,
	checkpoints archive.CheckpointStore,
	fetcher archive.Fetcher,
	transcriber archive.Transcriber,
	store archive.Store,
	clock archive.Clock,
	hasher archive.Hasher,
	reporter *progress.Reporter,
	logger *zap.Logger,
) *Driver {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 20 * time.Second
	}
	if cfg.SaveAttempts <= 0 {
		cfg.SaveAttempts = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		cfg:         cfg,
		tree:        tree,
		checkpoints: checkpoints,
		fetcher:     fetcher,
		transcriber: transcriber,
		store:       store,
		clock:       clock,
		hasher:      hasher,
		reporter:    reporter,
		retry:       newSaveRetryPolicy(cfg.SaveAttempts),
		logger:      logger,
	}
}

// Tree exposes the driver's tree for reporting.
func (d *Driver) Tree() *archive.Tree {
	return d.tree
}

// Bootstrap seeds an empty tree by fetching the archive's artist index
// pages and recording every discovered artist, then persists the
// result. It is a no-op when artists already exist.
func (d *Driver) Bootstrap(ctx context.Context) error {
	if d.tree.Artists.Len() > 0 {
		return nil
	}
	for _, indexURL := range d.cfg.IndexURLs {
		fetchCtx, cancel := context.WithTimeout(ctx, d.cfg.FetchTimeout)
		entries, err := d.fetcher.FetchIndex(fetchCtx, indexURL)
		cancel()
		if err != nil {
			return fmt.Errorf("bootstrap index %s: %w", indexURL, err)
		}
		for _, entry := range entries {
			artist := d.tree.AddArtist(entry.Name, entry.URL)
			d.logger.Debug("artist discovered",
				zap.Int("aid", int(artist.ID)),
				zap.String("name", artist.Name),
			)
		}
	}
	d.logger.Info("bootstrap complete", zap.Int("artists", d.tree.Artists.Len()))
	return d.persist(ctx)
}

// Run loops over units until no selectable work remains or a
// persistence failure aborts it. Transiently-failed units are skipped
// for the rest of their pass; a new pass starts only while passes keep
// making progress, so a run with stubborn transients terminates and
// leaves them for the next run.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	var summary Summary
	skip := resume.SkipSet{}
	passProgress := false
	summary.Passes = 1

	d.reporter.Emit(progress.Event{Action: progress.ActionRunStart})
	start := d.clock.Now()
	defer func() {
		d.reporter.Emit(progress.Event{
			Action: progress.ActionRunDone,
			Dur:    d.clock.Now().Sub(start),
			Note:   fmt.Sprintf("steps=%d passes=%d", summary.Steps, summary.Passes),
		})
	}()

	for {
		if err := ctx.Err(); err != nil {
			// Every transition is already persisted; stopping here
			// leaves the checkpoint consistent.
			d.logger.Info("run canceled", zap.Error(err))
			return summary, nil
		}

		unit := resume.Next(d.tree, skip)
		if unit.Done() {
			if len(skip) == 0 {
				summary.Complete = d.tree.Complete()
				return summary, nil
			}
			if !passProgress {
				d.logger.Info("pass made no progress; leaving deferred units for the next run",
					zap.Int("deferred", len(skip)),
				)
				return summary, nil
			}
			skip = resume.SkipSet{}
			passProgress = false
			summary.Passes++
			continue
		}

		out, err := d.step(ctx, unit)
		if err != nil {
			return summary, err
		}
		summary.Steps++
		switch out {
		case outcomeAdvanced:
			summary.Advanced++
			passProgress = true
		case outcomeRemoved:
			summary.Removed++
			passProgress = true
		case outcomeFailed:
			summary.Failed++
			passProgress = true
		case outcomeDeferred:
			summary.Deferred++
			skip.Add(unit)
		}
	}
}

// step dispatches one unit, recomputes derived flags, and persists the
// checkpoint when state changed. Only persistence failures are
// returned; entity-level failures become stage or removal decisions.
func (d *Driver) step(ctx context.Context, unit resume.Unit) (outcome, error) {
	started := d.clock.Now()
	var out outcome

	switch unit.Kind {
	case resume.UnitArtist:
		out = d.processArtist(ctx, unit)
	case resume.UnitAlbum:
		out = d.processAlbum(ctx, unit)
	case resume.UnitSong:
		out = d.processSong(ctx, unit)
	default:
		// Only persistence failures may abort a run; an unknown kind is
		// shelved like any other unworkable unit.
		d.logger.Warn("unknown unit kind", zap.String("kind", string(unit.Kind)))
		return outcomeDeferred, nil
	}

	if out == outcomeDeferred {
		// No state changed; nothing to persist.
		return out, nil
	}

	d.tree.RecomputeFlags()
	if err := d.persist(ctx); err != nil {
		return out, err
	}

	d.logger.Debug("unit processed",
		zap.String("unit", unit.Key()),
		zap.Duration("dur", d.clock.Now().Sub(started)),
	)
	return out, nil
}

// persist saves the checkpoint, retrying with backoff before giving
// up. The in-memory tree is untouched on failure so a caller can still
// retry the save.
func (d *Driver) persist(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < d.retry.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: canceled while retrying save: %v", archive.ErrPersistenceFailure, lastErr)
			case <-time.After(d.retry.backoff(attempt)):
			}
		}
		lastErr = d.checkpoints.Save(d.tree)
		if lastErr == nil {
			return nil
		}
		d.logger.Warn("checkpoint save failed",
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)
	}
	if errors.Is(lastErr, archive.ErrPersistenceFailure) {
		return lastErr
	}
	return fmt.Errorf("%w: %v", archive.ErrPersistenceFailure, lastErr)
}
