package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccampell/lyricscrawler/internal/archive"
	"github.com/ccampell/lyricscrawler/internal/checkpoint"
)

// newResetCmd creates the 'reset' subcommand. Stage progress is
// monotonic during a crawl; this is the explicit operator-driven
// exception that winds an artist back for re-processing.
func newResetCmd() *cobra.Command {
	var aid int

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Winds an artist back to the discovered stage",
		Long: `Resets one artist to the beginning of the pipeline, dropping its
enumerated albums and songs from the checkpoint. Files already written
under the data root are left in place; directory creation is
idempotent so a re-crawl simply reuses them.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResetCommand(cmd, archive.ArtistID(aid))
		},
	}
	cmd.Flags().IntVar(&aid, "aid", -1, "artist identifier to reset")
	_ = cmd.MarkFlagRequired("aid")
	return cmd
}

func runResetCommand(cmd *cobra.Command, aid archive.ArtistID) error {
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
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}

	artist, ok := tree.Artists.Get(aid)
	if !ok {
		return fmt.Errorf("no artist with aid %d in the checkpoint", int(aid))
	}

	artist.Stage = archive.StageDiscovered
	artist.Resume = archive.NotStartedMarker()
	artist.Albums = archive.NewOrderedMap[archive.AlbumID, *archive.Album]()
	artist.NextALID = 0

	if err := store.Save(tree); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	cmd.Printf("Artist %d (%s) reset to %s.\n", int(aid), artist.Name, artist.Stage)
	return nil
}
