package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ccampell/lyricscrawler/internal/api"
	"github.com/ccampell/lyricscrawler/internal/archive"
	"github.com/ccampell/lyricscrawler/internal/checkpoint"
)

// newStatusCmd creates the 'status' subcommand, which prints a summary
// of crawl progress from the checkpoint without touching it.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Prints crawl progress from the checkpoint",
		RunE:  runStatusCommand,
	}
}

func runStatusCommand(cmd *cobra.Command, _ []string) error {
	store, err := checkpoint.New(cfg.Checkpoint.Path, logger)
	if err != nil {
		return fmt.Errorf("init checkpoint store: %w", err)
	}

	tree, err := store.Load()
	if errors.Is(err, archive.ErrNoCheckpoint) {
		cmd.Println("No checkpoint yet. Run 'lyricscrawler crawl' to start.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}

	summary := api.Summarize(tree)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Artists:  %s complete of %s\n",
		humanize.Comma(int64(summary.ArtistsComplete)), humanize.Comma(int64(summary.Artists)))
	fmt.Fprintf(out, "Albums:   %s scraped of %s\n",
		humanize.Comma(int64(summary.AlbumsScraped)), humanize.Comma(int64(summary.Albums)))
	fmt.Fprintf(out, "Songs:    %s transcribed, %s failed, %s total\n",
		humanize.Comma(int64(summary.SongsTranscribed)),
		humanize.Comma(int64(summary.SongsFailed)),
		humanize.Comma(int64(summary.Songs)))

	if info, statErr := os.Stat(store.Path()); statErr == nil {
		fmt.Fprintf(out, "Checkpoint: %s (%s)\n", store.Path(), humanize.Bytes(uint64(info.Size())))
	}
	if summary.Complete {
		fmt.Fprintln(out, "Crawl is complete.")
	}
	return nil
}
