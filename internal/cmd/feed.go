package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"racecal.simsportsarena.com/internal/ics"
)

//nolint:gochecknoglobals //cobra command tree
var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Write the subscription feed from the current snapshot",
	RunE:  runFeed,
}

//nolint:gochecknoglobals //cobra flags
var feedOut string

//nolint:gochecknoinits //cobra command tree
func init() {
	rootCmd.AddCommand(feedCmd)
	feedCmd.Flags().StringVarP(&feedOut, "out", "o", "feed.ics", "Output path")
}

func runFeed(_ *cobra.Command, _ []string) error {
	cfg, logger := setup()

	store := snapshotStore(logger, cfg)
	if err := store.Load(); err != nil {
		return err
	}
	snap := store.Snapshot()

	feed := ics.Feed(snap.Events, snap.GeneratedAt, cfg.FeedTTL)
	if err := os.WriteFile(feedOut, []byte(feed), 0o644); err != nil {
		return err
	}

	logger.Info("feed written",
		slog.String("path", feedOut),
		slog.Int("events", len(snap.Events)))
	return nil
}
