package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"racecal.simsportsarena.com/internal/config"
	"racecal.simsportsarena.com/internal/ingest"
)

//nolint:gochecknoglobals //cobra command tree
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run the ingestion pipeline once and write the snapshot",
	RunE:  runRefresh,
}

//nolint:gochecknoglobals //cobra flags
var (
	refreshSkipResults bool
	refreshSkipBlogs   bool
)

//nolint:gochecknoinits //cobra command tree
func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().BoolVar(&refreshSkipResults, "skip-results", false,
		"Skip results scraping, PDF scanning and the racer index")
	refreshCmd.Flags().BoolVar(&refreshSkipBlogs, "skip-blogs", false,
		"Skip blog recap linking")
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	cfg, logger := setup()

	sources, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		return err
	}

	pipeline, err := ingest.NewPipeline(logger, cfg, sources)
	if err != nil {
		return err
	}

	snap, err := pipeline.Run(cmd.Context(), ingest.Options{
		SkipResults: refreshSkipResults,
		SkipBlogs:   refreshSkipBlogs,
	})
	if err != nil {
		return err
	}

	logger.Info("snapshot written",
		slog.String("path", cfg.SnapshotPath),
		slog.Int("events", len(snap.Events)))
	return nil
}
