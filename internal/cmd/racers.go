package cmd

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"racecal.simsportsarena.com/internal/config"
	"racecal.simsportsarena.com/internal/ingest"
	"racecal.simsportsarena.com/internal/snapshot"
)

//nolint:gochecknoglobals //cobra command tree
var racersCmd = &cobra.Command{
	Use:   "racers",
	Short: "Rebuild the racer index from the results page and cached PDFs",
	RunE:  runRacers,
}

//nolint:gochecknoinits //cobra command tree
func init() {
	rootCmd.AddCommand(racersCmd)
}

func runRacers(cmd *cobra.Command, _ []string) error {
	cfg, logger := setup()

	sources, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		return err
	}
	norm, err := ingest.NewNormalizer(sources)
	if err != nil {
		return err
	}

	store := snapshotStore(logger, cfg)
	if err = store.Load(); err != nil {
		return err
	}
	snap := store.Snapshot()

	groups, err := ingest.ScrapeResults(sources.ResultsURL)
	if err != nil {
		return err
	}
	ingest.MatchGroups(snap.Events, groups, norm)

	scanner := ingest.NewPDFScanner(logger,
		filepath.Join(cfg.CacheDir, "result_pdfs.json"))
	racers := ingest.BuildRacerIndex(cmd.Context(), logger, scanner, groups)
	if err = scanner.Save(); err != nil {
		return err
	}

	if err = snapshot.WriteRacerIndex(cfg.RacerIndexPath, racers); err != nil {
		return err
	}

	logger.Info("racer index written",
		slog.String("path", cfg.RacerIndexPath),
		slog.Int("racers", len(racers)))
	return nil
}
