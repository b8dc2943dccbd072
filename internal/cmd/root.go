// Package cmd wires the racecal CLI: the web server, the ingestion
// pipeline, the feed writer and the social posting automation.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/xdoubleu/essentia/v2/pkg/sentrytools"
	"racecal.simsportsarena.com/internal/config"
	"racecal.simsportsarena.com/internal/snapshot"
)

//nolint:gochecknoglobals //cobra command tree
var rootCmd = &cobra.Command{
	Use:   "racecal",
	Short: "Youth alpine race calendar and posting automation",
	Long: `Racecal ingests the IMD Alpine feed into a race snapshot, serves the
month and list calendar views with ICS export, and drives the club's
social posting schedule.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup builds the environment config and the production logger. The
// bootstrap logger only reports env parsing problems.
func setup() (config.Config, *slog.Logger) {
	cfg := config.New(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	logger := slog.New(sentrytools.NewLogHandler(cfg.Env,
		slog.NewTextHandler(os.Stdout, nil)))
	return cfg, logger
}

func snapshotStore(logger *slog.Logger, cfg config.Config) *snapshot.Store {
	return snapshot.NewStore(logger, cfg.SnapshotPath, cfg.RacerIndexPath)
}
