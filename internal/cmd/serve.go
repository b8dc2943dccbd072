package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"github.com/xdoubleu/essentia/v2/pkg/communication/httptools"
	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"github.com/xdoubleu/essentia/v2/pkg/threading"
)

//nolint:gochecknoglobals //cobra command tree
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and background jobs",
	RunE:  runServe,
}

//nolint:gochecknoinits //cobra command tree
func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, logger := setup()

	store := snapshotStore(logger, cfg)
	if err := store.Load(); err != nil {
		// A fresh deployment has no snapshot yet; the first refresh
		// run writes it and the watcher loads it.
		logger.Warn("starting without snapshot", logging.ErrAttr(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.WatchSnapshot {
		if err := store.Watch(ctx); err != nil {
			return err
		}
	}

	//nolint:mnd //no magic number
	jobQueue := threading.NewJobQueue(logger, 2, 100)
	if err := jobQueue.AddJob(NewRefreshJob(cfg), nil); err != nil {
		return err
	}
	if err := jobQueue.AddJob(NewSocialJob(cfg, store), nil); err != nil {
		return err
	}

	app := NewApplication(logger, cfg, store)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,  //nolint:mnd //no magic number
		WriteTimeout: 10 * time.Second, //nolint:mnd //no magic number
	}
	return httptools.Serve(logger, srv, cfg.Env)
}
