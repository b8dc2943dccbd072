package cmd

import (
	"context"
	"log/slog"
	"time"

	"racecal.simsportsarena.com/internal/config"
	"racecal.simsportsarena.com/internal/ingest"
	"racecal.simsportsarena.com/internal/snapshot"
)

// RefreshJob reruns the ingestion pipeline on a schedule. The snapshot
// watcher picks up the rewritten file, so the job never touches the
// store directly.
type RefreshJob struct {
	cfg config.Config
}

func NewRefreshJob(cfg config.Config) RefreshJob {
	return RefreshJob{cfg: cfg}
}

func (j RefreshJob) ID() string {
	return "refresh"
}

func (j RefreshJob) RunEvery() time.Duration {
	return j.cfg.RefreshEvery
}

func (j RefreshJob) Run(ctx context.Context, logger *slog.Logger) error {
	sources, err := config.LoadSources(j.cfg.SourcesPath)
	if err != nil {
		return err
	}

	pipeline, err := ingest.NewPipeline(logger, j.cfg, sources)
	if err != nil {
		return err
	}

	//nolint:exhaustruct //run every stage
	_, err = pipeline.Run(ctx, ingest.Options{})
	return err
}

// SocialJob evaluates the posting schedule and publishes due posts.
type SocialJob struct {
	cfg   config.Config
	store *snapshot.Store
}

func NewSocialJob(cfg config.Config, store *snapshot.Store) SocialJob {
	return SocialJob{cfg: cfg, store: store}
}

func (j SocialJob) ID() string {
	return "social"
}

func (j SocialJob) RunEvery() time.Duration {
	return j.cfg.SocialTickEvery
}

func (j SocialJob) Run(ctx context.Context, logger *slog.Logger) error {
	return runSocialTick(ctx, logger, j.cfg, j.store.Snapshot().Events, false)
}
