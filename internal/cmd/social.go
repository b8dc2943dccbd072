package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"racecal.simsportsarena.com/internal/config"
	"racecal.simsportsarena.com/internal/models"
	"racecal.simsportsarena.com/internal/social"
)

//nolint:gochecknoglobals //cobra command tree
var socialCmd = &cobra.Command{
	Use:   "social",
	Short: "Social posting automation",
}

//nolint:gochecknoglobals //cobra command tree
var socialGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render a card image through headless Chrome",
	RunE:  runSocialGenerate,
}

//nolint:gochecknoglobals //cobra command tree
var socialPostCmd = &cobra.Command{
	Use:   "post",
	Short: "Publish the posts due today",
	RunE:  runSocialPost,
}

//nolint:gochecknoglobals //cobra flags
var (
	generateKind  string
	generateOut   string
	generateMonth string
	generateEvent string
	postDryRun    bool
)

//nolint:gochecknoinits //cobra command tree
func init() {
	rootCmd.AddCommand(socialCmd)
	socialCmd.AddCommand(socialGenerateCmd)
	socialCmd.AddCommand(socialPostCmd)

	socialGenerateCmd.Flags().StringVar(&generateKind, "kind", "weekly",
		"Card kind: weekly, monthly or event")
	socialGenerateCmd.Flags().StringVar(&generateOut, "out", "",
		"Output directory (defaults to CARD_OUTPUT_DIR)")
	socialGenerateCmd.Flags().StringVar(&generateMonth, "month", "",
		"Month for monthly cards, YYYY-MM (defaults to the current month)")
	socialGenerateCmd.Flags().StringVar(&generateEvent, "event", "",
		"Event ID for event cards")

	socialPostCmd.Flags().BoolVar(&postDryRun, "dry-run", false,
		"Log what would be posted without calling the Graph API")
}

func runSocialGenerate(cmd *cobra.Command, _ []string) error {
	cfg, logger := setup()

	outDir := generateOut
	if outDir == "" {
		outDir = cfg.CardOutputDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	base := strings.TrimRight(cfg.WebURL, "/")

	var pageURL, name string
	switch generateKind {
	case "weekly":
		pageURL = base + "/socialcards/weekly"
		name = "weekly.png"
	case "monthly":
		month := generateMonth
		if month == "" {
			month = time.Now().Format("2006-01")
		}
		pageURL = base + "/socialcards/monthly?month=" + month
		name = "monthly-" + month + ".png"
	case "event":
		if generateEvent == "" {
			return errors.New("--event is required for event cards")
		}
		pageURL = base + "/socialcards/event/" + generateEvent
		name = "event-" + generateEvent + ".png"
	default:
		return fmt.Errorf("unknown card kind %q", generateKind)
	}

	outPath := filepath.Join(outDir, name)
	err := social.CaptureCard(cmd.Context(), pageURL,
		social.CardWidth, social.CardHeight, outPath)
	if err != nil {
		return err
	}

	logger.Info("card rendered",
		slog.String("kind", generateKind), slog.String("path", outPath))
	return nil
}

func runSocialPost(cmd *cobra.Command, _ []string) error {
	cfg, logger := setup()

	store := snapshotStore(logger, cfg)
	if err := store.Load(); err != nil {
		return err
	}

	return runSocialTick(cmd.Context(), logger, cfg,
		store.Snapshot().Events, postDryRun)
}

// runSocialTick evaluates the posting schedule once and publishes
// whatever is due. The serve command runs it periodically through
// SocialJob; the post command runs it once.
func runSocialTick(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.Config,
	events []models.Event,
	dryRun bool,
) error {
	sources, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		return err
	}

	scheduler := social.NewScheduler(logger, sources.Schedule, cfg.PostingLogPath)
	postingLog, err := scheduler.LoadLog()
	if err != nil {
		return err
	}

	tasks := scheduler.DueTasks(events, postingLog, models.DateOf(time.Now()))
	if len(tasks) == 0 {
		return nil
	}

	poster := social.NewPoster(logger,
		cfg.MetaPageAccessToken, cfg.MetaPageID, cfg.MetaIGUserID)
	poster.DryRun = dryRun
	if !dryRun && !poster.Configured() {
		logger.Info("meta credentials missing, skipping due posts",
			slog.Int("due", len(tasks)))
		return nil
	}

	if err = os.MkdirAll(cfg.CardOutputDir, 0o755); err != nil {
		return err
	}

	for _, task := range tasks {
		if err = publishTask(ctx, logger, cfg, scheduler, &postingLog,
			poster, task, events); err != nil {
			return err
		}
	}
	return nil
}

// publishTask renders the card for one due task and posts it. Capture
// and rate-limit failures leave the task in the log unrecorded, so the
// next tick retries it; an expired token aborts the whole tick.
func publishTask(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.Config,
	scheduler *social.Scheduler,
	postingLog *models.PostingLog,
	poster *social.Poster,
	task social.Task,
	events []models.Event,
) error {
	imagePath := filepath.Join(cfg.CardOutputDir, cardFileName(task))

	err := social.CaptureCard(ctx, cardPageURL(cfg, task),
		social.CardWidth, social.CardHeight, imagePath)
	if err != nil {
		logger.Error("card capture failed",
			slog.String("task", task.Key), logging.ErrAttr(err))
		return nil
	}

	platforms, err := poster.Publish(ctx, imagePath, captionsFor(task, events))
	if err != nil {
		logger.Error("publish failed",
			slog.String("task", task.Key), logging.ErrAttr(err))

		var graphErr *social.GraphError
		if errors.As(err, &graphErr) && graphErr.TokenExpired() {
			return err
		}
	}

	if len(platforms) == 0 {
		return nil
	}
	return scheduler.Record(postingLog, task, platforms)
}

func cardFileName(task social.Task) string {
	return strings.ReplaceAll(task.Key, ":", "-") + ".png"
}

// cardPageURL maps a task to the card page the capture screenshots.
// Previews share the weekly card; per-race posts get the event card.
func cardPageURL(cfg config.Config, task social.Task) string {
	base := strings.TrimRight(cfg.WebURL, "/")

	switch task.Kind {
	case models.PostPreRace, models.PostRaceDay:
		if len(task.Events) > 0 {
			return base + "/socialcards/event/" + task.Events[0].ID
		}
	case models.PostMonthly:
		return base + "/socialcards/monthly"
	case models.PostWeeklyPreview, models.PostWeekendPreview:
	}
	return base + "/socialcards/weekly"
}

func captionsFor(task social.Task, all []models.Event) social.CaptionSet {
	switch task.Kind {
	case models.PostWeeklyPreview:
		return social.WeeklyCaptions(task.Events)
	case models.PostWeekendPreview:
		return social.WeekendCaptions(task.Events)
	case models.PostPreRace:
		if len(task.Events) > 0 {
			return social.PreRaceCaptions(task.Events[0], all)
		}
	case models.PostRaceDay:
		if len(task.Events) > 0 {
			return social.RaceDayCaptions(task.Events[0])
		}
	case models.PostMonthly:
	}
	return social.WeeklyCaptions(task.Events)
}
