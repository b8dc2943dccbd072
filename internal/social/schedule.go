package social

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"racecal.simsportsarena.com/internal/config"
	"racecal.simsportsarena.com/internal/models"
)

// Task is one pending post computed from the schedule. Events holds
// the slate for preview posts and exactly one event for per-race
// posts.
type Task struct {
	Kind   models.PostKind
	Key    string
	Events []models.Event
}

// Scheduler computes which posts are due on a given day and keeps the
// append-only posting log that prevents duplicates.
type Scheduler struct {
	logger   *slog.Logger
	schedule config.Schedule
	logPath  string
}

func NewScheduler(logger *slog.Logger, schedule config.Schedule, logPath string) *Scheduler {
	return &Scheduler{
		logger:   logger,
		schedule: schedule,
		logPath:  logPath,
	}
}

// LoadLog reads the posting log; a missing file is an empty log.
func (s *Scheduler) LoadLog() (models.PostingLog, error) {
	var log models.PostingLog

	data, err := os.ReadFile(s.logPath)
	if errors.Is(err, fs.ErrNotExist) {
		return log, nil
	}
	if err != nil {
		return log, fmt.Errorf("read posting log: %w", err)
	}

	if err = json.Unmarshal(data, &log); err != nil {
		return log, fmt.Errorf("parse posting log %s: %w", s.logPath, err)
	}
	return log, nil
}

// Record appends a completed task to the log and persists it.
func (s *Scheduler) Record(log *models.PostingLog, task Task, platforms []string) error {
	log.Posts = append(log.Posts, models.PostingRecord{
		ID:        uuid.NewString(),
		Key:       task.Key,
		Kind:      task.Kind,
		PostedAt:  time.Now().UTC(),
		Platforms: platforms,
	})

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return err
	}
	if err = os.WriteFile(s.logPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write posting log: %w", err)
	}
	return nil
}

// DueTasks returns the posts due on today that the log does not
// already contain: the weekly and weekend previews on their cron
// days, pre-race announcements for events starting in the configured
// lead time, and race-day posts for events starting today.
func (s *Scheduler) DueTasks(
	events []models.Event,
	log models.PostingLog,
	today models.Date,
) []Task {
	var tasks []Task

	if s.firesOn(s.schedule.WeeklyPreview, today) {
		key := string(models.PostWeeklyPreview) + ":" + today.String()
		if slate := WeeklyEvents(events, today); len(slate) > 0 && !log.Contains(key) {
			tasks = append(tasks, Task{
				Kind:   models.PostWeeklyPreview,
				Key:    key,
				Events: slate,
			})
		}
	}

	if s.firesOn(s.schedule.WeekendPreview, today) {
		friday := upcomingFriday(today)
		key := string(models.PostWeekendPreview) + ":" + friday.String()
		if slate := WeekendEvents(events, today); len(slate) > 0 && !log.Contains(key) {
			tasks = append(tasks, Task{
				Kind:   models.PostWeekendPreview,
				Key:    key,
				Events: slate,
			})
		}
	}

	for _, ev := range PreRaceEvents(events, today, s.schedule.PreRaceDays) {
		key := string(models.PostPreRace) + ":" + ev.ID
		if !log.Contains(key) {
			tasks = append(tasks, Task{
				Kind:   models.PostPreRace,
				Key:    key,
				Events: []models.Event{ev},
			})
		}
	}

	for _, ev := range RaceDayEvents(events, today) {
		key := string(models.PostRaceDay) + ":" + ev.ID
		if !log.Contains(key) {
			tasks = append(tasks, Task{
				Kind:   models.PostRaceDay,
				Key:    key,
				Events: []models.Event{ev},
			})
		}
	}

	return tasks
}

// firesOn reports whether a cron spec has a firing scheduled on the
// given calendar day.
func (s *Scheduler) firesOn(spec string, day models.Date) bool {
	if spec == "" {
		return false
	}

	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		s.logger.Warn("invalid cron spec",
			slog.String("spec", spec), logging.ErrAttr(err))
		return false
	}

	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	next := schedule.Next(midnight.Add(-time.Second))
	return next.Before(midnight.AddDate(0, 0, 1))
}

// weekStart returns the Monday of the week containing day.
func weekStart(day models.Date) models.Date {
	offset := (int(day.Weekday()) - int(time.Monday) + 7) % 7
	return day.AddDays(-offset)
}

func upcomingFriday(day models.Date) models.Date {
	offset := (int(time.Friday) - int(day.Weekday()) + 7) % 7
	return day.AddDays(offset)
}

// WeeklyEvents returns the slate for a weekly preview: events
// starting in the Monday-to-Sunday week around today, canceled ones
// excluded.
func WeeklyEvents(events []models.Event, today models.Date) []models.Event {
	monday := weekStart(today)
	sunday := monday.AddDays(6)

	var slate []models.Event
	for _, ev := range events {
		if ev.Status == models.StatusCanceled {
			continue
		}
		if ev.Dates.Start.Before(monday) || ev.Dates.Start.After(sunday) {
			continue
		}
		slate = append(slate, ev)
	}
	return slate
}

// WeekendEvents returns the slate for a weekend preview: events
// overlapping the upcoming Friday-to-Sunday window.
func WeekendEvents(events []models.Event, today models.Date) []models.Event {
	friday := upcomingFriday(today)
	sunday := friday.AddDays(2)

	var slate []models.Event
	for _, ev := range events {
		if ev.Status == models.StatusCanceled {
			continue
		}
		if !ev.Dates.Overlaps(friday, sunday) {
			continue
		}
		slate = append(slate, ev)
	}
	return slate
}

// PreRaceEvents returns events starting exactly daysAhead days from
// today.
func PreRaceEvents(events []models.Event, today models.Date, daysAhead int) []models.Event {
	target := today.AddDays(daysAhead)

	var due []models.Event
	for _, ev := range events {
		if ev.Status == models.StatusCanceled {
			continue
		}
		if ev.Dates.Start.Equal(target) {
			due = append(due, ev)
		}
	}
	return due
}

// RaceDayEvents returns events starting today.
func RaceDayEvents(events []models.Event, today models.Date) []models.Event {
	var due []models.Event
	for _, ev := range events {
		if ev.Status == models.StatusCanceled {
			continue
		}
		if ev.Dates.Start.Equal(today) {
			due = append(due, ev)
		}
	}
	return due
}
