package social_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"racecal.simsportsarena.com/internal/config"
	"racecal.simsportsarena.com/internal/models"
	"racecal.simsportsarena.com/internal/social"
)

func testScheduler(t *testing.T) *social.Scheduler {
	t.Helper()
	return social.NewScheduler(
		logging.NewNopLogger(),
		config.DefaultSources().Schedule,
		filepath.Join(t.TempDir(), "posting_log.json"),
	)
}

func scheduleDate(t *testing.T, value string) models.Date {
	t.Helper()
	date, err := models.ParseDate(value)
	require.NoError(t, err)
	return date
}

func scheduleEvent(t *testing.T, id string, start string, end string) models.Event {
	t.Helper()
	//nolint:exhaustruct //other fields are optional
	return models.Event{
		ID:     id,
		Name:   "South Series- 2 GS- Snowbird",
		Venue:  "Snowbird",
		Dates:  models.EventDates{Start: scheduleDate(t, start), End: scheduleDate(t, end)},
		Status: models.StatusUpcoming,
	}
}

func TestDueTasksMonday(t *testing.T) {
	scheduler := testScheduler(t)

	// 2026-02-09 is a Monday; the event runs Saturday of that week.
	today := scheduleDate(t, "2026-02-09")
	events := []models.Event{scheduleEvent(t, "imd-1", "2026-02-14", "2026-02-15")}

	tasks := scheduler.DueTasks(events, models.PostingLog{}, today)

	require.Len(t, tasks, 1)
	assert.Equal(t, models.PostWeeklyPreview, tasks[0].Kind)
	assert.Equal(t, "weekly_preview:2026-02-09", tasks[0].Key)
	assert.Len(t, tasks[0].Events, 1)
}

func TestDueTasksThursday(t *testing.T) {
	scheduler := testScheduler(t)

	// 2026-02-12 is a Thursday; the weekend preview keys on Friday.
	today := scheduleDate(t, "2026-02-12")
	events := []models.Event{scheduleEvent(t, "imd-1", "2026-02-14", "2026-02-15")}

	tasks := scheduler.DueTasks(events, models.PostingLog{}, today)

	var kinds []models.PostKind
	for _, task := range tasks {
		kinds = append(kinds, task.Kind)
	}
	assert.Contains(t, kinds, models.PostWeekendPreview)
	assert.NotContains(t, kinds, models.PostWeeklyPreview)

	for _, task := range tasks {
		if task.Kind == models.PostWeekendPreview {
			assert.Equal(t, "weekend_preview:2026-02-13", task.Key)
		}
	}
}

func TestDueTasksPreRaceAndRaceDay(t *testing.T) {
	scheduler := testScheduler(t)

	// Wednesday: no previews fire.
	today := scheduleDate(t, "2026-02-11")
	events := []models.Event{
		// Starts in exactly two days (the configured lead time).
		scheduleEvent(t, "imd-1", "2026-02-13", "2026-02-14"),
		// Starts today.
		scheduleEvent(t, "imd-2", "2026-02-11", "2026-02-11"),
		// Starts tomorrow: neither pre-race nor race-day.
		scheduleEvent(t, "imd-3", "2026-02-12", "2026-02-12"),
	}

	tasks := scheduler.DueTasks(events, models.PostingLog{}, today)

	require.Len(t, tasks, 2)
	assert.Equal(t, models.PostPreRace, tasks[0].Kind)
	assert.Equal(t, "pre_race:imd-1", tasks[0].Key)
	assert.Equal(t, models.PostRaceDay, tasks[1].Kind)
	assert.Equal(t, "race_day:imd-2", tasks[1].Key)
}

func TestDueTasksSkipsCanceled(t *testing.T) {
	scheduler := testScheduler(t)

	today := scheduleDate(t, "2026-02-11")
	ev := scheduleEvent(t, "imd-1", "2026-02-13", "2026-02-14")
	ev.Status = models.StatusCanceled

	tasks := scheduler.DueTasks([]models.Event{ev}, models.PostingLog{}, today)
	assert.Empty(t, tasks)
}

func TestDueTasksDeduplicatesAgainstLog(t *testing.T) {
	scheduler := testScheduler(t)

	today := scheduleDate(t, "2026-02-11")
	events := []models.Event{scheduleEvent(t, "imd-1", "2026-02-13", "2026-02-14")}

	log := models.PostingLog{Posts: []models.PostingRecord{{
		ID:   "e7cf9a72-1111-2222-3333-444455556666",
		Key:  "pre_race:imd-1",
		Kind: models.PostPreRace,
	}}}

	tasks := scheduler.DueTasks(events, log, today)
	assert.Empty(t, tasks)
}

func TestRecordPersistsLog(t *testing.T) {
	scheduler := testScheduler(t)

	today := scheduleDate(t, "2026-02-11")
	events := []models.Event{scheduleEvent(t, "imd-1", "2026-02-13", "2026-02-14")}

	log, err := scheduler.LoadLog()
	require.NoError(t, err)

	tasks := scheduler.DueTasks(events, log, today)
	require.Len(t, tasks, 1)

	require.NoError(t, scheduler.Record(&log, tasks[0], []string{"facebook", "instagram"}))

	// A reloaded log suppresses the task.
	reloaded, err := scheduler.LoadLog()
	require.NoError(t, err)
	require.Len(t, reloaded.Posts, 1)
	assert.NotEmpty(t, reloaded.Posts[0].ID)
	assert.Equal(t, []string{"facebook", "instagram"}, reloaded.Posts[0].Platforms)

	assert.Empty(t, scheduler.DueTasks(events, reloaded, today))
}

func TestWeekendEventsOverlap(t *testing.T) {
	today := scheduleDate(t, "2026-02-12")

	events := []models.Event{
		// Thursday-to-Saturday overlaps the weekend window.
		scheduleEvent(t, "imd-1", "2026-02-12", "2026-02-14"),
		// Next week.
		scheduleEvent(t, "imd-2", "2026-02-20", "2026-02-21"),
	}

	slate := social.WeekendEvents(events, today)
	require.Len(t, slate, 1)
	assert.Equal(t, "imd-1", slate[0].ID)
}
