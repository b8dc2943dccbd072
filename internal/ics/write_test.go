package ics_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"racecal.simsportsarena.com/internal/ics"
	"racecal.simsportsarena.com/internal/models"
)

var testGeneratedAt = time.Date(2026, time.February, 9, 6, 0, 0, 0, time.UTC)

func testEvent(t *testing.T) models.Event {
	t.Helper()
	start, err := models.ParseDate("2026-02-09")
	require.NoError(t, err)
	end, err := models.ParseDate("2026-02-10")
	require.NoError(t, err)
	//nolint:exhaustruct //other fields are optional
	return models.Event{
		ID:          "imd-14421",
		Name:        "South Series- 2 GS- Snowbird",
		Dates:       models.EventDates{Start: start, End: end},
		Venue:       "Snowbird",
		State:       "UT",
		Disciplines: []string{"GS"},
		DisciplineCounts: map[string]int{
			"GS": 2,
		},
		Circuit:   "IMD",
		AgeGroups: []string{"U14", "U16"},
		Status:    models.StatusUpcoming,
		SourceURL: "https://imdalpine.org/event/14421",
	}
}

func unfold(content string) string {
	return strings.ReplaceAll(content, "\r\n ", "")
}

func TestEventExport(t *testing.T) {
	content := ics.Event(testEvent(t), testGeneratedAt)

	assert.True(t, strings.HasPrefix(content, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(content, "END:VCALENDAR\r\n"))

	flat := unfold(content)
	assert.Contains(t, flat, "UID:imd-14421@simsportsarena.com\r\n")
	assert.Contains(t, flat, "DTSTAMP:20260209T060000Z\r\n")
	assert.Contains(t, flat, "DTSTART;VALUE=DATE:20260209\r\n")
	// Inclusive end Feb 10 becomes exclusive DTEND Feb 11.
	assert.Contains(t, flat, "DTEND;VALUE=DATE:20260211\r\n")
	assert.Contains(t, flat, "LOCATION:Snowbird\\, UT\r\n")
	assert.Contains(t, flat, "SUMMARY:South Series- 2 GS- Snowbird\r\n")
	assert.NotContains(t, flat, "STATUS:CANCELLED")
}

func TestEventAlarmOnlyWhenUpcoming(t *testing.T) {
	ev := testEvent(t)
	content := ics.Event(ev, testGeneratedAt)
	assert.Contains(t, content, "BEGIN:VALARM\r\nTRIGGER:-P1D\r\nACTION:DISPLAY\r\n")

	ev.Status = models.StatusCompleted
	content = ics.Event(ev, testGeneratedAt)
	assert.NotContains(t, content, "BEGIN:VALARM")
}

func TestEventCanceledStatus(t *testing.T) {
	ev := testEvent(t)
	ev.Status = models.StatusCanceled

	content := ics.Event(ev, testGeneratedAt)
	assert.Contains(t, content, "STATUS:CANCELLED\r\n")
	assert.NotContains(t, content, "BEGIN:VALARM")
}

func TestTextEscaping(t *testing.T) {
	ev := testEvent(t)
	ev.Name = `U16; Qualifier, Day 1\2`
	ev.Venue = "Bogus Basin"
	ev.State = ""
	ev.Description = "line one\nline two"

	flat := unfold(ics.Event(ev, testGeneratedAt))
	assert.Contains(t, flat, `SUMMARY:U16\; Qualifier\, Day 1\\2`)
}

func TestLineFolding(t *testing.T) {
	ev := testEvent(t)
	ev.Name = strings.Repeat("Intermountain Division Championship ", 5)

	content := ics.Event(ev, testGeneratedAt)
	for _, line := range strings.Split(content, "\r\n") {
		assert.LessOrEqual(t, len(line), 75, "line %q exceeds fold width", line)
	}

	// Folding is reversible.
	assert.Contains(t, unfold(content), "SUMMARY:"+ev.Name)
}

func TestFeed(t *testing.T) {
	events := []models.Event{testEvent(t)}

	content := ics.Feed(events, testGeneratedAt, 12*time.Hour)

	assert.Contains(t, content, "METHOD:PUBLISH\r\n")
	assert.Contains(t, content, "CALSCALE:GREGORIAN\r\n")
	assert.Contains(t, content, "X-PUBLISHED-TTL:PT12H\r\n")
	assert.Contains(t, content, "REFRESH-INTERVAL;VALUE=DURATION:PT12H\r\n")
	assert.Equal(t, 1, strings.Count(content, "BEGIN:VEVENT"))
}

func TestFeedDeterministic(t *testing.T) {
	events := []models.Event{testEvent(t)}

	first := ics.Feed(events, testGeneratedAt, time.Hour)
	second := ics.Feed(events, testGeneratedAt, time.Hour)
	require.Equal(t, first, second)
}
