package ingest_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"racecal.simsportsarena.com/internal/ingest"
)

func icsDocument(events ...[]string) []byte {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//IMD//Events//EN",
	}
	for _, ev := range events {
		lines = append(lines, "BEGIN:VEVENT")
		lines = append(lines, ev...)
		lines = append(lines, "END:VEVENT")
	}
	lines = append(lines, "END:VCALENDAR", "")
	return []byte(strings.Join(lines, "\r\n"))
}

func feedRange() (time.Time, time.Time) {
	return time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
}

func TestParseFeedAllDayEvent(t *testing.T) {
	doc := icsDocument([]string{
		"UID:14421-1770595200-1770767999@imdalpine.org",
		"SUMMARY:South Series- 2 GS- Snowbird",
		"DESCRIPTION:Day 1: Girls GS",
		"URL:https://imdalpine.org/event/14421/",
		"LOCATION:TD- Jane Doe",
		"CATEGORIES:South Series,IMD U14",
		"DTSTART;VALUE=DATE:20260209",
		"DTEND;VALUE=DATE:20260211",
	})

	start, end := feedRange()
	events, err := ingest.ParseFeed(doc, start, end)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "14421-1770595200-1770767999@imdalpine.org", ev.UID)
	assert.Equal(t, "South Series- 2 GS- Snowbird", ev.Summary)
	assert.Equal(t, "Jane Doe", ev.TDName)
	assert.Equal(t, []string{"South Series", "IMD U14"}, ev.Categories)
	assert.Equal(t, "2026-02-09", ev.Start.String())
	// Exclusive all-day DTEND becomes the inclusive end date.
	assert.Equal(t, "2026-02-10", ev.End.String())
}

func TestParseFeedMissingDtEnd(t *testing.T) {
	doc := icsDocument([]string{
		"UID:1@imdalpine.org",
		"SUMMARY:YSL Kombi- Utah Olympic Park",
		"DTSTART;VALUE=DATE:20260209",
	})

	start, end := feedRange()
	events, err := ingest.ParseFeed(doc, start, end)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, events[0].Start, events[0].End)
}

func TestParseFeedSkipsEventsWithoutStart(t *testing.T) {
	doc := icsDocument([]string{
		"UID:1@imdalpine.org",
		"SUMMARY:Broken entry",
	})

	start, end := feedRange()
	events, err := ingest.ParseFeed(doc, start, end)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParseFeedExpandsRecurrence(t *testing.T) {
	doc := icsDocument([]string{
		"UID:77@imdalpine.org",
		"SUMMARY:Training Block",
		"DTSTART;VALUE=DATE:20260106",
		"DTEND;VALUE=DATE:20260107",
		"RRULE:FREQ=WEEKLY;COUNT=4",
		"EXDATE;VALUE=DATE:20260113",
	})

	start, end := feedRange()
	events, err := ingest.ParseFeed(doc, start, end)
	require.NoError(t, err)

	// Four weekly occurrences minus the excluded one.
	require.Len(t, events, 3)
	assert.Equal(t, "2026-01-06", events[0].Start.String())
	assert.Equal(t, "2026-01-20", events[1].Start.String())
	assert.Equal(t, "2026-01-27", events[2].Start.String())

	// Occurrences get distinct ids.
	assert.NotEqual(t, events[0].UID, events[1].UID)
	for _, ev := range events {
		assert.Equal(t, ev.Start, ev.End, "one-day span carries over")
	}
}

func TestParseFeedLocationWithoutTDMarker(t *testing.T) {
	doc := icsDocument([]string{
		"UID:2@imdalpine.org",
		"SUMMARY:North Series- SL- Bogus Basin",
		"LOCATION:Bogus Basin Lodge",
		"DTSTART;VALUE=DATE:20260214",
	})

	start, end := feedRange()
	events, err := ingest.ParseFeed(doc, start, end)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].TDName)
}

func TestParseFeedRejectsGarbage(t *testing.T) {
	start, end := feedRange()
	_, err := ingest.ParseFeed([]byte("not a calendar"), start, end)
	assert.Error(t, err)
}
