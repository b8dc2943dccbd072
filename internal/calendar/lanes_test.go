package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"racecal.simsportsarena.com/internal/calendar"
	"racecal.simsportsarena.com/internal/models"
)

// Sun-start week 2026-02-08 .. 2026-02-14.
func testWeek(t *testing.T) calendar.WeekRow {
	t.Helper()
	grid := calendar.MonthGrid(2026, time.February, time.Sunday)
	week := grid.Weeks[1]
	require.Equal(t, "2026-02-08", week.First().String())
	require.Equal(t, "2026-02-14", week.Last().String())
	return week
}

func fEventDates(t *testing.T, start, end string) models.EventDates {
	t.Helper()
	s, err := models.ParseDate(start)
	require.NoError(t, err)
	e, err := models.ParseDate(end)
	require.NoError(t, err)
	return models.EventDates{Start: s, End: e}
}

func fEvent(t *testing.T, id, start, end string) models.Event {
	t.Helper()
	//nolint:exhaustruct //other fields are optional
	return models.Event{
		ID:    id,
		Name:  id,
		Dates: fEventDates(t, start, end),
	}
}

func TestLanesColumnMapping(t *testing.T) {
	week := testWeek(t)

	segments, laneCount := calendar.Lanes(week, []models.Event{
		fEvent(t, "a", "2026-02-09", "2026-02-10"),
	})

	require.Len(t, segments, 1)
	assert.Equal(t, 1, laneCount)
	assert.Equal(t, 2, segments[0].StartCol)
	assert.Equal(t, 4, segments[0].EndCol)
	assert.Equal(t, 0, segments[0].Lane)
	assert.False(t, segments[0].ContinuesFromPriorWeek)
	assert.False(t, segments[0].ContinuesIntoNextWeek)
}

func TestLanesFullWeekStacking(t *testing.T) {
	week := testWeek(t)

	segments, laneCount := calendar.Lanes(week, []models.Event{
		fEvent(t, "a", "2026-02-08", "2026-02-14"),
		fEvent(t, "b", "2026-02-08", "2026-02-14"),
	})

	require.Len(t, segments, 2)
	assert.Equal(t, 2, laneCount)
	assert.Equal(t, 0, segments[0].Lane)
	assert.Equal(t, 1, segments[1].Lane)
}

func TestLanesThreeWeekEvent(t *testing.T) {
	grid := calendar.MonthGrid(2026, time.February, time.Sunday)
	event := fEvent(t, "long", "2026-02-06", "2026-02-15")

	var segments []calendar.Segment
	for _, week := range grid.Weeks {
		segs, _ := calendar.Lanes(week, []models.Event{event})
		segments = append(segments, segs...)
	}

	require.Len(t, segments, 3)

	first, middle, last := segments[0], segments[1], segments[2]

	assert.False(t, first.ContinuesFromPriorWeek)
	assert.True(t, first.ContinuesIntoNextWeek)
	assert.Equal(t, 6, first.StartCol)
	assert.Equal(t, 8, first.EndCol)

	assert.True(t, middle.ContinuesFromPriorWeek)
	assert.True(t, middle.ContinuesIntoNextWeek)
	assert.Equal(t, 1, middle.StartCol)
	assert.Equal(t, 8, middle.EndCol)

	assert.True(t, last.ContinuesFromPriorWeek)
	assert.False(t, last.ContinuesIntoNextWeek)
	assert.Equal(t, 1, last.StartCol)
	assert.Equal(t, 2, last.EndCol)
}

func TestLanesNoOverlapInSharedLane(t *testing.T) {
	week := testWeek(t)

	events := []models.Event{
		fEvent(t, "a", "2026-02-08", "2026-02-09"),
		fEvent(t, "b", "2026-02-09", "2026-02-11"),
		fEvent(t, "c", "2026-02-10", "2026-02-10"),
		fEvent(t, "d", "2026-02-12", "2026-02-14"),
		fEvent(t, "e", "2026-02-05", "2026-02-20"),
		fEvent(t, "f", "2026-02-13", "2026-02-13"),
	}

	segments, laneCount := calendar.Lanes(week, events)
	require.Len(t, segments, len(events))
	assert.Greater(t, laneCount, 1)

	for i, a := range segments {
		for _, b := range segments[i+1:] {
			if a.Lane != b.Lane {
				continue
			}
			disjoint := a.EndCol <= b.StartCol || a.StartCol >= b.EndCol
			assert.True(t, disjoint,
				"%s and %s share lane %d with overlapping columns", a.Event.ID, b.Event.ID, a.Lane)
		}
	}
}

func TestLanesDeterministicAcrossInputOrder(t *testing.T) {
	week := testWeek(t)

	events := []models.Event{
		fEvent(t, "a", "2026-02-09", "2026-02-09"),
		fEvent(t, "b", "2026-02-09", "2026-02-12"),
		fEvent(t, "c", "2026-02-08", "2026-02-14"),
		fEvent(t, "d", "2026-02-11", "2026-02-13"),
	}
	reversed := []models.Event{events[3], events[2], events[1], events[0]}

	got, lanes := calendar.Lanes(week, events)
	gotReversed, lanesReversed := calendar.Lanes(week, reversed)

	assert.Equal(t, got, gotReversed)
	assert.Equal(t, lanes, lanesReversed)

	// Longer event first among same-start candidates.
	assert.Equal(t, "c", got[0].Event.ID)
	assert.Equal(t, "b", got[1].Event.ID)
	assert.Equal(t, "a", got[2].Event.ID)
}

func TestLanesSkipsNonOverlappingEvents(t *testing.T) {
	week := testWeek(t)

	segments, laneCount := calendar.Lanes(week, []models.Event{
		fEvent(t, "before", "2026-02-01", "2026-02-07"),
		fEvent(t, "after", "2026-02-15", "2026-02-16"),
	})

	assert.Empty(t, segments)
	assert.Equal(t, 0, laneCount)
}

func TestLanesEdgeAdjacency(t *testing.T) {
	week := testWeek(t)

	// Ending on the week's first day and starting on its last day both
	// count as overlap (closed-interval test).
	segments, _ := calendar.Lanes(week, []models.Event{
		fEvent(t, "ends-sun", "2026-02-06", "2026-02-08"),
		fEvent(t, "starts-sat", "2026-02-14", "2026-02-16"),
	})

	require.Len(t, segments, 2)
	assert.True(t, segments[0].ContinuesFromPriorWeek)
	assert.Equal(t, 1, segments[0].StartCol)
	assert.Equal(t, 2, segments[0].EndCol)
	assert.True(t, segments[1].ContinuesIntoNextWeek)
	assert.Equal(t, 7, segments[1].StartCol)
	assert.Equal(t, 8, segments[1].EndCol)
}
