package calendar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"racecal.simsportsarena.com/internal/calendar"
	"racecal.simsportsarena.com/internal/models"
)

func testEvents(t *testing.T) []models.Event {
	t.Helper()
	//nolint:exhaustruct //other fields are optional
	return []models.Event{
		{
			ID:            "imd-1",
			Dates:         fEventDates(t, "2026-01-10", "2026-01-11"),
			Disciplines:   []string{"SL", "GS"},
			Circuit:       "IMD",
			AgeGroups:     []string{"U14", "U16"},
			Status:        models.StatusCompleted,
			PCSSConfirmed: true,
		},
		{
			ID:          "imd-2",
			Dates:       fEventDates(t, "2026-02-09", "2026-02-10"),
			Disciplines: []string{"SL"},
			Circuit:     "IMD",
			AgeGroups:   []string{"U10", "U12"},
			Status:      models.StatusUpcoming,
		},
		{
			ID:            "wr-1",
			Dates:         fEventDates(t, "2026-03-01", "2026-03-04"),
			Disciplines:   []string{"SG", "DH"},
			Circuit:       "Western Region",
			AgeGroups:     []string{"U16", "U18"},
			Status:        models.StatusUpcoming,
			PCSSConfirmed: true,
		},
	}
}

func eventIDs(events []models.Event) []string {
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	return ids
}

func TestFilterEmptyMatchesAll(t *testing.T) {
	events := testEvents(t)
	var filter calendar.Filter

	assert.True(t, filter.Empty())
	assert.Equal(t, events, filter.Apply(events))
}

func TestFilterDisciplineIntersection(t *testing.T) {
	events := testEvents(t)
	var filter calendar.Filter

	// GS retains the [SL,GS] event, excludes the [SL]-only one.
	filter.ToggleDiscipline("GS")
	assert.Equal(t, []string{"imd-1"}, eventIDs(filter.Apply(events)))

	filter.ToggleDiscipline("DH")
	assert.Equal(t, []string{"imd-1", "wr-1"}, eventIDs(filter.Apply(events)))
}

func TestFilterCircuitAndAgeGroups(t *testing.T) {
	events := testEvents(t)
	var filter calendar.Filter

	filter.ToggleCircuit("Western Region")
	assert.Equal(t, []string{"wr-1"}, eventIDs(filter.Apply(events)))

	filter.ToggleAgeGroup("U16")
	assert.Equal(t, []string{"wr-1"}, eventIDs(filter.Apply(events)))

	// Conjunction: U16 alone matches two, circuit narrows to one.
	filter.ToggleCircuit("Western Region")
	assert.Equal(t, []string{"imd-1", "wr-1"}, eventIDs(filter.Apply(events)))
}

func TestFilterBooleans(t *testing.T) {
	events := testEvents(t)
	var filter calendar.Filter

	filter.HidePast = true
	assert.Equal(t, []string{"imd-2", "wr-1"}, eventIDs(filter.Apply(events)))

	filter.ConfirmedOnly = true
	assert.Equal(t, []string{"wr-1"}, eventIDs(filter.Apply(events)))
}

func TestFilterToggleIdempotence(t *testing.T) {
	events := testEvents(t)
	var filter calendar.Filter

	filter.ToggleDiscipline("SL")
	once := filter.Apply(events)
	assert.Equal(t, once, filter.Apply(once))

	// Double toggle restores the unfiltered state.
	filter.ToggleDiscipline("SL")
	assert.True(t, filter.Empty())
	assert.Equal(t, events, filter.Apply(events))
}

func TestFilterUnknownChipIsHarmless(t *testing.T) {
	events := testEvents(t)
	var filter calendar.Filter

	filter.ToggleDiscipline("XX")
	assert.Empty(t, filter.Apply(events))

	filter.ToggleDiscipline("XX")
	assert.Equal(t, events, filter.Apply(events))
}

func TestFilterClearAll(t *testing.T) {
	events := testEvents(t)
	var filter calendar.Filter

	filter.ToggleDiscipline("SL")
	filter.ToggleCircuit("IMD")
	filter.ToggleAgeGroup("U16")
	filter.ConfirmedOnly = true
	filter.HidePast = true
	filter.SelectEventIDs([]string{"imd-1"})

	filter.ClearAll()
	assert.True(t, filter.Empty())
	assert.Equal(t, events, filter.Apply(events))
}

func TestFilterRacerSelectionComposesWithChips(t *testing.T) {
	events := testEvents(t)
	var filter calendar.Filter

	filter.SelectEventIDs([]string{"imd-1", "wr-1"})
	assert.Equal(t, []string{"imd-1", "wr-1"}, eventIDs(filter.Apply(events)))

	// Chips stay active alongside the selection.
	filter.ToggleDiscipline("SL")
	assert.Equal(t, []string{"imd-1"}, eventIDs(filter.Apply(events)))

	filter.ClearSelection()
	assert.Equal(t, []string{"imd-1", "imd-2"}, eventIDs(filter.Apply(events)))
}

func TestFilterAccessorsSorted(t *testing.T) {
	var filter calendar.Filter

	filter.ToggleDiscipline("SL")
	filter.ToggleDiscipline("GS")
	filter.ToggleDiscipline("DH")

	require.Equal(t, []string{"DH", "GS", "SL"}, filter.Disciplines())
	assert.True(t, filter.HasDiscipline("GS"))
	assert.False(t, filter.HasDiscipline("SG"))
}
