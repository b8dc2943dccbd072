package social_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"racecal.simsportsarena.com/internal/models"
	"racecal.simsportsarena.com/internal/social"
)

func captionEvent(t *testing.T) models.Event {
	t.Helper()
	start, err := models.ParseDate("2026-02-09")
	require.NoError(t, err)
	end, err := models.ParseDate("2026-02-10")
	require.NoError(t, err)

	//nolint:exhaustruct //other fields are optional
	return models.Event{
		ID:   "imd-14421",
		Name: "South Series- 2 GS- Snowbird",
		Dates: models.EventDates{
			Start:   start,
			End:     end,
			Display: "Feb 9–10, 2026",
		},
		Venue:            "Snowbird",
		State:            "UT",
		Disciplines:      []string{"GS"},
		DisciplineCounts: map[string]int{"GS": 2},
		Circuit:          "IMD",
		AgeGroups:        []string{"U14", "U16"},
		Status:           models.StatusUpcoming,
	}
}

func TestEventTitle(t *testing.T) {
	ev := captionEvent(t)
	assert.Equal(t, "South Series", social.EventTitle(ev))

	ev.Name = "WR Devo / NJR - 2SL/2GS- Mission Ridge"
	assert.Equal(t, "WR Devo / NJR", social.EventTitle(ev))
}

func TestFormatDisciplines(t *testing.T) {
	ev := captionEvent(t)
	assert.Equal(t, "2x GS", social.FormatDisciplines(ev))

	ev.Disciplines = []string{"SL", "GS"}
	ev.DisciplineCounts = map[string]int{"SL": 1, "GS": 2}
	assert.Equal(t, "SL, 2x GS", social.FormatDisciplines(ev))

	ev.Disciplines = nil
	assert.Empty(t, social.FormatDisciplines(ev))
}

func TestVenueHashtag(t *testing.T) {
	assert.Equal(t, "#UtahOlympicPark", social.VenueHashtag("Utah Olympic Park"))
	assert.Equal(t, "#Snowbird", social.VenueHashtag("Snowbird"))
	assert.Equal(t, "#MtBachelor", social.VenueHashtag("Mt. Bachelor"))
	assert.Empty(t, social.VenueHashtag(""))
	assert.Empty(t, social.VenueHashtag("TBD"))
}

func TestPreRaceCaptions(t *testing.T) {
	ev := captionEvent(t)

	captions := social.PreRaceCaptions(ev, nil)

	assert.Contains(t, captions.Instagram, "This weekend: South Series at Snowbird, UT (Feb 9–10, 2026)")
	assert.Contains(t, captions.Instagram, "featuring 2x GS")
	assert.Contains(t, captions.Instagram, "for U14, U16 athletes")
	assert.Contains(t, captions.Instagram, "#IMDAlpine #YouthSkiRacing #Snowbird #PCSkiRacing")
	assert.Contains(t, captions.Facebook, "Good luck to all athletes competing!")
	assert.NotContains(t, captions.Short, "#")
}

func TestPreRaceCaptionsHistoricalRecap(t *testing.T) {
	ev := captionEvent(t)

	//nolint:exhaustruct //other fields are optional
	past := models.Event{
		ID:            "imd-14001",
		Venue:         "Snowbird",
		Status:        models.StatusCompleted,
		BlogRecapURLs: []string{"https://www.simsportsarena.com/post/snowbird-recap"},
	}

	captions := social.PreRaceCaptions(ev, []models.Event{past, ev})
	assert.Contains(t, captions.Instagram, "Check out our recap from the last race at Snowbird!")

	// No recap elsewhere: no historical line.
	captions = social.PreRaceCaptions(ev, []models.Event{ev})
	assert.NotContains(t, captions.Instagram, "Check out our recap")
}

func TestRaceDayCaptions(t *testing.T) {
	captions := social.RaceDayCaptions(captionEvent(t))

	assert.Contains(t, captions.Instagram, "It's race day! South Series is underway at Snowbird, UT.")
	assert.Contains(t, captions.Instagram, "#RaceDay")
	assert.Equal(t, "Race day: South Series at Snowbird, UT.", captions.Short)
}

func TestWeeklyCaptions(t *testing.T) {
	first := captionEvent(t)
	second := captionEvent(t)
	second.Name = "YSL Kombi- Utah Olympic Park"
	second.Venue = "Utah Olympic Park"
	second.Dates.Display = "Feb 14, 2026"

	captions := social.WeeklyCaptions([]models.Event{first, second})

	// Years are stripped for compactness.
	assert.Contains(t, captions.Short,
		"South Series at Snowbird (Feb 9–10), YSL Kombi at Utah Olympic Park (Feb 14)")
	assert.Contains(t, captions.Instagram, "#PCSkiRacing #IMDAlpine #YouthSkiRacing")
	assert.NotContains(t, captions.Instagram, "#WeekendRacing")

	assert.Equal(t, social.CaptionSet{}, social.WeeklyCaptions(nil))
}

func TestWeekendCaptions(t *testing.T) {
	captions := social.WeekendCaptions([]models.Event{captionEvent(t)})

	assert.Contains(t, captions.Short, "This weekend in PC ski racing:")
	assert.Contains(t, captions.Instagram, "#WeekendRacing")
	assert.Contains(t, captions.Facebook, "racing this weekend!")
}
