package calendarapp

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"racecal.simsportsarena.com/internal/calendar"
	"racecal.simsportsarena.com/internal/models"
	"racecal.simsportsarena.com/internal/snapshot"
)

// The public views open weeks on Sunday, like the paper race notices
// the calendar replaces.
const weekStart = time.Sunday

//nolint:gochecknoglobals //static lookup table
var dayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Chip is one toggleable filter link.
type Chip struct {
	Label  string
	Active bool
	URL    string
}

type ChipGroups struct {
	Disciplines []Chip
	Circuits    []Chip
	AgeGroups   []Chip
	Confirmed   Chip
	ShowPast    Chip
	ClearURL    string
}

// SegmentView is one lane segment prepared for the CSS grid: Row is
// the 1-based grid row (lane + 1), columns are the engine's half-open
// [StartCol, EndCol).
type SegmentView struct {
	Event                  models.Event
	StartCol               int
	EndCol                 int
	Row                    int
	ContinuesFromPriorWeek bool
	ContinuesIntoNextWeek  bool
	StatusClass            string
}

type WeekView struct {
	Days      calendar.WeekRow
	Segments  []SegmentView
	LaneCount int
}

type MonthPage struct {
	State    calendar.ViewState
	Title    string
	DayNames []string
	Weeks    []WeekView
	Chips    ChipGroups

	PrevURL  string
	NextURL  string
	TodayURL string
	ListURL  string
	SearchURL string
	FeedPath string

	RacerLabel       string
	RacerIndexFailed bool
	Embed            bool
}

type EventRow struct {
	Event      models.Event
	ExportPath string
}

type ListPage struct {
	State  calendar.ViewState
	Title  string
	Chips  ChipGroups
	Events []EventRow

	MonthURL  string
	SearchURL string

	RacerLabel       string
	RacerIndexFailed bool
	Embed            bool
}

type RacerRow struct {
	Racer models.Racer
	URL   string
}

type ClubRow struct {
	Code   string
	Racers int
	URL    string
}

type SearchPage struct {
	Query    string
	TooShort bool
	Failed   bool
	Racers   []RacerRow
	Clubs    []ClubRow
	MonthURL string
}

// applySelection resolves the racer/club parameter into an event-id
// selection on the filter. A failed racer-index load leaves the
// filter untouched and reports the failure; an unknown key selects
// nothing.
func (app *Calendar) applySelection(
	ctx context.Context,
	state *calendar.ViewState,
) (string, bool) {
	if state.Racer == "" {
		return "", false
	}

	racers, err := app.store.Racers(ctx)
	if err != nil {
		app.logger.Error("racer index unavailable", logging.ErrAttr(err))
		return "", true
	}

	if club, ok := state.ClubCode(); ok {
		state.Filter.SelectEventIDs(snapshot.ClubEventIDs(racers, club))
		return strings.ToUpper(club), false
	}
	if racer, ok := snapshot.RacerByKey(racers, state.Racer); ok {
		state.Filter.SelectEventIDs(racer.EventIDs)
		return racer.Name, false
	}

	state.Filter.SelectEventIDs(nil)
	return state.Racer, false
}

// matchQuery narrows events by a case-insensitive name/venue
// substring.
func matchQuery(events []models.Event, query string) []models.Event {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return events
	}

	var matched []models.Event
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.Name), query) ||
			strings.Contains(strings.ToLower(ev.Venue), query) {
			matched = append(matched, ev)
		}
	}
	return matched
}

// chipURL derives the link for one chip: clone the state through the
// codec, apply the toggle, encode. Cloning through the codec avoids
// sharing the filter's internal sets with the live request state.
func chipURL(
	base string,
	state calendar.ViewState,
	now time.Time,
	mutate func(*calendar.ViewState),
) string {
	clone := calendar.DecodeViewState(state.Encode(now), now)
	mutate(&clone)
	return pageURL(base, clone.Encode(now))
}

func pageURL(base string, values url.Values) string {
	if len(values) == 0 {
		return base
	}
	return base + "?" + values.Encode()
}

// buildChips generates the filter chip rows from the full dataset, so
// a chip stays visible (and can be toggled off) even when the current
// filter excludes all events carrying its value.
func buildChips(
	base string,
	state calendar.ViewState,
	all []models.Event,
	now time.Time,
) ChipGroups {
	groups := ChipGroups{
		Confirmed: Chip{
			Label:  "PCSS",
			Active: state.Filter.ConfirmedOnly,
			URL: chipURL(base, state, now, func(s *calendar.ViewState) {
				s.Filter.ConfirmedOnly = !s.Filter.ConfirmedOnly
			}),
		},
		ShowPast: Chip{
			Label:  "Past events",
			Active: !state.Filter.HidePast,
			URL: chipURL(base, state, now, func(s *calendar.ViewState) {
				s.Filter.HidePast = !s.Filter.HidePast
			}),
		},
		ClearURL: chipURL(base, state, now, func(s *calendar.ViewState) {
			s.Filter.ClearAll()
			s.Racer = ""
			s.Query = ""
		}),
	}

	for _, value := range distinctValues(all, func(ev models.Event) []string {
		return ev.Disciplines
	}) {
		groups.Disciplines = append(groups.Disciplines, Chip{
			Label:  value,
			Active: state.Filter.HasDiscipline(value),
			URL: chipURL(base, state, now, func(s *calendar.ViewState) {
				s.Filter.ToggleDiscipline(value)
			}),
		})
	}

	for _, value := range distinctValues(all, func(ev models.Event) []string {
		return []string{ev.Circuit}
	}) {
		groups.Circuits = append(groups.Circuits, Chip{
			Label:  value,
			Active: state.Filter.HasCircuit(value),
			URL: chipURL(base, state, now, func(s *calendar.ViewState) {
				s.Filter.ToggleCircuit(value)
			}),
		})
	}

	for _, value := range distinctValues(all, func(ev models.Event) []string {
		return ev.AgeGroups
	}) {
		groups.AgeGroups = append(groups.AgeGroups, Chip{
			Label:  value,
			Active: state.Filter.HasAgeGroup(value),
			URL: chipURL(base, state, now, func(s *calendar.ViewState) {
				s.Filter.ToggleAgeGroup(value)
			}),
		})
	}

	return groups
}

func distinctValues(
	events []models.Event,
	pick func(models.Event) []string,
) []string {
	seen := map[string]bool{}
	var values []string
	for _, ev := range events {
		for _, v := range pick(ev) {
			if v != "" && !seen[v] {
				seen[v] = true
				values = append(values, v)
			}
		}
	}
	sort.Strings(values)
	return values
}

func statusClass(status models.Status) string {
	return "status-" + string(status)
}
