package calendarapp

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	tpltools "github.com/xdoubleu/essentia/v2/pkg/tpl"
	"racecal.simsportsarena.com/internal/calendar"
	"racecal.simsportsarena.com/internal/models"
	"racecal.simsportsarena.com/internal/snapshot"
)

func (app *Calendar) monthHandler(w http.ResponseWriter, r *http.Request) {
	now := app.Now()
	state := calendar.DecodeViewState(r.URL.Query(), now)

	// view=list on the index renders the list view in place.
	if state.View == calendar.ListView {
		app.renderList(w, r, state)
		return
	}
	app.renderMonth(w, r, state)
}

func (app *Calendar) listHandler(w http.ResponseWriter, r *http.Request) {
	now := app.Now()
	state := calendar.DecodeViewState(r.URL.Query(), now)
	state.View = calendar.ListView
	app.renderList(w, r, state)
}

func (app *Calendar) renderMonth(
	w http.ResponseWriter,
	r *http.Request,
	state calendar.ViewState,
) {
	now := app.Now()
	snap := app.store.Snapshot()

	label, indexFailed := app.applySelection(r.Context(), &state)
	events := matchQuery(state.Filter.Apply(snap.Events), state.Query)

	grid := calendar.MonthGrid(state.Year, state.Month, weekStart)
	weeks := make([]WeekView, 0, len(grid.Weeks))
	for _, week := range grid.Weeks {
		segments, laneCount := calendar.Lanes(week, events)
		views := make([]SegmentView, 0, len(segments))
		for _, seg := range segments {
			views = append(views, SegmentView{
				Event:                  seg.Event,
				StartCol:               seg.StartCol,
				EndCol:                 seg.EndCol,
				Row:                    seg.Lane + 1,
				ContinuesFromPriorWeek: seg.ContinuesFromPriorWeek,
				ContinuesIntoNextWeek:  seg.ContinuesIntoNextWeek,
				StatusClass:            statusClass(seg.Event.Status),
			})
		}
		weeks = append(weeks, WeekView{
			Days:      week,
			Segments:  views,
			LaneCount: laneCount,
		})
	}

	const base = "."
	data := MonthPage{
		State:    state,
		Title:    fmt.Sprintf("%s %d", state.Month, state.Year),
		DayNames: dayNames,
		Weeks:    weeks,
		Chips:    buildChips(base, state, snap.Events, now),

		PrevURL: monthURL(base, state, now, -1),
		NextURL: monthURL(base, state, now, +1),
		TodayURL: chipURL(base, state, now, func(s *calendar.ViewState) {
			s.Year = now.Year()
			s.Month = now.Month()
		}),
		ListURL: chipURL("list", state, now, func(s *calendar.ViewState) {
			s.View = calendar.ListView
		}),
		SearchURL: "search",
		FeedPath:  pageURL("feed.ics", state.Encode(now)),

		RacerLabel:       label,
		RacerIndexFailed: indexFailed,
		Embed:            state.Embed,
	}

	tpltools.RenderWithPanic(app.tpl, w, "month.html", data)
}

func (app *Calendar) renderList(
	w http.ResponseWriter,
	r *http.Request,
	state calendar.ViewState,
) {
	now := app.Now()
	snap := app.store.Snapshot()

	label, indexFailed := app.applySelection(r.Context(), &state)
	events := matchQuery(state.Filter.Apply(snap.Events), state.Query)

	rows := make([]EventRow, 0, len(events))
	for _, ev := range events {
		rows = append(rows, EventRow{
			Event:      ev,
			ExportPath: "export/" + ev.ID + ".ics",
		})
	}

	const base = "list"
	data := ListPage{
		State:  state,
		Title:  "Race list",
		Chips:  buildChips(base, state, snap.Events, now),
		Events: rows,

		MonthURL: chipURL(".", state, now, func(s *calendar.ViewState) {
			s.View = calendar.MonthView
		}),
		SearchURL: "search",

		RacerLabel:       label,
		RacerIndexFailed: indexFailed,
		Embed:            state.Embed,
	}

	tpltools.RenderWithPanic(app.tpl, w, "list.html", data)
}

func (app *Calendar) searchHandler(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	data := SearchPage{
		Query:    query,
		TooShort: query != "" && len(query) < snapshot.MinQueryLength,
		MonthURL: ".",
	}

	if query != "" && !data.TooShort {
		racers, err := app.store.Racers(r.Context())
		if err != nil {
			data.Failed = true
		} else {
			for _, racer := range snapshot.SearchRacers(racers, query) {
				data.Racers = append(data.Racers, RacerRow{
					Racer: racer,
					URL:   selectionURL(racer.Key),
				})
			}
			data.Clubs = clubRows(racers, query)
		}
	}

	tpltools.RenderWithPanic(app.tpl, w, "search.html", data)
}

// clubRows matches club codes by substring and counts their racers.
func clubRows(racers []models.Racer, query string) []ClubRow {
	query = strings.ToLower(query)

	counts := map[string]int{}
	for _, racer := range racers {
		if racer.Club == "" {
			continue
		}
		if strings.Contains(strings.ToLower(racer.Club), query) {
			counts[racer.Club]++
		}
	}

	rows := make([]ClubRow, 0, len(counts))
	for club, count := range counts {
		rows = append(rows, ClubRow{
			Code:   club,
			Racers: count,
			URL:    selectionURL("club:" + club),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return rows
}

// selectionURL links back to the month view with a racer/club
// selection applied.
func selectionURL(selection string) string {
	return "./?" + url.Values{"racer": {selection}}.Encode()
}

func monthURL(
	base string,
	state calendar.ViewState,
	now time.Time,
	delta int,
) string {
	return chipURL(base, state, now, func(s *calendar.ViewState) {
		s.Year, s.Month = calendar.AddMonths(s.Year, s.Month, delta)
	})
}
