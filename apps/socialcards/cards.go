package socialcards

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xdoubleu/essentia/v2/pkg/parse"
	tpltools "github.com/xdoubleu/essentia/v2/pkg/tpl"
	"racecal.simsportsarena.com/internal/calendar"
	"racecal.simsportsarena.com/internal/models"
	"racecal.simsportsarena.com/internal/social"
)

// maxCardLanes caps the rendered lanes per week on the monthly card;
// busier weeks collapse into a "+N more" marker so the card stays
// legible at feed size.
const maxCardLanes = 4

type WeeklyCard struct {
	Title  string
	Range  string
	Events []models.Event
}

type CardSegment struct {
	Event    models.Event
	StartCol int
	EndCol   int
	Row      int
}

type MonthlyWeek struct {
	Days      calendar.WeekRow
	Segments  []CardSegment
	LaneCount int
	Overflow  int
}

type MonthlyCard struct {
	Title    string
	DayNames []string
	Weeks    []MonthlyWeek
}

type EventCard struct {
	Event       models.Event
	Disciplines string
	Canceled    bool
}

func (app *SocialCards) weeklyHandler(w http.ResponseWriter, _ *http.Request) {
	today := models.DateOf(app.Now())
	snap := app.store.Snapshot()

	friday, sunday := weekendRange(today)
	data := WeeklyCard{
		Title:  "This weekend in PC ski racing",
		Range:  friday.Format("Jan 2") + " – " + sunday.Format("Jan 2, 2006"),
		Events: social.WeekendEvents(snap.Events, today),
	}

	tpltools.RenderWithPanic(app.tpl, w, "weekly.html", data)
}

// weekendRange mirrors the posting schedule's weekend window: the
// upcoming Friday through Sunday.
func weekendRange(today models.Date) (models.Date, models.Date) {
	offset := (int(time.Friday) - int(today.Weekday()) + 7) % 7
	friday := today.AddDays(offset)
	return friday, friday.AddDays(2)
}

func (app *SocialCards) monthlyHandler(w http.ResponseWriter, r *http.Request) {
	now := app.Now()
	year, month := now.Year(), now.Month()
	if m := r.URL.Query().Get("month"); m != "" {
		if t, err := time.Parse("2006-01", m); err == nil {
			year, month = t.Year(), t.Month()
		}
	}

	snap := app.store.Snapshot()

	// The monthly card uses Monday-start weeks, unlike the public
	// Sunday-start month view.
	grid := calendar.MonthGrid(year, month, time.Monday)
	weeks := make([]MonthlyWeek, 0, len(grid.Weeks))
	for _, week := range grid.Weeks {
		segments, laneCount := calendar.Lanes(week, snap.Events)

		view := MonthlyWeek{Days: week, LaneCount: laneCount}
		for _, seg := range segments {
			if seg.Lane >= maxCardLanes {
				view.Overflow++
				continue
			}
			view.Segments = append(view.Segments, CardSegment{
				Event:    seg.Event,
				StartCol: seg.StartCol,
				EndCol:   seg.EndCol,
				Row:      seg.Lane + 1,
			})
		}
		if view.LaneCount > maxCardLanes {
			view.LaneCount = maxCardLanes
		}
		weeks = append(weeks, view)
	}

	data := MonthlyCard{
		Title:    fmt.Sprintf("%s %d", month, year),
		DayNames: []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
		Weeks:    weeks,
	}

	tpltools.RenderWithPanic(app.tpl, w, "monthly.html", data)
}

func (app *SocialCards) eventHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parse.URLParam[string](r, "id", nil)
	if err != nil {
		panic(err)
	}

	snap := app.store.Snapshot()
	for _, ev := range snap.Events {
		if ev.ID != id {
			continue
		}

		tpltools.RenderWithPanic(app.tpl, w, "event.html", EventCard{
			Event:       ev,
			Disciplines: social.FormatDisciplines(ev),
			Canceled:    ev.Status == models.StatusCanceled,
		})
		return
	}

	http.Error(w, "Event not found", http.StatusNotFound)
}
