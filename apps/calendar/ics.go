package calendarapp

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"github.com/xdoubleu/essentia/v2/pkg/parse"
	"racecal.simsportsarena.com/internal/calendar"
	"racecal.simsportsarena.com/internal/ics"
)

// exportHandler serves one event as a downloadable VCALENDAR.
func (app *Calendar) exportHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parse.URLParam[string](r, "id", nil)
	if err != nil {
		panic(err)
	}
	id = strings.TrimSuffix(id, ".ics")

	snap := app.store.Snapshot()
	for _, ev := range snap.Events {
		if ev.ID != id {
			continue
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", id+".ics"))
		if _, err = w.Write([]byte(ics.Event(ev, snap.GeneratedAt))); err != nil {
			app.logger.Error("failed to write ics export", logging.ErrAttr(err))
		}
		return
	}

	http.Error(w, "Event not found", http.StatusNotFound)
}

// feedHandler serves the subscribable calendar for the filtered event
// set. Calendar clients poll this; the TTL headers inside the feed
// tell them how often.
func (app *Calendar) feedHandler(w http.ResponseWriter, r *http.Request) {
	state := calendar.DecodeViewState(r.URL.Query(), app.Now())
	snap := app.store.Snapshot()

	if _, indexFailed := app.applySelection(r.Context(), &state); indexFailed {
		http.Error(w, "Racer index unavailable", http.StatusInternalServerError)
		return
	}
	events := matchQuery(state.Filter.Apply(snap.Events), state.Query)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	feed := ics.Feed(events, snap.GeneratedAt, app.config.FeedTTL)
	if _, err := w.Write([]byte(feed)); err != nil {
		app.logger.Error("failed to write ics feed", logging.ErrAttr(err))
	}
}
