package calendarapp

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"racecal.simsportsarena.com/internal/calendar"
	"racecal.simsportsarena.com/internal/models"
	"racecal.simsportsarena.com/internal/snapshot"
)

type eventsResponse struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Events      []models.Event `json:"events"`
}

type racersResponse struct {
	Query  string         `json:"query"`
	Racers []models.Racer `json:"racers"`
}

type healthResponse struct {
	Status      string    `json:"status"`
	Events      int       `json:"events"`
	GeneratedAt time.Time `json:"generated_at"`
}

// eventsAPIHandler serves the filtered event set as JSON, honoring
// the same query parameters as the HTML views.
func (app *Calendar) eventsAPIHandler(w http.ResponseWriter, r *http.Request) {
	state := calendar.DecodeViewState(r.URL.Query(), app.Now())
	snap := app.store.Snapshot()

	_, indexFailed := app.applySelection(r.Context(), &state)
	if indexFailed {
		app.writeError(w, http.StatusInternalServerError, "racer index unavailable")
		return
	}

	events := matchQuery(state.Filter.Apply(snap.Events), state.Query)
	if events == nil {
		events = []models.Event{}
	}

	app.writeJSON(w, http.StatusOK, eventsResponse{
		GeneratedAt: snap.GeneratedAt,
		Events:      events,
	})
}

// racersAPIHandler serves racer-index search results. Queries below
// the minimum length return an empty result set, not an error.
func (app *Calendar) racersAPIHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	racers, err := app.store.Racers(r.Context())
	if err != nil {
		app.logger.Error("racer index unavailable", logging.ErrAttr(err))
		app.writeError(w, http.StatusInternalServerError, "racer index unavailable")
		return
	}

	matched := snapshot.SearchRacers(racers, query)
	if matched == nil {
		matched = []models.Racer{}
	}

	app.writeJSON(w, http.StatusOK, racersResponse{Query: query, Racers: matched})
}

func (app *Calendar) healthHandler(w http.ResponseWriter, _ *http.Request) {
	snap := app.store.Snapshot()
	app.writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Events:      len(snap.Events),
		GeneratedAt: snap.GeneratedAt,
	})
}

func (app *Calendar) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.logger.Error("failed to write json response", logging.ErrAttr(err))
	}
}

func (app *Calendar) writeError(w http.ResponseWriter, status int, msg string) {
	type errResponse struct {
		Error string `json:"error"`
	}
	app.writeJSON(w, status, errResponse{Error: msg})
}
