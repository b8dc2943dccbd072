package calendarapp

import (
	"fmt"
	"net/http"
)

// Routes mounts the app under prefix. The serve command calls this
// twice: once under the app name and once with an empty prefix, which
// puts the calendar at the server root.
func (app *Calendar) Routes(prefix string, mux *http.ServeMux) {
	app.templateRoutes(prefix, mux)
	app.apiRoutes(prefix, mux)
	app.icsRoutes(prefix, mux)
}

func (app *Calendar) templateRoutes(prefix string, mux *http.ServeMux) {
	mux.HandleFunc(pattern(prefix, "{$}"), app.monthHandler)
	mux.HandleFunc(pattern(prefix, "list"), app.listHandler)
	mux.HandleFunc(pattern(prefix, "search"), app.searchHandler)
}

func (app *Calendar) apiRoutes(prefix string, mux *http.ServeMux) {
	mux.HandleFunc(pattern(prefix, "api/events"), app.eventsAPIHandler)
	mux.HandleFunc(pattern(prefix, "api/racers"), app.racersAPIHandler)
	mux.HandleFunc(pattern(prefix, "health"), app.healthHandler)
}

func (app *Calendar) icsRoutes(prefix string, mux *http.ServeMux) {
	mux.HandleFunc(pattern(prefix, "export/{id}"), app.exportHandler)
	mux.HandleFunc(pattern(prefix, "feed.ics"), app.feedHandler)
}

func pattern(prefix string, suffix string) string {
	if prefix == "" {
		return "GET /" + suffix
	}
	return fmt.Sprintf("GET /%s/%s", prefix, suffix)
}
