// Package calendarapp is the public face of the race calendar: the
// month and list views, racer search, the JSON API and the ICS
// export/feed endpoints. It renders exclusively from the snapshot
// store; no request ever triggers ingestion work.
package calendarapp

import (
	"embed"
	"html/template"
	"log/slog"
	"time"
	_ "time/tzdata"

	"racecal.simsportsarena.com/internal/config"
	"racecal.simsportsarena.com/internal/snapshot"
)

//go:embed templates/html/**/*html
var htmlTemplates embed.FS

type Calendar struct {
	logger *slog.Logger
	config config.Config
	store  *snapshot.Store
	tpl    *template.Template

	// Now anchors "today" for the default visible month; swappable
	// for tests.
	Now func() time.Time
}

func New(
	logger *slog.Logger,
	cfg config.Config,
	store *snapshot.Store,
) *Calendar {
	tpl := template.Must(template.ParseFS(htmlTemplates, "templates/html/**/*.html"))

	return &Calendar{
		logger: logger,
		config: cfg,
		store:  store,
		tpl:    tpl,
		Now:    time.Now,
	}
}

func (app *Calendar) GetName() string {
	return "calendar"
}
