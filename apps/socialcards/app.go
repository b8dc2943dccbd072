// Package socialcards serves the card pages the posting automation
// screenshots with headless Chrome: a weekend preview, a monthly
// calendar and a single-event card. The pages are not linked from the
// public chrome; they mark themselves ready for capture with
// data-ready="true".
package socialcards

import (
	"embed"
	"html/template"
	"log/slog"
	"time"

	"racecal.simsportsarena.com/internal/config"
	"racecal.simsportsarena.com/internal/snapshot"
)

//go:embed templates/html/**/*html
var htmlTemplates embed.FS

type SocialCards struct {
	logger *slog.Logger
	config config.Config
	store  *snapshot.Store
	tpl    *template.Template

	// Now anchors "today" for the weekend slate; swappable for tests.
	Now func() time.Time
}

func New(
	logger *slog.Logger,
	cfg config.Config,
	store *snapshot.Store,
) *SocialCards {
	tpl := template.Must(template.ParseFS(htmlTemplates, "templates/html/**/*.html"))

	return &SocialCards{
		logger: logger,
		config: cfg,
		store:  store,
		tpl:    tpl,
		Now:    time.Now,
	}
}

func (app *SocialCards) GetName() string {
	return "socialcards"
}
