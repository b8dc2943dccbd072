package cmd

import (
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/justinas/alice"
	"github.com/xdoubleu/essentia/v2/pkg/middleware"
	calendarapp "racecal.simsportsarena.com/apps/calendar"
	"racecal.simsportsarena.com/apps/socialcards"
	"racecal.simsportsarena.com/internal/config"
	"racecal.simsportsarena.com/internal/snapshot"
)

type App interface {
	Routes(prefix string, mux *http.ServeMux)
	GetName() string
}

type Apps struct {
	apps []App
}

func (apps *Apps) Routes(mux *http.ServeMux) {
	for _, app := range apps.apps {
		app.Routes(app.GetName(), mux)
	}
}

func (apps *Apps) addApp(app App) {
	apps.apps = append(apps.apps, app)
}

type Application struct {
	logger   *slog.Logger
	config   config.Config
	store    *snapshot.Store
	apps     *Apps
	calendar *calendarapp.Calendar
}

func NewApplication(
	logger *slog.Logger,
	cfg config.Config,
	store *snapshot.Store,
) *Application {
	calendarApp := calendarapp.New(logger, cfg, store)

	apps := &Apps{
		apps: []App{},
	}
	apps.addApp(calendarApp)
	apps.addApp(socialcards.New(logger, cfg, store))

	return &Application{
		logger:   logger,
		config:   cfg,
		store:    store,
		apps:     apps,
		calendar: calendarApp,
	}
}

func (app *Application) Routes() http.Handler {
	mux := http.NewServeMux()

	app.apps.Routes(mux)

	// The calendar is the site's public face: it also answers at the
	// server root.
	app.calendar.Routes("", mux)

	var sentryClientOptions sentry.ClientOptions
	if len(app.config.SentryDsn) > 0 {
		//nolint:exhaustruct //other fields are optional
		sentryClientOptions = sentry.ClientOptions{
			Dsn:              app.config.SentryDsn,
			Environment:      app.config.Env,
			Release:          app.config.Release,
			EnableTracing:    true,
			TracesSampleRate: app.config.SampleRate,
			SampleRate:       app.config.SampleRate,
		}
	}

	allowedOrigins := []string{app.config.WebURL}
	handlers, err := middleware.DefaultWithSentry(
		app.logger,
		allowedOrigins,
		app.config.Env,
		sentryClientOptions,
	)

	if err != nil {
		panic(err)
	}

	standard := alice.New(handlers...)
	return standard.Then(mux)
}
