package calendar

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type ViewMode string

const (
	MonthView ViewMode = "month"
	ListView  ViewMode = "list"
)

// ViewState is the complete UI state of one request: view mode,
// visible month, chip filters, racer selection and search query. It
// round-trips through URL query parameters so every state is a
// shareable link; chip navigation replaces the URL instead of pushing
// so filter churn does not pollute history.
type ViewState struct {
	View   ViewMode
	Year   int
	Month  time.Month
	Filter Filter
	// Racer is the raw selection parameter: a racer key or
	// "club:<code>".
	Racer string
	// Embed suppresses page chrome and defaults HidePast to true
	// when the past parameter is absent.
	Embed bool
	Query string
}

// DecodeViewState reads a query string into a ViewState. now anchors
// the default visible month. Unknown parameters are ignored; malformed
// month values fall back to the current month.
func DecodeViewState(values url.Values, now time.Time) ViewState {
	state := ViewState{
		View:  MonthView,
		Year:  now.Year(),
		Month: now.Month(),
	}

	if values.Get("view") == string(ListView) {
		state.View = ListView
	}

	if m := values.Get("month"); m != "" {
		if t, err := time.Parse("2006-01", m); err == nil {
			state.Year = t.Year()
			state.Month = t.Month()
		}
	}

	for _, d := range splitCSV(values.Get("discipline")) {
		state.Filter.ToggleDiscipline(d)
	}
	for _, c := range splitCSV(values.Get("circuit")) {
		state.Filter.ToggleCircuit(c)
	}
	for _, a := range splitCSV(values.Get("age")) {
		state.Filter.ToggleAgeGroup(a)
	}

	state.Filter.ConfirmedOnly = parseBool(values.Get("pcss"))

	state.Embed = parseBool(values.Get("embed"))
	if values.Has("past") {
		state.Filter.HidePast = !parseBool(values.Get("past"))
	} else if state.Embed {
		state.Filter.HidePast = true
	}

	state.Racer = values.Get("racer")
	state.Query = values.Get("q")

	return state
}

// Encode writes the state back to query parameters, omitting
// empty/default values so encode∘decode is the identity and shared
// links stay short. now anchors the month default.
func (s ViewState) Encode(now time.Time) url.Values {
	values := url.Values{}

	if s.View != MonthView {
		values.Set("view", string(s.View))
	}
	if s.Year != now.Year() || s.Month != now.Month() {
		values.Set("month", fmt.Sprintf("%04d-%02d", s.Year, s.Month))
	}

	if ds := s.Filter.Disciplines(); len(ds) > 0 {
		values.Set("discipline", strings.Join(ds, ","))
	}
	if cs := s.Filter.Circuits(); len(cs) > 0 {
		values.Set("circuit", strings.Join(cs, ","))
	}
	if as := s.Filter.AgeGroups(); len(as) > 0 {
		values.Set("age", strings.Join(as, ","))
	}
	if s.Filter.ConfirmedOnly {
		values.Set("pcss", "1")
	}

	// past=1 means "show past". The parameter only appears when the
	// state differs from the context's default.
	defaultHidePast := s.Embed
	if s.Filter.HidePast != defaultHidePast {
		if s.Filter.HidePast {
			values.Set("past", "0")
		} else {
			values.Set("past", "1")
		}
	}

	if s.Racer != "" {
		values.Set("racer", s.Racer)
	}
	if s.Embed {
		values.Set("embed", "1")
	}
	if s.Query != "" {
		values.Set("q", s.Query)
	}

	return values
}

// ClubCode returns the club code when the racer selection uses the
// "club:<code>" form.
func (s ViewState) ClubCode() (string, bool) {
	code, ok := strings.CutPrefix(s.Racer, "club:")
	if !ok || code == "" {
		return "", false
	}
	return code, true
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
