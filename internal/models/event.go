package models

import (
	"strconv"
	"strings"
	"time"
)

type Status string

const (
	StatusUpcoming   Status = "upcoming"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCanceled   Status = "canceled"
)

// EventDates is an inclusive calendar-date range plus the
// human-readable form shown in the UI.
type EventDates struct {
	Start   Date   `json:"start"`
	End     Date   `json:"end"`
	Display string `json:"display,omitempty"`
}

// Valid reports whether the range honors start <= end. The layout
// engine assumes this holds; ingestion drops records that violate it.
func (d EventDates) Valid() bool {
	return !d.Start.After(d.End)
}

// Overlaps is the closed-interval test against [from, to].
func (d EventDates) Overlaps(from Date, to Date) bool {
	return !d.Start.After(to) && !d.End.Before(from)
}

func (d EventDates) Days() int {
	return d.End.DaysSince(d.Start) + 1
}

type Event struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Dates            EventDates     `json:"dates"`
	Venue            string         `json:"venue,omitempty"`
	State            string         `json:"state,omitempty"`
	Disciplines      []string       `json:"disciplines"`
	DisciplineCounts map[string]int `json:"discipline_counts,omitempty"`
	Circuit          string         `json:"circuit,omitempty"`
	Series           string         `json:"series,omitempty"`
	AgeGroups        []string       `json:"age_groups"`
	Status           Status         `json:"status"`
	PCSSConfirmed    bool           `json:"pcss_confirmed"`
	TDName           string         `json:"td_name,omitempty"`
	Description      string         `json:"description,omitempty"`
	SourceURL        string         `json:"source_url,omitempty"`
	BlogRecapURLs    []string       `json:"blog_recap_urls,omitempty"`
	ResultsURL       string         `json:"results_url,omitempty"`
}

func (e Event) Location() string {
	switch {
	case e.Venue != "" && e.State != "":
		return e.Venue + ", " + e.State
	case e.Venue != "":
		return e.Venue
	default:
		return e.State
	}
}

// DisciplineSummary renders the discipline list with counts,
// e.g. "2 GS / SL".
func (e Event) DisciplineSummary() string {
	if len(e.Disciplines) == 0 {
		return ""
	}

	parts := make([]string, 0, len(e.Disciplines))
	for _, d := range e.Disciplines {
		if n, ok := e.DisciplineCounts[d]; ok && n > 1 {
			parts = append(parts, strconv.Itoa(n)+" "+d)
			continue
		}
		parts = append(parts, d)
	}

	return strings.Join(parts, " / ")
}

type Snapshot struct {
	GeneratedAt time.Time `json:"generated_at"`
	Events      []Event   `json:"events"`
}
