// Package ics renders race events as RFC 5545 calendar objects: a
// single-event export and the subscribable feed.
package ics

import (
	"fmt"
	"strings"
	"time"

	"racecal.simsportsarena.com/internal/models"
)

const (
	prodID       = "-//Sim Sports Arena//Race Calendar//EN"
	calendarName = "IMD Youth Ski Race Calendar"
	uidDomain    = "simsportsarena.com"

	// RFC 5545 §3.1: content lines fold at 75 octets.
	foldWidth = 75
)

// Event renders one event as a complete VCALENDAR for download.
// generatedAt stamps DTSTAMP so repeated exports of the same snapshot
// are byte-identical.
func Event(ev models.Event, generatedAt time.Time) string {
	var b builder
	b.line("BEGIN:VCALENDAR")
	b.line("VERSION:2.0")
	b.line("PRODID:" + prodID)
	writeEvent(&b, ev, generatedAt)
	b.line("END:VCALENDAR")
	return b.String()
}

// Feed renders the subscribable calendar for a (filtered) event list.
// ttl becomes the published refresh hint.
func Feed(events []models.Event, generatedAt time.Time, ttl time.Duration) string {
	var b builder
	b.line("BEGIN:VCALENDAR")
	b.line("VERSION:2.0")
	b.line("PRODID:" + prodID)
	b.line("CALSCALE:GREGORIAN")
	b.line("METHOD:PUBLISH")
	b.line("X-WR-CALNAME:" + escape(calendarName))
	b.line("REFRESH-INTERVAL;VALUE=DURATION:" + isoDuration(ttl))
	b.line("X-PUBLISHED-TTL:" + isoDuration(ttl))
	for _, ev := range events {
		writeEvent(&b, ev, generatedAt)
	}
	b.line("END:VCALENDAR")
	return b.String()
}

func writeEvent(b *builder, ev models.Event, generatedAt time.Time) {
	b.line("BEGIN:VEVENT")
	b.line(fmt.Sprintf("UID:%s@%s", ev.ID, uidDomain))
	b.line("DTSTAMP:" + generatedAt.UTC().Format("20060102T150405Z"))

	// All-day convention: DTEND is exclusive, one past the inclusive
	// end date.
	b.line("DTSTART;VALUE=DATE:" + ev.Dates.Start.Format("20060102"))
	b.line("DTEND;VALUE=DATE:" + ev.Dates.End.AddDays(1).Format("20060102"))

	b.line("SUMMARY:" + escape(ev.Name))
	if location := ev.Location(); location != "" {
		b.line("LOCATION:" + escape(location))
	}
	if description := description(ev); description != "" {
		b.line("DESCRIPTION:" + escape(description))
	}
	if ev.Status == models.StatusCanceled {
		b.line("STATUS:CANCELLED")
	}
	if ev.SourceURL != "" {
		b.line("URL:" + escape(ev.SourceURL))
	}

	if ev.Status == models.StatusUpcoming {
		b.line("BEGIN:VALARM")
		b.line("TRIGGER:-P1D")
		b.line("ACTION:DISPLAY")
		b.line("DESCRIPTION:" + escape(ev.Name))
		b.line("END:VALARM")
	}

	b.line("END:VEVENT")
}

func description(ev models.Event) string {
	var parts []string
	if summary := ev.DisciplineSummary(); summary != "" {
		parts = append(parts, "Disciplines: "+summary)
	}
	if ev.Circuit != "" {
		parts = append(parts, "Circuit: "+ev.Circuit)
	}
	if len(ev.AgeGroups) > 0 {
		parts = append(parts, "Age groups: "+strings.Join(ev.AgeGroups, ", "))
	}
	if ev.SourceURL != "" {
		parts = append(parts, ev.SourceURL)
	}
	return strings.Join(parts, "\n")
}

// escape applies RFC 5545 §3.3.11 TEXT escaping.
func escape(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\r\n", `\n`,
		"\n", `\n`,
	)
	return replacer.Replace(text)
}

// builder accumulates folded CRLF content lines.
type builder struct {
	out strings.Builder
}

func (b *builder) line(content string) {
	for _, folded := range fold(content) {
		b.out.WriteString(folded)
		b.out.WriteString("\r\n")
	}
}

func (b *builder) String() string {
	return b.out.String()
}

// fold splits a content line at the 75-octet limit, breaking only on
// rune boundaries; continuation lines start with one space.
func fold(line string) []string {
	if len(line) <= foldWidth {
		return []string{line}
	}

	var lines []string
	width, start, limit := 0, 0, foldWidth
	for i, r := range line {
		size := len(string(r))
		if width+size > limit {
			lines = append(lines, line[start:i])
			start = i
			width = 0
			// Continuation lines lose one octet to the leading space.
			limit = foldWidth - 1
		}
		width += size
	}
	lines = append(lines, line[start:])

	for i := 1; i < len(lines); i++ {
		lines[i] = " " + lines[i]
	}
	return lines
}

// isoDuration renders a duration in the RFC 5545 DURATION form used
// by refresh hints ("PT12H", "PT90M").
func isoDuration(d time.Duration) string {
	if d <= 0 {
		return "PT12H"
	}
	if d%time.Hour == 0 {
		return fmt.Sprintf("PT%dH", int(d/time.Hour))
	}
	return fmt.Sprintf("PT%dM", int(d/time.Minute))
}
