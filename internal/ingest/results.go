package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"racecal.simsportsarena.com/internal/models"
)

// ResultGroup is one race-results block on the results page: a header
// like "U14 South Series @ Snowbird Dec. 20-23, 2025" followed by
// links to result-sheet PDFs.
type ResultGroup struct {
	Title   string
	Venue   string
	Dates   models.EventDates
	PDFURLs []string

	// filled by MatchGroups
	EventID string
}

// Month name or abbreviation, day, optional "-day" or "- Mon day"
// continuation, year.
var resultDateRe = regexp.MustCompile(
	`([A-Z][a-z]+)\.?\s+(\d{1,2})(?:\s*[-–—]\s*(?:([A-Z][a-z]+)\.?\s+)?(\d{1,2}))?,?\s+(\d{4})`,
)

// ScrapeResults collects result groups from the division's results
// page. Headers live in <strong> tags; the PDF links follow in the
// same paragraph.
func ScrapeResults(resultsURL string) ([]ResultGroup, error) {
	c := colly.NewCollector()

	var groups []ResultGroup
	c.OnHTML("p", func(h *colly.HTMLElement) {
		header := strings.TrimSpace(h.ChildText("strong"))
		if header == "" {
			return
		}

		venue, dates, ok := ParseResultHeader(header)
		if !ok {
			return
		}

		var pdfs []string
		for _, href := range h.ChildAttrs("a[href]", "href") {
			if strings.HasSuffix(strings.ToLower(href), ".pdf") {
				pdfs = append(pdfs, h.Request.AbsoluteURL(href))
			}
		}
		if len(pdfs) == 0 {
			return
		}

		groups = append(groups, ResultGroup{
			Title:   header,
			Venue:   venue,
			Dates:   dates,
			PDFURLs: pdfs,
		})
	})

	if err := c.Visit(resultsURL); err != nil {
		return nil, err
	}

	return groups, nil
}

// ParseResultHeader splits a results header into venue and dates. The
// venue sits between "@" and the date text.
func ParseResultHeader(header string) (string, models.EventDates, bool) {
	at := strings.Index(header, "@")
	if at < 0 {
		return "", models.EventDates{}, false
	}

	rest := header[at+1:]
	m := resultDateRe.FindStringSubmatchIndex(rest)
	if m == nil {
		return "", models.EventDates{}, false
	}

	venue := strings.Trim(strings.TrimSpace(rest[:m[0]]), "-–, ")

	sub := resultDateRe.FindStringSubmatch(rest)
	dates, ok := parseHeaderDates(sub)
	if !ok {
		return "", models.EventDates{}, false
	}

	return venue, dates, true
}

func parseHeaderDates(m []string) (models.EventDates, bool) {
	year, err := strconv.Atoi(m[5])
	if err != nil {
		return models.EventDates{}, false
	}

	startMonth, ok := monthByName(m[1])
	if !ok {
		return models.EventDates{}, false
	}
	startDay, _ := strconv.Atoi(m[2])
	start := models.NewDate(year, startMonth, startDay)

	end := start
	if m[4] != "" {
		endMonth := startMonth
		if m[3] != "" {
			if endMonth, ok = monthByName(m[3]); !ok {
				return models.EventDates{}, false
			}
		}
		endDay, _ := strconv.Atoi(m[4])
		end = models.NewDate(year, endMonth, endDay)

		// "Dec. 30 - Jan 2, 2026" states the end year; the start
		// belongs to the previous one.
		if end.Before(start) {
			start = models.NewDate(year-1, startMonth, startDay)
		}
	}

	return models.EventDates{Start: start, End: end}, true
}

func monthByName(name string) (time.Month, bool) {
	name = strings.ToLower(strings.TrimSuffix(name, "."))
	for month := time.January; month <= time.December; month++ {
		full := strings.ToLower(month.String())
		if name == full || name == full[:3] {
			return month, true
		}
	}
	// The page abbreviates September as "Sept".
	if name == "sept" {
		return time.September, true
	}
	return 0, false
}

// MatchGroups pairs result groups with events by venue and date
// proximity: same normalized venue and date ranges overlapping within
// one day of slack. Matched events get their results link; matched
// groups get the event id for racer indexing.
func MatchGroups(events []models.Event, groups []ResultGroup, n *Normalizer) []models.Event {
	for gi := range groups {
		group := &groups[gi]
		venue := n.NormalizeVenue(group.Venue)

		for ei := range events {
			ev := &events[ei]
			if !strings.EqualFold(ev.Venue, venue) {
				continue
			}
			slack := models.EventDates{
				Start: group.Dates.Start.AddDays(-1),
				End:   group.Dates.End.AddDays(1),
			}
			if !ev.Dates.Overlaps(slack.Start, slack.End) {
				continue
			}

			group.EventID = ev.ID
			if ev.ResultsURL == "" {
				ev.ResultsURL = group.PDFURLs[0]
			}
			break
		}
	}

	return events
}
