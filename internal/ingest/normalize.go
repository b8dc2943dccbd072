// Package ingest turns the upstream ICS feed, results page, blog RSS
// and manual seeds into the event snapshot the calendar serves.
package ingest

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"racecal.simsportsarena.com/internal/config"
	"racecal.simsportsarena.com/internal/models"
)

var (
	ageGroupRe          = regexp.MustCompile(`(?i)\bU(10|12|14|16|18|21)\b`)
	uidLeadingDigitsRe  = regexp.MustCompile(`^\d+`)
	eventIDRe           = regexp.MustCompile(`\d{3,}`)
	htmlTagRe           = regexp.MustCompile(`<[^>]+>`)
)

// Normalizer interprets raw feed text using the vocabulary tables
// from the sources configuration. Compile it once per refresh run.
type Normalizer struct {
	sources config.Sources

	// lowercased venue name -> canonical form
	venues map[string]string
	pcss   []*regexp.Regexp
}

func NewNormalizer(sources config.Sources) (*Normalizer, error) {
	venues := make(map[string]string, len(sources.KnownVenues))
	for _, v := range sources.KnownVenues {
		venues[strings.ToLower(v)] = v
	}

	pcss := make([]*regexp.Regexp, 0, len(sources.PCSSPatterns))
	for _, pattern := range sources.PCSSPatterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("compile pcss pattern %q: %w", pattern, err)
		}
		pcss = append(pcss, re)
	}

	return &Normalizer{
		sources: sources,
		venues:  venues,
		pcss:    pcss,
	}, nil
}

// NormalizeVenue fixes known misspellings and casing against the
// venue table. Unknown venues pass through trimmed.
func (n *Normalizer) NormalizeVenue(raw string) string {
	raw = strings.TrimSpace(raw)
	if fixed, ok := n.sources.VenueNormalize[raw]; ok {
		raw = fixed
	}
	if canonical, ok := n.venues[strings.ToLower(raw)]; ok {
		return canonical
	}
	return raw
}

func (n *Normalizer) isKnownVenue(venue string) bool {
	venue = strings.TrimSpace(venue)
	if fixed, ok := n.sources.VenueNormalize[venue]; ok {
		venue = fixed
	}
	_, ok := n.venues[strings.ToLower(venue)]
	return ok
}

// VenueState looks up the state code for a venue. Dual venues like
// "Snowbird/Utah Olympic Park" fall back to substring matching, the
// longest known venue winning.
func (n *Normalizer) VenueState(venue string) string {
	if state, ok := n.sources.VenueStates[venue]; ok {
		return state
	}

	lower := strings.ToLower(venue)
	var best, bestState string
	for known, state := range n.sources.VenueStates {
		if strings.Contains(lower, strings.ToLower(known)) && len(known) > len(best) {
			best, bestState = known, state
		}
	}
	return bestState
}

// CircuitSeries maps feed categories and the event name onto a
// circuit label and series name. Categories win over name patterns;
// within a category the longest matching key wins ("imc u16
// qualifier" beats "imc"). Feed events default to the IMD circuit.
func (n *Normalizer) CircuitSeries(name string, categories []string) (string, string) {
	circuit, series := "IMD", ""

	for _, category := range categories {
		text := strings.ToLower(strings.TrimSpace(category))

		var bestLen int
		for key, mapped := range n.sources.CategoryCircuits {
			if strings.Contains(text, key) && len(key) > bestLen {
				circuit, bestLen = mapped, len(key)
				series = strings.TrimSpace(category)
			}
		}
		if series != "" {
			break
		}
	}
	if series != "" {
		return circuit, series
	}

	nameLower := strings.ToLower(name)
	switch {
	case strings.Contains(nameLower, "south series"):
		series = "South Series"
	case strings.Contains(nameLower, "north series"):
		series = "North Series"
	case strings.Contains(nameLower, "ysl"):
		series = "YSL"
	case strings.Contains(nameLower, "imd"):
		series = "IMD"
	case strings.Contains(nameLower, "wr "), strings.Contains(nameLower, "western region"):
		circuit, series = "Western Region", "Western Region"
	case strings.Contains(nameLower, "usss"), strings.Contains(nameLower, "ussa"),
		strings.Contains(nameLower, "us ski"):
		circuit, series = "USSA", "USSA"
	case strings.Contains(nameLower, "fis"):
		circuit = "FIS"
	case strings.Contains(nameLower, "imc"):
		series = "IMC"
	case strings.Contains(nameLower, "tri divisional"):
		series = "Tri Divisionals"
	case strings.Contains(nameLower, "elite"):
		series = "Elite"
	}

	return circuit, series
}

// AgeGroups extracts explicit U-codes from the name and categories,
// falling back to keyword inference ("YSL" implies U10/U12) when none
// are stated. The result is sorted ascending.
func (n *Normalizer) AgeGroups(name string, categories []string) []string {
	seen := map[string]bool{}
	collect := func(text string) {
		for _, m := range ageGroupRe.FindAllStringSubmatch(text, -1) {
			seen["U"+m[1]] = true
		}
	}

	collect(name)
	for _, category := range categories {
		collect(category)
	}

	if len(seen) == 0 {
		haystack := strings.ToLower(name + " " + strings.Join(categories, " "))
		for keyword, groups := range n.sources.AgeGroupKeywords {
			if strings.Contains(haystack, strings.ToLower(keyword)) {
				for _, g := range groups {
					seen[g] = true
				}
			}
		}
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		// U10 < U12 < ... < U21; lexical order breaks on U8-style
		// codes but none exist in the vocabulary.
		return groups[i] < groups[j]
	})
	return groups
}

// PCSSRelevant reports whether any of the texts matches a club
// relevance pattern.
func (n *Normalizer) PCSSRelevant(texts ...string) bool {
	for _, text := range texts {
		for _, re := range n.pcss {
			if re.MatchString(text) {
				return true
			}
		}
	}
	return false
}

// StatusFor derives the lifecycle status from the date range relative
// to today. Canceled overrides everything.
func StatusFor(dates models.EventDates, canceled bool, today models.Date) models.Status {
	switch {
	case canceled:
		return models.StatusCanceled
	case today.Before(dates.Start):
		return models.StatusUpcoming
	case today.After(dates.End):
		return models.StatusCompleted
	default:
		return models.StatusInProgress
	}
}

// DisplayDates renders the range the way the UI shows it:
// "Feb 9, 2026", "Feb 9–10, 2026", "Feb 28 – Mar 1, 2026" or
// "Dec 30, 2025 – Jan 2, 2026".
func DisplayDates(dates models.EventDates) string {
	start, end := dates.Start, dates.End

	switch {
	case start.Equal(end):
		return start.Format("Jan 2, 2006")
	case start.Year() == end.Year() && start.Month() == end.Month():
		return fmt.Sprintf("%s–%d, %d", start.Format("Jan 2"), end.Day(), end.Year())
	case start.Year() == end.Year():
		return fmt.Sprintf("%s – %s, %d", start.Format("Jan 2"), end.Format("Jan 2"), end.Year())
	default:
		return fmt.Sprintf("%s – %s", start.Format("Jan 2, 2006"), end.Format("Jan 2, 2006"))
	}
}

// EventID derives the stable "imd-<digits>" id from a feed UID like
// "14421-1770595200-1770767999@imdalpine.org", falling back to the
// numeric id in the source URL. Records with neither get a slug of
// the UID so ids stay stable across refreshes.
func EventID(uid string, sourceURL string) string {
	if m := uidLeadingDigitsRe.FindString(uid); m != "" {
		return "imd-" + m
	}
	if m := eventIDRe.FindString(sourceURL); m != "" {
		return "imd-" + m
	}
	return "imd-" + slugify(uid)
}

func slugify(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "-"):
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// Generic feed labels carrying no scheduling info.
var junkDescriptionRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*Team Assignments?\s*[-–]?\s*\w*\s*$`),
	regexp.MustCompile(`(?i)^\s*Attendee List\s*$`),
	regexp.MustCompile(`(?i)RACE ANNOUNCEMENT PDF`),
}

// CleanDescription strips markup and generic feed boilerplate from a
// VEVENT description, keeping lines with real scheduling info (gender
// splits, race order). Returns "" when nothing informative remains.
func CleanDescription(raw string) string {
	text := htmlTagRe.ReplaceAllString(raw, " ")

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}

		junk := false
		for _, re := range junkDescriptionRes {
			if re.MatchString(line) {
				junk = true
				break
			}
		}
		if !junk {
			kept = append(kept, line)
		}
	}

	return strings.Join(kept, "\n")
}
