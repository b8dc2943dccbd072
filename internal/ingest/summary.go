package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

// The SUMMARY field of the source feed packs event name, disciplines
// and venue into one dash-separated string with several format
// variations:
//
//	Standard:    "South Series- 2 GS- Snowbird"
//	No counts:   "IMD Finals- SL/GS- Park City"
//	No-space:    "WR Devo FIS-Sun Valley"
//	Canceled:    "U16 Qualifier- 3 SG- Bogus Basin-Canceled"
//	Dual venue:  "WR Elite- 2 SL/2 GS- Snowbird/Utah Olympic Park"
//	Disc in name:"YSL Kombi- Utah Olympic Park"

var (
	// Optional leading run count, with or without a space ("2 SL",
	// "2SL", "SL").
	disciplineRe = regexp.MustCompile(`(?i)\b(\d+\s*)?(SL|GS|SG|DH|PS|AC|K|Kombi)\b`)

	canceledRe = regexp.MustCompile(`(?i)[-\s]*(Canceled|Cancelled|Postponed|Rescheduled)\s*$`)
)

// ParsedSummary is the structured form of one SUMMARY string.
type ParsedSummary struct {
	Name             string
	Disciplines      []string
	DisciplineCounts map[string]int
	Venue            string
	Canceled         bool
}

// ParseSummary splits a SUMMARY string into its components. Venue
// recognition uses the normalizer's known-venue table.
func (n *Normalizer) ParseSummary(summary string) ParsedSummary {
	text := strings.TrimSpace(summary)

	canceled := false
	if m := canceledRe.FindStringIndex(text); m != nil {
		canceled = true
		text = strings.TrimRight(text[:m[0]], " ")
	}

	var segments []string
	for _, s := range strings.Split(text, "- ") {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}

	switch {
	case len(segments) >= 3:
		return n.parseThreePlus(segments, canceled)
	case len(segments) == 2:
		return n.parseTwo(segments, canceled)
	case len(segments) == 1:
		return n.parseOne(segments[0], canceled)
	default:
		return ParsedSummary{Name: text, Canceled: canceled}
	}
}

// parseThreePlus handles "Name- Disciplines- Venue" with the venue
// always last and all middle segments holding disciplines.
func (n *Normalizer) parseThreePlus(segments []string, canceled bool) ParsedSummary {
	disciplines, counts := extractDisciplines(strings.Join(segments[1:len(segments)-1], "- "))
	return ParsedSummary{
		Name:             segments[0],
		Disciplines:      disciplines,
		DisciplineCounts: counts,
		Venue:            n.NormalizeVenue(segments[len(segments)-1]),
		Canceled:         canceled,
	}
}

// parseTwo handles "Name- Venue" and "Name- Disciplines"; when the
// second segment is a known venue the discipline may live in the name
// ("YSL Kombi- Utah Olympic Park").
func (n *Normalizer) parseTwo(segments []string, canceled bool) ParsedSummary {
	name, second := segments[0], segments[1]

	if n.isKnownVenue(second) {
		disciplines, counts := extractDisciplines(name)
		return ParsedSummary{
			Name:             name,
			Disciplines:      disciplines,
			DisciplineCounts: counts,
			Venue:            n.NormalizeVenue(second),
			Canceled:         canceled,
		}
	}

	if disciplines, counts := extractDisciplines(second); len(disciplines) > 0 {
		return ParsedSummary{
			Name:             name,
			Disciplines:      disciplines,
			DisciplineCounts: counts,
			Canceled:         canceled,
		}
	}

	return ParsedSummary{
		Name:             name,
		DisciplineCounts: map[string]int{},
		Venue:            n.NormalizeVenue(second),
		Canceled:         canceled,
	}
}

// parseOne handles no-space-dash formats like "WR Devo FIS-Sun
// Valley" by probing dash-separated parts from the right for a known
// venue.
func (n *Normalizer) parseOne(text string, canceled bool) ParsedSummary {
	parts := strings.Split(text, "-")
	for i := len(parts) - 1; i >= 1; i-- {
		candidate := strings.TrimSpace(parts[i])
		normalized := n.NormalizeVenue(candidate)
		if !n.isKnownVenue(normalized) && !n.isKnownVenue(candidate) {
			continue
		}

		name := strings.TrimSpace(strings.Join(parts[:i], "-"))
		disciplines, counts := extractDisciplines(name)
		return ParsedSummary{
			Name:             name,
			Disciplines:      disciplines,
			DisciplineCounts: counts,
			Venue:            normalized,
			Canceled:         canceled,
		}
	}

	return ParsedSummary{
		Name:             text,
		DisciplineCounts: map[string]int{},
		Canceled:         canceled,
	}
}

// extractDisciplines pulls normalized discipline codes with optional
// run counts from a segment like "2 SL/2 GS" or "SL/GS".
func extractDisciplines(text string) ([]string, map[string]int) {
	var disciplines []string
	counts := map[string]int{}

	for _, part := range strings.Split(text, "/") {
		m := disciplineRe.FindStringSubmatch(strings.TrimSpace(part))
		if m == nil {
			continue
		}

		code := strings.ToUpper(m[2])
		if strings.EqualFold(m[2], "Kombi") {
			code = "K"
		}

		count := 1
		if raw := strings.TrimSpace(m[1]); raw != "" {
			count, _ = strconv.Atoi(raw)
		}

		if !contains(disciplines, code) {
			disciplines = append(disciplines, code)
		}
		counts[code] = count
	}

	return disciplines, counts
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
