package ingest

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"racecal.simsportsarena.com/internal/models"
)

// Result sheets print one racer per line: rank, bib, NAT code, then
// "Lastname, Firstname YYYY CLUB COUNTRY". The rank column is
// sometimes absent and the country token often is.
var (
	racerRowRe = regexp.MustCompile(
		`(?m)^\s*\d{1,4}\s+(?:\d{1,4}\s+)?[A-Z]\d{5,10}\s+` +
			`([A-Za-z][A-Za-z'\-]+),\s*([A-Za-z][A-Za-z'\-]+)` +
			`\s+\d{4}\s+([A-Z]{2,6})(?:\s+([A-Z]{2,3}))?`,
	)
	racerNameRe = regexp.MustCompile(
		`(?m)^\s*\d{1,4}\s+(?:\d{1,4}\s+)?[A-Z]\d{5,10}\s+` +
			`([A-Za-z][A-Za-z'\-]+),\s*([A-Za-z][A-Za-z'\-]+)`,
	)
)

// Tokens after the birth year that are countries, not clubs.
var countryCodes = map[string]bool{
	"USA": true, "CAN": true, "GBR": true, "AUS": true, "NZL": true,
	"GER": true, "FRA": true, "SUI": true, "AUT": true, "ITA": true,
	"NOR": true, "SWE": true, "FIN": true, "JPN": true, "KOR": true,
	"CHN": true, "MEX": true, "ESP": true, "NED": true, "POL": true,
	"CZE": true, "SVK": true, "SLO": true, "CRO": true, "IRL": true,
	"AND": true, "LIE": true, "MON": true, "EST": true, "LAT": true,
}

// Capitalized sheet vocabulary that the row pattern would otherwise
// read as a last name.
var headerWords = map[string]bool{
	"OFFICIAL": true, "RESULTS": true, "SLALOM": true, "GIANT": true,
	"SUPER": true, "DOWNHILL": true, "COMBINED": true, "PARALLEL": true,
	"KOMBI": true, "ALPINE": true, "DISQUALIFIED": true, "NOT": true,
	"DID": true, "DNS": true, "DNF": true, "DSQ": true, "RACE": true,
	"JURY": true, "TECHNICAL": true, "COURSE": true, "WEATHER": true,
	"FORERUNNERS": true, "NUMBER": true, "PENALTY": true,
	"CALCULATION": true, "INTERNATIONAL": true, "FEDERATION": true,
	"INTERMOUNTAIN": true, "DIVISION": true, "NORTH": true,
	"SOUTH": true, "SERIES": true, "FINAL": true, "CHAMPIONSHIP": true,
	"CHAMPIONSHIPS": true, "QUALIFIER": true, "START": true,
	"FINISH": true, "TIME": true, "TOTAL": true, "DIFF": true,
	"RANK": true, "BIB": true, "NAME": true, "TEAM": true, "RUN": true,
	"STATE": true, "CLUB": true, "CLASS": true, "SEED": true,
	"POINTS": true,
}

// racerRow is one parsed result line; Club is "" when the sheet only
// printed a country.
type racerRow struct {
	Name string
	Key  string
	Club string
}

// parseRacerRows extracts unique racers from result-sheet text. The
// extended pattern with club extraction runs first; a name-only
// fallback picks up lines it missed.
func parseRacerRows(text string) []racerRow {
	seen := map[string]bool{}
	matched := map[int]bool{}
	var rows []racerRow

	for _, m := range racerRowRe.FindAllStringSubmatchIndex(text, -1) {
		matched[m[0]] = true

		last := text[m[2]:m[3]]
		first := text[m[4]:m[5]]
		token3 := text[m[6]:m[7]]
		token4 := ""
		if m[8] >= 0 {
			token4 = text[m[8]:m[9]]
		}

		if !validName(last, first) {
			continue
		}

		club := token3
		// With only one trailing token, a country code means the club
		// column was absent.
		if token4 == "" && countryCodes[token3] {
			club = ""
		}

		name := normalizeName(last, first)
		key := strings.ToLower(name)
		if !seen[key] {
			seen[key] = true
			rows = append(rows, racerRow{Name: name, Key: key, Club: club})
		}
	}

	for _, m := range racerNameRe.FindAllStringSubmatchIndex(text, -1) {
		if matched[m[0]] {
			continue
		}

		last := text[m[2]:m[3]]
		first := text[m[4]:m[5]]
		if !validName(last, first) {
			continue
		}

		name := normalizeName(last, first)
		key := strings.ToLower(name)
		if !seen[key] {
			seen[key] = true
			rows = append(rows, racerRow{Name: name, Key: key})
		}
	}

	return rows
}

func validName(last string, first string) bool {
	if headerWords[strings.ToUpper(last)] || headerWords[strings.ToUpper(first)] {
		return false
	}
	return len(last) >= 2 && len(first) >= 2
}

// normalizeName converts sheet casing to "Firstname Lastname",
// keeping apostrophes and hyphens intact ("O'BRIEN" becomes
// "O'Brien").
func normalizeName(last string, first string) string {
	return titlePart(first) + " " + titlePart(last)
}

func titlePart(s string) string {
	var b strings.Builder
	capitalize := true
	for _, r := range strings.ToLower(s) {
		if r == '\'' || r == '-' {
			b.WriteRune(r)
			capitalize = true
			continue
		}
		if capitalize {
			b.WriteString(strings.ToUpper(string(r)))
			capitalize = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// BuildRacerIndex scans the PDFs of matched result groups and
// aggregates racers across events: each racer keeps every event they
// appear in and the club code their sheets print most often.
func BuildRacerIndex(
	ctx context.Context,
	logger *slog.Logger,
	scanner *PDFScanner,
	groups []ResultGroup,
) []models.Racer {
	type entry struct {
		name     string
		eventIDs map[string]bool
		clubs    map[string]int
	}
	index := map[string]*entry{}

	for _, group := range groups {
		if group.EventID == "" {
			continue
		}

		for _, pdfURL := range group.PDFURLs {
			text, err := scanner.Text(ctx, pdfURL)
			if err != nil {
				logger.Warn("skipping result pdf",
					slog.String("url", pdfURL), logging.ErrAttr(err))
				continue
			}

			for _, row := range parseRacerRows(text) {
				e, ok := index[row.Key]
				if !ok {
					e = &entry{
						name:     row.Name,
						eventIDs: map[string]bool{},
						clubs:    map[string]int{},
					}
					index[row.Key] = e
				}
				e.eventIDs[group.EventID] = true
				if row.Club != "" {
					e.clubs[row.Club]++
				}
			}
		}
	}

	racers := make([]models.Racer, 0, len(index))
	for key, e := range index {
		ids := make([]string, 0, len(e.eventIDs))
		for id := range e.eventIDs {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		racers = append(racers, models.Racer{
			Name:     e.name,
			Key:      key,
			Club:     mostCommon(e.clubs),
			EventIDs: ids,
		})
	}

	sort.Slice(racers, func(i, j int) bool { return racers[i].Key < racers[j].Key })
	return racers
}

func mostCommon(counts map[string]int) string {
	var best string
	var bestCount int
	for club, count := range counts {
		if count > bestCount || (count == bestCount && club < best) {
			best, bestCount = club, count
		}
	}
	return best
}
