// Package social drives the club's posting automation: captions,
// the posting schedule, card capture and the Meta Graph API client.
package social

import (
	"fmt"
	"regexp"
	"strings"

	"racecal.simsportsarena.com/internal/models"
)

// CaptionSet carries one caption per destination; Short doubles as
// the blog intro line.
type CaptionSet struct {
	Instagram string
	Facebook  string
	Short     string
}

var (
	titleSplitRe = regexp.MustCompile(`\s*-\s*`)
	yearSuffixRe = regexp.MustCompile(`,?\s*\d{4}$`)
	venueCleanRe = regexp.MustCompile(`[.\-/]`)
)

// EventTitle strips the discipline and venue suffixes from a packed
// event name: "South Series- 2 GS- Snowbird" becomes "South Series".
func EventTitle(ev models.Event) string {
	parts := titleSplitRe.Split(ev.Name, -1)
	if len(parts) == 0 {
		return ev.Name
	}
	return strings.TrimSpace(parts[0])
}

// FormatDisciplines renders discipline counts as "1x SL, 2x GS",
// collapsing single runs to the bare code.
func FormatDisciplines(ev models.Event) string {
	if len(ev.Disciplines) == 0 {
		return ""
	}

	parts := make([]string, 0, len(ev.Disciplines))
	for _, d := range ev.Disciplines {
		if count := ev.DisciplineCounts[d]; count > 1 {
			parts = append(parts, fmt.Sprintf("%dx %s", count, d))
			continue
		}
		parts = append(parts, d)
	}
	return strings.Join(parts, ", ")
}

// VenueHashtag turns a venue name into a hashtag: "Utah Olympic
// Park" becomes "#UtahOlympicPark", "Mt. Bachelor" "#MtBachelor".
func VenueHashtag(venue string) string {
	if venue == "" || venue == "TBD" {
		return ""
	}

	var b strings.Builder
	for _, word := range strings.Fields(venueCleanRe.ReplaceAllString(venue, " ")) {
		b.WriteString(strings.ToUpper(word[:1]))
		b.WriteString(strings.ToLower(word[1:]))
	}
	return "#" + b.String()
}

func hashtags(ev models.Event) string {
	var tags []string
	if ev.Circuit != "" {
		tags = append(tags, "#"+strings.ReplaceAll(ev.Circuit, " ", "")+"Alpine")
	}
	tags = append(tags, "#YouthSkiRacing")
	if tag := VenueHashtag(ev.Venue); tag != "" {
		tags = append(tags, tag)
	}
	tags = append(tags, "#PCSkiRacing")
	return strings.Join(tags, " ")
}

// recapVenue reports whether another completed event at the same
// venue already has a blog recap worth pointing readers to.
func recapVenue(ev models.Event, all []models.Event) string {
	if ev.Venue == "" || ev.Venue == "TBD" {
		return ""
	}
	for _, other := range all {
		if other.ID != ev.ID && other.Venue == ev.Venue &&
			other.Status == models.StatusCompleted && len(other.BlogRecapURLs) > 0 {
			return ev.Venue
		}
	}
	return ""
}

// PreRaceCaptions builds the two-days-out announcement for an event.
// all supplies historical context (past recaps at the same venue).
func PreRaceCaptions(ev models.Event, all []models.Event) CaptionSet {
	title := EventTitle(ev)
	location := ev.Location()

	var discLine string
	if disciplines := FormatDisciplines(ev); disciplines != "" {
		discLine = " featuring " + disciplines
	}
	var ageLine string
	if len(ev.AgeGroups) > 0 {
		ageLine = " for " + strings.Join(ev.AgeGroups, ", ") + " athletes"
	}
	var recapLine string
	if venue := recapVenue(ev, all); venue != "" {
		recapLine = fmt.Sprintf("\n\nCheck out our recap from the last race at %s!", venue)
	}

	short := fmt.Sprintf("%s at %s (%s)%s%s.",
		title, location, ev.Dates.Display, discLine, ageLine)

	return CaptionSet{
		Instagram: fmt.Sprintf("This weekend: %s at %s (%s).%s%s.%s\n\n%s",
			title, location, ev.Dates.Display, discLine, ageLine, recapLine, hashtags(ev)),
		Facebook: fmt.Sprintf(
			"Coming up: %s takes place at %s, %s.%s%s.%s\n\nGood luck to all athletes competing!",
			title, location, ev.Dates.Display, discLine, ageLine, recapLine),
		Short: short,
	}
}

// RaceDayCaptions builds the morning-of post for an event.
func RaceDayCaptions(ev models.Event) CaptionSet {
	title := EventTitle(ev)
	location := ev.Location()

	return CaptionSet{
		Instagram: fmt.Sprintf(
			"It's race day! %s is underway at %s. Good luck to all athletes!\n\n#RaceDay %s",
			title, location, hashtags(ev)),
		Facebook: fmt.Sprintf(
			"It's race day! %s is underway at %s. Good luck to all athletes competing today!",
			title, location),
		Short: fmt.Sprintf("Race day: %s at %s.", title, location),
	}
}

// summarizeEvents builds the comma-separated listing used by the
// weekly and weekend previews, with years stripped for compactness.
func summarizeEvents(events []models.Event) string {
	parts := make([]string, 0, len(events))
	for _, ev := range events {
		compact := strings.TrimSpace(yearSuffixRe.ReplaceAllString(ev.Dates.Display, ""))
		if ev.Venue != "" {
			parts = append(parts, fmt.Sprintf("%s at %s (%s)", EventTitle(ev), ev.Venue, compact))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", EventTitle(ev), compact))
	}
	return strings.Join(parts, ", ")
}

// WeeklyCaptions summarizes the Monday-to-Sunday slate.
func WeeklyCaptions(events []models.Event) CaptionSet {
	if len(events) == 0 {
		return CaptionSet{}
	}

	summary := "This week in PC ski racing: " + summarizeEvents(events) + "."
	return CaptionSet{
		Instagram: summary + "\n\n#PCSkiRacing #IMDAlpine #YouthSkiRacing",
		Facebook:  summary + "\n\nGood luck to all athletes competing this week!",
		Short:     summary,
	}
}

// WeekendCaptions summarizes the Friday-to-Sunday slate.
func WeekendCaptions(events []models.Event) CaptionSet {
	if len(events) == 0 {
		return CaptionSet{}
	}

	summary := "This weekend in PC ski racing: " + summarizeEvents(events) + "."
	return CaptionSet{
		Instagram: summary + "\n\n#PCSkiRacing #IMDAlpine #YouthSkiRacing #WeekendRacing",
		Facebook:  summary + "\n\nGood luck to all athletes racing this weekend!",
		Short:     summary,
	}
}
