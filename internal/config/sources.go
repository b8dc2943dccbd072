package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Sources carries everything the ingestion pipeline needs to know
// about the outside world: feed URLs, the vocabulary tables used to
// interpret SUMMARY strings, and the social posting schedule. Loaded
// from sources.yml; a missing file falls back to the built-in
// defaults so a fresh checkout works without configuration.
type Sources struct {
	FeedURL     string `yaml:"feed_url"`
	FeedPastURL string `yaml:"feed_past_url"`
	ResultsURL  string `yaml:"results_url"`
	BlogRSSURL  string `yaml:"blog_rss_url"`
	SeedsPath   string `yaml:"seeds_path"`

	KnownVenues      []string          `yaml:"known_venues"`
	VenueNormalize   map[string]string `yaml:"venue_normalize"`
	VenueStates      map[string]string `yaml:"venue_states"`
	VenueSlugAliases map[string]string `yaml:"venue_slug_aliases"`

	CategoryCircuits map[string]string   `yaml:"category_circuits"`
	AgeGroupKeywords map[string][]string `yaml:"age_group_keywords"`
	PCSSPatterns     []string            `yaml:"pcss_patterns"`

	Schedule Schedule `yaml:"schedule"`
}

// Schedule holds cron expressions for the social posting kinds plus
// the pre-race lead time in days.
type Schedule struct {
	WeeklyPreview  string `yaml:"weekly_preview"`
	WeekendPreview string `yaml:"weekend_preview"`
	PreRaceDays    int    `yaml:"pre_race_days"`
}

// LoadSources reads path, filling unset fields from the defaults.
func LoadSources(path string) (Sources, error) {
	sources := DefaultSources()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return sources, nil
	}
	if err != nil {
		return sources, fmt.Errorf("read sources: %w", err)
	}

	if err = yaml.Unmarshal(data, &sources); err != nil {
		return sources, fmt.Errorf("parse sources %s: %w", path, err)
	}

	return sources, nil
}

// DefaultSources returns the built-in configuration for the IMD
// Alpine feed and the PCSS vocabulary.
func DefaultSources() Sources {
	return Sources{
		FeedURL:     "https://imdalpine.org/?post_type=tribe_events&ical=1&eventDisplay=list",
		FeedPastURL: "https://imdalpine.org/?post_type=tribe_events&ical=1&eventDisplay=past",
		ResultsURL:  "https://imdalpine.org/race-results/",
		BlogRSSURL:  "https://www.simsportsarena.com/blog-feed.xml",
		SeedsPath:   "data/ussa_manual_events.json",

		KnownVenues: []string{
			"Utah Olympic Park",
			"Bogus Basin",
			"Tamarack",
			"Snowbird",
			"Sun Valley",
			"Sundance",
			"Park City",
			"Grand Targhee",
			"Snowbasin",
			"Palisades Tahoe",
			"Palisades",
			"Jackson Hole",
			"Mission Ridge",
			"Mt. Bachelor",
			"Snow King",
			"Beaver Mountain",
			"Brighton",
			"Soldier Mountain",
			"Brundage",
			"Schweitzer",
			"Red Lodge",
			"Big Sky",
			"Whitefish",
			"Lookout Pass",
			"Silver Mountain",
		},
		VenueNormalize: map[string]string{
			"Palisaides": "Palisades",
			"Snowking":   "Snow King",
			"SnowKing":   "Snow King",
			"snowking":   "Snow King",
		},
		VenueStates: map[string]string{
			"Utah Olympic Park": "UT",
			"Snowbird":          "UT",
			"Park City":         "UT",
			"Sundance":          "UT",
			"Snowbasin":         "UT",
			"Brighton":          "UT",
			"Beaver Mountain":   "UT",
			"Soldier Mountain":  "ID",
			"Bogus Basin":       "ID",
			"Tamarack":          "ID",
			"Brundage":          "ID",
			"Sun Valley":        "ID",
			"Schweitzer":        "ID",
			"Lookout Pass":      "ID",
			"Silver Mountain":   "ID",
			"Grand Targhee":     "WY",
			"Jackson Hole":      "WY",
			"Snow King":         "WY",
			"Palisades Tahoe":   "CA",
			"Palisades":         "CA",
			"Mission Ridge":     "WA",
			"Mt. Bachelor":      "OR",
			"Red Lodge":         "MT",
			"Big Sky":           "MT",
			"Whitefish":         "MT",
		},
		VenueSlugAliases: map[string]string{
			"uop":         "Utah Olympic Park",
			"jhmr":        "Jackson Hole",
			"mt-bachelor": "Mt. Bachelor",
		},

		CategoryCircuits: map[string]string{
			"south series":      "IMD",
			"north series":      "IMD",
			"imd u14":           "IMD",
			"imd u16":           "IMD",
			"imc u16 qualifier": "IMD",
			"imc u14 qualifier": "IMD",
			"imd champs":        "IMD",
			"imd finals":        "IMD",
			"ysl":               "IMD",
			"tri divisional":    "IMD",
			"tri divisionals":   "IMD",
			"western region":    "Western Region",
			"wr":                "Western Region",
			"fis":               "FIS",
			"ussa":              "USSA",
			"usss":              "USSA",
			"us ski":            "USSA",
		},
		AgeGroupKeywords: map[string][]string{
			"YSL":       {"U10", "U12"},
			"IMC":       {"U14", "U16"},
			"Devo":      {"U16", "U18", "U21"},
			"NJR":       {"U16", "U18", "U21"},
			"FIS":       {"U16", "U18", "U21"},
			"Nationals": {"U16"},
		},
		PCSSPatterns: []string{
			`\bPCSS\b`,
			`\bPark City\b`,
			`\bPark City SS\b`,
			`\bPark City Ski\b`,
		},

		Schedule: Schedule{
			WeeklyPreview:  "0 9 * * MON",
			WeekendPreview: "0 9 * * THU",
			PreRaceDays:    2,
		},
	}
}
