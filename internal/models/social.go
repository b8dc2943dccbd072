package models

import "time"

type PostKind string

const (
	PostWeeklyPreview  PostKind = "weekly_preview"
	PostWeekendPreview PostKind = "weekend_preview"
	PostPreRace        PostKind = "pre_race"
	PostRaceDay        PostKind = "race_day"
	PostMonthly        PostKind = "monthly_calendar"
)

// PostingRecord is one append-only posting-log entry. Key is the
// dedupe handle ("pre_race:imd-14421", "weekly_preview:2026-02-09"),
// so a scheduler tick that runs twice on the same day never posts
// twice.
type PostingRecord struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Kind      PostKind  `json:"kind"`
	PostedAt  time.Time `json:"posted_at"`
	Platforms []string  `json:"platforms"`
}

type PostingLog struct {
	Posts []PostingRecord `json:"posts"`
}

func (l PostingLog) Contains(key string) bool {
	for _, record := range l.Posts {
		if record.Key == key {
			return true
		}
	}
	return false
}
