package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"racecal.simsportsarena.com/internal/models"
)

// MinQueryLength bounds the result set: shorter queries would render
// most of the index on the first keystroke.
const MinQueryLength = 2

// Racers returns the racer index, loading it on first use. Concurrent
// first calls are collapsed into one load: the winner reads the file,
// the losers wait for its result. A failed load is terminal for the
// store; callers surface it as a failed-to-load state without
// retrying.
func (s *Store) Racers(ctx context.Context) ([]models.Racer, error) {
	s.mu.Lock()
	if s.racersLoaded {
		racers, err := s.racers, s.racersErr
		s.mu.Unlock()
		return racers, err
	}

	if s.racersWait != nil {
		// A load is in flight; wait for the winner.
		wait := s.racersWait
		s.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		s.mu.Lock()
		racers, err := s.racers, s.racersErr
		s.mu.Unlock()
		return racers, err
	}

	wait := make(chan struct{})
	s.racersWait = wait
	s.mu.Unlock()

	racers, err := loadRacerIndex(s.racerPath)

	s.mu.Lock()
	s.racers = racers
	s.racersErr = err
	s.racersLoaded = true
	s.racersWait = nil
	close(wait)
	s.mu.Unlock()

	return racers, err
}

func loadRacerIndex(path string) ([]models.Racer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read racer index: %w", err)
	}

	var racers []models.Racer
	if err = json.Unmarshal(data, &racers); err != nil {
		return nil, fmt.Errorf("parse racer index %s: %w", path, err)
	}
	return racers, nil
}

// SearchRacers matches by case-insensitive name substring. Queries
// shorter than MinQueryLength return nothing.
func SearchRacers(racers []models.Racer, query string) []models.Racer {
	query = strings.ToLower(strings.TrimSpace(query))
	if len(query) < MinQueryLength {
		return nil
	}

	var matched []models.Racer
	for _, racer := range racers {
		if strings.Contains(strings.ToLower(racer.Name), query) {
			matched = append(matched, racer)
		}
	}
	return matched
}

// RacerByKey finds one racer by its stable key.
func RacerByKey(racers []models.Racer, key string) (models.Racer, bool) {
	for _, racer := range racers {
		if racer.Key == key {
			return racer, true
		}
	}
	return models.Racer{}, false
}

// ClubEventIDs collects the union of event ids for a club code
// (exact, case-insensitive match).
func ClubEventIDs(racers []models.Racer, club string) []string {
	seen := map[string]bool{}
	var ids []string
	for _, racer := range racers {
		if !strings.EqualFold(racer.Club, club) {
			continue
		}
		for _, id := range racer.EventIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}
