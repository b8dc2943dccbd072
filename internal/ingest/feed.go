package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"racecal.simsportsarena.com/internal/models"
)

const (
	fetchTimeout = 30 * time.Second

	// Recurring entries in the feed are administrative (training
	// blocks), never real races; cap expansion so a runaway rule
	// cannot flood the snapshot.
	maxOccurrences = 52
)

// RawEvent is one feed entry before enrichment: the ICS fields plus
// dates already converted to inclusive calendar days.
type RawEvent struct {
	UID         string
	Summary     string
	Description string
	URL         string
	TDName      string
	Categories  []string
	Start       models.Date
	End         models.Date
}

// Fetcher downloads feed documents with a conditional-GET disk cache:
// ETag and Last-Modified are replayed so unchanged feeds cost one 304.
type Fetcher struct {
	logger   *slog.Logger
	client   *http.Client
	cacheDir string
}

type cacheMeta struct {
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

func NewFetcher(logger *slog.Logger, cacheDir string) *Fetcher {
	return &Fetcher{
		logger:   logger,
		client:   &http.Client{Timeout: fetchTimeout},
		cacheDir: cacheDir,
	}
}

// Fetch returns the document at url, serving the cached copy on 304.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}

	meta, cached := f.readCache(url)
	if cached != nil {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		f.logger.Debug("feed unchanged", slog.String("url", url))
		return cached, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	f.writeCache(url, cacheMeta{
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, body)

	return body, nil
}

func (f *Fetcher) cachePath(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func (f *Fetcher) readCache(url string) (cacheMeta, []byte) {
	var meta cacheMeta

	base := f.cachePath(url)
	raw, err := os.ReadFile(base + ".meta.json")
	if err != nil {
		return meta, nil
	}
	if err = json.Unmarshal(raw, &meta); err != nil {
		return cacheMeta{}, nil
	}

	body, err := os.ReadFile(base + ".body")
	if err != nil {
		return cacheMeta{}, nil
	}
	return meta, body
}

func (f *Fetcher) writeCache(url string, meta cacheMeta, body []byte) {
	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		f.logger.Warn("can't create feed cache dir", logging.ErrAttr(err))
		return
	}

	base := f.cachePath(url)
	raw, _ := json.Marshal(meta)
	if err := os.WriteFile(base+".meta.json", raw, 0o644); err != nil {
		f.logger.Warn("can't write feed cache", logging.ErrAttr(err))
		return
	}
	if err := os.WriteFile(base+".body", body, 0o644); err != nil {
		f.logger.Warn("can't write feed cache", logging.ErrAttr(err))
	}
}

// ParseFeed extracts raw events from an ICS document. Recurring
// entries are expanded into individual occurrences within
// [rangeStart, rangeEnd]; entries without a usable DTSTART are
// skipped.
func ParseFeed(data []byte, rangeStart time.Time, rangeEnd time.Time) ([]RawEvent, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	var events []RawEvent
	for _, ve := range cal.Events() {
		raw, ok := parseEvent(ve)
		if !ok {
			continue
		}

		rule := propValue(ve, ical.ComponentPropertyRrule)
		if rule == "" {
			events = append(events, raw)
			continue
		}

		occurrences, err := expandRecurrence(ve, raw, rule, rangeStart, rangeEnd)
		if err != nil {
			return nil, err
		}
		events = append(events, occurrences...)
	}

	return events, nil
}

func parseEvent(ve *ical.VEvent) (RawEvent, bool) {
	start, ok := parseDateProp(ve, ical.ComponentPropertyDtStart)
	if !ok {
		return RawEvent{}, false
	}

	end, ok := parseDateProp(ve, ical.ComponentPropertyDtEnd)
	if !ok {
		end = start
	} else if isAllDay(ve.GetProperty(ical.ComponentPropertyDtEnd)) {
		// All-day DTEND is exclusive.
		end = end.AddDays(-1)
	}
	if end.Before(start) {
		end = start
	}

	location := strings.TrimSpace(propValue(ve, ical.ComponentPropertyLocation))

	return RawEvent{
		UID:         propValue(ve, ical.ComponentPropertyUniqueId),
		Summary:     propValue(ve, ical.ComponentPropertySummary),
		Description: propValue(ve, ical.ComponentPropertyDescription),
		URL:         propValue(ve, ical.ComponentPropertyUrl),
		TDName:      tdName(location),
		Categories:  categories(ve),
		Start:       start,
		End:         end,
	}, true
}

func expandRecurrence(
	ve *ical.VEvent,
	base RawEvent,
	rule string,
	rangeStart time.Time,
	rangeEnd time.Time,
) ([]RawEvent, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("parse rrule %q: %w", rule, err)
	}
	r.DTStart(time.Date(base.Start.Year(), base.Start.Month(), base.Start.Day(), 0, 0, 0, 0, time.UTC))

	var set rrule.Set
	set.RRule(r)
	for _, prop := range ve.GetProperties(ical.ComponentPropertyExdate) {
		if ex, ok := parseDateValue(prop.Value); ok {
			set.ExDate(time.Date(ex.Year(), ex.Month(), ex.Day(), 0, 0, 0, 0, time.UTC))
		}
	}

	span := base.End.DaysSince(base.Start)
	occurrences := set.Between(rangeStart, rangeEnd, true)
	if len(occurrences) > maxOccurrences {
		occurrences = occurrences[:maxOccurrences]
	}

	events := make([]RawEvent, 0, len(occurrences))
	for i, occ := range occurrences {
		ev := base
		ev.UID = fmt.Sprintf("%s-oc%d", base.UID, i+1)
		ev.Start = models.DateOf(occ)
		ev.End = ev.Start.AddDays(span)
		events = append(events, ev)
	}
	return events, nil
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	prop := ve.GetProperty(name)
	if prop == nil {
		return ""
	}
	return prop.Value
}

func categories(ve *ical.VEvent) []string {
	var cats []string
	for _, prop := range ve.GetProperties(ical.ComponentPropertyCategories) {
		for _, c := range strings.Split(prop.Value, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cats = append(cats, c)
			}
		}
	}
	return cats
}

func isAllDay(prop *ical.IANAProperty) bool {
	if prop == nil {
		return false
	}
	if vals, ok := prop.ICalParameters["VALUE"]; ok {
		for _, v := range vals {
			if v == "DATE" {
				return true
			}
		}
	}
	return !strings.Contains(prop.Value, "T")
}

func parseDateProp(ve *ical.VEvent, name ical.ComponentProperty) (models.Date, bool) {
	prop := ve.GetProperty(name)
	if prop == nil {
		return models.Date{}, false
	}
	return parseDateValue(prop.Value)
}

func parseDateValue(value string) (models.Date, bool) {
	for _, layout := range []string{"20060102", "20060102T150405Z", "20060102T150405"} {
		if t, err := time.Parse(layout, value); err == nil {
			return models.DateOf(t), true
		}
	}
	return models.Date{}, false
}

// tdName pulls the technical delegate's name out of a LOCATION field
// of the form "TD- Jane Doe". Anything else is not a TD marker.
func tdName(location string) string {
	for _, prefix := range []string{"TD-", "TD -", "TD:"} {
		if strings.HasPrefix(location, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(location, prefix))
		}
	}
	return ""
}
