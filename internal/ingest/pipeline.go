package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"racecal.simsportsarena.com/internal/config"
	"racecal.simsportsarena.com/internal/models"
	"racecal.simsportsarena.com/internal/snapshot"
)

// Recurrence expansion window around today.
const expandWindowDays = 365

// Options toggles the slow, network-heavy pipeline stages.
type Options struct {
	SkipResults bool
	SkipBlogs   bool
}

// Pipeline rebuilds the event snapshot and racer index from all
// sources: the ICS feeds, the manual seeds file, the results page and
// the blog RSS feed.
type Pipeline struct {
	logger  *slog.Logger
	cfg     config.Config
	sources config.Sources
	norm    *Normalizer
	fetcher *Fetcher
	scanner *PDFScanner
}

func NewPipeline(logger *slog.Logger, cfg config.Config, sources config.Sources) (*Pipeline, error) {
	norm, err := NewNormalizer(sources)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		logger:  logger,
		cfg:     cfg,
		sources: sources,
		norm:    norm,
		fetcher: NewFetcher(logger, cfg.CacheDir),
		scanner: NewPDFScanner(logger, filepath.Join(cfg.CacheDir, "result_pdfs.json")),
	}, nil
}

// Run executes one refresh and writes the snapshot (and, unless
// skipped, the racer index) atomically. The returned snapshot is the
// one written.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*models.Snapshot, error) {
	now := time.Now()
	today := models.DateOf(now)

	raws, err := p.fetchFeeds(ctx, now)
	if err != nil {
		return nil, err
	}
	p.logger.Info("feed parsed", slog.Int("entries", len(raws)))

	overrides := p.loadOverrides()

	events := p.buildEvents(raws, overrides, today)
	events = p.mergeSeeds(events, overrides, today)

	if !opts.SkipResults {
		events = p.attachResults(ctx, events)
	}
	if !opts.SkipBlogs {
		events = p.attachBlogs(ctx, events)
	}

	events = p.dropInvalid(events)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Dates.Start.Before(events[j].Dates.Start)
	})

	snap := &models.Snapshot{GeneratedAt: now, Events: events}
	if err = snapshot.Write(p.cfg.SnapshotPath, snap); err != nil {
		return nil, err
	}
	p.logger.Info("snapshot written",
		slog.String("path", p.cfg.SnapshotPath),
		slog.Int("events", len(events)),
	)

	return snap, nil
}

func (p *Pipeline) fetchFeeds(ctx context.Context, now time.Time) ([]RawEvent, error) {
	rangeStart := now.AddDate(0, 0, -expandWindowDays)
	rangeEnd := now.AddDate(0, 0, expandWindowDays)

	var raws []RawEvent
	for _, url := range []string{p.sources.FeedURL, p.sources.FeedPastURL} {
		if url == "" {
			continue
		}

		data, err := p.fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}

		parsed, err := ParseFeed(data, rangeStart, rangeEnd)
		if err != nil {
			return nil, fmt.Errorf("parse feed %s: %w", url, err)
		}
		raws = append(raws, parsed...)
	}

	return raws, nil
}

// eventOverride carries the fields of an existing snapshot record
// that a refresh must not wipe out.
type eventOverride struct {
	BlogRecapURLs []string
	ResultsURL    string
}

func (p *Pipeline) loadOverrides() map[string]eventOverride {
	overrides := map[string]eventOverride{}

	data, err := os.ReadFile(p.cfg.SnapshotPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			p.logger.Warn("can't read previous snapshot", logging.ErrAttr(err))
		}
		return overrides
	}

	var snap models.Snapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		p.logger.Warn("ignoring corrupt previous snapshot", logging.ErrAttr(err))
		return overrides
	}

	for _, ev := range snap.Events {
		if len(ev.BlogRecapURLs) > 0 || ev.ResultsURL != "" {
			overrides[ev.ID] = eventOverride{
				BlogRecapURLs: ev.BlogRecapURLs,
				ResultsURL:    ev.ResultsURL,
			}
		}
	}
	return overrides
}

func (p *Pipeline) buildEvents(
	raws []RawEvent,
	overrides map[string]eventOverride,
	today models.Date,
) []models.Event {
	seen := map[string]bool{}
	events := make([]models.Event, 0, len(raws))

	for _, raw := range raws {
		id := EventID(raw.UID, raw.URL)
		if seen[id] {
			continue
		}
		seen[id] = true

		parsed := p.norm.ParseSummary(raw.Summary)
		circuit, series := p.norm.CircuitSeries(parsed.Name, raw.Categories)
		dates := models.EventDates{Start: raw.Start, End: raw.End}
		dates.Display = DisplayDates(dates)

		ev := models.Event{
			ID:               id,
			Name:             displayName(raw.Summary),
			Dates:            dates,
			Venue:            parsed.Venue,
			State:            p.norm.VenueState(parsed.Venue),
			Disciplines:      parsed.Disciplines,
			DisciplineCounts: parsed.DisciplineCounts,
			Circuit:          circuit,
			Series:           series,
			AgeGroups:        p.norm.AgeGroups(parsed.Name, raw.Categories),
			Status:           StatusFor(dates, parsed.Canceled, today),
			PCSSConfirmed:    p.norm.PCSSRelevant(raw.Summary, raw.Description),
			TDName:           raw.TDName,
			Description:      CleanDescription(raw.Description),
			SourceURL:        raw.URL,
		}

		applyOverride(&ev, overrides)
		events = append(events, ev)
	}

	return events
}

// displayName is the raw SUMMARY minus a trailing canceled marker.
func displayName(summary string) string {
	text := strings.TrimSpace(summary)
	if m := canceledRe.FindStringIndex(text); m != nil {
		text = strings.TrimRight(text[:m[0]], " ")
	}
	return text
}

// mergeSeeds appends manually curated events, skipping ones the feed
// already carries (matched by name plus start date, or by id).
func (p *Pipeline) mergeSeeds(
	events []models.Event,
	overrides map[string]eventOverride,
	today models.Date,
) []models.Event {
	seeds, err := loadSeeds(p.sources.SeedsPath)
	if err != nil {
		p.logger.Warn("can't load seeds", logging.ErrAttr(err))
		return events
	}

	type key struct {
		name  string
		start string
	}
	feedKeys := map[key]bool{}
	ids := map[string]bool{}
	for _, ev := range events {
		feedKeys[key{ev.Name, ev.Dates.Start.String()}] = true
		ids[ev.ID] = true
	}

	for _, seed := range seeds {
		if feedKeys[key{seed.Name, seed.Dates.Start.String()}] || ids[seed.ID] {
			continue
		}
		ids[seed.ID] = true

		seed.Dates.Display = DisplayDates(seed.Dates)
		seed.Status = StatusFor(seed.Dates, false, today)
		applyOverride(&seed, overrides)
		events = append(events, seed)
	}

	return events
}

func loadSeeds(path string) ([]models.Event, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var seeds []models.Event
	if err = json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("parse seeds %s: %w", path, err)
	}
	return seeds, nil
}

func applyOverride(ev *models.Event, overrides map[string]eventOverride) {
	override, ok := overrides[ev.ID]
	if !ok {
		return
	}
	if len(ev.BlogRecapURLs) == 0 {
		ev.BlogRecapURLs = override.BlogRecapURLs
	}
	if ev.ResultsURL == "" {
		ev.ResultsURL = override.ResultsURL
	}
}

// attachResults scrapes the results page, links result sheets to
// events and rebuilds the racer index. Failures degrade to the feed
// data instead of aborting the refresh.
func (p *Pipeline) attachResults(ctx context.Context, events []models.Event) []models.Event {
	groups, err := ScrapeResults(p.sources.ResultsURL)
	if err != nil {
		p.logger.Warn("results scrape failed", logging.ErrAttr(err))
		return events
	}
	p.logger.Info("results scraped", slog.Int("groups", len(groups)))

	events = MatchGroups(events, groups, p.norm)

	racers := BuildRacerIndex(ctx, p.logger, p.scanner, groups)
	if err = p.scanner.Save(); err != nil {
		p.logger.Warn("can't save pdf cache", logging.ErrAttr(err))
	}
	if len(racers) > 0 {
		if err = snapshot.WriteRacerIndex(p.cfg.RacerIndexPath, racers); err != nil {
			p.logger.Warn("can't write racer index", logging.ErrAttr(err))
		} else {
			p.logger.Info("racer index written", slog.Int("racers", len(racers)))
		}
	}

	// Result sheets confirm club attendance independent of the feed
	// text.
	for _, group := range groups {
		if group.EventID == "" {
			continue
		}
		for i := range events {
			if events[i].ID != group.EventID || events[i].PCSSConfirmed {
				continue
			}
			for _, pdfURL := range group.PDFURLs {
				text, err := p.scanner.Text(ctx, pdfURL)
				if err != nil {
					continue
				}
				if p.norm.PCSSRelevant(text) {
					events[i].PCSSConfirmed = true
					break
				}
			}
		}
	}

	return events
}

func (p *Pipeline) attachBlogs(ctx context.Context, events []models.Event) []models.Event {
	posts, err := FetchBlogPosts(ctx, p.sources.BlogRSSURL)
	if err != nil {
		p.logger.Warn("blog rss fetch failed", logging.ErrAttr(err))
		return events
	}
	p.logger.Info("blog posts fetched", slog.Int("posts", len(posts)))

	return LinkBlogPosts(events, posts, VenueSlugMap(p.sources))
}

// dropInvalid rejects records whose dates are inverted; the layout
// engine requires start <= end.
func (p *Pipeline) dropInvalid(events []models.Event) []models.Event {
	kept := events[:0]
	for _, ev := range events {
		if !ev.Dates.Valid() {
			p.logger.Warn("dropping event with invalid date range",
				slog.String("id", ev.ID),
				slog.String("start", ev.Dates.Start.String()),
				slog.String("end", ev.Dates.End.String()),
			)
			continue
		}
		kept = append(kept, ev)
	}
	return kept
}
