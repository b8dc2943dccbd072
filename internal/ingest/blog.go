package ingest

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"
	"racecal.simsportsarena.com/internal/config"
	"racecal.simsportsarena.com/internal/models"
)

// An event's recap posts appear on the blog within two weeks of the
// race; anything older belongs to an earlier event at the same venue.
const blogLookbackDays = 14

// BlogPost is one RSS item with the venue-bearing slug already split
// off the link.
type BlogPost struct {
	Title     string
	URL       string
	Slug      string
	Summary   string
	Published models.Date
}

type rssFeed struct {
	Items []rssItem `xml:"channel>item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

// FetchBlogPosts downloads and parses the blog RSS feed.
func FetchBlogPosts(ctx context.Context, rssURL string) ([]BlogPost, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rssURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rssURL, err)
	}

	client := &http.Client{Timeout: fetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch blog rss: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch blog rss: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read blog rss: %w", err)
	}

	return parseBlogRSS(data)
}

func parseBlogRSS(data []byte) ([]BlogPost, error) {
	var feed rssFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("parse blog rss: %w", err)
	}

	var posts []BlogPost
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if item.Title == "" || link == "" {
			continue
		}

		published, ok := parsePubDate(item.PubDate)
		if !ok {
			continue
		}

		trimmed := strings.TrimRight(link, "/")
		slug := trimmed[strings.LastIndex(trimmed, "/")+1:]

		posts = append(posts, BlogPost{
			Title:     strings.TrimSpace(item.Title),
			URL:       link,
			Slug:      slug,
			Summary:   htmlText(item.Description),
			Published: published,
		})
	}

	return posts, nil
}

func parsePubDate(value string) (models.Date, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC1123, time.RFC1123Z, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return models.DateOf(t), true
		}
	}
	return models.Date{}, false
}

// htmlText flattens an HTML fragment (RSS descriptions carry markup)
// into its text content.
func htmlText(fragment string) string {
	node, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)

	return strings.Join(strings.Fields(b.String()), " ")
}

// VenueSlugMap maps slug fragments to canonical venue names:
// slugified known venues (with and without hyphens) plus the explicit
// aliases, which win on collision.
func VenueSlugMap(sources config.Sources) map[string]string {
	slugMap := map[string]string{}

	spaceDotRe := regexp.MustCompile(`[\s.]+`)
	for _, venue := range sources.KnownVenues {
		slug := strings.Trim(spaceDotRe.ReplaceAllString(strings.ToLower(venue), "-"), "-")
		slugMap[slug] = venue

		if noHyphen := strings.ReplaceAll(slug, "-", ""); noHyphen != slug {
			slugMap[noHyphen] = venue
		}
	}

	for alias, venue := range sources.VenueSlugAliases {
		slugMap[alias] = venue
	}

	return slugMap
}

// venueFromSlug scans a blog slug for known venue fragments, longest
// first so "utah-olympic-park" beats "park". Fragments match only at
// hyphen boundaries.
func venueFromSlug(slug string, slugMap map[string]string) string {
	if slug == "" {
		return ""
	}
	slug = strings.ToLower(slug)

	fragments := make([]string, 0, len(slugMap))
	for fragment := range slugMap {
		fragments = append(fragments, fragment)
	}
	sort.Slice(fragments, func(i, j int) bool {
		if len(fragments[i]) != len(fragments[j]) {
			return len(fragments[i]) > len(fragments[j])
		}
		return fragments[i] < fragments[j]
	})

	for _, fragment := range fragments {
		re := regexp.MustCompile(`(?:^|-)` + regexp.QuoteMeta(fragment) + `(?:$|-)`)
		if re.MatchString(slug) {
			return slugMap[fragment]
		}
	}
	return ""
}

// LinkBlogPosts attaches recap URLs to events: a post links to the
// most recent completed (or in-progress) event at the slug's venue
// that ended within the lookback window before publication. Existing
// recap URLs are preserved; duplicates are skipped.
func LinkBlogPosts(events []models.Event, posts []BlogPost, slugMap map[string]string) []models.Event {
	for _, post := range posts {
		venue := venueFromSlug(post.Slug, slugMap)
		if venue == "" || post.Published.IsZero() {
			continue
		}

		best := -1
		var bestEnd models.Date
		for i, ev := range events {
			if ev.Status != models.StatusCompleted && ev.Status != models.StatusInProgress {
				continue
			}
			if !venueMatches(venue, ev.Venue) {
				continue
			}
			if ev.Dates.End.After(post.Published) {
				continue
			}
			if post.Published.DaysSince(ev.Dates.End) > blogLookbackDays {
				continue
			}
			if best < 0 || ev.Dates.End.After(bestEnd) {
				best, bestEnd = i, ev.Dates.End
			}
		}
		if best < 0 {
			continue
		}

		ev := &events[best]
		if !contains(ev.BlogRecapURLs, post.URL) {
			ev.BlogRecapURLs = append(ev.BlogRecapURLs, post.URL)
		}
	}

	return events
}

func venueMatches(a string, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	return a != "" && b != "" && (strings.Contains(a, b) || strings.Contains(b, a))
}
