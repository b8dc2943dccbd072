package ingest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"racecal.simsportsarena.com/internal/config"
	"racecal.simsportsarena.com/internal/ingest"
	"racecal.simsportsarena.com/internal/models"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Sim Sports Arena Blog</title>
    <item>
      <title>Recap: South Series at Snowbird</title>
      <link>https://www.simsportsarena.com/post/south-series-snowbird-recap</link>
      <pubDate>Tue, 10 Feb 2026 00:00:00 GMT</pubDate>
      <description>&lt;p&gt;Three days of racing at &lt;b&gt;Snowbird&lt;/b&gt;.&lt;/p&gt;</description>
    </item>
    <item>
      <title>Gear guide</title>
      <link>https://www.simsportsarena.com/post/gear-guide-2026</link>
      <pubDate>Mon, 02 Feb 2026 00:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestFetchBlogPosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		//nolint:errcheck //test server
		w.Write([]byte(testRSS))
	}))
	defer srv.Close()

	posts, err := ingest.FetchBlogPosts(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "Recap: South Series at Snowbird", posts[0].Title)
	assert.Equal(t, "south-series-snowbird-recap", posts[0].Slug)
	assert.Equal(t, "2026-02-10", posts[0].Published.String())
	assert.Equal(t, "Three days of racing at Snowbird .", posts[0].Summary)
}

func TestVenueSlugMap(t *testing.T) {
	slugMap := ingest.VenueSlugMap(config.DefaultSources())

	assert.Equal(t, "Utah Olympic Park", slugMap["utah-olympic-park"])
	assert.Equal(t, "Utah Olympic Park", slugMap["utaholympicpark"])
	assert.Equal(t, "Snowbird", slugMap["snowbird"])
	// Explicit aliases cover abbreviations.
	assert.Equal(t, "Utah Olympic Park", slugMap["uop"])
	assert.Equal(t, "Jackson Hole", slugMap["jhmr"])
	// "Mt. Bachelor" slugifies dot and space together.
	assert.Equal(t, "Mt. Bachelor", slugMap["mt-bachelor"])
}

func blogTestEvents(t *testing.T) []models.Event {
	t.Helper()
	return []models.Event{
		{
			ID:     "imd-1",
			Venue:  "Snowbird",
			Dates:  testDates(t, "2026-02-06", "2026-02-08"),
			Status: models.StatusCompleted,
		},
		{
			ID:     "imd-2",
			Venue:  "Snowbird",
			Dates:  testDates(t, "2026-01-10", "2026-01-11"),
			Status: models.StatusCompleted,
		},
		{
			ID:     "imd-3",
			Venue:  "Sun Valley",
			Dates:  testDates(t, "2026-02-07", "2026-02-08"),
			Status: models.StatusCompleted,
		},
	}
}

func TestLinkBlogPosts(t *testing.T) {
	slugMap := ingest.VenueSlugMap(config.DefaultSources())
	published, err := models.ParseDate("2026-02-10")
	require.NoError(t, err)

	events := ingest.LinkBlogPosts(blogTestEvents(t), []ingest.BlogPost{{
		Title:     "Recap: South Series at Snowbird",
		URL:       "https://www.simsportsarena.com/post/south-series-snowbird-recap",
		Slug:      "south-series-snowbird-recap",
		Published: published,
	}}, slugMap)

	// The most recent Snowbird event within the lookback window wins;
	// the January event and the Sun Valley event stay untouched.
	assert.Equal(t,
		[]string{"https://www.simsportsarena.com/post/south-series-snowbird-recap"},
		events[0].BlogRecapURLs)
	assert.Empty(t, events[1].BlogRecapURLs)
	assert.Empty(t, events[2].BlogRecapURLs)
}

func TestLinkBlogPostsOutsideLookback(t *testing.T) {
	slugMap := ingest.VenueSlugMap(config.DefaultSources())
	published, err := models.ParseDate("2026-03-15")
	require.NoError(t, err)

	events := ingest.LinkBlogPosts(blogTestEvents(t), []ingest.BlogPost{{
		Title:     "Season recap from Snowbird",
		URL:       "https://www.simsportsarena.com/post/snowbird-season-recap",
		Slug:      "snowbird-season-recap",
		Published: published,
	}}, slugMap)

	for _, ev := range events {
		assert.Empty(t, ev.BlogRecapURLs)
	}
}

func TestLinkBlogPostsNoVenueInSlug(t *testing.T) {
	slugMap := ingest.VenueSlugMap(config.DefaultSources())
	published, err := models.ParseDate("2026-02-10")
	require.NoError(t, err)

	events := ingest.LinkBlogPosts(blogTestEvents(t), []ingest.BlogPost{{
		Title:     "Gear guide",
		URL:       "https://www.simsportsarena.com/post/gear-guide-2026",
		Slug:      "gear-guide-2026",
		Published: published,
	}}, slugMap)

	for _, ev := range events {
		assert.Empty(t, ev.BlogRecapURLs)
	}
}

func TestLinkBlogPostsDeduplicates(t *testing.T) {
	slugMap := ingest.VenueSlugMap(config.DefaultSources())
	published, err := models.ParseDate("2026-02-10")
	require.NoError(t, err)

	post := ingest.BlogPost{
		Title:     "Recap: South Series at Snowbird",
		URL:       "https://www.simsportsarena.com/post/south-series-snowbird-recap",
		Slug:      "south-series-snowbird-recap",
		Published: published,
	}

	events := ingest.LinkBlogPosts(blogTestEvents(t), []ingest.BlogPost{post, post}, slugMap)
	assert.Len(t, events[0].BlogRecapURLs, 1)
}
