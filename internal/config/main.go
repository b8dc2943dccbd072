//nolint:mnd //no magic number
package config

import (
	"log/slog"
	"time"

	"github.com/xdoubleu/essentia/v2/pkg/config"
	str2duration "github.com/xhit/go-str2duration/v2"
)

type Config struct {
	Env        string
	Port       int
	Throttle   bool
	WebURL     string
	SentryDsn  string
	SampleRate float64
	Release    string

	DataDir         string
	CacheDir        string
	SourcesPath     string
	SnapshotPath    string
	RacerIndexPath  string
	PostingLogPath  string
	WatchSnapshot   bool
	RefreshEvery    time.Duration
	SocialTickEvery time.Duration
	FeedTTL         time.Duration

	MetaPageAccessToken string
	MetaPageID          string
	MetaIGUserID        string
	CardOutputDir       string
}

func New(logger *slog.Logger) Config {
	var cfg Config

	parser := config.New(logger)

	cfg.Env = parser.EnvStr("ENV", config.ProdEnv)
	cfg.Port = parser.EnvInt("PORT", 8000)
	cfg.Throttle = parser.EnvBool("THROTTLE", true)
	cfg.WebURL = parser.EnvStr("WEB_URL", "http://localhost:8000")
	cfg.SentryDsn = parser.EnvStr("SENTRY_DSN", "")
	cfg.SampleRate = parser.EnvFloat("SAMPLE_RATE", 1.0)
	cfg.Release = parser.EnvStr("RELEASE", config.DevEnv)

	cfg.DataDir = parser.EnvStr("DATA_DIR", "data")
	cfg.CacheDir = parser.EnvStr("CACHE_DIR", "data/cache")
	cfg.SourcesPath = parser.EnvStr("SOURCES_PATH", "sources.yml")
	cfg.SnapshotPath = parser.EnvStr("SNAPSHOT_PATH", "data/race_database.json")
	cfg.RacerIndexPath = parser.EnvStr("RACER_INDEX_PATH", "data/racer_database.json")
	cfg.PostingLogPath = parser.EnvStr("POSTING_LOG_PATH", "data/posting_log.json")
	cfg.WatchSnapshot = parser.EnvBool("WATCH_SNAPSHOT", true)
	cfg.RefreshEvery = duration(parser.EnvStr("REFRESH_EVERY", "12h"), 12*time.Hour)
	cfg.SocialTickEvery = duration(parser.EnvStr("SOCIAL_TICK_EVERY", "1h"), time.Hour)
	cfg.FeedTTL = duration(parser.EnvStr("FEED_TTL", "12h"), 12*time.Hour)

	cfg.MetaPageAccessToken = parser.EnvStr("META_PAGE_ACCESS_TOKEN", "")
	cfg.MetaPageID = parser.EnvStr("META_PAGE_ID", "")
	cfg.MetaIGUserID = parser.EnvStr("META_IG_USER_ID", "")
	cfg.CardOutputDir = parser.EnvStr("CARD_OUTPUT_DIR", "data/cards")

	return cfg
}

// duration parses a humanized duration ("12h", "7d") from the
// environment value.
func duration(value string, fallback time.Duration) time.Duration {
	parsed, err := str2duration.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
