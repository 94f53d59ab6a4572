package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/hamed0406/sitemonitor/internal/probe"
)

// DefaultSitemaps are the storefront feeds monitored when SITEMAPS is unset.
var DefaultSitemaps = []string{
	"https://www.babyorgano.com/sitemap_products_1.xml?from=7211743150269&to=8175189065917",
	"https://www.babyorgano.com/sitemap_pages_1.xml?from=88326439101&to=125035479229",
	"https://www.babyorgano.com/sitemap_collections_1.xml?from=285188980925&to=325341544637",
}

type Config struct {
	DiscordWebhook string   // empty disables Discord alerts
	SlackWebhook   string   // optional second target
	Sitemaps       []string // feed URLs
	DatabaseFile   string   // JSON history store
	ReportFile     string   // HTML dashboard, empty disables
	IncidentsFile  string   // CSV export, empty disables
	Maintenance    string   // optional JSON list of maintenance windows
	LogDir         string   // logs directory

	ProbeTimeout   time.Duration // per-URL request budget
	MaxConcurrency int           // parallel probes per run
	ProbeRPS       float64       // 0 = unlimited
	AlertTimeout   time.Duration // per-notification budget
	Schedule       string        // cron spec, empty = single run

	Addr           string   // API bind address, e.g., "127.0.0.1:8080" (Windows) or ":8080" (Docker)
	APIKeys        []string // empty = open read API
	APIRPM         int
	APIBurst       int
	AllowedOrigins []string // empty = any
	TrustProxy     bool     // take client IPs from X-Forwarded-For / X-Real-IP

	Version   string
	UserAgent string
}

func FromEnv() Config {
	// Optional .env next to the binary; real env wins.
	_ = godotenv.Load()

	sitemaps := splitCSV(os.Getenv("SITEMAPS"))
	if len(sitemaps) == 0 {
		sitemaps = append([]string(nil), DefaultSitemaps...)
	}

	return Config{
		DiscordWebhook: strings.TrimSpace(os.Getenv("DISCORD_WEBHOOK_URL")),
		SlackWebhook:   strings.TrimSpace(os.Getenv("SLACK_WEBHOOK_URL")),
		Sitemaps:       sitemaps,
		DatabaseFile:   envOr("DATABASE_FILE", "database.json"),
		ReportFile:     envOr("REPORT_FILE", "dashboard.html"),
		IncidentsFile:  envOr("INCIDENTS_FILE", "incidents.csv"),
		Maintenance:    strings.TrimSpace(os.Getenv("MAINTENANCE_FILE")),
		LogDir:         envOr("LOG_DIR", "logs"),

		ProbeTimeout:   envMS("PROBE_TIMEOUT_MS", 10*time.Second),
		MaxConcurrency: envInt("MAX_CONCURRENT_CHECKS", 5),
		ProbeRPS:       envFloat("PROBE_RPS", 0),
		AlertTimeout:   envMS("ALERT_TIMEOUT_MS", 10*time.Second),
		Schedule:       strings.TrimSpace(os.Getenv("SCHEDULE")),

		Addr:           envOr("API_ADDR", "127.0.0.1:8080"),
		APIKeys:        splitCSV(os.Getenv("API_KEYS")),
		APIRPM:         envInt("API_RPM", 120),
		APIBurst:       envInt("API_BURST", 60),
		AllowedOrigins: splitCSV(os.Getenv("ALLOWED_ORIGINS")),
		TrustProxy:     envBool("TRUST_PROXY"),

		Version:   envOr("APP_VERSION", "3.0.0"),
		UserAgent: envOr("USER_AGENT", probe.DefaultUserAgent),
	}
}

// Validate reports every setting that would make a run misbehave.
func (c Config) Validate() error {
	var errs []error
	if c.ProbeTimeout <= 0 {
		errs = append(errs, errors.New("PROBE_TIMEOUT_MS must be positive"))
	}
	if c.AlertTimeout <= 0 {
		errs = append(errs, errors.New("ALERT_TIMEOUT_MS must be positive"))
	}
	if c.MaxConcurrency <= 0 {
		errs = append(errs, errors.New("MAX_CONCURRENT_CHECKS must be positive"))
	}
	if c.ProbeRPS < 0 {
		errs = append(errs, errors.New("PROBE_RPS must not be negative"))
	}
	// Below this floor a full pool queues longer for the limiter than a
	// single probe may take.
	if c.ProbeRPS > 0 && c.MaxConcurrency > 0 && c.ProbeTimeout > 0 {
		if floor := float64(c.MaxConcurrency) / c.ProbeTimeout.Seconds(); c.ProbeRPS < floor {
			errs = append(errs, fmt.Errorf("PROBE_RPS %.2f is below MAX_CONCURRENT_CHECKS / PROBE_TIMEOUT (%.2f)", c.ProbeRPS, floor))
		}
	}
	if c.DatabaseFile == "" {
		errs = append(errs, errors.New("DATABASE_FILE must be set"))
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("SCHEDULE: %w", err))
		}
	}
	return errors.Join(errs...)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt keeps unparsable values visible to Validate instead of silently
// falling back.
func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return b
}

func envFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return -1
	}
	return f
}

func envMS(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return time.Duration(ms) * time.Millisecond
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
