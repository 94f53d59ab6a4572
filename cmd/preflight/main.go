// cmd/preflight/main.go
package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/hamed0406/sitemonitor/internal/config"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		fail(err.Error())
	}

	if cfg.DiscordWebhook == "" && cfg.SlackWebhook == "" {
		warn("DISCORD_WEBHOOK_URL empty — transitions will be recorded but no alerts sent.")
	} else if cfg.DiscordWebhook != "" {
		if u, err := url.Parse(cfg.DiscordWebhook); err != nil || u.Scheme != "https" {
			fail("DISCORD_WEBHOOK_URL must be an https URL.")
		}
		ok("DISCORD_WEBHOOK_URL present")
	}

	for _, s := range cfg.Sitemaps {
		if u, err := url.Parse(s); err != nil || u.Host == "" {
			fail("SITEMAPS contains an invalid URL: " + s)
		}
	}
	ok(fmt.Sprintf("SITEMAPS: %d feed(s)", len(cfg.Sitemaps)))

	dir := filepath.Dir(cfg.DatabaseFile)
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		fail("DATABASE_FILE directory does not exist: " + dir)
	}
	if _, err := os.Stat(cfg.DatabaseFile); err != nil {
		warn("DATABASE_FILE " + cfg.DatabaseFile + " not found — first run will start with empty history.")
	} else {
		ok("DATABASE_FILE=" + cfg.DatabaseFile)
	}

	if len(cfg.APIKeys) == 0 {
		warn("API_KEYS empty — the read API is open to anyone who can reach " + cfg.Addr + ".")
	} else if strings.Contains(os.Getenv("API_KEYS"), " ") {
		warn("API_KEYS contains spaces; use comma-separated with no spaces, e.g. key1,key2")
	}

	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty — any origin may read the API from a browser.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	if cfg.Schedule != "" {
		ok("SCHEDULE=" + cfg.Schedule)
	}

	ok("preflight passed")
}
