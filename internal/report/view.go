package report

import (
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hamed0406/sitemonitor/internal/domain"
)

// tickCount is how many recent outcomes a card shows.
const tickCount = 30

// Summary counts URLs by their current status.
type Summary struct {
	Total        int   `json:"total"`
	Healthy      int   `json:"healthy"`
	Unhealthy    int   `json:"unhealthy"`
	Unknown      int   `json:"unknown"`
	AvgLatencyMS int64 `json:"avg_latency_ms"`
}

type Tick struct {
	Status  int
	Healthy bool
}

type Card struct {
	URL         string
	Name        string
	Type        string
	Status      string // OPERATIONAL | DOWN | UNKNOWN
	LastStatus  int
	LastChecked string
	Ticks       []Tick
	Search      string // lowercased name and URL for the dashboard filter
}

// Incident is any stored non-200 outcome.
type Incident struct {
	URL    string    `json:"url"`
	Status int       `json:"status"`
	Date   time.Time `json:"date"`
}

type View struct {
	Version     string
	GeneratedAt time.Time
	Summary     Summary
	Cards       []Card
	Incidents   []Incident
	Maintenance []Maintenance
}

// Summarize counts current statuses without building the full view.
func Summarize(db domain.Database) Summary {
	var s Summary
	var total int64
	for _, h := range db {
		s.Total++
		last, ok := h.Last()
		switch {
		case !ok:
			s.Unknown++
			continue
		case last.Healthy():
			s.Healthy++
		default:
			s.Unhealthy++
		}
		total += last.LatencyMS
	}
	if n := s.Healthy + s.Unhealthy; n > 0 {
		s.AvgLatencyMS = total / int64(n)
	}
	return s
}

// Incidents lists every non-200 outcome, newest first.
func Incidents(db domain.Database) []Incident {
	var out []Incident
	for url, h := range db {
		for _, o := range h {
			if !o.Healthy() {
				out = append(out, Incident{URL: url, Status: o.StatusCode, Date: o.Timestamp})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].URL < out[j].URL
	})
	return out
}

func BuildView(db domain.Database, version string, now time.Time) View {
	v := View{
		Version:     version,
		GeneratedAt: now,
		Summary:     Summarize(db),
		Incidents:   Incidents(db),
	}
	for _, url := range db.URLs() {
		v.Cards = append(v.Cards, cardFor(url, db[url], now))
	}
	return v
}

func cardFor(url string, h domain.History, now time.Time) Card {
	c := Card{
		URL:    url,
		Name:   strings.ReplaceAll(url[strings.LastIndex(url, "/")+1:], "-", " "),
		Type:   pageType(url),
		Status: "UNKNOWN",
	}
	c.Search = strings.ToLower(c.Name + " " + url)
	if last, ok := h.Last(); ok {
		c.LastStatus = last.StatusCode
		c.LastChecked = humanize.RelTime(last.Timestamp, now, "ago", "from now")
		c.Status = "DOWN"
		if last.Healthy() {
			c.Status = "OPERATIONAL"
		}
	}
	recent := h
	if len(recent) > tickCount {
		recent = recent[len(recent)-tickCount:]
	}
	for _, o := range recent {
		c.Ticks = append(c.Ticks, Tick{Status: o.StatusCode, Healthy: o.Healthy()})
	}
	return c
}

func pageType(url string) string {
	switch {
	case strings.Contains(url, "/products/"):
		return "Product"
	case strings.Contains(url, "/collections/"):
		return "Collection"
	case strings.Contains(url, "/pages/"):
		return "Page"
	}
	return "Other"
}
