package domain

import (
	"sort"
	"time"
)

// MaxHistory is the number of outcomes kept per URL.
const MaxHistory = 50

// HealthyStatus is the only status code classified as healthy.
const HealthyStatus = 200

// ProbeOutcome is one recorded check. StatusCode 0 means the probe failed
// before any HTTP response arrived.
type ProbeOutcome struct {
	Timestamp  time.Time `json:"date"`
	StatusCode int       `json:"status"`
	LatencyMS  int64     `json:"time"`
}

func (o ProbeOutcome) Healthy() bool { return o.StatusCode == HealthyStatus }

// History is the chronological, oldest-first outcome list of one URL.
type History []ProbeOutcome

// Append returns h with o added, evicting the oldest entries past MaxHistory.
func (h History) Append(o ProbeOutcome) History {
	h = append(h, o)
	if over := len(h) - MaxHistory; over > 0 {
		// copy into a fresh slice so the evicted prefix is released
		trimmed := make(History, MaxHistory)
		copy(trimmed, h[over:])
		return trimmed
	}
	return h
}

// Last returns the most recent outcome.
func (h History) Last() (ProbeOutcome, bool) {
	if len(h) == 0 {
		return ProbeOutcome{}, false
	}
	return h[len(h)-1], true
}

// CurrentStatus is the status of the last outcome; false means "unknown".
func (h History) CurrentStatus() (int, bool) {
	last, ok := h.Last()
	return last.StatusCode, ok
}

// Database maps a monitored URL to its history. Entries are never removed.
type Database map[string]History

func NewDatabase() Database { return make(Database) }

// Append adds o to the history of url, creating it on first sight.
func (d Database) Append(url string, o ProbeOutcome) {
	d[url] = d[url].Append(o)
}

// URLs returns every known URL, sorted.
func (d Database) URLs() []string {
	out := make([]string, 0, len(d))
	for u := range d {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a deep copy safe to hand to readers.
func (d Database) Snapshot() Database {
	out := make(Database, len(d))
	for u, h := range d {
		cp := make(History, len(h))
		copy(cp, h)
		out[u] = cp
	}
	return out
}

// Len counts every stored outcome across all URLs.
func (d Database) Len() int {
	n := 0
	for _, h := range d {
		n += len(h)
	}
	return n
}
