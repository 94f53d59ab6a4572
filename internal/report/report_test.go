package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/hamed0406/sitemonitor/internal/domain"
)

var t0 = time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)

func sampleDB() domain.Database {
	db := domain.NewDatabase()
	tea := "https://shop.example/products/organic-tea"
	db.Append(tea, domain.ProbeOutcome{Timestamp: t0, StatusCode: 200, LatencyMS: 100})
	db.Append(tea, domain.ProbeOutcome{Timestamp: t0.Add(time.Hour), StatusCode: 503, LatencyMS: 40})
	about := "https://shop.example/pages/about-us"
	db.Append(about, domain.ProbeOutcome{Timestamp: t0, StatusCode: 0})
	db.Append(about, domain.ProbeOutcome{Timestamp: t0.Add(time.Hour), StatusCode: 200, LatencyMS: 60})
	db["https://shop.example/collections/new"] = domain.History{}
	return db
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleDB())
	want := Summary{Total: 3, Healthy: 1, Unhealthy: 1, Unknown: 1, AvgLatencyMS: 50}
	if s != want {
		t.Fatalf("want %+v, got %+v", want, s)
	}
}

func TestIncidents_NewestFirst(t *testing.T) {
	in := Incidents(sampleDB())
	if len(in) != 2 {
		t.Fatalf("want 2 incidents, got %d", len(in))
	}
	if in[0].Status != 503 || in[1].Status != 0 {
		t.Fatalf("wrong order: %+v", in)
	}
}

func TestBuildView_Cards(t *testing.T) {
	v := BuildView(sampleDB(), "3.0.0", t0.Add(2*time.Hour))
	if len(v.Cards) != 3 {
		t.Fatalf("want 3 cards, got %d", len(v.Cards))
	}
	byURL := map[string]Card{}
	for _, c := range v.Cards {
		byURL[c.URL] = c
	}
	tea := byURL["https://shop.example/products/organic-tea"]
	if tea.Type != "Product" || tea.Name != "organic tea" || tea.Status != "DOWN" || len(tea.Ticks) != 2 {
		t.Fatalf("unexpected tea card: %+v", tea)
	}
	if tea.LastChecked != "1 hour ago" {
		t.Fatalf("unexpected relative time %q", tea.LastChecked)
	}
	if c := byURL["https://shop.example/collections/new"]; c.Status != "UNKNOWN" || c.Type != "Collection" {
		t.Fatalf("unexpected empty card: %+v", c)
	}
	if c := byURL["https://shop.example/pages/about-us"]; c.Status != "OPERATIONAL" || c.Type != "Page" {
		t.Fatalf("unexpected page card: %+v", c)
	}
}

func TestBuildView_TicksCappedAtThirty(t *testing.T) {
	db := domain.NewDatabase()
	for i := 0; i < 45; i++ {
		db.Append("https://x.example/a", domain.ProbeOutcome{Timestamp: t0, StatusCode: 200})
	}
	if n := len(BuildView(db, "", t0).Cards[0].Ticks); n != tickCount {
		t.Fatalf("want %d ticks, got %d", tickCount, n)
	}
}

func TestRenderHTML_EscapesURLs(t *testing.T) {
	db := domain.NewDatabase()
	db.Append(`https://x.example/<script>`, domain.ProbeOutcome{Timestamp: t0, StatusCode: 500})
	var buf bytes.Buffer
	if err := RenderHTML(&buf, BuildView(db, "3.0.0", t0)); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<script>") {
		t.Fatalf("url was not escaped")
	}
	if !strings.Contains(out, "v3.0.0") {
		t.Fatalf("missing version footer")
	}
}

func TestWriteIncidentsCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteIncidentsCSV(&buf, sampleDB()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || lines[0] != "Date,URL,Status" {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
	if lines[1] != "2025-08-18T13:00:00Z,https://shop.example/products/organic-tea,503" {
		t.Fatalf("unexpected first row %q", lines[1])
	}
}

func TestFileReporter_WritesBothFiles(t *testing.T) {
	dir := t.TempDir()
	r := NewFileReporter(filepath.Join(dir, "dashboard.html"), filepath.Join(dir, "incidents.csv"), "3.0.0")
	r.Now = func() time.Time { return t0 }
	if err := r.Report(context.Background(), sampleDB()); err != nil {
		t.Fatalf("Report: %v", err)
	}
	for _, name := range []string{"dashboard.html", "incidents.csv"} {
		fi, err := os.Stat(filepath.Join(dir, name))
		if err != nil || fi.Size() == 0 {
			t.Fatalf("%s missing or empty: %v", name, err)
		}
		if runtime.GOOS != "windows" && fi.Mode().Perm() != 0o644 {
			t.Fatalf("%s: want mode 0644, got %v", name, fi.Mode().Perm())
		}
	}
}

func TestRenderHTML_MaintenanceAndFilters(t *testing.T) {
	v := BuildView(sampleDB(), "3.0.0", t0)
	var buf bytes.Buffer
	if err := RenderHTML(&buf, v); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<h2>Maintenance</h2>") {
		t.Fatalf("maintenance section should be hidden when empty")
	}

	v.Maintenance = []Maintenance{{Title: "Checkout migration", Date: "2025-09-01 02:00", Status: "Scheduled"}}
	buf.Reset()
	if err := RenderHTML(&buf, v); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"<h2>Maintenance</h2>", "Checkout migration", `id="search"`, `data-search="organic tea https://shop.example/products/organic-tea"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("dashboard missing %q", want)
		}
	}
}

func TestLoadMaintenance(t *testing.T) {
	dir := t.TempDir()
	if m, err := LoadMaintenance(""); err != nil || m != nil {
		t.Fatalf("empty path: %v %v", m, err)
	}
	if m, err := LoadMaintenance(filepath.Join(dir, "missing.json")); err != nil || m != nil {
		t.Fatalf("missing file: %v %v", m, err)
	}

	path := filepath.Join(dir, "maintenance.json")
	if err := os.WriteFile(path, []byte(`[{"title":"DB upgrade","date":"Sunday","status":"Planned"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadMaintenance(path)
	if err != nil || len(m) != 1 || m[0].Title != "DB upgrade" {
		t.Fatalf("unexpected %+v %v", m, err)
	}

	if err := os.WriteFile(path, []byte(`{`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMaintenance(path); err == nil {
		t.Fatal("want parse error")
	}
}
