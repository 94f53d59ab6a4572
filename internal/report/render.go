package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hamed0406/sitemonitor/internal/domain"
)

// Reporter consumes the final snapshot of a run. It must not mutate it.
type Reporter interface {
	Report(ctx context.Context, db domain.Database) error
}

var page = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"rfc3339": func(t time.Time) string { return t.Format(time.RFC3339) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Uptime Monitor</title>
<style>
body{font-family:system-ui,sans-serif;background:#0d1117;color:#c9d1d9;margin:0;padding:24px}
.stats{display:flex;gap:16px;margin-bottom:24px}
.stat{background:#161b22;border-radius:8px;padding:12px 20px}
.card{display:flex;align-items:center;background:#161b22;border-radius:8px;padding:12px;margin-bottom:8px}
.card .info{flex:1}
.muted{color:#8b949e;font-size:12px}
.ticks{display:flex;gap:2px;margin:0 20px}
.tick{width:6px;height:24px;border-radius:2px}
.tick.up{background:#3fb950}.tick.down{background:#f85149}
.badge{padding:4px 8px;border-radius:4px;font-size:12px}
.OPERATIONAL{background:#1f6feb}.DOWN{background:#da3633}.UNKNOWN{background:#6e7681}
.filters{display:flex;gap:8px;margin-bottom:12px}
.filters input,.filters select{background:#161b22;color:#c9d1d9;border:1px solid #30363d;border-radius:6px;padding:6px 10px}
table{border-collapse:collapse;width:100%}td,th{text-align:left;padding:4px 8px;border-bottom:1px solid #30363d}
</style>
</head>
<body>
<h1>Uptime Monitor</h1>
<div class="stats">
  <div class="stat">Total<br><b>{{.Summary.Total}}</b></div>
  <div class="stat">Operational<br><b>{{.Summary.Healthy}}</b></div>
  <div class="stat">Down<br><b>{{.Summary.Unhealthy}}</b></div>
  <div class="stat">Avg response<br><b>{{.Summary.AvgLatencyMS}} ms</b></div>
</div>
<h2>Monitors</h2>
<div class="filters">
  <input type="text" id="search" placeholder="Search..." oninput="filterCards()">
  <select id="type" onchange="filterCards()">
    <option value="">All types</option>
    <option>Product</option><option>Collection</option><option>Page</option><option>Other</option>
  </select>
</div>
{{range .Cards}}<div class="card" data-type="{{.Type}}" data-status="{{.Status}}" data-search="{{.Search}}">
  <div class="info">
    <span class="muted">{{.Type}}</span>
    <div><b>{{.Name}}</b></div>
    <div class="muted">{{.URL}}{{if .LastChecked}} &middot; checked {{.LastChecked}}{{end}}</div>
  </div>
  <div class="ticks">{{range .Ticks}}<div class="tick {{if .Healthy}}up{{else}}down{{end}}" title="{{.Status}}"></div>{{end}}</div>
  <span class="badge {{.Status}}">{{.Status}}</span>
</div>
{{end}}
<h2>Incidents</h2>
{{if .Incidents}}<table>
<tr><th>Date</th><th>URL</th><th>Status</th></tr>
{{range .Incidents}}<tr><td>{{rfc3339 .Date}}</td><td>{{.URL}}</td><td>{{.Status}}</td></tr>
{{end}}</table>{{else}}<p class="muted">No incidents recorded.</p>{{end}}
{{if .Maintenance}}<h2>Maintenance</h2>
<table>
<tr><th>Event</th><th>Date</th><th>Status</th></tr>
{{range .Maintenance}}<tr><td>{{.Title}}</td><td>{{.Date}}</td><td><span class="badge UNKNOWN">{{.Status}}</span></td></tr>
{{end}}</table>{{end}}
<p class="muted">v{{.Version}} &middot; generated {{rfc3339 .GeneratedAt}}</p>
<script>
function filterCards() {
  var term = document.getElementById('search').value.toLowerCase();
  var type = document.getElementById('type').value;
  document.querySelectorAll('.card').forEach(function (c) {
    var show = c.dataset.search.indexOf(term) !== -1 && (type === '' || c.dataset.type === type);
    c.style.display = show ? 'flex' : 'none';
  });
}
</script>
</body>
</html>
`))

// RenderHTML writes the dashboard for v.
func RenderHTML(w io.Writer, v View) error {
	return page.Execute(w, v)
}

// WriteIncidentsCSV writes Date,URL,Status rows, newest first.
func WriteIncidentsCSV(w io.Writer, db domain.Database) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "URL", "Status"}); err != nil {
		return err
	}
	for _, in := range Incidents(db) {
		if err := cw.Write([]string{in.Date.Format(time.RFC3339), in.URL, strconv.Itoa(in.Status)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileReporter writes the dashboard and, when CSVPath is set, the
// incidents export next to it.
type FileReporter struct {
	HTMLPath    string
	CSVPath     string
	Version     string
	Maintenance []Maintenance
	Now         func() time.Time
}

func NewFileReporter(htmlPath, csvPath, version string) *FileReporter {
	return &FileReporter{HTMLPath: htmlPath, CSVPath: csvPath, Version: version, Now: time.Now}
}

func (f *FileReporter) Report(ctx context.Context, db domain.Database) error {
	if err := writeFile(f.HTMLPath, func(w io.Writer) error {
		v := BuildView(db, f.Version, f.Now().UTC())
		v.Maintenance = f.Maintenance
		return RenderHTML(w, v)
	}); err != nil {
		return fmt.Errorf("write dashboard: %w", err)
	}
	if f.CSVPath == "" {
		return nil
	}
	if err := writeFile(f.CSVPath, func(w io.Writer) error {
		return WriteIncidentsCSV(w, db)
	}); err != nil {
		return fmt.Errorf("write incidents: %w", err)
	}
	return nil
}

func writeFile(path string, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if err := fill(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	// CreateTemp uses 0600; the outputs are read by other users.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
