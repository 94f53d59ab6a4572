package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/sitemonitor/internal/domain"
	apimw "github.com/hamed0406/sitemonitor/internal/httpapi/middleware"
	"github.com/hamed0406/sitemonitor/internal/repo"
	"github.com/hamed0406/sitemonitor/internal/report"
)

// Server exposes the stored histories read-only. It never probes and never
// writes the store, so it can run next to the monitor.
type Server struct {
	Logger      *zap.Logger
	Store       repo.HistoryStore
	Version     string
	Maintenance []report.Maintenance
	Now         func() time.Time

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that sets those headers.
	TrustProxy bool
}

func NewServer(l *zap.Logger, store repo.HistoryStore, version string) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Store: store, Version: version, Now: time.Now}
}

// Router builds the handler. Empty origins allows any origin; rpm <= 0
// disables rate limiting.
func (s *Server) Router(keys, origins []string, rpm, burst int) http.Handler {
	r := chi.NewRouter()
	if s.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Recoverer)
	r.Use(s.accessLog)
	if len(origins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "X-API-Key"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(rpm, burst))
		r.Use(apimw.RequireKey(keys))

		r.Get("/", s.handleDashboard)
		r.Get("/api/urls", s.handleListURLs)
		r.Get("/api/history", s.handleHistory)
		r.Get("/api/summary", s.handleSummary)
		r.Get("/api/incidents.csv", s.handleIncidentsCSV)
	})

	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Debug("api_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

// load reads the store. A degraded (corrupt) store is served as whatever
// could be read, with a warning.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (domain.Database, bool) {
	db, err := s.Store.Load(r.Context())
	if err != nil {
		s.Logger.Warn("store_degraded", zap.Error(err))
	}
	if db == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "history unavailable"})
		return nil, false
	}
	return db, true
}

type urlStatus struct {
	URL         string     `json:"url"`
	Status      *int       `json:"status"` // null when never checked
	LastChecked *time.Time `json:"last_checked,omitempty"`
	LatencyMS   int64      `json:"latency_ms"`
	Entries     int        `json:"entries"`
}

func (s *Server) handleListURLs(w http.ResponseWriter, r *http.Request) {
	db, ok := s.load(w, r)
	if !ok {
		return
	}
	out := make([]urlStatus, 0, db.Len())
	for _, u := range db.URLs() {
		h := db[u]
		st := urlStatus{URL: u, Entries: len(h)}
		if last, ok := h.Last(); ok {
			code, ts := last.StatusCode, last.Timestamp
			st.Status, st.LastChecked, st.LatencyMS = &code, &ts, last.LatencyMS
		}
		out = append(out, st)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if !isValidHTTPURL(target) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "url must be an absolute http(s) URL"})
		return
	}
	db, ok := s.load(w, r)
	if !ok {
		return
	}
	h, found := db[target]
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "url not monitored"})
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	db, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.Summarize(db))
}

func (s *Server) handleIncidentsCSV(w http.ResponseWriter, r *http.Request) {
	db, ok := s.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="incidents.csv"`)
	if err := report.WriteIncidentsCSV(w, db); err != nil {
		s.Logger.Warn("incidents_export_failed", zap.Error(err))
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	db, ok := s.load(w, r)
	if !ok {
		return
	}
	v := report.BuildView(db, s.Version, s.Now().UTC())
	v.Maintenance = s.Maintenance
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderHTML(w, v); err != nil {
		s.Logger.Warn("dashboard_render_failed", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func isValidHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}
