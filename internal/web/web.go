package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"

	"subcal/internal/config"
	"subcal/internal/feed"
	appLog "subcal/internal/log"
	"subcal/internal/timeline"
)

// previewSize is how many distinct items each group exposes in its
// compact preview strip.
const previewSize = 4

// Server exposes the timeline engine over HTTP: the visible slice for
// the widget, widen/scroll mutations, and an ICS download of the merged
// schedule.
type Server struct {
	cfg    *config.Config
	loader *timeline.Loader
	mux    *http.ServeMux

	// viewport lives for the widget session; the scroll endpoint is the
	// only writer.
	vpMu     sync.Mutex
	viewport timeline.Viewport
}

// NewServer constructs a new Server around a loader.
func NewServer(cfg *config.Config, loader *timeline.Loader) *Server {
	s := &Server{
		cfg:    cfg,
		loader: loader,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Treat empty username or password as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="SubCal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/timeline", s.handleTimeline)
	s.mux.HandleFunc("/api/widen", s.handleWiden)
	s.mux.HandleFunc("/api/scroll", s.handleScroll)
	s.mux.HandleFunc("/api/calendar.ics", s.handleCalendar)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// groupDTO is a JSON-friendly view of one day group.
type groupDTO struct {
	Date    string           `json:"date"`
	Items   []timeline.Event `json:"items"`
	Preview []timeline.Event `json:"preview"`
}

// timelineResponse is the JSON response shape for /api/timeline.
type timelineResponse struct {
	Groups      []groupDTO     `json:"groups"`
	LoadedRange timeline.Range `json:"loaded_range"`
	Frozen      bool           `json:"frozen"`
	Today       string         `json:"today"`
	Timezone    string         `json:"timezone"`
}

// handleTimeline returns the groups the widget should render: the
// 7-wide anchored window around today, or the full list once the user
// has scrolled. Sorting happens here, pull-based, on a snapshot.
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	groups, loaded := s.loader.Snapshot()
	today := s.loader.TodayKey()

	s.vpMu.Lock()
	vp := s.viewport
	s.vpMu.Unlock()

	visible := timeline.ComputeVisible(groups, vp, today)

	dtos := make([]groupDTO, 0, len(visible))
	for _, g := range visible {
		items := make([]timeline.Event, len(g.Items))
		copy(items, g.Items)
		timeline.SortItems(items)
		dtos = append(dtos, groupDTO{
			Date:    g.Date,
			Items:   items,
			Preview: timeline.Preview(g.Items, previewSize),
		})
	}

	writeJSON(w, http.StatusOK, timelineResponse{
		Groups:      dtos,
		LoadedRange: loaded,
		Frozen:      vp.UserScrolled,
		Today:       today,
		Timezone:    s.cfg.Timezone,
	})
}

// widenRequest is the JSON request body for /api/widen.
type widenRequest struct {
	Before int `json:"before"`
	After  int `json:"after"`
}

// handleWiden widens the loaded window. Redundant calls are no-ops by
// the loader's threshold check, so the endpoint is safe to retry.
func (s *Server) handleWiden(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	var req widenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Before < 0 || req.After < 0 {
		writeError(w, http.StatusBadRequest, "before/after must be non-negative")
		return
	}

	if err := s.loader.RequestWindow(r.Context(), req.Before, req.After); err != nil {
		writeError(w, http.StatusBadGateway, "window fetch failed")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		LoadedRange timeline.Range `json:"loaded_range"`
	}{s.loader.LoadedRange()})
}

// handleScroll records the first user scroll, freezing the viewport.
// Further calls change nothing.
func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	groups, _ := s.loader.Snapshot()
	today := s.loader.TodayKey()

	s.vpMu.Lock()
	s.viewport.Freeze(groups, today)
	vp := s.viewport
	s.vpMu.Unlock()

	writeJSON(w, http.StatusOK, vp)
}

// handleCalendar serves the merged timeline as a downloadable ICS file.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	groups, _ := s.loader.Snapshot()
	body := feed.BuildCalendar(s.cfg.Calname, groups)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
