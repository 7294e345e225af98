package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"subcal/internal/config"
	"subcal/internal/model"
	"subcal/internal/timeline"
)

type stubFetcher struct {
	events []model.RawEvent
}

func (s *stubFetcher) FetchEvents(_ context.Context, _, _ int) (timeline.Batch, error) {
	return timeline.Batch{Events: s.events}, nil
}

func stampOffset(days int) string {
	return timeline.FormatStamp(time.Now().UTC().AddDate(0, 0, days))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	fetcher := &stubFetcher{events: []model.RawEvent{
		{ID: "y", UID: "y", DtStart: stampOffset(-1), Summary: "yesterday"},
		{ID: "t", UID: "t", DtStart: stampOffset(0), Summary: "today"},
		{ID: "m", UID: "m", DtStart: stampOffset(1), Summary: "tomorrow"},
	}}

	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"

	loader := timeline.NewLoader(fetcher, time.UTC)
	require.NoError(t, loader.RequestWindow(context.Background(), 3, 3))

	return NewServer(cfg, loader)
}

func TestTimelineEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/timeline", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp timelineResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.False(t, resp.Frozen)
	require.Equal(t, timeline.Range{Before: 3, After: 3}, resp.LoadedRange)
	require.Len(t, resp.Groups, 3)
	// Chronological group order, today in the middle.
	require.Less(t, resp.Groups[0].Date, resp.Groups[1].Date)
	require.Equal(t, resp.Today, resp.Groups[1].Date)
	require.Len(t, resp.Groups[1].Preview, 1)
}

func TestScrollFreezesViewport(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scroll", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var vp timeline.Viewport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&vp))
	require.True(t, vp.UserScrolled)
	require.Equal(t, 1, vp.FixedAnchor)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/timeline", nil))
	var resp timelineResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.True(t, resp.Frozen)
	// Frozen: the entire group list is exposed.
	require.Len(t, resp.Groups, 3)
}

func TestWidenEndpoint(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/widen",
		strings.NewReader(`{"before": 10, "after": 12}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		LoadedRange timeline.Range `json:"loaded_range"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, timeline.Range{Before: 10, After: 12}, resp.LoadedRange)
}

func TestWidenRejectsNegative(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/widen",
		strings.NewReader(`{"before": -1, "after": 2}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalendarDownload(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/calendar.ics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	require.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
	require.Contains(t, rec.Body.String(), "SUMMARY:today")
}

func TestBasicAuth(t *testing.T) {
	srv := newTestServer(t)
	srv.cfg.BasicAuth = &config.BasicAuthConfig{Username: "u", Password: "p"}
	h := srv.Handler()

	// /health stays open.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/timeline", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/timeline", nil)
	req.SetBasicAuth("u", "p")
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
