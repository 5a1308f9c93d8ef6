package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendRoute(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{path: "users", expected: "users"},
		{path: "/users/u-17", expected: "users/:id"},
		{path: "master-pengguna/42", expected: "master-pengguna/:id"},
		{path: "dashboard/summary", expected: "dashboard/summary"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, backendRoute(tt.path))
		})
	}
}

func TestMetricsMiddleware(t *testing.T) {
	m := NewMetrics("test")
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/users/:uid", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/boom", func(c echo.Context) error { return echo.ErrForbidden })

	for _, target := range []string{"/users/a", "/users/b", "/boom"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	}

	body := scrape(t, m)
	assert.Contains(t, body, `test_http_requests_total{method="GET",path="/users/:uid",status_code="200"} 2`)
	assert.Contains(t, body, `test_http_requests_total{method="GET",path="/boom",status_code="403"} 1`)
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMetricsBackendAndSessions(t *testing.T) {
	m := NewMetrics("test")
	m.ObserveBackend(http.MethodPut, "users/u-1", http.StatusOK, 20*time.Millisecond)
	m.SessionStarted("a")
	m.SessionStarted("b")
	m.SessionStarted("b")
	m.SessionEnded("b")
	m.SessionEnded("restored-from-redis")
	m.SessionEnded("b")

	body := scrape(t, m)
	assert.Contains(t, body, `test_backend_requests_total{method="PUT",path="users/:id",status_code="200"} 1`)
	assert.True(t, strings.Contains(body, "test_active_sessions 1"))
}
