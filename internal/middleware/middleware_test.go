package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koalbot_console/internal/apiclient"
	"koalbot_console/internal/models"
	"koalbot_console/internal/session"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		hasToken bool
		redirect string
	}{
		{name: "anonymous dashboard", path: "/dashboard", redirect: "/login?from=/dashboard"},
		{name: "anonymous nested path", path: "/master/member_stockity", redirect: "/login?from=/master/member_stockity"},
		{name: "anonymous login", path: "/login"},
		{name: "anonymous login submit", path: "/auth/login"},
		{name: "anonymous static", path: "/static/app.css"},
		{name: "anonymous favicon", path: "/koala-favicon.ico"},
		{name: "anonymous health", path: "/healthz"},
		{name: "api namespace is never guarded", path: "/api/anything"},
		{name: "signed in login", path: "/login", hasToken: true, redirect: "/dashboard"},
		{name: "signed in dashboard", path: "/dashboard", hasToken: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.path, tt.hasToken)
			assert.Equal(t, tt.redirect, d.Redirect)
			assert.Equal(t, tt.redirect == "", d.Allowed())
		})
	}
}

func newContext(method, target string, htmx bool) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestGuardAnonymousHTMXReturnsToPage(t *testing.T) {
	sessions := session.NewManager(session.NewMemoryStore(), time.Hour)

	tests := []struct {
		name       string
		currentURL string
		expected   string
	}{
		{name: "table fragment from users page", currentURL: "http://console.local/users?page=2", expected: "/login?from=/users"},
		{name: "no current url", expected: "/login?from=/users/table"},
		{name: "current page is public", currentURL: "http://console.local/login", expected: "/login?from=/users/table"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/users/table", true)
			if tt.currentURL != "" {
				c.Request().Header.Set("HX-Current-URL", tt.currentURL)
			}

			err := Guard(sessions)(func(echo.Context) error {
				t.Fatal("handler must not run")
				return nil
			})(c)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.expected, rec.Header().Get("HX-Redirect"))
		})
	}
}

func TestGuardLoadsSession(t *testing.T) {
	sessions := session.NewManager(session.NewMemoryStore(), time.Hour)
	require.NoError(t, sessions.Set(context.Background(), session.Session{
		Token: "tok",
		User:  session.Profile{UID: "u-1", Username: "admin", Role: models.RoleAdmin},
	}))

	tests := []struct {
		name     string
		token    string
		username string
	}{
		{name: "cached profile", token: "tok", username: "admin"},
		{name: "unknown token still passes", token: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext(http.MethodGet, "/dashboard", false)
			c.Request().AddCookie(&http.Cookie{Name: apiclient.TokenCookie, Value: tt.token})

			var gotToken string
			err := Guard(sessions)(func(c echo.Context) error {
				gotToken = apiclient.TokenFromContext(c.Request().Context())
				return nil
			})(c)
			require.NoError(t, err)

			assert.Equal(t, tt.token, gotToken)
			s, ok := CurrentSession(c)
			require.True(t, ok)
			assert.Equal(t, tt.username, s.User.Username)
			assert.Equal(t, tt.username, c.Get(ContextUser))
		})
	}
}

func TestRedirect(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		htmx     bool
		code     int
		header   string
		expected string
	}{
		{name: "htmx", method: http.MethodGet, htmx: true, code: http.StatusOK, header: "HX-Redirect", expected: "/login"},
		{name: "page", method: http.MethodGet, code: http.StatusTemporaryRedirect, header: echo.HeaderLocation, expected: "/login"},
		{name: "form post", method: http.MethodPost, code: http.StatusSeeOther, header: echo.HeaderLocation, expected: "/login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(tt.method, "/somewhere", tt.htmx)
			require.NoError(t, Redirect(c, "/login"))
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.expected, rec.Header().Get(tt.header))
		})
	}
}

func TestTriggerMergesEvents(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/users", true)

	Trigger(c, EventCloseForm, nil)
	Toast(c, "success", "Tersimpan")

	var triggers map[string]any
	require.NoError(t, json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &triggers))
	assert.Equal(t, true, triggers[EventCloseForm])
	assert.Equal(t, map[string]any{"level": "success", "message": "Tersimpan"}, triggers[EventToast])
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name    string
		profile session.Profile
		allowed bool
	}{
		{name: "admin", profile: session.Profile{Role: models.RoleAdmin}, allowed: true},
		{name: "legacy role name", profile: session.Profile{RoleName: models.RoleAdmin}, allowed: true},
		{name: "viewer", profile: session.Profile{Role: models.RoleViewer}},
		{name: "unknown role", profile: session.Profile{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext(http.MethodGet, "/users", false)
			c.Set(ContextSession, session.Session{Token: "tok", User: tt.profile})

			err := RequireAdmin()(func(echo.Context) error { return nil })(c)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			var he *echo.HTTPError
			require.True(t, errors.As(err, &he))
			assert.Equal(t, http.StatusForbidden, he.Code)
		})
	}
}

func TestErrorHandlerUnauthorized(t *testing.T) {
	sessions := session.NewManager(session.NewMemoryStore(), time.Hour)
	require.NoError(t, sessions.Set(context.Background(), session.Session{Token: "tok", User: session.Profile{Username: "admin"}}))

	c, rec := newContext(http.MethodGet, "/dashboard", false)
	c.Request().AddCookie(&http.Cookie{Name: apiclient.TokenCookie, Value: "tok"})

	err := &apiclient.RequestError{Method: http.MethodGet, Path: "users", Status: http.StatusUnauthorized}
	CustomErrorHandler(sessions, false)(err, c)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))

	var tokenCleared, flashSet bool
	for _, cookie := range rec.Result().Cookies() {
		switch cookie.Name {
		case apiclient.TokenCookie:
			tokenCleared = cookie.MaxAge < 0
		case flashCookie:
			flashSet = cookie.Value != ""
		}
	}
	assert.True(t, tokenCleared)
	assert.True(t, flashSet)

	_, err2 := sessions.Get(context.Background(), "tok")
	assert.ErrorIs(t, err2, session.ErrNotFound)
}

func TestErrorHandlerHTMXToast(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/users/table", true)

	CustomErrorHandler(nil, false)(echo.NewHTTPError(http.StatusNotFound, "User tidak ditemukan"), c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "User tidak ditemukan")
	assert.Empty(t, rec.Body.String())
}

func TestErrorHandlerPages(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		err      error
		code     int
		contains string
		backLink string
	}{
		{
			name:     "signed in not found",
			token:    "tok",
			err:      echo.ErrNotFound,
			code:     http.StatusNotFound,
			contains: "Halaman Tidak Ditemukan",
			backLink: "/dashboard",
		},
		{
			name:     "anonymous failure",
			err:      errors.New("boom"),
			code:     http.StatusInternalServerError,
			contains: "Terjadi kesalahan. Silakan coba lagi nanti.",
			backLink: "/login",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/somewhere", false)
			if tt.token != "" {
				c.Set(ContextSession, session.Session{Token: tt.token, User: session.Profile{Username: "admin"}})
			}

			CustomErrorHandler(nil, false)(tt.err, c)

			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.contains)
			assert.Contains(t, rec.Body.String(), `href="`+tt.backLink+`"`)
		})
	}
}
