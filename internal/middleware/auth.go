package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"koalbot_console/internal/apiclient"
	"koalbot_console/internal/session"
)

// Context keys set by Guard
const (
	ContextSession = "session"
	ContextUserUID = "userUID"
	ContextUser    = "userName"
)

var (
	publicPaths    = []string{"/login", "/auth/login", "/favicon.ico", "/koala-favicon.ico", "/healthz", "/metrics"}
	publicPrefixes = []string{"/static", "/api/public"}
)

// Decision is the outcome of the route guard for one request
type Decision struct {
	Redirect string
}

// Allowed reports whether the request may continue
func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

// IsPublic reports whether path is reachable without a token
func IsPublic(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Decide applies the route guard. Only the presence of a token is checked,
// the backend rejects tokens that are no longer valid.
func Decide(path string, hasToken bool) Decision {
	// the backend proxy namespace is never guarded
	if strings.HasPrefix(path, "/api") {
		return Decision{}
	}
	if !hasToken && !IsPublic(path) {
		return Decision{Redirect: LoginURL(path)}
	}
	if hasToken && path == "/login" {
		return Decision{Redirect: "/dashboard"}
	}
	return Decision{}
}

// LoginURL is the login page remembering from as the post-login destination
func LoginURL(from string) string {
	return "/login?from=" + strings.ReplaceAll(url.QueryEscape(from), "%2F", "/")
}

// currentPage is the path of the page an HTMX request was issued from, taken
// from HX-Current-URL. Empty when the header is missing or names a public page.
func currentPage(req *http.Request) string {
	u, err := url.Parse(req.Header.Get("HX-Current-URL"))
	if err != nil || u.Path == "" || !strings.HasPrefix(u.Path, "/") || IsPublic(u.Path) {
		return ""
	}
	return u.Path
}

// Guard redirects anonymous visitors to the login page and loads the session of
// signed-in ones. The token is attached to the request context so every backend
// call made while handling the request carries it.
func Guard(sessions *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			token := apiclient.TokenFromRequest(req)

			if d := Decide(req.URL.Path, token != ""); !d.Allowed() {
				// a fragment is no place to land after login, go back to its page
				if token == "" && IsHTMX(c) {
					if page := currentPage(req); page != "" {
						d.Redirect = LoginURL(page)
					}
				}
				return Redirect(c, d.Redirect)
			}
			if token == "" {
				return next(c)
			}

			s, err := sessions.Get(req.Context(), token)
			if err != nil {
				if !errors.Is(err, session.ErrNotFound) {
					c.Logger().Warnf("failed to load session profile: %v", err)
				}
				s = session.Session{Token: token}
			}

			c.SetRequest(req.WithContext(apiclient.WithToken(req.Context(), token)))
			c.Set(ContextSession, s)
			c.Set(ContextUserUID, s.User.UID)
			c.Set(ContextUser, s.User.Username)

			return next(c)
		}
	}
}

// CurrentSession returns the session loaded by Guard
func CurrentSession(c echo.Context) (session.Session, bool) {
	s, ok := c.Get(ContextSession).(session.Session)
	return s, ok
}

// Redirect navigates the browser to target, using HX-Redirect for HTMX requests
func Redirect(c echo.Context, target string) error {
	if IsHTMX(c) {
		c.Response().Header().Set("HX-Redirect", target)
		return c.NoContent(http.StatusOK)
	}
	if c.Request().Method == http.MethodGet || c.Request().Method == http.MethodHead {
		return c.Redirect(http.StatusTemporaryRedirect, target)
	}
	return c.Redirect(http.StatusSeeOther, target)
}
