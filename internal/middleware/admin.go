package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Access denied texts shown by RequireAdmin
const (
	AccessDeniedTitle   = "Akses ditolak"
	AccessDeniedMessage = "Halaman ini hanya untuk admin."
)

// RequireAdmin hides admin pages from other roles. The backend still enforces
// authorization on every call.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, _ := CurrentSession(c)
			if !s.User.IsAdmin() {
				return echo.NewHTTPError(http.StatusForbidden, AccessDeniedMessage)
			}
			return next(c)
		}
	}
}
