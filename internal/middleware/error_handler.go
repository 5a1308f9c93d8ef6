package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"koalbot_console/internal/apiclient"
	"koalbot_console/internal/session"
	"koalbot_console/web/templates/pages"
	"koalbot_console/web/templates/shared"
)

// SessionExpiredNotice is shown on the login page after a 401 from the backend
const SessionExpiredNotice = "Sesi berakhir, silakan login kembali"

// CustomErrorHandler renders error pages. A 401 from the backend ends the
// session: the cookie and cached profile are dropped and the browser is sent
// to the login page.
func CustomErrorHandler(sessions *session.Manager, secureCookies bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			c.Logger().Error(err)
			return
		}

		if errors.Is(err, apiclient.ErrUnauthorized) {
			endSession(c, sessions, secureCookies)
			return
		}

		code, errorTitle, errorMessage := describe(err)
		if code >= http.StatusInternalServerError {
			c.Logger().Error(err)
		} else {
			c.Logger().Debug(err)
		}

		if IsHTMX(c) {
			Toast(c, "error", errorMessage)
			if renderErr := c.NoContent(code); renderErr != nil {
				c.Logger().Error(renderErr)
			}
			return
		}

		s, _ := CurrentSession(c)
		path := c.Request().URL.Path
		layout := pages.NewLayout(errorTitle, path, s.User)
		layout.Breadcrumbs = []shared.Breadcrumb{
			{Title: "Home", URL: "/dashboard"},
			{Title: "Error", URL: ""},
		}

		props := pages.ErrorPageProps{
			Layout:       layout,
			Code:         code,
			ErrorTitle:   errorTitle,
			ErrorMessage: errorMessage,
			BackLink:     "/dashboard",
			BackText:     "Kembali ke Dashboard",
		}

		c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
		c.Response().WriteHeader(code)

		var renderErr error
		if s.Token == "" || isPublicPage(path) {
			props.BackLink, props.BackText = "/login", "Ke halaman login"
			renderErr = pages.PublicErrorPage(props).Render(c.Request().Context(), c.Response())
		} else {
			renderErr = pages.ErrorPage(props).Render(c.Request().Context(), c.Response())
		}
		if renderErr != nil {
			c.Logger().Error(fmt.Errorf("failed to render error page: %w", renderErr))
		}
	}
}

func describe(err error) (int, string, string) {
	code := http.StatusInternalServerError
	title := "Terjadi Kesalahan"
	message := ""

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" {
			message = msg
		}
	} else if msg := apiclient.MessageOf(err); msg != "" {
		message = msg
	}

	switch code {
	case http.StatusNotFound:
		title = "Halaman Tidak Ditemukan"
		if message == "" || message == http.StatusText(http.StatusNotFound) {
			message = "Halaman yang Anda cari tidak ada."
		}
	case http.StatusForbidden:
		title = AccessDeniedTitle
		if message == "" {
			message = AccessDeniedMessage
		}
	case http.StatusTooManyRequests:
		title = "Terlalu Banyak Permintaan"
		message = "Coba lagi beberapa saat lagi."
	case http.StatusBadRequest:
		title = "Permintaan Tidak Valid"
		if message == "" {
			message = "Permintaan tidak dapat diproses."
		}
	default:
		if message == "" || code >= http.StatusInternalServerError {
			message = "Terjadi kesalahan. Silakan coba lagi nanti."
		}
	}
	return code, title, message
}

func isPublicPage(path string) bool {
	return strings.HasPrefix(path, "/login") || strings.HasPrefix(path, "/auth") || strings.HasPrefix(path, "/static")
}

func endSession(c echo.Context, sessions *session.Manager, secureCookies bool) {
	token := apiclient.TokenFromRequest(c.Request())
	if token != "" && sessions != nil {
		if err := sessions.Clear(c.Request().Context(), token); err != nil {
			c.Logger().Errorf("failed to clear session: %v", err)
		}
	}
	ClearTokenCookie(c, secureCookies)
	SetFlash(c, SessionExpiredNotice)

	if IsHTMX(c) {
		c.Response().Header().Set("HX-Redirect", "/login")
		if err := c.NoContent(http.StatusOK); err != nil {
			c.Logger().Error(err)
		}
		return
	}
	if err := c.Redirect(http.StatusSeeOther, "/login"); err != nil {
		c.Logger().Error(err)
	}
}
