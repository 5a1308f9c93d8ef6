package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"koalbot_console/internal/apiclient"
	"koalbot_console/internal/middleware"
	"koalbot_console/internal/models"
	"koalbot_console/internal/services"
	"koalbot_console/internal/session"
	"koalbot_console/web/templates/pages"
)

const defaultLanding = "/dashboard"

// Login failure messages shown on the login form
const (
	msgMissingFields      = "Username dan password wajib diisi"
	msgInvalidCredentials = "Username atau password salah"
	msgUserInactive       = "Akun tidak aktif"
	msgBackendUnreachable = "Server tidak dapat dihubungi, coba lagi nanti"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	client        *apiclient.Client
	sessions      *session.Manager
	audit         *services.AuditLog
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(client *apiclient.Client, sessions *session.Manager, audit *services.AuditLog, secureCookies bool) *AuthHandler {
	return &AuthHandler{client: client, sessions: sessions, audit: audit, secureCookies: secureCookies}
}

// LoginPage renders the login page
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return render(c, http.StatusOK, pages.Login(pages.LoginProps{
		From:  c.QueryParam("from"),
		Flash: middleware.PopFlash(c),
	}))
}

// HandleLogin exchanges the submitted credentials for a backend token and
// stores it in the token cookie
func (h *AuthHandler) HandleLogin(c echo.Context) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	from := c.FormValue("from")

	props := pages.LoginProps{Username: username, From: from}
	if username == "" || password == "" {
		props.Error = msgMissingFields
		return render(c, http.StatusOK, pages.Login(props))
	}

	ctx := c.Request().Context()
	res, err := h.client.Login(ctx, username, password)
	if err == nil && res.Token == "" {
		err = errors.New("login response without token")
	}
	h.record(c, username, models.AuditActionLogin, err)
	if err != nil {
		c.Logger().Infof("login failed for %s: %v", username, err)
		props.Error = loginError(err)
		return render(c, http.StatusOK, pages.Login(props))
	}

	s := session.Session{
		Token: res.Token,
		User: session.Profile{
			UID:      res.User.UID,
			Username: res.User.Username,
			Role:     res.User.Role,
			RoleName: res.User.RoleName,
		},
	}
	if err := h.sessions.Set(ctx, s); err != nil {
		// the role stays unknown until the next login
		c.Logger().Errorf("failed to cache profile: %v", err)
	}

	middleware.SetTokenCookie(c, res.Token, cookieMaxAge(res, time.Now(), h.sessions.TTL()), h.secureCookies)
	return c.Redirect(http.StatusSeeOther, safeRedirect(from))
}

// HandleLogout revokes the token on the backend and forgets the session
func (h *AuthHandler) HandleLogout(c echo.Context) error {
	ctx := c.Request().Context()
	token := apiclient.TokenFromRequest(c.Request())

	if err := h.client.Logout(ctx); err != nil {
		c.Logger().Debugf("backend logout failed: %v", err)
	}
	if err := h.sessions.Clear(ctx, token); err != nil {
		c.Logger().Errorf("failed to clear session: %v", err)
	}
	h.record(c, actor(c), models.AuditActionLogout, nil)

	middleware.ClearTokenCookie(c, h.secureCookies)
	return middleware.Redirect(c, "/login")
}

func (h *AuthHandler) record(c echo.Context, username string, action models.AuditAction, err error) {
	entry := models.AuditEntry{Actor: username, Action: action, Entity: "session", Success: err == nil}
	if err != nil {
		entry.Detail = err.Error()
	}
	if recErr := h.audit.Record(c.Request().Context(), entry); recErr != nil {
		c.Logger().Errorf("%v", recErr)
	}
}

// loginError maps a failed login to the text shown on the form
func loginError(err error) string {
	msg := apiclient.MessageOf(err)
	switch msg {
	case "invalid_credentials":
		return msgInvalidCredentials
	case "user_inactive":
		return msgUserInactive
	case "":
		var reqErr *apiclient.RequestError
		if errors.As(err, &reqErr) && reqErr.Status == http.StatusUnauthorized {
			return msgInvalidCredentials
		}
		return msgBackendUnreachable
	}
	return msg
}

// cookieMaxAge is the token lifetime in seconds: expires_at when the backend
// sends it, else the exp claim of the token, else fallback
func cookieMaxAge(res apiclient.LoginResponse, now time.Time, fallback time.Duration) int {
	if res.ExpiresAt != nil {
		if d := res.ExpiresAt.Sub(now); d > 0 {
			return int(d.Seconds())
		}
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(res.Token, &claims); err == nil && claims.ExpiresAt != nil {
		if d := claims.ExpiresAt.Sub(now); d > 0 {
			return int(d.Seconds())
		}
	}
	return int(fallback.Seconds())
}

// safeRedirect keeps post-login navigation on this site
func safeRedirect(from string) string {
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return defaultLanding
	}
	if from == "/login" || strings.HasPrefix(from, "/auth/") {
		return defaultLanding
	}
	return from
}
