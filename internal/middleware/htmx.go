package middleware

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"koalbot_console/internal/apiclient"
)

const (
	flashCookie    = "flash"
	triggersKey    = "hxTriggers"
	EventToast     = "toast"
	EventCloseForm = "closeModal"
)

// IsHTMX reports whether the request was issued by htmx
func IsHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}

// Trigger adds a client event to the HX-Trigger response header
func Trigger(c echo.Context, event string, detail any) {
	triggers, _ := c.Get(triggersKey).(map[string]any)
	if triggers == nil {
		triggers = make(map[string]any)
		c.Set(triggersKey, triggers)
	}
	if detail == nil {
		detail = true
	}
	triggers[event] = detail

	raw, err := json.Marshal(triggers)
	if err != nil {
		c.Logger().Errorf("failed to encode HX-Trigger: %v", err)
		return
	}
	c.Response().Header().Set("HX-Trigger", string(raw))
}

// Toast shows a notification in the browser
func Toast(c echo.Context, level, message string) {
	Trigger(c, EventToast, map[string]string{"level": level, "message": message})
}

// SetTokenCookie stores the bearer token for maxAge seconds
func SetTokenCookie(c echo.Context, token string, maxAge int, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     apiclient.TokenCookie,
		Value:    url.QueryEscape(token),
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  time.Now().Add(time.Duration(maxAge) * time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie removes the bearer token from the browser
func ClearTokenCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     apiclient.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetFlash leaves a one-time notice for the next page
func SetFlash(c echo.Context, message string) {
	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash reads and removes the flash notice
func PopFlash(c echo.Context) string {
	cookie, err := c.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	c.SetCookie(&http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	msg, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return cookie.Value
	}
	return msg
}
