package handlers

import (
	"errors"
	"strconv"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"koalbot_console/internal/apiclient"
	"koalbot_console/internal/middleware"
	"koalbot_console/internal/models"
	"koalbot_console/internal/services"
	"koalbot_console/internal/session"
)

// Toast levels understood by app.js
const (
	toastSuccess = "success"
	toastWarning = "warning"
	toastError   = "error"
)

// render writes component as the response body with the given status
func render(c echo.Context, status int, component templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return component.Render(c.Request().Context(), c.Response())
}

// Helper to safely get string from context
func getStringFromContext(c echo.Context, key string) string {
	val := c.Get(key)
	if val == nil {
		return ""
	}
	strVal, ok := val.(string)
	if !ok {
		return ""
	}
	return strVal
}

func currentSession(c echo.Context) session.Session {
	s, _ := middleware.CurrentSession(c)
	return s
}

// actor names the operator in audit entries
func actor(c echo.Context) string {
	if name := getStringFromContext(c, middleware.ContextUser); name != "" {
		return name
	}
	if uid := getStringFromContext(c, middleware.ContextUserUID); uid != "" {
		return uid
	}
	return "unknown"
}

func queryInt(c echo.Context, name string, fallback int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// notifyFailure turns a failed backend call into an error toast. A 401 is handed
// back so the global error handler ends the session.
func notifyFailure(c echo.Context, err error, message string) error {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return err
	}
	if msg := apiclient.MessageOf(err); msg != "" {
		message += ": " + msg
	}
	middleware.Toast(c, toastError, message)
	return nil
}

func recordAudit(c echo.Context, audit *services.AuditLog, action models.AuditAction, entity, id string, err error) {
	entry := models.AuditEntry{
		Actor:    actor(c),
		Action:   action,
		Entity:   entity,
		EntityID: id,
		Success:  err == nil,
	}
	if err != nil {
		entry.Detail = err.Error()
	}
	if recErr := audit.Record(c.Request().Context(), entry); recErr != nil {
		c.Logger().Errorf("%v", recErr)
	}
}
