package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"koalbot_console/internal/services"
)

// StatusHandler streams the backend status to the sidebar indicator
type StatusHandler struct {
	monitor  *services.StatusMonitor
	shutdown <-chan struct{}
}

// NewStatusHandler creates a new StatusHandler. Open streams end when shutdown
// is closed; a nil channel keeps them open until the client leaves.
func NewStatusHandler(monitor *services.StatusMonitor, shutdown <-chan struct{}) *StatusHandler {
	return &StatusHandler{monitor: monitor, shutdown: shutdown}
}

// Stream serves server-sent "status" events until the client goes away or the
// server shuts down
func (h *StatusHandler) Stream(c echo.Context) error {
	updates, unsubscribe := h.monitor.Subscribe()
	defer unsubscribe()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeStatus(w, h.monitor.Current()); err != nil {
		return nil
	}

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.shutdown:
			return nil
		case status := <-updates:
			if err := writeStatus(w, status); err != nil {
				return nil
			}
		}
	}
}

func writeStatus(w *echo.Response, status services.BackendStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: status\ndata: %s\n\n", data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
