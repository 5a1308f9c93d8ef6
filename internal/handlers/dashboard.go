package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"koalbot_console/internal/apiclient"
	"koalbot_console/internal/models"
	"koalbot_console/internal/services"
	"koalbot_console/web/templates/pages"
)

const recentAuditLimit = 10

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	client   *apiclient.Client
	cache    *services.RedisCache
	cacheTTL time.Duration
	audit    *services.AuditLog
}

// NewDashboardHandler creates a new DashboardHandler. cache may be nil, the
// summary is then fetched on every visit.
func NewDashboardHandler(client *apiclient.Client, cache *services.RedisCache, cacheTTL time.Duration, audit *services.AuditLog) *DashboardHandler {
	return &DashboardHandler{client: client, cache: cache, cacheTTL: cacheTTL, audit: audit}
}

// Dashboard renders the summary cards and the latest console activity
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	s := currentSession(c)

	props := pages.DashboardProps{
		Layout: pages.NewLayout("Dashboard", "/dashboard", s.User),
	}

	summary, err := h.summary(c, "summary:"+s.Key())
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		c.Logger().Errorf("failed to load dashboard summary: %v", err)
		props.SummaryErr = "Gagal memuat ringkasan"
	}
	props.Summary = summary

	recent, err := h.audit.Recent(ctx, recentAuditLimit)
	if err != nil {
		c.Logger().Errorf("%v", err)
	}
	props.RecentAudit = recent

	return render(c, http.StatusOK, pages.Dashboard(props))
}

func (h *DashboardHandler) summary(c echo.Context, key string) (models.Summary, error) {
	ctx := c.Request().Context()
	fetch := func() (models.Summary, error) {
		return h.client.Summary(ctx)
	}
	if h.cache == nil {
		return fetch()
	}

	if c.QueryParam("refresh") == "1" {
		if err := h.cache.Delete(ctx, key); err != nil {
			c.Logger().Warnf("failed to drop cached summary: %v", err)
		}
	}
	return services.GetOrSet(h.cache, ctx, key, h.cacheTTL, fetch)
}
