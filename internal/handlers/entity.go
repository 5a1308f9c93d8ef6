package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"koalbot_console/internal/crud"
	"koalbot_console/internal/dataview"
	"koalbot_console/internal/middleware"
	"koalbot_console/internal/models"
	"koalbot_console/internal/services"
	"koalbot_console/web/templates/pages"
)

// rowRenderer renders the row with id from the controller's current page
type rowRenderer[T any] func(ctrl *crud.Controller[T], id string) (dataview.Row, bool)

// load applies the page, limit and search query parameters. Missing ones fall
// back to page 1 and the current limit and search.
func load[T any](c echo.Context, ctrl *crud.Controller[T]) error {
	q := ctrl.Query()
	search := q.Search
	if _, ok := c.QueryParams()["search"]; ok {
		search = c.QueryParam("search")
	}
	return ctrl.Load(c.Request().Context(), queryInt(c, "page", 1), queryInt(c, "limit", q.Limit), search)
}

// toggleRow runs an optimistic toggle and answers with the settled row
func toggleRow[T any](c echo.Context, ctrl *crud.Controller[T], audit *services.AuditLog, entity, id string, next bool, row rowRenderer[T]) error {
	err := ctrl.Toggle(c.Request().Context(), id, next)
	switch {
	case errors.Is(err, crud.ErrRowNotFound):
		// the page on screen is older than this process' view model
		c.Response().Header().Set("HX-Refresh", "true")
		return c.NoContent(http.StatusOK)
	case errors.Is(err, crud.ErrRowBusy):
		middleware.Toast(c, toastWarning, "Data sedang diproses")
	default:
		recordAudit(c, audit, models.AuditActionToggle, entity, id, err)
		if err != nil {
			if err := notifyFailure(c, err, "Gagal mengubah status"); err != nil {
				return err
			}
		}
	}

	r, ok := row(ctrl, id)
	if !ok {
		return c.NoContent(http.StatusOK)
	}
	return render(c, http.StatusOK, pages.TableRow(r))
}

// deleteRow removes a row once the backend confirms; on failure the row is re-rendered unchanged
func deleteRow[T any](c echo.Context, ctrl *crud.Controller[T], audit *services.AuditLog, entity, id string, row rowRenderer[T]) error {
	err := ctrl.Delete(c.Request().Context(), id)
	switch {
	case err == nil:
		recordAudit(c, audit, models.AuditActionDelete, entity, id, nil)
		middleware.Toast(c, toastSuccess, "Data berhasil dihapus")
		return c.String(http.StatusOK, "")
	case errors.Is(err, crud.ErrRowBusy):
		middleware.Toast(c, toastWarning, "Data sedang diproses")
	default:
		recordAudit(c, audit, models.AuditActionDelete, entity, id, err)
		if err := notifyFailure(c, err, "Gagal menghapus data"); err != nil {
			return err
		}
	}

	r, ok := row(ctrl, id)
	if !ok {
		c.Response().Header().Set("HX-Refresh", "true")
		return c.NoContent(http.StatusOK)
	}
	return render(c, http.StatusOK, pages.TableRow(r))
}
