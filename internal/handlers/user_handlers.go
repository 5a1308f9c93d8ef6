package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"koalbot_console/internal/apiclient"
	"koalbot_console/internal/crud"
	"koalbot_console/internal/dataview"
	"koalbot_console/internal/middleware"
	"koalbot_console/internal/models"
	"koalbot_console/internal/services"
	"koalbot_console/web/templates/pages"
)

const (
	usersPath    = "/users"
	usersTableID = "users"
)

// UserHandler serves the console user management page
type UserHandler struct {
	controllers *crud.Registry[models.User]
	audit       *services.AuditLog
	debounce    time.Duration
}

// NewUserHandler creates a UserHandler keeping one view model per session
func NewUserHandler(client *apiclient.Client, audit *services.AuditLog, defaultLimit int, debounce time.Duration, logger crud.Logger) *UserHandler {
	source := userSource{client: client}
	return &UserHandler{
		controllers: crud.NewRegistry(func(string) *crud.Controller[models.User] {
			return crud.NewController[models.User](source, userEntity, defaultLimit, logger)
		}),
		audit:    audit,
		debounce: debounce,
	}
}

// Forget drops the view model of a session
func (h *UserHandler) Forget(sessionKey string) {
	h.controllers.Drop(sessionKey)
}

// Sweep drops view models idle for longer than idle
func (h *UserHandler) Sweep(idle time.Duration) int {
	return h.controllers.Sweep(idle)
}

func (h *UserHandler) controller(c echo.Context) *crud.Controller[models.User] {
	return h.controllers.For(currentSession(c).Key(), "")
}

func (h *UserHandler) columns(snap crud.Snapshot[models.User]) []dataview.Column[models.User] {
	return []dataview.Column[models.User]{
		{Key: "username", Label: "Username"},
		{Key: "role", Label: "Role"},
		{Key: "active", Label: "Status", Render: func(u models.User) template.HTML {
			return pages.HTML("toggle", pages.ToggleProps{
				URL:    usersPath + "/" + u.UID + "/toggle",
				Active: u.Active,
				Busy:   snap.Busy(u.UID),
			})
		}},
		{Key: "actions", Label: "Aksi", Render: func(u models.User) template.HTML {
			return pages.HTML("row_actions", pages.RowActionsProps{
				EditURL:     usersPath + "/" + u.UID + "/edit",
				DeleteURL:   usersPath + "/" + u.UID,
				ConfirmText: "Apakah anda yakin ingin menghapus user " + u.Username + "?",
				Busy:        snap.Busy(u.UID),
			})
		}},
	}
}

func (h *UserHandler) table(snap crud.Snapshot[models.User]) pages.TableProps {
	t := dataview.Build(h.columns(snap), snap.Rows, userEntity.ID, snap.Pagination, dataview.Options{
		Endpoint: usersPath + "/table",
		Search:   snap.Search,
		Loading:  snap.Status == crud.StatusLoading,
		Debounce: h.debounce,
	})
	return pages.TableProps{
		ID:     usersTableID,
		Table:  t,
		Action: &pages.Action{Label: "Tambah User", URL: usersPath + "/new"},
	}
}

func (h *UserHandler) row(ctrl *crud.Controller[models.User], uid string) (dataview.Row, bool) {
	for _, r := range h.table(ctrl.Snapshot()).Table.Rows {
		if r.ID == uid {
			return r, true
		}
	}
	return dataview.Row{}, false
}

// ListUsers renders the user management page
func (h *UserHandler) ListUsers(c echo.Context) error {
	ctrl := h.controller(c)
	err := ctrl.Load(c.Request().Context(), 1, queryInt(c, "limit", 0), c.QueryParam("search"))
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return err
	}

	props := pages.EntityPageProps{
		Layout:  pages.NewLayout("Users", usersPath, currentSession(c).User),
		Kicker:  "Manajemen User",
		Heading: "Users",
		Table:   h.table(ctrl.Snapshot()),
	}
	return render(c, http.StatusOK, pages.EntityPage(props))
}

// Table re-renders the table body after a search, page or limit change
func (h *UserHandler) Table(c echo.Context) error {
	ctrl := h.controller(c)
	if err := load(c, ctrl); err != nil {
		if err := notifyFailure(c, err, "Gagal memuat data"); err != nil {
			return err
		}
	}
	return render(c, http.StatusOK, pages.TableBody(h.table(ctrl.Snapshot())))
}

// NewUserForm renders the create dialog
func (h *UserHandler) NewUserForm(c echo.Context) error {
	return render(c, http.StatusOK, pages.UserForm(pages.UserFormProps{
		Action: usersPath,
		Target: "#" + usersTableID + "-body",
		Form:   models.NewUserForm(),
		Roles:  models.Roles,
	}))
}

// EditUserForm renders the edit dialog prefilled from the row on screen
func (h *UserHandler) EditUserForm(c echo.Context) error {
	uid := c.Param("uid")
	u, ok := h.controller(c).Row(uid)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "User tidak ditemukan")
	}
	return render(c, http.StatusOK, pages.UserForm(pages.UserFormProps{
		Editing: true,
		Action:  usersPath + "/" + uid,
		Target:  "#" + usersTableID + "-body",
		Form:    models.UserFormFrom(u),
		Roles:   models.Roles,
	}))
}

func bindUserForm(c echo.Context) models.UserForm {
	return models.UserForm{
		Username: c.FormValue("username"),
		Password: c.FormValue("password"),
		Role:     c.FormValue("role"),
		Active:   c.FormValue("active") == "true",
	}
}

// StoreUser creates a user and re-renders page 1
func (h *UserHandler) StoreUser(c echo.Context) error {
	req, err := bindUserForm(c).CreateRequest()
	if err != nil {
		return c.NoContent(http.StatusNoContent)
	}

	ctrl := h.controller(c)
	err = ctrl.Create(c.Request().Context(), req)
	recordAudit(c, h.audit, models.AuditActionCreate, userEntity.Name, req.Username, err)
	if err != nil {
		if err := notifyFailure(c, err, "Gagal menambahkan user"); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}

	middleware.Trigger(c, middleware.EventCloseForm, nil)
	middleware.Toast(c, toastSuccess, "User berhasil ditambahkan")
	return render(c, http.StatusOK, pages.TableBody(h.table(ctrl.Snapshot())))
}

// UpdateUser sends only the fields that changed
func (h *UserHandler) UpdateUser(c echo.Context) error {
	uid := c.Param("uid")
	ctrl := h.controller(c)
	orig, ok := ctrl.Row(uid)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "User tidak ditemukan")
	}

	patch, err := bindUserForm(c).Diff(orig)
	if err != nil {
		return c.NoContent(http.StatusNoContent)
	}
	if len(patch) == 0 {
		middleware.Trigger(c, middleware.EventCloseForm, nil)
		return c.NoContent(http.StatusNoContent)
	}

	err = ctrl.Update(c.Request().Context(), uid, patch)
	recordAudit(c, h.audit, models.AuditActionUpdate, userEntity.Name, uid, err)
	if err != nil {
		if err := notifyFailure(c, err, "Gagal menyimpan user"); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}

	middleware.Trigger(c, middleware.EventCloseForm, nil)
	middleware.Toast(c, toastSuccess, "User berhasil diperbarui")
	return render(c, http.StatusOK, pages.TableBody(h.table(ctrl.Snapshot())))
}

// ToggleUser flips the active flag of one row and re-renders that row
func (h *UserHandler) ToggleUser(c echo.Context) error {
	uid := c.Param("uid")
	next, err := strconv.ParseBool(c.FormValue("next"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Status tidak valid")
	}
	return toggleRow(c, h.controller(c), h.audit, userEntity.Name, uid, next, h.row)
}

// DeleteUser removes a user. The emptied response removes the row.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	return deleteRow(c, h.controller(c), h.audit, userEntity.Name, c.Param("uid"), h.row)
}
