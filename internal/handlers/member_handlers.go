package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"koalbot_console/internal/apiclient"
	"koalbot_console/internal/crud"
	"koalbot_console/internal/dataview"
	"koalbot_console/internal/middleware"
	"koalbot_console/internal/models"
	"koalbot_console/internal/services"
	"koalbot_console/web/templates/pages"
	"koalbot_console/web/templates/shared"
)

const memberSlugPrefix = "member_"

// MemberHandler serves the per-platform member lists under /master/member_<jenis>
type MemberHandler struct {
	controllers *crud.Registry[models.Member]
	audit       *services.AuditLog
	debounce    time.Duration
}

// NewMemberHandler creates a MemberHandler keeping one view model per session and platform
func NewMemberHandler(client *apiclient.Client, audit *services.AuditLog, defaultLimit int, debounce time.Duration, logger crud.Logger) *MemberHandler {
	return &MemberHandler{
		controllers: crud.NewRegistry(func(scope string) *crud.Controller[models.Member] {
			source := memberSource{client: client, jenis: models.Jenis(scope)}
			return crud.NewController[models.Member](source, memberEntity, defaultLimit, logger)
		}),
		audit:    audit,
		debounce: debounce,
	}
}

// Forget drops every view model of a session
func (h *MemberHandler) Forget(sessionKey string) {
	h.controllers.Drop(sessionKey)
}

// Sweep drops view models idle for longer than idle
func (h *MemberHandler) Sweep(idle time.Duration) int {
	return h.controllers.Sweep(idle)
}

// jenis resolves the :slug route parameter
func jenis(c echo.Context) (models.Jenis, error) {
	slug := c.Param("slug")
	if j, ok := models.ParseJenis(strings.TrimPrefix(slug, memberSlugPrefix)); ok && strings.HasPrefix(slug, memberSlugPrefix) {
		return j, nil
	}
	return "", echo.NewHTTPError(http.StatusNotFound, "Halaman yang Anda cari tidak ada.")
}

func memberPath(j models.Jenis) string {
	return "/master/" + memberSlugPrefix + string(j)
}

func (h *MemberHandler) controller(c echo.Context, j models.Jenis) *crud.Controller[models.Member] {
	return h.controllers.For(currentSession(c).Key(), string(j))
}

func (h *MemberHandler) columns(j models.Jenis, snap crud.Snapshot[models.Member]) []dataview.Column[models.Member] {
	base := memberPath(j)
	return []dataview.Column[models.Member]{
		{Key: "id", Label: "ID"},
		{Key: "id_pengguna", Label: "ID Pengguna"},
		{Key: "telegram", Label: "Telegram", Render: func(m models.Member) template.HTML {
			if m.Telegram == nil || *m.Telegram == "" {
				return "-"
			}
			return template.HTML(template.HTMLEscapeString(*m.Telegram))
		}},
		{Key: "active", Label: "Status", Render: func(m models.Member) template.HTML {
			return pages.HTML("toggle", pages.ToggleProps{
				URL:    base + "/" + m.Key() + "/toggle",
				Active: m.Active,
				Busy:   snap.Busy(m.Key()),
			})
		}},
		{Key: "created_at", Label: "Dibuat pada", Render: func(m models.Member) template.HTML {
			return template.HTML(template.HTMLEscapeString(shared.FormatTanggal(m.CreatedAt, true)))
		}},
		{Key: "actions", Label: "Aksi", Render: func(m models.Member) template.HTML {
			return pages.HTML("row_actions", pages.RowActionsProps{
				DeleteURL:   base + "/" + m.Key(),
				ConfirmText: "Apakah anda yakin ingin menghapus user ?\nID Pengguna: " + strconv.FormatInt(m.IDPengguna, 10),
				Busy:        snap.Busy(m.Key()),
			})
		}},
	}
}

func tableID(j models.Jenis) string {
	return "members-" + string(j)
}

func (h *MemberHandler) table(j models.Jenis, snap crud.Snapshot[models.Member]) pages.TableProps {
	t := dataview.Build(h.columns(j, snap), snap.Rows, models.Member.Key, snap.Pagination, dataview.Options{
		Endpoint: memberPath(j) + "/table",
		Search:   snap.Search,
		Loading:  snap.Status == crud.StatusLoading,
		Debounce: h.debounce,
	})
	return pages.TableProps{
		ID:     tableID(j),
		Table:  t,
		Action: &pages.Action{Label: "Tambah Pengguna", URL: memberPath(j) + "/new"},
	}
}

func (h *MemberHandler) rowRenderer(j models.Jenis) rowRenderer[models.Member] {
	return func(ctrl *crud.Controller[models.Member], id string) (dataview.Row, bool) {
		for _, r := range h.table(j, ctrl.Snapshot()).Table.Rows {
			if r.ID == id {
				return r, true
			}
		}
		return dataview.Row{}, false
	}
}

// ListMembers renders the member list of one platform
func (h *MemberHandler) ListMembers(c echo.Context) error {
	j, err := jenis(c)
	if err != nil {
		return err
	}
	ctrl := h.controller(c, j)
	err = ctrl.Load(c.Request().Context(), 1, queryInt(c, "limit", 0), c.QueryParam("search"))
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return err
	}

	title := "Member " + j.Title()
	props := pages.EntityPageProps{
		Layout:  pages.NewLayout(title, memberPath(j), currentSession(c).User),
		Kicker:  "Data Pengguna",
		Heading: title,
		Table:   h.table(j, ctrl.Snapshot()),
	}
	return render(c, http.StatusOK, pages.EntityPage(props))
}

// Table re-renders the table body after a search, page or limit change
func (h *MemberHandler) Table(c echo.Context) error {
	j, err := jenis(c)
	if err != nil {
		return err
	}
	ctrl := h.controller(c, j)
	if err := load(c, ctrl); err != nil {
		if err := notifyFailure(c, err, "Gagal memuat data"); err != nil {
			return err
		}
	}
	return render(c, http.StatusOK, pages.TableBody(h.table(j, ctrl.Snapshot())))
}

// NewMemberForm renders the add dialog
func (h *MemberHandler) NewMemberForm(c echo.Context) error {
	j, err := jenis(c)
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, pages.MemberForm(pages.MemberFormProps{
		Title:  "Tambah Pengguna",
		Action: memberPath(j),
		Target: "#" + tableID(j) + "-body",
		Form:   models.MemberForm{Active: true},
	}))
}

// StoreMember adds a member to the platform and re-renders page 1
func (h *MemberHandler) StoreMember(c echo.Context) error {
	j, err := jenis(c)
	if err != nil {
		return err
	}
	form := models.MemberForm{
		IDPengguna: c.FormValue("id_pengguna"),
		Telegram:   c.FormValue("telegram"),
		Active:     c.FormValue("active") == "true",
	}
	req, err := form.CreateRequest(j)
	if err != nil {
		return c.NoContent(http.StatusNoContent)
	}

	ctrl := h.controller(c, j)
	err = ctrl.Create(c.Request().Context(), req)
	recordAudit(c, h.audit, models.AuditActionCreate, memberEntity.Name, strconv.FormatInt(req.IDPengguna, 10), err)
	if err != nil {
		if err := notifyFailure(c, err, "Gagal menambahkan pengguna"); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}

	middleware.Trigger(c, middleware.EventCloseForm, nil)
	middleware.Toast(c, toastSuccess, "Pengguna berhasil ditambahkan")
	return render(c, http.StatusOK, pages.TableBody(h.table(j, ctrl.Snapshot())))
}

// ToggleMember flips the active flag of one row and re-renders that row
func (h *MemberHandler) ToggleMember(c echo.Context) error {
	j, err := jenis(c)
	if err != nil {
		return err
	}
	next, err := strconv.ParseBool(c.FormValue("next"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Status tidak valid")
	}
	return toggleRow(c, h.controller(c, j), h.audit, memberEntity.Name, c.Param("id"), next, h.rowRenderer(j))
}

// DeleteMember removes a member. The emptied response removes the row.
func (h *MemberHandler) DeleteMember(c echo.Context) error {
	j, err := jenis(c)
	if err != nil {
		return err
	}
	return deleteRow(c, h.controller(c, j), h.audit, memberEntity.Name, c.Param("id"), h.rowRenderer(j))
}
