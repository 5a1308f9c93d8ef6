package pages

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koalbot_console/internal/dataview"
	"koalbot_console/internal/models"
	"koalbot_console/internal/navigation"
	"koalbot_console/internal/session"
)

func TestLogin(t *testing.T) {
	var buf bytes.Buffer
	err := Login(LoginProps{Username: "admin", From: "/users", Error: "Username atau password salah"}).Render(context.Background(), &buf)
	require.NoError(t, err)

	body := buf.String()
	assert.Contains(t, body, `action="/auth/login"`)
	assert.Contains(t, body, `value="/users"`)
	assert.Contains(t, body, "Username atau password salah")
}

func TestNewLayout(t *testing.T) {
	admin := session.Profile{Username: "root", Role: models.RoleAdmin}

	layout := NewLayout("Member Stockity", "/master/member_stockity", admin)
	require.Len(t, layout.Breadcrumbs, 3)
	assert.Equal(t, "Home", layout.Breadcrumbs[0].Title)
	assert.Equal(t, "Stockity", layout.Breadcrumbs[2].Title)
	assert.Empty(t, layout.Breadcrumbs[2].URL)

	layout = NewLayout("Error", "/nowhere", admin)
	require.Len(t, layout.Breadcrumbs, 2)
	assert.Equal(t, "Error", layout.Breadcrumbs[1].Title)
}

func TestEntityPage(t *testing.T) {
	cols := []dataview.Column[models.User]{{Key: "username", Label: "Username"}}
	users := []models.User{{UID: "u-1", Username: "alice"}}
	table := dataview.Build(cols, users, func(u models.User) string { return u.UID },
		models.Pagination{Page: 1, Limit: 10, Total: 1}, dataview.Options{Endpoint: "/users/table"})

	props := EntityPageProps{
		Layout:  NewLayout("Users", "/users", session.Profile{Username: "root", Role: models.RoleAdmin}),
		Kicker:  "Manajemen User",
		Heading: "Users",
		Table:   TableProps{ID: "users", Table: table, Action: &Action{Label: "Tambah User", URL: "/users/new"}},
	}

	var buf bytes.Buffer
	require.NoError(t, EntityPage(props).Render(context.Background(), &buf))
	body := buf.String()
	assert.Contains(t, body, `id="users-body"`)
	assert.Contains(t, body, `id="row-u-1"`)
	assert.Contains(t, body, "Tambah User")
	assert.Contains(t, body, "Halaman 1 dari 1")
	assert.Contains(t, body, "Master Pengguna")
}

func TestTableBodyEmpty(t *testing.T) {
	table := dataview.Build([]dataview.Column[models.User]{{Key: "username", Label: "Username"}}, nil, nil,
		models.Pagination{Page: 1, Limit: 10}, dataview.Options{Endpoint: "/users/table"})

	var buf bytes.Buffer
	require.NoError(t, TableBody(TableProps{ID: "users", Table: table}).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), dataview.EmptyText)
	assert.Contains(t, buf.String(), "Total Data: 0")
}

func TestFragments(t *testing.T) {
	toggle := HTML("toggle", ToggleProps{URL: "/users/u-1/toggle", Active: true})
	assert.Contains(t, string(toggle), `hx-post="/users/u-1/toggle"`)
	assert.Contains(t, string(toggle), "checked")

	actions := HTML("row_actions", RowActionsProps{DeleteURL: "/users/u-1", ConfirmText: "Hapus?"})
	assert.Contains(t, string(actions), "Hapus")
	assert.NotContains(t, string(actions), "Edit")

	var buf bytes.Buffer
	require.NoError(t, UserForm(UserFormProps{Editing: true, Action: "/users/u-1", Roles: models.Roles}).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "Kosongkan jika tidak diubah")
	assert.Contains(t, buf.String(), `hx-put="/users/u-1"`)
}

func TestPaletteResults(t *testing.T) {
	p := navigation.NewPalette(navigation.Commands(navigation.Menu()))
	p.SetQuery("stock")

	var buf bytes.Buffer
	props := PaletteProps{Query: p.Query(), Selected: p.Selected(), Groups: p.Groups()}
	require.NoError(t, PaletteResults(props).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "Data Pengguna / Stockity")
	assert.Contains(t, buf.String(), "selected")
}
