package pages

import (
	"koalbot_console/internal/dataview"
	"koalbot_console/internal/models"
	"koalbot_console/internal/navigation"
	"koalbot_console/internal/session"
	"koalbot_console/web/templates/shared"
)

// Layout is the data every page inside the console shell needs
type Layout struct {
	Title       string
	Path        string
	Breadcrumbs []shared.Breadcrumb
	User        session.Profile
	Sidebar     []navigation.Item
}

// NewLayout builds the shell for path as seen by user
func NewLayout(title, path string, user session.Profile) Layout {
	menu := navigation.Menu()
	crumbs := []shared.Breadcrumb{{Title: "Home", URL: "/dashboard"}}
	for _, l := range navigation.Breadcrumb(menu, path) {
		crumbs = append(crumbs, shared.Breadcrumb{Title: l.Title, URL: l.Path})
	}
	if len(crumbs) == 1 {
		crumbs = append(crumbs, shared.Breadcrumb{Title: title})
	}
	crumbs[len(crumbs)-1].URL = ""

	return Layout{
		Title:       title,
		Path:        path,
		Breadcrumbs: crumbs,
		User:        user,
		Sidebar:     navigation.Sidebar(menu, path, user.IsAdmin()),
	}
}

// LoginProps is the data of the standalone login page
type LoginProps struct {
	Username string
	From     string
	Error    string
	Flash    string
}

// ErrorPageProps is the data of both error pages
type ErrorPageProps struct {
	Layout
	Code         int
	ErrorTitle   string
	ErrorMessage string
	BackLink     string
	BackText     string
}

// DashboardProps is the dashboard page data
type DashboardProps struct {
	Layout
	Summary     models.Summary
	SummaryErr  string
	RecentAudit []models.AuditEntry
}

// Action is a button above a table
type Action struct {
	Label string
	URL   string
}

// TableProps is a data table and the controls driving it
type TableProps struct {
	ID     string
	Table  dataview.Table
	Action *Action
}

// EntityPageProps is a list page: a heading and one data table
type EntityPageProps struct {
	Layout
	Kicker  string
	Heading string
	Table   TableProps
}

// ToggleProps is the active switch of one row
type ToggleProps struct {
	URL    string
	Active bool
	Busy   bool
}

// RowActionsProps are the per-row buttons
type RowActionsProps struct {
	EditURL     string
	DeleteURL   string
	ConfirmText string
	Busy        bool
}

// UserFormProps is the create/edit dialog of a console user
type UserFormProps struct {
	Editing bool
	Action  string
	Target  string
	Form    models.UserForm
	Roles   []string
}

// MemberFormProps is the create dialog of a platform member
type MemberFormProps struct {
	Title  string
	Action string
	Target string
	Form   models.MemberForm
}

// PaletteProps is the command palette
type PaletteProps struct {
	Query    string
	Selected int
	Groups   []navigation.CommandGroup
	Empty    string
}
