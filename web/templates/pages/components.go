package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"koalbot_console/internal/dataview"
)

func view(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return Default().Execute(w, name, data)
	})
}

func fragment(name string, data any) templ.Component {
	t, err := Default().Fragment(name)
	if err != nil {
		return templ.ComponentFunc(func(context.Context, io.Writer) error { return err })
	}
	return templ.FromGoHTML(t, data)
}

func Login(props LoginProps) templ.Component { return view("login.html", props) }

func Dashboard(props DashboardProps) templ.Component { return view("dashboard.html", props) }

func EntityPage(props EntityPageProps) templ.Component { return view("entity.html", props) }

func ErrorPage(props ErrorPageProps) templ.Component { return view("error.html", props) }

func PublicErrorPage(props ErrorPageProps) templ.Component {
	return view("public_error.html", props)
}

// TableBody is the part of a data table replaced on search, paging and create
func TableBody(props TableProps) templ.Component { return fragment("table_body", props) }

// TableRow is one row, replaced after a toggle
func TableRow(row dataview.Row) templ.Component { return fragment("table_row", row) }

func UserForm(props UserFormProps) templ.Component { return fragment("user_form", props) }

func MemberForm(props MemberFormProps) templ.Component { return fragment("member_form", props) }

func Palette(props PaletteProps) templ.Component { return fragment("palette", props) }

func PaletteResults(props PaletteProps) templ.Component { return fragment("palette_results", props) }
