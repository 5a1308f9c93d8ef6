package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"koalbot_console/web/templates/shared"
)

//go:embed layout/*.html partials/*.html views/*.html *.html
var files embed.FS

// Renderer uses per-page template cloning so that each view can define its own
// "content" block on top of the shared layout and partials.
type Renderer struct {
	base      *template.Template
	templates map[string]*template.Template
}

var (
	defaultOnce     sync.Once
	defaultRenderer *Renderer
)

// Default returns the renderer over the embedded templates
func Default() *Renderer {
	defaultOnce.Do(func() {
		defaultRenderer = NewRenderer(files)
	})
	return defaultRenderer
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"tanggalJam": func(t time.Time) string { return shared.FormatTanggal(t, true) },
	}
}

// NewRenderer parses templates from fsys: layout/ and partials/ form the base,
// every file in views/ is parsed into its own clone of it and top level files are
// standalone pages.
func NewRenderer(fsys fs.FS) *Renderer {
	templates := make(map[string]*template.Template)

	base := template.Must(template.New("").Funcs(funcs()).ParseFS(fsys, "layout/*.html"))
	template.Must(base.ParseFS(fsys, "partials/*.html"))

	views, err := fs.Glob(fsys, "views/*.html")
	if err != nil {
		panic(err)
	}
	for _, view := range views {
		t := template.Must(base.Clone())
		template.Must(t.ParseFS(fsys, view))
		templates[path.Base(view)] = t
	}

	standalone, _ := fs.Glob(fsys, "*.html")
	for _, page := range standalone {
		name := path.Base(page)
		if _, exists := templates[name]; !exists {
			templates[name] = template.Must(template.New(name).Funcs(funcs()).ParseFS(fsys, page))
		}
	}

	return &Renderer{base: base, templates: templates}
}

// Execute writes the page called name
func (r *Renderer) Execute(w io.Writer, name string, data any) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}
	if tmpl.Lookup("base") != nil {
		return tmpl.ExecuteTemplate(w, "base", data)
	}
	return tmpl.Execute(w, data)
}

// Fragment returns a partial template by its defined name
func (r *Renderer) Fragment(name string) (*template.Template, error) {
	t := r.base.Lookup(name)
	if t == nil {
		return nil, fmt.Errorf("fragment not found: %s", name)
	}
	return t, nil
}

// Render implements echo.Renderer
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	if _, ok := r.templates[name]; ok {
		return r.Execute(w, name, data)
	}
	t, err := r.Fragment(name)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return t.Execute(w, data)
}

// HTML renders a partial into a string, for table cells built in Go
func HTML(name string, data any) template.HTML {
	t, err := Default().Fragment(name)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(err.Error()))
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return template.HTML(template.HTMLEscapeString(err.Error()))
	}
	return template.HTML(buf.String())
}
