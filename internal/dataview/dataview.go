// Package dataview turns a page of records into a renderable table with search,
// page-size and pagination controls. It never fetches anything itself.
package dataview

import (
	"fmt"
	"html/template"
	"reflect"
	"strconv"
	"strings"
	"time"

	"koalbot_console/internal/models"
)

// LimitOptions are the page sizes offered in the limit selector
var LimitOptions = []int{10, 20, 50, 100}

// EmptyText is shown when a page has no rows
const EmptyText = "Tidak ada data"

// Column describes one table column. Without Render the cell shows the record
// field whose json name equals Key.
type Column[T any] struct {
	Key    string
	Label  string
	Render func(T) template.HTML
}

// Header is a rendered column header
type Header struct {
	Key   string
	Label string
}

// Cell is a rendered table cell
type Cell struct {
	Key  string
	HTML template.HTML
}

// Row is a rendered table row
type Row struct {
	ID    string
	Cells []Cell
}

// Options carries the view state that is not part of the data
type Options struct {
	// Endpoint receives page, limit and search as query parameters
	Endpoint string
	Search   string
	Loading  bool
	Debounce time.Duration
}

// Table is everything the table template needs
type Table struct {
	Headers    []Header
	Rows       []Row
	Pagination models.Pagination
	Pages      int
	Links      []PageLink
	Limits     []int
	Search     string
	Loading    bool
	Endpoint   string
	Debounce   string
	EmptyText  string
}

// Build renders rows through columns. rowID may be nil, in which case rows are
// keyed by position; that is only safe while rows are never reordered.
func Build[T any](columns []Column[T], rows []T, rowID func(T) string, p models.Pagination, opts Options) Table {
	headers := make([]Header, len(columns))
	for i, col := range columns {
		headers[i] = Header{Key: col.Key, Label: col.Label}
	}

	out := make([]Row, len(rows))
	for i, item := range rows {
		id := strconv.Itoa(i)
		if rowID != nil {
			id = rowID(item)
		}
		cells := make([]Cell, len(columns))
		for j, col := range columns {
			var html template.HTML
			if col.Render != nil {
				html = col.Render(item)
			} else {
				html = template.HTML(template.HTMLEscapeString(FieldText(item, col.Key)))
			}
			cells[j] = Cell{Key: col.Key, HTML: html}
		}
		out[i] = Row{ID: id, Cells: cells}
	}

	pages := PageCount(p.Total, p.Limit)
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	return Table{
		Headers:    headers,
		Rows:       out,
		Pagination: p,
		Pages:      pages,
		Links:      PageLinks(p.Page, pages),
		Limits:     LimitOptions,
		Search:     opts.Search,
		Loading:    opts.Loading,
		Endpoint:   opts.Endpoint,
		Debounce:   fmt.Sprintf("%dms", debounce.Milliseconds()),
		EmptyText:  EmptyText,
	}
}

// PageCount is ceil(total/limit). A non-positive limit yields zero pages.
func PageCount(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// FieldText formats the exported field of item tagged json:"key".
// Nil pointers and unknown keys render as the empty string.
func FieldText(item any, key string) string {
	v := reflect.ValueOf(item)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return ""
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "" {
			name = f.Name
		}
		if name != key {
			continue
		}
		fv := v.Field(i)
		for fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				return ""
			}
			fv = fv.Elem()
		}
		if tm, ok := fv.Interface().(time.Time); ok {
			return tm.Format(time.RFC3339)
		}
		return fmt.Sprint(fv.Interface())
	}
	return ""
}
