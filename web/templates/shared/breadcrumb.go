package shared

// Breadcrumb represents a navigation trail entry. An empty URL marks the current page.
type Breadcrumb struct {
	Title string
	URL   string
}
