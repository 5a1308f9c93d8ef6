package dataview

import "strconv"

// PageLink is one control in the pagination bar
type PageLink struct {
	Page     int
	Label    string
	Current  bool
	Disabled bool
	Gap      bool
}

// PageLinks builds the pagination bar: previous, the first and last page, the
// current page with one neighbour on each side, ellipses for skipped ranges, next.
func PageLinks(page, pages int) []PageLink {
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	links := []PageLink{{Page: page - 1, Label: "‹", Disabled: page == 1}}

	last := 0
	for p := 1; p <= pages; p++ {
		if p != 1 && p != pages && (p < page-1 || p > page+1) {
			continue
		}
		if last != 0 && p-last > 1 {
			links = append(links, PageLink{Label: "…", Gap: true, Disabled: true})
		}
		links = append(links, PageLink{Page: p, Label: strconv.Itoa(p), Current: p == page})
		last = p
	}

	links = append(links, PageLink{Page: page + 1, Label: "›", Disabled: page == pages})
	return links
}
