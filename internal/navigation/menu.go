// Package navigation holds the static menu tree shared by the sidebar and the
// command palette.
package navigation

import "strings"

// Node is either a Leaf or a Group
type Node interface {
	isNode()
}

// Leaf is a destination
type Leaf struct {
	Title     string
	Path      string
	Icon      string
	AdminOnly bool
}

// Group is a named branch of the tree
type Group struct {
	Title     string
	Icon      string
	Children  []Node
	AdminOnly bool
}

func (Leaf) isNode()  {}
func (Group) isNode() {}

// Menu returns the console menu
func Menu() []Node {
	return []Node{
		Leaf{Title: "Dashboard", Path: "/dashboard", Icon: "home"},
		Group{Title: "Data Pengguna", Icon: "database", Children: []Node{
			Leaf{Title: "Stockity", Path: "/master/member_stockity"},
			Leaf{Title: "Binomo", Path: "/master/member_binomo"},
			Leaf{Title: "Olymptrade", Path: "/master/member_olymptrade"},
		}},
		Leaf{Title: "Master Pengguna", Path: "/users", Icon: "user", AdminOnly: true},
	}
}

// Key identifies a node: the path of a leaf, the title of a group
func Key(n Node) string {
	switch n := n.(type) {
	case Leaf:
		return n.Path
	case Group:
		return n.Title
	}
	return ""
}

func adminOnly(n Node) bool {
	switch n := n.(type) {
	case Leaf:
		return n.AdminOnly
	case Group:
		return n.AdminOnly
	}
	return false
}

// Matches reports whether path is target or below it
func Matches(path, target string) bool {
	return target != "" && (path == target || strings.HasPrefix(path, target+"/"))
}

// Filter drops admin-only nodes for non admins and groups left without children
func Filter(nodes []Node, isAdmin bool) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if adminOnly(n) && !isAdmin {
			continue
		}
		if g, ok := n.(Group); ok {
			g.Children = Filter(g.Children, isAdmin)
			if len(g.Children) == 0 {
				continue
			}
			n = g
		}
		out = append(out, n)
	}
	return out
}

// Trail returns the keys from the root down to the leaf matching path
func Trail(nodes []Node, path string) []string {
	for _, n := range nodes {
		switch n := n.(type) {
		case Leaf:
			if Matches(path, n.Path) {
				return []string{n.Path}
			}
		case Group:
			if sub := Trail(n.Children, path); len(sub) > 0 {
				return append([]string{n.Title}, sub...)
			}
		}
	}
	return nil
}

// Item is a sidebar entry ready for rendering
type Item struct {
	Key      string
	Title    string
	Path     string
	Icon     string
	Depth    int
	Active   bool
	Open     bool
	Children []Item
}

// Sidebar builds the sidebar for the current path. The branch holding the
// current page starts expanded.
func Sidebar(nodes []Node, path string, isAdmin bool) []Item {
	visible := Filter(nodes, isAdmin)
	open := make(map[string]bool)
	for _, k := range Trail(visible, path) {
		open[k] = true
	}
	return items(visible, path, open, 0)
}

func items(nodes []Node, path string, open map[string]bool, depth int) []Item {
	out := make([]Item, 0, len(nodes))
	for _, n := range nodes {
		switch n := n.(type) {
		case Leaf:
			out = append(out, Item{
				Key:    n.Path,
				Title:  n.Title,
				Path:   n.Path,
				Icon:   n.Icon,
				Depth:  depth,
				Active: Matches(path, n.Path),
				Open:   open[n.Path],
			})
		case Group:
			out = append(out, Item{
				Key:      n.Title,
				Title:    n.Title,
				Icon:     n.Icon,
				Depth:    depth,
				Open:     open[n.Title],
				Children: items(n.Children, path, open, depth+1),
			})
		}
	}
	return out
}

// Breadcrumb returns the titles leading to path, for the page header
func Breadcrumb(nodes []Node, path string) []Leaf {
	for _, n := range nodes {
		switch n := n.(type) {
		case Leaf:
			if Matches(path, n.Path) {
				return []Leaf{n}
			}
		case Group:
			if sub := Breadcrumb(n.Children, path); len(sub) > 0 {
				return append([]Leaf{{Title: n.Title}}, sub...)
			}
		}
	}
	return nil
}
