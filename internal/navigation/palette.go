package navigation

import (
	"fmt"
	"strings"
)

// CategoryMenu is the category of every command built from the menu
const CategoryMenu = "Menu"

// Command is a palette entry
type Command struct {
	ID          string
	Title       string
	Description string
	Category    string
	Icon        string
}

// Commands flattens the leaves of the tree. Nested titles are joined with " / ".
func Commands(nodes []Node) []Command {
	return flatten(nodes, "")
}

func flatten(nodes []Node, parent string) []Command {
	var out []Command
	for _, n := range nodes {
		switch n := n.(type) {
		case Leaf:
			out = append(out, Command{
				ID:          n.Path,
				Title:       join(parent, n.Title),
				Description: n.Path,
				Category:    CategoryMenu,
				Icon:        n.Icon,
			})
		case Group:
			out = append(out, flatten(n.Children, join(parent, n.Title))...)
		}
	}
	return out
}

func join(parent, title string) string {
	if parent == "" {
		return title
	}
	return parent + " / " + title
}

// Search keeps the commands whose title, description or category contains q, ignoring case
func Search(cmds []Command, q string) []Command {
	q = strings.ToLower(q)
	out := make([]Command, 0, len(cmds))
	for _, c := range cmds {
		if strings.Contains(strings.ToLower(c.Title), q) ||
			strings.Contains(strings.ToLower(c.Description), q) ||
			strings.Contains(strings.ToLower(c.Category), q) {
			out = append(out, c)
		}
	}
	return out
}

// CommandGroup is a category heading with its commands. Indexes holds the
// position of each command in the flat result list, which the selection refers to.
type CommandGroup struct {
	Category string
	Commands []Command
	Indexes  []int
}

// GroupByCategory groups commands keeping the order categories first appear in
func GroupByCategory(cmds []Command) []CommandGroup {
	var groups []CommandGroup
	pos := make(map[string]int)
	for i, c := range cmds {
		g, ok := pos[c.Category]
		if !ok {
			g = len(groups)
			pos[c.Category] = g
			groups = append(groups, CommandGroup{Category: c.Category})
		}
		groups[g].Commands = append(groups[g].Commands, c)
		groups[g].Indexes = append(groups[g].Indexes, i)
	}
	return groups
}

// ActionKind is what the browser should do after a key press
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionNavigate
	ActionClose
)

// Action is the outcome of a key press
type Action struct {
	Kind ActionKind
	Path string
}

// Palette is the keyboard state of the command palette
type Palette struct {
	commands []Command
	query    string
	results  []Command
	selected int
}

// NewPalette starts with an empty query and every command listed
func NewPalette(cmds []Command) *Palette {
	p := &Palette{commands: cmds}
	p.SetQuery("")
	return p
}

// SetQuery filters the commands and moves the selection back to the top
func (p *Palette) SetQuery(q string) {
	p.query = q
	p.results = Search(p.commands, q)
	p.selected = 0
}

// Query returns the current search text
func (p *Palette) Query() string { return p.query }

// Results returns the matching commands
func (p *Palette) Results() []Command { return p.results }

// Selected returns the index of the highlighted command
func (p *Palette) Selected() int { return p.selected }

// Groups returns the results grouped by category
func (p *Palette) Groups() []CommandGroup { return GroupByCategory(p.results) }

// Empty reports whether nothing matches
func (p *Palette) Empty() bool { return len(p.results) == 0 }

// EmptyMessage is shown when nothing matches
func (p *Palette) EmptyMessage() string {
	return fmt.Sprintf("No results found for %q", p.query)
}

// Hover selects the command under the pointer
func (p *Palette) Hover(i int) {
	if i >= 0 && i < len(p.results) {
		p.selected = i
	}
}

// Key applies a key press
func (p *Palette) Key(key string) Action {
	switch key {
	case "ArrowDown":
		if p.selected < len(p.results)-1 {
			p.selected++
		}
	case "ArrowUp":
		if p.selected > 0 {
			p.selected--
		}
	case "Enter":
		if p.selected < len(p.results) {
			return Action{Kind: ActionNavigate, Path: p.results[p.selected].ID}
		}
	case "Escape":
		return Action{Kind: ActionClose}
	}
	return Action{Kind: ActionNone}
}
