package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"koalbot_console/internal/middleware"
	"koalbot_console/internal/navigation"
	"koalbot_console/web/templates/pages"
)

// EventClosePalette asks the browser to close the command palette
const EventClosePalette = "closePalette"

// PaletteHandler answers every keystroke of the command palette. The palette
// state travels with the request, so the handler keeps none.
type PaletteHandler struct{}

// NewPaletteHandler creates a new PaletteHandler
func NewPaletteHandler() *PaletteHandler {
	return &PaletteHandler{}
}

// Palette rebuilds the palette from q and selected, applies key or hover and
// renders the result. Enter navigates and Escape closes.
func (h *PaletteHandler) Palette(c echo.Context) error {
	menu := navigation.Filter(navigation.Menu(), currentSession(c).User.IsAdmin())
	p := navigation.NewPalette(navigation.Commands(menu))
	p.SetQuery(c.QueryParam("q"))

	if i, err := strconv.Atoi(c.QueryParam("selected")); err == nil {
		p.Hover(i)
	}
	if i, err := strconv.Atoi(c.QueryParam("hover")); err == nil {
		p.Hover(i)
	}

	if key := c.QueryParam("key"); key != "" {
		switch action := p.Key(key); action.Kind {
		case navigation.ActionNavigate:
			middleware.Trigger(c, EventClosePalette, nil)
			return middleware.Redirect(c, action.Path)
		case navigation.ActionClose:
			middleware.Trigger(c, EventClosePalette, nil)
			return c.NoContent(http.StatusNoContent)
		}
	}

	props := pages.PaletteProps{
		Query:    p.Query(),
		Selected: p.Selected(),
		Groups:   p.Groups(),
	}
	if p.Empty() {
		props.Empty = p.EmptyMessage()
	}

	if c.QueryParam("open") == "1" {
		return render(c, http.StatusOK, pages.Palette(props))
	}
	return render(c, http.StatusOK, pages.PaletteResults(props))
}
