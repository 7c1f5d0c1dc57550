package display

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// popupMaxLines caps how much of a long suggestion the popup shows.
const popupMaxLines = 4

// PopupSurface is implemented by hosts that can float a transient box near
// the cursor.
type PopupSurface interface {
	// ShowPopup displays the rendered box anchored at the given rune offset.
	ShowPopup(anchor int, box string) error

	// HidePopup removes the popup. Must be idempotent.
	HidePopup()
}

// PopupChannel renders the suggestion inside a bordered box near the
// cursor. It works wherever the host can float a box, including terminals
// without styling support.
type PopupChannel struct {
	surface  PopupSurface
	maxWidth int
	style    lipgloss.Style
}

// NewPopupChannel creates a PopupChannel. surface may be nil when the host
// cannot float popups. maxWidth clamps the box's content columns.
func NewPopupChannel(surface PopupSurface, maxWidth int) *PopupChannel {
	if maxWidth <= 0 {
		maxWidth = 60
	}
	return &PopupChannel{
		surface:  surface,
		maxWidth: maxWidth,
		style: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1),
	}
}

// Kind implements Channel.
func (c *PopupChannel) Kind() Kind {
	return KindPopup
}

// Available implements Channel.
func (c *PopupChannel) Available() bool {
	return c.surface != nil
}

// Show implements Channel.
func (c *PopupChannel) Show(s Suggestion) error {
	return c.surface.ShowPopup(s.Anchor, c.render(s.Text))
}

// Hide implements Channel.
func (c *PopupChannel) Hide() error {
	c.surface.HidePopup()
	return nil
}

// render builds the bordered box, truncating lines to the width clamp and
// eliding overflow beyond popupMaxLines.
func (c *PopupChannel) render(text string) string {
	lines := strings.Split(text, "\n")
	truncated := len(lines) > popupMaxLines
	if truncated {
		lines = lines[:popupMaxLines]
	}
	for i, line := range lines {
		lines[i] = runewidth.Truncate(line, c.maxWidth, "…")
	}
	if truncated {
		lines = append(lines, "…")
	}
	return c.style.Render(strings.Join(lines, "\n"))
}
