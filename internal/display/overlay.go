package display

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// OverlaySurface is implemented by hosts that can splice ghost text into
// their buffer rendering without committing it.
type OverlaySurface interface {
	// SetGhost places styled ghost text at the given rune offset.
	SetGhost(anchor int, rendered string) error

	// ClearGhost removes the ghost text. Must be idempotent.
	ClearGhost()
}

// OverlayChannel renders the suggestion as in-buffer ghost text, visually
// distinguished from committed text by faint italic styling. It requires
// host support and a terminal profile that can actually show the styling;
// otherwise ghost text would be indistinguishable from committed input.
type OverlayChannel struct {
	surface OverlaySurface
	profile termenv.Profile
	style   lipgloss.Style
}

// NewOverlayChannel creates an OverlayChannel. surface may be nil when the
// host has no overlay support.
func NewOverlayChannel(surface OverlaySurface, profile termenv.Profile) *OverlayChannel {
	return &OverlayChannel{
		surface: surface,
		profile: profile,
		style:   lipgloss.NewStyle().Faint(true).Italic(true),
	}
}

// Kind implements Channel.
func (c *OverlayChannel) Kind() Kind {
	return KindOverlay
}

// Available implements Channel.
func (c *OverlayChannel) Available() bool {
	return c.surface != nil && c.profile != termenv.Ascii
}

// Show implements Channel.
func (c *OverlayChannel) Show(s Suggestion) error {
	return c.surface.SetGhost(s.Anchor, c.style.Render(s.Text))
}

// Hide implements Channel.
func (c *OverlayChannel) Hide() error {
	c.surface.ClearGhost()
	return nil
}
