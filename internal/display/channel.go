// Package display renders a pending suggestion through an ordered chain of
// channels: in-buffer ghost overlay, transient popup near the cursor, and
// last-resort literal insertion. The first channel whose preconditions hold
// owns the suggestion's presentation; literal insertion has no precondition,
// so a suggestion is never silently dropped.
package display

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ErrChannelUnavailable means a channel's precondition failed. It is a
// fallback trigger, not a user-facing error.
var ErrChannelUnavailable = errors.New("display channel unavailable")

// Kind identifies a channel variant.
type Kind int

const (
	// KindOverlay is in-buffer ghost text. Best UX; needs host support.
	KindOverlay Kind = iota
	// KindPopup is a transient popup near the cursor.
	KindPopup
	// KindLiteral inserts the text directly. Always succeeds.
	KindLiteral
)

// String returns the config-file spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindOverlay:
		return "overlay"
	case KindPopup:
		return "popup"
	case KindLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Suggestion is what a channel renders.
type Suggestion struct {
	Text   string
	Anchor int
}

// Channel is one presentation variant.
type Channel interface {
	// Kind identifies the variant.
	Kind() Kind

	// Available reports whether the variant's preconditions hold.
	Available() bool

	// Show presents the suggestion.
	Show(s Suggestion) error

	// Hide undoes any transient visual state. Idempotent.
	Hide() error
}

// Handle represents ownership of an active presentation.
type Handle struct {
	channel Channel
	active  bool
}

// Kind returns the owning channel's kind.
func (h *Handle) Kind() Kind {
	return h.channel.Kind()
}

// Chain tries channels in priority order.
type Chain struct {
	channels []Channel
	logger   *slog.Logger
}

// NewChain creates a Chain trying the given channels in order.
func NewChain(logger *slog.Logger, channels ...Channel) *Chain {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Chain{channels: channels, logger: logger}
}

// Activate presents the suggestion through the first capable channel.
// A variant that fails is logged and skipped, never retried within the same
// activation. It returns ErrChannelUnavailable only when every channel
// failed, which cannot happen in a chain ending with the literal channel.
func (c *Chain) Activate(s Suggestion) (*Handle, error) {
	for _, ch := range c.channels {
		if !ch.Available() {
			c.logger.Debug("display channel unavailable", "channel", ch.Kind())
			continue
		}
		if err := ch.Show(s); err != nil {
			c.logger.Warn("display channel failed, falling back",
				"channel", ch.Kind(), "error", err)
			continue
		}
		c.logger.Debug("display channel active", "channel", ch.Kind())
		return &Handle{channel: ch, active: true}, nil
	}
	return nil, fmt.Errorf("all %d channels exhausted: %w", len(c.channels), ErrChannelUnavailable)
}

// Deactivate undoes the handle's presentation. Idempotent; a nil handle is
// a no-op.
func (c *Chain) Deactivate(h *Handle) {
	if h == nil || !h.active {
		return
	}
	h.active = false
	if err := h.channel.Hide(); err != nil {
		c.logger.Warn("display channel hide failed", "channel", h.channel.Kind(), "error", err)
	}
}
