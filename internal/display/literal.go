package display

import (
	"github.com/runger/ghosttype/internal/textbuf"
)

// LiteralChannel commits the suggestion text directly into the buffer. It is
// the last resort: worse UX than an overlay, but it has no precondition, so
// the chain never drops a suggestion on the floor. Ownership of the inserted
// text (undo on reject) passes to the suggestion layer, which is told the
// text was physically inserted.
type LiteralChannel struct {
	buf textbuf.Accessor
}

// NewLiteralChannel creates a LiteralChannel over the host buffer.
func NewLiteralChannel(buf textbuf.Accessor) *LiteralChannel {
	return &LiteralChannel{buf: buf}
}

// Kind implements Channel.
func (c *LiteralChannel) Kind() Kind {
	return KindLiteral
}

// Available implements Channel.
func (c *LiteralChannel) Available() bool {
	return true
}

// Show implements Channel.
func (c *LiteralChannel) Show(s Suggestion) error {
	return c.buf.InsertAt(s.Anchor, s.Text)
}

// Hide implements Channel. The inserted text is committed content; removal
// on reject is handled by the suggestion layer, not the renderer.
func (c *LiteralChannel) Hide() error {
	return nil
}
