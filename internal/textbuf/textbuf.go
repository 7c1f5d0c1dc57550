// Package textbuf defines the narrow text-buffer contract the completion
// engine consumes from its host editor, plus an in-memory implementation
// used by tests and the demo host.
//
// All offsets are rune offsets, not byte offsets. The Version counter is
// monotonic and bumped on every mutation; the suggestion layer uses it to
// detect that the buffer changed underneath a pending suggestion.
package textbuf

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned for offsets outside the buffer.
var ErrOutOfRange = errors.New("offset out of range")

// Accessor is the host-editor surface the engine is allowed to touch.
// The buffer itself stays owned by the host; the engine never caches text
// beyond a single operation.
type Accessor interface {
	// CursorOffset returns the current cursor position in runes.
	CursorOffset() int

	// TextAround returns up to before runes preceding the cursor and up to
	// after runes following it.
	TextAround(before, after int) (string, string)

	// InsertAt inserts text at the given rune offset.
	InsertAt(offset int, text string) error

	// RemoveRange removes runes in [start, end).
	RemoveRange(start, end int) error

	// Version returns a counter bumped on every mutation.
	Version() uint64
}

// Buffer is an in-memory Accessor with cursor tracking.
// It is not safe for concurrent use; the host editing loop owns it.
type Buffer struct {
	content []rune
	cursor  int
	version uint64
}

// New creates a Buffer holding the given text, cursor at the end.
func New(text string) *Buffer {
	r := []rune(text)
	return &Buffer{content: r, cursor: len(r)}
}

// String returns the full buffer content.
func (b *Buffer) String() string {
	return string(b.content)
}

// Len returns the buffer length in runes.
func (b *Buffer) Len() int {
	return len(b.content)
}

// CursorOffset implements Accessor.
func (b *Buffer) CursorOffset() int {
	return b.cursor
}

// SetCursor moves the cursor without mutating content. Out-of-range values
// are clamped. The version is not bumped: cursor motion is not a mutation.
func (b *Buffer) SetCursor(offset int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(b.content) {
		offset = len(b.content)
	}
	b.cursor = offset
}

// TextAround implements Accessor.
func (b *Buffer) TextAround(before, after int) (string, string) {
	start := b.cursor - before
	if start < 0 {
		start = 0
	}
	end := b.cursor + after
	if end > len(b.content) {
		end = len(b.content)
	}
	return string(b.content[start:b.cursor]), string(b.content[b.cursor:end])
}

// InsertAt implements Accessor. The cursor advances when the insertion is at
// or before it, matching host-editor behavior for text typed at the caret.
func (b *Buffer) InsertAt(offset int, text string) error {
	if offset < 0 || offset > len(b.content) {
		return fmt.Errorf("insert at %d in buffer of %d runes: %w", offset, len(b.content), ErrOutOfRange)
	}
	r := []rune(text)
	if len(r) == 0 {
		return nil
	}
	b.content = append(b.content[:offset], append(append([]rune{}, r...), b.content[offset:]...)...)
	if offset <= b.cursor {
		b.cursor += len(r)
	}
	b.version++
	return nil
}

// RemoveRange implements Accessor. The cursor is shifted left by however
// many removed runes preceded it.
func (b *Buffer) RemoveRange(start, end int) error {
	if start < 0 || end > len(b.content) || start > end {
		return fmt.Errorf("remove [%d, %d) from buffer of %d runes: %w", start, end, len(b.content), ErrOutOfRange)
	}
	if start == end {
		return nil
	}
	b.content = append(b.content[:start], b.content[end:]...)
	switch {
	case b.cursor >= end:
		b.cursor -= end - start
	case b.cursor > start:
		b.cursor = start
	}
	b.version++
	return nil
}

// Version implements Accessor.
func (b *Buffer) Version() uint64 {
	return b.version
}

// Type inserts text at the cursor, as a user keystroke would.
func (b *Buffer) Type(text string) {
	// InsertAt only fails on out-of-range offsets; the cursor is always in range.
	_ = b.InsertAt(b.cursor, text)
}

// Backspace removes the rune before the cursor, if any.
func (b *Buffer) Backspace() {
	if b.cursor == 0 {
		return
	}
	_ = b.RemoveRange(b.cursor-1, b.cursor)
}
