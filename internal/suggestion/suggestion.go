// Package suggestion holds the single pending suggestion and resolves it
// against the host buffer.
//
// The buffer stores only the incremental remainder of a suggestion: the part
// the user has not already typed. Accept commits the remainder at its anchor;
// Reject discards it leaving the buffer untouched. Both validate the buffer's
// version so a suggestion is never applied to text that changed underneath
// it. Every mutating path either completes fully or leaves the buffer exactly
// as it was.
package suggestion

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/runger/ghosttype/internal/textbuf"
)

// ErrAnchorMismatch means the buffer changed under the pending suggestion.
// Callers resolve it by discarding the suggestion, never by forcing a stale
// insertion.
var ErrAnchorMismatch = errors.New("buffer changed under pending suggestion")

// ErrNoPending means no suggestion is currently pending.
var ErrNoPending = errors.New("no pending suggestion")

// Pending describes the one suggestion awaiting resolution.
type Pending struct {
	Anchor    int
	Text      string
	Version   uint64
	CreatedAt time.Time
}

// Buffer manages at most one Pending against a host buffer. It is driven
// from the host editing loop and is not safe for concurrent use on its own;
// the orchestrator serializes access.
type Buffer struct {
	buf      textbuf.Accessor
	pending  *Pending
	inserted bool // remainder was physically inserted (literal display channel)
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a suggestion Buffer over the host accessor.
func New(buf textbuf.Accessor, logger *slog.Logger) *Buffer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Buffer{buf: buf, logger: logger, now: time.Now}
}

// Has reports whether a suggestion is pending.
func (b *Buffer) Has() bool {
	return b.pending != nil
}

// Pending returns a copy of the pending suggestion, or false.
func (b *Buffer) Pending() (Pending, bool) {
	if b.pending == nil {
		return Pending{}, false
	}
	return *b.pending, true
}

// Show computes the incremental remainder of text and stores it as the
// pending suggestion. anchor is the cursor offset the suggestion was
// generated at; the remainder is the longest suffix of text not already
// typed, found by matching text's prefix against the runes before the
// cursor. The overlap must cover everything typed since anchor, so a user
// who diverged from the suggestion gets ErrAnchorMismatch instead of a
// contradicting overlay. Providers may return either a bare continuation or
// an echo of the whole typed line; both resolve to the same remainder.
// The returned remainder is empty when the user already typed the whole
// suggestion. Two live suggestions is a programming error and panics.
func (b *Buffer) Show(text string, anchor int) (string, error) {
	if b.pending != nil {
		panic("suggestion: pending suggestion already exists")
	}

	cur := b.buf.CursorOffset()
	if cur < anchor {
		return "", fmt.Errorf("cursor %d behind anchor %d: %w", cur, anchor, ErrAnchorMismatch)
	}

	sug := []rune(text)
	typedSince := cur - anchor

	if typedSince >= len(sug) {
		// The user typed past the suggestion's length: either it is fully
		// typed already or they went elsewhere with it.
		typed, _ := b.buf.TextAround(typedSince, 0)
		if strings.HasPrefix(typed, text) {
			return "", nil
		}
		return "", fmt.Errorf("typed text diverged from suggestion: %w", ErrAnchorMismatch)
	}

	window := len(sug)
	if window > cur {
		window = cur
	}
	before, _ := b.buf.TextAround(window, 0)
	ctx := []rune(before)

	overlap := -1
	for k := len(ctx); k >= typedSince; k-- {
		if string(ctx[len(ctx)-k:]) == string(sug[:k]) {
			overlap = k
			break
		}
	}
	if overlap < 0 {
		return "", fmt.Errorf("typed text diverged from suggestion: %w", ErrAnchorMismatch)
	}

	remainder := string(sug[overlap:])
	if remainder == "" {
		return "", nil
	}

	b.pending = &Pending{
		Anchor:    cur,
		Text:      remainder,
		Version:   b.buf.Version(),
		CreatedAt: b.now(),
	}
	b.inserted = false
	return remainder, nil
}

// MarkInserted records that the active display channel committed the
// remainder directly into the buffer (literal insertion). The stored version
// is refreshed so that the channel's own insertion does not read as a
// foreign mutation.
func (b *Buffer) MarkInserted() {
	if b.pending == nil {
		return
	}
	b.inserted = true
	b.pending.Version = b.buf.Version()
}

// Accept converts the pending remainder into committed buffer content at its
// anchor and clears the pending state. It fails with ErrAnchorMismatch if
// the buffer was mutated since the suggestion was shown; the suggestion is
// discarded and the buffer is left untouched.
func (b *Buffer) Accept() error {
	if b.pending == nil {
		return ErrNoPending
	}
	p := *b.pending

	if b.buf.Version() != p.Version {
		b.discard()
		return fmt.Errorf("version %d, suggestion at %d: %w", b.buf.Version(), p.Version, ErrAnchorMismatch)
	}

	if b.inserted {
		// The literal channel already committed the text.
		b.discard()
		return nil
	}

	if b.buf.CursorOffset() != p.Anchor {
		b.discard()
		return fmt.Errorf("cursor moved off anchor %d: %w", p.Anchor, ErrAnchorMismatch)
	}

	if err := b.buf.InsertAt(p.Anchor, p.Text); err != nil {
		// InsertAt is atomic: the buffer is unchanged on failure.
		b.discard()
		return fmt.Errorf("failed to commit suggestion: %w", err)
	}

	b.discard()
	return nil
}

// Reject removes the pending suggestion leaving no residue. It is
// idempotent: rejecting with nothing pending is a no-op. For a literally
// inserted remainder the inserted text is removed, unless the buffer changed
// since insertion, in which case the suggestion is silently abandoned rather
// than guess-removed.
func (b *Buffer) Reject() error {
	if b.pending == nil {
		return nil
	}
	p := *b.pending

	if !b.inserted {
		b.discard()
		return nil
	}

	if b.buf.Version() != p.Version {
		b.logger.Debug("stale literal insertion left in place", "anchor", p.Anchor)
		b.discard()
		return nil
	}

	end := p.Anchor + utf8.RuneCountInString(p.Text)
	if err := b.buf.RemoveRange(p.Anchor, end); err != nil {
		b.discard()
		return fmt.Errorf("failed to remove literal insertion: %w", err)
	}

	b.discard()
	return nil
}

// Invalidate drops the pending suggestion without touching the buffer.
// Used when a foreign mutation already made the suggestion stale.
func (b *Buffer) Invalidate() {
	if b.pending != nil {
		b.logger.Debug("suggestion invalidated", "anchor", b.pending.Anchor)
	}
	b.discard()
}

func (b *Buffer) discard() {
	b.pending = nil
	b.inserted = false
}
