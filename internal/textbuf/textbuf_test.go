package textbuf

import (
	"errors"
	"testing"
)

func TestNewCursorAtEnd(t *testing.T) {
	b := New("hello")
	if b.CursorOffset() != 5 {
		t.Errorf("cursor = %d, want 5", b.CursorOffset())
	}
	if b.String() != "hello" {
		t.Errorf("content = %q, want %q", b.String(), "hello")
	}
	if b.Version() != 0 {
		t.Errorf("fresh buffer version = %d, want 0", b.Version())
	}
}

func TestTypeAdvancesCursorAndVersion(t *testing.T) {
	b := New("")
	b.Type("ab")
	b.Type("c")
	if b.String() != "abc" {
		t.Errorf("content = %q, want %q", b.String(), "abc")
	}
	if b.CursorOffset() != 3 {
		t.Errorf("cursor = %d, want 3", b.CursorOffset())
	}
	if b.Version() != 2 {
		t.Errorf("version = %d, want 2", b.Version())
	}
}

func TestInsertAtBeforeCursor(t *testing.T) {
	b := New("world")
	b.SetCursor(5)
	if err := b.InsertAt(0, "hello "); err != nil {
		t.Fatal(err)
	}
	if b.String() != "hello world" {
		t.Errorf("content = %q", b.String())
	}
	if b.CursorOffset() != 11 {
		t.Errorf("cursor = %d, want 11", b.CursorOffset())
	}
}

func TestInsertAtAfterCursor(t *testing.T) {
	b := New("hello")
	b.SetCursor(0)
	if err := b.InsertAt(5, "!"); err != nil {
		t.Fatal(err)
	}
	if b.CursorOffset() != 0 {
		t.Errorf("cursor moved to %d on insertion after it", b.CursorOffset())
	}
}

func TestInsertAtOutOfRange(t *testing.T) {
	b := New("ab")
	if err := b.InsertAt(3, "x"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
	if err := b.InsertAt(-1, "x"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
	if b.String() != "ab" {
		t.Errorf("failed insert mutated buffer: %q", b.String())
	}
	if b.Version() != 0 {
		t.Errorf("failed insert bumped version to %d", b.Version())
	}
}

func TestRemoveRange(t *testing.T) {
	b := New("hello world")
	if err := b.RemoveRange(5, 11); err != nil {
		t.Fatal(err)
	}
	if b.String() != "hello" {
		t.Errorf("content = %q, want %q", b.String(), "hello")
	}
	if b.CursorOffset() != 5 {
		t.Errorf("cursor = %d, want 5", b.CursorOffset())
	}
}

func TestRemoveRangeCursorInside(t *testing.T) {
	b := New("abcdef")
	b.SetCursor(4)
	if err := b.RemoveRange(2, 6); err != nil {
		t.Fatal(err)
	}
	if b.CursorOffset() != 2 {
		t.Errorf("cursor = %d, want 2", b.CursorOffset())
	}
}

func TestRemoveRangeInvalid(t *testing.T) {
	b := New("abc")
	if err := b.RemoveRange(2, 1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
	if err := b.RemoveRange(0, 4); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
}

func TestTextAround(t *testing.T) {
	b := New("hello world")
	b.SetCursor(5)
	before, after := b.TextAround(3, 3)
	if before != "llo" || after != " wo" {
		t.Errorf("TextAround = (%q, %q), want (%q, %q)", before, after, "llo", " wo")
	}

	// Windows larger than the buffer are clamped.
	before, after = b.TextAround(100, 100)
	if before != "hello" || after != " world" {
		t.Errorf("TextAround clamped = (%q, %q)", before, after)
	}
}

func TestUnicodeRuneOffsets(t *testing.T) {
	b := New("héllo")
	if b.Len() != 5 {
		t.Errorf("Len = %d, want 5 runes", b.Len())
	}
	b.SetCursor(2)
	before, after := b.TextAround(2, 3)
	if before != "hé" || after != "llo" {
		t.Errorf("TextAround = (%q, %q)", before, after)
	}
	b.Backspace()
	if b.String() != "hllo" {
		t.Errorf("content = %q, want %q", b.String(), "hllo")
	}
}

func TestBackspaceAtStart(t *testing.T) {
	b := New("a")
	b.SetCursor(0)
	b.Backspace()
	if b.String() != "a" || b.Version() != 0 {
		t.Errorf("backspace at start mutated buffer: %q v%d", b.String(), b.Version())
	}
}
