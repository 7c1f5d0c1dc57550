package suggestion

import (
	"errors"
	"testing"

	"github.com/runger/ghosttype/internal/textbuf"
)

func TestShowFullRemainder(t *testing.T) {
	buf := textbuf.New("The cat sat on the ")
	b := New(buf, nil)

	remainder, err := b.Show("The cat sat on the mat.", 0)
	if err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if remainder != "mat." {
		t.Errorf("remainder = %q, want %q", remainder, "mat.")
	}

	p, ok := b.Pending()
	if !ok {
		t.Fatal("expected pending suggestion")
	}
	if p.Anchor != 19 {
		t.Errorf("anchor = %d, want cursor position 19", p.Anchor)
	}
	if p.Text != "mat." {
		t.Errorf("stored text = %q", p.Text)
	}
}

func TestShowIncrementalDiff(t *testing.T) {
	// The user typed "ma" after the request snapshot was taken at offset 19.
	buf := textbuf.New("The cat sat on the ma")
	b := New(buf, nil)

	remainder, err := b.Show("mat.", 19)
	if err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if remainder != "t." {
		t.Errorf("remainder = %q, want %q (prefix %q already typed)", remainder, "t.", "ma")
	}
}

func TestShowExactPrefixProperty(t *testing.T) {
	// For prefix P and suggestion S starting with P, the overlay is S[len(P):].
	tests := []struct {
		typed string
		s     string
		want  string
	}{
		{"", "hello", "hello"},
		{"he", "hello", "llo"},
		{"hello", "hello", ""},
		{"hé", "héllo", "llo"},
	}
	for _, tt := range tests {
		buf := textbuf.New(tt.typed)
		b := New(buf, nil)
		got, err := b.Show(tt.s, 0)
		if err != nil {
			t.Errorf("Show(%q) with typed %q: %v", tt.s, tt.typed, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Show(%q) with typed %q = %q, want %q", tt.s, tt.typed, got, tt.want)
		}
	}
}

func TestShowDiverged(t *testing.T) {
	buf := textbuf.New("The cat sat on the x")
	b := New(buf, nil)

	_, err := b.Show("mat.", 19)
	if !errors.Is(err, ErrAnchorMismatch) {
		t.Errorf("err = %v, want ErrAnchorMismatch for diverged typing", err)
	}
	if b.Has() {
		t.Error("diverged Show must not create a pending suggestion")
	}
}

func TestShowEmptyRemainderCreatesNothing(t *testing.T) {
	buf := textbuf.New("done")
	b := New(buf, nil)

	remainder, err := b.Show("done", 0)
	if err != nil {
		t.Fatal(err)
	}
	if remainder != "" || b.Has() {
		t.Errorf("fully-typed suggestion should leave nothing pending, got %q", remainder)
	}
}

func TestShowPanicsOnSecondPending(t *testing.T) {
	buf := textbuf.New("")
	b := New(buf, nil)
	if _, err := b.Show("one", 0); err != nil {
		t.Fatal(err)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic on second live suggestion")
		}
	}()
	_, _ = b.Show("two", 0)
}

func TestAcceptCommits(t *testing.T) {
	buf := textbuf.New("The cat sat on the ")
	b := New(buf, nil)

	if _, err := b.Show("The cat sat on the mat.", 0); err != nil {
		t.Fatal(err)
	}
	if err := b.Accept(); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if buf.String() != "The cat sat on the mat." {
		t.Errorf("buffer = %q", buf.String())
	}
	if b.Has() {
		t.Error("pending should be cleared after accept")
	}
}

func TestAcceptAfterMutationFails(t *testing.T) {
	buf := textbuf.New("hello ")
	b := New(buf, nil)

	if _, err := b.Show("hello world", 0); err != nil {
		t.Fatal(err)
	}
	buf.Type("x")

	err := b.Accept()
	if !errors.Is(err, ErrAnchorMismatch) {
		t.Errorf("err = %v, want ErrAnchorMismatch", err)
	}
	if buf.String() != "hello x" {
		t.Errorf("failed accept mutated buffer: %q", buf.String())
	}
	if b.Has() {
		t.Error("stale suggestion should be discarded")
	}
}

func TestAcceptNoPending(t *testing.T) {
	b := New(textbuf.New(""), nil)
	if err := b.Accept(); !errors.Is(err, ErrNoPending) {
		t.Errorf("err = %v, want ErrNoPending", err)
	}
}

func TestRejectIdempotent(t *testing.T) {
	buf := textbuf.New("abc")
	b := New(buf, nil)

	if _, err := b.Show("abcdef", 0); err != nil {
		t.Fatal(err)
	}
	if err := b.Reject(); err != nil {
		t.Fatal(err)
	}
	after := buf.String()
	if err := b.Reject(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != after {
		t.Errorf("second reject changed buffer: %q vs %q", buf.String(), after)
	}
	if buf.String() != "abc" {
		t.Errorf("reject left residue: %q", buf.String())
	}
}

func TestLiteralInsertionAcceptAndReject(t *testing.T) {
	// Accept path: literal channel already committed the text.
	buf := textbuf.New("hello ")
	b := New(buf, nil)
	remainder, err := b.Show("hello world", 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := buf.InsertAt(6, remainder); err != nil {
		t.Fatal(err)
	}
	b.MarkInserted()
	if err := b.Accept(); err != nil {
		t.Fatalf("Accept() after literal insert: %v", err)
	}
	if buf.String() != "hello world" {
		t.Errorf("buffer = %q", buf.String())
	}

	// Reject path: the inserted text is removed, no residue.
	buf = textbuf.New("hello ")
	b = New(buf, nil)
	remainder, err = b.Show("hello world", 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := buf.InsertAt(6, remainder); err != nil {
		t.Fatal(err)
	}
	b.MarkInserted()
	if err := b.Reject(); err != nil {
		t.Fatalf("Reject() after literal insert: %v", err)
	}
	if buf.String() != "hello " {
		t.Errorf("reject left residue: %q", buf.String())
	}
}

func TestLiteralRejectAfterForeignMutation(t *testing.T) {
	buf := textbuf.New("hello ")
	b := New(buf, nil)
	remainder, err := b.Show("hello world", 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := buf.InsertAt(6, remainder); err != nil {
		t.Fatal(err)
	}
	b.MarkInserted()

	// A foreign edit lands before the reject: never guess-remove.
	buf.Type("!")
	before := buf.String()
	if err := b.Reject(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != before {
		t.Errorf("stale reject mutated buffer: %q", buf.String())
	}
	if b.Has() {
		t.Error("pending should be cleared")
	}
}

func TestInvalidate(t *testing.T) {
	buf := textbuf.New("abc")
	b := New(buf, nil)
	if _, err := b.Show("abcdef", 0); err != nil {
		t.Fatal(err)
	}
	b.Invalidate()
	if b.Has() {
		t.Error("Invalidate should clear pending")
	}
	if buf.String() != "abc" {
		t.Errorf("Invalidate touched buffer: %q", buf.String())
	}
	b.Invalidate() // idempotent
}
