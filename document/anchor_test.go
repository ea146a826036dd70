package document

import (
	"errors"
	"strings"
	"testing"
)

func mustAnchorAfter(t *testing.T, d *Document, off int) Anchor {
	t.Helper()
	a, err := d.AnchorAfter(off)
	if err != nil {
		t.Fatalf("AnchorAfter(%d) error = %v", off, err)
	}
	return a
}

func TestAnchorOutOfRange(t *testing.T) {
	d := New("abc")

	if _, err := d.AnchorAfter(-1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("AnchorAfter(-1) error = %v, want ErrOutOfRange", err)
	}
	if _, err := d.AnchorAfter(4); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("AnchorAfter(4) error = %v, want ErrOutOfRange", err)
	}
	// End-of-text is a valid anchor position.
	if _, err := d.AnchorAfter(3); err != nil {
		t.Errorf("AnchorAfter(3) error = %v, want nil", err)
	}
}

// Consecutive inserts at an after-biased anchor must append in order: the
// anchor advances past each insertion.
func TestInsertAtAppendsInOrder(t *testing.T) {
	d := New("prefix\n\n\n\n")
	a := mustAnchorAfter(t, d, d.Len()-2)

	for _, chunk := range []string{"Hello", ", ", "world", "!"} {
		if err := d.InsertAt(a, chunk); err != nil {
			t.Fatalf("InsertAt(%q) error = %v", chunk, err)
		}
	}

	want := "prefix\n\nHello, world!\n\n"
	if got := d.Snapshot().Text; got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}

	off, ok := d.Offset(a)
	if !ok {
		t.Fatal("Offset() ok = false, want true")
	}
	if want := d.Len() - 2; off != want {
		t.Errorf("anchor offset = %d, want %d (still before trailing padding)", off, want)
	}
}

func TestAnchorBeforeStaysOnInsertAt(t *testing.T) {
	d := New("ab")
	a, err := d.AnchorBefore(1)
	if err != nil {
		t.Fatalf("AnchorBefore(1) error = %v", err)
	}

	if err := d.InsertAt(a, "XY"); err != nil {
		t.Fatalf("InsertAt() error = %v", err)
	}

	off, _ := d.Offset(a)
	if off != 1 {
		t.Errorf("before-biased anchor moved to %d, want 1", off)
	}
	if got := d.Snapshot().Text; got != "aXYb" {
		t.Errorf("Text = %q, want %q", got, "aXYb")
	}
}

func TestAnchorShiftsForEarlierEdits(t *testing.T) {
	d := New("0123456789")
	a := mustAnchorAfter(t, d, 8)

	// Grow by 3 before the anchor.
	if err := d.Edit([]Edit{{Start: 2, End: 4, Text: "abcde"}}); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	off, _ := d.Offset(a)
	if off != 11 {
		t.Errorf("anchor offset = %d, want 11 after growth", off)
	}

	// Shrink by 2 before the anchor.
	if err := d.Edit([]Edit{{Start: 0, End: 2}}); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	off, _ = d.Offset(a)
	if off != 9 {
		t.Errorf("anchor offset = %d, want 9 after shrink", off)
	}
}

func TestAnchorUnaffectedByLaterEdits(t *testing.T) {
	d := New("0123456789")
	a := mustAnchorAfter(t, d, 3)

	if err := d.Edit([]Edit{{Start: 5, End: 9, Text: "xxxxxxxx"}}); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}

	off, _ := d.Offset(a)
	if off != 3 {
		t.Errorf("anchor offset = %d, want 3", off)
	}
}

func TestAnchorClampedInsideReplacedRange(t *testing.T) {
	newDoc := func() *Document { return New("0123456789") }

	t.Run("after bias clamps to replacement end", func(t *testing.T) {
		d := newDoc()
		a := mustAnchorAfter(t, d, 5)
		if err := d.Edit([]Edit{{Start: 3, End: 8, Text: "AB"}}); err != nil {
			t.Fatalf("Edit() error = %v", err)
		}
		off, _ := d.Offset(a)
		if off != 5 { // 3 + len("AB")
			t.Errorf("anchor offset = %d, want 5", off)
		}
	})

	t.Run("before bias clamps to replacement start", func(t *testing.T) {
		d := newDoc()
		a, err := d.AnchorBefore(5)
		if err != nil {
			t.Fatalf("AnchorBefore(5) error = %v", err)
		}
		if err := d.Edit([]Edit{{Start: 3, End: 8, Text: "AB"}}); err != nil {
			t.Fatalf("Edit() error = %v", err)
		}
		off, _ := d.Offset(a)
		if off != 3 {
			t.Errorf("anchor offset = %d, want 3", off)
		}
	})
}

// A user editing earlier in the document while a stream appends at the
// anchor must not corrupt either: the anchor re-resolves and streamed text
// keeps landing in sequence.
func TestInsertAtSurvivesInterleavedEdits(t *testing.T) {
	d := New("fn main() {}\n\n\n\n")
	a := mustAnchorAfter(t, d, d.Len()-2)

	if err := d.InsertAt(a, "first"); err != nil {
		t.Fatalf("InsertAt() error = %v", err)
	}
	// Concurrent user edit near the top.
	if err := d.Edit([]Edit{{Start: 0, End: 2, Text: "func"}}); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if err := d.InsertAt(a, " second"); err != nil {
		t.Fatalf("InsertAt() error = %v", err)
	}

	got := d.Snapshot().Text
	if !strings.Contains(got, "first second") {
		t.Errorf("Text = %q, want contiguous %q", got, "first second")
	}
	if !strings.HasPrefix(got, "func main()") {
		t.Errorf("Text = %q, want user edit applied at top", got)
	}
	if !strings.HasSuffix(got, "first second\n\n") {
		t.Errorf("Text = %q, want insertions before trailing padding", got)
	}
}

func TestBatchResolvesAnchorOnce(t *testing.T) {
	d := New("0123456789")
	a := mustAnchorAfter(t, d, 6)

	// Two edits before the anchor in one batch: both deltas accumulate.
	err := d.Edit([]Edit{
		{Start: 0, End: 1, Text: "xxx"}, // +2
		{Start: 3, End: 5, Text: "y"},   // -1
	})
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}

	off, _ := d.Offset(a)
	if off != 7 {
		t.Errorf("anchor offset = %d, want 7", off)
	}
}

func TestReleaseInvalidatesAnchor(t *testing.T) {
	d := New("abc")
	a := mustAnchorAfter(t, d, 1)

	d.Release(a)

	if _, ok := d.Offset(a); ok {
		t.Error("Offset() ok = true after Release, want false")
	}
	if err := d.InsertAt(a, "x"); !errors.Is(err, ErrUnknownAnchor) {
		t.Errorf("InsertAt() error = %v, want ErrUnknownAnchor", err)
	}
	// Double release is fine.
	d.Release(a)
}

func TestOffsetUnknownAnchor(t *testing.T) {
	d := New("abc")
	if _, ok := d.Offset(Anchor{}); ok {
		t.Error("Offset(zero anchor) ok = true, want false")
	}
}
