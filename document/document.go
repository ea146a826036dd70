// Package document provides an in-memory text document with versioned
// snapshots, batched range edits, and bias-tracked anchors that stay valid
// as the text changes.
//
// A Document serializes all access through an internal mutex: one writer
// mutates at a time, and anchors re-resolve as edits land. Goroutines
// holding anchors into different regions can therefore edit without any
// coordination beyond the anchors themselves.
//
// Offsets are byte offsets. Callers slicing multi-byte text are responsible
// for keeping offsets on encoding boundaries.
package document

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Errors returned by document operations.
var (
	ErrOutOfRange    = errors.New("document: offset out of range")
	ErrInvalidEdits  = errors.New("document: edits must be ordered and non-overlapping")
	ErrUnknownAnchor = errors.New("document: unknown anchor")
)

// Range is a half-open byte interval [Start, End) into a document.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int { return r.End - r.Start }

// Edit replaces the bytes in [Start, End) with Text. A zero-length range is
// an insertion. Offsets address the text as it was before the batch the
// edit belongs to.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Snapshot is an immutable view of document state at a point in time.
type Snapshot struct {
	Text    string
	Version int64
}

// Document is a mutable text buffer with anchor tracking.
type Document struct {
	mu      sync.Mutex
	text    string
	version int64
	nextID  uint64
	anchors map[uint64]*anchorState
}

// New creates a document holding text.
func New(text string) *Document {
	return &Document{
		text:    text,
		anchors: make(map[uint64]*anchorState),
	}
}

// Len returns the current length in bytes.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.text)
}

// Version returns the current edit version. Every applied batch bumps it
// exactly once.
func (d *Document) Version() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

// Snapshot returns the current text and version.
func (d *Document) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{Text: d.text, Version: d.version}
}

// TextForRange returns the text in [start, end).
func (d *Document) TextForRange(start, end int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if start < 0 || end < start || end > len(d.text) {
		return "", fmt.Errorf("%w: [%d, %d) of %d bytes", ErrOutOfRange, start, end, len(d.text))
	}
	return d.text[start:end], nil
}

// Edit applies a batch of edits atomically and bumps the version once.
// All offsets address the pre-batch text; edits must be sorted by Start and
// must not overlap. Anchors re-resolve according to their bias.
func (d *Document) Edit(edits []Edit) error {
	if len(edits) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := validateEdits(edits, len(d.text)); err != nil {
		return err
	}
	d.apply(edits)
	return nil
}

// apply splices the batch into the text and re-resolves every anchor.
// Callers hold d.mu and have validated the batch.
func (d *Document) apply(edits []Edit) {
	var b strings.Builder
	last := 0
	for _, e := range edits {
		b.WriteString(d.text[last:e.Start])
		b.WriteString(e.Text)
		last = e.End
	}
	b.WriteString(d.text[last:])

	for _, a := range d.anchors {
		a.offset = resolveAcross(a.offset, a.bias, edits)
	}

	d.text = b.String()
	d.version++
}

func validateEdits(edits []Edit, n int) error {
	prevEnd := 0
	for i, e := range edits {
		if e.Start < 0 || e.End < e.Start || e.End > n {
			return fmt.Errorf("%w: edit %d spans [%d, %d) of %d bytes", ErrOutOfRange, i, e.Start, e.End, n)
		}
		if e.Start < prevEnd {
			return fmt.Errorf("%w: edit %d starts at %d before previous end %d", ErrInvalidEdits, i, e.Start, prevEnd)
		}
		prevEnd = e.End
	}
	return nil
}
