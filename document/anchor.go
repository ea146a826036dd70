package document

import "fmt"

// Bias controls which side of co-located insertions an anchor gravitates to.
type Bias int

const (
	// BiasBefore keeps the anchor on the left of text inserted at its
	// position.
	BiasBefore Bias = iota
	// BiasAfter carries the anchor past text inserted at its position, so
	// the anchor always trails what was just inserted.
	BiasAfter
)

// Anchor is an opaque handle to a tracked position in one Document.
// The zero value is not a valid anchor.
type Anchor struct {
	id uint64
}

type anchorState struct {
	offset int
	bias   Bias
}

// AnchorAfter registers an anchor at offset with after bias. The anchor
// stays valid across edits until released.
func (d *Document) AnchorAfter(offset int) (Anchor, error) {
	return d.anchor(offset, BiasAfter)
}

// AnchorBefore registers an anchor at offset with before bias.
func (d *Document) AnchorBefore(offset int) (Anchor, error) {
	return d.anchor(offset, BiasBefore)
}

func (d *Document) anchor(offset int, bias Bias) (Anchor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if offset < 0 || offset > len(d.text) {
		return Anchor{}, fmt.Errorf("%w: anchor at %d of %d bytes", ErrOutOfRange, offset, len(d.text))
	}
	d.nextID++
	id := d.nextID
	d.anchors[id] = &anchorState{offset: offset, bias: bias}
	return Anchor{id: id}, nil
}

// Offset resolves the anchor's current position. ok is false when the
// anchor was never registered with this document or has been released.
func (d *Document) Offset(a Anchor) (offset int, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.anchors[a.id]
	if !ok {
		return 0, false
	}
	return st.offset, true
}

// Release stops tracking the anchor. Releasing an unknown anchor is a no-op.
func (d *Document) Release(a Anchor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.anchors, a.id)
}

// InsertAt inserts text at the anchor's current position as one atomic
// step: resolution and splice happen under the same lock, so a concurrent
// edit cannot move the target between them. An after-biased anchor ends up
// past the inserted text, so consecutive inserts append in order.
func (d *Document) InsertAt(a Anchor, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.anchors[a.id]
	if !ok {
		return ErrUnknownAnchor
	}
	d.apply([]Edit{{Start: st.offset, End: st.offset, Text: text}})
	return nil
}

// resolveAcross folds a sorted batch of edits over one anchor position.
// Edit offsets address the pre-batch text; shift maps positions into the
// post-batch text as the walk passes each edit.
func resolveAcross(pos int, bias Bias, edits []Edit) int {
	shift := 0
	for _, e := range edits {
		s, end, l := e.Start, e.End, len(e.Text)
		switch {
		case end < pos || (end == pos && s < end):
			// Replaced range sits entirely before the anchor: carry the
			// length delta.
			shift += l - (end - s)
		case s == pos && end == pos:
			// Insertion exactly at the anchor.
			if bias == BiasAfter {
				shift += l
				continue
			}
			return pos + shift
		case s <= pos && pos < end:
			// Anchor inside the replaced range: clamp to a replacement edge.
			if bias == BiasAfter {
				return s + shift + l
			}
			return s + shift
		default:
			// Edit begins after the anchor; so does everything that follows.
			return pos + shift
		}
	}
	return pos + shift
}
