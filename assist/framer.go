package assist

import (
	"errors"
	"fmt"
	"strings"

	"github.com/petal-labs/scribe/document"
)

// Selection markers wrapped around each selected range in the outbound
// prompt. The system prompt teaches the model the same convention.
const (
	SelectionStartMarker = "->->"
	SelectionEndMarker   = "<-<-"
)

// trailingNewlineTarget is the number of newlines the document tail is
// padded to before streaming begins. The response lands two bytes before
// the new end, leaving one blank line on each side.
const trailingNewlineTarget = 4

// ErrInvalidSelections is returned when selections are unordered or overlap.
var ErrInvalidSelections = errors.New("assist: selections must be ordered and non-overlapping")

// FrameSelections renders the document into a prompt with every selection
// wrapped in sentinel markers, pads the document tail to exactly four
// trailing newlines, and returns an after-biased anchor two bytes before
// the new end.
//
// The prompt reflects the document BEFORE padding: stripping the markers
// from it reproduces the original text exactly. With no selections the
// prompt is the whole document, no markers.
//
// Padding only ever appends. A document already carrying four or more
// trailing newlines is left untouched, version included.
func FrameSelections(doc *document.Document, selections []document.Range) (string, document.Anchor, error) {
	snap := doc.Snapshot()

	if err := validateSelections(snap.Text, selections); err != nil {
		return "", document.Anchor{}, err
	}

	var prompt strings.Builder
	offset := 0
	for _, sel := range selections {
		prompt.WriteString(snap.Text[offset:sel.Start])
		prompt.WriteString(SelectionStartMarker)
		prompt.WriteString(snap.Text[sel.Start:sel.End])
		prompt.WriteString(SelectionEndMarker)
		offset = sel.End
	}
	prompt.WriteString(snap.Text[offset:])

	newLen, err := padTrailingNewlines(doc, snap.Text)
	if err != nil {
		return "", document.Anchor{}, err
	}

	anchor, err := doc.AnchorAfter(newLen - 2)
	if err != nil {
		return "", document.Anchor{}, err
	}
	return prompt.String(), anchor, nil
}

// padTrailingNewlines appends enough newlines to bring the document tail to
// the target count and returns the resulting length. The count is capped at
// the target while scanning, so longer runs are preserved as they are and
// no edit is issued.
func padTrailingNewlines(doc *document.Document, text string) (int, error) {
	missing := trailingNewlineTarget - trailingNewlines(text, trailingNewlineTarget)
	if missing == 0 {
		return len(text), nil
	}

	suffix := strings.Repeat("\n", missing)
	err := doc.Edit([]document.Edit{{Start: len(text), End: len(text), Text: suffix}})
	if err != nil {
		return 0, err
	}
	return len(text) + missing, nil
}

// trailingNewlines counts consecutive '\n' bytes at the end of s, up to
// limit.
func trailingNewlines(s string, limit int) int {
	count := 0
	for i := len(s) - 1; i >= 0 && count < limit; i-- {
		if s[i] != '\n' {
			break
		}
		count++
	}
	return count
}

func validateSelections(text string, selections []document.Range) error {
	prevEnd := 0
	for i, sel := range selections {
		if sel.Start < 0 || sel.End < sel.Start || sel.End > len(text) {
			return fmt.Errorf("%w: selection %d spans [%d, %d) of %d bytes",
				document.ErrOutOfRange, i, sel.Start, sel.End, len(text))
		}
		if sel.Start < prevEnd {
			return fmt.Errorf("%w: selection %d starts at %d before previous end %d",
				ErrInvalidSelections, i, sel.Start, prevEnd)
		}
		prevEnd = sel.End
	}
	return nil
}
