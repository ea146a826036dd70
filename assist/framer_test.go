package assist

import (
	"errors"
	"strings"
	"testing"

	"github.com/petal-labs/scribe/document"
)

func TestFrameSelectionsWrapsMarkers(t *testing.T) {
	doc := document.New("What is the tallest mountain?\n")

	prompt, _, err := FrameSelections(doc, []document.Range{{Start: 12, End: 29}})
	if err != nil {
		t.Fatalf("FrameSelections() error = %v", err)
	}

	want := "What is the ->->tallest mountain?<-<-\n"
	if prompt != want {
		t.Errorf("prompt = %q, want %q", prompt, want)
	}
}

func TestFrameSelectionsMultiple(t *testing.T) {
	doc := document.New("one two three four")

	prompt, _, err := FrameSelections(doc, []document.Range{
		{Start: 0, End: 3},
		{Start: 8, End: 13},
	})
	if err != nil {
		t.Fatalf("FrameSelections() error = %v", err)
	}

	want := "->->one<-<- two ->->three<-<- four"
	if prompt != want {
		t.Errorf("prompt = %q, want %q", prompt, want)
	}
}

func TestFrameSelectionsNoSelections(t *testing.T) {
	doc := document.New("plain document\n")

	prompt, _, err := FrameSelections(doc, nil)
	if err != nil {
		t.Fatalf("FrameSelections() error = %v", err)
	}

	if prompt != "plain document\n" {
		t.Errorf("prompt = %q, want document text unchanged", prompt)
	}
	if strings.Contains(prompt, SelectionStartMarker) {
		t.Error("prompt contains a start marker with no selections")
	}
}

// Stripping the markers from the prompt must reproduce the original text.
func TestFrameSelectionsStripRoundTrip(t *testing.T) {
	texts := []struct {
		name       string
		text       string
		selections []document.Range
	}{
		{"single", "summarize this paragraph please", []document.Range{{Start: 10, End: 24}}},
		{"adjacent", "abcdef", []document.Range{{Start: 0, End: 3}, {Start: 3, End: 6}}},
		{"empty selection", "abcdef", []document.Range{{Start: 2, End: 2}}},
		{"whole document", "abcdef", []document.Range{{Start: 0, End: 6}}},
		{"multiline", "line one\nline two\nline three\n", []document.Range{{Start: 9, End: 17}}},
	}

	for _, tt := range texts {
		t.Run(tt.name, func(t *testing.T) {
			doc := document.New(tt.text)
			prompt, _, err := FrameSelections(doc, tt.selections)
			if err != nil {
				t.Fatalf("FrameSelections() error = %v", err)
			}

			stripped := strings.ReplaceAll(prompt, SelectionStartMarker, "")
			stripped = strings.ReplaceAll(stripped, SelectionEndMarker, "")
			if stripped != tt.text {
				t.Errorf("stripped prompt = %q, want %q", stripped, tt.text)
			}
		})
	}
}

// The prompt is built from the document before padding, so a document with
// no trailing newlines yields a prompt with none either.
func TestFrameSelectionsPromptExcludesPadding(t *testing.T) {
	doc := document.New("no trailing newline")

	prompt, _, err := FrameSelections(doc, nil)
	if err != nil {
		t.Fatalf("FrameSelections() error = %v", err)
	}

	if prompt != "no trailing newline" {
		t.Errorf("prompt = %q, want pre-padding text", prompt)
	}
	if got := doc.Snapshot().Text; got != "no trailing newline\n\n\n\n" {
		t.Errorf("document text = %q, want padded tail", got)
	}
}

func TestFrameSelectionsPadsTrailingNewlines(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"none", "abc", "abc\n\n\n\n"},
		{"one", "abc\n", "abc\n\n\n\n"},
		{"two", "abc\n\n", "abc\n\n\n\n"},
		{"three", "abc\n\n\n", "abc\n\n\n\n"},
		{"exactly four", "abc\n\n\n\n", "abc\n\n\n\n"},
		{"more than four", "abc\n\n\n\n\n\n", "abc\n\n\n\n\n\n"},
		{"empty document", "", "\n\n\n\n"},
		{"only newlines", "\n\n", "\n\n\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := document.New(tt.text)
			if _, _, err := FrameSelections(doc, nil); err != nil {
				t.Fatalf("FrameSelections() error = %v", err)
			}
			if got := doc.Snapshot().Text; got != tt.want {
				t.Errorf("document text = %q, want %q", got, tt.want)
			}
		})
	}
}

// Padding is append-only. A tail that already satisfies the target is left
// alone and the version does not move.
func TestFrameSelectionsNoEditWhenAlreadyPadded(t *testing.T) {
	for _, text := range []string{"abc\n\n\n\n", "abc\n\n\n\n\n\n\n"} {
		doc := document.New(text)
		before := doc.Version()

		if _, _, err := FrameSelections(doc, nil); err != nil {
			t.Fatalf("FrameSelections() error = %v", err)
		}

		if got := doc.Version(); got != before {
			t.Errorf("version = %d after framing %q, want %d", got, text, before)
		}
	}
}

func TestFrameSelectionsPaddingBumpsVersionOnce(t *testing.T) {
	doc := document.New("abc\n")
	before := doc.Version()

	if _, _, err := FrameSelections(doc, nil); err != nil {
		t.Fatalf("FrameSelections() error = %v", err)
	}

	if got := doc.Version(); got != before+1 {
		t.Errorf("version = %d, want %d", got, before+1)
	}
}

// The anchor sits two bytes before the padded end, so insertions land
// between the two pairs of trailing newlines and stay in order.
func TestFrameSelectionsAnchorPlacement(t *testing.T) {
	doc := document.New("question?\n")

	_, anchor, err := FrameSelections(doc, nil)
	if err != nil {
		t.Fatalf("FrameSelections() error = %v", err)
	}

	if err := doc.InsertAt(anchor, "first"); err != nil {
		t.Fatalf("InsertAt() error = %v", err)
	}
	if err := doc.InsertAt(anchor, " second"); err != nil {
		t.Fatalf("InsertAt() error = %v", err)
	}

	want := "question?\n\nfirst second\n\n"
	if got := doc.Snapshot().Text; got != want {
		t.Errorf("document text = %q, want %q", got, want)
	}
}

func TestFrameSelectionsAnchorOnEmptyDocument(t *testing.T) {
	doc := document.New("")

	_, anchor, err := FrameSelections(doc, nil)
	if err != nil {
		t.Fatalf("FrameSelections() error = %v", err)
	}

	if err := doc.InsertAt(anchor, "reply"); err != nil {
		t.Fatalf("InsertAt() error = %v", err)
	}

	if got := doc.Snapshot().Text; got != "\n\nreply\n\n" {
		t.Errorf("document text = %q, want %q", got, "\n\nreply\n\n")
	}
}

func TestFrameSelectionsValidation(t *testing.T) {
	tests := []struct {
		name       string
		selections []document.Range
		wantErr    error
	}{
		{"negative start", []document.Range{{Start: -1, End: 2}}, document.ErrOutOfRange},
		{"end before start", []document.Range{{Start: 4, End: 2}}, document.ErrOutOfRange},
		{"end past document", []document.Range{{Start: 0, End: 99}}, document.ErrOutOfRange},
		{"overlapping", []document.Range{{Start: 0, End: 4}, {Start: 2, End: 6}}, ErrInvalidSelections},
		{"unordered", []document.Range{{Start: 4, End: 6}, {Start: 0, End: 2}}, ErrInvalidSelections},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := document.New("abcdefgh")
			before := doc.Version()

			_, _, err := FrameSelections(doc, tt.selections)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("FrameSelections() error = %v, want %v", err, tt.wantErr)
			}

			// Validation failures must not touch the document.
			if got := doc.Version(); got != before {
				t.Errorf("version = %d after failed framing, want %d", got, before)
			}
		})
	}
}
