package morpheme

import (
	"fmt"
	"strings"
)

// Morpheme is one contiguous labeled span of a word. Positions and
// lengths are in letters (runes), never bytes. Immutable after
// construction.
type Morpheme struct {
	text  []rune
	kind  Kind
	start int
}

// NewMorpheme creates a morpheme spanning text at the given letter
// offset within its owning word. The text must be non-empty.
func NewMorpheme(text string, kind Kind, start int) (*Morpheme, error) {
	if text == "" {
		return nil, fmt.Errorf("empty morpheme text at offset %d", start)
	}
	return &Morpheme{text: []rune(text), kind: kind, start: start}, nil
}

// Text returns the morpheme's surface text.
func (m *Morpheme) Text() string { return string(m.text) }

// Kind returns the morpheme's kind.
func (m *Morpheme) Kind() Kind { return m.kind }

// Start returns the zero-based letter offset within the owning word.
func (m *Morpheme) Start() int { return m.start }

// Len returns the span length in letters.
func (m *Morpheme) Len() int { return len(m.text) }

// End returns Start()+Len().
func (m *Morpheme) End() int { return m.start + len(m.text) }

// Unlabeled reports whether the morpheme carries no label.
func (m *Morpheme) Unlabeled() bool { return m.kind == KindNone }

// String renders the morpheme in corpus form, "text:KIND".
func (m *Morpheme) String() string {
	return string(m.text) + ":" + string(m.kind)
}

// Word is an ordered sequence of contiguous morphemes plus a
// part-of-speech tag. Immutable after construction. Morphemes are
// owned exclusively; the constructor always allocates a fresh slice.
type Word struct {
	morphemes []*Morpheme
	pos       string
}

// NewWord builds a word from morphemes in order. An empty pos defaults
// to the catch-all tag "X". The slice is copied.
func NewWord(morphemes []*Morpheme, pos string) *Word {
	if pos == "" {
		pos = DefaultSpeechPart
	}
	owned := make([]*Morpheme, len(morphemes))
	copy(owned, morphemes)
	return &Word{morphemes: owned, pos: pos}
}

// Morphemes returns the word's morphemes in order. The returned slice
// is a copy; the spans themselves are shared and immutable.
func (w *Word) Morphemes() []*Morpheme {
	out := make([]*Morpheme, len(w.morphemes))
	copy(out, w.morphemes)
	return out
}

// POS returns the part-of-speech tag.
func (w *Word) POS() string { return w.pos }

// Text returns the full surface text, the concatenation of all
// morpheme texts in order.
func (w *Word) Text() string {
	var b strings.Builder
	for _, m := range w.morphemes {
		b.WriteString(string(m.text))
	}
	return b.String()
}

// Runes returns the full surface text as letters.
func (w *Word) Runes() []rune {
	out := make([]rune, 0, w.TotalLen())
	for _, m := range w.morphemes {
		out = append(out, m.text...)
	}
	return out
}

// TotalLen returns the word length in letters.
func (w *Word) TotalLen() int {
	n := 0
	for _, m := range w.morphemes {
		n += len(m.text)
	}
	return n
}

// PartsCount returns the number of morphemes.
func (w *Word) PartsCount() int { return len(w.morphemes) }

// SuffixCount returns the number of SUFF morphemes.
func (w *Word) SuffixCount() int {
	n := 0
	for _, m := range w.morphemes {
		if m.kind == KindSuffix {
			n++
		}
	}
	return n
}

// Unlabeled reports whether every morpheme carries no label.
func (w *Word) Unlabeled() bool {
	for _, m := range w.morphemes {
		if !m.Unlabeled() {
			return false
		}
	}
	return true
}

// String renders the word in corpus morpheme-spec form,
// "text:KIND/text:KIND/...".
func (w *Word) String() string {
	parts := make([]string, len(w.morphemes))
	for i, m := range w.morphemes {
		parts[i] = m.String()
	}
	return strings.Join(parts, "/")
}
