// Package codec converts between morpheme spans and per-letter label
// sequences.
//
// Two encodings exist. The full variant marks every position with
// B/M/E/S positional tags and is the scoring representation. The
// simple variant is the classifier-target space: PREF/ROOT/SUFF runs
// open with a B- tag and continue with the bare kind, while all other
// kinds emit one bare tag per letter. DecodeSimple inverts the simple
// variant back into the full variant and must tolerate any label
// sequence a real classifier can emit, not only well-formed ones.
package codec

import (
	"strings"

	"github.com/glagol-nlp/morfem/core/morpheme"
)

// EncodeFull returns the full-variant label sequence of a word: S-<kind>
// for single-letter morphemes, otherwise B-<kind>, M-<kind>..., E-<kind>.
// The result length equals the word's letter count.
func EncodeFull(w *morpheme.Word) []string {
	labels := make([]string, 0, w.TotalLen())
	for _, m := range w.Morphemes() {
		kind := m.Kind().String()
		if m.Len() == 1 {
			labels = append(labels, "S-"+kind)
			continue
		}
		labels = append(labels, "B-"+kind)
		for i := 1; i < m.Len()-1; i++ {
			labels = append(labels, "M-"+kind)
		}
		labels = append(labels, "E-"+kind)
	}
	return labels
}

// EncodeSimple returns the simple-variant label sequence of a word.
// PREF, ROOT and SUFF need a detectable "new segment started" signal,
// so they open with B-<kind> and continue bare; every other kind emits
// the bare kind for all letters including the first.
func EncodeSimple(w *morpheme.Word) []string {
	labels := make([]string, 0, w.TotalLen())
	for _, m := range w.Morphemes() {
		kind := m.Kind().String()
		switch m.Kind() {
		case morpheme.KindPrefix, morpheme.KindRoot, morpheme.KindSuffix:
			labels = append(labels, "B-"+kind)
			for i := 1; i < m.Len(); i++ {
				labels = append(labels, kind)
			}
		default:
			for i := 0; i < m.Len(); i++ {
				labels = append(labels, kind)
			}
		}
	}
	return labels
}

// DecodeSimple reconstructs the full-variant label sequence from a flat
// simple-variant sequence. It scans left to right maintaining a current
// open run; a letter extends the run when either
//
//   - its label is bare SUFF/PREF/ROOT and the immediately preceding
//     raw label is the matching B-<kind>, or
//   - its label equals the preceding raw label and does not itself
//     start with "B-".
//
// Any other label closes the run and opens a new one. Closed runs are
// normalized (a leading B- on the first label is stripped) and
// re-emitted as S- or B/M/E positional tags.
func DecodeSimple(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}

	var runs [][]string
	run := []string{labels[0]}
	for i := 1; i < len(labels); i++ {
		label, prev := labels[i], labels[i-1]
		switch {
		case continuesBegunRun(label, prev):
			run = append(run, label)
		case label != prev || strings.HasPrefix(label, "B-"):
			runs = append(runs, run)
			run = []string{label}
		default:
			run = append(run, label)
		}
	}
	runs = append(runs, run)

	out := make([]string, 0, len(labels))
	for _, r := range runs {
		out = append(out, reencodeRun(r)...)
	}
	return out
}

// continuesBegunRun reports whether a bare PREF/ROOT/SUFF label
// continues a run opened by its positional-begin variant.
func continuesBegunRun(label, prev string) bool {
	switch label {
	case "SUFF":
		return prev == "B-SUFF"
	case "PREF":
		return prev == "B-PREF"
	case "ROOT":
		return prev == "B-ROOT"
	}
	return false
}

// reencodeRun turns one closed run of raw simple labels into
// full-variant positional tags.
func reencodeRun(run []string) []string {
	first := run[0]
	switch first {
	case "B-PREF":
		first = "PREF"
	case "B-SUFF":
		first = "SUFF"
	case "B-ROOT":
		first = "ROOT"
	}
	if len(run) == 1 {
		return []string{"S-" + first}
	}
	out := make([]string, len(run))
	out[0] = "B-" + first
	for i := 1; i < len(run)-1; i++ {
		out[i] = "M-" + run[i]
	}
	out[len(run)-1] = "E-" + run[len(run)-1]
	return out
}

// Truncate cuts a classifier output sequence down to a word's letter
// count. Classifier output is at least as long as the word (padding);
// shorter sequences are returned unchanged and surface later as
// scoring error signal, never as a failure here.
func Truncate(labels []string, n int) []string {
	if len(labels) <= n {
		return labels
	}
	return labels[:n]
}
