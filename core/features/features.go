// Package features packages words into the per-letter feature rows and
// classification targets consumed by the external sequence classifier.
//
// The layout is fixed and shared with the classifier: each letter row
// is a vowel flag, a one-hot letter code over 35 classes, and a one-hot
// part-of-speech tag over 21 classes. The letter-code table covers the
// 33 Cyrillic letters plus '-', frequency-ranked; code 0 is reserved
// for anything outside the table.
package features

import (
	"github.com/glagol-nlp/morfem/core/codec"
	"github.com/glagol-nlp/morfem/core/errors"
	"github.com/glagol-nlp/morfem/core/morpheme"
)

// letterCodes assigns each in-alphabet letter its classifier code.
// Order is frequency rank in the training corpus; it must not change
// while trained models are in use.
var letterCodes = map[rune]int{
	'о': 1, 'е': 2, 'а': 3, 'и': 4, 'н': 5, 'т': 6, 'с': 7,
	'р': 8, 'в': 9, 'л': 10, 'к': 11, 'м': 12, 'д': 13, 'п': 14,
	'у': 15, 'я': 16, 'ы': 17, 'ь': 18, 'г': 19, 'з': 20, 'б': 21,
	'ч': 22, 'й': 23, 'х': 24, 'ж': 25, 'ш': 26, 'ю': 27, 'ц': 28,
	'щ': 29, 'э': 30, 'ф': 31, 'ъ': 32, 'ё': 33, '-': 34,
}

var vowels = map[rune]struct{}{
	'а': {}, 'и': {}, 'е': {}, 'ё': {}, 'о': {},
	'у': {}, 'ы': {}, 'э': {}, 'ю': {}, 'я': {},
}

const (
	// NumLetterClasses is the one-hot width of the letter code: the 34
	// table entries plus the out-of-table code 0.
	NumLetterClasses = 35

	// RowWidth is the length of one letter's feature row: vowel flag,
	// letter one-hot, part-of-speech one-hot.
	RowWidth = 1 + NumLetterClasses + 21

	// MaskValue pads feature rows and target vectors past a word's end.
	MaskValue = 0
)

// LetterCode returns the classifier code of a letter, 0 when the
// letter is outside the table.
func LetterCode(r rune) int {
	return letterCodes[r]
}

// IsVowel reports whether r is one of the ten Cyrillic vowels.
func IsVowel(r rune) bool {
	_, ok := vowels[r]
	return ok
}

// LetterRow builds the feature row of a single letter within a word of
// the given part of speech. Unknown speech parts fall back to the
// catch-all tag.
func LetterRow(r rune, speechPart string) []int8 {
	row := make([]int8, RowWidth)
	if IsVowel(r) {
		row[0] = 1
	}
	row[1+LetterCode(r)] = 1
	spIdx, ok := morpheme.SpeechPartIndex(speechPart)
	if !ok {
		spIdx, _ = morpheme.SpeechPartIndex(morpheme.DefaultSpeechPart)
	}
	row[1+NumLetterClasses+spIdx] = 1
	return row
}

// WordMatrix builds the feature matrix of a word, one row per letter.
func WordMatrix(w *morpheme.Word) [][]int8 {
	runes := w.Runes()
	rows := make([][]int8, len(runes))
	for i, r := range runes {
		rows[i] = LetterRow(r, w.POS())
	}
	return rows
}

// Targets returns the classification-target indices of a word's simple
// labels, one per letter.
func Targets(w *morpheme.Word) ([]int, error) {
	labels := codec.EncodeSimple(w)
	out := make([]int, len(labels))
	for i, label := range labels {
		id, ok := morpheme.ClassIndex(label)
		if !ok {
			return nil, errors.Wrapf(errors.ErrUnknownMorphemeKind,
				"label %q has no classification target", label)
		}
		out[i] = id
	}
	return out, nil
}

// PadMatrix post-pads a feature matrix with zero rows to maxLen rows.
func PadMatrix(rows [][]int8, maxLen int) [][]int8 {
	if len(rows) >= maxLen {
		return rows
	}
	out := make([][]int8, maxLen)
	copy(out, rows)
	for i := len(rows); i < maxLen; i++ {
		out[i] = make([]int8, RowWidth)
	}
	return out
}

// PadTargets post-pads a target vector with the mask value to maxLen.
func PadTargets(targets []int, maxLen int) []int {
	if len(targets) >= maxLen {
		return targets
	}
	out := make([]int, maxLen)
	copy(out, targets)
	for i := len(targets); i < maxLen; i++ {
		out[i] = MaskValue
	}
	return out
}

// Example is the JSONL export unit an external trainer consumes.
type Example struct {
	Text         string   `json:"text"`
	SpeechPart   string   `json:"speech_part"`
	SimpleLabels []string `json:"simple_labels"`
	Targets      []int    `json:"targets"`
	Features     [][]int8 `json:"features"`
}

// Build assembles the export record of one word.
func Build(w *morpheme.Word) (*Example, error) {
	targets, err := Targets(w)
	if err != nil {
		return nil, err
	}
	return &Example{
		Text:         w.Text(),
		SpeechPart:   w.POS(),
		SimpleLabels: codec.EncodeSimple(w),
		Targets:      targets,
		Features:     WordMatrix(w),
	}, nil
}
