// Package eval scores predicted label sequences against gold sequences
// with boundary-aware precision/recall/F1, per-letter accuracy, and
// whole-word exact-match accuracy.
package eval

import (
	"fmt"

	"github.com/glagol-nlp/morfem/core/codec"
	"github.com/glagol-nlp/morfem/core/errors"
	"github.com/glagol-nlp/morfem/core/morpheme"
)

// boundaryLabels is the set of labels marking a morpheme-ending
// position: every single- and end-marked tag over the five span-closing
// kinds plus NONE. The NONE entries are kept deliberately: unlabeled
// single/final letters count as boundaries in this scheme.
var boundaryLabels = func() map[string]struct{} {
	kinds := []string{"ROOT", "PREF", "SUFF", "END", "LINK", "NONE"}
	set := make(map[string]struct{}, 2*len(kinds))
	for _, pos := range []string{"S", "E"} {
		for _, k := range kinds {
			set[pos+"-"+k] = struct{}{}
		}
	}
	return set
}()

// Options configures scoring.
type Options struct {
	// Verbose collects a Mismatch for every word whose predicted
	// sequence differs from gold. Mismatches are diagnostic data, not
	// errors, and have no effect on the computed metrics.
	Verbose bool
}

// Mismatch records one mispredicted word for diagnostic output.
type Mismatch struct {
	Word      string   `json:"word"`
	Gold      []string `json:"gold"`
	Predicted []string `json:"predicted"`
}

// Metrics is the dataset-wide scoring result. Counts accumulate across
// all words before any ratio is computed.
type Metrics struct {
	Precision    float64 `json:"precision"`
	Recall       float64 `json:"recall"`
	F1           float64 `json:"f1"`
	Accuracy     float64 `json:"accuracy"`
	WordAccuracy float64 `json:"word_accuracy"`

	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	FalseNegatives int `json:"false_negatives"`
	Words          int `json:"words"`
	CorrectWords   int `json:"correct_words"`

	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// Score compares predicted against gold label sequences. The three
// slices must be index-aligned (same word, same position); violating
// that is a caller error. Predicted and gold sequences of one word may
// legitimately differ in length; that is error signal for the
// metrics, not a failure.
//
// A zero denominator in any ratio fails loudly with ErrUndefinedMetric
// rather than returning 0 or NaN: it indicates a degenerate
// evaluation set.
func Score(predicted, gold [][]string, words []*morpheme.Word, opts Options) (*Metrics, error) {
	if len(predicted) != len(gold) || len(gold) != len(words) {
		return nil, errors.NewScore(errors.ErrLengthMismatch, "",
			fmt.Sprintf("%d predicted / %d gold / %d words", len(predicted), len(gold), len(words)))
	}

	m := &Metrics{Words: len(words)}
	equal, total := 0, 0

	for i := range gold {
		goldSeq, predSeq := gold[i], predicted[i]

		goldBounds := boundaryIndices(goldSeq)
		predBounds := boundaryIndices(predSeq)
		common := 0
		for idx := range goldBounds {
			if _, ok := predBounds[idx]; ok {
				common++
			}
		}
		m.TruePositives += common
		m.FalseNegatives += len(goldBounds) - common
		m.FalsePositives += len(predBounds) - common

		for j := 0; j < len(goldSeq) && j < len(predSeq); j++ {
			if goldSeq[j] == predSeq[j] {
				equal++
			}
		}
		total += len(goldSeq)

		if sequencesEqual(goldSeq, predSeq) {
			m.CorrectWords++
		} else if opts.Verbose {
			m.Mismatches = append(m.Mismatches, Mismatch{
				Word:      words[i].Text(),
				Gold:      goldSeq,
				Predicted: predSeq,
			})
		}
	}

	tp, fp, fn := m.TruePositives, m.FalsePositives, m.FalseNegatives
	if tp+fp == 0 {
		return nil, errors.NewScore(errors.ErrUndefinedMetric, "precision", "no predicted boundaries")
	}
	if tp+fn == 0 {
		return nil, errors.NewScore(errors.ErrUndefinedMetric, "recall", "no gold boundaries")
	}
	if total == 0 {
		return nil, errors.NewScore(errors.ErrUndefinedMetric, "accuracy", "empty gold sequences")
	}
	if m.Words == 0 {
		return nil, errors.NewScore(errors.ErrUndefinedMetric, "word accuracy", "no words to score")
	}

	m.Precision = float64(tp) / float64(tp+fp)
	m.Recall = float64(tp) / float64(tp+fn)
	m.F1 = float64(tp) / (float64(tp) + 0.5*float64(fp+fn))
	m.Accuracy = float64(equal) / float64(total)
	m.WordAccuracy = float64(m.CorrectWords) / float64(m.Words)
	return m, nil
}

// ScoreSimple scores simple-scheme predictions against the gold words
// directly: each prediction is truncated to its word's letter count,
// decoded into full labels, and compared to the word's own full
// encoding. This is the usual entry point when predictions come from a
// sequence tagger emitting the simple label set.
func ScoreSimple(predicted [][]string, words []*morpheme.Word, opts Options) (*Metrics, error) {
	if len(predicted) != len(words) {
		return nil, errors.NewScore(errors.ErrLengthMismatch, "",
			fmt.Sprintf("%d predicted / %d words", len(predicted), len(words)))
	}
	gold := make([][]string, len(words))
	decoded := make([][]string, len(predicted))
	for i, w := range words {
		gold[i] = codec.EncodeFull(w)
		// Cut to word length first: labels past the end come from batch
		// padding and must not influence how the final run is closed.
		decoded[i] = codec.DecodeSimple(codec.Truncate(predicted[i], w.TotalLen()))
	}
	return Score(decoded, gold, words, opts)
}

// boundaryIndices returns the set of positions whose label marks a
// morpheme ending, bounded by the sequence's own length.
func boundaryIndices(seq []string) map[int]struct{} {
	out := make(map[int]struct{})
	for i, label := range seq {
		if _, ok := boundaryLabels[label]; ok {
			out[i] = struct{}{}
		}
	}
	return out
}

func sequencesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
