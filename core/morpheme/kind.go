// Package morpheme defines the label vocabulary for Russian morpheme
// segmentation: the closed set of morpheme kinds, the fixed
// part-of-speech tag set, and the classification-target index table
// shared with the external sequence classifier.
package morpheme

import (
	"fmt"

	"github.com/glagol-nlp/morfem/core/errors"
)

// Kind identifies the morphological role of a span. The string values
// are the canonical KIND tokens of the corpus format and double as the
// kind component of positional labels ("B-ROOT", "S-LINK", ...).
type Kind string

const (
	KindUnknown Kind = "UNKN"
	KindPrefix  Kind = "PREF"
	KindRoot    Kind = "ROOT"
	KindSuffix  Kind = "SUFF"
	KindEnding  Kind = "END"
	KindLink    Kind = "LINK"
	KindHyphen  Kind = "HYPH"
	KindPostfix Kind = "POSTFIX"

	// KindNone marks an unlabeled span. It is a distinct variant, not
	// an absent value; corpus files never carry it, but its positional
	// markers stay in the scoring boundary set.
	KindNone Kind = "NONE"
)

// Kinds lists every morpheme kind in classification-target order.
var Kinds = []Kind{
	KindUnknown,
	KindPrefix,
	KindRoot,
	KindSuffix,
	KindEnding,
	KindLink,
	KindHyphen,
	KindPostfix,
	KindNone,
}

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, len(Kinds))
	for _, k := range Kinds {
		m[string(k)] = k
	}
	return m
}()

// ParseKind resolves a KIND token from a corpus morpheme spec.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindByName[s]; ok {
		return k, nil
	}
	return "", errors.NewParse(errors.ErrUnknownMorphemeKind, s, "unknown morpheme kind")
}

func (k Kind) String() string { return string(k) }

// classIndex is the fixed classification-target table. The order is
// the external classifier's output-index convention and never changes:
// the eight kinds first, then the three positional-begin variants that
// exist only in simple-label space.
var classIndex = map[string]int{
	"UNKN":    0,
	"PREF":    1,
	"ROOT":    2,
	"SUFF":    3,
	"END":     4,
	"LINK":    5,
	"HYPH":    6,
	"POSTFIX": 7,
	"B-SUFF":  8,
	"B-PREF":  9,
	"B-ROOT":  10,
}

// NumClasses is the size of the classification-target table.
const NumClasses = 11

var classLabel = func() []string {
	labels := make([]string, NumClasses)
	for name, id := range classIndex {
		labels[id] = name
	}
	return labels
}()

// ClassIndex returns the classifier output index for a simple label.
func ClassIndex(label string) (int, bool) {
	id, ok := classIndex[label]
	return id, ok
}

// ClassLabel returns the simple label for a classifier output index.
func ClassLabel(id int) (string, error) {
	if id < 0 || id >= NumClasses {
		return "", fmt.Errorf("class index %d out of range [0,%d)", id, NumClasses)
	}
	return classLabel[id], nil
}
