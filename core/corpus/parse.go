// Package corpus parses morphological-analysis corpus records into
// structured words.
//
// A record is one tab-separated line. By field count:
//
//	wordform <TAB> morpheme_spec
//	wordform <TAB> morpheme_spec <TAB> pos_tag
//	wordform <TAB> morpheme_spec <TAB> (ignored) <TAB> class_info
//
// morpheme_spec is a slash-separated list of text:KIND tokens whose
// spans cover the wordform contiguously from offset 0.
package corpus

import (
	"fmt"
	"strings"

	"github.com/glagol-nlp/morfem/core/errors"
	"github.com/glagol-nlp/morfem/core/morpheme"
)

// classPriority is the ordered substring-membership list used to derive
// a part-of-speech tag from a 4-field record's class info. First match
// wins.
var classPriority = []string{"ADJ", "VERB", "NOUN", "GRND", "ADV", "PART"}

// ParseLine converts one raw corpus record into a Word.
//
// Recoverable rejections (malformed shape, unknown KIND token, ':' or
// '/' inside the wordform) classify via errors.Recoverable so that
// ingestion can skip the line. An unknown class on a 4-field record is
// not recoverable: it signals a corpus/vocabulary mismatch.
func ParseLine(raw string) (*morpheme.Word, error) {
	fields := strings.Split(raw, "\t")

	var wordform, spec, pos string
	switch len(fields) {
	case 2:
		wordform, spec = fields[0], fields[1]
		pos = morpheme.DefaultSpeechPart
	case 3:
		wordform, spec, pos = fields[0], fields[1], fields[2]
	case 4:
		wordform, spec = fields[0], fields[1]
		sp, err := speechPartFromClassInfo(fields[3])
		if err != nil {
			return nil, err
		}
		pos = sp
	default:
		return nil, errors.NewParse(errors.ErrMalformedLine, "",
			fmt.Sprintf("expected 2-4 tab-separated fields, got %d", len(fields)))
	}

	if strings.ContainsAny(wordform, ":/") {
		return nil, errors.NewParse(errors.ErrAmbiguousWordform, wordform,
			"wordform contains ':' or '/'")
	}

	morphemes, err := parseSpec(spec)
	if err != nil {
		return nil, err
	}
	return morpheme.NewWord(morphemes, pos), nil
}

// parseSpec splits a slash-separated morpheme spec into spans with
// consecutive letter offsets starting at 0.
func parseSpec(spec string) ([]*morpheme.Morpheme, error) {
	tokens := strings.Split(spec, "/")
	morphemes := make([]*morpheme.Morpheme, 0, len(tokens))
	offset := 0
	for _, token := range tokens {
		text, kindName, found := strings.Cut(token, ":")
		if !found || text == "" || strings.Contains(kindName, ":") {
			return nil, errors.NewParse(errors.ErrMalformedLine, token,
				"morpheme token is not text:KIND")
		}
		kind, err := morpheme.ParseKind(kindName)
		if err != nil {
			return nil, err
		}
		m, err := morpheme.NewMorpheme(text, kind, offset)
		if err != nil {
			return nil, errors.NewParse(errors.ErrMalformedLine, token, err.Error())
		}
		morphemes = append(morphemes, m)
		offset += m.Len()
	}
	return morphemes, nil
}

func speechPartFromClassInfo(classInfo string) (string, error) {
	for _, sp := range classPriority {
		if strings.Contains(classInfo, sp) {
			return sp, nil
		}
	}
	return "", errors.NewParse(errors.ErrUnknownClass, classInfo,
		"class info matches no known speech part")
}
