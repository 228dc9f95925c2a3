package corpus

import (
	"testing"

	"github.com/glagol-nlp/morfem/core/morpheme"
)

func TestCollect(t *testing.T) {
	words := make([]*morpheme.Word, 0, 2)
	for _, line := range []string{
		"придворный\tпри:PREF/двор:ROOT/н:SUFF/ый:END\tADJ",
		"дом\tдом:ROOT",
	} {
		w, err := ParseLine(line)
		if err != nil {
			t.Fatalf("ParseLine(%q): %v", line, err)
		}
		words = append(words, w)
	}

	s := Collect(words)
	if s.Words != 2 || s.Letters != 13 || s.Morphemes != 5 {
		t.Errorf("stats = %+v", s)
	}
	if s.MaxLen != 10 {
		t.Errorf("MaxLen = %d, want 10", s.MaxLen)
	}
	if s.Suffixes != 1 {
		t.Errorf("Suffixes = %d, want 1", s.Suffixes)
	}
	if s.KindCounts[morpheme.KindRoot] != 2 || s.KindCounts[morpheme.KindPrefix] != 1 {
		t.Errorf("KindCounts = %v", s.KindCounts)
	}
	if s.SpeechParts["ADJ"] != 1 || s.SpeechParts["X"] != 1 {
		t.Errorf("SpeechParts = %v", s.SpeechParts)
	}
	if got := s.MorphemesPerWord(); got != 2.5 {
		t.Errorf("MorphemesPerWord = %v, want 2.5", got)
	}
}

func TestCollectEmpty(t *testing.T) {
	s := Collect(nil)
	if s.Words != 0 || s.MorphemesPerWord() != 0 || s.SuffixesPerWord() != 0 {
		t.Errorf("stats = %+v", s)
	}
}
