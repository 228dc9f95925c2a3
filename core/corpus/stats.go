package corpus

import (
	"github.com/glagol-nlp/morfem/core/morpheme"
)

// Stats aggregates segmentation statistics over a set of words.
type Stats struct {
	Words       int                   `json:"words"`
	Letters     int                   `json:"letters"`
	Morphemes   int                   `json:"morphemes"`
	Suffixes    int                   `json:"suffixes"`
	MaxLen      int                   `json:"max_len"`
	KindCounts  map[morpheme.Kind]int `json:"kind_counts"`
	SpeechParts map[string]int        `json:"speech_parts"`
}

// Collect computes statistics over words.
func Collect(words []*morpheme.Word) *Stats {
	s := &Stats{
		Words:       len(words),
		KindCounts:  make(map[morpheme.Kind]int),
		SpeechParts: make(map[string]int),
	}
	for _, w := range words {
		s.Letters += w.TotalLen()
		s.Morphemes += w.PartsCount()
		s.Suffixes += w.SuffixCount()
		if n := w.TotalLen(); n > s.MaxLen {
			s.MaxLen = n
		}
		s.SpeechParts[w.POS()]++
		for _, m := range w.Morphemes() {
			s.KindCounts[m.Kind()]++
		}
	}
	return s
}

// MorphemesPerWord is the mean morpheme count. Zero words yield zero.
func (s *Stats) MorphemesPerWord() float64 {
	if s.Words == 0 {
		return 0
	}
	return float64(s.Morphemes) / float64(s.Words)
}

// SuffixesPerWord is the mean suffix count. Zero words yield zero.
func (s *Stats) SuffixesPerWord() float64 {
	if s.Words == 0 {
		return 0
	}
	return float64(s.Suffixes) / float64(s.Words)
}
