package morpheme

// DefaultSpeechPart is the catch-all tag assigned when a corpus record
// carries no part-of-speech information.
const DefaultSpeechPart = "X"

// SpeechParts is the fixed part-of-speech tag set, in one-hot index
// order shared with the external classifier's feature layout.
var SpeechParts = []string{
	"X",
	"ADJ",
	"ADV",
	"INTJ",
	"NOUN",
	"PROPN",
	"VERB",
	"ADP",
	"AUX",
	"CONJ",
	"SCONJ",
	"DET",
	"NUM",
	"PART",
	"PRON",
	"PUNCT",
	"GRND",
	"H",
	"R",
	"Q",
	"SYM",
}

var speechPartIndex = func() map[string]int {
	m := make(map[string]int, len(SpeechParts))
	for i, sp := range SpeechParts {
		m[sp] = i
	}
	return m
}()

// SpeechPartIndex returns the one-hot index of a part-of-speech tag.
func SpeechPartIndex(tag string) (int, bool) {
	i, ok := speechPartIndex[tag]
	return i, ok
}
