package corpus

import (
	"testing"

	"github.com/glagol-nlp/morfem/core/errors"
)

func TestParseLineTwoFields(t *testing.T) {
	w, err := ParseLine("дом\tдом:ROOT")
	if err != nil {
		t.Fatal(err)
	}
	if w.Text() != "дом" {
		t.Errorf("Text() = %q", w.Text())
	}
	if w.POS() != "X" {
		t.Errorf("POS() = %q, want default X", w.POS())
	}
	ms := w.Morphemes()
	if len(ms) != 1 || ms[0].Kind().String() != "ROOT" || ms[0].Start() != 0 || ms[0].Len() != 3 {
		t.Errorf("unexpected morphemes: %v", w)
	}
}

func TestParseLineThreeFields(t *testing.T) {
	w, err := ParseLine("придворный\tпри:PREF/двор:ROOT/н:SUFF/ый:END\tADJ")
	if err != nil {
		t.Fatal(err)
	}
	if w.POS() != "ADJ" {
		t.Errorf("POS() = %q, want ADJ", w.POS())
	}
	ms := w.Morphemes()
	if len(ms) != 4 {
		t.Fatalf("PartsCount = %d, want 4", len(ms))
	}
	wantStarts := []int{0, 3, 7, 8}
	for i, m := range ms {
		if m.Start() != wantStarts[i] {
			t.Errorf("morpheme %d starts at %d, want %d", i, m.Start(), wantStarts[i])
		}
	}
	if ms[3].End() != w.TotalLen() {
		t.Errorf("last morpheme ends at %d, total length %d", ms[3].End(), w.TotalLen())
	}
}

func TestParseLineFourFields(t *testing.T) {
	tests := []struct {
		classInfo string
		wantPOS   string
	}{
		{"ADJ,nomn,masc", "ADJ"},
		{"VERB,perf", "VERB"},
		{"NOUN sing", "NOUN"},
		{"GRND", "GRND"},
		{"ADVB,ADV", "ADV"},
		{"PARTICLE,PART", "PART"},
		// priority: ADJ wins over NOUN when both appear
		{"NOUN+ADJ", "ADJ"},
	}
	for _, tt := range tests {
		line := "дом\tдом:ROOT\tignored\t" + tt.classInfo
		w, err := ParseLine(line)
		if err != nil {
			t.Errorf("ParseLine(%q): %v", line, err)
			continue
		}
		if w.POS() != tt.wantPOS {
			t.Errorf("class %q: POS = %q, want %q", tt.classInfo, w.POS(), tt.wantPOS)
		}
	}
}

func TestParseLineUnknownClass(t *testing.T) {
	_, err := ParseLine("дом\tдом:ROOT\tignored\tNUMR,sing")
	if err == nil {
		t.Fatal("unknown class accepted")
	}
	if !errors.Is(err, errors.ErrUnknownClass) {
		t.Errorf("error = %v, want ErrUnknownClass", err)
	}
	if errors.Recoverable(err) {
		t.Error("UnknownClass must not be recoverable")
	}
}

func TestParseLineAmbiguousWordform(t *testing.T) {
	for _, line := range []string{
		"wordA:wordB\tроот:ROOT",
		"слово/слово\tслово:ROOT",
	} {
		_, err := ParseLine(line)
		if err == nil {
			t.Errorf("ParseLine(%q) accepted an ambiguous wordform", line)
			continue
		}
		if !errors.Is(err, errors.ErrAmbiguousWordform) {
			t.Errorf("ParseLine(%q) error = %v, want ErrAmbiguousWordform", line, err)
		}
		if !errors.Recoverable(err) {
			t.Errorf("ParseLine(%q): ambiguous wordform must be recoverable", line)
		}
	}
}

func TestParseLineMalformed(t *testing.T) {
	for _, line := range []string{
		"",
		"одинокое-поле",
		"a\tb\tc\td\te",
		"дом\tдом",           // token without KIND
		"дом\t:ROOT",         // empty morpheme text
		"дом\tд:о:ROOT",      // extra colon in token
		"дом\tдом:ROOT/",     // trailing empty token
	} {
		_, err := ParseLine(line)
		if err == nil {
			t.Errorf("ParseLine(%q) succeeded, want MalformedLine", line)
			continue
		}
		if !errors.Is(err, errors.ErrMalformedLine) {
			t.Errorf("ParseLine(%q) error = %v, want ErrMalformedLine", line, err)
		}
	}
}

func TestParseLineUnknownKind(t *testing.T) {
	_, err := ParseLine("дом\tдом:WURZEL")
	if err == nil {
		t.Fatal("unknown KIND accepted")
	}
	if !errors.Is(err, errors.ErrUnknownMorphemeKind) {
		t.Errorf("error = %v, want ErrUnknownMorphemeKind", err)
	}
	if !errors.Recoverable(err) {
		t.Error("unknown KIND must be recoverable")
	}
}

// Re-parsing a parsed word's serialized form yields an equal word.
func TestParseRoundTrip(t *testing.T) {
	lines := []string{
		"придворный\tпри:PREF/двор:ROOT/н:SUFF/ый:END\tADJ",
		"дом\tдом:ROOT",
		"кто-то\tкто:ROOT/-:HYPH/то:POSTFIX\tNOUN",
		"пароход\tпар:ROOT/о:LINK/ход:ROOT",
	}
	for _, line := range lines {
		w, err := ParseLine(line)
		if err != nil {
			t.Fatalf("ParseLine(%q): %v", line, err)
		}
		again, err := ParseLine(w.Text() + "\t" + w.String() + "\t" + w.POS())
		if err != nil {
			t.Fatalf("re-parse of %q: %v", w.String(), err)
		}
		if again.String() != w.String() || again.POS() != w.POS() || again.Text() != w.Text() {
			t.Errorf("re-parse changed the word: %v != %v", again, w)
		}
	}
}
