package features

import (
	"reflect"
	"testing"

	"github.com/glagol-nlp/morfem/core/corpus"
	"github.com/glagol-nlp/morfem/core/morpheme"
)

func TestTableWidths(t *testing.T) {
	if got := len(letterCodes) + 1; got != NumLetterClasses {
		t.Errorf("letter table has %d codes, NumLetterClasses = %d", got, NumLetterClasses)
	}
	if got := 1 + NumLetterClasses + len(morpheme.SpeechParts); got != RowWidth {
		t.Errorf("RowWidth = %d, components sum to %d", RowWidth, got)
	}
}

func TestLetterCode(t *testing.T) {
	tests := []struct {
		r    rune
		want int
	}{
		{'о', 1},
		{'е', 2},
		{'-', 34},
		{'ё', 33},
		{'q', 0}, // outside the table
		{'Д', 0}, // table is lowercase only
	}
	for _, tt := range tests {
		if got := LetterCode(tt.r); got != tt.want {
			t.Errorf("LetterCode(%q) = %d, want %d", tt.r, got, tt.want)
		}
	}
}

func TestIsVowel(t *testing.T) {
	for _, r := range "аиеёоуыэюя" {
		if !IsVowel(r) {
			t.Errorf("IsVowel(%q) = false", r)
		}
	}
	for _, r := range "бвгджзк-" {
		if IsVowel(r) {
			t.Errorf("IsVowel(%q) = true", r)
		}
	}
}

func TestLetterRow(t *testing.T) {
	row := LetterRow('о', "NOUN")
	if len(row) != RowWidth {
		t.Fatalf("len(row) = %d, want %d", len(row), RowWidth)
	}
	if row[0] != 1 {
		t.Error("vowel flag not set for 'о'")
	}
	if row[1+1] != 1 {
		t.Error("one-hot letter code not set at code 1")
	}
	spIdx, _ := morpheme.SpeechPartIndex("NOUN")
	if row[1+NumLetterClasses+spIdx] != 1 {
		t.Error("one-hot speech part not set for NOUN")
	}
	ones := 0
	for _, v := range row {
		if v == 1 {
			ones++
		}
	}
	if ones != 3 {
		t.Errorf("row has %d ones, want 3", ones)
	}

	// unknown speech part falls back to X
	row = LetterRow('б', "WAT")
	xIdx, _ := morpheme.SpeechPartIndex("X")
	if row[1+NumLetterClasses+xIdx] != 1 {
		t.Error("unknown speech part did not fall back to X")
	}
	if row[0] != 0 {
		t.Error("vowel flag set for consonant")
	}
}

func TestWordMatrixAndTargets(t *testing.T) {
	w, err := corpus.ParseLine("дом\tдом:ROOT\tNOUN")
	if err != nil {
		t.Fatal(err)
	}
	rows := WordMatrix(w)
	if len(rows) != 3 {
		t.Fatalf("matrix has %d rows, want 3", len(rows))
	}

	targets, err := Targets(w)
	if err != nil {
		t.Fatal(err)
	}
	// B-ROOT=10, ROOT=2, ROOT=2
	if !reflect.DeepEqual(targets, []int{10, 2, 2}) {
		t.Errorf("Targets = %v, want [10 2 2]", targets)
	}
}

func TestPadding(t *testing.T) {
	w, err := corpus.ParseLine("дом\tдом:ROOT")
	if err != nil {
		t.Fatal(err)
	}
	rows := PadMatrix(WordMatrix(w), 5)
	if len(rows) != 5 {
		t.Fatalf("padded matrix has %d rows, want 5", len(rows))
	}
	for i := 3; i < 5; i++ {
		if len(rows[i]) != RowWidth {
			t.Errorf("pad row %d width %d, want %d", i, len(rows[i]), RowWidth)
		}
		for _, v := range rows[i] {
			if v != MaskValue {
				t.Errorf("pad row %d contains %d, want mask value", i, v)
			}
		}
	}

	targets, _ := Targets(w)
	padded := PadTargets(targets, 5)
	if !reflect.DeepEqual(padded, []int{10, 2, 2, 0, 0}) {
		t.Errorf("PadTargets = %v", padded)
	}
	// already long enough: unchanged
	if got := PadTargets(targets, 2); !reflect.DeepEqual(got, targets) {
		t.Errorf("PadTargets no-op = %v", got)
	}
}

func TestBuild(t *testing.T) {
	w, err := corpus.ParseLine("придворный\tпри:PREF/двор:ROOT/н:SUFF/ый:END\tADJ")
	if err != nil {
		t.Fatal(err)
	}
	ex, err := Build(w)
	if err != nil {
		t.Fatal(err)
	}
	if ex.Text != "придворный" || ex.SpeechPart != "ADJ" {
		t.Errorf("Example = %q/%q", ex.Text, ex.SpeechPart)
	}
	if len(ex.Features) != 10 || len(ex.Targets) != 10 || len(ex.SimpleLabels) != 10 {
		t.Errorf("lengths features=%d targets=%d labels=%d, want 10",
			len(ex.Features), len(ex.Targets), len(ex.SimpleLabels))
	}
}
