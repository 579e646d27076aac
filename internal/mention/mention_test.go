package mention

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vthunder/ares/internal/parse"
)

func TestNormalizeSurface(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Harry   Potter  ", "Harry Potter"},
		{"-- Harry", "Harry"},
		{"“Gandalf”", "Gandalf"},
		{"Frodo,", "Frodo"},
		{"Aragorn.", "Aragorn"},
		{"Sam!\"", "Sam"},
		{"Minas\tTirith\n", "Minas Tirith"},
		{"Mr. Baggins", "Mr. Baggins"},
		{"—'Tis Bree',", "Tis Bree"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, NormalizeSurface(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "harry potter", NormalizeKey("Harry  POTTER."))
	assert.Equal(t, "mr baggins", NormalizeKey("Mr. Baggins"))
	assert.Equal(t, "obrien", NormalizeKey("O'Brien"))
	assert.Equal(t, NormalizeKey("Zoë"), NormalizeKey("Zoë"))
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"", " ", "-", "\"", "x`-", "a` .", "  --“Harry Potter”,.  ",
		"Sam!\",", "A - B", "King  David\n", "'Tis", "...", "J.R.R. Tolkien",
		"Zoë", "AT&T", "  ,,Frodo;:", "«Bilbo»",
	}
	for _, s := range inputs {
		once := NormalizeSurface(s)
		assert.Equal(t, once, NormalizeSurface(once), "surface %q", s)

		k := NormalizeKey(s)
		assert.Equal(t, k, NormalizeKey(k), "key %q", s)
	}
}

func TestIsSentenceInitial(t *testing.T) {
	text := "Harry went home. \"Ron stayed,\" said Hermione.\nNeville slept."
	tests := []struct {
		word string
		want bool
	}{
		{"Harry", true},
		{"Ron", true},     // after quote then terminator
		{"said", false},   // after a closing quote preceded by a comma
		{"Hermione", false},
		{"Neville", true}, // after newline
		{"home", false},
	}
	for _, tc := range tests {
		pos := indexOf(t, text, tc.word)
		assert.Equal(t, tc.want, IsSentenceInitial(text, pos), tc.word)
	}
	assert.True(t, IsSentenceInitial("   Leading", 3))
}

func indexOf(t *testing.T, text, word string) int {
	t.Helper()
	for i := 0; i+len(word) <= len(text); i++ {
		if text[i:i+len(word)] == word {
			return i
		}
	}
	t.Fatalf("%q not in text", word)
	return -1
}

func TestHeadToken(t *testing.T) {
	// "the young King David": young->David, King->David, the->David
	span := []parse.Token{
		{Index: 0, Text: "the", POS: "DET", Head: 3},
		{Index: 1, Text: "young", POS: "ADJ", Head: 3},
		{Index: 2, Text: "King", POS: "PROPN", Head: 3},
		{Index: 3, Text: "David", POS: "PROPN", Head: 5},
	}
	head, ok := HeadToken(span)
	require.True(t, ok)
	assert.Equal(t, "David", head.Text)

	// No in-span dependency: rightmost noun.
	flat := []parse.Token{
		{Index: 0, Text: "old", POS: "ADJ", Head: 0},
		{Index: 1, Text: "man", POS: "NOUN", Head: 1},
		{Index: 2, Text: "quickly", POS: "ADV", Head: 2},
	}
	head, _ = HeadToken(flat)
	assert.Equal(t, "man", head.Text)

	// Nothing nominal: last token.
	head, _ = HeadToken(flat[2:])
	assert.Equal(t, "quickly", head.Text)

	_, ok = HeadToken(nil)
	assert.False(t, ok)
}

func sampleDoc() *parse.Document {
	text := "Harry Potter met his friend Ron in London. Then Dumbledore arrived."
	toks := func(specs ...[4]string) []parse.Token {
		var out []parse.Token
		cursor := 0
		for i, s := range specs {
			idx := indexOfStr(text[cursor:], s[0]) + cursor
			out = append(out, parse.Token{
				Index: i, Text: s[0], POS: s[1], Tag: s[2], Ent: s[3],
				Head: i, Start: idx, End: idx + len(s[0]),
			})
			cursor = idx + len(s[0])
		}
		return out
	}
	s0 := toks(
		[4]string{"Harry", "PROPN", "NNP", "PERSON"},
		[4]string{"Potter", "PROPN", "NNP", "PERSON"},
		[4]string{"met", "VERB", "VBD", ""},
		[4]string{"his", "PRON", "PRP$", ""},
		[4]string{"friend", "NOUN", "NN", ""},
		[4]string{"Ron", "PROPN", "NNP", ""},
		[4]string{"in", "ADP", "IN", ""},
		[4]string{"London", "PROPN", "NNP", "GPE"},
		[4]string{".", "PUNCT", ".", ""},
	)
	s1 := toks(
		[4]string{"Then", "ADV", "RB", ""},
		[4]string{"Dumbledore", "PROPN", "NNP", ""},
		[4]string{"arrived", "VERB", "VBD", ""},
		[4]string{".", "PUNCT", ".", ""},
	)
	// s1 offsets must follow s0.
	shift := indexOfStr(text, "Then")
	cursor := shift
	for i := range s1 {
		idx := indexOfStr(text[cursor:], s1[i].Text) + cursor
		s1[i].Start, s1[i].End = idx, idx+len(s1[i].Text)
		cursor = s1[i].End
	}
	return &parse.Document{
		Text: text,
		Sentences: []parse.Sentence{
			{Index: 0, Start: 0, End: shift - 1, Tokens: s0},
			{Index: 1, Start: shift, End: len(text), Tokens: s1},
		},
	}
}

func indexOfStr(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestNERRuns(t *testing.T) {
	doc := sampleDoc()
	runs := NERRuns(doc)
	require.Len(t, runs, 2)

	assert.Equal(t, "Harry Potter", runs[0].Surface)
	assert.Equal(t, "PERSON", runs[0].Label)
	assert.Equal(t, 0, runs[0].Start)
	assert.Equal(t, 12, runs[0].End)
	assert.True(t, runs[0].SentenceInitial)
	assert.Equal(t, SourceNER, runs[0].Source)

	assert.Equal(t, "London", runs[1].Surface)
	assert.Equal(t, "GPE", runs[1].Label)
	assert.False(t, runs[1].SentenceInitial)
}

func TestNERRunsSplitOnTagChange(t *testing.T) {
	doc := &parse.Document{
		Text: "Paris France",
		Sentences: []parse.Sentence{{Tokens: []parse.Token{
			{Index: 0, Text: "Paris", Ent: "GPE", Start: 0, End: 5},
			{Index: 1, Text: "France", Ent: "LOC", Start: 6, End: 12},
		}}},
	}
	runs := NERRuns(doc)
	require.Len(t, runs, 2)
	assert.Equal(t, "Paris", runs[0].Surface)
	assert.Equal(t, "France", runs[1].Surface)
}

func TestNominate(t *testing.T) {
	doc := sampleDoc()
	cands := Nominate(doc)

	bySurface := make(map[string]Candidate)
	for _, c := range cands {
		bySurface[c.Surface] = c
	}

	assert.Equal(t, SourceNER, bySurface["Harry Potter"].Source)
	assert.Equal(t, SourceNER, bySurface["London"].Source)
	// Ron is a proper noun the NER missed.
	assert.Equal(t, SourceDependency, bySurface["Ron"].Source)
	assert.Equal(t, SourceDependency, bySurface["Dumbledore"].Source)
	_, hasThen := bySurface["Then"]
	assert.False(t, hasThen)

	for i := 1; i < len(cands); i++ {
		assert.LessOrEqual(t, cands[i-1].Start, cands[i].Start)
	}
}

func TestNominatePatternAndFallback(t *testing.T) {
	text := "We saw the friend Bilbo and a Hobbit"
	doc := &parse.Document{
		Text: text,
		Sentences: []parse.Sentence{{Tokens: []parse.Token{
			{Index: 0, Text: "We", POS: "PRON", Start: 0, End: 2},
			{Index: 1, Text: "saw", POS: "VERB", Start: 3, End: 6},
			{Index: 2, Text: "the", POS: "DET", Start: 7, End: 10},
			{Index: 3, Text: "friend", POS: "NOUN", Start: 11, End: 17},
			{Index: 4, Text: "Bilbo", POS: "NOUN", Start: 18, End: 23},
			{Index: 5, Text: "and", POS: "CCONJ", Start: 24, End: 27},
			{Index: 6, Text: "a", POS: "DET", Start: 28, End: 29},
			{Index: 7, Text: "Hobbit", POS: "NOUN", Start: 30, End: 36},
		}}},
	}
	cands := Nominate(doc)
	require.Len(t, cands, 2)
	assert.Equal(t, "Bilbo", cands[0].Surface)
	assert.Equal(t, SourcePattern, cands[0].Source)
	assert.Equal(t, 0.7, cands[0].Confidence)
	assert.Equal(t, "Hobbit", cands[1].Surface)
	assert.Equal(t, SourceFallback, cands[1].Source)
}
