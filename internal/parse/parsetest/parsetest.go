// Package parsetest builds parsed documents for tests without a parser.
package parsetest

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/vthunder/ares/internal/parse"
)

var tokenRe = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}]+)?|[^\s\p{L}\p{N}]`)

// Doc tokenizes text on words and punctuation, splits sentences after . ! ?
// and tags tokens covered by the given phrases with their NER label. ents is
// a flat list of phrase, label pairs; every occurrence of a phrase is tagged.
// Capitalized words are PROPN, "there", "here" and "then" are ADV, everything
// else alphabetic is NOUN. Every token is its own head.
func Doc(text string, ents ...string) *parse.Document {
	labels := make([]string, len(text))
	for i := 0; i+1 < len(ents); i += 2 {
		phrase, label := ents[i], ents[i+1]
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(phrase) + `\b`)
		for _, m := range re.FindAllStringIndex(text, -1) {
			for p := m[0]; p < m[1]; p++ {
				labels[p] = label
			}
		}
	}

	doc := &parse.Document{Text: text}
	cur := &parse.Sentence{Index: 0, Start: 0}
	for _, m := range tokenRe.FindAllStringIndex(text, -1) {
		word := text[m[0]:m[1]]
		if len(cur.Tokens) == 0 {
			cur.Start = m[0]
		}
		local := len(cur.Tokens)
		cur.Tokens = append(cur.Tokens, parse.Token{
			Index: local,
			Text:  word,
			Lemma: strings.ToLower(word),
			POS:   pos(word),
			Head:  local,
			Start: m[0],
			End:   m[1],
			Ent:   labels[m[0]],
		})
		if word == "." || word == "!" || word == "?" {
			cur.End = m[1]
			doc.Sentences = append(doc.Sentences, *cur)
			cur = &parse.Sentence{Index: len(doc.Sentences)}
		}
	}
	if len(cur.Tokens) > 0 {
		cur.End = len(text)
		doc.Sentences = append(doc.Sentences, *cur)
	}
	return doc
}

func pos(word string) string {
	r := []rune(word)
	switch {
	case !unicode.IsLetter(r[0]) && !unicode.IsDigit(r[0]):
		return "PUNCT"
	case strings.EqualFold(word, "there") || strings.EqualFold(word, "here") || strings.EqualFold(word, "then"):
		return "ADV"
	case unicode.IsUpper(r[0]):
		return "PROPN"
	case unicode.IsDigit(r[0]):
		return "NUM"
	}
	return "NOUN"
}
