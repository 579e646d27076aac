// Package parse defines the parser contract consumed by the census and the
// parsers that satisfy it: the spaCy sidecar client and an in-process prose
// fallback.
package parse

import (
	"context"
	"errors"
	"strings"
)

// ErrParserUnavailable is returned when the parser cannot be reached.
var ErrParserUnavailable = errors.New("parser unavailable")

// Token is one parsed token. Head is the sentence-local index of the
// dependency head; a root token points at itself. Start/End are byte offsets
// into the document text.
type Token struct {
	Index int    `json:"i"`
	Text  string `json:"text"`
	Lemma string `json:"lemma"`
	POS   string `json:"pos"`
	Tag   string `json:"tag"`
	Dep   string `json:"dep"`
	Head  int    `json:"head"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Ent   string `json:"ent"`
}

// Sentence is an ordered run of tokens.
type Sentence struct {
	Index  int     `json:"sentence_index"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
	Tokens []Token `json:"tokens"`
}

// Document is the parse of one text.
type Document struct {
	Text      string     `json:"-"`
	Sentences []Sentence `json:"sentences"`
}

// Parser turns raw text into a Document.
type Parser interface {
	Parse(ctx context.Context, text string) (*Document, error)
}

// TokenCount returns the number of tokens across all sentences.
func (d *Document) TokenCount() int {
	n := 0
	for _, s := range d.Sentences {
		n += len(s.Tokens)
	}
	return n
}

// IsProperNoun reports whether the token is tagged as a proper noun, by
// coarse POS or by Penn tag.
func (t Token) IsProperNoun() bool {
	return t.POS == "PROPN" || strings.HasPrefix(t.Tag, "NNP")
}

// IsNominal reports whether the token is a noun of any kind.
func (t Token) IsNominal() bool {
	return t.POS == "PROPN" || t.POS == "NOUN" || strings.HasPrefix(t.Tag, "NN")
}
