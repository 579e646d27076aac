package parse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tsawler/prose/v3"

	"github.com/vthunder/ares/internal/logging"
)

// ProseParser parses in-process with the prose NLP library. It fills text,
// Penn tag, coarse POS and NER tags; dependency fields are left empty and
// every token is its own head.
type ProseParser struct{}

// NewProseParser creates a new prose-based parser
func NewProseParser() *ProseParser {
	return &ProseParser{}
}

// Parse implements Parser.
func (p *ProseParser) Parse(ctx context.Context, text string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, fmt.Errorf("prose parse: %w", err)
	}

	spans := sentenceSpans(text, doc.Sentences())
	out := &Document{Text: text, Sentences: make([]Sentence, len(spans))}
	for i, sp := range spans {
		out.Sentences[i] = Sentence{Index: i, Start: sp[0], End: sp[1]}
	}

	ents := doc.Entities()
	cursor := 0
	si := 0
	for _, tok := range doc.Tokens() {
		idx := strings.Index(text[cursor:], tok.Text)
		if tok.Text == "" || idx < 0 {
			continue
		}
		start := cursor + idx
		end := start + len(tok.Text)
		cursor = end

		for si < len(out.Sentences)-1 && start >= out.Sentences[si].End {
			si++
		}
		s := &out.Sentences[si]
		local := len(s.Tokens)
		s.Tokens = append(s.Tokens, Token{
			Index: local,
			Text:  tok.Text,
			Lemma: strings.ToLower(tok.Text),
			POS:   coarsePOS(tok.Tag),
			Tag:   tok.Tag,
			Head:  local,
			Start: start,
			End:   end,
			Ent:   entityLabelAt(ents, start, end),
		})
	}

	return out, nil
}

// sentenceSpans locates each sentence's text in the document. If nothing can
// be located the whole text is one sentence.
func sentenceSpans(text string, sents []prose.Sentence) [][2]int {
	var spans [][2]int
	cursor := 0
	for _, s := range sents {
		st := strings.TrimSpace(s.Text)
		if st == "" {
			continue
		}
		idx := strings.Index(text[cursor:], st)
		if idx < 0 {
			continue
		}
		start := cursor + idx
		cursor = start + len(st)
		spans = append(spans, [2]int{start, cursor})
	}
	if len(spans) == 0 {
		return [][2]int{{0, len(text)}}
	}
	// Trailing text belongs to the last sentence.
	spans[len(spans)-1][1] = len(text)
	return spans
}

func entityLabelAt(ents []prose.Entity, start, end int) string {
	for _, e := range ents {
		if start >= e.Start && end <= e.End {
			return strings.ToUpper(e.Label)
		}
	}
	return ""
}

// coarsePOS maps a Penn Treebank tag to a universal POS tag.
func coarsePOS(tag string) string {
	switch {
	case tag == "NNP" || tag == "NNPS":
		return "PROPN"
	case strings.HasPrefix(tag, "NN"):
		return "NOUN"
	case strings.HasPrefix(tag, "VB"), tag == "MD":
		return "VERB"
	case strings.HasPrefix(tag, "JJ"):
		return "ADJ"
	case strings.HasPrefix(tag, "RB"), tag == "WRB":
		return "ADV"
	case strings.HasPrefix(tag, "PRP"), tag == "WP", tag == "WP$", tag == "EX":
		return "PRON"
	case tag == "DT" || tag == "PDT" || tag == "WDT":
		return "DET"
	case tag == "IN" || tag == "TO":
		return "ADP"
	case tag == "CD":
		return "NUM"
	case tag == "CC":
		return "CCONJ"
	case tag == "UH":
		return "INTJ"
	case tag == "POS" || tag == "RP":
		return "PART"
	case tag == "" || strings.ContainsAny(tag, ".,:;()$#'`\""):
		return "PUNCT"
	}
	return "X"
}

// Fallback tries the sidecar first and parses in-process when the sidecar
// cannot be reached or answers with a server error. Any other sidecar error
// is returned unchanged.
type Fallback struct {
	Primary   *Client
	Secondary Parser
}

// Parse implements Parser.
func (f *Fallback) Parse(ctx context.Context, text string) (*Document, error) {
	doc, err := f.Primary.Parse(ctx, text)
	if err == nil || f.Secondary == nil || !errors.Is(err, ErrParserUnavailable) {
		return doc, err
	}
	logging.Warn("parse", "%v; falling back to prose", err)
	return f.Secondary.Parse(ctx, text)
}
