package mention

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/vthunder/ares/internal/parse"
)

// Source tags where a candidate came from.
type Source string

const (
	SourceNER        Source = "ner"
	SourceDependency Source = "dependency"
	SourceFallback   Source = "fallback"
	SourcePattern    Source = "pattern"
)

// Candidate is a raw span nomination. It never carries an entity id and is
// passed by value so it cannot be mutated once made.
type Candidate struct {
	Surface         string  `json:"surface"`
	Normalized      string  `json:"normalized"`
	Start           int     `json:"start"`
	End             int     `json:"end"`
	Source          Source  `json:"source"`
	Label           string  `json:"label,omitempty"` // raw NER tag, ner source only
	SentenceIndex   int     `json:"sentence_index"`
	SentenceInitial bool    `json:"sentence_initial"`
	Confidence      float64 `json:"confidence,omitempty"` // zero when the source does not score
	HeadPOS         string  `json:"head_pos,omitempty"`
	HeadDep         string  `json:"head_dep,omitempty"`
}

func newCandidate(text string, span []parse.Token, sentence int, src Source, conf float64) Candidate {
	words := make([]string, len(span))
	for i, t := range span {
		words[i] = t.Text
	}
	surface := strings.Join(words, " ")
	start, end := span[0].Start, span[len(span)-1].End

	c := Candidate{
		Surface:         surface,
		Normalized:      NormalizeSurface(surface),
		Start:           start,
		End:             end,
		Source:          src,
		SentenceIndex:   sentence,
		SentenceInitial: IsSentenceInitial(text, start),
		Confidence:      conf,
	}
	if head, ok := HeadToken(span); ok {
		c.HeadPOS, c.HeadDep = head.POS, head.Dep
	}
	return c
}

// NERRuns merges consecutive tokens sharing a non-empty NER tag into one
// candidate each. A tag change, a non-entity token or a sentence boundary
// closes the run.
func NERRuns(doc *parse.Document) []Candidate {
	var out []Candidate
	for _, s := range doc.Sentences {
		var run []parse.Token
		flush := func() {
			if len(run) > 0 {
				c := newCandidate(doc.Text, run, s.Index, SourceNER, 0)
				c.Label = run[0].Ent
				out = append(out, c)
				run = nil
			}
		}
		for _, t := range s.Tokens {
			if t.Ent == "" || (len(run) > 0 && run[0].Ent != t.Ent) {
				flush()
			}
			if t.Ent != "" {
				run = append(run, t)
			}
		}
		flush()
	}
	return out
}

// skipWords are capitalized function words that are never names.
var skipWords = map[string]bool{
	"I": true, "The": true, "A": true, "An": true, "This": true, "That": true,
	"It": true, "Is": true, "Are": true, "Was": true, "Were": true,
	"He": true, "She": true, "They": true, "We": true, "You": true,
	"My": true, "Your": true, "His": true, "Her": true, "Its": true,
	"What": true, "When": true, "Where": true, "Who": true, "Why": true, "How": true,
	"But": true, "And": true, "Or": true, "So": true, "If": true, "Then": true,
	"There": true, "Here": true, "Yes": true, "No": true,
}

// rolePatterns nominate the name following a kinship or social role word.
var rolePatterns = compilePatterns([]string{
	`\b(?:my|his|her|their|the) (?:friend|colleague|master|servant|wife|husband|brother|sister|father|mother|son|daughter|uncle|aunt|cousin) ([A-Z][\w'-]+(?: [A-Z][\w'-]+)*)`,
	`\b(?:King|Queen|Prince|Princess|Lord|Lady|Sir|Captain) ([A-Z][\w'-]+)`,
})

func compilePatterns(patterns []string) []*regexp.Regexp {
	result := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		result = append(result, regexp.MustCompile(p))
	}
	return result
}

// Nominate gathers every candidate the document offers: NER runs, proper noun
// runs the NER missed, role patterns and capitalized words. Spans already
// claimed by an earlier source are not nominated again. Output is sorted by
// start offset.
func Nominate(doc *parse.Document) []Candidate {
	out := NERRuns(doc)
	claimed := func(start, end int) bool {
		for _, c := range out {
			if start < c.End && end > c.Start {
				return true
			}
		}
		return false
	}

	// Proper noun runs.
	for _, s := range doc.Sentences {
		var run []parse.Token
		flush := func() {
			if len(run) > 0 && !claimed(run[0].Start, run[len(run)-1].End) {
				out = append(out, newCandidate(doc.Text, run, s.Index, SourceDependency, 0.6))
			}
			run = nil
		}
		for _, t := range s.Tokens {
			if t.IsProperNoun() && !skipWords[t.Text] {
				run = append(run, t)
				continue
			}
			flush()
		}
		flush()
	}

	// Role patterns.
	for _, re := range rolePatterns {
		for _, m := range re.FindAllStringSubmatchIndex(doc.Text, -1) {
			start, end := m[2], m[3]
			if claimed(start, end) {
				continue
			}
			surface := doc.Text[start:end]
			out = append(out, Candidate{
				Surface:         surface,
				Normalized:      NormalizeSurface(surface),
				Start:           start,
				End:             end,
				Source:          SourcePattern,
				SentenceIndex:   sentenceAt(doc, start),
				SentenceInitial: IsSentenceInitial(doc.Text, start),
				Confidence:      0.7,
			})
		}
	}

	// Capitalized words that do not open a sentence.
	for _, s := range doc.Sentences {
		for _, t := range s.Tokens {
			runes := []rune(t.Text)
			if len(runes) < 2 || skipWords[t.Text] || !unicode.IsUpper(runes[0]) || !unicode.IsLower(runes[1]) {
				continue
			}
			if IsSentenceInitial(doc.Text, t.Start) || claimed(t.Start, t.End) {
				continue
			}
			out = append(out, newCandidate(doc.Text, []parse.Token{t}, s.Index, SourceFallback, 0.5))
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func sentenceAt(doc *parse.Document, pos int) int {
	for _, s := range doc.Sentences {
		if pos >= s.Start && pos < s.End {
			return s.Index
		}
	}
	return len(doc.Sentences) - 1
}
