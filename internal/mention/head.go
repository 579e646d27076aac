package mention

import "github.com/vthunder/ares/internal/parse"

// HeadToken picks the syntactic head of a span: the token other span tokens
// point at as their dependency head (most dependents wins, rightmost on a
// tie); failing that the rightmost proper or common noun; failing that the
// last token.
func HeadToken(span []parse.Token) (parse.Token, bool) {
	if len(span) == 0 {
		return parse.Token{}, false
	}

	dependents := make(map[int]int, len(span))
	for _, t := range span {
		if t.Head != t.Index {
			dependents[t.Head]++
		}
	}

	best, bestCount := -1, 0
	for i, t := range span {
		if n := dependents[t.Index]; n > 0 && n >= bestCount {
			best, bestCount = i, n
		}
	}
	if best >= 0 {
		return span[best], true
	}

	for i := len(span) - 1; i >= 0; i-- {
		if span[i].IsNominal() {
			return span[i], true
		}
	}
	return span[len(span)-1], true
}
