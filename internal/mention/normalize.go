// Package mention holds the span model shared by every pass: surface
// normalization, head-token selection, sentence-initial detection and raw
// candidate nomination.
package mention

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	leadingStrip  = "-‐‑‒–—―\"'`“”‘’„«» "
	trailingStrip = "\"'`“”‘’„«»,.;:!? "
	quoteRunes    = "\"'`“”‘’„«»"
)

// NormalizeSurface cleans a raw surface form: whitespace runs collapse to one
// space, leading dashes/quotes and trailing quotes, commas and sentence
// punctuation are stripped. The trims run to a fixpoint so the function is
// idempotent.
func NormalizeSurface(surface string) string {
	s := strings.Join(strings.Fields(surface), " ")
	s = strings.TrimLeft(s, leadingStrip)
	s = strings.TrimRight(s, trailingStrip)
	return s
}

// NormalizeKey is the grouping key: NormalizeSurface, lowercased, with the
// remaining punctuation and symbols removed, in NFC form.
func NormalizeKey(surface string) string {
	s := strings.ToLower(NormalizeSurface(surface))
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, s)
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// IsSentenceInitial reports whether pos starts a sentence: it is offset 0, or
// the first character before it that is neither whitespace nor a quote is a
// terminator (.!?) or a newline.
func IsSentenceInitial(text string, pos int) bool {
	if pos <= 0 {
		return true
	}
	if pos > len(text) {
		pos = len(text)
	}
	for i := pos; i > 0; {
		r, size := utf8.DecodeLastRuneInString(text[:i])
		i -= size
		switch {
		case r == '\n':
			return true
		case unicode.IsSpace(r), strings.ContainsRune(quoteRunes, r):
			continue
		case r == '.' || r == '!' || r == '?':
			return true
		default:
			return false
		}
	}
	return true
}
