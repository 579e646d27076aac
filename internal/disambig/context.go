package disambig

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/vthunder/ares/internal/entity"
)

var (
	parentTerms = []string{"father", "mother"}
	childTerms  = []string{"son", "daughter"}
	kinTerms    = append(append([]string{"brother", "sister", "wife", "husband", "uncle", "aunt"}, parentTerms...), childTerms...)

	occupationTerms = []string{
		"baker", "blacksmith", "captain", "carpenter", "doctor", "farmer",
		"fisherman", "general", "hunter", "innkeeper", "judge", "king",
		"knight", "lawyer", "merchant", "minister", "monk", "musician",
		"nurse", "painter", "priest", "prince", "princess", "professor",
		"queen", "sailor", "scholar", "scribe", "senator", "servant",
		"shepherd", "soldier", "steward", "teacher", "tailor", "wizard",
		"writer",
	}

	// Life-stage markers are matched as phrases so "the late" does not fire on
	// "late at night".
	oldMarkers   = map[string]string{"old": "old", "elderly": "old", "aged": "old", "retired": "old", "deceased": "old", "the late": "old"}
	youngMarkers = map[string]string{"young": "young", "youthful": "young", "youngster": "young"}

	kinRe        = wordsRegexp(kinTerms)
	occupationRe = wordsRegexp(occupationTerms)
	lifeRe       = wordsRegexp(append(keys(oldMarkers), keys(youngMarkers)...))
)

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func wordsRegexp(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`)
}

// Window returns the text within radius characters of [start,end). start and
// end are byte offsets; the result never splits a rune.
func Window(text string, start, end, radius int) string {
	lo, hi := start, end
	if lo < 0 {
		lo = 0
	}
	if hi > len(text) {
		hi = len(text)
	}
	if lo >= hi {
		return ""
	}
	for n := 0; n < radius && lo > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:lo])
		lo -= size
	}
	for n := 0; n < radius && hi < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[hi:])
		hi += size
	}
	return text[lo:hi]
}

// ExtractContext collects kinship, occupation and life-stage cues from a
// window of text. Words belonging to the entity's own names are ignored so
// "King David" is not read as an occupation cue.
func ExtractContext(window string, names []string) entity.Context {
	lower := strings.ToLower(window)
	own := make(map[string]bool)
	for _, n := range names {
		for _, w := range strings.Fields(strings.ToLower(n)) {
			own[w] = true
		}
	}

	var ctx entity.Context
	for _, m := range kinRe.FindAllString(lower, -1) {
		if !own[m] {
			ctx.Relationships = append(ctx.Relationships, m)
		}
	}
	for _, m := range occupationRe.FindAllString(lower, -1) {
		if !own[m] {
			ctx.Occupations = append(ctx.Occupations, m)
		}
	}
	for _, m := range lifeRe.FindAllString(lower, -1) {
		if own[m] {
			continue
		}
		if stage, ok := oldMarkers[m]; ok {
			ctx.LifeStages = append(ctx.LifeStages, stage)
		} else {
			ctx.LifeStages = append(ctx.LifeStages, youngMarkers[m])
		}
	}
	// Union with an empty context sorts and dedupes.
	return ctx.Union(entity.Context{})
}

func hasAny(list []string, terms []string) bool {
	for _, s := range list {
		for _, t := range terms {
			if s == t {
				return true
			}
		}
	}
	return false
}
