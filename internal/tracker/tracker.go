// Package tracker assembles every mention of every entity in a document from
// four strategies (exact census spans, alias occurrences, pronoun
// resolutions and gendered descriptions) and keeps one mention per offset.
package tracker

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/vthunder/ares/internal/entity"
	"github.com/vthunder/ares/internal/graph"
	"github.com/vthunder/ares/internal/logging"
)

// Source tags which strategy found a mention.
type Source string

const (
	SourceExact       Source = "exact"
	SourceAlias       Source = "alias"
	SourcePronoun     Source = "pronoun"
	SourceDescriptive Source = "descriptive"
)

// Mention is one piece of evidence that an entity is referred to at an offset.
type Mention struct {
	EntityID   string  `json:"entity_id"`
	EntityName string  `json:"entity_name"`
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Source     Source  `json:"source"`
	Confidence float64 `json:"confidence"`
}

// PronounResolution is a coreference link supplied from outside.
type PronounResolution struct {
	Pronoun    string  `json:"pronoun" yaml:"pronoun"`
	Start      int     `json:"start" yaml:"start"`
	End        int     `json:"end" yaml:"end"`
	EntityID   string  `json:"entity_id" yaml:"entity_id"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// EntityMentions is the deduplicated evidence for one entity, sorted by start.
type EntityMentions struct {
	EntityID string    `json:"entity_id"`
	Name     string    `json:"name"`
	Mentions []Mention `json:"mentions"`
}

// Tracker holds the salience gates for the alias and descriptive strategies.
type Tracker struct {
	AliasPercentile       float64
	DescriptivePercentile float64
	MinAliasLength        int
}

// New creates a tracker with the given gates.
func New(aliasPercentile, descriptivePercentile float64, minAliasLength int) *Tracker {
	return &Tracker{
		AliasPercentile:       aliasPercentile,
		DescriptivePercentile: descriptivePercentile,
		MinAliasLength:        minAliasLength,
	}
}

// Track runs every strategy for each entity in reg. salience maps entity id to
// a percentile in [0,100]; entities missing from it count as 0.
func (tr *Tracker) Track(text string, reg *entity.Registry, salience map[string]float64, pronouns []PronounResolution) []EntityMentions {
	out := make([]EntityMentions, 0, reg.Len())
	total := 0
	for _, e := range reg.Entities() {
		pct := salience[e.ID]

		var found []Mention
		found = append(found, exact(e)...)
		if pct >= tr.AliasPercentile {
			found = append(found, tr.aliases(text, e, pct)...)
		}
		found = append(found, pronounMentions(e, pronouns)...)
		if pct >= tr.DescriptivePercentile && e.Type == graph.EntityPerson {
			found = append(found, descriptive(text, e)...)
		}

		ms := Dedup(found)
		total += len(ms)
		out = append(out, EntityMentions{EntityID: e.ID, Name: e.Name, Mentions: ms})
	}
	logging.Debug("tracker", "%d mention(s) across %d entities", total, len(out))
	return out
}

func exact(e *entity.Canonical) []Mention {
	out := make([]Mention, 0, len(e.Mentions))
	for _, m := range e.Mentions {
		out = append(out, Mention{
			EntityID: e.ID, EntityName: e.Name, Text: m.Text,
			Start: m.Start, End: m.End, Source: SourceExact, Confidence: 1.0,
		})
	}
	return out
}

// aliases finds every literal occurrence of each alias other than the
// canonical name.
func (tr *Tracker) aliases(text string, e *entity.Canonical, pct float64) []Mention {
	clen := utf8.RuneCountInString(e.Name)
	if clen == 0 {
		return nil
	}
	var out []Mention
	for _, alias := range e.Aliases {
		alen := utf8.RuneCountInString(alias)
		if alias == e.Name || alen < tr.MinAliasLength {
			continue
		}
		conf := AliasConfidence(alen, clen, pct)
		for from := 0; from < len(text); {
			i := strings.Index(text[from:], alias)
			if i < 0 {
				break
			}
			start := from + i
			out = append(out, Mention{
				EntityID: e.ID, EntityName: e.Name, Text: alias,
				Start: start, End: start + len(alias), Source: SourceAlias, Confidence: conf,
			})
			from = start + len(alias)
		}
	}
	return out
}

// AliasConfidence scores an alias hit by its length relative to the canonical
// name and the entity's salience, capped at 0.95.
func AliasConfidence(aliasLen, canonicalLen int, percentile float64) float64 {
	return math.Min(0.95, float64(aliasLen)/float64(canonicalLen)*0.8+percentile/100*0.2)
}

func pronounMentions(e *entity.Canonical, pronouns []PronounResolution) []Mention {
	var out []Mention
	for _, p := range pronouns {
		if p.EntityID != e.ID {
			continue
		}
		out = append(out, Mention{
			EntityID: e.ID, EntityName: e.Name, Text: p.Pronoun,
			Start: p.Start, End: p.End, Source: SourcePronoun, Confidence: p.Confidence,
		})
	}
	return out
}

// Dedup keeps the most confident mention at each start offset; on equal
// confidence the one found first stays. The result is sorted by start.
func Dedup(ms []Mention) []Mention {
	best := make(map[int]int)
	var order []int
	for i, m := range ms {
		j, seen := best[m.Start]
		if !seen {
			best[m.Start] = i
			order = append(order, m.Start)
			continue
		}
		if m.Confidence > ms[j].Confidence {
			best[m.Start] = i
		}
	}
	sort.Ints(order)
	out := make([]Mention, len(order))
	for i, start := range order {
		out[i] = ms[best[start]]
	}
	return out
}

type gender int

const (
	genderUnknown gender = iota
	genderMale
	genderFemale
)

var (
	maleCues = map[string]bool{
		"mr": true, "sir": true, "lord": true, "king": true, "prince": true, "duke": true,
		"father": true, "brother": true, "son": true, "uncle": true, "master": true, "boy": true,
	}
	femaleCues = map[string]bool{
		"mrs": true, "miss": true, "ms": true, "lady": true, "queen": true, "princess": true,
		"duchess": true, "mother": true, "sister": true, "daughter": true, "aunt": true, "girl": true,
	}
)

type pattern struct {
	re   *regexp.Regexp
	conf float64
}

func descriptions(phrases map[string]float64) []pattern {
	keys := make([]string, 0, len(phrases))
	for k := range phrases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]pattern, len(keys))
	for i, k := range keys {
		out[i] = pattern{re: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(k) + `\b`), conf: phrases[k]}
	}
	return out
}

var (
	malePatterns = descriptions(map[string]float64{
		"the young man": 0.65,
		"the old man":   0.6,
		"the man":       0.6,
		"the boy":       0.55,
		"the gentleman": 0.5,
	})
	femalePatterns = descriptions(map[string]float64{
		"the young woman": 0.65,
		"the old woman":   0.6,
		"the woman":       0.6,
		"the girl":        0.55,
		"the lady":        0.5,
	})
)

// genderOf infers gender from honorific and kinship words in a name.
func genderOf(name string) gender {
	for _, w := range strings.Fields(strings.ToLower(name)) {
		w = strings.Trim(w, ".,()")
		switch {
		case maleCues[w]:
			return genderMale
		case femaleCues[w]:
			return genderFemale
		}
	}
	return genderUnknown
}

func descriptive(text string, e *entity.Canonical) []Mention {
	var patterns []pattern
	switch genderOf(e.Name) {
	case genderMale:
		patterns = malePatterns
	case genderFemale:
		patterns = femalePatterns
	default:
		return nil
	}
	var out []Mention
	for _, p := range patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			out = append(out, Mention{
				EntityID: e.ID, EntityName: e.Name, Text: text[loc[0]:loc[1]],
				Start: loc[0], End: loc[1], Source: SourceDescriptive, Confidence: p.conf,
			})
		}
	}
	return out
}
