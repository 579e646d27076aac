// Package deixis resolves "there", "here" and "then" to the nearest preceding
// place or time entity.
package deixis

import (
	"strings"
	"unicode/utf8"

	"github.com/vthunder/ares/internal/entity"
	"github.com/vthunder/ares/internal/graph"
	"github.com/vthunder/ares/internal/logging"
	"github.com/vthunder/ares/internal/parse"
)

const (
	SpatialConfidence  = 0.9
	TemporalConfidence = 0.85

	// lookback is how many sentences before the deictic's own are searched.
	lookback = 2

	// minContainment is the shortest string allowed to match by containment.
	// Shorter tokens and aliases only match by equality.
	minContainment = 3
)

var (
	spatialWords  = map[string]bool{"there": true, "here": true}
	temporalWords = map[string]bool{"then": true}

	spatialTypes  = []graph.EntityType{graph.EntityPlace}
	temporalTypes = []graph.EntityType{graph.EntityDate, graph.EntityEvent}
)

// Resolution binds one deictic occurrence to an entity.
type Resolution struct {
	Word       string           `json:"word"`
	Start      int              `json:"start"`
	End        int              `json:"end"`
	EntityID   string           `json:"entity_id"`
	EntityName string           `json:"entity_name"`
	EntityType graph.EntityType `json:"entity_type"`
	Confidence float64          `json:"confidence"`
}

// Index looks resolutions up by the deictic word's start offset.
type Index map[int]Resolution

// IndexOf builds the offset lookup for a resolution list.
func IndexOf(rs []Resolution) Index {
	idx := make(Index, len(rs))
	for _, r := range rs {
		idx[r.Start] = r
	}
	return idx
}

// Resolve scans the document for deictic words and binds each to the nearest
// matching entity in reg. Unresolvable words are omitted.
func Resolve(doc *parse.Document, reg *entity.Registry) []Resolution {
	var out []Resolution
	for si, s := range doc.Sentences {
		for ti, t := range s.Tokens {
			word := strings.ToLower(t.Text)
			var types []graph.EntityType
			var conf float64
			switch {
			case spatialWords[word]:
				types, conf = spatialTypes, SpatialConfidence
			case temporalWords[word]:
				types, conf = temporalTypes, TemporalConfidence
			default:
				continue
			}

			e, ok := search(doc, reg, si, ti, types)
			if !ok {
				continue
			}
			out = append(out, Resolution{
				Word:       t.Text,
				Start:      t.Start,
				End:        t.End,
				EntityID:   e.ID,
				EntityName: e.Name,
				EntityType: e.Type,
				Confidence: conf,
			})
		}
	}
	logging.Debug("deixis", "%d deictic word(s) resolved", len(out))
	return out
}

// search walks backward from token ti of sentence si, most recent first,
// over nominal or entity-tagged tokens. Tokens of the deictic's own sentence
// are considered only when strictly before it.
func search(doc *parse.Document, reg *entity.Registry, si, ti int, types []graph.EntityType) (*entity.Canonical, bool) {
	candidates := ofTypes(reg, types)
	if len(candidates) == 0 {
		return nil, false
	}
	for s := si; s >= 0 && s >= si-lookback; s-- {
		tokens := doc.Sentences[s].Tokens
		last := len(tokens) - 1
		if s == si {
			last = ti - 1
		}
		for i := last; i >= 0; i-- {
			t := tokens[i]
			if !t.IsNominal() && t.Ent == "" {
				continue
			}
			for _, e := range candidates {
				if matches(e, t.Text) {
					return e, true
				}
			}
		}
	}
	return nil, false
}

func ofTypes(reg *entity.Registry, types []graph.EntityType) []*entity.Canonical {
	var out []*entity.Canonical
	for _, e := range reg.Entities() {
		for _, t := range types {
			if e.Type == t {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// matches reports whether any of e's names equals or contains the token, or
// the token contains the name, ignoring case.
func matches(e *entity.Canonical, token string) bool {
	tok := strings.ToLower(token)
	for _, name := range e.Names() {
		n := strings.ToLower(name)
		if n == tok {
			return true
		}
		if utf8.RuneCountInString(tok) >= minContainment && strings.Contains(n, tok) {
			return true
		}
		if utf8.RuneCountInString(n) >= minContainment && strings.Contains(tok, n) {
			return true
		}
	}
	return false
}
