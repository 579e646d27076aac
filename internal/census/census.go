// Package census scans a parsed document, groups its NER mentions by
// normalized surface form and produces the document's entity registry.
package census

import (
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/zeebo/blake3"

	"github.com/vthunder/ares/internal/disambig"
	"github.com/vthunder/ares/internal/entity"
	"github.com/vthunder/ares/internal/graph"
	"github.com/vthunder/ares/internal/logging"
	"github.com/vthunder/ares/internal/mention"
	"github.com/vthunder/ares/internal/parse"
)

// labelTypes maps source NER labels onto the internal type set.
var labelTypes = map[string]graph.EntityType{
	"PERSON":      graph.EntityPerson,
	"PER":         graph.EntityPerson,
	"GPE":         graph.EntityPlace,
	"LOC":         graph.EntityPlace,
	"FAC":         graph.EntityPlace,
	"ORG":         graph.EntityOrg,
	"NORP":        graph.EntityOrg,
	"DATE":        graph.EntityDate,
	"TIME":        graph.EntityTime,
	"EVENT":       graph.EntityEvent,
	"PRODUCT":     graph.EntityObject,
	"WORK_OF_ART": graph.EntityObject,
}

// MapLabel maps a source NER label to an entity type; unknown labels are MISC.
func MapLabel(label string) graph.EntityType {
	if t, ok := labelTypes[strings.ToUpper(label)]; ok {
		return t
	}
	return graph.EntityMisc
}

// EntityID derives a stable id from the document scope, type and grouping
// key. An empty scope hashes type and key alone.
func EntityID(scope string, t graph.EntityType, key string) string {
	in := string(t) + ":" + key
	if scope != "" {
		in = scope + ":" + in
	}
	sum := blake3.Sum256([]byte(in))
	return "entity-" + hex.EncodeToString(sum[:8])
}

// Census builds entity registries from parsed documents.
type Census struct {
	MinKeyLength  int
	Disambiguator *disambig.Disambiguator
}

// New creates a census that discards keys shorter than minKeyLength and runs
// every group through d. A nil d skips disambiguation.
func New(minKeyLength int, d *disambig.Disambiguator) *Census {
	return &Census{MinKeyLength: minKeyLength, Disambiguator: d}
}

type group struct {
	key      string
	mentions []entity.Mention
}

// Mentions returns the document's typed NER mentions in token order.
func Mentions(doc *parse.Document) []entity.Mention {
	runs := mention.NERRuns(doc)
	out := make([]entity.Mention, len(runs))
	for i, c := range runs {
		out[i] = entity.Mention{
			Text:     c.Surface,
			Type:     MapLabel(c.Label),
			Start:    c.Start,
			End:      c.End,
			Sentence: c.SentenceIndex,
		}
	}
	return out
}

// Run produces the registry for one document with unscoped ids.
func (c *Census) Run(doc *parse.Document) *entity.Registry {
	return c.RunDocument("", doc)
}

// RunDocument produces the registry for one document, scoping entity ids to
// docID so the same name in two documents gets two ids. A document without
// entities yields an empty registry.
func (c *Census) RunDocument(docID string, doc *parse.Document) *entity.Registry {
	reg := entity.NewRegistry()

	var groups []*group
	byKey := make(map[string]*group)
	for _, m := range Mentions(doc) {
		key := mention.NormalizeKey(m.Text)
		g, ok := byKey[key]
		if !ok {
			g = &group{key: key}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.mentions = append(g.mentions, m)
	}

	discarded, split := 0, 0
	for _, g := range groups {
		if utf8.RuneCountInString(g.key) < c.MinKeyLength {
			discarded++
			continue
		}

		e := buildEntity(docID, g)
		resolved := []*entity.Canonical{e}
		if c.Disambiguator != nil {
			resolved = c.Disambiguator.Resolve(doc.Text, e)
		}
		if len(resolved) > 1 {
			split++
		}
		for _, r := range resolved {
			reg.Put(mention.NormalizeKey(r.Name), r)
		}
	}

	logging.Debug("census", "%d groups, %d split, %d discarded, %d entities",
		len(groups), split, discarded, reg.Len())
	return reg
}

// buildEntity folds a group into a provisional entity: the longest surface is
// canonical (first wins ties), the type is the mode (first seen wins ties).
func buildEntity(scope string, g *group) *entity.Canonical {
	e := &entity.Canonical{}
	typeCounts := make(map[graph.EntityType]int)
	var typeOrder []graph.EntityType

	for _, m := range g.mentions {
		if utf8.RuneCountInString(m.Text) > utf8.RuneCountInString(e.Name) {
			e.Name = m.Text
		}
		e.AddAlias(m.Text)
		if typeCounts[m.Type] == 0 {
			typeOrder = append(typeOrder, m.Type)
		}
		typeCounts[m.Type]++
		e.AddMention(m)
	}

	for _, t := range typeOrder {
		if typeCounts[t] > typeCounts[e.Type] {
			e.Type = t
		}
	}
	e.ID = EntityID(scope, e.Type, g.key)
	return e
}
