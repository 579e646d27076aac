// Package entity holds the per-document entity model produced by the census
// and consumed by disambiguation, deixis and mention tracking.
package entity

import (
	"sort"
	"strconv"

	"github.com/vthunder/ares/internal/graph"
)

// Mention is a span already attributed to a type.
type Mention struct {
	Text     string           `json:"text"`
	Type     graph.EntityType `json:"type"`
	Start    int              `json:"start"`
	End      int              `json:"end"`
	Sentence int              `json:"sentence"`
}

// Context summarises the cues found around an entity's mentions. Each list is
// sorted and duplicate-free.
type Context struct {
	Relationships []string `json:"relationships,omitempty"`
	Occupations   []string `json:"occupations,omitempty"`
	LifeStages    []string `json:"life_stages,omitempty"`
}

// Empty reports whether no cue was found.
func (c Context) Empty() bool {
	return len(c.Relationships) == 0 && len(c.Occupations) == 0 && len(c.LifeStages) == 0
}

// Union merges two contexts.
func (c Context) Union(o Context) Context {
	return Context{
		Relationships: unionSorted(c.Relationships, o.Relationships),
		Occupations:   unionSorted(c.Occupations, o.Occupations),
		LifeStages:    unionSorted(c.LifeStages, o.LifeStages),
	}
}

func unionSorted(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// Canonical is the consolidated form of all mentions believed to name one
// thing within a document. Mentions and aliases only ever grow.
type Canonical struct {
	ID            string           `json:"id"`
	Name          string           `json:"canonical_name"`
	Aliases       []string         `json:"aliases"`
	Type          graph.EntityType `json:"type"`
	Mentions      []Mention        `json:"mentions"`
	MentionCount  int              `json:"mention_count"`
	FirstPosition int              `json:"first_mention_position"`
	Context       *Context         `json:"context,omitempty"`
}

// AddMention appends a mention, keeping the count and first position in step.
func (e *Canonical) AddMention(m Mention) {
	if len(e.Mentions) == 0 || m.Start < e.FirstPosition {
		e.FirstPosition = m.Start
	}
	e.Mentions = append(e.Mentions, m)
	e.MentionCount = len(e.Mentions)
}

// AddAlias records a surface form if it is new.
func (e *Canonical) AddAlias(alias string) {
	if alias == "" {
		return
	}
	for _, a := range e.Aliases {
		if a == alias {
			return
		}
	}
	e.Aliases = append(e.Aliases, alias)
}

// Names returns the canonical name followed by every other alias.
func (e *Canonical) Names() []string {
	names := []string{e.Name}
	for _, a := range e.Aliases {
		if a != e.Name {
			names = append(names, a)
		}
	}
	return names
}

// Record converts the entity to its persisted form.
func (e *Canonical) Record(documentID string) *graph.EntityRecord {
	return &graph.EntityRecord{
		ID:         e.ID,
		Name:       e.Name,
		Type:       e.Type,
		Aliases:    append([]string(nil), e.Aliases...),
		DocumentID: documentID,
		Attributes: map[string]any{
			graph.AttrMentionCount:  e.MentionCount,
			graph.AttrFirstPosition: e.FirstPosition,
		},
	}
}

// Registry is an insertion-ordered collection of entities keyed by normalized
// canonical name.
type Registry struct {
	keys  []string
	byKey map[string]*Canonical
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]*Canonical)}
}

// Put stores e under key and returns the key actually used. A key already
// taken by a different entity gets a numeric suffix.
func (r *Registry) Put(key string, e *Canonical) string {
	final := key
	for n := 2; ; n++ {
		existing, taken := r.byKey[final]
		if !taken || existing == e {
			break
		}
		final = key + " " + strconv.Itoa(n)
	}
	if _, taken := r.byKey[final]; !taken {
		r.keys = append(r.keys, final)
	}
	r.byKey[final] = e
	return final
}

// Get returns the entity stored under key.
func (r *Registry) Get(key string) (*Canonical, bool) {
	e, ok := r.byKey[key]
	return e, ok
}

// ByID finds an entity by id.
func (r *Registry) ByID(id string) (*Canonical, bool) {
	for _, k := range r.keys {
		if e := r.byKey[k]; e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// Keys returns the keys in insertion order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Entities returns the entities in insertion order.
func (r *Registry) Entities() []*Canonical {
	out := make([]*Canonical, len(r.keys))
	for i, k := range r.keys {
		out[i] = r.byKey[k]
	}
	return out
}

// Len returns the number of entities.
func (r *Registry) Len() int {
	return len(r.keys)
}

// TotalMentions sums mention counts across the registry.
func (r *Registry) TotalMentions() int {
	n := 0
	for _, e := range r.byKey {
		n += e.MentionCount
	}
	return n
}
