// Package disambig splits a provisional entity into several when its mentions
// carry irreconcilable context (a father and a son, a farmer and a priest, an
// old man and a young one, all under one name).
//
// The partition is greedy first-fit over mentions in document order. It is
// order-dependent and not an optimal clustering; callers rely on that order.
package disambig

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vthunder/ares/internal/entity"
	"github.com/vthunder/ares/internal/logging"
)

// Kind names which context conflict was detected.
type Kind string

const (
	KindParentChild Kind = "parent_child"
	KindOccupation  Kind = "occupation"
	KindLifeStage   Kind = "life_stage"
)

// Decision is one detected conflict with the cues that triggered it.
type Decision struct {
	Kind     Kind     `json:"kind"`
	Evidence []string `json:"evidence"`
}

// DetectParentChild fires when both a parent role and a child role are attested.
func DetectParentChild(ctx entity.Context) (Decision, bool) {
	if hasAny(ctx.Relationships, parentTerms) && hasAny(ctx.Relationships, childTerms) {
		var ev []string
		for _, r := range ctx.Relationships {
			if hasAny([]string{r}, parentTerms) || hasAny([]string{r}, childTerms) {
				ev = append(ev, r)
			}
		}
		return Decision{Kind: KindParentChild, Evidence: ev}, true
	}
	return Decision{}, false
}

// DetectOccupation fires when more than one distinct occupation is attested.
func DetectOccupation(ctx entity.Context) (Decision, bool) {
	if len(ctx.Occupations) > 1 {
		return Decision{Kind: KindOccupation, Evidence: ctx.Occupations}, true
	}
	return Decision{}, false
}

// DetectLifeStage fires when both an old and a young marker are attested.
func DetectLifeStage(ctx entity.Context) (Decision, bool) {
	if hasAny(ctx.LifeStages, []string{"old"}) && hasAny(ctx.LifeStages, []string{"young"}) {
		return Decision{Kind: KindLifeStage, Evidence: ctx.LifeStages}, true
	}
	return Decision{}, false
}

// Detect runs every trigger against an aggregated context.
func Detect(ctx entity.Context) []Decision {
	var out []Decision
	for _, detect := range []func(entity.Context) (Decision, bool){
		DetectParentChild, DetectOccupation, DetectLifeStage,
	} {
		if d, ok := detect(ctx); ok {
			out = append(out, d)
		}
	}
	return out
}

type roleClass int

const (
	roleNone roleClass = iota
	roleParent
	roleChild
	roleBoth
)

func classify(ctx entity.Context) roleClass {
	p, c := hasAny(ctx.Relationships, parentTerms), hasAny(ctx.Relationships, childTerms)
	switch {
	case p && c:
		return roleBoth
	case p:
		return roleParent
	case c:
		return roleChild
	}
	return roleNone
}

func stageClass(ctx entity.Context) string {
	old, young := hasAny(ctx.LifeStages, []string{"old"}), hasAny(ctx.LifeStages, []string{"young"})
	switch {
	case old && !young:
		return "old"
	case young && !old:
		return "young"
	}
	return ""
}

// Conflicts reports whether two contexts cannot describe the same entity, and
// on which axis.
func Conflicts(a, b entity.Context) (Kind, bool) {
	ra, rb := classify(a), classify(b)
	if (ra == roleParent && rb == roleChild) || (ra == roleChild && rb == roleParent) {
		return KindParentChild, true
	}
	if len(a.Occupations) > 0 && len(b.Occupations) > 0 && !hasAny(a.Occupations, b.Occupations) {
		return KindOccupation, true
	}
	sa, sb := stageClass(a), stageClass(b)
	if sa != "" && sb != "" && sa != sb {
		return KindLifeStage, true
	}
	return "", false
}

// Disambiguator splits entities whose mentions carry conflicting context.
type Disambiguator struct {
	MinMentions int
	Window      int
	NewID       func() string
}

// New creates a disambiguator. Split entities get fresh uuid-based ids.
func New(minMentions, window int) *Disambiguator {
	return &Disambiguator{
		MinMentions: minMentions,
		Window:      window,
		NewID:       func() string { return "entity-" + uuid.NewString() },
	}
}

type subgroup struct {
	ctx      entity.Context
	mentions []entity.Mention
}

// Resolve returns e unchanged (with its context summary filled) or the split
// entities that replace it. It never fails.
func (d *Disambiguator) Resolve(text string, e *entity.Canonical) []*entity.Canonical {
	names := e.Names()
	contexts := make([]entity.Context, len(e.Mentions))
	var agg entity.Context
	for i, m := range e.Mentions {
		contexts[i] = ExtractContext(Window(text, m.Start, m.End, d.Window), names)
		agg = agg.Union(contexts[i])
	}
	summary := agg
	e.Context = &summary

	if len(e.Mentions) < d.MinMentions {
		return []*entity.Canonical{e}
	}
	decisions := Detect(agg)
	if len(decisions) == 0 {
		return []*entity.Canonical{e}
	}

	var groups []*subgroup
	for i, m := range e.Mentions {
		var home *subgroup
		for _, g := range groups {
			if _, conflict := Conflicts(g.ctx, contexts[i]); !conflict {
				home = g
				break
			}
		}
		if home == nil {
			home = &subgroup{}
			groups = append(groups, home)
		}
		home.ctx = home.ctx.Union(contexts[i])
		home.mentions = append(home.mentions, m)
	}

	if len(groups) < 2 {
		logging.Debug("disambig", "%q: %d trigger(s) but mentions reconcile", e.Name, len(decisions))
		return []*entity.Canonical{e}
	}

	logging.Debug("disambig", "%q split into %d (%s)", e.Name, len(groups), decisions[0].Kind)

	used := make(map[string]bool)
	out := make([]*entity.Canonical, 0, len(groups))
	for i, g := range groups {
		q := qualifier(g.ctx)
		if q == "" || used[q] {
			q = fmt.Sprint(i + 1)
		}
		used[q] = true

		ctx := g.ctx
		split := &entity.Canonical{
			ID:      d.NewID(),
			Name:    fmt.Sprintf("%s (%s)", e.Name, q),
			Aliases: append([]string(nil), e.Aliases...),
			Type:    e.Type,
			Context: &ctx,
		}
		for _, m := range g.mentions {
			split.AddMention(m)
		}
		out = append(out, split)
	}
	return out
}

// qualifier picks the distinguishing label for a split: occupation, then
// kinship role, then life stage.
func qualifier(ctx entity.Context) string {
	if len(ctx.Occupations) > 0 {
		return ctx.Occupations[0]
	}
	switch classify(ctx) {
	case roleParent, roleChild:
		for _, r := range ctx.Relationships {
			if hasAny([]string{r}, parentTerms) || hasAny([]string{r}, childTerms) {
				return r
			}
		}
	}
	switch stageClass(ctx) {
	case "old":
		return "elder"
	case "young":
		return "younger"
	}
	return ""
}
