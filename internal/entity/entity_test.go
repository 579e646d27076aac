package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vthunder/ares/internal/graph"
)

func TestCanonicalAddMention(t *testing.T) {
	e := &Canonical{ID: "e1", Name: "Harry"}
	e.AddMention(Mention{Text: "Harry", Start: 40, End: 45})
	e.AddMention(Mention{Text: "harry", Start: 10, End: 15})
	e.AddMention(Mention{Text: "Harry", Start: 90, End: 95})

	assert.Equal(t, 3, e.MentionCount)
	assert.Len(t, e.Mentions, e.MentionCount)
	assert.Equal(t, 10, e.FirstPosition)
}

func TestCanonicalAliasesAndNames(t *testing.T) {
	e := &Canonical{Name: "Harry Potter"}
	e.AddAlias("Harry Potter")
	e.AddAlias("harry potter")
	e.AddAlias("Harry Potter")
	e.AddAlias("")

	assert.Equal(t, []string{"Harry Potter", "harry potter"}, e.Aliases)
	assert.Equal(t, []string{"Harry Potter", "harry potter"}, e.Names())
}

func TestCanonicalRecord(t *testing.T) {
	e := &Canonical{ID: "e1", Name: "Hogwarts", Type: graph.EntityPlace, Aliases: []string{"Hogwarts"}}
	e.AddMention(Mention{Start: 14, End: 22})

	rec := e.Record("doc-1")
	assert.Equal(t, "doc-1", rec.DocumentID)
	n, ok := rec.IntAttr(graph.AttrMentionCount)
	require.True(t, ok)
	assert.Equal(t, 1, n)
	first, _ := rec.IntAttr(graph.AttrFirstPosition)
	assert.Equal(t, 14, first)
}

func TestContextUnion(t *testing.T) {
	a := Context{Occupations: []string{"farmer"}, LifeStages: []string{"old"}}
	b := Context{Occupations: []string{"baker", "farmer"}, Relationships: []string{"father"}}

	u := a.Union(b)
	assert.Equal(t, []string{"baker", "farmer"}, u.Occupations)
	assert.Equal(t, []string{"father"}, u.Relationships)
	assert.Equal(t, []string{"old"}, u.LifeStages)
	assert.True(t, Context{}.Empty())
	assert.False(t, u.Empty())
}

func TestRegistryOrderAndCollisions(t *testing.T) {
	r := NewRegistry()
	a := &Canonical{ID: "a", Name: "John Smith"}
	b := &Canonical{ID: "b", Name: "John Smith"}
	c := &Canonical{ID: "c", Name: "Ron"}

	assert.Equal(t, "john smith", r.Put("john smith", a))
	assert.Equal(t, "ron", r.Put("ron", c))
	assert.Equal(t, "john smith 2", r.Put("john smith", b))
	assert.Equal(t, "john smith", r.Put("john smith", a)) // re-put is a no-op

	assert.Equal(t, []string{"john smith", "ron", "john smith 2"}, r.Keys())
	assert.Equal(t, 3, r.Len())

	got, ok := r.ByID("b")
	require.True(t, ok)
	assert.Same(t, b, got)
	_, ok = r.ByID("zzz")
	assert.False(t, ok)
}
