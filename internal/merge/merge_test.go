package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vthunder/ares/internal/graph"
)

func TestJaroWinklerBounds(t *testing.T) {
	pairs := [][2]string{
		{"martha", "marhta"},
		{"dwayne", "duane"},
		{"dixon", "dicksonx"},
		{"a", "b"},
		{"abc", "xyz"},
		{"gandalf", "gandalf the grey"},
		{"é", "e"},
	}
	for _, p := range pairs {
		s := JaroWinkler(p[0], p[1])
		assert.GreaterOrEqual(t, s, 0.0, p)
		assert.LessOrEqual(t, s, 1.0, p)
		assert.Equal(t, 1.0, JaroWinkler(p[0], p[0]))
		assert.Equal(t, 0.0, JaroWinkler("", p[1]))
		assert.Equal(t, 0.0, JaroWinkler(p[0], ""))
	}
}

func TestJaroWinklerKnownValues(t *testing.T) {
	assert.InDelta(t, 0.9611, JaroWinkler("martha", "marhta"), 1e-4)
	assert.InDelta(t, 0.84, JaroWinkler("dwayne", "duane"), 1e-4)
	assert.InDelta(t, 0.8133, JaroWinkler("dixon", "dicksonx"), 1e-4)
	assert.InDelta(t, 0.9083, JaroWinkler("aragorn", "arathorn"), 1e-4)
}

func TestNameScore(t *testing.T) {
	assert.Equal(t, 1.0, NameScore("Harry", "Harry Potter"))
	assert.Equal(t, 1.0, NameScore("harry potter", "HARRY POTTER"))
	assert.Less(t, NameScore("Harr", "Harry Potter"), 1.0) // no word boundary
	assert.Equal(t, 0.0, NameScore("", "Harry"))
}

func TestMergeAragornArathornStaySeparate(t *testing.T) {
	res := New(StrongThreshold).Merge([]Entity{
		{ID: "a", Canonical: "Aragorn", Type: graph.EntityPerson},
		{ID: "b", Canonical: "Arathorn", Type: graph.EntityPerson},
	})
	require.Len(t, res.Entities, 2)
	assert.NotEqual(t, res.IDMap["a"], res.IDMap["b"])
}

func TestMergeSubstringJoins(t *testing.T) {
	res := New(StrongThreshold).Merge([]Entity{
		{ID: "a", Canonical: "Harry", Type: graph.EntityPerson, Centrality: 0.2},
		{ID: "b", Canonical: "Harry Potter", Aliases: []string{"Potter"}, Type: graph.EntityPerson, Centrality: 0.7},
	})
	require.Len(t, res.Entities, 1)
	g := res.Entities[0]
	assert.Equal(t, "global_person_1", g.ID)
	assert.Equal(t, "Harry Potter", g.Canonical)
	assert.ElementsMatch(t, []string{"Harry", "Potter"}, g.Aliases)
	assert.Equal(t, 0.7, g.Centrality)
	assert.Equal(t, []string{"a", "b"}, g.Members)
	assert.Equal(t, map[string]string{"a": "global_person_1", "b": "global_person_1"}, res.IDMap)
}

// "King David" carries two informative words against one, so it beats the
// shorter "David" at equal frequency.
func TestMergeCanonicalSelection(t *testing.T) {
	res := New(StrongThreshold).Merge([]Entity{
		{ID: "a", Canonical: "David", Type: graph.EntityPerson},
		{ID: "b", Canonical: "King David", Type: graph.EntityPerson},
	})
	require.Len(t, res.Entities, 1)
	assert.Equal(t, "King David", res.Entities[0].Canonical)
	assert.Equal(t, []string{"David"}, res.Entities[0].Aliases)
}

func TestMergeCanonicalTieBreaks(t *testing.T) {
	// More informative words beat a more frequent name.
	res := New(StrongThreshold).Merge([]Entity{
		{ID: "a", Canonical: "Bilbo", Aliases: []string{"Baggins"}, Type: graph.EntityPerson},
		{ID: "b", Canonical: "Bilbo Baggins", Type: graph.EntityPerson},
		{ID: "c", Canonical: "Baggins", Type: graph.EntityPerson},
	})
	require.Len(t, res.Entities, 1)
	assert.Equal(t, "Bilbo Baggins", res.Entities[0].Canonical)

	// Stopwords do not count, so both names have two informative words and
	// frequency decides.
	res = New(StrongThreshold).Merge([]Entity{
		{ID: "a", Canonical: "Gandalf Grey", Type: graph.EntityPerson},
		{ID: "b", Canonical: "Gandalf the Grey", Aliases: []string{"Gandalf Grey"}, Type: graph.EntityPerson},
	})
	require.Len(t, res.Entities, 1)
	assert.Equal(t, "Gandalf Grey", res.Entities[0].Canonical)

	// Equal on everything but length: shorter wins.
	res = New(StrongThreshold).Merge([]Entity{
		{ID: "a", Canonical: "Elrond", Aliases: []string{"Elronds"}, Type: graph.EntityPerson},
	})
	assert.Equal(t, "Elrond", res.Entities[0].Canonical)
}

func TestMergeNeverCrossesTypes(t *testing.T) {
	in := []Entity{
		{ID: "p1", Canonical: "Washington", Type: graph.EntityPerson},
		{ID: "g1", Canonical: "Washington", Type: graph.EntityPlace},
		{ID: "p2", Canonical: "George Washington", Type: graph.EntityPerson},
		{ID: "o1", Canonical: "Washington House", Type: graph.EntityOrg},
	}
	res := New(StrongThreshold).Merge(in)

	types := make(map[string]graph.EntityType)
	for _, e := range in {
		types[e.ID] = e.Type
	}
	for _, g := range res.Entities {
		for _, m := range g.Members {
			assert.Equal(t, g.Type, types[m])
		}
	}
	require.Len(t, res.Entities, 3)
	assert.Equal(t, "global_person_1", res.Entities[0].ID)
	assert.Equal(t, "global_place_2", res.Entities[1].ID)
	assert.Equal(t, "global_org_3", res.Entities[2].ID)
}

func TestMergeStripsHouseFromOrgs(t *testing.T) {
	res := New(StrongThreshold).Merge([]Entity{
		{ID: "o", Canonical: "Targaryen House", Type: graph.EntityOrg},
		{ID: "p", Canonical: "Opera House", Type: graph.EntityPlace},
	})
	require.Len(t, res.Entities, 2)
	assert.Equal(t, "Targaryen", res.Entities[0].Canonical)
	assert.Equal(t, []string{"Targaryen House"}, res.Entities[0].Aliases)
	assert.Equal(t, "Opera House", res.Entities[1].Canonical)
}

func TestMergeSkipsNamelessEntities(t *testing.T) {
	res := New(StrongThreshold).Merge([]Entity{
		{ID: "empty", Type: graph.EntityPerson},
		{ID: "alias-only", Aliases: []string{"Pippin"}, Type: graph.EntityPerson},
	})
	require.Len(t, res.Entities, 1)
	assert.Equal(t, "Pippin", res.Entities[0].Canonical)
	_, ok := res.IDMap["empty"]
	assert.False(t, ok)
}

func TestMergeEmptyInput(t *testing.T) {
	res := New(StrongThreshold).Merge(nil)
	assert.Empty(t, res.Entities)
	assert.Empty(t, res.IDMap)
}

func TestRewire(t *testing.T) {
	rels := []graph.Relation{
		{Subject: "a", Predicate: graph.PredMarriedTo, Object: "b"},
		{Subject: "b", Predicate: graph.PredBornIn, Object: "unknown"},
	}
	out := Rewire(rels, map[string]string{"a": "global_person_1", "b": "global_person_2"})
	assert.Equal(t, []graph.Relation{
		{Subject: "global_person_1", Predicate: graph.PredMarriedTo, Object: "global_person_2"},
		{Subject: "global_person_2", Predicate: graph.PredBornIn, Object: "unknown"},
	}, out)
	assert.Equal(t, "a", rels[0].Subject)
}
