package census

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vthunder/ares/internal/disambig"
	"github.com/vthunder/ares/internal/graph"
	"github.com/vthunder/ares/internal/mention"
	"github.com/vthunder/ares/internal/parse/parsetest"
)

func TestMapLabel(t *testing.T) {
	tests := map[string]graph.EntityType{
		"PERSON":      graph.EntityPerson,
		"GPE":         graph.EntityPlace,
		"LOC":         graph.EntityPlace,
		"FAC":         graph.EntityPlace,
		"ORG":         graph.EntityOrg,
		"NORP":        graph.EntityOrg,
		"DATE":        graph.EntityDate,
		"TIME":        graph.EntityTime,
		"EVENT":       graph.EntityEvent,
		"WORK_OF_ART": graph.EntityObject,
		"MONEY":       graph.EntityMisc,
		"gpe":         graph.EntityPlace,
		"SOMETHING":   graph.EntityMisc,
	}
	for label, want := range tests {
		assert.Equal(t, want, MapLabel(label), label)
	}
}

func TestEntityIDStable(t *testing.T) {
	a := EntityID("", graph.EntityPerson, "harry potter")
	assert.Equal(t, a, EntityID("", graph.EntityPerson, "harry potter"))
	assert.NotEqual(t, a, EntityID("", graph.EntityPlace, "harry potter"))
	assert.NotEqual(t, a, EntityID("doc-1", graph.EntityPerson, "harry potter"))
	assert.True(t, strings.HasPrefix(a, "entity-"))
	assert.Len(t, a, len("entity-")+16)
}

func TestRunGroupsByNormalizedName(t *testing.T) {
	text := "Harry Potter arrived. HARRY POTTER smiled. Hogwarts waited. harry potter slept."
	doc := parsetest.Doc(text,
		"Harry Potter", "PERSON",
		"HARRY POTTER", "PERSON",
		"harry potter", "PERSON",
		"Hogwarts", "GPE",
	)

	reg := New(2, nil).Run(doc)
	require.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"harry potter", "hogwarts"}, reg.Keys())

	harry, ok := reg.Get("harry potter")
	require.True(t, ok)
	assert.Equal(t, "Harry Potter", harry.Name) // all equal length: first wins
	assert.Equal(t, []string{"Harry Potter", "HARRY POTTER", "harry potter"}, harry.Aliases)
	assert.Equal(t, 3, harry.MentionCount)
	assert.Equal(t, 0, harry.FirstPosition)
	assert.Equal(t, graph.EntityPerson, harry.Type)
	assert.Equal(t, EntityID("", graph.EntityPerson, "harry potter"), harry.ID)

	scoped := New(2, nil).RunDocument("doc-1", doc)
	sh, _ := scoped.Get("harry potter")
	assert.Equal(t, EntityID("doc-1", graph.EntityPerson, "harry potter"), sh.ID)

	hog, _ := reg.Get("hogwarts")
	assert.Equal(t, graph.EntityPlace, hog.Type)
}

func TestRunPicksLongestSurfaceAndModeType(t *testing.T) {
	text := "Jean-Luc Picard spoke. Jean Luc Picard listened. Jean-Luc Picard, tired, sat."
	doc := parsetest.Doc(text, "Jean-Luc Picard", "PERSON", "Jean Luc Picard", "ORG")

	reg := New(2, nil).Run(doc)
	require.Equal(t, 1, reg.Len())
	e := reg.Entities()[0]
	assert.Equal(t, "Jean - Luc Picard", e.Name) // tokens joined by single spaces
	assert.Equal(t, graph.EntityPerson, e.Type)
	assert.Equal(t, 3, e.MentionCount)
	assert.Equal(t, []string{"jean luc picard"}, reg.Keys())
}

func TestRunTypeTieFirstSeenWins(t *testing.T) {
	doc := parsetest.Doc("Bree . Bree", "Bree", "GPE")
	doc.Sentences[len(doc.Sentences)-1].Tokens[0].Ent = "ORG"

	reg := New(2, nil).Run(doc)
	require.Equal(t, 1, reg.Len())
	assert.Equal(t, graph.EntityPlace, reg.Entities()[0].Type)
}

func TestRunDiscardsShortKeys(t *testing.T) {
	text := "X met Ron. X left."
	doc := parsetest.Doc(text, "X", "PERSON", "Ron", "PERSON")

	reg := New(2, nil).Run(doc)
	assert.Equal(t, []string{"ron"}, reg.Keys())
}

func TestRunEmptyDocument(t *testing.T) {
	doc := parsetest.Doc("nothing to see here.")
	reg := New(2, nil).Run(doc)
	assert.Equal(t, 0, reg.Len())

	reg = New(2, nil).Run(parsetest.Doc(""))
	assert.Equal(t, 0, reg.Len())
}

func TestRunPartitionCoversAllMentions(t *testing.T) {
	text := "Gandalf met Frodo in Bree. Frodo left Bree. Gandalf followed. A met B."
	doc := parsetest.Doc(text,
		"Gandalf", "PERSON", "Frodo", "PERSON", "Bree", "GPE", "A", "PERSON", "B", "PERSON",
	)
	all := Mentions(doc)

	reg := New(2, nil).Run(doc)

	short := 0
	for _, m := range all {
		if len(mention.NormalizeKey(m.Text)) < 2 {
			short++
		}
	}
	assert.Equal(t, len(all)-short, reg.TotalMentions())

	seen := make(map[int]string)
	for _, e := range reg.Entities() {
		assert.Len(t, e.Mentions, e.MentionCount)
		for _, m := range e.Mentions {
			_, dup := seen[m.Start]
			assert.False(t, dup, "mention at %d in two groups", m.Start)
			seen[m.Start] = e.ID
		}
	}
}

func TestRunWithDisambiguation(t *testing.T) {
	filler := strings.Repeat("The road wound on through the hills. ", 15)
	text := "John Smith the blacksmith worked. " + filler +
		"John Smith the priest prayed. " + filler +
		"John Smith the blacksmith rested."
	doc := parsetest.Doc(text, "John Smith", "PERSON")

	d := disambig.New(3, 200)
	n := 0
	d.NewID = func() string { n++; return fmt.Sprintf("split-%d", n) }

	reg := New(2, d).Run(doc)
	require.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"john smith blacksmith", "john smith priest"}, reg.Keys())

	b, _ := reg.Get("john smith blacksmith")
	assert.Equal(t, "John Smith (blacksmith)", b.Name)
	assert.Equal(t, 2, b.MentionCount)
	assert.Equal(t, 3, reg.TotalMentions())
}
