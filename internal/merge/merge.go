// Package merge clusters entities from one or many documents into global
// entities. Clustering only happens within an entity type and is greedy in
// input order: each entity joins the best-scoring existing cluster or starts
// its own.
package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vthunder/ares/internal/graph"
	"github.com/vthunder/ares/internal/logging"
	"github.com/vthunder/ares/internal/mention"
)

const (
	StrongThreshold = 0.92
	// WeakThreshold is reserved; no merge decision uses it.
	WeakThreshold = 0.75
)

// stopwords do not count as informative when choosing a canonical name.
var stopwords = map[string]bool{
	"the": true, "of": true, "and": true, "jr": true, "sr": true, "ii": true, "iii": true, "iv": true,
}

// Entity is a local entity offered for merging.
type Entity struct {
	ID         string           `json:"id"`
	Canonical  string           `json:"canonical"`
	Aliases    []string         `json:"aliases"`
	Type       graph.EntityType `json:"type"`
	Centrality float64          `json:"centrality"`
}

func (e Entity) names() []string {
	var out []string
	seen := make(map[string]bool)
	for _, n := range append([]string{e.Canonical}, e.Aliases...) {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// GlobalEntity is one finished cluster.
type GlobalEntity struct {
	ID         string           `json:"id"`
	Canonical  string           `json:"canonical"`
	Aliases    []string         `json:"aliases"`
	Type       graph.EntityType `json:"type"`
	Centrality float64          `json:"centrality"`
	Members    []string         `json:"members"`
}

// Result is the output of one merge run.
type Result struct {
	Entities []GlobalEntity    `json:"entities"`
	IDMap    map[string]string `json:"id_map"`
}

// Merger holds the merge threshold.
type Merger struct {
	Threshold float64
}

// New creates a merger that joins clusters at or above threshold.
func New(threshold float64) *Merger {
	return &Merger{Threshold: threshold}
}

type cluster struct {
	members []Entity
}

// Merge clusters entities and assigns global ids. Entities with no name at
// all are skipped and get no mapping.
func (mg *Merger) Merge(entities []Entity) Result {
	var types []graph.EntityType
	blocks := make(map[graph.EntityType][]*cluster)
	skipped := 0

	for _, e := range entities {
		if len(e.names()) == 0 {
			skipped++
			continue
		}
		if _, ok := blocks[e.Type]; !ok {
			types = append(types, e.Type)
			blocks[e.Type] = nil
		}
		blocks[e.Type] = mg.place(blocks[e.Type], e)
	}

	res := Result{IDMap: make(map[string]string)}
	n := 0
	for _, t := range types {
		for _, c := range blocks[t] {
			n++
			g := finish(c, t, n)
			for _, m := range c.members {
				res.IDMap[m.ID] = g.ID
			}
			res.Entities = append(res.Entities, g)
		}
	}

	logging.Debug("merge", "%d entities into %d global (%d skipped)", len(entities)-skipped, len(res.Entities), skipped)
	return res
}

// place adds e to the best cluster in block or appends a new one.
func (mg *Merger) place(block []*cluster, e Entity) []*cluster {
	var best *cluster
	bestScore := 0.0
	for _, c := range block {
		score := clusterScore(c, e)
		if score > bestScore {
			best, bestScore = c, score
		}
		if score == 1.0 {
			break
		}
	}
	if best != nil && bestScore >= mg.Threshold {
		best.members = append(best.members, e)
		return block
	}
	return append(block, &cluster{members: []Entity{e}})
}

// clusterScore is the best pairwise name score between e and any member.
// A substring hit scores 1.0 and ends the search.
func clusterScore(c *cluster, e Entity) float64 {
	best := 0.0
	for _, m := range c.members {
		for _, a := range m.names() {
			for _, b := range e.names() {
				s := NameScore(a, b)
				if s == 1.0 {
					return 1.0
				}
				if s > best {
					best = s
				}
			}
		}
	}
	return best
}

// NameScore compares two names after normalization: 1.0 if either contains
// the other on word boundaries, otherwise their Jaro-Winkler similarity.
func NameScore(a, b string) float64 {
	na, nb := mention.NormalizeKey(a), mention.NormalizeKey(b)
	if na == "" || nb == "" {
		return 0.0
	}
	pa, pb := " "+na+" ", " "+nb+" "
	if strings.Contains(pa, pb) || strings.Contains(pb, pa) {
		return 1.0
	}
	return JaroWinkler(na, nb)
}

type nameStat struct {
	name  string
	count int
}

func informative(name string) int {
	n := 0
	for _, w := range strings.Fields(strings.ToLower(name)) {
		if !stopwords[strings.Trim(w, ".,")] {
			n++
		}
	}
	return n
}

// finish picks the cluster's canonical name and builds the global entity.
func finish(c *cluster, t graph.EntityType, n int) GlobalEntity {
	stats := make(map[string]*nameStat)
	var order []*nameStat
	g := GlobalEntity{
		ID:   fmt.Sprintf("global_%s_%d", strings.ToLower(string(t)), n),
		Type: t,
	}
	for _, m := range c.members {
		g.Members = append(g.Members, m.ID)
		if m.Centrality > g.Centrality {
			g.Centrality = m.Centrality
		}
		for _, name := range m.names() {
			s, ok := stats[name]
			if !ok {
				s = &nameStat{name: name}
				stats[name] = s
				order = append(order, s)
			}
			s.count++
		}
	}

	ranked := append([]*nameStat(nil), order...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if ia, ib := informative(a.name), informative(b.name); ia != ib {
			return ia > ib
		}
		if a.count != b.count {
			return a.count > b.count
		}
		if wa, wb := len(strings.Fields(a.name)), len(strings.Fields(b.name)); wa != wb {
			return wa > wb
		}
		return len(a.name) < len(b.name)
	})

	canonical := ranked[0].name
	g.Canonical = canonical
	if t == graph.EntityOrg {
		if stripped, ok := strings.CutSuffix(canonical, " House"); ok && stripped != "" {
			g.Canonical = stripped
		}
	}
	for _, s := range order {
		if s.name != g.Canonical {
			g.Aliases = append(g.Aliases, s.name)
		}
	}
	return g
}
