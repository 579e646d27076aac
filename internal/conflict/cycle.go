package conflict

import (
	"fmt"
	"strings"

	"github.com/vthunder/ares/internal/graph"
)

type edge struct {
	from, to string
}

// hierarchy is the parent-to-child adjacency built from parent_of and
// child_of relations. child_of(A, B) is read as the edge B -> A.
type hierarchy struct {
	nodes    []string
	adj      map[string][]string
	evidence map[edge]graph.Relation
}

func buildHierarchy(relations []graph.Relation) *hierarchy {
	h := &hierarchy{
		adj:      make(map[string][]string),
		evidence: make(map[edge]graph.Relation),
	}
	known := make(map[string]bool)
	addNode := func(n string) {
		if !known[n] {
			known[n] = true
			h.nodes = append(h.nodes, n)
		}
	}
	for _, r := range relations {
		var e edge
		switch r.Predicate {
		case graph.PredParentOf:
			e = edge{r.Subject, r.Object}
		case graph.PredChildOf:
			e = edge{r.Object, r.Subject}
		default:
			continue
		}
		addNode(e.from)
		addNode(e.to)
		if _, dup := h.evidence[e]; dup {
			continue
		}
		h.evidence[e] = r
		h.adj[e.from] = append(h.adj[e.from], e.to)
	}
	return h
}

// walk is the state of one depth-first traversal.
type walk struct {
	h       *hierarchy
	visited map[string]bool
	onStack map[string]bool
	path    []string
}

// dfs returns the first cycle reachable from n as a closed node sequence
// (first node repeated at the end), or nil.
func (w *walk) dfs(n string) []string {
	w.visited[n] = true
	w.onStack[n] = true
	w.path = append(w.path, n)

	for _, next := range w.h.adj[n] {
		if w.onStack[next] {
			for i, p := range w.path {
				if p == next {
					cycle := append([]string(nil), w.path[i:]...)
					return append(cycle, next)
				}
			}
		}
		if w.visited[next] {
			continue
		}
		if cycle := w.dfs(next); cycle != nil {
			return cycle
		}
	}

	w.path = w.path[:len(w.path)-1]
	w.onStack[n] = false
	return nil
}

// CycleConflicts reports cycles in the parent/child hierarchy. Each
// traversal stops at its first cycle, so a component holding several
// cycles yields one report.
func CycleConflicts(relations []graph.Relation) []Conflict {
	h := buildHierarchy(relations)
	visited := make(map[string]bool)

	var out []Conflict
	for _, root := range h.nodes {
		if visited[root] {
			continue
		}
		w := &walk{h: h, visited: visited, onStack: make(map[string]bool)}
		cycle := w.dfs(root)
		if cycle == nil {
			continue
		}
		var evidence []graph.Relation
		for i := 0; i+1 < len(cycle); i++ {
			evidence = append(evidence, h.evidence[edge{cycle[i], cycle[i+1]}])
		}
		out = append(out, Conflict{
			Type:        TypeCycle,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("parent/child cycle: %s", strings.Join(cycle, " -> ")),
			Evidence:    evidence,
		})
	}
	return out
}
