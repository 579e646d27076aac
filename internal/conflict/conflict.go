// Package conflict finds contradictions in a consolidated relation set:
// single-valued predicates with several objects and cycles in the
// parent/child hierarchy. Findings are data for review, never errors.
package conflict

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vthunder/ares/internal/graph"
	"github.com/vthunder/ares/internal/logging"
)

// Type names the kind of contradiction.
type Type string

const (
	TypeSingleValued Type = "single_valued"
	TypeCycle        Type = "cycle"
	// TypeTemporal is reserved for date-order checks; nothing emits it yet.
	TypeTemporal Type = "temporal"
)

const (
	SeverityLow    = 1
	SeverityMedium = 2
	SeverityHigh   = 3
)

// SingleValued lists predicates a subject may hold with at most one object.
var SingleValued = map[graph.Predicate]bool{
	graph.PredMarriedTo: true,
	graph.PredSpouseOf:  true,
	graph.PredBornIn:    true,
	graph.PredDiedIn:    true,
	graph.PredBornOn:    true,
	graph.PredDiedOn:    true,
}

// Conflict is one finding with the relations that caused it.
type Conflict struct {
	Type        Type             `json:"type"`
	Severity    int              `json:"severity"`
	Description string           `json:"description"`
	Evidence    []graph.Relation `json:"evidence"`
}

// Detect runs both passes and ranks the findings by severity, highest
// first, keeping discovery order within a severity.
func Detect(relations []graph.Relation) []Conflict {
	out := SingleValuedConflicts(relations)
	out = append(out, CycleConflicts(relations)...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Severity > out[j].Severity })
	logging.Debug("conflict", "%d conflict(s) in %d relations", len(out), len(relations))
	return out
}

type subjectPredicate struct {
	subject   string
	predicate graph.Predicate
}

// SingleValuedConflicts reports each (subject, predicate) group of a
// single-valued predicate that names more than one distinct object.
func SingleValuedConflicts(relations []graph.Relation) []Conflict {
	groups := make(map[subjectPredicate][]graph.Relation)
	var order []subjectPredicate
	for _, r := range relations {
		if !SingleValued[r.Predicate] {
			continue
		}
		k := subjectPredicate{r.Subject, r.Predicate}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	var out []Conflict
	for _, k := range order {
		rels := groups[k]
		var objects []string
		seen := make(map[string]bool)
		for _, r := range rels {
			if !seen[r.Object] {
				seen[r.Object] = true
				objects = append(objects, r.Object)
			}
		}
		if len(objects) < 2 {
			continue
		}
		out = append(out, Conflict{
			Type:     TypeSingleValued,
			Severity: SeverityMedium,
			Description: fmt.Sprintf("%s has %d values for %s: %s",
				k.subject, len(objects), k.predicate, strings.Join(objects, ", ")),
			Evidence: rels,
		})
	}
	return out
}
