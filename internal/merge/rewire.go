package merge

import "github.com/vthunder/ares/internal/graph"

// Rewire maps relation endpoints through idMap. Ids without a mapping are
// kept as they are.
func Rewire(relations []graph.Relation, idMap map[string]string) []graph.Relation {
	out := make([]graph.Relation, len(relations))
	for i, r := range relations {
		if g, ok := idMap[r.Subject]; ok {
			r.Subject = g
		}
		if g, ok := idMap[r.Object]; ok {
			r.Object = g
		}
		out[i] = r
	}
	return out
}
