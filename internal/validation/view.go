package validation

import (
	"strings"

	"github.com/archgraph/core/internal/models"
)

// FamiliesSentinel is the endpoint name that refers to the stakeholder node
// (matched by label) rather than to a component category.
const FamiliesSentinel = "families"

// View is an immutable snapshot of a graph prepared for evaluation.
type View struct {
	Nodes     []models.Node
	Edges     []models.Edge
	TotalCost float64

	byID    map[string]int
	metrics MetricsProvider
}

func NewView(g Graph, metrics MetricsProvider) *View {
	v := &View{
		Nodes:     g.Nodes(),
		Edges:     g.Edges(),
		TotalCost: g.TotalCost(),
		metrics:   metrics,
	}
	v.byID = make(map[string]int, len(v.Nodes))
	for i, n := range v.Nodes {
		v.byID[n.ID] = i
	}
	return v
}

func (v *View) node(id string) (models.Node, bool) {
	i, ok := v.byID[id]
	if !ok {
		return models.Node{}, false
	}
	return v.Nodes[i], true
}

func (v *View) hasNode(id string) bool {
	_, ok := v.byID[id]
	return ok
}

// count returns how many nodes match category.
func (v *View) count(category string) int {
	c := 0
	for _, n := range v.Nodes {
		if Matches(n, category) {
			c++
		}
	}
	return c
}

// connection returns the first edge joining a from-node and a to-node in
// either direction.
func (v *View) connection(from, to string) (models.Edge, bool) {
	for _, e := range v.Edges {
		src, ok1 := v.node(e.Source)
		tgt, ok2 := v.node(e.Target)
		if !ok1 || !ok2 {
			continue
		}
		if (Matches(src, from) && Matches(tgt, to)) || (Matches(src, to) && Matches(tgt, from)) {
			return e, true
		}
	}
	return models.Edge{}, false
}

// Matches reports whether n belongs to category, comparing case-insensitively
// against the node's category and archetype. The families sentinel matches
// the stakeholder node by id or label instead.
func Matches(n models.Node, category string) bool {
	category = strings.TrimSpace(category)
	if category == "" {
		return false
	}
	if strings.EqualFold(category, FamiliesSentinel) {
		return isFamilies(n)
	}
	return strings.EqualFold(n.Category, category) || strings.EqualFold(n.Archetype, category)
}

func isFamilies(n models.Node) bool {
	if n.ID == FamiliesSentinel {
		return true
	}
	for _, s := range []string{n.Label, n.Archetype} {
		if strings.Contains(strings.ToLower(s), "famil") {
			return true
		}
	}
	return false
}
