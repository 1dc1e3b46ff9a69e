package graph

import "sort"

// TotalCost is the monthly cost of every node currently in the store.
func (s *Store) TotalCost() float64 {
	return s.totalCost
}

// recomputeCost re-sums node costs from scratch in insertion order, so the
// total never drifts across bulk edits and is bit-for-bit reproducible.
func (s *Store) recomputeCost() {
	entries := make([]*nodeEntry, 0, len(s.nodes))
	for _, e := range s.nodes {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	total := 0.0
	for _, e := range entries {
		total += e.node.Cost
	}
	s.totalCost = total
}
