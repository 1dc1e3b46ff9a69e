package graph

import (
	"fmt"
	"strings"
)

type ViolationKind string

const (
	ViolationDanglingEdge  ViolationKind = "dangling_edge"
	ViolationDuplicatePair ViolationKind = "duplicate_pair"
)

type Violation struct {
	Kind   ViolationKind
	EdgeID string
	Detail string
}

// InvariantError is raised (strict mode) or logged (repair mode) when the
// store finds an edge that breaks its structural invariants.
type InvariantError struct {
	Violations []Violation
}

func (e *InvariantError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s %s: %s", v.Kind, v.EdgeID, v.Detail)
	}
	return "graph invariant violated: " + strings.Join(parts, "; ")
}

// Verify scans every edge against the node set and the pair index.
func (s *Store) Verify() []Violation {
	var violations []Violation
	seen := make(map[pairKey]string, len(s.edges))

	for _, e := range s.Edges() {
		_, srcOK := s.nodes[e.Source]
		_, tgtOK := s.nodes[e.Target]
		if !srcOK || !tgtOK {
			violations = append(violations, Violation{
				Kind:   ViolationDanglingEdge,
				EdgeID: e.ID,
				Detail: fmt.Sprintf("%s -> %s references a missing node", e.Source, e.Target),
			})
			continue
		}

		key := newPairKey(e.Source, e.Target)
		if first, dup := seen[key]; dup {
			violations = append(violations, Violation{
				Kind:   ViolationDuplicatePair,
				EdgeID: e.ID,
				Detail: fmt.Sprintf("same node pair as edge %s", first),
			})
			continue
		}
		seen[key] = e.ID
	}
	return violations
}

// EnsureIntegrity verifies the store. In strict mode a violation panics with
// an *InvariantError; otherwise offending edges are pruned and the repair is
// logged. It returns the number of pruned edges.
func (s *Store) EnsureIntegrity() int {
	violations := s.Verify()
	if len(violations) == 0 {
		return 0
	}

	err := &InvariantError{Violations: violations}
	if s.strict {
		panic(err)
	}

	s.logger.Warn("pruning edges that break graph invariants", "error", err.Error())
	for _, v := range violations {
		s.removeEdge(v.EdgeID)
	}
	s.rebuildPairs()
	return len(violations)
}

func (s *Store) rebuildPairs() {
	s.pairs = make(map[pairKey]string, len(s.edges))
	for _, e := range s.Edges() {
		s.pairs[newPairKey(e.Source, e.Target)] = e.ID
	}
}
