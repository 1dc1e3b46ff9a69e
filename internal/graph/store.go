// Package graph holds the canonical node and edge set of one design session.
//
// Every mutation leaves the store in a state where each edge endpoint resolves
// to a present node and no two edges join the same unordered node pair.
// Malformed or speculative requests (unknown ids, duplicate edges) are
// rejected silently: the canvas issues them during drag interactions and they
// are not errors from the caller's point of view.
//
// A Store is not safe for concurrent use; the owning session serializes
// access.
package graph

import (
	"log/slog"
	"maps"
	"sort"

	"github.com/archgraph/core/internal/models"
	"github.com/archgraph/core/internal/parser"
	"github.com/google/uuid"
)

type nodeEntry struct {
	node models.Node
	seq  uint64
}

type edgeEntry struct {
	edge models.Edge
	seq  uint64
}

// pairKey identifies an unordered node pair.
type pairKey struct {
	a, b string
}

func newPairKey(x, y string) pairKey {
	if x > y {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}

type Store struct {
	nodes    map[string]*nodeEntry
	edges    map[string]*edgeEntry
	pairs    map[pairKey]string
	incident map[string]map[string]struct{}

	seq       uint64
	selected  string
	totalCost float64

	strict bool
	logger *slog.Logger
	newID  func() string
}

type Option func(*Store)

// WithLogger sets the logger used for rejected operations and repairs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStrictInvariants makes an invariant violation panic instead of being
// repaired. Intended for tests and debug builds.
func WithStrictInvariants(strict bool) Option {
	return func(s *Store) {
		s.strict = strict
	}
}

// WithIDGenerator replaces the UUID generator used for new node and edge ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.nodes = make(map[string]*nodeEntry)
	s.edges = make(map[string]*edgeEntry)
	s.pairs = make(map[pairKey]string)
	s.incident = make(map[string]map[string]struct{})
	s.selected = ""
	s.totalCost = 0
}

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// AddNode normalizes a component descriptor and appends it. The descriptor's
// id is kept when present and unused; otherwise a fresh id is assigned.
func (s *Store) AddNode(descriptor map[string]any, position models.Position, archetypeOverride string) string {
	return s.Insert(parser.NormalizeDescriptor(descriptor, position, archetypeOverride))
}

// Insert appends an already canonical node and returns its id.
func (s *Store) Insert(node models.Node) string {
	if node.ID == "" {
		node.ID = s.newID()
	} else if _, taken := s.nodes[node.ID]; taken {
		s.logger.Debug("node id already in use, assigning a new one", "requested_id", node.ID)
		node.ID = s.newID()
	}
	node.Cost = parser.NonNegative(node.Cost)
	node.Capacity = parser.NonNegative(node.Capacity)
	node.Metadata = maps.Clone(node.Metadata)

	s.nodes[node.ID] = &nodeEntry{node: node, seq: s.nextSeq()}
	s.recomputeCost()
	return node.ID
}

// UpdateNode merges patch into the node's mutable fields. It reports whether
// the node existed; an absent id is a no-op.
func (s *Store) UpdateNode(id string, patch models.NodePatch) bool {
	entry, ok := s.nodes[id]
	if !ok {
		s.logger.Debug("update ignored, unknown node", "node_id", id)
		return false
	}

	n := &entry.node
	if patch.Archetype != nil {
		n.Archetype = *patch.Archetype
	}
	if patch.Category != nil {
		n.Category = *patch.Category
	}
	if patch.Label != nil {
		n.Label = *patch.Label
	}
	if patch.Capacity != nil {
		n.Capacity = parser.NonNegative(*patch.Capacity)
	}
	if patch.Position != nil {
		n.Position = *patch.Position
	}
	if len(patch.Metadata) > 0 {
		if n.Metadata == nil {
			n.Metadata = make(map[string]any, len(patch.Metadata))
		}
		maps.Copy(n.Metadata, patch.Metadata)
	}
	if patch.Cost != nil {
		n.Cost = parser.NonNegative(*patch.Cost)
		s.recomputeCost()
	}
	return true
}

// DeleteNode removes the node together with every incident edge and clears
// the selection if it pointed at the node.
func (s *Store) DeleteNode(id string) bool {
	if _, ok := s.nodes[id]; !ok {
		s.logger.Debug("delete ignored, unknown node", "node_id", id)
		return false
	}

	for edgeID := range s.incident[id] {
		s.removeEdge(edgeID)
	}
	delete(s.incident, id)
	delete(s.nodes, id)

	if s.selected == id {
		s.selected = ""
	}
	s.recomputeCost()
	return true
}

// AddEdge joins two existing nodes. Missing or unknown endpoints, self loops
// and duplicates of an existing pair (in either direction) are rejected.
func (s *Store) AddEdge(conn models.Connection) (string, bool) {
	return s.insertEdge(models.Edge{
		Source:       conn.Source,
		Target:       conn.Target,
		SourceHandle: conn.SourceHandle,
		TargetHandle: conn.TargetHandle,
	})
}

func (s *Store) insertEdge(edge models.Edge) (string, bool) {
	if edge.Source == "" || edge.Target == "" {
		s.logger.Debug("edge rejected, missing endpoint", "source", edge.Source, "target", edge.Target)
		return "", false
	}
	if edge.Source == edge.Target {
		s.logger.Debug("edge rejected, self loop", "node_id", edge.Source)
		return "", false
	}
	if _, ok := s.nodes[edge.Source]; !ok {
		s.logger.Debug("edge rejected, unknown source", "source", edge.Source)
		return "", false
	}
	if _, ok := s.nodes[edge.Target]; !ok {
		s.logger.Debug("edge rejected, unknown target", "target", edge.Target)
		return "", false
	}

	key := newPairKey(edge.Source, edge.Target)
	if existing, dup := s.pairs[key]; dup {
		s.logger.Debug("edge rejected, duplicate pair", "source", edge.Source, "target", edge.Target, "existing_edge", existing)
		return "", false
	}

	if edge.ID == "" {
		edge.ID = s.newID()
	} else if _, taken := s.edges[edge.ID]; taken {
		edge.ID = s.newID()
	}

	s.edges[edge.ID] = &edgeEntry{edge: edge, seq: s.nextSeq()}
	s.pairs[key] = edge.ID
	s.link(edge.Source, edge.ID)
	s.link(edge.Target, edge.ID)
	return edge.ID, true
}

func (s *Store) link(nodeID, edgeID string) {
	set, ok := s.incident[nodeID]
	if !ok {
		set = make(map[string]struct{})
		s.incident[nodeID] = set
	}
	set[edgeID] = struct{}{}
}

func (s *Store) DeleteEdge(id string) bool {
	if _, ok := s.edges[id]; !ok {
		s.logger.Debug("delete ignored, unknown edge", "edge_id", id)
		return false
	}
	s.removeEdge(id)
	return true
}

func (s *Store) removeEdge(id string) {
	entry, ok := s.edges[id]
	if !ok {
		return
	}
	e := entry.edge
	delete(s.edges, id)
	if s.pairs[newPairKey(e.Source, e.Target)] == id {
		delete(s.pairs, newPairKey(e.Source, e.Target))
	}
	delete(s.incident[e.Source], id)
	delete(s.incident[e.Target], id)
}

// Clear empties the store and resets the derived cost and selection.
func (s *Store) Clear() {
	s.reset()
}

// Load replaces the store content with g. Nodes keep their ids where
// possible; edges that would break an invariant are dropped. It returns the
// number of rejected edges.
func (s *Store) Load(g models.Graph) int {
	s.reset()
	renamed := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		original := n.ID
		id := s.Insert(n)
		// edges follow the first node that claimed an id
		if _, seen := renamed[original]; original != "" && !seen {
			renamed[original] = id
		}
	}

	rejected := 0
	for _, e := range g.Edges {
		if src, ok := renamed[e.Source]; ok {
			e.Source = src
		}
		if tgt, ok := renamed[e.Target]; ok {
			e.Target = tgt
		}
		if _, ok := s.insertEdge(e); !ok {
			rejected++
		}
	}
	return rejected
}

func (s *Store) Select(id string) bool {
	if _, ok := s.nodes[id]; !ok {
		return false
	}
	s.selected = id
	return true
}

func (s *Store) Selected() string {
	return s.selected
}

func (s *Store) HasNode(id string) bool {
	_, ok := s.nodes[id]
	return ok
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (models.Node, bool) {
	entry, ok := s.nodes[id]
	if !ok {
		return models.Node{}, false
	}
	n := entry.node
	n.Metadata = maps.Clone(n.Metadata)
	return n, true
}

func (s *Store) Edge(id string) (models.Edge, bool) {
	entry, ok := s.edges[id]
	if !ok {
		return models.Edge{}, false
	}
	return entry.edge, true
}

// Nodes returns copies of all nodes in insertion order.
func (s *Store) Nodes() []models.Node {
	entries := make([]*nodeEntry, 0, len(s.nodes))
	for _, e := range s.nodes {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]models.Node, len(entries))
	for i, e := range entries {
		out[i] = e.node
		out[i].Metadata = maps.Clone(e.node.Metadata)
	}
	return out
}

// Edges returns all edges in insertion order.
func (s *Store) Edges() []models.Edge {
	entries := make([]*edgeEntry, 0, len(s.edges))
	for _, e := range s.edges {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]models.Edge, len(entries))
	for i, e := range entries {
		out[i] = e.edge
	}
	return out
}

func (s *Store) NodeCount() int { return len(s.nodes) }

func (s *Store) EdgeCount() int { return len(s.edges) }

// Degree is the number of edges incident to the node.
func (s *Store) Degree(id string) int {
	return len(s.incident[id])
}

// Graph returns a detached copy of the store content with stats attached.
func (s *Store) Graph() models.Graph {
	stats := s.Stats()
	return models.Graph{
		Nodes: s.Nodes(),
		Edges: s.Edges(),
		Stats: &stats,
	}
}

func (s *Store) Stats() models.Stats {
	stats := models.Stats{
		TotalNodes:       len(s.nodes),
		TotalEdges:       len(s.edges),
		TotalCost:        s.totalCost,
		NodesByCategory:  map[string]int{},
		NodesByArchetype: map[string]int{},
	}
	for _, e := range s.nodes {
		stats.NodesByCategory[e.node.Category]++
		stats.NodesByArchetype[e.node.Archetype]++
	}
	return stats
}
