// Package models defines the core data structures shared by the design engine.
// It includes graph entities, requirement definitions and derived snapshots.
package models

type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Stats *Stats `json:"stats,omitempty"`
}

type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is a placed architecture component. ID is assigned once and never
// changes; Category and Archetype drive requirement matching.
type Node struct {
	ID        string         `json:"id"`
	Archetype string         `json:"archetype"`
	Category  string         `json:"category"`
	Label     string         `json:"label,omitempty"`
	Cost      float64        `json:"cost"`
	Capacity  float64        `json:"capacity"`
	Position  Position       `json:"position"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Connection is the caller-supplied request to join two nodes.
type Connection struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// NodePatch carries the mutable fields of a node. Nil fields are left alone
// and Metadata is merged key by key.
type NodePatch struct {
	Archetype *string        `json:"archetype,omitempty"`
	Category  *string        `json:"category,omitempty"`
	Label     *string        `json:"label,omitempty"`
	Cost      *float64       `json:"cost,omitempty"`
	Capacity  *float64       `json:"capacity,omitempty"`
	Position  *Position      `json:"position,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type Stats struct {
	TotalNodes       int            `json:"total_nodes"`
	TotalEdges       int            `json:"total_edges"`
	TotalCost        float64        `json:"total_cost"`
	NodesByCategory  map[string]int `json:"nodes_by_category,omitempty"`
	NodesByArchetype map[string]int `json:"nodes_by_archetype,omitempty"`
}
