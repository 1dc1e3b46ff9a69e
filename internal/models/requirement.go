package models

// ValidationKind selects the strategy used to evaluate a requirement.
type ValidationKind string

const (
	KindNodeCategories     ValidationKind = "node_categories"
	KindNodeCount          ValidationKind = "node_count"
	KindEdgeConnection     ValidationKind = "edge_connection"
	KindNodeAndConnection  ValidationKind = "node_and_connection"
	KindNodeRemoval        ValidationKind = "node_removal"
	KindComponentRequired  ValidationKind = "component_required"
	KindConnectionRequired ValidationKind = "connection_required"
	KindCostConstraint     ValidationKind = "cost_constraint"
	KindMetric             ValidationKind = "metric"
)

// Kinds lists every kind the engine knows how to evaluate.
var Kinds = []ValidationKind{
	KindNodeCategories,
	KindNodeCount,
	KindEdgeConnection,
	KindNodeAndConnection,
	KindNodeRemoval,
	KindComponentRequired,
	KindConnectionRequired,
	KindCostConstraint,
	KindMetric,
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Requirement is supplied by a stage loader and treated as read-only input.
type Requirement struct {
	ID          string         `json:"id" yaml:"id" validate:"required"`
	Kind        ValidationKind `json:"validationKind" yaml:"validationKind" validate:"required"`
	Title       string         `json:"title,omitempty" yaml:"title,omitempty"`
	Description string         `json:"description" yaml:"description"`
	Params      Params         `json:"params" yaml:"params"`
	Priority    Priority       `json:"priority,omitempty" yaml:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Visible     bool           `json:"visible" yaml:"visible"`
	UnlockOrder *int           `json:"unlockOrder,omitempty" yaml:"unlockOrder,omitempty"`
	Points      int            `json:"points,omitempty" yaml:"points,omitempty" validate:"gte=0"`
	Hint        string         `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// Params is the union of every kind's parameters. Each strategy reads only
// the fields that belong to its kind.
type Params struct {
	RequiredCategories []string       `json:"requiredCategories,omitempty" yaml:"requiredCategories,omitempty"`
	MinNodes           *int           `json:"minNodes,omitempty" yaml:"minNodes,omitempty"`
	MinCountByCategory map[string]int `json:"minCountByCategory,omitempty" yaml:"minCountByCategory,omitempty"`
	FromCategory       string         `json:"fromCategory,omitempty" yaml:"fromCategory,omitempty"`
	ToCategory         string         `json:"toCategory,omitempty" yaml:"toCategory,omitempty"`
	ForbiddenNodeIDs   []string       `json:"forbiddenNodeIds,omitempty" yaml:"forbiddenNodeIds,omitempty"`
	Components         []ComponentMin `json:"components,omitempty" yaml:"components,omitempty"`
	MinFromCount       int            `json:"minFromCount,omitempty" yaml:"minFromCount,omitempty"`
	MinToCount         int            `json:"minToCount,omitempty" yaml:"minToCount,omitempty"`
	TargetValue        *float64       `json:"targetValue,omitempty" yaml:"targetValue,omitempty"`
	Metric             string         `json:"metric,omitempty" yaml:"metric,omitempty"`
	Comparator         string         `json:"comparator,omitempty" yaml:"comparator,omitempty"`
}

type ComponentMin struct {
	Category string `json:"category" yaml:"category"`
	MinCount int    `json:"minCount" yaml:"minCount"`
}
