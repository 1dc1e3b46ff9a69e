// Package validation evaluates requirement sets against a design graph.
//
// Every requirement kind maps to a pure strategy function in a closed table;
// there is no expression evaluation. Evaluation never mutates the graph or
// the requirements and returns exactly one result per requirement, in input
// order.
package validation

import (
	"log/slog"
	"slices"

	"github.com/archgraph/core/internal/models"
)

// Graph is the read-only view of a design graph the engine evaluates.
type Graph interface {
	Nodes() []models.Node
	Edges() []models.Edge
	TotalCost() float64
}

// MetricsProvider supplies live simulated performance figures for the
// metric requirement kind.
type MetricsProvider interface {
	Metric(name string) (value float64, ok bool)
}

// MetricsFunc adapts a plain function to MetricsProvider.
type MetricsFunc func(name string) (float64, bool)

func (f MetricsFunc) Metric(name string) (float64, bool) { return f(name) }

type Engine struct {
	requirements []models.Requirement
	strategies   map[models.ValidationKind]Strategy
	metrics      MetricsProvider
	logger       *slog.Logger
}

type Option func(*Engine)

func WithMetricsProvider(p MetricsProvider) Option {
	return func(e *Engine) {
		e.metrics = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		strategies: Strategies(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetRequirements replaces the requirement list. The slice is copied so later
// changes by the caller are not observed.
func (e *Engine) SetRequirements(reqs []models.Requirement) {
	e.requirements = slices.Clone(reqs)
}

func (e *Engine) Requirements() []models.Requirement {
	return slices.Clone(e.requirements)
}

// Validate evaluates every requirement against g. Calling it twice without
// changing g yields equal results.
func (e *Engine) Validate(g Graph) []models.ValidationResult {
	return e.Evaluate(g, e.requirements)
}

// Evaluate runs reqs against g without touching the engine's own list.
func (e *Engine) Evaluate(g Graph, reqs []models.Requirement) []models.ValidationResult {
	view := NewView(g, e.metrics)
	results := make([]models.ValidationResult, len(reqs))

	for i, req := range reqs {
		strategy, ok := e.strategies[req.Kind]
		if !ok {
			e.logger.Warn("unknown requirement kind", "requirement_id", req.ID, "kind", req.Kind)
			results[i] = models.ValidationResult{
				RequirementID: req.ID,
				Completed:     false,
				Details: models.Details{
					Kind:        req.Kind,
					Message:     "unrecognized validation kind",
					UnknownKind: string(req.Kind),
				},
			}
			continue
		}

		outcome := strategy(view, req.Params)
		outcome.Details.Kind = req.Kind
		results[i] = models.ValidationResult{
			RequirementID: req.ID,
			Completed:     outcome.Completed,
			Details:       outcome.Details,
		}
	}

	return results
}
