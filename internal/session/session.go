// Package session binds a graph store and a validation engine into one design
// session per (stage, user) pair.
//
// Every operation runs to completion under the session lock, including the
// derived-state pipeline: cost, validation, progress and validity, in that
// order. Readers therefore never observe a graph paired with stale derived
// state.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/archgraph/core/internal/graph"
	"github.com/archgraph/core/internal/models"
	"github.com/archgraph/core/internal/validation"
)

// RemoteValidator is the server-authoritative validation side channel.
type RemoteValidator interface {
	Validate(ctx context.Context, req models.RemoteValidationRequest) (*models.RemoteValidationResponse, error)
}

type Session struct {
	mu       sync.Mutex
	stageID  string
	userID   string
	store    *graph.Store
	engine   *validation.Engine
	snapshot models.DesignSnapshot
	bus      *Bus
	logger   *slog.Logger
}

type config struct {
	logger  *slog.Logger
	metrics validation.MetricsProvider
	strict  bool
	bus     *Bus
	idGen   func() string
}

type Option func(*config)

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

func WithMetricsProvider(p validation.MetricsProvider) Option {
	return func(c *config) { c.metrics = p }
}

// WithStrictInvariants panics on graph invariant violations instead of
// repairing them.
func WithStrictInvariants(strict bool) Option {
	return func(c *config) { c.strict = strict }
}

func WithBus(bus *Bus) Option {
	return func(c *config) { c.bus = bus }
}

func WithIDGenerator(fn func() string) Option {
	return func(c *config) { c.idGen = fn }
}

func New(stageID, userID string, opts ...Option) *Session {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.bus == nil {
		cfg.bus = NewBus()
	}

	logger := cfg.logger.With("stage_id", stageID, "user_id", userID)
	s := &Session{
		stageID: stageID,
		userID:  userID,
		store: graph.NewStore(
			graph.WithLogger(logger),
			graph.WithStrictInvariants(cfg.strict),
			graph.WithIDGenerator(cfg.idGen),
		),
		engine: validation.NewEngine(
			validation.WithLogger(logger),
			validation.WithMetricsProvider(cfg.metrics),
		),
		bus:    cfg.bus,
		logger: logger,
	}
	s.recompute()
	return s
}

func (s *Session) StageID() string { return s.stageID }

func (s *Session) UserID() string { return s.userID }

// Bus returns the bus the session publishes on.
func (s *Session) Bus() *Bus { return s.bus }

// AddNode returns the new node id together with the snapshot taken right
// after the insert.
func (s *Session) AddNode(descriptor map[string]any, position models.Position, archetype string) (string, models.DesignSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.store.AddNode(descriptor, position, archetype)
	return id, s.commit(EventNodeAdded, false)
}

func (s *Session) UpdateNode(id string, patch models.NodePatch) models.DesignSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok := s.store.UpdateNode(id, patch)
	return s.commit(EventNodeUpdated, !ok)
}

func (s *Session) DeleteNode(id string) models.DesignSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok := s.store.DeleteNode(id)
	return s.commit(EventNodeDeleted, !ok)
}

// AddEdge returns the new edge id, or false when the connection was rejected.
func (s *Session) AddEdge(conn models.Connection) (string, models.DesignSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.store.AddEdge(conn)
	return id, s.commit(EventEdgeAdded, !ok), ok
}

func (s *Session) DeleteEdge(id string) models.DesignSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok := s.store.DeleteEdge(id)
	return s.commit(EventEdgeDeleted, !ok)
}

func (s *Session) SetRequirements(reqs []models.Requirement) models.DesignSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.SetRequirements(reqs)
	return s.commit(EventRequirementsSet, false)
}

func (s *Session) Requirements() []models.Requirement {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.engine.Requirements()
}

// Select marks a node as selected on the canvas; unknown ids are ignored.
func (s *Session) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Select(id)
}

func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Selected()
}

// Clear empties the graph. Requirements are kept.
func (s *Session) Clear() models.DesignSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Clear()
	return s.commit(EventCleared, false)
}

type LoadResult struct {
	Rejected int
	Graph    models.Graph
	Snapshot models.DesignSnapshot
}

// Load replaces the graph with g. The result reports how many edges were
// dropped and the state right after the load.
func (s *Session) Load(g models.Graph) LoadResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	rejected := s.store.Load(g)
	if rejected > 0 {
		s.logger.Info("dropped edges while loading graph", "rejected_edges", rejected)
	}
	snap := s.commit(EventGraphLoaded, false)
	return LoadResult{Rejected: rejected, Graph: s.store.Graph(), Snapshot: snap}
}

func (s *Session) Snapshot() models.DesignSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot.Clone()
}

func (s *Session) Graph() models.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Graph()
}

// RemoteValidate sends a copy of the current graph to v. The call happens
// outside the session lock and its outcome never touches local state.
func (s *Session) RemoteValidate(ctx context.Context, v RemoteValidator, priorAttemptID string) (*models.RemoteValidationResponse, error) {
	s.mu.Lock()
	req := models.RemoteValidationRequest{
		StageID:        s.stageID,
		UserID:         s.userID,
		Nodes:          s.store.Nodes(),
		Edges:          s.store.Edges(),
		PriorAttemptID: priorAttemptID,
	}
	s.mu.Unlock()

	resp, err := v.Validate(ctx, req)
	if err != nil {
		s.logger.Warn("remote validation failed", "error", err)
		return nil, err
	}
	return resp, nil
}

// commit recomputes derived state, publishes the event and returns a copy of
// the new snapshot. Rejected operations still recompute so the snapshot is
// always current.
func (s *Session) commit(t EventType, rejected bool) models.DesignSnapshot {
	s.recompute()
	s.bus.Publish(Event{
		Type:      t,
		StageID:   s.stageID,
		UserID:    s.userID,
		Rejected:  rejected,
		Snapshot:  s.snapshot.Clone(),
		Timestamp: time.Now().UTC(),
	})
	return s.snapshot.Clone()
}

func (s *Session) recompute() {
	s.store.EnsureIntegrity()

	nodes := s.store.Nodes()
	edges := s.store.Edges()
	results := s.engine.Validate(s.store)
	progress, allMet := validation.ComputeProgress(results)
	warnings, valid := validation.CheckValidity(nodes, edges)

	s.snapshot = models.DesignSnapshot{
		TotalCost:          s.store.TotalCost(),
		NodeCount:          len(nodes),
		EdgeCount:          len(edges),
		ValidationResults:  results,
		Progress:           progress,
		AllRequirementsMet: allMet,
		ValidityWarnings:   warnings,
		IsValidDesign:      valid,
	}
}
