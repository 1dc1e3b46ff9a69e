package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/archgraph/core/internal/graph"
	"github.com/archgraph/core/internal/models"
	"github.com/archgraph/core/internal/validation"
	"github.com/google/uuid"
)

// RequirementSource resolves the requirement set for a stage.
type RequirementSource interface {
	Requirements(stageID string) ([]models.Requirement, bool)
}

// Evaluator answers the remote validation contract from a requirement
// source. Each call builds a throwaway store, so requests share no state.
type Evaluator struct {
	source  RequirementSource
	metrics validation.MetricsProvider
	logger  *slog.Logger
}

func NewEvaluator(source RequirementSource, metrics validation.MetricsProvider, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{source: source, metrics: metrics, logger: logger}
}

func (e *Evaluator) Validate(ctx context.Context, req models.RemoteValidationRequest) (*models.RemoteValidationResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := contractValidate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	reqs, ok := e.source.Requirements(req.StageID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStage, req.StageID)
	}

	store := graph.NewStore(graph.WithLogger(e.logger))
	if rejected := store.Load(models.Graph{Nodes: req.Nodes, Edges: req.Edges}); rejected > 0 {
		e.logger.Debug("dropped edges from submitted graph", "stage_id", req.StageID, "rejected_edges", rejected)
	}

	engine := validation.NewEngine(validation.WithLogger(e.logger), validation.WithMetricsProvider(e.metrics))
	results := engine.Evaluate(store, reqs)
	progress, allMet := validation.ComputeProgress(results)

	resp := &models.RemoteValidationResponse{
		Success:      true,
		AttemptID:    uuid.NewString(),
		Requirements: make([]models.RemoteRequirement, len(reqs)),
		Summary: models.RemoteSummary{
			TotalRequirements:     progress.Total,
			CompletedRequirements: progress.Completed,
			AllCompleted:          allMet,
			CompletionPercentage:  progress.Percentage,
		},
	}

	for i, r := range reqs {
		res := results[i]
		details, err := json.Marshal(res.Details)
		if err != nil {
			return nil, fmt.Errorf("encoding details for requirement %s: %w", r.ID, err)
		}
		rr := models.RemoteRequirement{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Kind:        r.Kind,
			Completed:   res.Completed,
			Visible:     r.Visible,
			Priority:    r.Priority,
			Points:      r.Points,
			Message:     res.Details.Message,
			Details:     details,
		}
		if res.Completed {
			resp.Summary.PointsEarned += r.Points
		} else {
			rr.Hint = r.Hint
		}
		resp.Requirements[i] = rr
	}

	e.logger.Info("evaluated design",
		"stage_id", req.StageID,
		"user_id", req.UserID,
		"attempt_id", resp.AttemptID,
		"prior_attempt_id", req.PriorAttemptID,
		"completed", progress.Completed,
		"total", progress.Total)

	return resp, nil
}
