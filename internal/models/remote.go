package models

import "encoding/json"

// RemoteValidationRequest is the body sent to a server-side validator.
type RemoteValidationRequest struct {
	StageID        string `json:"stageId" validate:"required"`
	UserID         string `json:"userId" validate:"required"`
	Nodes          []Node `json:"nodes"`
	Edges          []Edge `json:"edges"`
	PriorAttemptID string `json:"priorAttemptId,omitempty"`
}

type RemoteValidationResponse struct {
	Success      bool                `json:"success"`
	AttemptID    string              `json:"attemptId,omitempty"`
	Summary      RemoteSummary       `json:"summary"`
	Requirements []RemoteRequirement `json:"requirements" validate:"dive"`
}

type RemoteSummary struct {
	TotalRequirements     int     `json:"totalRequirements" validate:"gte=0"`
	CompletedRequirements int     `json:"completedRequirements" validate:"gte=0,ltefield=TotalRequirements"`
	PointsEarned          int     `json:"pointsEarned" validate:"gte=0"`
	AllCompleted          bool    `json:"allCompleted"`
	CompletionPercentage  float64 `json:"completionPercentage" validate:"gte=0,lte=100"`
}

// RemoteRequirement is one requirement as judged by the remote validator.
// Details is kept raw: its shape belongs to the server and may carry more
// than the local Details type knows about.
type RemoteRequirement struct {
	ID          string          `json:"id" validate:"required"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Kind        ValidationKind  `json:"kind"`
	Completed   bool            `json:"completed"`
	Visible     bool            `json:"visible"`
	Priority    Priority        `json:"priority"`
	Points      int             `json:"points"`
	Message     string          `json:"message"`
	Hint        string          `json:"hint,omitempty"`
	Details     json.RawMessage `json:"details,omitempty"`
}
