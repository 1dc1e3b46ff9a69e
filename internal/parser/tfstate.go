package parser

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/archgraph/core/internal/models"
)

var (
	ErrEmptyState   = errors.New("empty tfstate data")
	ErrInvalidState = errors.New("invalid tfstate")
)

func ParseTfstate(data []byte) (*models.TerraformState, error) {
	if len(data) == 0 {
		return nil, ErrEmptyState
	}

	var state models.TerraformState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal: %v", ErrInvalidState, err)
	}

	if state.Version == 0 {
		return nil, fmt.Errorf("%w: missing version field", ErrInvalidState)
	}

	if state.TerraformVersion == "" {
		return nil, fmt.Errorf("%w: missing terraform_version field", ErrInvalidState)
	}

	return &state, nil
}
