package validation

import (
	"testing"

	"github.com/archgraph/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeProgress(t *testing.T) {
	results := []models.ValidationResult{
		{RequirementID: "a", Completed: true},
		{RequirementID: "b", Completed: true},
	}

	progress, allMet := ComputeProgress(results)

	assert.Equal(t, models.Progress{Completed: 2, Total: 2, Percentage: 100}, progress)
	assert.True(t, allMet)
}

func TestCheckValidity(t *testing.T) {
	t.Run("empty design warns", func(t *testing.T) {
		diags, valid := CheckValidity(nil, nil)

		require.Len(t, diags, 1)
		assert.Equal(t, CodeNoComponents, diags[0].Code)
		assert.Equal(t, models.SeverityWarning, diags[0].Severity)
		assert.True(t, valid, "warnings do not invalidate a design")
	})

	t.Run("a single node is not an orphan", func(t *testing.T) {
		diags, valid := CheckValidity([]models.Node{node("web", "compute")}, nil)

		assert.Empty(t, diags)
		assert.True(t, valid)
	})

	t.Run("unconnected nodes are reported", func(t *testing.T) {
		nodes := []models.Node{node("a", "compute"), node("b", "database"), node("c", "cache")}
		edges := []models.Edge{edge("e1", "a", "b")}

		diags, valid := CheckValidity(nodes, edges)

		require.Len(t, diags, 1)
		assert.Equal(t, CodeOrphanNodes, diags[0].Code)
		assert.Equal(t, []string{"c"}, diags[0].NodeIDs)
		assert.True(t, valid)
	})
}
