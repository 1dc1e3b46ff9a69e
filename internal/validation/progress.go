package validation

import (
	"fmt"

	"github.com/archgraph/core/internal/models"
)

// ComputeProgress derives counts and the overall flag from results. It is
// always recomputed from the full result list.
func ComputeProgress(results []models.ValidationResult) (models.Progress, bool) {
	p := models.Progress{Total: len(results)}
	for _, r := range results {
		if r.Completed {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percentage = float64(p.Completed) / float64(p.Total) * 100
	}
	return p, p.Total > 0 && p.Completed == p.Total
}

const (
	CodeNoComponents = "no_components"
	CodeOrphanNodes  = "orphan_nodes"
)

// CheckValidity reports requirement-independent design smells. All current
// checks are warnings, so the design is valid unless an error-severity check
// is added.
func CheckValidity(nodes []models.Node, edges []models.Edge) ([]models.Diagnostic, bool) {
	diags := []models.Diagnostic{}

	if len(nodes) == 0 {
		diags = append(diags, models.Diagnostic{
			Code:     CodeNoComponents,
			Severity: models.SeverityWarning,
			Message:  "the design has no components",
		})
	}

	if len(nodes) > 1 {
		degree := make(map[string]int, len(nodes))
		for _, e := range edges {
			degree[e.Source]++
			degree[e.Target]++
		}

		orphans := []string{}
		for _, n := range nodes {
			if degree[n.ID] == 0 {
				orphans = append(orphans, n.ID)
			}
		}
		if len(orphans) > 0 {
			diags = append(diags, models.Diagnostic{
				Code:     CodeOrphanNodes,
				Severity: models.SeverityWarning,
				Message:  fmt.Sprintf("%d component(s) are not connected", len(orphans)),
				NodeIDs:  orphans,
			})
		}
	}

	valid := true
	for _, d := range diags {
		if d.Severity == models.SeverityError {
			valid = false
		}
	}
	return diags, valid
}
