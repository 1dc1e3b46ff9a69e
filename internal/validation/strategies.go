package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/archgraph/core/internal/models"
)

// costTolerance absorbs float summation noise when comparing against a budget.
const costTolerance = 1e-9

type Outcome struct {
	Completed bool
	Details   models.Details
}

// Strategy evaluates one requirement kind. Strategies must be pure.
type Strategy func(v *View, p models.Params) Outcome

// Strategies returns a fresh copy of the kind -> strategy table.
func Strategies() map[models.ValidationKind]Strategy {
	return map[models.ValidationKind]Strategy{
		models.KindNodeCategories:     nodeCategories,
		models.KindNodeCount:          nodeCount,
		models.KindEdgeConnection:     edgeConnection,
		models.KindNodeAndConnection:  nodeAndConnection,
		models.KindNodeRemoval:        nodeRemoval,
		models.KindComponentRequired:  componentRequired,
		models.KindConnectionRequired: connectionRequired,
		models.KindCostConstraint:     costConstraint,
		models.KindMetric:             metric,
	}
}

func nodeCategories(v *View, p models.Params) Outcome {
	missing := missingCategories(v, p.RequiredCategories)
	total := len(v.Nodes)

	d := models.Details{
		MissingCategories: missing,
		NodeCount:         &total,
		MinNodes:          p.MinNodes,
	}

	enough := p.MinNodes == nil || total >= *p.MinNodes
	switch {
	case len(missing) > 0:
		d.Message = "missing categories: " + strings.Join(missing, ", ")
	case !enough:
		d.Message = fmt.Sprintf("need at least %d nodes, have %d", *p.MinNodes, total)
	default:
		d.Message = "all required categories present"
	}

	return Outcome{Completed: len(missing) == 0 && enough, Details: d}
}

func nodeCount(v *View, p models.Params) Outcome {
	counts := categoryCounts(v, minimumsFromMap(p.MinCountByCategory))
	done := allMet(counts)
	return Outcome{
		Completed: done,
		Details: models.Details{
			Counts:  counts,
			Message: countsMessage(counts, done),
		},
	}
}

func edgeConnection(v *View, p models.Params) Outcome {
	return connectionOutcome(v, p.FromCategory, p.ToCategory)
}

func nodeAndConnection(v *View, p models.Params) Outcome {
	required := p.RequiredCategories
	if len(required) == 0 {
		required = nonEmpty(p.FromCategory, p.ToCategory)
	}

	if missing := missingCategories(v, required); len(missing) > 0 {
		return Outcome{
			Completed: false,
			Details: models.Details{
				MissingCategories: missing,
				Message:           "missing categories: " + strings.Join(missing, ", "),
			},
		}
	}

	return connectionOutcome(v, p.FromCategory, p.ToCategory)
}

// nodeRemoval is satisfied when none of the forbidden node ids are present.
func nodeRemoval(v *View, p models.Params) Outcome {
	present := []string{}
	for _, id := range p.ForbiddenNodeIDs {
		if v.hasNode(id) {
			present = append(present, id)
		}
	}

	d := models.Details{PresentForbidden: present}
	if len(present) > 0 {
		d.Message = "remove: " + strings.Join(present, ", ")
	} else {
		d.Message = "no forbidden nodes present"
	}
	return Outcome{Completed: len(present) == 0, Details: d}
}

func componentRequired(v *View, p models.Params) Outcome {
	mins := make([]models.ComponentMin, 0, len(p.Components)+len(p.RequiredCategories))
	for _, c := range p.Components {
		mins = append(mins, models.ComponentMin{Category: c.Category, MinCount: max(c.MinCount, 1)})
	}
	for _, c := range p.RequiredCategories {
		mins = append(mins, models.ComponentMin{Category: c, MinCount: 1})
	}

	counts := categoryCounts(v, mins)
	done := allMet(counts)
	return Outcome{
		Completed: done,
		Details: models.Details{
			Counts:  counts,
			Message: countsMessage(counts, done),
		},
	}
}

func connectionRequired(v *View, p models.Params) Outcome {
	counts := categoryCounts(v, []models.ComponentMin{
		{Category: p.FromCategory, MinCount: max(p.MinFromCount, 1)},
		{Category: p.ToCategory, MinCount: max(p.MinToCount, 1)},
	})

	if !allMet(counts) {
		return Outcome{
			Completed: false,
			Details: models.Details{
				Counts:  counts,
				Message: countsMessage(counts, false),
			},
		}
	}

	out := connectionOutcome(v, p.FromCategory, p.ToCategory)
	out.Details.Counts = counts
	return out
}

func costConstraint(v *View, p models.Params) Outcome {
	total := v.TotalCost
	d := models.Details{TotalCost: &total, TargetValue: p.TargetValue}

	if p.TargetValue == nil {
		d.Message = "no cost target set"
		return Outcome{Completed: false, Details: d}
	}

	done := total <= *p.TargetValue+costTolerance
	if done {
		d.Message = fmt.Sprintf("monthly cost %.2f within budget %.2f", total, *p.TargetValue)
	} else {
		d.Message = fmt.Sprintf("monthly cost %.2f exceeds budget %.2f", total, *p.TargetValue)
	}
	return Outcome{Completed: done, Details: d}
}

// metric checks a live simulated figure. Without a provider there is nothing
// to compare against, so the requirement is reported as met.
func metric(v *View, p models.Params) Outcome {
	md := &models.MetricDetail{Name: p.Metric, Comparator: comparatorOrDefault(p.Comparator)}
	if p.TargetValue != nil {
		md.Target = *p.TargetValue
	}

	if v.metrics == nil {
		return Outcome{
			Completed: true,
			Details:   models.Details{Metric: md, Message: "no metrics feed attached"},
		}
	}

	value, ok := v.metrics.Metric(p.Metric)
	if !ok {
		return Outcome{
			Completed: false,
			Details:   models.Details{Metric: md, Message: "metric not available: " + p.Metric},
		}
	}
	md.Available = true
	md.Value = value

	done := true
	if p.TargetValue != nil {
		done = compare(value, md.Comparator, *p.TargetValue)
	}
	return Outcome{
		Completed: done,
		Details: models.Details{
			Metric:  md,
			Message: fmt.Sprintf("%s = %g (%s %g)", p.Metric, value, md.Comparator, md.Target),
		},
	}
}

func comparatorOrDefault(c string) string {
	switch c {
	case "lt", "lte", "gt", "gte", "eq":
		return c
	}
	return "lte"
}

func compare(value float64, comparator string, target float64) bool {
	switch comparator {
	case "lt":
		return value < target
	case "gt":
		return value > target
	case "gte":
		return value >= target
	case "eq":
		return value == target
	default:
		return value <= target
	}
}

func connectionOutcome(v *View, from, to string) Outcome {
	cd := &models.ConnectionDetail{From: from, To: to}
	if from == "" || to == "" {
		return Outcome{
			Completed: false,
			Details:   models.Details{Connection: cd, Message: "connection endpoints not specified"},
		}
	}

	edge, found := v.connection(from, to)
	cd.Found = found
	cd.EdgeID = edge.ID

	msg := fmt.Sprintf("%s is connected to %s", from, to)
	if !found {
		msg = fmt.Sprintf("connect %s to %s", from, to)
	}
	return Outcome{Completed: found, Details: models.Details{Connection: cd, Message: msg}}
}

func missingCategories(v *View, required []string) []string {
	missing := []string{}
	for _, c := range required {
		if v.count(c) == 0 {
			missing = append(missing, c)
		}
	}
	return missing
}

func minimumsFromMap(m map[string]int) []models.ComponentMin {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mins := make([]models.ComponentMin, len(keys))
	for i, k := range keys {
		mins[i] = models.ComponentMin{Category: k, MinCount: m[k]}
	}
	return mins
}

func categoryCounts(v *View, mins []models.ComponentMin) []models.CategoryCount {
	counts := make([]models.CategoryCount, len(mins))
	for i, m := range mins {
		actual := v.count(m.Category)
		counts[i] = models.CategoryCount{
			Category: m.Category,
			Actual:   actual,
			Required: m.MinCount,
			Met:      actual >= m.MinCount,
		}
	}
	return counts
}

func allMet(counts []models.CategoryCount) bool {
	for _, c := range counts {
		if !c.Met {
			return false
		}
	}
	return true
}

func countsMessage(counts []models.CategoryCount, done bool) string {
	if done {
		return "all component minimums met"
	}
	short := []string{}
	for _, c := range counts {
		if !c.Met {
			short = append(short, fmt.Sprintf("%s %d/%d", c.Category, c.Actual, c.Required))
		}
	}
	return "below minimum: " + strings.Join(short, ", ")
}

func nonEmpty(values ...string) []string {
	out := []string{}
	for _, s := range values {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
