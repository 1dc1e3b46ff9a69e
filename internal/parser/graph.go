package parser

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/archgraph/core/internal/models"
)

// BuildGraph turns the managed resources of a Terraform state into design
// nodes. Data sources are skipped since they are not placed components.
// Dependencies become edges; edges whose target is not part of the state are
// dropped so the result satisfies the store's endpoint invariant.
func BuildGraph(state *models.TerraformState) *models.Graph {
	graph := &models.Graph{
		Nodes: []models.Node{},
		Edges: []models.Edge{},
	}
	nodeMap := make(map[string]bool)
	pending := []models.Edge{}

	for _, res := range state.Resources {
		if res.Mode == "data" {
			continue
		}

		for i, instance := range res.Instances {
			nodeID := buildNodeID(res, instance, i)

			if nodeMap[nodeID] {
				continue
			}

			graph.Nodes = append(graph.Nodes, models.Node{
				ID:        nodeID,
				Archetype: res.Type,
				Category:  CategoryFor(res.Type),
				Label:     buildLabel(res, instance),
				Cost:      instanceCost(instance),
				Position:  gridPosition(len(graph.Nodes)),
				Metadata:  buildMetadata(res, instance),
			})
			nodeMap[nodeID] = true

			for _, target := range collectDependencies(res.DependsOn, instance.Dependencies) {
				pending = append(pending, models.Edge{
					ID:     nodeID + "->" + target,
					Source: nodeID,
					Target: target,
				})
			}
		}
	}

	for _, edge := range pending {
		if nodeMap[edge.Target] && edge.Source != edge.Target {
			graph.Edges = append(graph.Edges, edge)
		}
	}

	return graph
}

func buildNodeID(res models.ResourceState, instance models.ResourceInstance, instanceIndex int) string {
	parts := []string{}

	if res.Module != "" {
		parts = append(parts, res.Module)
	}

	parts = append(parts, res.Type, res.Name)

	if len(res.Instances) > 1 {
		key := instance.IndexKey
		if key != nil {
			val := reflect.ValueOf(key)
			if val.Kind() == reflect.Ptr && !val.IsNil() {
				val = val.Elem()
			}
			parts = append(parts, fmt.Sprintf("[%v]", val.Interface()))
		} else {
			parts = append(parts, fmt.Sprintf("[%d]", instanceIndex))
		}
	}

	return strings.Join(parts, ".")
}

func buildLabel(res models.ResourceState, instance models.ResourceInstance) string {
	if name, ok := instance.Attributes["name"].(string); ok && name != "" {
		return name
	}
	return res.Name
}

// instanceCost reads a monthly cost estimate from a "monthly_cost" tag, the
// convention used by cost-annotated stacks. Untagged resources cost nothing.
func instanceCost(instance models.ResourceInstance) float64 {
	tags, ok := instance.Attributes["tags"].(map[string]any)
	if !ok {
		return 0
	}
	f, _ := ToFloat(tags["monthly_cost"])
	return NonNegative(f)
}

func gridPosition(index int) models.Position {
	const columns, spacing = 4, 200.0
	return models.Position{
		X: float64(index%columns) * spacing,
		Y: float64(index/columns) * spacing,
	}
}

func extractProviderName(providerString string) string {
	providerString = strings.TrimPrefix(providerString, "provider[\"")
	providerString = strings.TrimSuffix(providerString, "\"]")

	parts := strings.Split(providerString, "/")
	return parts[len(parts)-1]
}

func buildMetadata(res models.ResourceState, instance models.ResourceInstance) map[string]any {
	metadata := map[string]any{
		"provider": extractProviderName(res.Provider),
		"source":   "terraform",
	}

	if res.Module != "" {
		metadata["module"] = res.Module
	}

	for _, key := range []string{"id", "arn", "instance_type", "engine"} {
		if v, ok := instance.Attributes[key]; ok {
			metadata[key] = v
		}
	}

	if tags, ok := instance.Attributes["tags"].(map[string]any); ok {
		metadata["tags"] = tags
	}

	if instance.IndexKey != nil {
		metadata["index_key"] = instance.IndexKey
	}

	return metadata
}

// collectDependencies merges explicit and implicit dependencies, keeping
// first-seen order and dropping repeats.
func collectDependencies(explicit, implicit []string) []string {
	seen := make(map[string]bool)
	deps := []string{}

	for _, list := range [][]string{explicit, implicit} {
		for _, dep := range list {
			if !seen[dep] {
				seen[dep] = true
				deps = append(deps, dep)
			}
		}
	}

	return deps
}
