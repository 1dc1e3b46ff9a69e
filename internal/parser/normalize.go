// Package parser provides utilities for parsing and transforming input data.
// It normalizes heterogeneous component descriptors and Terraform state into
// the canonical design graph shapes.
package parser

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/archgraph/core/internal/models"
)

// Field aliases seen from different callers. The first key present wins.
var (
	idKeys        = []string{"id", "nodeId", "componentId"}
	archetypeKeys = []string{"archetype", "type", "componentType", "nodeType", "kind"}
	categoryKeys  = []string{"category", "componentCategory", "group"}
	labelKeys     = []string{"label", "name", "title", "displayName"}
	costKeys      = []string{"cost", "monthlyCost", "costPerMonth", "cost_per_month", "price"}
	capacityKeys  = []string{"capacity", "maxCapacity", "throughput", "maxRps"}
)

// reserved keys are consumed by normalization and never copied to metadata.
var reserved = map[string]bool{"data": true, "metadata": true, "position": true}

func init() {
	for _, group := range [][]string{idKeys, archetypeKeys, categoryKeys, labelKeys, costKeys, capacityKeys} {
		for _, k := range group {
			reserved[k] = true
		}
	}
}

// NormalizeDescriptor converts a component descriptor of any supported shape
// into a Node. A nested "data" object (canvas node shape) is flattened, with
// top-level keys taking precedence. Unknown keys land in Metadata. The
// returned ID is empty when the descriptor did not carry one.
func NormalizeDescriptor(desc map[string]any, pos models.Position, archetypeOverride string) models.Node {
	fields := flatten(desc)

	node := models.Node{
		ID:        stringField(fields, idKeys),
		Archetype: stringField(fields, archetypeKeys),
		Category:  stringField(fields, categoryKeys),
		Label:     stringField(fields, labelKeys),
		Cost:      NonNegative(numberField(fields, costKeys)),
		Capacity:  NonNegative(numberField(fields, capacityKeys)),
		Position:  pos,
		Metadata:  map[string]any{},
	}

	if archetypeOverride != "" {
		node.Archetype = archetypeOverride
	}
	if node.Category == "" {
		node.Category = CategoryFor(node.Archetype)
	}
	if node.Label == "" {
		node.Label = node.Archetype
	}

	if meta, ok := fields["metadata"].(map[string]any); ok {
		for k, v := range meta {
			node.Metadata[k] = v
		}
	}
	for k, v := range fields {
		if !reserved[k] {
			node.Metadata[k] = v
		}
	}
	if len(node.Metadata) == 0 {
		node.Metadata = nil
	}

	return node
}

func flatten(desc map[string]any) map[string]any {
	fields := make(map[string]any, len(desc))
	if data, ok := desc["data"].(map[string]any); ok {
		for k, v := range data {
			fields[k] = v
		}
	}
	for k, v := range desc {
		if k == "data" {
			continue
		}
		fields[k] = v
	}
	return fields
}

func stringField(fields map[string]any, keys []string) string {
	for _, k := range keys {
		switch v := fields[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

func numberField(fields map[string]any, keys []string) float64 {
	for _, k := range keys {
		if f, ok := ToFloat(fields[k]); ok {
			return f
		}
	}
	return 0
}

// ToFloat accepts the numeric representations produced by JSON, YAML and Go
// callers. Strings are parsed leniently.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(n), "$"), 64)
		return f, err == nil
	}
	return 0, false
}

// NonNegative clamps cost and capacity values: negatives, NaN and infinities
// become zero.
func NonNegative(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
