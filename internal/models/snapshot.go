package models

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ValidationResult is produced once per requirement, in requirement order.
type ValidationResult struct {
	RequirementID string  `json:"requirementId"`
	Completed     bool    `json:"completed"`
	Details       Details `json:"details"`
}

// Details is the structured diagnostic attached to a validation result.
// Only the fields relevant to the requirement's kind are populated.
type Details struct {
	Kind              ValidationKind    `json:"kind"`
	Message           string            `json:"message,omitempty"`
	MissingCategories []string          `json:"missingCategories,omitempty"`
	Counts            []CategoryCount   `json:"counts,omitempty"`
	NodeCount         *int              `json:"nodeCount,omitempty"`
	MinNodes          *int              `json:"minNodes,omitempty"`
	Connection        *ConnectionDetail `json:"connection,omitempty"`
	PresentForbidden  []string          `json:"presentForbidden,omitempty"`
	TotalCost         *float64          `json:"totalCost,omitempty"`
	TargetValue       *float64          `json:"targetValue,omitempty"`
	Metric            *MetricDetail     `json:"metric,omitempty"`
	UnknownKind       string            `json:"unknownKind,omitempty"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Actual   int    `json:"actual"`
	Required int    `json:"required"`
	Met      bool   `json:"met"`
}

type ConnectionDetail struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Found  bool   `json:"found"`
	EdgeID string `json:"edgeId,omitempty"`
}

type MetricDetail struct {
	Name       string  `json:"name"`
	Available  bool    `json:"available"`
	Value      float64 `json:"value,omitempty"`
	Target     float64 `json:"target,omitempty"`
	Comparator string  `json:"comparator,omitempty"`
}

type Progress struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Diagnostic is a requirement-independent design finding.
type Diagnostic struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	NodeIDs  []string `json:"nodeIds,omitempty"`
}

// DesignSnapshot is the full derived state for a graph at one point in time.
// It is recomputed after every mutation and never edited in place.
type DesignSnapshot struct {
	TotalCost          float64            `json:"totalCost"`
	NodeCount          int                `json:"nodeCount"`
	EdgeCount          int                `json:"edgeCount"`
	ValidationResults  []ValidationResult `json:"validationResults"`
	Progress           Progress           `json:"progress"`
	AllRequirementsMet bool               `json:"allRequirementsMet"`
	ValidityWarnings   []Diagnostic       `json:"validityWarnings"`
	IsValidDesign      bool               `json:"isValidDesign"`
}

// Clone returns a copy of d that shares no slices or pointers with it.
func (d Details) Clone() Details {
	out := d
	out.MissingCategories = cloneSlice(d.MissingCategories)
	out.Counts = cloneSlice(d.Counts)
	out.PresentForbidden = cloneSlice(d.PresentForbidden)
	out.NodeCount = clonePtr(d.NodeCount)
	out.MinNodes = clonePtr(d.MinNodes)
	out.Connection = clonePtr(d.Connection)
	out.TotalCost = clonePtr(d.TotalCost)
	out.TargetValue = clonePtr(d.TargetValue)
	out.Metric = clonePtr(d.Metric)
	return out
}

// Clone returns a deep copy of the snapshot. Nil result and warning slices
// come back empty so the JSON form is always an array.
func (s DesignSnapshot) Clone() DesignSnapshot {
	out := s
	out.ValidationResults = make([]ValidationResult, len(s.ValidationResults))
	for i, r := range s.ValidationResults {
		r.Details = r.Details.Clone()
		out.ValidationResults[i] = r
	}
	out.ValidityWarnings = make([]Diagnostic, len(s.ValidityWarnings))
	for i, w := range s.ValidityWarnings {
		w.NodeIDs = cloneSlice(w.NodeIDs)
		out.ValidityWarnings[i] = w
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
