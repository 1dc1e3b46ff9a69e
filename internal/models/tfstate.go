package models

// TerraformState is the subset of a Terraform state file needed to seed a
// design graph from existing infrastructure.
type TerraformState struct {
	Version          int             `json:"version"`
	TerraformVersion string          `json:"terraform_version"`
	Serial           int             `json:"serial"`
	Lineage          string          `json:"lineage"`
	Resources        []ResourceState `json:"resources"`
}

type ResourceState struct {
	Mode      string             `json:"mode"`
	Type      string             `json:"type"`
	Name      string             `json:"name"`
	Provider  string             `json:"provider"`
	Module    string             `json:"module,omitempty"`
	Instances []ResourceInstance `json:"instances"`
	DependsOn []string           `json:"depends_on,omitempty"`
}

type ResourceInstance struct {
	Attributes   map[string]any `json:"attributes"`
	Dependencies []string       `json:"dependencies,omitempty"`
	IndexKey     any            `json:"index_key,omitempty"`
}
