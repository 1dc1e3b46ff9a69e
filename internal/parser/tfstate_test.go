package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTfstate_Valid(t *testing.T) {
	input := []byte(`{
		"version": 4,
		"terraform_version": "1.5.0",
		"serial": 1,
		"lineage": "abc-123",
		"resources": [
			{
				"mode": "managed",
				"type": "aws_db_instance",
				"name": "main",
				"provider": "provider[\"registry.terraform.io/hashicorp/aws\"]",
				"depends_on": ["aws_vpc.main"],
				"instances": [
					{
						"schema_version": 0,
						"attributes": {"engine": "postgres", "tags": {"monthly_cost": "85"}},
						"dependencies": ["aws_subnet.private"]
					}
				]
			}
		]
	}`)

	state, err := ParseTfstate(input)

	require.NoError(t, err)
	assert.Equal(t, 4, state.Version)
	assert.Equal(t, "1.5.0", state.TerraformVersion)
	require.Len(t, state.Resources, 1)
	res := state.Resources[0]
	assert.Equal(t, "aws_db_instance", res.Type)
	assert.Equal(t, []string{"aws_vpc.main"}, res.DependsOn)
	require.Len(t, res.Instances, 1)
	assert.Equal(t, []string{"aws_subnet.private"}, res.Instances[0].Dependencies)
	assert.Equal(t, "postgres", res.Instances[0].Attributes["engine"])
}

func TestParseTfstate_Empty(t *testing.T) {
	_, err := ParseTfstate([]byte{})
	assert.ErrorIs(t, err, ErrEmptyState)
}

func TestParseTfstate_InvalidJSON(t *testing.T) {
	_, err := ParseTfstate([]byte(`{invalid json`))
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Contains(t, err.Error(), "failed to unmarshal")
}

func TestParseTfstate_MissingVersion(t *testing.T) {
	_, err := ParseTfstate([]byte(`{"terraform_version": "1.5.0", "resources": []}`))
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Contains(t, err.Error(), "missing version")
}

func TestParseTfstate_MissingTerraformVersion(t *testing.T) {
	_, err := ParseTfstate([]byte(`{"version": 4, "resources": []}`))
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Contains(t, err.Error(), "missing terraform_version")
}
