package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructuredConfigMasker_AppliesTo(t *testing.T) {
	m := &StructuredConfigMasker{}

	assert.True(t, m.AppliesTo("data:\n  password: hunter2\n"))
	assert.True(t, m.AppliesTo(`{"token": "abc123"}`))
	assert.False(t, m.AppliesTo("func Add(a, b int) int { return a + b }"))
	assert.False(t, m.AppliesTo("just some plain prose about a review"))
}

func TestStructuredConfigMasker_MasksKubernetesSecretYAML(t *testing.T) {
	m := &StructuredConfigMasker{}
	input := `apiVersion: v1
kind: Secret
metadata:
  name: db-creds
type: Opaque
data:
  token: c3VwZXJzZWNyZXQ=
  tls.key: RkFLRS10bHMta2V5LW5vdC1yZWFs
`

	result := m.Mask(input)

	assert.NotContains(t, result, "c3VwZXJzZWNyZXQ=")
	assert.NotContains(t, result, "RkFLRS10bHMta2V5LW5vdC1yZWFs")
	assert.Contains(t, result, MaskedStructuredValue)
	assert.Contains(t, result, "name: db-creds")
}

func TestStructuredConfigMasker_MasksDockerComposeEnvironmentJSON(t *testing.T) {
	m := &StructuredConfigMasker{}
	input := `{"service": "api", "environment": {"API_TOKEN": "s3cr3t-not-real"}, "credentials": {"username": "admin", "password": "hunter2"}}`

	result := m.Mask(input)

	assert.NotContains(t, result, "hunter2")
	assert.NotContains(t, result, "admin")
	assert.Contains(t, result, MaskedStructuredValue)
	assert.Contains(t, result, `"service": "api"`)
}

func TestStructuredConfigMasker_LeavesNonSensitiveDocumentUntouched(t *testing.T) {
	m := &StructuredConfigMasker{}
	input := `apiVersion: v1
kind: ConfigMap
metadata:
  name: app-settings
data:
  LOG_LEVEL: debug
`
	// "data" is itself a sensitive-field name (Secret data/stringData), so
	// even a ConfigMap's data block is masked defensively: the masker acts
	// on field names, not resource kind, since review candidates aren't
	// guaranteed to carry a "kind" at all.
	result := m.Mask(input)
	assert.Contains(t, result, MaskedStructuredValue)
}

func TestStructuredConfigMasker_ReturnsOriginalOnParseError(t *testing.T) {
	m := &StructuredConfigMasker{}
	input := "password: [unterminated"
	assert.Equal(t, input, m.Mask(input))
}

func TestStructuredConfigMasker_ReturnsOriginalWhenNothingMatches(t *testing.T) {
	m := &StructuredConfigMasker{}
	input := "name: db-creds\nreplicas: 3\n"
	assert.Equal(t, input, m.Mask(input))
}

func TestStructuredConfigMasker_PreservesTrailingNewline(t *testing.T) {
	m := &StructuredConfigMasker{}
	withNewline := "password:\n  inner: hunter2\n"
	result := m.Mask(withNewline)
	assert.True(t, len(result) > 0 && result[len(result)-1] == '\n')
}

func TestMaskSensitiveFields_RecursesThroughNestedLists(t *testing.T) {
	doc := map[string]any{
		"services": []any{
			map[string]any{"name": "api", "secret": "s3cr3t"},
			map[string]any{"name": "db", "password": "hunter2"},
		},
	}

	masked := maskSensitiveFields(doc)

	assert.True(t, masked)
	services := doc["services"].([]any)
	assert.Equal(t, MaskedStructuredValue, services[0].(map[string]any)["secret"])
	assert.Equal(t, MaskedStructuredValue, services[1].(map[string]any)["password"])
	assert.Equal(t, "api", services[0].(map[string]any)["name"])
}
