package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityWeights(t *testing.T) {
	assert.Equal(t, 100, SeverityWeights[SeverityCritical])
	assert.Equal(t, 25, SeverityWeights[SeverityHigh])
	assert.Equal(t, 5, SeverityWeights[SeverityMedium])
	assert.Equal(t, 1, SeverityWeights[SeverityLow])
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, SeverityCritical.IsValid())
	assert.False(t, Severity("SEVERE").IsValid())
	assert.True(t, ConfidenceMedium.IsValid())
	assert.False(t, Confidence("certain").IsValid())
	assert.True(t, CategoryPromptInjection.IsValid())
	assert.False(t, Category("misc").IsValid())
}

func TestCapabilityFlags_UnionAndContains(t *testing.T) {
	a := CapabilityFlags{Network: true, ReadsEnv: true}
	b := CapabilityFlags{ShellExec: true, ReadsEnv: true}

	union := a.Union(b)
	assert.Equal(t, CapabilityFlags{Network: true, ShellExec: true, ReadsEnv: true}, union)

	assert.True(t, union.Contains(a))
	assert.True(t, union.Contains(b))
	assert.False(t, a.Contains(b))
	assert.True(t, a.Contains(CapabilityFlags{}))
}

func TestFinding_NullableLineFields(t *testing.T) {
	// Manifest-level findings have no line position; the wire form must
	// carry explicit nulls, not zeroes.
	encoded, err := json.Marshal(Finding{ID: "SEC_DEP_UNPINNED_NPM_001_aabbccdd"})
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"line_start":null`)
	assert.Contains(t, string(encoded), `"line_end":null`)

	line := 7
	encoded, err = json.Marshal(Finding{LineStart: &line, LineEnd: &line})
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"line_start":7`)
}

func TestSecurityReport_OptionalFieldsSerializeAsNull(t *testing.T) {
	encoded, err := json.Marshal(SecurityReport{TrustBadge: "Verified Safe"})
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, "null", string(decoded["security_summary"]))
	assert.Equal(t, "null", string(decoded["llm_model"]))
	assert.Equal(t, "false", string(decoded["llm_used"]))
}
