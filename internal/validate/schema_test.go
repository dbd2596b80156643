package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateResponsePayload(t *testing.T) {
	valid := `{
		"validated_findings": [
			{
				"finding_id": "SEC_PY_EVAL_001_aabbccdd",
				"is_true_positive": true,
				"final_severity": "CRITICAL",
				"reason": "Dynamic execution of attacker-controlled input.",
				"mitigation": ["Remove eval", "Use ast.literal_eval"]
			}
		],
		"security_summary": "One confirmed critical finding."
	}`
	require.NoError(t, ValidateResponsePayload([]byte(valid)))

	tests := []struct {
		name    string
		payload string
	}{
		{
			name:    "not json",
			payload: `{"validated_findings": [`,
		},
		{
			name:    "missing security_summary",
			payload: `{"validated_findings": []}`,
		},
		{
			name: "missing mitigation",
			payload: `{"validated_findings": [{"finding_id": "x", "is_true_positive": true,
				"final_severity": "HIGH", "reason": "r"}], "security_summary": "s"}`,
		},
		{
			name: "unknown final_severity",
			payload: `{"validated_findings": [{"finding_id": "x", "is_true_positive": true,
				"final_severity": "SEVERE", "reason": "r", "mitigation": []}], "security_summary": "s"}`,
		},
		{
			name: "extra top-level property",
			payload: `{"validated_findings": [], "security_summary": "s", "extra": true}`,
		},
		{
			name: "extra per-item property",
			payload: `{"validated_findings": [{"finding_id": "x", "is_true_positive": false,
				"final_severity": "LOW", "reason": "r", "mitigation": [], "note": "n"}], "security_summary": "s"}`,
		},
		{
			name:    "wrong type for is_true_positive",
			payload: `{"validated_findings": [{"finding_id": "x", "is_true_positive": "yes", "final_severity": "LOW", "reason": "r", "mitigation": []}], "security_summary": "s"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateResponsePayload([]byte(tt.payload)))
		})
	}
}

func TestValidateResponsePayload_EmptyFindingsListIsValid(t *testing.T) {
	assert.NoError(t, ValidateResponsePayload([]byte(`{"validated_findings": [], "security_summary": "Nothing confirmed."}`)))
}
