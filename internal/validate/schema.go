package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// responseSchema is the strict contract the validator's JSON payload must
// satisfy. No additional top-level or per-item properties are permitted.
const responseSchema = `{
  "type": "object",
  "properties": {
    "validated_findings": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "finding_id": {"type": "string"},
          "is_true_positive": {"type": "boolean"},
          "final_severity": {
            "type": "string",
            "enum": ["LOW", "MEDIUM", "HIGH", "CRITICAL"]
          },
          "reason": {"type": "string"},
          "mitigation": {"type": "array", "items": {"type": "string"}}
        },
        "required": [
          "finding_id",
          "is_true_positive",
          "final_severity",
          "reason",
          "mitigation"
        ],
        "additionalProperties": false
      }
    },
    "security_summary": {"type": "string"}
  },
  "required": ["validated_findings", "security_summary"],
  "additionalProperties": false
}`

var compiledResponseSchema = mustCompileResponseSchema()

func mustCompileResponseSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("validated_security.json", strings.NewReader(responseSchema)); err != nil {
		panic(fmt.Sprintf("validate: add response schema resource: %v", err))
	}
	schema, err := compiler.Compile("validated_security.json")
	if err != nil {
		panic(fmt.Sprintf("validate: compile response schema: %v", err))
	}
	return schema
}

// ValidateResponsePayload checks raw validator JSON against the strict
// response schema.
func ValidateResponsePayload(raw []byte) error {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("parse validator payload: %w", err)
	}
	if err := compiledResponseSchema.Validate(payload); err != nil {
		return fmt.Errorf("validator payload violates response schema: %w", err)
	}
	return nil
}
