// Package validate implements selective escalation of deterministic
// findings to an external judgment service: the pure escalation policy,
// the bounded validation request, strict response enforcement, and the
// transport to the judgment provider.
package validate

import "github.com/Aryan1718/SkillLens/internal/model"

// Escalation thresholds. Validation is requested only when automated
// judgment alone is insufficient.
const (
	escalateHighCount = 2
	escalateRiskScore = 20
)

// ShouldEscalate reports whether findings require a second opinion from the
// external validator. It is a pure function of its two inputs: at least one
// CRITICAL finding, at least two HIGH findings, or a risk score of 20+.
func ShouldEscalate(findings []model.Finding, riskScore int) bool {
	criticalCount := 0
	highCount := 0
	for _, finding := range findings {
		switch finding.Severity {
		case model.SeverityCritical:
			criticalCount++
		case model.SeverityHigh:
			highCount++
		}
	}
	return criticalCount > 0 || highCount >= escalateHighCount || riskScore >= escalateRiskScore
}

// Profile selects which judgment model handles a validation request.
type Profile struct {
	Model string
	// ReasoningEffort is empty when the profile uses no special effort
	// setting.
	ReasoningEffort string
}

// SelectValidatorProfile picks the judgment profile for a finding set.
// Uncertain CRITICAL findings (low or medium confidence) get the
// higher-capability model with reduced reasoning effort; everything else
// uses the cheaper default model.
func SelectValidatorProfile(findings []model.Finding) Profile {
	for _, finding := range findings {
		if finding.Severity == model.SeverityCritical &&
			(finding.Confidence == model.ConfidenceLow || finding.Confidence == model.ConfidenceMedium) {
			return Profile{Model: "gpt-5.1", ReasoningEffort: "low"}
		}
	}
	return Profile{Model: "o4-mini"}
}
