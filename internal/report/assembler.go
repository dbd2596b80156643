// Package report builds the final SecurityReport from scan output and the
// optional validated second opinion.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Aryan1718/SkillLens/internal/model"
)

const (
	maxTopConcerns        = 3
	maxRecommendedActions = 4
	// Validated findings considered when aggregating mitigations.
	mitigationSourceCount = 4
)

// genericRecommendations is the fallback when validation produced no
// mitigations.
var genericRecommendations = []string{
	"Inspect shell and subprocess calls for user-controlled inputs.",
	"Review network requests and sensitive file operations before use.",
	"Avoid installing skills that require broad system access unless necessary.",
}

// Input carries everything the assembler needs for one artifact.
type Input struct {
	Scan model.ScanResult
	// Validated is nil when escalation did not run.
	Validated  *model.ValidatedSecurity
	LLMModel   string
	AnalyzedAt time.Time
}

// Assemble builds the final structured report consumed by persistence and
// the API layer.
func Assemble(in Input) model.SecurityReport {
	findings := in.Scan.Findings
	highOrCritical := make([]model.Finding, 0, len(findings))
	for _, finding := range findings {
		if finding.Severity == model.SeverityHigh || finding.Severity == model.SeverityCritical {
			highOrCritical = append(highOrCritical, finding)
		}
	}

	var validatedFindings []model.ValidatedFinding
	var securitySummary *string
	llmUsed := false
	var llmModel *string
	if in.Validated != nil {
		llmUsed = true
		validatedFindings = in.Validated.ValidatedFindings
		if in.Validated.SecuritySummary != "" {
			summary := in.Validated.SecuritySummary
			securitySummary = &summary
		}
		if in.LLMModel != "" {
			modelName := in.LLMModel
			llmModel = &modelName
		}
	}
	if validatedFindings == nil {
		validatedFindings = []model.ValidatedFinding{}
	}

	checks := safetyChecks(in.Scan.Capabilities)
	statements := make([]string, 0, len(checks))
	for _, check := range checks {
		if check.Safe {
			statements = append(statements, check.SafeMessage)
		} else {
			statements = append(statements, check.RiskMessage)
		}
	}

	return model.SecurityReport{
		Findings:          findings,
		ValidatedFindings: validatedFindings,
		SecuritySummary:   securitySummary,
		UserExplanation: model.UserExplanation{
			Headline:           in.Scan.TrustBadge,
			Summary:            summaryText(securitySummary, findings, highOrCritical),
			TopConcerns:        topConcerns(findings, highOrCritical),
			RecommendedActions: recommendedActions(validatedFindings),
			SafetyChecks:       checks,
			SafetyStatements:   statements,
		},
		RiskScore:    in.Scan.RiskScore,
		TrustBadge:   in.Scan.TrustBadge,
		Capabilities: in.Scan.Capabilities,
		LLMUsed:      llmUsed,
		LLMModel:     llmModel,
		AnalyzedAt:   in.AnalyzedAt.UTC().Truncate(time.Second).Format(time.RFC3339),
	}
}

// summaryText prefers the validator's summary; otherwise a fixed heuristic
// string keyed off the finding severities.
func summaryText(validatorSummary *string, findings, highOrCritical []model.Finding) string {
	if validatorSummary != nil {
		return *validatorSummary
	}
	if len(findings) == 0 {
		return "No risky execution or exfiltration patterns were detected in scanned text artifacts."
	}
	if len(highOrCritical) == 0 {
		return "Only low-to-medium risk patterns were detected. Review findings, but no immediate high-risk behavior " +
			"was found in this scan."
	}
	return fmt.Sprintf("%d high-risk pattern(s) detected. Review command execution, file deletion, "+
		"or network-related findings before installing.", len(highOrCritical))
}

// topConcerns returns up to three titles from HIGH/CRITICAL findings,
// falling back to the first findings of any severity.
func topConcerns(findings, highOrCritical []model.Finding) []string {
	source := highOrCritical
	if len(source) == 0 {
		source = findings
	}
	concerns := []string{}
	for _, finding := range source {
		concerns = append(concerns, finding.Title)
		if len(concerns) >= maxTopConcerns {
			break
		}
	}
	return concerns
}

// recommendedActions aggregates mitigations from the first validated
// findings, falling back to generic recommendations.
func recommendedActions(validated []model.ValidatedFinding) []string {
	actions := []string{}
	source := validated
	if len(source) > mitigationSourceCount {
		source = source[:mitigationSourceCount]
	}
	for _, item := range source {
		for _, bullet := range item.Mitigation {
			trimmed := strings.TrimSpace(bullet)
			if trimmed != "" {
				actions = append(actions, trimmed)
			}
		}
	}
	if len(actions) == 0 {
		actions = append(actions, genericRecommendations...)
	}
	if len(actions) > maxRecommendedActions {
		actions = actions[:maxRecommendedActions]
	}
	return actions
}

// safetyChecks emits one safe/risk message pair per capability key, in a
// fixed order the UI depends on.
func safetyChecks(capabilities model.CapabilityFlags) []model.SafetyCheck {
	return []model.SafetyCheck{
		{
			Key:         "shell_exec",
			Safe:        !capabilities.ShellExec,
			SafeMessage: "No shell execution behavior detected.",
			RiskMessage: "Shell execution behavior detected; review commands and input handling.",
		},
		{
			Key:         "db_access",
			Safe:        !capabilities.DBAccess,
			SafeMessage: "No database access patterns detected.",
			RiskMessage: "Database access patterns detected; verify query safety and permissions.",
		},
		{
			Key:         "file_delete",
			Safe:        !capabilities.FileDelete,
			SafeMessage: "No destructive file deletion behavior detected.",
			RiskMessage: "Potential file deletion behavior detected; review scope and safeguards.",
		},
		{
			Key:         "network",
			Safe:        !capabilities.Network,
			SafeMessage: "No outbound network behavior detected.",
			RiskMessage: "Outbound network behavior detected; verify destination allowlist.",
		},
		{
			Key:         "reads_env",
			Safe:        !capabilities.ReadsEnv,
			SafeMessage: "No environment variable reads detected.",
			RiskMessage: "Environment variable reads detected; ensure secrets are not exposed.",
		},
	}
}
