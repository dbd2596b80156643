package validate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Aryan1718/SkillLens/internal/model"
)

// Validator is the external judgment capability boundary. Implementations
// validate only the findings in the request; any failure (transport, parse,
// schema) is returned as an error, never a degraded result.
type Validator interface {
	Validate(ctx context.Context, req Request, profile Profile) (model.ValidatedSecurity, error)
}

// Orchestrator builds bounded validation requests and merges responses
// without letting the validator fabricate findings.
type Orchestrator struct {
	validator Validator
	logger    *slog.Logger
}

// NewOrchestrator creates an orchestrator around an injected validator.
// The validator may be nil when no judgment provider is configured, in
// which case any escalated run fails.
func NewOrchestrator(validator Validator, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{validator: validator, logger: logger}
}

// Run validates the given findings against their source files. Any
// finding_id in the response that was not part of the request set is
// dropped: the validator annotates findings, it never introduces them.
func (o *Orchestrator) Run(ctx context.Context, findings []model.Finding, files []model.ScannedFile) (model.ValidatedSecurity, error) {
	if len(findings) == 0 {
		return model.ValidatedSecurity{
			ValidatedFindings: []model.ValidatedFinding{},
			SecuritySummary:   "No findings to validate.",
		}, nil
	}
	if o.validator == nil {
		return model.ValidatedSecurity{}, fmt.Errorf("no validator configured")
	}

	request := BuildRequest(findings, files)
	profile := SelectValidatorProfile(findings)
	o.logger.Info("Submitting findings for validation",
		"findings", len(request.Findings),
		"context_snippets", len(request.ContextSnippets),
		"model", profile.Model,
		"reasoning_effort", profile.ReasoningEffort)

	validated, err := o.validator.Validate(ctx, request, profile)
	if err != nil {
		return model.ValidatedSecurity{}, fmt.Errorf("validator call failed: %w", err)
	}

	known := make(map[string]bool, len(findings))
	for _, finding := range findings {
		known[finding.ID] = true
	}
	kept := make([]model.ValidatedFinding, 0, len(validated.ValidatedFindings))
	for _, item := range validated.ValidatedFindings {
		if !known[item.FindingID] {
			o.logger.Warn("Dropping validated finding with unknown id", "finding_id", item.FindingID)
			continue
		}
		kept = append(kept, item)
	}
	validated.ValidatedFindings = kept
	return validated, nil
}
