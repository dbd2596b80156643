package validate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aryan1718/SkillLens/internal/model"
)

type stubValidator struct {
	result      model.ValidatedSecurity
	err         error
	lastRequest Request
	lastProfile Profile
	calls       int
}

func (s *stubValidator) Validate(_ context.Context, req Request, profile Profile) (model.ValidatedSecurity, error) {
	s.calls++
	s.lastRequest = req
	s.lastProfile = profile
	return s.result, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOrchestratorRun_EmptyFindingsShortCircuit(t *testing.T) {
	stub := &stubValidator{}
	o := NewOrchestrator(stub, discardLogger())

	validated, err := o.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "No findings to validate.", validated.SecuritySummary)
	assert.Empty(t, validated.ValidatedFindings)
	assert.Zero(t, stub.calls, "validator must not be called for an empty finding set")
}

func TestOrchestratorRun_NilValidatorFails(t *testing.T) {
	o := NewOrchestrator(nil, discardLogger())
	_, err := o.Run(context.Background(), []model.Finding{{ID: "a"}}, nil)
	assert.Error(t, err)
}

func TestOrchestratorRun_ValidatorErrorPropagates(t *testing.T) {
	cause := errors.New("timeout")
	stub := &stubValidator{err: cause}
	o := NewOrchestrator(stub, discardLogger())

	_, err := o.Run(context.Background(), []model.Finding{{ID: "a", Severity: model.SeverityHigh}}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestOrchestratorRun_DropsUnknownFindingIDs(t *testing.T) {
	stub := &stubValidator{
		result: model.ValidatedSecurity{
			ValidatedFindings: []model.ValidatedFinding{
				{FindingID: "known", IsTruePositive: true, FinalSeverity: model.SeverityHigh},
				{FindingID: "fabricated", IsTruePositive: true, FinalSeverity: model.SeverityCritical},
			},
			SecuritySummary: "summary",
		},
	}
	o := NewOrchestrator(stub, discardLogger())

	findings := []model.Finding{{ID: "known", Severity: model.SeverityHigh}}
	validated, err := o.Run(context.Background(), findings, nil)
	require.NoError(t, err)
	require.Len(t, validated.ValidatedFindings, 1)
	assert.Equal(t, "known", validated.ValidatedFindings[0].FindingID)
	assert.Equal(t, "summary", validated.SecuritySummary)
}

func TestOrchestratorRun_SelectsProfileFromFindings(t *testing.T) {
	stub := &stubValidator{
		result: model.ValidatedSecurity{ValidatedFindings: []model.ValidatedFinding{}},
	}
	o := NewOrchestrator(stub, discardLogger())

	findings := []model.Finding{
		{ID: "a", Severity: model.SeverityCritical, Confidence: model.ConfidenceMedium},
	}
	_, err := o.Run(context.Background(), findings, nil)
	require.NoError(t, err)
	assert.Equal(t, Profile{Model: "gpt-5.1", ReasoningEffort: "low"}, stub.lastProfile)
	require.Len(t, stub.lastRequest.Findings, 1)
	assert.Equal(t, "a", stub.lastRequest.Findings[0].FindingID)
}
