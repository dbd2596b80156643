package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aryan1718/SkillLens/internal/cache"
	"github.com/Aryan1718/SkillLens/internal/model"
	"github.com/Aryan1718/SkillLens/internal/store"
	"github.com/Aryan1718/SkillLens/internal/validate"
)

type fakeStore struct {
	job       *store.Job
	artifacts map[string]*store.Artifact
	files     map[string][]store.ArtifactFile
	skillText map[string]string

	finishedStatus   string
	finishedError    *string
	analysisStatuses []string
	analysisError    *string
	savedReport      *model.SecurityReport
	savedBadge       string
	savedScore       float64
}

func (f *fakeStore) ClaimNextJob(_ context.Context, kind string) (*store.Job, error) {
	if f.job == nil || f.job.Kind != kind {
		return nil, nil
	}
	job := f.job
	f.job = nil
	return job, nil
}

func (f *fakeStore) FinishJob(_ context.Context, _ string, status string, errMsg *string) error {
	f.finishedStatus = status
	f.finishedError = errMsg
	return nil
}

func (f *fakeStore) EnqueueAnalyzeJob(_ context.Context, _ string) (*store.Job, error) {
	return nil, errors.New("not used")
}

func (f *fakeStore) JobStats(_ context.Context) (map[string]int, error) {
	return map[string]int{}, nil
}

func (f *fakeStore) GetArtifact(_ context.Context, artifactID string) (*store.Artifact, error) {
	return f.artifacts[artifactID], nil
}

func (f *fakeStore) GetArtifactFiles(_ context.Context, artifactID string) ([]store.ArtifactFile, error) {
	return f.files[artifactID], nil
}

func (f *fakeStore) GetSkillText(_ context.Context, skillID string) (string, error) {
	return f.skillText[skillID], nil
}

func (f *fakeStore) EnsureAnalysis(_ context.Context, _ string) (string, error) {
	return "analysis-1", nil
}

func (f *fakeStore) SaveAnalysisReport(_ context.Context, _ string, report model.SecurityReport, trustBadge string, overallScore float64) error {
	f.savedReport = &report
	f.savedBadge = trustBadge
	f.savedScore = overallScore
	return nil
}

func (f *fakeStore) SetAnalysisStatus(_ context.Context, _ string, status string, errMsg *string) error {
	f.analysisStatuses = append(f.analysisStatuses, status)
	if errMsg != nil {
		f.analysisError = errMsg
	}
	return nil
}

func (f *fakeStore) LatestAnalysis(_ context.Context, _ string) (*store.Analysis, error) {
	return nil, nil
}

type stubValidator struct {
	result model.ValidatedSecurity
	err    error
	calls  int
}

func (s *stubValidator) Validate(_ context.Context, _ validate.Request, _ validate.Profile) (model.ValidatedSecurity, error) {
	s.calls++
	return s.result, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFakeStore(files []store.ArtifactFile, skillText string) *fakeStore {
	return &fakeStore{
		job: &store.Job{
			ID:         "job-1",
			Kind:       store.JobKindAnalyze,
			ArtifactID: "artifact-1",
			AnalysisID: "analysis-1",
			Status:     store.JobStatusRunning,
		},
		artifacts: map[string]*store.Artifact{
			"artifact-1": {ID: "artifact-1", SkillID: "skill-1", Name: "demo"},
		},
		files:     map[string][]store.ArtifactFile{"artifact-1": files},
		skillText: map[string]string{"skill-1": skillText},
	}
}

func newTestRunner(t *testing.T, st store.Store, v validate.Validator, allowUnvalidated bool) *Runner {
	t.Helper()
	scanCache, err := cache.New(8)
	require.NoError(t, err)
	return NewRunner(Options{
		Store:            st,
		Orchestrator:     validate.NewOrchestrator(v, testLogger()),
		ScanCache:        scanCache,
		Logger:           testLogger(),
		PollInterval:     time.Millisecond,
		AllowUnvalidated: allowUnvalidated,
	})
}

func TestRunOnce_NoJobQueued(t *testing.T) {
	st := newFakeStore(nil, "")
	st.job = nil
	runner := newTestRunner(t, st, nil, false)

	processed, err := runner.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestRunOnce_CleanArtifactSucceedsWithoutValidator(t *testing.T) {
	st := newFakeStore([]store.ArtifactFile{
		{Path: "README.md", Content: []byte("A harmless helper.\n")},
	}, "This skill formats text.")
	validator := &stubValidator{}
	runner := newTestRunner(t, st, validator, false)

	processed, err := runner.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	assert.Equal(t, store.JobStatusSucceeded, st.finishedStatus)
	assert.Equal(t, []string{store.AnalysisStatusRunning, store.AnalysisStatusSucceeded}, st.analysisStatuses)
	assert.Zero(t, validator.calls, "no escalation for a clean artifact")

	require.NotNil(t, st.savedReport)
	assert.False(t, st.savedReport.LLMUsed)
	assert.Equal(t, "Verified Safe", st.savedBadge)
	assert.Equal(t, float64(100), st.savedScore)
}

func TestRunOnce_CriticalFindingEscalatesAndSucceeds(t *testing.T) {
	st := newFakeStore([]store.ArtifactFile{
		{Path: "run.py", Content: []byte("eval(payload)\n")},
	}, "")
	validator := &stubValidator{
		result: model.ValidatedSecurity{
			ValidatedFindings: []model.ValidatedFinding{},
			SecuritySummary:   "Confirmed dynamic execution risk.",
		},
	}
	runner := newTestRunner(t, st, validator, false)

	processed, err := runner.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, 1, validator.calls)

	require.NotNil(t, st.savedReport)
	assert.True(t, st.savedReport.LLMUsed)
	require.NotNil(t, st.savedReport.LLMModel)
	assert.Equal(t, "o4-mini", *st.savedReport.LLMModel)
	require.NotNil(t, st.savedReport.SecuritySummary)
	assert.Equal(t, "Confirmed dynamic execution risk.", *st.savedReport.SecuritySummary)
	assert.Equal(t, "Not Recommended", st.savedBadge)
	assert.Equal(t, float64(0), st.savedScore)
}

func TestRunOnce_ValidatorFailureFailsTheJob(t *testing.T) {
	st := newFakeStore([]store.ArtifactFile{
		{Path: "run.py", Content: []byte("eval(payload)\n")},
	}, "")
	validator := &stubValidator{err: errors.New("upstream timeout")}
	runner := newTestRunner(t, st, validator, false)

	processed, err := runner.RunOnce(context.Background())
	assert.True(t, processed)
	require.Error(t, err)

	assert.Equal(t, store.JobStatusFailed, st.finishedStatus)
	require.NotNil(t, st.finishedError)
	assert.Contains(t, *st.finishedError, "upstream timeout")
	assert.Contains(t, st.analysisStatuses, store.AnalysisStatusFailed)
	assert.Nil(t, st.savedReport, "no partial report may be persisted")
}

func TestRunOnce_DegradeModeRecordsUnvalidatedReport(t *testing.T) {
	st := newFakeStore([]store.ArtifactFile{
		{Path: "run.py", Content: []byte("eval(payload)\n")},
	}, "")
	validator := &stubValidator{err: errors.New("upstream timeout")}
	runner := newTestRunner(t, st, validator, true)

	processed, err := runner.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	assert.Equal(t, store.JobStatusSucceeded, st.finishedStatus)
	require.NotNil(t, st.savedReport)
	assert.False(t, st.savedReport.LLMUsed)
	assert.Nil(t, st.savedReport.LLMModel)
	assert.NotEmpty(t, st.savedReport.Findings)
}

func TestRunOnce_MissingArtifactFailsTheJob(t *testing.T) {
	st := newFakeStore(nil, "")
	st.artifacts = map[string]*store.Artifact{}
	runner := newTestRunner(t, st, nil, false)

	processed, err := runner.RunOnce(context.Background())
	assert.True(t, processed)
	require.Error(t, err)
	assert.Equal(t, store.JobStatusFailed, st.finishedStatus)
}

func TestPrepareScannedFiles_SkillDocFirstAndBinarySkipped(t *testing.T) {
	st := newFakeStore([]store.ArtifactFile{
		{Path: "logo.png", Content: []byte{0x89, 'P', 'N', 'G'}},
		{Path: "data.bin", Content: []byte{0x00, 0x01}},
		{Path: "tool.py", Content: []byte("print('ok')\n")},
	}, "Skill instructions here.")
	runner := newTestRunner(t, st, nil, false)

	artifact, err := st.GetArtifact(context.Background(), "artifact-1")
	require.NoError(t, err)
	scanned, err := runner.prepareScannedFiles(context.Background(), artifact)
	require.NoError(t, err)

	require.Len(t, scanned, 2)
	assert.Equal(t, "SKILL.md", scanned[0].Path)
	assert.Equal(t, "Skill instructions here.", scanned[0].Text)
	assert.Equal(t, "tool.py", scanned[1].Path)
}

func TestPrepareScannedFiles_BlankSkillTextOmitted(t *testing.T) {
	st := newFakeStore([]store.ArtifactFile{
		{Path: "tool.py", Content: []byte("print('ok')\n")},
	}, "   \n\t")
	runner := newTestRunner(t, st, nil, false)

	artifact, err := st.GetArtifact(context.Background(), "artifact-1")
	require.NoError(t, err)
	scanned, err := runner.prepareScannedFiles(context.Background(), artifact)
	require.NoError(t, err)

	require.Len(t, scanned, 1)
	assert.Equal(t, "tool.py", scanned[0].Path)
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		content  []byte
		expected string
		ok       bool
	}{
		{"plain text", "a.py", []byte("print('hi')"), "print('hi')", true},
		{"binary extension", "a.PNG", []byte("not really an image"), "", false},
		{"nul byte", "a.txt", []byte{'a', 0x00, 'b'}, "", false},
		{"invalid utf8 replaced", "a.txt", []byte{'o', 'k', 0xff}, "ok�", true},
		{"empty content", "a.txt", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, ok := decodeText(tt.path, tt.content)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, text)
		})
	}
}

func TestScanArtifact_UsesCache(t *testing.T) {
	st := newFakeStore(nil, "")
	runner := newTestRunner(t, st, nil, false)

	files := []model.ScannedFile{{Path: "a.py", Text: "eval(x)\n"}}
	first := runner.scanArtifact(files)
	second := runner.scanArtifact(files)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, runner.scanCache.Len())
}

func TestOverallScore(t *testing.T) {
	tests := []struct {
		riskScore int
		expected  float64
	}{
		{0, 100},
		{6, 94},
		{100, 0},
		{200, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, overallScore(tt.riskScore), "risk score %d", tt.riskScore)
	}
}

func TestFailJob_TruncatesLongErrors(t *testing.T) {
	st := newFakeStore(nil, "")
	runner := newTestRunner(t, st, nil, false)

	longMessage := make([]byte, 3000)
	for i := range longMessage {
		longMessage[i] = 'x'
	}
	job := &store.Job{ID: "job-1", AnalysisID: "analysis-1", ArtifactID: "artifact-1"}
	runner.failJob(context.Background(), job, errors.New(string(longMessage)))

	require.NotNil(t, st.finishedError)
	assert.Len(t, *st.finishedError, maxErrorChars)
	require.NotNil(t, st.analysisError)
	assert.Len(t, *st.analysisError, maxErrorChars)
}
