// Package store provides persistence for artifacts, analyses, and the
// analyze job queue.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Aryan1718/SkillLens/internal/model"
)

// Job lifecycle statuses.
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
)

// Analysis lifecycle statuses.
const (
	AnalysisStatusQueued    = "queued"
	AnalysisStatusRunning   = "running"
	AnalysisStatusSucceeded = "succeeded"
	AnalysisStatusFailed    = "failed"
)

// JobKindAnalyze is the only job kind the worker processes today.
const JobKindAnalyze = "analyze"

// Job is one queued unit of analysis work.
type Job struct {
	ID         string
	Kind       string
	ArtifactID string
	AnalysisID string
	Status     string
	Attempts   int
	LastError  *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Artifact is one fetched skill artifact version.
type Artifact struct {
	ID      string
	SkillID string
	Name    string
}

// ArtifactFile is one raw file belonging to an artifact. Content is raw
// bytes; decoding and binary filtering happen in the worker.
type ArtifactFile struct {
	Path    string
	Content []byte
}

// Analysis is one persisted analysis row.
type Analysis struct {
	ID           string
	ArtifactID   string
	Status       string
	TrustBadge   *string
	OverallScore *float64
	SecurityData json.RawMessage
	ErrorMessage *string
	UpdatedAt    time.Time
}

// Store is the persistence boundary shared by the worker and the API.
// ClaimNextJob must be an atomic compare-and-set so at most one worker
// processes a given job.
type Store interface {
	ClaimNextJob(ctx context.Context, kind string) (*Job, error)
	FinishJob(ctx context.Context, jobID, status string, errMsg *string) error
	EnqueueAnalyzeJob(ctx context.Context, artifactID string) (*Job, error)
	JobStats(ctx context.Context) (map[string]int, error)

	GetArtifact(ctx context.Context, artifactID string) (*Artifact, error)
	GetArtifactFiles(ctx context.Context, artifactID string) ([]ArtifactFile, error)
	GetSkillText(ctx context.Context, skillID string) (string, error)

	EnsureAnalysis(ctx context.Context, artifactID string) (string, error)
	SaveAnalysisReport(ctx context.Context, analysisID string, report model.SecurityReport, trustBadge string, overallScore float64) error
	SetAnalysisStatus(ctx context.Context, analysisID, status string, errMsg *string) error
	LatestAnalysis(ctx context.Context, skillID string) (*Analysis, error)
}
