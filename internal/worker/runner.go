// Package worker runs queued artifact analyses: claim a job, scan the
// artifact's decoded files, escalate to the external validator when the
// policy demands it, and persist the assembled report.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Aryan1718/SkillLens/internal/cache"
	"github.com/Aryan1718/SkillLens/internal/events"
	"github.com/Aryan1718/SkillLens/internal/metrics"
	"github.com/Aryan1718/SkillLens/internal/model"
	"github.com/Aryan1718/SkillLens/internal/report"
	"github.com/Aryan1718/SkillLens/internal/scan"
	"github.com/Aryan1718/SkillLens/internal/store"
	"github.com/Aryan1718/SkillLens/internal/validate"
)

const maxErrorChars = 1000

// skillDocPath is the path under which the primary instruction document is
// scanned.
const skillDocPath = "SKILL.md"

// binaryExtensions lists content the scanner must never see, in addition
// to the NUL-byte check.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	".ico": true, ".pdf": true, ".zip": true, ".tar": true, ".gz": true,
	".tgz": true, ".exe": true, ".dll": true, ".so": true, ".dylib": true,
	".bin": true, ".woff": true, ".woff2": true, ".ttf": true,
	".mp3": true, ".mp4": true, ".mov": true,
}

// Runner claims and processes analyze jobs.
type Runner struct {
	store        store.Store
	orchestrator *validate.Orchestrator
	scanCache    *cache.Cache
	publisher    *events.Publisher
	metrics      *metrics.Metrics
	logger       *slog.Logger

	pollInterval time.Duration
	// allowUnvalidated enables the explicit degrade mode: a failed
	// validator call records the deterministic-only report instead of
	// failing the analysis unit.
	allowUnvalidated bool
}

// Options configures a Runner.
type Options struct {
	Store            store.Store
	Orchestrator     *validate.Orchestrator
	ScanCache        *cache.Cache
	Publisher        *events.Publisher
	Metrics          *metrics.Metrics
	Logger           *slog.Logger
	PollInterval     time.Duration
	AllowUnvalidated bool
}

// NewRunner creates a worker runner.
func NewRunner(opts Options) *Runner {
	return &Runner{
		store:            opts.Store,
		orchestrator:     opts.Orchestrator,
		scanCache:        opts.ScanCache,
		publisher:        opts.Publisher,
		metrics:          opts.Metrics,
		logger:           opts.Logger,
		pollInterval:     opts.PollInterval,
		allowUnvalidated: opts.AllowUnvalidated,
	}
}

// Run claims and processes jobs until the context is canceled, sleeping
// pollInterval between empty polls.
func (r *Runner) Run(ctx context.Context) {
	r.logger.Info("Worker loop started", "poll_interval", r.pollInterval)
	for {
		processed, err := r.RunOnce(ctx)
		if err != nil {
			r.logger.Error("Job processing failed", "error", err)
		}
		if processed {
			continue
		}
		select {
		case <-ctx.Done():
			r.logger.Info("Worker loop stopped")
			return
		case <-time.After(r.pollInterval):
		}
	}
}

// RunOnce processes one queued analyze job. Returns true when a job was
// claimed, whether or not it succeeded.
func (r *Runner) RunOnce(ctx context.Context) (bool, error) {
	job, err := r.store.ClaimNextJob(ctx, store.JobKindAnalyze)
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	r.logger.Info("Claimed analyze job", "job_id", job.ID, "artifact_id", job.ArtifactID, "attempts", job.Attempts)
	if err := r.processJob(ctx, job); err != nil {
		r.failJob(ctx, job, err)
		return true, err
	}
	if err := r.store.FinishJob(ctx, job.ID, store.JobStatusSucceeded, nil); err != nil {
		return true, fmt.Errorf("finish job %s: %w", job.ID, err)
	}
	if r.metrics != nil {
		r.metrics.JobsProcessedTotal.Inc()
	}
	return true, nil
}

func (r *Runner) processJob(ctx context.Context, job *store.Job) error {
	artifact, err := r.store.GetArtifact(ctx, job.ArtifactID)
	if err != nil {
		return fmt.Errorf("load artifact %s: %w", job.ArtifactID, err)
	}
	if artifact == nil {
		return fmt.Errorf("artifact %s not found", job.ArtifactID)
	}

	analysisID := job.AnalysisID
	if analysisID == "" {
		analysisID, err = r.store.EnsureAnalysis(ctx, artifact.ID)
		if err != nil {
			return fmt.Errorf("ensure analysis for artifact %s: %w", artifact.ID, err)
		}
	}
	if err := r.store.SetAnalysisStatus(ctx, analysisID, store.AnalysisStatusRunning, nil); err != nil {
		return fmt.Errorf("mark analysis running: %w", err)
	}

	scanned, err := r.prepareScannedFiles(ctx, artifact)
	if err != nil {
		return err
	}

	result := r.scanArtifact(scanned)
	if r.metrics != nil {
		r.metrics.FindingsEmittedTotal.Add(float64(len(result.Findings)))
	}

	var validated *model.ValidatedSecurity
	llmModel := ""
	if validate.ShouldEscalate(result.Findings, result.RiskScore) {
		if r.metrics != nil {
			r.metrics.ValidationsTotal.Inc()
		}
		outcome, err := r.orchestrator.Run(ctx, result.Findings, scanned)
		if err != nil {
			if r.metrics != nil {
				r.metrics.ValidationFailuresTotal.Inc()
			}
			if !r.allowUnvalidated {
				return fmt.Errorf("validation of analysis %s: %w", analysisID, err)
			}
			r.logger.Warn("Validator failed; recording unvalidated result",
				"analysis_id", analysisID, "error", err)
		} else {
			validated = &outcome
			llmModel = validate.SelectValidatorProfile(result.Findings).Model
		}
	}

	assembled := report.Assemble(report.Input{
		Scan:       result,
		Validated:  validated,
		LLMModel:   llmModel,
		AnalyzedAt: time.Now(),
	})

	overallScore := overallScore(result.RiskScore)
	if err := r.store.SaveAnalysisReport(ctx, analysisID, assembled, result.TrustBadge, overallScore); err != nil {
		return fmt.Errorf("save analysis %s: %w", analysisID, err)
	}
	if err := r.store.SetAnalysisStatus(ctx, analysisID, store.AnalysisStatusSucceeded, nil); err != nil {
		return fmt.Errorf("mark analysis succeeded: %w", err)
	}

	r.publisher.PublishCompleted(events.AnalysisCompleted{
		ArtifactID: artifact.ID,
		AnalysisID: analysisID,
		TrustBadge: assembled.TrustBadge,
		RiskScore:  assembled.RiskScore,
		LLMUsed:    assembled.LLMUsed,
		AnalyzedAt: assembled.AnalyzedAt,
	})
	r.logger.Info("Analysis completed",
		"analysis_id", analysisID,
		"artifact_id", artifact.ID,
		"findings", len(assembled.Findings),
		"risk_score", assembled.RiskScore,
		"trust_badge", assembled.TrustBadge,
		"llm_used", assembled.LLMUsed)
	return nil
}

// scanArtifact runs the deterministic scan, memoized by content hash.
func (r *Runner) scanArtifact(scanned []model.ScannedFile) model.ScanResult {
	if r.scanCache == nil {
		return scan.Scan(scanned)
	}
	hash := cache.ContentHash(scanned)
	if result, ok := r.scanCache.Get(hash); ok {
		if r.metrics != nil {
			r.metrics.ScanCacheHitsTotal.Inc()
		}
		r.logger.Debug("Scan cache hit", "content_hash", hash)
		return result
	}
	result := scan.Scan(scanned)
	r.scanCache.Add(hash, result)
	return result
}

// prepareScannedFiles assembles the ordered scan input: the primary
// instruction document first, then each decodable artifact file. Binary
// content (NUL byte or known binary extension) is skipped, and text is
// decoded as UTF-8 with replacement of invalid sequences.
func (r *Runner) prepareScannedFiles(ctx context.Context, artifact *store.Artifact) ([]model.ScannedFile, error) {
	skillText, err := r.store.GetSkillText(ctx, artifact.SkillID)
	if err != nil {
		return nil, fmt.Errorf("load skill text for %s: %w", artifact.SkillID, err)
	}

	var scanned []model.ScannedFile
	if strings.TrimSpace(skillText) != "" {
		scanned = append(scanned, model.ScannedFile{Path: skillDocPath, Text: skillText})
	}

	files, err := r.store.GetArtifactFiles(ctx, artifact.ID)
	if err != nil {
		return nil, fmt.Errorf("load artifact files for %s: %w", artifact.ID, err)
	}
	for _, file := range files {
		text, ok := decodeText(file.Path, file.Content)
		if !ok {
			r.logger.Debug("Skipping binary artifact file", "path", file.Path)
			continue
		}
		scanned = append(scanned, model.ScannedFile{Path: file.Path, Text: text})
	}
	return scanned, nil
}

// decodeText decodes raw file content as UTF-8 text. Binary content is
// reported as not ok; invalid UTF-8 sequences are replaced, never fatal.
func decodeText(filePath string, content []byte) (string, bool) {
	if binaryExtensions[strings.ToLower(path.Ext(filePath))] {
		return "", false
	}
	if bytes.IndexByte(content, 0) >= 0 {
		return "", false
	}
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}
	return text, true
}

// failJob records a terminal failure on both the job and its analysis row
// with a truncated error string. A failed validation never downgrades to a
// partial result.
func (r *Runner) failJob(ctx context.Context, job *store.Job, cause error) {
	message := cause.Error()
	if len(message) > maxErrorChars {
		message = message[:maxErrorChars]
	}

	if job.AnalysisID != "" {
		if err := r.store.SetAnalysisStatus(ctx, job.AnalysisID, store.AnalysisStatusFailed, &message); err != nil {
			r.logger.Error("Failed to mark analysis failed", "analysis_id", job.AnalysisID, "error", err)
		}
	}
	if err := r.store.FinishJob(ctx, job.ID, store.JobStatusFailed, &message); err != nil {
		r.logger.Error("Failed to mark job failed", "job_id", job.ID, "error", err)
	}
	if r.metrics != nil {
		r.metrics.JobsFailedTotal.Inc()
	}
	r.publisher.PublishFailed(events.AnalysisFailed{
		ArtifactID: job.ArtifactID,
		AnalysisID: job.AnalysisID,
		Error:      message,
	})
}

// overallScore converts the 0..200 risk score into the 0..100 descending
// quality score persisted alongside the report.
func overallScore(riskScore int) float64 {
	capped := riskScore
	if capped > 100 {
		capped = 100
	}
	score := 100 - capped
	if score < 0 {
		score = 0
	}
	return float64(score)
}
