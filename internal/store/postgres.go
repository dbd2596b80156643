package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/Aryan1718/SkillLens/internal/model"
)

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore opens and pings a PostgreSQL connection.
func NewPostgresStore(databaseURL string, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresStore{db: db, logger: logger}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Health checks if the database is accessible.
func (s *PostgresStore) Health() error {
	return s.db.Ping()
}

// ClaimNextJob atomically claims the oldest queued job of the given kind.
// The claim is a compare-and-set: the row transitions queued -> running in
// one statement, and SKIP LOCKED keeps concurrent workers from claiming
// the same job. Returns nil when no job is queued.
func (s *PostgresStore) ClaimNextJob(ctx context.Context, kind string) (*Job, error) {
	query := `
		UPDATE analysis_jobs SET status = $1, attempts = attempts + 1, updated_at = NOW()
		WHERE id = (
			SELECT id FROM analysis_jobs
			WHERE status = $2 AND kind = $3
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, kind, artifact_id, analysis_id, status, attempts, last_error, created_at, updated_at
	`

	var job Job
	var analysisID, lastError sql.NullString
	err := s.db.QueryRowContext(ctx, query, JobStatusRunning, JobStatusQueued, kind).Scan(
		&job.ID, &job.Kind, &job.ArtifactID, &analysisID, &job.Status,
		&job.Attempts, &lastError, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}
	if analysisID.Valid {
		job.AnalysisID = analysisID.String
	}
	if lastError.Valid {
		job.LastError = &lastError.String
	}
	return &job, nil
}

// FinishJob marks a claimed job as succeeded or failed.
func (s *PostgresStore) FinishJob(ctx context.Context, jobID, status string, errMsg *string) error {
	query := `UPDATE analysis_jobs SET status = $1, last_error = $2, updated_at = NOW() WHERE id = $3`
	result, err := s.db.ExecContext(ctx, query, status, errMsg, jobID)
	if err != nil {
		return fmt.Errorf("failed to finish job: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job not found: %s", jobID)
	}
	return nil
}

// EnqueueAnalyzeJob ensures an analysis row exists for the artifact and
// inserts a queued analyze job referencing it.
func (s *PostgresStore) EnqueueAnalyzeJob(ctx context.Context, artifactID string) (*Job, error) {
	analysisID, err := s.EnsureAnalysis(ctx, artifactID)
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:         uuid.New().String(),
		Kind:       JobKindAnalyze,
		ArtifactID: artifactID,
		AnalysisID: analysisID,
		Status:     JobStatusQueued,
	}
	query := `
		INSERT INTO analysis_jobs (id, kind, artifact_id, analysis_id, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = s.db.QueryRowContext(ctx, query, job.ID, job.Kind, job.ArtifactID, job.AnalysisID, job.Status).
		Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	s.logger.Info("Enqueued analyze job", "job_id", job.ID, "artifact_id", artifactID, "analysis_id", analysisID)
	return job, nil
}

// JobStats returns job counts grouped by status.
func (s *PostgresStore) JobStats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM analysis_jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to query job stats: %w", err)
	}
	defer rows.Close()

	stats := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan job stats: %w", err)
		}
		stats[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job stats: %w", err)
	}
	return stats, nil
}

// GetArtifact retrieves one artifact row. Returns nil when not found.
func (s *PostgresStore) GetArtifact(ctx context.Context, artifactID string) (*Artifact, error) {
	var artifact Artifact
	err := s.db.QueryRowContext(ctx,
		`SELECT id, skill_id, name FROM skill_artifacts WHERE id = $1`, artifactID).
		Scan(&artifact.ID, &artifact.SkillID, &artifact.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query artifact: %w", err)
	}
	return &artifact, nil
}

// GetArtifactFiles retrieves the artifact's file manifest with content, in
// stored path order. Path order is part of the scan's reproducibility
// contract.
func (s *PostgresStore) GetArtifactFiles(ctx context.Context, artifactID string) ([]ArtifactFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, content FROM skill_artifact_files WHERE artifact_id = $1 ORDER BY position, path`,
		artifactID)
	if err != nil {
		return nil, fmt.Errorf("failed to query artifact files: %w", err)
	}
	defer rows.Close()

	var files []ArtifactFile
	for rows.Next() {
		var file ArtifactFile
		if err := rows.Scan(&file.Path, &file.Content); err != nil {
			return nil, fmt.Errorf("failed to scan artifact file: %w", err)
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating artifact files: %w", err)
	}
	return files, nil
}

// GetSkillText retrieves the skill's primary instruction document text.
func (s *PostgresStore) GetSkillText(ctx context.Context, skillID string) (string, error) {
	var text sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT text_content FROM skills WHERE id = $1`, skillID).Scan(&text)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to query skill text: %w", err)
	}
	return text.String, nil
}

// EnsureAnalysis returns the analysis row id for an artifact, creating a
// queued row when none exists.
func (s *PostgresStore) EnsureAnalysis(ctx context.Context, artifactID string) (string, error) {
	var analysisID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM skill_analyses WHERE artifact_id = $1 ORDER BY created_at DESC LIMIT 1`,
		artifactID).Scan(&analysisID)
	if err == nil {
		return analysisID, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to query analysis: %w", err)
	}

	analysisID = uuid.New().String()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO skill_analyses (id, artifact_id, status, created_at, updated_at) VALUES ($1, $2, $3, NOW(), NOW())`,
		analysisID, artifactID, AnalysisStatusQueued)
	if err != nil {
		return "", fmt.Errorf("failed to insert analysis: %w", err)
	}
	return analysisID, nil
}

// SaveAnalysisReport stores the security report JSON plus its denormalized
// badge and score columns.
func (s *PostgresStore) SaveAnalysisReport(ctx context.Context, analysisID string, report model.SecurityReport, trustBadge string, overallScore float64) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal security report: %w", err)
	}

	query := `
		UPDATE skill_analyses
		SET security_data = $1, trust_badge = $2, overall_score = $3, updated_at = NOW()
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, data, trustBadge, overallScore, analysisID)
	if err != nil {
		return fmt.Errorf("failed to save analysis report: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("analysis not found: %s", analysisID)
	}
	return nil
}

// SetAnalysisStatus updates the analysis lifecycle status and error text.
func (s *PostgresStore) SetAnalysisStatus(ctx context.Context, analysisID, status string, errMsg *string) error {
	query := `UPDATE skill_analyses SET status = $1, error_message = $2, updated_at = NOW() WHERE id = $3`
	result, err := s.db.ExecContext(ctx, query, status, errMsg, analysisID)
	if err != nil {
		return fmt.Errorf("failed to set analysis status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("analysis not found: %s", analysisID)
	}
	return nil
}

// LatestAnalysis returns the most recent analysis for a skill, nil when
// the skill has none.
func (s *PostgresStore) LatestAnalysis(ctx context.Context, skillID string) (*Analysis, error) {
	query := `
		SELECT a.id, a.artifact_id, a.status, a.trust_badge, a.overall_score, a.security_data, a.error_message, a.updated_at
		FROM skill_analyses a
		JOIN skill_artifacts sa ON sa.id = a.artifact_id
		WHERE sa.skill_id = $1
		ORDER BY a.updated_at DESC
		LIMIT 1
	`

	var analysis Analysis
	var trustBadge, errorMessage sql.NullString
	var overallScore sql.NullFloat64
	var securityData []byte
	err := s.db.QueryRowContext(ctx, query, skillID).Scan(
		&analysis.ID, &analysis.ArtifactID, &analysis.Status,
		&trustBadge, &overallScore, &securityData, &errorMessage, &analysis.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest analysis: %w", err)
	}
	if trustBadge.Valid {
		analysis.TrustBadge = &trustBadge.String
	}
	if overallScore.Valid {
		analysis.OverallScore = &overallScore.Float64
	}
	if errorMessage.Valid {
		analysis.ErrorMessage = &errorMessage.String
	}
	if len(securityData) > 0 {
		analysis.SecurityData = json.RawMessage(securityData)
	}
	return &analysis, nil
}
