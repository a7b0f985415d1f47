package audits

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new job.
func (r *PGRepo) Create(ctx context.Context, job AuditJob) error {
	const query = `
INSERT INTO audit_jobs (
	id, state, request, analysis, fallback_used, failed_stage, failure_reason,
	created_at, started_at, completed_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	requestPayload, err := json.Marshal(job.Request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	analysisPayload, err := marshalAnalysis(job.Analysis)
	if err != nil {
		return err
	}
	updatedAt := job.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = job.CreatedAt
	}
	_, err = r.DB.ExecContext(ctx, query,
		job.ID,
		job.State,
		requestPayload,
		analysisPayload,
		job.FallbackUsed,
		nullString(job.FailedStage),
		nullString(job.FailureReason),
		job.CreatedAt,
		job.StartedAt,
		job.CompletedAt,
		updatedAt,
	)
	return err
}

// GetByID returns a job by ID.
func (r *PGRepo) GetByID(ctx context.Context, jobID string) (AuditJob, error) {
	const query = `
SELECT id, state, request, analysis, fallback_used, failed_stage, failure_reason,
       created_at, started_at, completed_at, updated_at
FROM audit_jobs
WHERE id = $1
LIMIT 1`
	var (
		job           AuditJob
		requestRaw    []byte
		analysisRaw   sql.NullString
		failedStage   sql.NullString
		failureReason sql.NullString
		startedAt     sql.NullTime
		completedAt   sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, query, jobID).Scan(
		&job.ID,
		&job.State,
		&requestRaw,
		&analysisRaw,
		&job.FallbackUsed,
		&failedStage,
		&failureReason,
		&job.CreatedAt,
		&startedAt,
		&completedAt,
		&job.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return AuditJob{}, ErrNotFound
	}
	if err != nil {
		return AuditJob{}, err
	}
	if err := json.Unmarshal(requestRaw, &job.Request); err != nil {
		return AuditJob{}, fmt.Errorf("unmarshal request: %w", err)
	}
	if analysisRaw.Valid && analysisRaw.String != "" {
		var analysis AnalysisResult
		if err := json.Unmarshal([]byte(analysisRaw.String), &analysis); err != nil {
			return AuditJob{}, fmt.Errorf("unmarshal analysis: %w", err)
		}
		job.Analysis = &analysis
	}
	job.FailedStage = failedStage.String
	job.FailureReason = failureReason.String
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return job, nil
}

// UpdateState applies a state transition with optional update fields.
func (r *PGRepo) UpdateState(ctx context.Context, jobID, state string, update StateUpdate) error {
	const query = `
UPDATE audit_jobs
SET state = $2,
    analysis = COALESCE($3, analysis),
    fallback_used = COALESCE($4, fallback_used),
    failed_stage = COALESCE($5, failed_stage),
    failure_reason = COALESCE($6, failure_reason),
    started_at = COALESCE($7, started_at),
    completed_at = COALESCE($8, completed_at),
    updated_at = $9
WHERE id = $1`
	analysisPayload, err := marshalAnalysis(update.Analysis)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query,
		jobID,
		state,
		analysisPayload,
		update.FallbackUsed,
		update.FailedStage,
		update.FailureReason,
		update.StartedAt,
		update.CompletedAt,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRecent returns jobs newest-first with limit/offset.
func (r *PGRepo) ListRecent(ctx context.Context, limit, offset int) ([]AuditJob, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, state, request, analysis, fallback_used, failed_stage, failure_reason,
       created_at, started_at, completed_at, updated_at
FROM audit_jobs
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []AuditJob{}
	for rows.Next() {
		var (
			job           AuditJob
			requestRaw    []byte
			analysisRaw   sql.NullString
			failedStage   sql.NullString
			failureReason sql.NullString
			startedAt     sql.NullTime
			completedAt   sql.NullTime
		)
		if err := rows.Scan(
			&job.ID,
			&job.State,
			&requestRaw,
			&analysisRaw,
			&job.FallbackUsed,
			&failedStage,
			&failureReason,
			&job.CreatedAt,
			&startedAt,
			&completedAt,
			&job.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(requestRaw, &job.Request); err != nil {
			return nil, fmt.Errorf("unmarshal request: %w", err)
		}
		if analysisRaw.Valid && analysisRaw.String != "" {
			var analysis AnalysisResult
			if err := json.Unmarshal([]byte(analysisRaw.String), &analysis); err != nil {
				return nil, fmt.Errorf("unmarshal analysis: %w", err)
			}
			job.Analysis = &analysis
		}
		job.FailedStage = failedStage.String
		job.FailureReason = failureReason.String
		if startedAt.Valid {
			t := startedAt.Time
			job.StartedAt = &t
		}
		if completedAt.Valid {
			t := completedAt.Time
			job.CompletedAt = &t
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func marshalAnalysis(analysis *AnalysisResult) (any, error) {
	if analysis == nil {
		return nil, nil
	}
	payload, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis: %w", err)
	}
	return payload, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
