package audits

import (
	"context"
	"time"
)

// Repo defines persistence operations for the job journal.
type Repo interface {
	Create(ctx context.Context, job AuditJob) error
	GetByID(ctx context.Context, jobID string) (AuditJob, error)
	UpdateState(ctx context.Context, jobID, state string, update StateUpdate) error
	ListRecent(ctx context.Context, limit, offset int) ([]AuditJob, error)
}

// StateUpdate carries optional fields written alongside a state transition.
type StateUpdate struct {
	Analysis      *AnalysisResult
	FallbackUsed  *bool
	FailedStage   *string
	FailureReason *string
	StartedAt     *time.Time
	CompletedAt   *time.Time
}
