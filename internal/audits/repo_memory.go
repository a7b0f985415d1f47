package audits

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores jobs in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]AuditJob
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]AuditJob)}
}

// Create stores the job.
func (r *MemoryRepo) Create(ctx context.Context, job AuditJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[job.ID] = job
	return nil
}

// GetByID returns a job by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, jobID string) (AuditJob, error) {
	if err := ctx.Err(); err != nil {
		return AuditJob{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.byID[jobID]
	if !ok {
		return AuditJob{}, ErrNotFound
	}
	return job, nil
}

// UpdateState applies a state transition with optional update fields.
func (r *MemoryRepo) UpdateState(ctx context.Context, jobID, state string, update StateUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.byID[jobID]
	if !ok {
		return ErrNotFound
	}
	job.State = state
	if update.Analysis != nil {
		job.Analysis = update.Analysis
	}
	if update.FallbackUsed != nil {
		job.FallbackUsed = *update.FallbackUsed
	}
	if update.FailedStage != nil {
		job.FailedStage = *update.FailedStage
	}
	if update.FailureReason != nil {
		job.FailureReason = *update.FailureReason
	}
	if update.StartedAt != nil {
		job.StartedAt = update.StartedAt
	}
	if update.CompletedAt != nil {
		job.CompletedAt = update.CompletedAt
	} else if job.Terminal() && job.CompletedAt == nil {
		now := time.Now().UTC()
		job.CompletedAt = &now
	}
	job.UpdatedAt = time.Now().UTC()
	r.byID[jobID] = job
	return nil
}

// ListRecent returns jobs newest-first with limit/offset.
func (r *MemoryRepo) ListRecent(ctx context.Context, limit, offset int) ([]AuditJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	jobs := make([]AuditJob, 0, len(r.byID))
	for _, job := range r.byID {
		jobs = append(jobs, job)
	}
	r.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	if offset >= len(jobs) {
		return []AuditJob{}, nil
	}
	end := len(jobs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return jobs[offset:end], nil
}
