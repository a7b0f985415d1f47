package audits

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"audit-backend/internal/llm"
	"audit-backend/internal/mailer"
	"audit-backend/internal/queue"
	"audit-backend/internal/shared/metrics"
	"audit-backend/internal/shared/telemetry"
	"audit-backend/internal/workerpool"
)

// Artifact is an exclusively owned rendered report. The pipeline releases it
// exactly once on every terminal path.
type Artifact interface {
	Path() string
	Release() error
}

// Renderer turns an analyzed job into a report artifact.
type Renderer interface {
	Render(ctx context.Context, job AuditJob) (Artifact, error)
}

// Service coordinates the audit pipeline: intake, analysis, render, delivery.
type Service struct {
	Repo     Repo
	LLM      llm.Client
	Renderer Renderer
	Mail     mailer.Transport
	Pool     *workerpool.Pool
	Queue    queue.Client

	SenderAddress   string
	Retry           RetryPolicy
	LLMMaxTokens    int
	LLMTemperature  float64
	DeliveryTimeout time.Duration
	JobBudget       time.Duration
}

// Submit validates the request, journals a new job, and dispatches it for
// asynchronous processing. The returned handle is non-nil only when the job
// runs on the in-process pool.
func (s *Service) Submit(ctx context.Context, req AuditRequest) (AuditJob, *workerpool.Handle, error) {
	if verr := ValidateRequest(req); verr != nil {
		return AuditJob{}, nil, verr
	}

	now := time.Now().UTC()
	job := AuditJob{
		ID:        uuid.NewString(),
		State:     StateReceived,
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, job); err != nil {
		return AuditJob{}, nil, fmt.Errorf("journal create: %w", err)
	}
	if err := s.Repo.UpdateState(ctx, job.ID, StateValidated, StateUpdate{}); err != nil {
		return AuditJob{}, nil, fmt.Errorf("journal validate: %w", err)
	}
	job.State = StateValidated
	metrics.IncJobAccepted()
	s.logTransition(ctx, job.ID, StateReceived, StateValidated, nil)

	if s.Queue != nil {
		rawReq, err := json.Marshal(req)
		if err != nil {
			return AuditJob{}, nil, fmt.Errorf("encode request: %w", err)
		}
		msg := queue.Message{
			JobID:      job.ID,
			RequestID:  requestIDFromContext(ctx),
			EnqueuedAt: now.Format(time.RFC3339),
			Version:    1,
			Request:    rawReq,
		}
		if err := s.Queue.Send(ctx, msg); err != nil {
			return AuditJob{}, nil, fmt.Errorf("enqueue job: %w", err)
		}
		return job, nil, nil
	}

	handle, err := s.Pool.Submit(backgroundWithRequestID(ctx), func(taskCtx context.Context) error {
		return s.ProcessJob(taskCtx, job.ID)
	})
	if err != nil {
		return AuditJob{}, nil, fmt.Errorf("submit job: %w", err)
	}
	return job, handle, nil
}

// Get returns a job by ID.
func (s *Service) Get(ctx context.Context, jobID string) (AuditJob, error) {
	if jobID == "" {
		return AuditJob{}, fmt.Errorf("jobID is required")
	}
	return s.Repo.GetByID(ctx, jobID)
}

// List returns recent jobs newest-first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]AuditJob, error) {
	return s.Repo.ListRecent(ctx, limit, offset)
}

// ProcessJob runs the analysis, render, and delivery stages for a validated
// job. The wall-clock budget is checked before each stage transition and the
// report artifact is released exactly once on every terminal path.
func (s *Service) ProcessJob(ctx context.Context, jobID string) error {
	job, err := s.Repo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("job lookup %s: %w", jobID, err)
	}
	if job.Terminal() {
		return nil
	}

	startedAt := time.Now().UTC()
	if err := s.Repo.UpdateState(ctx, job.ID, job.State, StateUpdate{StartedAt: &startedAt}); err != nil {
		return s.fail(ctx, job, StageAnalysis, fmt.Errorf("journal start: %w", err), &startedAt)
	}
	deadline := startedAt.Add(s.jobBudget())

	// Analysis stage.
	if time.Now().UTC().After(deadline) {
		return s.fail(ctx, job, StageTimeout, fmt.Errorf("job budget exceeded before analysis"), &startedAt)
	}
	analysis, fallbackUsed, attempts := s.analyze(ctx, job)
	job.Analysis = &analysis
	job.FallbackUsed = fallbackUsed
	if err := s.Repo.UpdateState(ctx, job.ID, StateAnalyzed, StateUpdate{
		Analysis:     &analysis,
		FallbackUsed: &fallbackUsed,
	}); err != nil {
		return s.fail(ctx, job, StageAnalysis, fmt.Errorf("journal analyzed: %w", err), &startedAt)
	}
	s.logTransition(ctx, job.ID, StateValidated, StateAnalyzed, map[string]any{
		"fallback": fallbackUsed,
		"attempt":  attempts,
	})

	// Render stage.
	if time.Now().UTC().After(deadline) {
		return s.fail(ctx, job, StageTimeout, fmt.Errorf("job budget exceeded before render"), &startedAt)
	}
	artifact, err := s.Renderer.Render(ctx, job)
	if err != nil {
		return s.fail(ctx, job, StageRender, err, &startedAt)
	}
	defer func() {
		if relErr := artifact.Release(); relErr != nil {
			telemetry.Error("audit.artifact_release_failed", map[string]any{
				"job_id": job.ID,
				"error":  sanitizeError(relErr),
			})
		}
	}()
	if err := s.Repo.UpdateState(ctx, job.ID, StateRendered, StateUpdate{}); err != nil {
		return s.fail(ctx, job, StageRender, fmt.Errorf("journal rendered: %w", err), &startedAt)
	}
	s.logTransition(ctx, job.ID, StateAnalyzed, StateRendered, nil)

	// Delivery stage, exactly one attempt.
	if time.Now().UTC().After(deadline) {
		return s.fail(ctx, job, StageTimeout, fmt.Errorf("job budget exceeded before delivery"), &startedAt)
	}
	if err := s.deliver(ctx, job, artifact); err != nil {
		return s.fail(ctx, job, StageDelivery, err, &startedAt)
	}

	completedAt := time.Now().UTC()
	if err := s.Repo.UpdateState(ctx, job.ID, StateDelivered, StateUpdate{CompletedAt: &completedAt}); err != nil {
		telemetry.Error("audit.journal_update_failed", map[string]any{
			"job_id": job.ID,
			"error":  sanitizeError(err),
		})
	}
	metrics.IncJobCompleted()
	metrics.ObserveJobDurationMs(durationMs(&startedAt, &completedAt))
	s.logTransition(ctx, job.ID, StateRendered, StateDelivered, map[string]any{
		"duration_ms": durationMs(&startedAt, &completedAt),
	})
	return nil
}

// analyze runs the retrying model analysis and falls back to the
// deterministic result after exhaustion. It never fails the job. The last
// return value is the attempt that produced the result.
func (s *Service) analyze(ctx context.Context, job AuditJob) (AnalysisResult, bool, int) {
	prompt := BuildPrompt(job.Request)

	var result AnalysisResult
	var attempts int
	err := s.Retry.Do(ctx, func(attemptCtx context.Context, attempt int) error {
		attempts = attempt
		raw, genErr := s.LLM.Generate(attemptCtx, llm.GenerateInput{
			Prompt:      prompt,
			MaxTokens:   s.LLMMaxTokens,
			Temperature: s.LLMTemperature,
		})
		if genErr != nil {
			return genErr
		}
		parsed, parseErr := ParseAnalysisResult(raw)
		if parseErr != nil {
			return parseErr
		}
		if valErr := ValidateResult(parsed); valErr != nil {
			return valErr
		}
		result = parsed
		return nil
	})
	if err == nil {
		return result, false, attempts
	}

	metrics.IncAnalysisFallback()
	telemetry.Warn("audit.analysis_fallback", map[string]any{
		"request_id": requestIDFromContext(ctx),
		"job_id":     job.ID,
		"attempts":   attempts,
		"error":      sanitizeError(err),
	})
	return FallbackResult(job.Request), true, attempts
}

func (s *Service) deliver(ctx context.Context, job AuditJob, artifact Artifact) error {
	pdf, err := os.ReadFile(artifact.Path())
	if err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}
	email := buildReportEmail(s.SenderAddress, job, pdf)

	deliveryCtx := ctx
	if s.DeliveryTimeout > 0 {
		var cancel context.CancelFunc
		deliveryCtx, cancel = context.WithTimeout(ctx, s.DeliveryTimeout)
		defer cancel()
	}
	if err := s.Mail.Send(deliveryCtx, email); err != nil {
		return fmt.Errorf("send report email: %w", err)
	}
	return nil
}

func (s *Service) fail(ctx context.Context, job AuditJob, stage string, err error, startedAt *time.Time) error {
	code := classifyFailure(stage, err)
	reason := fmt.Sprintf("%s: %s", code, sanitizeError(err))
	completedAt := time.Now().UTC()
	if updateErr := s.Repo.UpdateState(context.Background(), job.ID, StateFailed, StateUpdate{
		FailedStage:   &stage,
		FailureReason: &reason,
		CompletedAt:   &completedAt,
	}); updateErr != nil {
		telemetry.Error("audit.journal_update_failed", map[string]any{
			"job_id": job.ID,
			"error":  sanitizeError(updateErr),
		})
	}
	metrics.IncJobFailed()
	if startedAt != nil {
		metrics.ObserveJobDurationMs(durationMs(startedAt, &completedAt))
	}
	telemetry.Error("audit.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"job_id":            job.ID,
		"status":            StateFailed,
		"status_transition": job.State + "->" + StateFailed,
		"failed_stage":      stage,
		"error_code":        code,
		"error":             sanitizeError(err),
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
	return fmt.Errorf("job %s failed at %s: %w", job.ID, stage, err)
}

func (s *Service) logTransition(ctx context.Context, jobID, from, to string, extra map[string]any) {
	fields := map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"job_id":            jobID,
		"status":            to,
		"status_transition": from + "->" + to,
	}
	for k, v := range extra {
		fields[k] = v
	}
	telemetry.Info("audit.status", fields)
}

func (s *Service) jobBudget() time.Duration {
	if s.JobBudget > 0 {
		return s.JobBudget
	}
	return 2 * time.Minute
}

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}
