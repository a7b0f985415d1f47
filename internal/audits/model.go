package audits

import "time"

const (
	StateReceived  = "received"
	StateValidated = "validated"
	StateAnalyzed  = "analyzed"
	StateRendered  = "rendered"
	StateDelivered = "delivered"
	StateFailed    = "failed"
)

const (
	StageIntake   = "intake"
	StageAnalysis = "analysis"
	StageRender   = "render"
	StageDelivery = "delivery"
	StageTimeout  = "timeout"
)

// AuditRequest is the validated intake payload for one audit job.
type AuditRequest struct {
	SubjectName    string                       `json:"subject_name"`
	ContactName    string                       `json:"contact_name"`
	ContactAddress string                       `json:"contact_address"`
	Industry       string                       `json:"industry"`
	SizeCategory   string                       `json:"size_category"`
	ScaleMetric    string                       `json:"scale_metric"`
	CategoryFields map[string]map[string]string `json:"category_fields"`
}

// AuditJob tracks one request through the pipeline.
type AuditJob struct {
	ID            string          `json:"id"`
	State         string          `json:"state"`
	Request       AuditRequest    `json:"request"`
	Analysis      *AnalysisResult `json:"analysis,omitempty"`
	FallbackUsed  bool            `json:"fallbackUsed"`
	FailedStage   string          `json:"failedStage,omitempty"`
	FailureReason string          `json:"failureReason,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	StartedAt     *time.Time      `json:"startedAt,omitempty"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Terminal reports whether the job has reached a terminal state.
func (j AuditJob) Terminal() bool {
	return j.State == StateDelivered || j.State == StateFailed
}
