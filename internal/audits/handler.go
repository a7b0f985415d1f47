package audits

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"audit-backend/internal/shared/server/middleware"
	"audit-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the audits service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches audit routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/audits", h.submitAudit)
	rg.GET("/audits", h.listAudits)
	rg.GET("/audits/:id", h.getAudit)
}

func (h *Handler) submitAudit(c *gin.Context) {
	var req AuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "request body must be valid JSON", []map[string]string{
			{"field": "body", "reason": "malformed JSON"},
		})
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	job, _, err := h.Svc.Submit(ctx, req)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			respond.Error(c, http.StatusUnprocessableEntity, "validation_error", verr.Error(), []map[string]string{
				{"field": verr.Field, "reason": verr.Reason},
			})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to accept audit request", nil)
		return
	}

	c.Set("jobId", job.ID)
	c.Set("statusTransition", StateReceived+"->"+StateValidated)
	respond.JSON(c, http.StatusAccepted, gin.H{
		"status":  "accepted",
		"job_id":  job.ID,
		"message": "audit accepted for processing",
	})
}

func (h *Handler) getAudit(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "job id is required", nil)
		return
	}

	job, err := h.Svc.Get(c.Request.Context(), jobID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "audit job not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch audit job", nil)
		}
		return
	}

	resp := gin.H{
		"job_id":       job.ID,
		"state":        job.State,
		"fallbackUsed": job.FallbackUsed,
		"createdAt":    job.CreatedAt,
	}
	if job.State == StateFailed {
		resp["failedStage"] = job.FailedStage
		resp["failureReason"] = job.FailureReason
	}
	if job.CompletedAt != nil {
		resp["completedAt"] = job.CompletedAt
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) listAudits(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	jobs, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list audit jobs", nil)
		return
	}

	resp := make([]gin.H, 0, len(jobs))
	for _, job := range jobs {
		resp = append(resp, gin.H{
			"job_id":    job.ID,
			"state":     job.State,
			"subject":   job.Request.SubjectName,
			"createdAt": job.CreatedAt,
		})
	}
	respond.JSON(c, http.StatusOK, gin.H{"audits": resp})
}
