package audits

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("not found")

const (
	ErrorCodeValidation        = "VALIDATION_ERROR"
	ErrorCodeLLMTimeout        = "LLM_TIMEOUT"
	ErrorCodeLLMSchemaMismatch = "LLM_SCHEMA_MISMATCH"
	ErrorCodeRender            = "RENDER_ERROR"
	ErrorCodeDelivery          = "DELIVERY_ERROR"
	ErrorCodeBudgetExceeded    = "BUDGET_EXCEEDED"
	ErrorCodeInternal          = "INTERNAL_ERROR"
)

func classifyFailure(stage string, err error) string {
	if err == nil {
		return ErrorCodeInternal
	}
	if stage == StageTimeout {
		return ErrorCodeBudgetExceeded
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeLLMTimeout
	}
	msg := strings.ToLower(err.Error())
	switch stage {
	case StageIntake:
		return ErrorCodeValidation
	case StageRender:
		return ErrorCodeRender
	case StageDelivery:
		return ErrorCodeDelivery
	}
	if strings.Contains(msg, "schema") || strings.Contains(msg, "parse") {
		return ErrorCodeLLMSchemaMismatch
	}
	if strings.Contains(msg, "timeout") {
		return ErrorCodeLLMTimeout
	}
	return ErrorCodeInternal
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
