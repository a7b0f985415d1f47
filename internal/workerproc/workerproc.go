package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"audit-backend/internal/audits"
	"audit-backend/internal/bootstrap"
	"audit-backend/internal/queue"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingJobID indicates a message missing the job id.
type ErrMissingJobID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingJobID) Error() string { return "missing job id" }

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	JobID     string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process job"
	}
	return "process job: " + e.Err.Error()
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.JobID) == "" {
		return msg, meta, ErrMissingJobID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg queue.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (queue.Message, bool) {
	if ctx == nil {
		return queue.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(queue.Message)
	return msg, ok
}

// HandleMessage parses, validates, and processes a message payload. When the
// message carries the intake request and the consumer's journal has no entry
// for the job, the job is journaled first so processing can proceed.
func HandleMessage(ctx context.Context, app *bootstrap.App, body string) error {
	if app == nil || app.AuditService == nil {
		return errors.New("audit service not configured")
	}
	processor := app.JobProcessor
	if processor == nil {
		processor = app.AuditService
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			return err
		}
	}

	if strings.TrimSpace(msg.JobID) == "" {
		return ErrMissingJobID{Meta: ComputeMeta(body), RequestID: msg.RequestID}
	}

	if err := ensureJournaled(ctx, app.Repo, msg); err != nil {
		return ErrProcess{JobID: msg.JobID, RequestID: msg.RequestID, Err: err}
	}

	ctxWithRequest := audits.WithRequestID(ctx, msg.RequestID)
	if err := processor.ProcessJob(ctxWithRequest, msg.JobID); err != nil {
		return ErrProcess{JobID: msg.JobID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}

func ensureJournaled(ctx context.Context, repo audits.Repo, msg queue.Message) error {
	if repo == nil {
		return errors.New("job journal not configured")
	}
	_, err := repo.GetByID(ctx, msg.JobID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, audits.ErrNotFound) {
		return err
	}
	if len(msg.Request) == 0 {
		return errors.New("job not journaled and message carries no request")
	}
	var req audits.AuditRequest
	if err := json.Unmarshal(msg.Request, &req); err != nil {
		return errors.New("decode embedded request: " + err.Error())
	}
	now := time.Now().UTC()
	return repo.Create(ctx, audits.AuditJob{
		ID:        msg.JobID,
		State:     audits.StateValidated,
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
	})
}
