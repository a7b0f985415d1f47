package workerproc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"audit-backend/internal/audits"
	"audit-backend/internal/bootstrap"
	"audit-backend/internal/queue"
)

type recordingProcessor struct {
	jobIDs []string
	err    error
}

func (p *recordingProcessor) ProcessJob(ctx context.Context, jobID string) error {
	p.jobIDs = append(p.jobIDs, jobID)
	return p.err
}

func testRequest() audits.AuditRequest {
	return audits.AuditRequest{
		SubjectName:    "Acme Manufacturing",
		ContactName:    "Jordan Lee",
		ContactAddress: "jordan@acme.example",
		Industry:       "Manufacturing",
		SizeCategory:   "Mid-market",
		ScaleMetric:    "120 employees",
		CategoryFields: map[string]map[string]string{
			"Operations": {"automation": "manual"},
		},
	}
}

func testApp(repo audits.Repo, proc bootstrap.JobProcessor) *bootstrap.App {
	return &bootstrap.App{
		Repo:         repo,
		AuditService: &audits.Service{Repo: repo},
		JobProcessor: proc,
	}
}

func TestParseMessageEmptyBody(t *testing.T) {
	_, meta, err := ParseMessage("   ")
	var empty ErrEmptyBody
	if !errors.As(err, &empty) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
	if meta.BodyLen != 3 {
		t.Fatalf("expected body length 3, got %d", meta.BodyLen)
	}
}

func TestParseMessageDecodeFailure(t *testing.T) {
	_, meta, err := ParseMessage("{broken")
	var decode ErrDecode
	if !errors.As(err, &decode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if meta.BodySHA == "" {
		t.Fatal("expected body hash for diagnostics")
	}
}

func TestParseMessageMissingJobID(t *testing.T) {
	_, _, err := ParseMessage(`{"requestId":"req-1","version":1}`)
	var missing ErrMissingJobID
	if !errors.As(err, &missing) {
		t.Fatalf("expected ErrMissingJobID, got %v", err)
	}
	if missing.RequestID != "req-1" {
		t.Fatalf("expected request id carried, got %q", missing.RequestID)
	}
}

func TestParseMessageValid(t *testing.T) {
	msg, meta, err := ParseMessage(`{"jobId":"job-1","requestId":"req-1","version":1}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if msg.JobID != "job-1" || msg.RequestID != "req-1" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if meta.BodyLen == 0 || meta.BodySHA == "" {
		t.Fatalf("expected populated meta, got %+v", meta)
	}
}

func TestHandleMessageProcessesJournaledJob(t *testing.T) {
	repo := audits.NewMemoryRepo()
	now := time.Now().UTC()
	if err := repo.Create(context.Background(), audits.AuditJob{
		ID: "job-1", State: audits.StateValidated, Request: testRequest(),
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	proc := &recordingProcessor{}

	body := `{"jobId":"job-1","requestId":"req-1","version":1}`
	if err := HandleMessage(context.Background(), testApp(repo, proc), body); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(proc.jobIDs) != 1 || proc.jobIDs[0] != "job-1" {
		t.Fatalf("expected job-1 processed once, got %v", proc.jobIDs)
	}
}

func TestHandleMessageJournalsFromEmbeddedRequest(t *testing.T) {
	repo := audits.NewMemoryRepo()
	proc := &recordingProcessor{}

	reqJSON, err := json.Marshal(testRequest())
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	payload, err := queue.EncodeMessage(queue.Message{
		JobID: "job-2", RequestID: "req-2", Version: 1, Request: reqJSON,
	})
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}

	if err := HandleMessage(context.Background(), testApp(repo, proc), string(payload)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	job, err := repo.GetByID(context.Background(), "job-2")
	if err != nil {
		t.Fatalf("journaled job missing: %v", err)
	}
	if job.State != audits.StateValidated {
		t.Fatalf("expected validated state, got %s", job.State)
	}
	if job.Request.SubjectName != "Acme Manufacturing" {
		t.Fatalf("expected embedded request journaled, got %+v", job.Request)
	}
	if len(proc.jobIDs) != 1 {
		t.Fatalf("expected processing after journaling, got %v", proc.jobIDs)
	}
}

func TestHandleMessageUnknownJobWithoutRequest(t *testing.T) {
	repo := audits.NewMemoryRepo()
	proc := &recordingProcessor{}

	body := `{"jobId":"ghost","requestId":"req-3","version":1}`
	err := HandleMessage(context.Background(), testApp(repo, proc), body)
	var perr ErrProcess
	if !errors.As(err, &perr) {
		t.Fatalf("expected ErrProcess, got %v", err)
	}
	if perr.JobID != "ghost" {
		t.Fatalf("expected job id in error, got %q", perr.JobID)
	}
	if len(proc.jobIDs) != 0 {
		t.Fatalf("unjournalable job must not be processed, got %v", proc.jobIDs)
	}
}

func TestHandleMessageWrapsProcessorError(t *testing.T) {
	repo := audits.NewMemoryRepo()
	now := time.Now().UTC()
	if err := repo.Create(context.Background(), audits.AuditJob{
		ID: "job-4", State: audits.StateValidated, Request: testRequest(),
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	proc := &recordingProcessor{err: errors.New("render failed")}

	err := HandleMessage(context.Background(), testApp(repo, proc), `{"jobId":"job-4","requestId":"req-4","version":1}`)
	var perr ErrProcess
	if !errors.As(err, &perr) {
		t.Fatalf("expected ErrProcess, got %v", err)
	}
	if perr.Err == nil || perr.Err.Error() != "render failed" {
		t.Fatalf("expected wrapped processor error, got %v", perr.Err)
	}
}

func TestHandleMessageUsesParsedMessageFromContext(t *testing.T) {
	repo := audits.NewMemoryRepo()
	now := time.Now().UTC()
	if err := repo.Create(context.Background(), audits.AuditJob{
		ID: "job-5", State: audits.StateValidated, Request: testRequest(),
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	proc := &recordingProcessor{}

	ctx := WithParsedMessage(context.Background(), queue.Message{JobID: "job-5", RequestID: "req-5", Version: 1})
	// Body is ignored when the parsed message rides on the context.
	if err := HandleMessage(ctx, testApp(repo, proc), "{broken"); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(proc.jobIDs) != 1 || proc.jobIDs[0] != "job-5" {
		t.Fatalf("expected job-5 processed, got %v", proc.jobIDs)
	}
}
