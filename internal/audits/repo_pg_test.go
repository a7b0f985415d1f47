package audits

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	job := AuditJob{
		ID:        "job-1",
		State:     StateReceived,
		Request:   validRequest(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_jobs")).
		WithArgs(
			job.ID, job.State, sqlmock.AnyArg(), nil, false, nil, nil,
			job.CreatedAt, nil, nil, job.UpdatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &PGRepo{DB: db}
	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_jobs")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "state", "request", "analysis", "fallback_used", "failed_stage",
			"failure_reason", "created_at", "started_at", "completed_at", "updated_at",
		}))

	_, err = repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoGetByIDScansAnalysis(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "state", "request", "analysis", "fallback_used", "failed_stage",
		"failure_reason", "created_at", "started_at", "completed_at", "updated_at",
	}).AddRow(
		"job-1", StateAnalyzed,
		[]byte(`{"subject_name":"Acme","contact_name":"J","contact_address":"j@acme.example","industry":"Mfg","size_category":"Mid","scale_metric":"120","category_fields":{"Ops":{"a":"b"}}}`),
		sampleResultJSON, true, nil, nil, now, now, nil, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_jobs")).WithArgs("job-1").WillReturnRows(rows)

	job, err := repo.GetByID(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.Analysis == nil || job.Analysis.Summary.OverallRiskScore != 72 {
		t.Fatalf("expected scanned analysis, got %+v", job.Analysis)
	}
	if !job.FallbackUsed {
		t.Fatal("expected fallback flag scanned")
	}
	if job.Request.SubjectName != "Acme" {
		t.Fatalf("expected scanned request, got %+v", job.Request)
	}
}

func TestPGRepoUpdateStateNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &PGRepo{DB: db}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE audit_jobs")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateState(context.Background(), "missing", StateFailed, StateUpdate{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
