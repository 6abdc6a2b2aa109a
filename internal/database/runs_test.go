package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockConnection(t *testing.T) (*Connection, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &Connection{DB: db}, mock
}

func TestInsertRun(t *testing.T) {
	conn, mock := newMockConnection(t)

	mock.ExpectQuery("INSERT INTO report_runs").
		WithArgs("Acme Corp", "2026-01-01", "2026-01-03", RunStatusRunning, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	run := &ReportRun{Tenant: "Acme Corp", StartDate: "2026-01-01", EndDate: "2026-01-03"}
	if err := conn.InsertRun(context.Background(), run); err != nil {
		t.Fatalf("InsertRun() error: %v", err)
	}

	if run.ID != 7 {
		t.Errorf("run.ID = %d, want 7", run.ID)
	}
	if run.Status != RunStatusRunning {
		t.Errorf("run.Status = %q, want %q", run.Status, RunStatusRunning)
	}
	if run.CreatedAt.IsZero() {
		t.Error("run.CreatedAt should be filled in")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCompleteRun(t *testing.T) {
	conn, mock := newMockConnection(t)

	mock.ExpectExec("UPDATE report_runs").
		WithArgs(RunStatusCompleted, "/reports/Acme Corp_20260101-20260103", sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := conn.CompleteRun(context.Background(), 7, "/reports/Acme Corp_20260101-20260103")
	if err != nil {
		t.Fatalf("CompleteRun() error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestFailRun(t *testing.T) {
	conn, mock := newMockConnection(t)

	mock.ExpectExec("UPDATE report_runs").
		WithArgs(RunStatusFailed,
			sql.NullString{String: "search failed", Valid: true},
			sqlmock.AnyArg(), 9).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := conn.FailRun(context.Background(), 9, "search failed"); err != nil {
		t.Fatalf("FailRun() error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetRun(t *testing.T) {
	conn, mock := newMockConnection(t)

	created := time.Date(2026, 1, 4, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "tenant", "start_date", "end_date", "status",
		"artifact_dir", "error_message", "created_at", "completed_at",
	}).AddRow(7, "Acme Corp", "2026-01-01", "2026-01-03", RunStatusCompleted,
		"/reports/run", nil, created, created.Add(time.Minute))

	mock.ExpectQuery("SELECT (.+) FROM report_runs").
		WithArgs(7).
		WillReturnRows(rows)

	run, err := conn.GetRun(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetRun() error: %v", err)
	}

	if run.Tenant != "Acme Corp" || run.Status != RunStatusCompleted {
		t.Errorf("run = %+v", run)
	}
	if !run.ArtifactDir.Valid || run.ArtifactDir.String != "/reports/run" {
		t.Errorf("run.ArtifactDir = %+v", run.ArtifactDir)
	}
	if run.ErrorMessage.Valid {
		t.Errorf("run.ErrorMessage = %+v, want NULL", run.ErrorMessage)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	conn, mock := newMockConnection(t)

	mock.ExpectQuery("SELECT (.+) FROM report_runs").
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	if _, err := conn.GetRun(context.Background(), 99); err != ErrRunNotFound {
		t.Fatalf("GetRun() error = %v, want ErrRunNotFound", err)
	}
}

func TestListRuns(t *testing.T) {
	conn, mock := newMockConnection(t)

	created := time.Date(2026, 1, 4, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "tenant", "start_date", "end_date", "status",
		"artifact_dir", "error_message", "created_at", "completed_at",
	}).
		AddRow(8, "Acme Corp", "2026-01-02", "2026-01-04", RunStatusRunning, nil, nil, created, nil).
		AddRow(7, "Acme Corp", "2026-01-01", "2026-01-03", RunStatusCompleted, "/reports/run", nil, created, created)

	mock.ExpectQuery("SELECT (.+) FROM report_runs").
		WithArgs("Acme Corp", 50).
		WillReturnRows(rows)

	runs, err := conn.ListRuns(context.Background(), "Acme Corp", 50)
	if err != nil {
		t.Fatalf("ListRuns() error: %v", err)
	}

	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].ID != 8 || runs[1].ID != 7 {
		t.Errorf("run order = [%d %d], want newest first", runs[0].ID, runs[1].ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestEnsureSchema(t *testing.T) {
	conn, mock := newMockConnection(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS report_runs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := conn.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
