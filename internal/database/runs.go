package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Report run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ErrRunNotFound is returned when a report run is not found.
var ErrRunNotFound = errors.New("report run not found")

// ReportRun is one generated-report record in the run registry.
type ReportRun struct {
	ID           int
	Tenant       string
	StartDate    string
	EndDate      string
	Status       string
	ArtifactDir  sql.NullString
	ErrorMessage sql.NullString
	CreatedAt    time.Time
	CompletedAt  sql.NullTime
}

const runSchema = `
	CREATE TABLE IF NOT EXISTS report_runs (
		id SERIAL PRIMARY KEY,
		tenant TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		artifact_dir TEXT,
		error_message TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ
	)
`

// EnsureSchema creates the run registry table when missing.
func (c *Connection) EnsureSchema(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, runSchema); err != nil {
		return fmt.Errorf("failed to create report_runs table: %w", err)
	}
	return nil
}

// InsertRun records a new report run and fills in its ID.
func (c *Connection) InsertRun(ctx context.Context, run *ReportRun) error {
	query := `
		INSERT INTO report_runs (tenant, start_date, end_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = RunStatusRunning
	}

	err := c.DB.QueryRowContext(ctx, query,
		run.Tenant,
		run.StartDate,
		run.EndDate,
		run.Status,
		run.CreatedAt,
	).Scan(&run.ID)

	if err != nil {
		return fmt.Errorf("failed to insert report run: %w", err)
	}

	return nil
}

// CompleteRun marks a run as completed and records its artifact directory.
func (c *Connection) CompleteRun(ctx context.Context, id int, artifactDir string) error {
	query := `
		UPDATE report_runs
		SET status = $1, artifact_dir = $2, completed_at = $3
		WHERE id = $4
	`

	_, err := c.DB.ExecContext(ctx, query, RunStatusCompleted, artifactDir, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to complete report run: %w", err)
	}

	return nil
}

// FailRun marks a run as failed with its error message.
func (c *Connection) FailRun(ctx context.Context, id int, errorMsg string) error {
	query := `
		UPDATE report_runs
		SET status = $1, error_message = $2, completed_at = $3
		WHERE id = $4
	`

	var errMsg sql.NullString
	if errorMsg != "" {
		errMsg = sql.NullString{String: errorMsg, Valid: true}
	}

	_, err := c.DB.ExecContext(ctx, query, RunStatusFailed, errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to fail report run: %w", err)
	}

	return nil
}

// GetRun retrieves one report run by ID.
func (c *Connection) GetRun(ctx context.Context, id int) (*ReportRun, error) {
	query := `
		SELECT id, tenant, start_date, end_date, status, artifact_dir, error_message, created_at, completed_at
		FROM report_runs
		WHERE id = $1
	`

	run := &ReportRun{}
	err := c.DB.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&run.Tenant,
		&run.StartDate,
		&run.EndDate,
		&run.Status,
		&run.ArtifactDir,
		&run.ErrorMessage,
		&run.CreatedAt,
		&run.CompletedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report run: %w", err)
	}

	return run, nil
}

// ListRuns lists report runs, newest first. A non-empty tenant restricts
// the listing to that tenant.
func (c *Connection) ListRuns(ctx context.Context, tenant string, limit int) ([]*ReportRun, error) {
	query := `
		SELECT id, tenant, start_date, end_date, status, artifact_dir, error_message, created_at, completed_at
		FROM report_runs
		WHERE ($1 = '' OR tenant = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := c.DB.QueryContext(ctx, query, tenant, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list report runs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanRunRows(rows)
}

// scanRunRows scans rows into a ReportRun slice.
func scanRunRows(rows *sql.Rows) ([]*ReportRun, error) {
	var runs []*ReportRun
	for rows.Next() {
		run := &ReportRun{}
		if scanErr := rows.Scan(
			&run.ID,
			&run.Tenant,
			&run.StartDate,
			&run.EndDate,
			&run.Status,
			&run.ArtifactDir,
			&run.ErrorMessage,
			&run.CreatedAt,
			&run.CompletedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan report run: %w", scanErr)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return runs, nil
}
