package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/kurihiro0119/github-org-audit/internal/domain"
	apperrors "github.com/kurihiro0119/github-org-audit/internal/errors"
	"github.com/kurihiro0119/github-org-audit/internal/storage"
)

const defaultRunLimit = 20

// postgresStorage implements the Storage interface for PostgreSQL
type postgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage creates a new PostgreSQL storage instance
func NewPostgresStorage(connStr string) (storage.Storage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &postgresStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *postgresStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_runs (
		id VARCHAR(64) PRIMARY KEY,
		org VARCHAR(255) NOT NULL,
		command VARCHAR(64) NOT NULL,
		status VARCHAR(32) NOT NULL,
		error TEXT,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_runs_org_started ON audit_runs(org, started_at DESC);

	CREATE TABLE IF NOT EXISTS findings (
		id BIGSERIAL PRIMARY KEY,
		run_id VARCHAR(64) NOT NULL REFERENCES audit_runs(id) ON DELETE CASCADE,
		check_type VARCHAR(64) NOT NULL,
		subject VARCHAR(255) NOT NULL,
		detail TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
	CREATE INDEX IF NOT EXISTS idx_findings_check ON findings(check_type);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveRun saves or updates an audit run
func (s *postgresStorage) SaveRun(ctx context.Context, run *domain.AuditRun) error {
	query := `
		INSERT INTO audit_runs (id, org, command, status, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			finished_at = EXCLUDED.finished_at
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.Org,
		run.Command,
		string(run.Status),
		nullString(run.Error),
		run.StartedAt,
		run.FinishedAt,
	)
	return err
}

// GetRun retrieves a single audit run
func (s *postgresStorage) GetRun(ctx context.Context, id string) (*domain.AuditRun, error) {
	query := `
		SELECT id, org, command, status, error, started_at, finished_at
		FROM audit_runs
		WHERE id = $1
	`
	run, err := scanRun(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("run %s", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query run", err)
	}
	return run, nil
}

// GetRuns retrieves the most recent runs for an organization
func (s *postgresStorage) GetRuns(ctx context.Context, org string, limit int) ([]*domain.AuditRun, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	query := `
		SELECT id, org, command, status, error, started_at, finished_at
		FROM audit_runs
		WHERE org = $1
		ORDER BY started_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, org, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query runs", err)
	}
	defer rows.Close()

	var runs []*domain.AuditRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// SaveFindings saves the findings of a run in a single transaction
func (s *postgresStorage) SaveFindings(ctx context.Context, findings []*domain.Finding) error {
	if len(findings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO findings (run_id, check_type, subject, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, finding := range findings {
		if _, err := stmt.ExecContext(ctx,
			finding.RunID,
			string(finding.Check),
			finding.Subject,
			nullString(finding.Detail),
			finding.CreatedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetFindings retrieves the findings of a run in insertion order
func (s *postgresStorage) GetFindings(ctx context.Context, runID string) ([]*domain.Finding, error) {
	query := `
		SELECT run_id, check_type, subject, detail, created_at
		FROM findings
		WHERE run_id = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query findings", err)
	}
	defer rows.Close()

	var findings []*domain.Finding
	for rows.Next() {
		var f domain.Finding
		var check string
		var detail sql.NullString

		if err := rows.Scan(&f.RunID, &check, &f.Subject, &detail, &f.CreatedAt); err != nil {
			return nil, err
		}

		f.Check = domain.CheckType(check)
		f.Detail = detail.String
		findings = append(findings, &f)
	}

	return findings, rows.Err()
}

// Close closes the database connection
func (s *postgresStorage) Close() error {
	return s.db.Close()
}

func scanRun(row interface{ Scan(dest ...interface{}) error }) (*domain.AuditRun, error) {
	var r domain.AuditRun
	var status string
	var runErr sql.NullString

	if err := row.Scan(&r.ID, &r.Org, &r.Command, &status, &runErr, &r.StartedAt, &r.FinishedAt); err != nil {
		return nil, err
	}

	r.Status = domain.RunStatus(status)
	r.Error = runErr.String
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
