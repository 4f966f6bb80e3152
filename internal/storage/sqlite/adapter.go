package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kurihiro0119/github-org-audit/internal/domain"
	apperrors "github.com/kurihiro0119/github-org-audit/internal/errors"
	"github.com/kurihiro0119/github-org-audit/internal/storage"
)

const defaultRunLimit = 20

// sqliteStorage implements the Storage interface for SQLite
type sqliteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (storage.Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &sqliteStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *sqliteStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_runs (
		id TEXT PRIMARY KEY,
		org TEXT NOT NULL,
		command TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_runs_org_started ON audit_runs(org, started_at);

	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES audit_runs(id),
		check_type TEXT NOT NULL,
		subject TEXT NOT NULL,
		detail TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
	CREATE INDEX IF NOT EXISTS idx_findings_check ON findings(check_type);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveRun saves or updates an audit run
func (s *sqliteStorage) SaveRun(ctx context.Context, run *domain.AuditRun) error {
	query := `
		INSERT OR REPLACE INTO audit_runs (id, org, command, status, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.Org,
		run.Command,
		string(run.Status),
		nullString(run.Error),
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
	)
	return err
}

// GetRun retrieves a single audit run
func (s *sqliteStorage) GetRun(ctx context.Context, id string) (*domain.AuditRun, error) {
	query := `
		SELECT id, org, command, status, error, started_at, finished_at
		FROM audit_runs
		WHERE id = ?
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
func (s *sqliteStorage) GetRuns(ctx context.Context, org string, limit int) ([]*domain.AuditRun, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	query := `
		SELECT id, org, command, status, error, started_at, finished_at
		FROM audit_runs
		WHERE org = ?
		ORDER BY started_at DESC
		LIMIT ?
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
func (s *sqliteStorage) SaveFindings(ctx context.Context, findings []*domain.Finding) error {
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
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, finding := range findings {
		_, err := stmt.ExecContext(ctx,
			finding.RunID,
			string(finding.Check),
			finding.Subject,
			nullString(finding.Detail),
			finding.CreatedAt.UTC(),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetFindings retrieves the findings of a run in insertion order
func (s *sqliteStorage) GetFindings(ctx context.Context, runID string) ([]*domain.Finding, error) {
	query := `
		SELECT run_id, check_type, subject, detail, created_at
		FROM findings
		WHERE run_id = ?
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
		if detail.Valid {
			f.Detail = detail.String
		}
		findings = append(findings, &f)
	}

	return findings, rows.Err()
}

// Close closes the database connection
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*domain.AuditRun, error) {
	var r domain.AuditRun
	var status string
	var runErr sql.NullString

	if err := row.Scan(&r.ID, &r.Org, &r.Command, &status, &runErr, &r.StartedAt, &r.FinishedAt); err != nil {
		return nil, err
	}

	r.Status = domain.RunStatus(status)
	if runErr.Valid {
		r.Error = runErr.String
	}
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
