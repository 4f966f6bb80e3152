package storage

import (
	"context"

	"github.com/kurihiro0119/github-org-audit/internal/domain"
)

// Storage is the abstract interface for the audit history store
type Storage interface {
	// Run operations
	SaveRun(ctx context.Context, run *domain.AuditRun) error
	GetRun(ctx context.Context, id string) (*domain.AuditRun, error)
	GetRuns(ctx context.Context, org string, limit int) ([]*domain.AuditRun, error)

	// Finding operations
	SaveFindings(ctx context.Context, findings []*domain.Finding) error
	GetFindings(ctx context.Context, runID string) ([]*domain.Finding, error)

	// Migration
	Migrate(ctx context.Context) error

	// Connection management
	Close() error
}
