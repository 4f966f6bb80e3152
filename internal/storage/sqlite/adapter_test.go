package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/github-org-audit/internal/domain"
	apperrors "github.com/kurihiro0119/github-org-audit/internal/errors"
	"github.com/kurihiro0119/github-org-audit/internal/storage"
)

func newTestStorage(t *testing.T) storage.Storage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStorage_RunsRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-1", "run-2", "run-3"} {
		run := &domain.AuditRun{
			ID:         id,
			Org:        "docker",
			Command:    "audit",
			Status:     domain.RunStatusCompleted,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute),
		}
		require.NoError(t, store.SaveRun(ctx, run))
	}
	require.NoError(t, store.SaveRun(ctx, &domain.AuditRun{
		ID: "other", Org: "moby", Command: "twofactorauth", Status: domain.RunStatusFailed,
		Error: "boom", StartedAt: base, FinishedAt: base,
	}))

	runs, err := store.GetRuns(ctx, "docker", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-3", runs[0].ID)
	assert.Equal(t, "run-2", runs[1].ID)
	assert.True(t, base.Add(2*time.Hour).Equal(runs[0].StartedAt))

	run, err := store.GetRun(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, run.Status)
	assert.Equal(t, "boom", run.Error)
	assert.Equal(t, "moby", run.Org)
}

func TestSQLiteStorage_GetRunNotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetRun(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSQLiteStorage_SaveRunUpdatesExisting(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	run := &domain.AuditRun{ID: "r", Org: "docker", Command: "audit", Status: domain.RunStatusFailed, StartedAt: now, FinishedAt: now}
	require.NoError(t, store.SaveRun(ctx, run))
	run.Status = domain.RunStatusCompleted
	require.NoError(t, store.SaveRun(ctx, run))

	runs, err := store.GetRuns(ctx, "docker", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunStatusCompleted, runs[0].Status)
}

func TestSQLiteStorage_Findings(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveRun(ctx, &domain.AuditRun{ID: "r1", Org: "docker", Command: "audit", Status: domain.RunStatusCompleted, StartedAt: now, FinishedAt: now}))
	require.NoError(t, store.SaveFindings(ctx, []*domain.Finding{
		{RunID: "r1", Check: domain.CheckTwoFactorDisabled, Subject: "jdoe", Detail: "Jane Doe", CreatedAt: now},
		{RunID: "r1", Check: domain.CheckRepoWithoutAdmin, Subject: "cli", CreatedAt: now},
	}))
	require.NoError(t, store.SaveFindings(ctx, nil))

	findings, err := store.GetFindings(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, findings, 2)
	assert.Equal(t, domain.CheckTwoFactorDisabled, findings[0].Check)
	assert.Equal(t, "Jane Doe", findings[0].Detail)
	assert.Equal(t, "cli", findings[1].Subject)
	assert.Equal(t, "", findings[1].Detail)
	assert.True(t, now.Equal(findings[1].CreatedAt))

	none, err := store.GetFindings(ctx, "r2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStorage_MigrateIsIdempotent(t *testing.T) {
	store := newTestStorage(t)
	assert.NoError(t, store.Migrate(context.Background()))
}

func TestSQLiteStorage_QueryFailureIsInternalError(t *testing.T) {
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.GetRuns(context.Background(), "docker", 5)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeInternal, appErr.Code)

	_, err = store.GetRun(context.Background(), "r1")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeInternal, appErr.Code)
	assert.False(t, apperrors.IsNotFound(err))

	_, err = store.GetFindings(context.Background(), "r1")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeInternal, appErr.Code)
}
