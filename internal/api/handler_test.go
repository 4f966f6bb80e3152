package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/github-org-audit/internal/domain"
	apperrors "github.com/kurihiro0119/github-org-audit/internal/errors"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeStore struct {
	runs      []*domain.AuditRun
	findings  map[string][]*domain.Finding
	lastLimit int
	err       error
}

func (f *fakeStore) SaveRun(ctx context.Context, run *domain.AuditRun) error { return nil }

func (f *fakeStore) GetRun(ctx context.Context, id string) (*domain.AuditRun, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, run := range f.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, apperrors.NewNotFoundError("run " + id)
}

func (f *fakeStore) GetRuns(ctx context.Context, org string, limit int) ([]*domain.AuditRun, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.AuditRun
	for _, run := range f.runs {
		if run.Org == org {
			out = append(out, run)
		}
	}
	return out, nil
}

func (f *fakeStore) SaveFindings(ctx context.Context, findings []*domain.Finding) error { return nil }

func (f *fakeStore) GetFindings(ctx context.Context, runID string) ([]*domain.Finding, error) {
	return f.findings[runID], nil
}

func (f *fakeStore) Migrate(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                      { return nil }

func newStore() *fakeStore {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return &fakeStore{
		runs: []*domain.AuditRun{
			{ID: "r1", Org: "docker", Command: "audit", Status: domain.RunStatusCompleted, StartedAt: now, FinishedAt: now},
			{ID: "r2", Org: "moby", Command: "twofactorauth", Status: domain.RunStatusFailed, Error: "boom", StartedAt: now, FinishedAt: now},
		},
		findings: map[string][]*domain.Finding{
			"r1": {{RunID: "r1", Check: domain.CheckRepoWithoutAdmin, Subject: "cli", CreatedAt: now}},
		},
	}
}

func serve(t *testing.T, store *fakeStore, path string) (int, map[string]json.RawMessage) {
	t.Helper()
	router := SetupRoutes(NewHandler(store), nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealthCheck(t *testing.T) {
	code, body := serve(t, newStore(), "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `"ok"`, string(body["status"]))
}

func TestGetRuns(t *testing.T) {
	store := newStore()
	code, body := serve(t, store, "/api/v1/orgs/docker/runs?limit=5")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 5, store.lastLimit)

	var runs []*domain.AuditRun
	require.NoError(t, json.Unmarshal(body["data"], &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "r1", runs[0].ID)
}

func TestGetRuns_LimitBounds(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", defaultRunLimit},
		{"?limit=7", 7},
		{"?limit=1000", maxRunLimit},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			store := newStore()
			code, _ := serve(t, store, "/api/v1/orgs/docker/runs"+tt.query)
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, tt.want, store.lastLimit)
		})
	}
}

func TestGetRuns_MalformedLimitIsBadRequest(t *testing.T) {
	for _, query := range []string{"?limit=abc", "?limit=-3", "?limit=0"} {
		t.Run(query, func(t *testing.T) {
			store := newStore()
			code, body := serve(t, store, "/api/v1/orgs/docker/runs"+query)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Contains(t, string(body["error"]), `"code":"BAD_REQUEST"`)
			assert.Zero(t, store.lastLimit)
		})
	}
}

func TestGetRun(t *testing.T) {
	code, body := serve(t, newStore(), "/api/v1/runs/r2")
	require.Equal(t, http.StatusOK, code)

	var run domain.AuditRun
	require.NoError(t, json.Unmarshal(body["data"], &run))
	assert.Equal(t, domain.RunStatusFailed, run.Status)
	assert.Equal(t, "boom", run.Error)
}

func TestGetRun_NotFound(t *testing.T) {
	code, body := serve(t, newStore(), "/api/v1/runs/missing")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, string(body["error"]), `"code":"NOT_FOUND"`)
}

func TestGetFindings(t *testing.T) {
	code, body := serve(t, newStore(), "/api/v1/runs/r1/findings")
	require.Equal(t, http.StatusOK, code)

	var findings []*domain.Finding
	require.NoError(t, json.Unmarshal(body["data"], &findings))
	require.Len(t, findings, 1)
	assert.Equal(t, "cli", findings[0].Subject)
}

func TestGetFindings_UnknownRun(t *testing.T) {
	code, _ := serve(t, newStore(), "/api/v1/runs/missing/findings")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestWrappedStorageFailureKeepsItsMessage(t *testing.T) {
	store := newStore()
	store.err = apperrors.NewInternalError("failed to query runs", errors.New("disk I/O error"))

	code, body := serve(t, store, "/api/v1/orgs/docker/runs")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, string(body["error"]), `"message":"failed to query runs"`)
	assert.NotContains(t, string(body["error"]), "disk I/O")
}

func TestStorageFailureIsInternalError(t *testing.T) {
	store := newStore()
	store.err = errors.New("database is locked")

	code, body := serve(t, store, "/api/v1/orgs/docker/runs")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, string(body["error"]), "INTERNAL_ERROR")
	assert.Contains(t, string(body["error"]), "database is locked")
}

func TestCORSPreflight(t *testing.T) {
	router := SetupRoutes(NewHandler(newStore()), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/runs/r1", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
