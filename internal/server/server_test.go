package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovalyov-valentin/research-digest/internal/job"
	"github.com/kovalyov-valentin/research-digest/internal/model"
)

type stubRunner struct {
	res  model.JobResult
	err  error
	jobs []model.JobType
}

func (r *stubRunner) Run(_ context.Context, jobType model.JobType) (model.JobResult, error) {
	r.jobs = append(r.jobs, jobType)
	res := r.res
	res.JobType = jobType
	return res, r.err
}

func serve(t *testing.T, h http.Handler, path, auth string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTriggersReturnJobResult(t *testing.T) {
	runner := &stubRunner{res: model.JobResult{Success: true, QueriesProcessed: 13, UrgentItemsFound: 2, EmailSent: true, Errors: []string{}}}
	h := New(runner, "").Handler()

	rec := serve(t, h, "/api/cron/morning", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "morning", body["jobType"])
	assert.EqualValues(t, 13, body["queriesProcessed"])
	assert.EqualValues(t, 2, body["urgentItemsFound"])
	assert.Equal(t, true, body["emailSent"])
	assert.Equal(t, []any{}, body["errors"])
	assert.Contains(t, body, "timestamp")

	rec = serve(t, h, "/api/cron/evening", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []model.JobType{model.JobMorning, model.JobEvening}, runner.jobs)
}

func TestFailedRunIs500(t *testing.T) {
	h := New(&stubRunner{res: model.JobResult{Success: false, Errors: []string{"delivery: down"}}}, "").Handler()

	rec := serve(t, h, "/api/cron/morning", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "delivery: down")
}

func TestRunningJobIs409(t *testing.T) {
	h := New(&stubRunner{err: fmt.Errorf("morning: %w", job.ErrAlreadyRunning)}, "").Handler()

	rec := serve(t, h, "/api/cron/morning", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBearerAuth(t *testing.T) {
	runner := &stubRunner{res: model.JobResult{Success: true}}
	h := New(runner, "s3cret").Handler()

	assert.Equal(t, http.StatusUnauthorized, serve(t, h, "/api/cron/morning", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(t, h, "/api/cron/morning", "Bearer nope").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(t, h, "/api/cron/morning", "s3cret").Code)
	assert.Empty(t, runner.jobs)

	assert.Equal(t, http.StatusOK, serve(t, h, "/api/cron/evening", "Bearer s3cret").Code)
	assert.Equal(t, http.StatusOK, serve(t, h, "/healthz", "").Code)
}
