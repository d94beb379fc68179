package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kovalenq/pressroom/internal/store"
	"github.com/kovalenq/pressroom/pkg/models"
)

// --- mock ReportService ---

type mockReportService struct {
	submitFn func(ctx context.Context, tickerID int64, exchange string) (*models.Job, error)
	statusFn func(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
}

func (m *mockReportService) Submit(ctx context.Context, tickerID int64, exchange string) (*models.Job, error) {
	return m.submitFn(ctx, tickerID, exchange)
}

func (m *mockReportService) GetStatus(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	return m.statusFn(ctx, jobID)
}

func pendingJob(tickerID int64, exchange string) *models.Job {
	now := time.Now().UTC()
	return &models.Job{
		ID:        uuid.New(),
		TickerID:  tickerID,
		Exchange:  exchange,
		Status:    models.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
}

// --- helpers ---

func postJSON(t *testing.T, h http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(body)
	r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, r)
	return rec
}

func getWithParam(t *testing.T, h http.HandlerFunc, path, param, value string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, path, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(param, value)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h(rec, r)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env.Data
}

func decodeErrCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env.Error.Code
}

// --- SubmitReport tests ---

func TestSubmitReport_Accepted(t *testing.T) {
	svc := &mockReportService{
		submitFn: func(_ context.Context, tickerID int64, exchange string) (*models.Job, error) {
			return pendingJob(tickerID, exchange), nil
		},
	}
	h := NewSubmitReportHandler(svc)

	rec := postJSON(t, h, "/api/v1/reports", map[string]any{
		"ticker_id": 4815,
		"exchange":  "NASDAQ",
	})

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	if data["status"] != "pending" {
		t.Errorf("expected status pending, got %v", data["status"])
	}
	if data["ticker_id"] != float64(4815) {
		t.Errorf("expected ticker_id 4815, got %v", data["ticker_id"])
	}
	if data["job_id"] == "" {
		t.Error("expected non-empty job_id")
	}
}

func TestSubmitReport_InvalidBody(t *testing.T) {
	h := NewSubmitReportHandler(&mockReportService{})

	r := httptest.NewRequest(http.MethodPost, "/api/v1/reports", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSubmitReport_Validation(t *testing.T) {
	h := NewSubmitReportHandler(&mockReportService{})

	cases := []struct {
		name string
		body map[string]any
	}{
		{"zero ticker", map[string]any{"ticker_id": 0, "exchange": "NASDAQ"}},
		{"negative ticker", map[string]any{"ticker_id": -1, "exchange": "NASDAQ"}},
		{"missing exchange", map[string]any{"ticker_id": 4815}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, h, "/api/v1/reports", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if code := decodeErrCode(t, rec); code != "INVALID_REQUEST" {
				t.Errorf("expected INVALID_REQUEST, got %s", code)
			}
		})
	}
}

func TestSubmitReport_ServiceFailure(t *testing.T) {
	svc := &mockReportService{
		submitFn: func(_ context.Context, _ int64, _ string) (*models.Job, error) {
			return nil, errors.New("db down")
		},
	}
	h := NewSubmitReportHandler(svc)

	rec := postJSON(t, h, "/api/v1/reports", map[string]any{
		"ticker_id": 4815,
		"exchange":  "NASDAQ",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

// --- PollReport tests ---

func TestPollReport_Completed(t *testing.T) {
	job := pendingJob(4815, "NASDAQ")
	job.Status = models.JobStatusCompleted
	job.Sections = []models.TextSection{
		{SectionKey: "overview", SectionTitle: "Overview", Body: "Shares rallied."},
	}
	completed := time.Now().UTC()
	job.CompletedAt = &completed

	svc := &mockReportService{
		statusFn: func(_ context.Context, jobID uuid.UUID) (*models.Job, error) {
			if jobID != job.ID {
				return nil, store.ErrNotFound
			}
			return job, nil
		},
	}
	h := NewPollReportHandler(svc)

	rec := getWithParam(t, h, "/api/v1/reports/"+job.ID.String(), "jobID", job.ID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	if data["status"] != "completed" {
		t.Errorf("expected status completed, got %v", data["status"])
	}
	sections, ok := data["sections"].([]any)
	if !ok || len(sections) != 1 {
		t.Fatalf("expected 1 section, got %v", data["sections"])
	}
	if data["completed_at"] == nil {
		t.Error("expected completed_at to be set")
	}
}

func TestPollReport_NotFound(t *testing.T) {
	svc := &mockReportService{
		statusFn: func(_ context.Context, _ uuid.UUID) (*models.Job, error) {
			return nil, store.ErrNotFound
		},
	}
	h := NewPollReportHandler(svc)

	id := uuid.NewString()
	rec := getWithParam(t, h, "/api/v1/reports/"+id, "jobID", id)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if code := decodeErrCode(t, rec); code != "JOB_NOT_FOUND" {
		t.Errorf("expected JOB_NOT_FOUND, got %s", code)
	}
}

func TestPollReport_InvalidJobID(t *testing.T) {
	h := NewPollReportHandler(&mockReportService{})

	rec := getWithParam(t, h, "/api/v1/reports/not-a-uuid", "jobID", "not-a-uuid")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPollReport_FailedJobCarriesError(t *testing.T) {
	job := pendingJob(4815, "NASDAQ")
	job.Status = models.JobStatusFailed
	msg := "report generator failed: exit status 2"
	job.ErrorMessage = &msg

	svc := &mockReportService{
		statusFn: func(_ context.Context, _ uuid.UUID) (*models.Job, error) {
			return job, nil
		},
	}
	h := NewPollReportHandler(svc)

	rec := getWithParam(t, h, "/api/v1/reports/"+job.ID.String(), "jobID", job.ID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := decodeData(t, rec)
	if data["status"] != "failed" {
		t.Errorf("expected status failed, got %v", data["status"])
	}
	if data["error_message"] != msg {
		t.Errorf("expected error message %q, got %v", msg, data["error_message"])
	}
}
