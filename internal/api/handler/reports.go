package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kovalenq/pressroom/internal/api/response"
	"github.com/kovalenq/pressroom/internal/store"
	"github.com/kovalenq/pressroom/pkg/models"
)

// ReportService defines the job orchestration interface the handlers depend on.
type ReportService interface {
	Submit(ctx context.Context, tickerID int64, exchange string) (*models.Job, error)
	GetStatus(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
}

type jobResponse struct {
	JobID        string               `json:"job_id"`
	TickerID     int64                `json:"ticker_id"`
	Exchange     string               `json:"exchange"`
	Status       string               `json:"status"`
	Sections     []models.TextSection `json:"sections,omitempty"`
	ErrorMessage *string              `json:"error_message,omitempty"`
	CreatedAt    string               `json:"created_at"`
	CompletedAt  *string              `json:"completed_at,omitempty"`
	ExpiresAt    string               `json:"expires_at"`
}

func toJobResponse(job *models.Job) jobResponse {
	resp := jobResponse{
		JobID:        job.ID.String(),
		TickerID:     job.TickerID,
		Exchange:     job.Exchange,
		Status:       job.Status,
		Sections:     job.Sections,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:    job.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if job.CompletedAt != nil {
		s := job.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	return resp
}

// NewSubmitReportHandler returns an http.HandlerFunc for POST /api/v1/reports.
func NewSubmitReportHandler(svc ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TickerID int64  `json:"ticker_id"`
			Exchange string `json:"exchange"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.TickerID <= 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "ticker_id must be a positive integer", nil)
			return
		}
		if req.Exchange == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "exchange is required", nil)
			return
		}

		job, err := svc.Submit(r.Context(), req.TickerID, req.Exchange)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to create report job", nil)
			return
		}

		response.Accepted(w, toJobResponse(job))
	}
}

// NewPollReportHandler returns an http.HandlerFunc for GET /api/v1/reports/{jobID}.
func NewPollReportHandler(svc ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a valid UUID", nil)
			return
		}

		job, err := svc.GetStatus(r.Context(), jobID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND",
					"Job does not exist or has expired", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to fetch job", nil)
			return
		}

		response.JSON(w, toJobResponse(job))
	}
}
