package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job tracks one async run of the external report generator. The API returns
// a job_id on POST /api/v1/reports; the client polls GET /api/v1/reports/{job_id}
// until status is completed or failed. Jobs are garbage-collected once
// ExpiresAt passes; an expired job is indistinguishable from an unknown one.
type Job struct {
	ID           uuid.UUID     `db:"id"            json:"id"`
	TickerID     int64         `db:"ticker_id"     json:"ticker_id"`
	Exchange     string        `db:"exchange"      json:"exchange"`
	Status       string        `db:"status"        json:"status"`
	Sections     []TextSection `db:"sections"      json:"sections,omitempty"`
	ErrorMessage *string       `db:"error_message" json:"error_message,omitempty"`
	StartedAt    *time.Time    `db:"started_at"    json:"started_at,omitempty"`
	CompletedAt  *time.Time    `db:"completed_at"  json:"completed_at,omitempty"`
	CreatedAt    time.Time     `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at"    json:"updated_at"`
	ExpiresAt    time.Time     `db:"expires_at"    json:"expires_at"`
}

// Expired reports whether the job is past its TTL at the given instant.
func (j *Job) Expired(now time.Time) bool {
	return now.After(j.ExpiresAt)
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
