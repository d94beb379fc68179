// Package models contains shared data models used across the pressroom codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Generation result statuses.
const (
	GenerationSuccess = "success"
	GenerationFailed  = "failed"
	GenerationTimeout = "timeout"
)

// SamplingParams are the sampling knobs forwarded to the LLM vendor.
type SamplingParams struct {
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// GenerationRequest describes one upstream provider call. It is created by
// the generation service per planned call group and is immutable once built.
type GenerationRequest struct {
	ID         uuid.UUID
	Channel    string // canonical channel for the call group
	CallGroup  string
	Model      string
	Prompt     string // substituted prompt, ready to send
	Sampling   SamplingParams
	SessionKey string
}

// GenerationResult records the outcome of one provider call attempt.
// Retried attempts each produce their own record, linked by Attempt.
type GenerationResult struct {
	ID           uuid.UUID  `db:"id"            json:"id"`
	RequestID    uuid.UUID  `db:"request_id"    json:"request_id"`
	SessionKey   string     `db:"session_key"   json:"session_key,omitempty"`
	Channel      string     `db:"channel"       json:"channel"`
	CallGroup    string     `db:"call_group"    json:"call_group"`
	Provider     string     `db:"provider"      json:"provider"`
	Model        string     `db:"model"         json:"model"`
	Prompt       string     `db:"prompt"        json:"prompt"`
	Output       string     `db:"output"        json:"output"`
	InputTokens  int        `db:"input_tokens"  json:"input_tokens"`
	OutputTokens int        `db:"output_tokens" json:"output_tokens"`
	CostUSD      *float64   `db:"cost_usd"      json:"cost_usd,omitempty"`
	CostUnknown  bool       `db:"cost_unknown"  json:"cost_unknown"`
	LatencyMs    int64      `db:"latency_ms"    json:"latency_ms"`
	Attempt      int        `db:"attempt"       json:"attempt"`
	Status       string     `db:"status"        json:"status"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
}

// Completion is the raw vendor output before cost accounting. Token counts
// of zero mean the vendor did not report usage.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}
