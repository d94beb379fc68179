package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kovalenq/pressroom/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Generation Results ---

func (s *PostgresStore) CreateGenerationResult(ctx context.Context, r *models.GenerationResult) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO generation_results
		   (id, request_id, session_key, channel, call_group, provider, model, prompt, output,
		    input_tokens, output_tokens, cost_usd, cost_unknown, latency_ms, attempt, status,
		    error_message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		r.ID, r.RequestID, r.SessionKey, r.Channel, r.CallGroup, r.Provider, r.Model, r.Prompt,
		r.Output, r.InputTokens, r.OutputTokens, r.CostUSD, r.CostUnknown, r.LatencyMs,
		r.Attempt, r.Status, r.ErrorMessage, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("create generation result: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListGenerationResultsBySession(ctx context.Context, sessionKey string) ([]*models.GenerationResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, request_id, session_key, channel, call_group, provider, model, prompt, output,
		        input_tokens, output_tokens, cost_usd, cost_unknown, latency_ms, attempt, status,
		        error_message, created_at
		 FROM generation_results WHERE session_key = $1 ORDER BY created_at, attempt`, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("list generation results: %w", err)
	}
	defer rows.Close()

	var results []*models.GenerationResult
	for rows.Next() {
		var r models.GenerationResult
		if err := rows.Scan(&r.ID, &r.RequestID, &r.SessionKey, &r.Channel, &r.CallGroup,
			&r.Provider, &r.Model, &r.Prompt, &r.Output, &r.InputTokens, &r.OutputTokens,
			&r.CostUSD, &r.CostUnknown, &r.LatencyMs, &r.Attempt, &r.Status,
			&r.ErrorMessage, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan generation result: %w", err)
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

// --- Jobs ---

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, ticker_id, exchange, status, created_at, updated_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		job.ID, job.TickerID, job.Exchange, job.Status, job.CreatedAt, job.UpdatedAt, job.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var j models.Job
	var sectionsJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, ticker_id, exchange, status, sections, error_message, started_at, completed_at,
		        created_at, updated_at, expires_at
		 FROM jobs WHERE id = $1`, id,
	).Scan(&j.ID, &j.TickerID, &j.Exchange, &j.Status, &sectionsJSON, &j.ErrorMessage,
		&j.StartedAt, &j.CompletedAt, &j.CreatedAt, &j.UpdatedAt, &j.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if len(sectionsJSON) > 0 {
		if err := json.Unmarshal(sectionsJSON, &j.Sections); err != nil {
			return nil, fmt.Errorf("decode job sections: %w", err)
		}
	}
	return &j, nil
}

var validTransitions = map[string][]string{
	models.JobStatusPending: {models.JobStatusRunning, models.JobStatusFailed},
	models.JobStatusRunning: {models.JobStatusCompleted, models.JobStatusFailed},
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error {
	params := &jobUpdateParams{}
	for _, opt := range opts {
		opt(params)
	}

	var currentStatus string
	err := s.pool.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1`, id).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get job status: %w", err)
	}

	valid := false
	for _, allowed := range validTransitions[currentStatus] {
		if allowed == status {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid job status transition: %s -> %s", currentStatus, status)
	}

	now := time.Now().UTC()
	query := `UPDATE jobs SET status = $2, updated_at = $3`
	args := []any{id, status, now}
	argIdx := 4

	if status == models.JobStatusRunning {
		query += fmt.Sprintf(", started_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if status == models.JobStatusCompleted || status == models.JobStatusFailed {
		query += fmt.Sprintf(", completed_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if params.ErrorMessage != nil {
		query += fmt.Sprintf(", error_message = $%d", argIdx)
		args = append(args, *params.ErrorMessage)
		argIdx++
	}
	if params.Sections != nil {
		sectionsJSON, err := json.Marshal(params.Sections)
		if err != nil {
			return fmt.Errorf("encode job sections: %w", err)
		}
		query += fmt.Sprintf(", sections = $%d", argIdx)
		args = append(args, sectionsJSON)
		argIdx++
	}
	query += ` WHERE id = $1`

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteJob(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

// DeleteExpiredJobs removes every job whose TTL elapsed before cutoff,
// regardless of state, and returns how many rows were swept.
func (s *PostgresStore) DeleteExpiredJobs(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ Store = (*PostgresStore)(nil)
