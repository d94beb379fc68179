package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kovalenq/pressroom/internal/pricing"
	"github.com/kovalenq/pressroom/pkg/models"
)

const (
	// DefaultMaxAttempts is the retry budget per generation request.
	DefaultMaxAttempts = 3
	// DefaultBaseBackoff doubles on each retry.
	DefaultBaseBackoff = 500 * time.Millisecond

	promptLogBytes = 200
)

// Caller resolves a model to its adapter and drives the call with a fixed
// retry budget, exponential backoff, and cost/latency accounting. Every
// attempt produces its own GenerationResult record; the last one is terminal.
type Caller struct {
	registry    *Registry
	pricing     *pricing.Table
	maxAttempts int
	baseBackoff time.Duration
}

// CallerOption configures a Caller.
type CallerOption func(*Caller)

// WithMaxAttempts overrides the retry budget.
func WithMaxAttempts(n int) CallerOption {
	return func(c *Caller) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBaseBackoff overrides the initial backoff delay.
func WithBaseBackoff(d time.Duration) CallerOption {
	return func(c *Caller) {
		if d > 0 {
			c.baseBackoff = d
		}
	}
}

// NewCaller creates a Caller over the given registry and pricing table.
func NewCaller(reg *Registry, table *pricing.Table, opts ...CallerOption) *Caller {
	c := &Caller{
		registry:    reg,
		pricing:     table,
		maxAttempts: DefaultMaxAttempts,
		baseBackoff: DefaultBaseBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ValidateModel reports whether the model resolves to a registered adapter.
func (c *Caller) ValidateModel(model string) error {
	_, err := c.registry.Resolve(model)
	return err
}

// Generate performs the provider call for one GenerationRequest. It returns
// one result per attempt, last element terminal. A non-nil error is returned
// only for synchronous rejections (unknown model, empty prompt) that must
// reach the caller before any I/O.
func (c *Caller) Generate(ctx context.Context, req models.GenerationRequest) ([]models.GenerationResult, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("prompt must not be empty")
	}
	adapter, err := c.registry.Resolve(req.Model)
	if err != nil {
		return nil, err
	}

	var results []models.GenerationResult
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		start := time.Now()
		comp, callErr := adapter.Complete(ctx, req.Model, req.Prompt, req.Sampling)
		latency := time.Since(start)

		res := c.buildResult(req, adapter.Name(), comp, callErr, attempt, latency)
		c.audit(req, res)
		results = append(results, res)

		if callErr == nil {
			return results, nil
		}

		if !IsRetryable(callErr) || res.Status == models.GenerationTimeout {
			return results, nil
		}
		if attempt == c.maxAttempts {
			msg := fmt.Sprintf("retry budget exhausted after %d attempts: last error: %v", c.maxAttempts, callErr)
			results[len(results)-1].ErrorMessage = &msg
			return results, nil
		}

		backoff := c.baseBackoff << (attempt - 1)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			// No further vendor call happens, so the cancellation is folded
			// into this attempt's record rather than a synthetic extra one.
			last := &results[len(results)-1]
			msg := fmt.Sprintf("%v; generation cancelled while backing off: %v", callErr, ctx.Err())
			last.Status = statusForContextErr(ctx.Err())
			last.ErrorMessage = &msg
			return results, nil
		}
	}
	return results, nil
}

func (c *Caller) buildResult(req models.GenerationRequest, providerName string, comp models.Completion, callErr error, attempt int, latency time.Duration) models.GenerationResult {
	res := models.GenerationResult{
		ID:         uuid.New(),
		RequestID:  req.ID,
		SessionKey: req.SessionKey,
		Channel:    req.Channel,
		CallGroup:  req.CallGroup,
		Provider:   providerName,
		Model:      req.Model,
		Prompt:     req.Prompt,
		LatencyMs:  latency.Milliseconds(),
		Attempt:    attempt,
		CreatedAt:  time.Now().UTC(),
	}

	if callErr != nil {
		res.Status = models.GenerationFailed
		if errors.Is(callErr, context.DeadlineExceeded) {
			res.Status = models.GenerationTimeout
		}
		msg := callErr.Error()
		res.ErrorMessage = &msg
		return res
	}

	res.Status = models.GenerationSuccess
	res.Output = comp.Text
	res.InputTokens = comp.InputTokens
	res.OutputTokens = comp.OutputTokens
	if res.InputTokens == 0 {
		res.InputTokens = estimateTokens(req.Model, req.Prompt)
	}
	if res.OutputTokens == 0 && comp.Text != "" {
		res.OutputTokens = estimateTokens(req.Model, comp.Text)
	}

	res.CostUSD = c.pricing.Cost(req.Model, res.InputTokens, res.OutputTokens)
	res.CostUnknown = res.CostUSD == nil
	return res
}

// audit logs every call attempt. This is a hard requirement: model, bounded
// prompt excerpt, token counts, cost and latency must be traceable.
func (c *Caller) audit(req models.GenerationRequest, res models.GenerationResult) {
	cost := "unknown"
	if res.CostUSD != nil {
		cost = fmt.Sprintf("%.6f", *res.CostUSD)
	}
	slog.Info("provider call",
		"provider", res.Provider,
		"model", res.Model,
		"channel", req.Channel,
		"call_group", req.CallGroup,
		"attempt", res.Attempt,
		"status", res.Status,
		"prompt", truncateString(req.Prompt, promptLogBytes),
		"input_tokens", res.InputTokens,
		"output_tokens", res.OutputTokens,
		"cost_usd", cost,
		"latency_ms", res.LatencyMs,
	)
}

func statusForContextErr(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.GenerationTimeout
	}
	return models.GenerationFailed
}

// truncateString truncates s to maxBytes without splitting UTF-8 runes.
func truncateString(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
