package models

import (
	"context"
	"fmt"
)

// Provider is the core interface every LLM vendor adapter must implement.
// Never call vendor SDKs directly — always inject this interface.
type Provider interface {
	// Complete sends a single prompt to the vendor and returns the raw
	// completion. Implementations do not retry; the retry budget lives in
	// the provider.Caller wrapper.
	Complete(ctx context.Context, model, prompt string, params SamplingParams) (Completion, error)
	// Name returns the vendor identifier (e.g. "openai", "anthropic").
	Name() string
}

// ProviderError is a classified vendor failure. Retryable errors (network
// faults, 5xx, rate limits) are retried up to the attempt budget; terminal
// errors (auth, malformed request, empty response) fail immediately.
type ProviderError struct {
	Provider  string
	Retryable bool
	Err       error
}

func (e *ProviderError) Error() string {
	kind := "terminal"
	if e.Retryable {
		kind = "transient"
	}
	return fmt.Sprintf("%s provider %s error: %v", e.Provider, kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewTransientError wraps a retryable vendor failure.
func NewTransientError(providerName string, err error) *ProviderError {
	return &ProviderError{Provider: providerName, Retryable: true, Err: err}
}

// NewTerminalError wraps a non-retryable vendor failure.
func NewTerminalError(providerName string, err error) *ProviderError {
	return &ProviderError{Provider: providerName, Retryable: false, Err: err}
}
