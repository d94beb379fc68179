// Package mock provides a models.Provider test double.
package mock

import (
	"context"
	"sync"

	"github.com/kovalenq/pressroom/pkg/models"
)

// Provider satisfies models.Provider for testing.
type Provider struct {
	Name_        string
	CompleteFunc func(ctx context.Context, model, prompt string, params models.SamplingParams) (models.Completion, error)

	mu    sync.Mutex
	calls int
}

func (p *Provider) Name() string {
	if p.Name_ == "" {
		return "mock"
	}
	return p.Name_
}

func (p *Provider) Complete(ctx context.Context, model, prompt string, params models.SamplingParams) (models.Completion, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.CompleteFunc != nil {
		return p.CompleteFunc(ctx, model, prompt, params)
	}
	return models.Completion{Text: "mock completion", InputTokens: 10, OutputTokens: 5}, nil
}

// Calls returns how many times Complete has been invoked.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// FailNTimes returns a provider that fails with err for the first n calls,
// then succeeds with the given text.
func FailNTimes(n int, err error, text string) *Provider {
	var mu sync.Mutex
	remaining := n
	return &Provider{
		Name_: "mock",
		CompleteFunc: func(_ context.Context, _, _ string, _ models.SamplingParams) (models.Completion, error) {
			mu.Lock()
			defer mu.Unlock()
			if remaining > 0 {
				remaining--
				return models.Completion{}, err
			}
			return models.Completion{Text: text, InputTokens: 10, OutputTokens: 5}, nil
		},
	}
}

var _ models.Provider = (*Provider)(nil)
