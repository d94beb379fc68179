// Package ollama adapts a local Ollama instance to the Provider contract.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/kovalenq/pressroom/internal/config"
	"github.com/kovalenq/pressroom/pkg/models"
)

const providerName = "ollama"

// Provider implements models.Provider using the Ollama native API.
type Provider struct {
	client *api.Client
}

func NewProvider(cfg config.OllamaConfig) (*Provider, error) {
	// api.NewClient wants a bare host URL without trailing slash or /v1.
	baseURL := strings.TrimSuffix(strings.TrimSuffix(cfg.BaseURL, "/"), "/v1")
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama base URL %q: %w", cfg.BaseURL, err)
	}
	return &Provider{client: api.NewClient(parsed, http.DefaultClient)}, nil
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) Complete(ctx context.Context, model, prompt string, params models.SamplingParams) (models.Completion, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
		Options: map[string]any{
			"temperature": params.Temperature,
			"num_predict": params.MaxTokens,
		},
	}

	var resp api.ChatResponse
	err := p.client.Chat(ctx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return models.Completion{}, err
		}
		// A local daemon failure is usually recoverable (restart, load).
		return models.Completion{}, models.NewTransientError(providerName, err)
	}

	if resp.Message.Content == "" {
		return models.Completion{}, models.NewTerminalError(providerName,
			errors.New("empty response from ollama"))
	}

	return models.Completion{
		Text:         resp.Message.Content,
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
	}, nil
}

var _ models.Provider = (*Provider)(nil)
