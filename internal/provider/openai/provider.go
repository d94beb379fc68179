// Package openai adapts the OpenAI chat completion API to the Provider
// contract.
package openai

import (
	"context"
	"errors"
	"net/http"

	openaigo "github.com/sashabaranov/go-openai"

	"github.com/kovalenq/pressroom/internal/config"
	"github.com/kovalenq/pressroom/pkg/models"
)

const providerName = "openai"

// Provider implements models.Provider using OpenAI.
type Provider struct {
	client *openaigo.Client
}

func NewProvider(cfg config.OpenAIConfig) *Provider {
	clientCfg := openaigo.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Provider{client: openaigo.NewClientWithConfig(clientCfg)}
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) Complete(ctx context.Context, model, prompt string, params models.SamplingParams) (models.Completion, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model: model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	})
	if err != nil {
		return models.Completion{}, classify(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return models.Completion{}, models.NewTerminalError(providerName,
			errors.New("empty response: no choices returned"))
	}

	return models.Completion{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// classify maps vendor failures onto the retry taxonomy: rate limits and
// 5xx are transient, other HTTP errors are terminal, anything below HTTP
// (DNS, connection reset) is transient.
func classify(err error) error {
	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500 {
			return models.NewTransientError(providerName, err)
		}
		return models.NewTerminalError(providerName, err)
	}
	return models.NewTransientError(providerName, err)
}

var _ models.Provider = (*Provider)(nil)
