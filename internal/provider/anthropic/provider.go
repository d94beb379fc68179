// Package anthropic adapts the Anthropic Messages API to the Provider
// contract.
package anthropic

import (
	"context"
	"errors"
	"net/http"
	"strings"

	anthropicgo "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kovalenq/pressroom/internal/config"
	"github.com/kovalenq/pressroom/pkg/models"
)

const providerName = "anthropic"

// The Messages API requires max_tokens; used when the request leaves it unset.
const defaultMaxTokens = 1024

// Provider implements models.Provider using Anthropic.
type Provider struct {
	client anthropicgo.Client
}

func NewProvider(cfg config.AnthropicConfig) *Provider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Provider{client: anthropicgo.NewClient(opts...)}
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) Complete(ctx context.Context, model, prompt string, params models.SamplingParams) (models.Completion, error) {
	maxTokens := int64(params.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	msg, err := p.client.Messages.New(ctx, anthropicgo.MessageNewParams{
		Model:       anthropicgo.Model(model),
		MaxTokens:   maxTokens,
		Temperature: anthropicgo.Float(float64(params.Temperature)),
		Messages: []anthropicgo.MessageParam{
			anthropicgo.NewUserMessage(anthropicgo.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return models.Completion{}, classify(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return models.Completion{}, models.NewTerminalError(providerName,
			errors.New("empty response: no text content blocks"))
	}

	return models.Completion{
		Text:         sb.String(),
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}, nil
}

func classify(err error) error {
	var apiErr *anthropicgo.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return models.NewTransientError(providerName, err)
		}
		return models.NewTerminalError(providerName, err)
	}
	return models.NewTransientError(providerName, err)
}

var _ models.Provider = (*Provider)(nil)
