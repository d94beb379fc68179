package provider

import (
	"fmt"

	"github.com/kovalenq/pressroom/internal/config"
	"github.com/kovalenq/pressroom/internal/provider/anthropic"
	"github.com/kovalenq/pressroom/internal/provider/ollama"
	"github.com/kovalenq/pressroom/internal/provider/openai"
)

// NewRegistryFromConfig builds the registry from configured vendors. Called
// once at server startup; vendors without credentials are skipped, but at
// least one model must end up registered.
func NewRegistryFromConfig(cfg config.ProvidersConfig) (*Registry, error) {
	reg := NewRegistry()

	if cfg.OpenAI.APIKey != "" {
		p := openai.NewProvider(cfg.OpenAI)
		for _, model := range cfg.OpenAI.Models {
			reg.Register(model, p)
		}
	}

	if cfg.Anthropic.APIKey != "" {
		p := anthropic.NewProvider(cfg.Anthropic)
		for _, model := range cfg.Anthropic.Models {
			reg.Register(model, p)
		}
	}

	if cfg.Ollama.BaseURL != "" && len(cfg.Ollama.Models) > 0 {
		p, err := ollama.NewProvider(cfg.Ollama)
		if err != nil {
			return nil, err
		}
		for _, model := range cfg.Ollama.Models {
			reg.Register(model, p)
		}
	}

	if len(reg.Models()) == 0 {
		return nil, fmt.Errorf("no models registered: configure at least one of OPENAI_API_KEY, ANTHROPIC_API_KEY, OLLAMA_BASE_URL with a model list")
	}
	return reg, nil
}
