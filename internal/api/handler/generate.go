package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kovalenq/pressroom/internal/api/response"
	"github.com/kovalenq/pressroom/internal/generate"
	"github.com/kovalenq/pressroom/internal/provider"
	"github.com/kovalenq/pressroom/pkg/models"
)

// GenerateService defines the generation interface the handlers depend on.
type GenerateService interface {
	Generate(ctx context.Context, p generate.Params) (*generate.Output, error)
	ListSession(ctx context.Context, sessionKey string) ([]*models.GenerationResult, error)
}

// sectionPayload is the wire form of a section: text sections carry a body,
// structured sections carry a fields object.
type sectionPayload struct {
	Key    string         `json:"key"`
	Title  string         `json:"title"`
	Body   *string        `json:"body,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

func (p sectionPayload) toSection() (models.Section, error) {
	if p.Key == "" {
		return nil, errors.New("section key is required")
	}
	switch {
	case p.Body != nil && p.Fields != nil:
		return nil, errors.New("section must have either body or fields, not both")
	case p.Fields != nil:
		return models.StructuredSection{SectionKey: p.Key, SectionTitle: p.Title, Fields: p.Fields}, nil
	case p.Body != nil:
		return models.TextSection{SectionKey: p.Key, SectionTitle: p.Title, Body: *p.Body}, nil
	default:
		return nil, errors.New("section must have a body or fields")
	}
}

// NewGenerateHandler returns an http.HandlerFunc for POST /api/v1/generate.
func NewGenerateHandler(svc GenerateService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SessionKey  string            `json:"session_key"`
			Channels    []string          `json:"channels"`
			Strategy    string            `json:"strategy"`
			Model       string            `json:"model"`
			Templates   map[string]string `json:"templates"`
			Sections    []sectionPayload  `json:"sections"`
			Temperature float32           `json:"temperature"`
			MaxTokens   int               `json:"max_tokens"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if len(req.Channels) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "channels is required", nil)
			return
		}
		if req.Model == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "model is required", nil)
			return
		}
		if req.Strategy == "" {
			req.Strategy = "independent"
		}

		sections := make([]models.Section, 0, len(req.Sections))
		for i, sp := range req.Sections {
			sec, err := sp.toSection()
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(),
					map[string]any{"section_index": i})
				return
			}
			sections = append(sections, sec)
		}

		out, err := svc.Generate(r.Context(), generate.Params{
			SessionKey: req.SessionKey,
			Channels:   req.Channels,
			Strategy:   req.Strategy,
			Model:      req.Model,
			Templates:  req.Templates,
			Sections:   sections,
			Sampling: models.SamplingParams{
				Temperature: req.Temperature,
				MaxTokens:   req.MaxTokens,
			},
		})
		if err != nil {
			if errors.Is(err, provider.ErrUnknownModel) {
				response.Error(w, http.StatusBadRequest, "UNKNOWN_MODEL", err.Error(), nil)
				return
			}
			// Remaining synchronous failures are validation or planning errors.
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		response.JSON(w, out)
	}
}

// NewListSessionHandler returns an http.HandlerFunc for
// GET /api/v1/generate/sessions/{sessionKey}.
func NewListSessionHandler(svc GenerateService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionKey := chi.URLParam(r, "sessionKey")
		if sessionKey == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "sessionKey is required", nil)
			return
		}

		results, err := svc.ListSession(r.Context(), sessionKey)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to list session results", nil)
			return
		}

		response.Collection(w, results, response.ListMeta{Count: len(results)})
	}
}
