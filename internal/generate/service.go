package generate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/kovalenq/pressroom/internal/cache"
	"github.com/kovalenq/pressroom/internal/provider"
	"github.com/kovalenq/pressroom/internal/store"
	"github.com/kovalenq/pressroom/internal/substitute"
	"github.com/kovalenq/pressroom/internal/variant"
	"github.com/kovalenq/pressroom/pkg/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxParallelCalls bounds concurrent provider calls per request.
const DefaultMaxParallelCalls = 3

// Params holds validated parameters for a generation request.
type Params struct {
	SessionKey string
	Channels   []string
	Strategy   string
	Model      string
	Templates  map[string]string
	Sections   []models.Section
	Sampling   models.SamplingParams
}

// ChannelResult is the per-channel outcome of a generation request. Channels
// sharing a call group share one provider call and therefore identical text.
type ChannelResult struct {
	Channel      string   `json:"channel"`
	CallGroup    string   `json:"call_group"`
	Status       string   `json:"status"`
	Text         string   `json:"text,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
	InputTokens  int      `json:"input_tokens"`
	OutputTokens int      `json:"output_tokens"`
	CostUSD      *float64 `json:"cost_usd,omitempty"`
	CostUnknown  bool     `json:"cost_unknown"`
	LatencyMs    int64    `json:"latency_ms"`
	Attempts     int      `json:"attempts"`
}

// Output is the result of a full generation session.
type Output struct {
	SessionKey string          `json:"session_key"`
	Channels   []ChannelResult `json:"channels"`
	Warnings   []string        `json:"warnings,omitempty"`
}

// Service orchestrates the generation pipeline: variant planning, placeholder
// substitution, and fanned-out provider calls with per-attempt persistence.
type Service struct {
	caller      *provider.Caller
	resolver    *variant.Resolver
	store       store.Store
	cache       cache.Cache
	maxParallel int
	flight      singleflight.Group
}

// NewService creates a new generation Service. A non-positive maxParallel
// falls back to DefaultMaxParallelCalls.
func NewService(caller *provider.Caller, resolver *variant.Resolver, st store.Store, ca cache.Cache, maxParallel int) *Service {
	if maxParallel <= 0 {
		maxParallel = DefaultMaxParallelCalls
	}
	return &Service{
		caller:      caller,
		resolver:    resolver,
		store:       st,
		cache:       ca,
		maxParallel: maxParallel,
	}
}

// Generate runs one generation session. Validation and planning errors are
// returned synchronously; individual provider call failures are isolated to
// their call group and reported per channel.
func (s *Service) Generate(ctx context.Context, p Params) (*Output, error) {
	if len(p.Channels) == 0 {
		return nil, fmt.Errorf("at least one channel is required")
	}
	if p.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if err := s.caller.ValidateModel(p.Model); err != nil {
		return nil, err
	}
	strategy, err := variant.ParseStrategy(p.Strategy)
	if err != nil {
		return nil, err
	}
	if p.SessionKey == "" {
		p.SessionKey = uuid.NewString()
	}

	// Concurrent requests for the same session collapse into one execution.
	v, err, _ := s.flight.Do(p.SessionKey, func() (any, error) {
		return s.run(ctx, p, strategy)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Output), nil
}

func (s *Service) run(ctx context.Context, p Params, strategy variant.Strategy) (*Output, error) {
	plan, err := s.resolver.Resolve(p.Channels, p.Templates, strategy)
	if err != nil {
		return nil, err
	}

	out := &Output{SessionKey: p.SessionKey}

	type groupCall struct {
		group  variant.Group
		prompt string
	}
	calls := make([]groupCall, 0, len(plan.Groups))
	for _, g := range plan.Groups {
		template := p.Templates[g.Canonical]
		if !substitute.HasPlaceholders(template) {
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("channel %q template contains no placeholders", g.Canonical))
		}
		sub := substitute.Apply(template, p.Sections)
		for _, name := range sub.Unresolved {
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("channel %q template references unknown section %q", g.Canonical, name))
		}
		calls = append(calls, groupCall{group: g, prompt: sub.Output})
	}

	groupOutcomes := make([]ChannelResult, len(calls))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.maxParallel)
	for i, call := range calls {
		eg.Go(func() error {
			groupOutcomes[i] = s.callGroup(egCtx, p, call.group, call.prompt)
			return nil
		})
	}
	_ = eg.Wait()

	// Fan the group outcome back out to every channel in the group, in the
	// order the channels were requested.
	byGroup := make(map[string]ChannelResult, len(groupOutcomes))
	for _, oc := range groupOutcomes {
		byGroup[oc.CallGroup] = oc
	}
	for _, ch := range p.Channels {
		g, ok := plan.GroupFor(ch)
		if !ok {
			continue
		}
		cr := byGroup[g.ID]
		cr.Channel = ch
		out.Channels = append(out.Channels, cr)
	}

	sort.Strings(out.Warnings)
	return out, nil
}

// callGroup performs the single provider call for a call group and persists
// every attempt. It never returns an error: a failed group is reported
// through its result status so sibling groups are unaffected.
func (s *Service) callGroup(ctx context.Context, p Params, g variant.Group, prompt string) ChannelResult {
	req := models.GenerationRequest{
		ID:         uuid.New(),
		Channel:    g.Canonical,
		CallGroup:  g.ID,
		Model:      p.Model,
		Prompt:     prompt,
		Sampling:   p.Sampling,
		SessionKey: p.SessionKey,
	}

	results, err := s.caller.Generate(ctx, req)
	if err != nil {
		msg := err.Error()
		return ChannelResult{
			CallGroup:    g.ID,
			Status:       models.GenerationFailed,
			ErrorMessage: msg,
		}
	}

	for i := range results {
		if perr := s.store.CreateGenerationResult(ctx, &results[i]); perr != nil {
			slog.Error("failed to persist generation result",
				"session_key", p.SessionKey, "call_group", g.ID, "attempt", results[i].Attempt, "error", perr)
		}
	}

	terminal := results[len(results)-1]

	cr := ChannelResult{
		CallGroup:    g.ID,
		Status:       terminal.Status,
		Text:         terminal.Output,
		InputTokens:  terminal.InputTokens,
		OutputTokens: terminal.OutputTokens,
		CostUSD:      terminal.CostUSD,
		CostUnknown:  terminal.CostUnknown,
		LatencyMs:    terminal.LatencyMs,
		Attempts:     len(results),
	}
	if terminal.ErrorMessage != nil {
		cr.ErrorMessage = *terminal.ErrorMessage
	}

	if terminal.Status == models.GenerationSuccess && terminal.CostUSD != nil {
		if _, err := s.cache.AddCost(ctx, terminal.Model, *terminal.CostUSD); err != nil {
			slog.Warn("failed to record model spend", "model", terminal.Model, "error", err)
		}
	}

	return cr
}

// ListSession returns every persisted attempt record for a session key,
// ordered by creation time then attempt.
func (s *Service) ListSession(ctx context.Context, sessionKey string) ([]*models.GenerationResult, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is required")
	}
	return s.store.ListGenerationResultsBySession(ctx, sessionKey)
}
