// Package variant decides how requested content channels map onto upstream
// generation calls. Channels sharing a call group reuse one provider call;
// the tradeoff is API cost against per-channel content differentiation.
package variant

import (
	"fmt"
	"strings"
)

// Strategy selects how call groups are formed. The set is closed.
type Strategy string

const (
	// StrategyIndependent gives every channel its own call.
	StrategyIndependent Strategy = "independent"
	// StrategyPrimaryShared keeps the primary channel independent and lets
	// all other channels reuse its output verbatim.
	StrategyPrimaryShared Strategy = "primary_shared"
	// StrategyPairShared shares one fixed pair of non-primary channels;
	// everything else stays independent.
	StrategyPairShared Strategy = "pair_shared"
	// StrategyAllShared maps every channel to a single call.
	StrategyAllShared Strategy = "all_shared"
	// StrategyAuto picks the cheapest grouping that keeps textually distinct
	// prompts on separate calls.
	StrategyAuto Strategy = "auto"
)

// ParseStrategy validates a strategy name from the API.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyIndependent, StrategyPrimaryShared, StrategyPairShared, StrategyAllShared, StrategyAuto:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown strategy %q: must be one of independent, primary_shared, pair_shared, all_shared, auto", s)
}

// Group is one planned upstream call. Canonical is the channel whose prompt
// template drives the call; every channel in Channels reuses its output.
type Group struct {
	ID        string
	Canonical string
	Channels  []string
}

// Plan maps each requested channel to exactly one call group.
type Plan struct {
	Groups []Group
}

// GroupFor returns the group containing the channel.
func (p Plan) GroupFor(channel string) (Group, bool) {
	for _, g := range p.Groups {
		for _, ch := range g.Channels {
			if ch == channel {
				return g, true
			}
		}
	}
	return Group{}, false
}

// Resolver builds variant plans. Primary is the channel that strategies
// treat as the canonical full-quality output (typically "paid").
type Resolver struct {
	Primary       string
	SharedPair    [2]string
	AutoThreshold float64 // normalized edit distance below which prompts are merged
}

// DefaultAutoThreshold merges prompts whose normalized edit distance is
// under 10%.
const DefaultAutoThreshold = 0.10

// NewResolver creates a Resolver with the given primary channel and shared
// pair. A zero threshold falls back to DefaultAutoThreshold.
func NewResolver(primary string, pair [2]string, autoThreshold float64) *Resolver {
	if autoThreshold <= 0 {
		autoThreshold = DefaultAutoThreshold
	}
	return &Resolver{Primary: primary, SharedPair: pair, AutoThreshold: autoThreshold}
}

// Resolve produces the minimal generation plan for the requested channels
// under the given strategy. prompts maps each channel to its prompt template.
// The returned plan assigns every requested channel exactly once.
func (r *Resolver) Resolve(channels []string, prompts map[string]string, strategy Strategy) (Plan, error) {
	if len(channels) == 0 {
		return Plan{}, fmt.Errorf("at least one channel is required")
	}
	seen := make(map[string]bool, len(channels))
	for _, ch := range channels {
		if strings.TrimSpace(ch) == "" {
			return Plan{}, fmt.Errorf("channel name must not be empty")
		}
		if seen[ch] {
			return Plan{}, fmt.Errorf("channel %q requested more than once", ch)
		}
		seen[ch] = true
	}

	var plan Plan
	var err error
	switch strategy {
	case StrategyIndependent:
		plan, err = r.independent(channels, prompts)
	case StrategyPrimaryShared:
		plan, err = r.primaryShared(channels, prompts)
	case StrategyPairShared:
		plan, err = r.pairShared(channels, prompts)
	case StrategyAllShared:
		plan, err = r.allShared(channels, prompts)
	case StrategyAuto:
		plan, err = r.auto(channels, prompts)
	default:
		return Plan{}, fmt.Errorf("unknown strategy %q", strategy)
	}
	if err != nil {
		return Plan{}, err
	}
	return plan, nil
}

func (r *Resolver) independent(channels []string, prompts map[string]string) (Plan, error) {
	var plan Plan
	for i, ch := range channels {
		if err := requirePrompt(prompts, ch); err != nil {
			return Plan{}, err
		}
		plan.Groups = append(plan.Groups, Group{
			ID:        groupID(i),
			Canonical: ch,
			Channels:  []string{ch},
		})
	}
	return plan, nil
}

func (r *Resolver) primaryShared(channels []string, prompts map[string]string) (Plan, error) {
	if !contains(channels, r.Primary) {
		return Plan{}, fmt.Errorf("strategy %s requires the primary channel %q to be requested", StrategyPrimaryShared, r.Primary)
	}
	if err := requirePrompt(prompts, r.Primary); err != nil {
		return Plan{}, err
	}

	primaryGroup := Group{ID: groupID(0), Canonical: r.Primary, Channels: []string{r.Primary}}
	shared := Group{ID: groupID(1), Canonical: r.Primary}
	for _, ch := range channels {
		if ch == r.Primary {
			continue
		}
		shared.Channels = append(shared.Channels, ch)
	}

	plan := Plan{Groups: []Group{primaryGroup}}
	if len(shared.Channels) > 0 {
		plan.Groups = append(plan.Groups, shared)
	}
	return plan, nil
}

func (r *Resolver) pairShared(channels []string, prompts map[string]string) (Plan, error) {
	if r.Primary == r.SharedPair[0] || r.Primary == r.SharedPair[1] {
		return Plan{}, fmt.Errorf("primary channel %q cannot be part of the shared pair: strategy %s requires it independent", r.Primary, StrategyPairShared)
	}

	var plan Plan
	next := 0

	var pairGroup *Group
	for _, ch := range channels {
		if ch != r.SharedPair[0] && ch != r.SharedPair[1] {
			continue
		}
		if pairGroup == nil {
			if err := requirePrompt(prompts, ch); err != nil {
				return Plan{}, err
			}
			plan.Groups = append(plan.Groups, Group{ID: groupID(next), Canonical: ch, Channels: []string{ch}})
			pairGroup = &plan.Groups[len(plan.Groups)-1]
			next++
			continue
		}
		pairGroup.Channels = append(pairGroup.Channels, ch)
	}

	for _, ch := range channels {
		if ch == r.SharedPair[0] || ch == r.SharedPair[1] {
			continue
		}
		if err := requirePrompt(prompts, ch); err != nil {
			return Plan{}, err
		}
		plan.Groups = append(plan.Groups, Group{ID: groupID(next), Canonical: ch, Channels: []string{ch}})
		next++
	}
	return plan, nil
}

func (r *Resolver) allShared(channels []string, prompts map[string]string) (Plan, error) {
	canonical := channels[0]
	if contains(channels, r.Primary) {
		canonical = r.Primary
	}
	if err := requirePrompt(prompts, canonical); err != nil {
		return Plan{}, err
	}
	return Plan{Groups: []Group{{
		ID:        groupID(0),
		Canonical: canonical,
		Channels:  append([]string(nil), channels...),
	}}}, nil
}

// auto merges channels whose prompt templates are near-identical and keeps
// the rest independent. Similarity is normalized Levenshtein distance; the
// exact threshold is policy, not contract, and is configurable.
func (r *Resolver) auto(channels []string, prompts map[string]string) (Plan, error) {
	for _, ch := range channels {
		if err := requirePrompt(prompts, ch); err != nil {
			return Plan{}, err
		}
	}

	// Union-find over channel indices.
	parent := make([]int, len(channels))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	for i := 0; i < len(channels); i++ {
		for j := i + 1; j < len(channels); j++ {
			if normalizedDistance(prompts[channels[i]], prompts[channels[j]]) < r.AutoThreshold {
				parent[find(j)] = find(i)
			}
		}
	}

	groupIdx := make(map[int]int)
	var plan Plan
	for i, ch := range channels {
		root := find(i)
		if gi, ok := groupIdx[root]; ok {
			plan.Groups[gi].Channels = append(plan.Groups[gi].Channels, ch)
			continue
		}
		groupIdx[root] = len(plan.Groups)
		plan.Groups = append(plan.Groups, Group{
			ID:        groupID(len(plan.Groups)),
			Canonical: ch,
			Channels:  []string{ch},
		})
	}

	// Prefer the primary channel as canonical inside its merged group.
	for gi := range plan.Groups {
		if contains(plan.Groups[gi].Channels, r.Primary) {
			plan.Groups[gi].Canonical = r.Primary
		}
	}
	return plan, nil
}

func requirePrompt(prompts map[string]string, channel string) error {
	if strings.TrimSpace(prompts[channel]) == "" {
		return fmt.Errorf("channel %q has no prompt template but is the canonical source of its call group", channel)
	}
	return nil
}

func groupID(i int) string {
	return fmt.Sprintf("g%d", i+1)
}

func contains(channels []string, ch string) bool {
	for _, c := range channels {
		if c == ch {
			return true
		}
	}
	return false
}

// normalizedDistance returns the Levenshtein distance between a and b
// divided by the longer length, in [0, 1].
func normalizedDistance(a, b string) float64 {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 0
	}
	return float64(levenshtein(ra, rb)) / float64(longest)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
