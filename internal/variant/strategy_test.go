package variant_test

import (
	"testing"

	"github.com/kovalenq/pressroom/internal/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver() *variant.Resolver {
	return variant.NewResolver("paid", [2]string{"unpaid", "crawler"}, 0)
}

func prompts() map[string]string {
	return map[string]string{
		"paid":    "Write a detailed report: {{market_overview}}",
		"unpaid":  "Write a short report: {{market_overview}}",
		"crawler": "Write a crawler-friendly report: {{market_overview}}",
	}
}

// assertPartition checks that every requested channel appears in exactly one
// call group.
func assertPartition(t *testing.T, plan variant.Plan, channels []string) {
	t.Helper()
	assigned := make(map[string]int)
	for _, g := range plan.Groups {
		require.NotEmpty(t, g.Canonical)
		for _, ch := range g.Channels {
			assigned[ch]++
		}
	}
	require.Len(t, assigned, len(channels))
	for _, ch := range channels {
		assert.Equal(t, 1, assigned[ch], "channel %q must appear exactly once", ch)
	}
}

func TestParseStrategy(t *testing.T) {
	for _, name := range []string{"independent", "primary_shared", "pair_shared", "all_shared", "auto"} {
		s, err := variant.ParseStrategy(name)
		require.NoError(t, err)
		assert.Equal(t, variant.Strategy(name), s)
	}

	_, err := variant.ParseStrategy("freestyle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")
}

func TestResolve_Independent_OneGroupPerChannel(t *testing.T) {
	channels := []string{"paid", "unpaid", "crawler"}
	plan, err := newResolver().Resolve(channels, prompts(), variant.StrategyIndependent)
	require.NoError(t, err)

	assert.Len(t, plan.Groups, len(channels))
	assertPartition(t, plan, channels)
	for _, g := range plan.Groups {
		assert.Equal(t, []string{g.Canonical}, g.Channels)
	}
}

func TestResolve_PrimaryShared_TwoGroups(t *testing.T) {
	channels := []string{"paid", "unpaid", "crawler"}
	plan, err := newResolver().Resolve(channels, prompts(), variant.StrategyPrimaryShared)
	require.NoError(t, err)

	require.Len(t, plan.Groups, 2)
	assertPartition(t, plan, channels)

	assert.Equal(t, []string{"paid"}, plan.Groups[0].Channels)
	assert.Equal(t, "paid", plan.Groups[0].Canonical)
	assert.ElementsMatch(t, []string{"unpaid", "crawler"}, plan.Groups[1].Channels)
	assert.Equal(t, "paid", plan.Groups[1].Canonical)
}

func TestResolve_PrimaryShared_PrimaryOnly(t *testing.T) {
	plan, err := newResolver().Resolve([]string{"paid"}, prompts(), variant.StrategyPrimaryShared)
	require.NoError(t, err)
	assert.Len(t, plan.Groups, 1)
}

func TestResolve_PrimaryShared_PrimaryMissing(t *testing.T) {
	_, err := newResolver().Resolve([]string{"unpaid", "crawler"}, prompts(), variant.StrategyPrimaryShared)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `primary channel "paid"`)
}

func TestResolve_PairShared(t *testing.T) {
	channels := []string{"paid", "unpaid", "crawler"}
	plan, err := newResolver().Resolve(channels, prompts(), variant.StrategyPairShared)
	require.NoError(t, err)

	require.Len(t, plan.Groups, 2)
	assertPartition(t, plan, channels)

	pair, ok := plan.GroupFor("unpaid")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"unpaid", "crawler"}, pair.Channels)

	primary, ok := plan.GroupFor("paid")
	require.True(t, ok)
	assert.Equal(t, []string{"paid"}, primary.Channels)
}

func TestResolve_PairShared_PrimaryInPairRejected(t *testing.T) {
	r := variant.NewResolver("paid", [2]string{"paid", "crawler"}, 0)
	_, err := r.Resolve([]string{"paid", "crawler"}, prompts(), variant.StrategyPairShared)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires it independent")
}

func TestResolve_AllShared_SingleGroup(t *testing.T) {
	for _, channels := range [][]string{
		{"paid"},
		{"paid", "unpaid"},
		{"paid", "unpaid", "crawler"},
		{"unpaid", "crawler"},
	} {
		plan, err := newResolver().Resolve(channels, prompts(), variant.StrategyAllShared)
		require.NoError(t, err)
		require.Len(t, plan.Groups, 1)
		assertPartition(t, plan, channels)
	}
}

func TestResolve_AllShared_CanonicalPrefersPrimary(t *testing.T) {
	plan, err := newResolver().Resolve([]string{"crawler", "paid"}, prompts(), variant.StrategyAllShared)
	require.NoError(t, err)
	assert.Equal(t, "paid", plan.Groups[0].Canonical)
}

func TestResolve_Auto_MergesNearIdenticalPrompts(t *testing.T) {
	p := map[string]string{
		"paid":    "Write a detailed market report about {{company}} covering earnings.",
		"unpaid":  "Write a detailed market report about {{company}} covering earnings!",
		"crawler": "Plain-text summary for search engines: {{company}}.",
	}
	channels := []string{"paid", "unpaid", "crawler"}

	plan, err := newResolver().Resolve(channels, p, variant.StrategyAuto)
	require.NoError(t, err)

	require.Len(t, plan.Groups, 2)
	assertPartition(t, plan, channels)

	merged, ok := plan.GroupFor("unpaid")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"paid", "unpaid"}, merged.Channels)
	assert.Equal(t, "paid", merged.Canonical)
}

func TestResolve_Auto_KeepsDistinctPromptsIndependent(t *testing.T) {
	channels := []string{"paid", "unpaid", "crawler"}
	plan, err := newResolver().Resolve(channels, prompts(), variant.StrategyAuto)
	require.NoError(t, err)

	assert.Len(t, plan.Groups, 3)
	assertPartition(t, plan, channels)
}

func TestResolve_EmptyCanonicalPromptRejected(t *testing.T) {
	p := prompts()
	p["unpaid"] = "   "

	_, err := newResolver().Resolve([]string{"paid", "unpaid"}, p, variant.StrategyIndependent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `channel "unpaid" has no prompt template`)
}

func TestResolve_DuplicateChannelRejected(t *testing.T) {
	_, err := newResolver().Resolve([]string{"paid", "paid"}, prompts(), variant.StrategyIndependent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than once")
}

func TestResolve_NoChannelsRejected(t *testing.T) {
	_, err := newResolver().Resolve(nil, prompts(), variant.StrategyIndependent)
	require.Error(t, err)
}
