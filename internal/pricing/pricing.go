// Package pricing holds the static per-model token cost table.
package pricing

// Rates are the USD prices per one million tokens for a model.
type Rates struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Table maps model identifiers to token rates. Registration happens at
// process start; lookups are read-only afterwards.
type Table struct {
	rates map[string]Rates
}

// defaultRates are the published vendor list prices. Self-hosted models cost
// nothing per token and are listed at zero so their results are not flagged
// cost-unknown.
var defaultRates = map[string]Rates{
	"gpt-4o":                     {InputPerMTok: 2.50, OutputPerMTok: 10.00},
	"gpt-4o-mini":                {InputPerMTok: 0.15, OutputPerMTok: 0.60},
	"gpt-4.1":                    {InputPerMTok: 2.00, OutputPerMTok: 8.00},
	"gpt-4.1-mini":               {InputPerMTok: 0.40, OutputPerMTok: 1.60},
	"claude-sonnet-4-5-20250929": {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"claude-haiku-4-5":           {InputPerMTok: 1.00, OutputPerMTok: 5.00},
	"llama3":                     {},
	"llama3.1":                   {},
}

// NewTable returns a Table seeded with the default rates.
func NewTable() *Table {
	rates := make(map[string]Rates, len(defaultRates))
	for model, r := range defaultRates {
		rates[model] = r
	}
	return &Table{rates: rates}
}

// Register adds or overrides the rates for a model. Not safe for concurrent
// use with Lookup; call during startup only.
func (t *Table) Register(model string, r Rates) {
	t.rates[model] = r
}

// Lookup returns the rates for a model and whether the model is priced.
func (t *Table) Lookup(model string) (Rates, bool) {
	r, ok := t.rates[model]
	return r, ok
}

// Cost computes the USD cost of a call. It returns nil when the model is not
// in the table; callers flag such results cost-unknown instead of failing.
func (t *Table) Cost(model string, inputTokens, outputTokens int) *float64 {
	r, ok := t.rates[model]
	if !ok {
		return nil
	}
	cost := float64(inputTokens)*r.InputPerMTok/1_000_000.0 +
		float64(outputTokens)*r.OutputPerMTok/1_000_000.0
	return &cost
}
