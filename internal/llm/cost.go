package llm

// Pricing is the per-million-token price of a model in USD.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// Cost is the computed price of one execution.
type Cost struct {
	Input  float64
	Output float64
	Total  float64
}

var pricing = map[string]Pricing{
	"gemini-3-pro-preview": {InputPerMillion: 2.0, OutputPerMillion: 12.0},
}

// CalculateCost prices usage for model. Unknown models and nil usage cost zero.
func CalculateCost(model string, usage *Usage) Cost {
	p, ok := pricing[model]
	if !ok || usage == nil {
		return Cost{}
	}
	in := float64(usage.PromptTokens) / 1_000_000 * p.InputPerMillion
	out := float64(usage.CompletionTokens) / 1_000_000 * p.OutputPerMillion
	return Cost{Input: in, Output: out, Total: in + out}
}
