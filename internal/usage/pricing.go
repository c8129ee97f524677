package usage

import "strings"

// Rate is the price per 1000 tokens, split by direction.
type Rate struct {
	PromptPer1K     float64 `yaml:"prompt_per_1k" json:"prompt_per_1k"`
	CompletionPer1K float64 `yaml:"completion_per_1k" json:"completion_per_1k"`
}

// Pricing maps "provider/model" to a rate. Unknown models fall back to
// Default so every call gets a cost attributed.
type Pricing struct {
	Rates   map[string]Rate `yaml:"rates" json:"rates"`
	Default Rate            `yaml:"default" json:"default"`
}

// DefaultPricing covers the models the dispatcher ships configured with.
func DefaultPricing() Pricing {
	return Pricing{
		Rates: map[string]Rate{
			"openai/gpt-4o":             {PromptPer1K: 0.0025, CompletionPer1K: 0.01},
			"openai/gpt-4o-mini":        {PromptPer1K: 0.00015, CompletionPer1K: 0.0006},
			"anthropic/claude-sonnet-4": {PromptPer1K: 0.003, CompletionPer1K: 0.015},
			"anthropic/claude-haiku-3":  {PromptPer1K: 0.00025, CompletionPer1K: 0.00125},
		},
		Default: Rate{PromptPer1K: 0.001, CompletionPer1K: 0.002},
	}
}

// Cost derives the monetary cost of one call.
func (p Pricing) Cost(provider, model string, promptTokens, completionTokens int) float64 {
	rate, ok := p.Rates[key(provider, model)]
	if !ok {
		rate = p.Default
	}
	return float64(promptTokens)/1000*rate.PromptPer1K +
		float64(completionTokens)/1000*rate.CompletionPer1K
}

func key(provider, model string) string {
	return strings.ToLower(provider) + "/" + strings.ToLower(model)
}
