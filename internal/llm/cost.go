package llm

// costPerToken stores per-1K-token pricing for known models, USD
// [input, output]. Unknown models cost zero rather than erroring; the
// run still succeeds, it just isn't priced.
var costPerToken = map[string][2]float64{
	// OpenAI
	"gpt-4":         {0.03, 0.06},
	"gpt-4-turbo":   {0.01, 0.03},
	"gpt-4o":        {0.005, 0.015},
	"gpt-4o-mini":   {0.00015, 0.0006},
	"gpt-3.5-turbo": {0.0005, 0.0015},

	// Anthropic
	"claude-3-opus-20240229":   {0.015, 0.075},
	"claude-3-sonnet-20240229": {0.003, 0.015},
	"claude-3-haiku-20240307":  {0.00025, 0.00125},
	"claude-sonnet-4-20250514": {0.003, 0.015},
	"claude-opus-4-20250514":   {0.015, 0.075},

	// Cohere
	"command-r-plus": {0.0025, 0.01},
	"command-r":      {0.00015, 0.0006},
	"command-light":  {0.0003, 0.0006},

	// Mistral
	"mistral-large-latest": {0.002, 0.006},
	"mistral-small-latest": {0.0002, 0.0006},
	"open-mixtral-8x7b":    {0.0007, 0.0007},

	// Perplexity
	"sonar":           {0.001, 0.001},
	"sonar-pro":       {0.003, 0.015},
	"sonar-reasoning": {0.001, 0.005},

	// DeepSeek
	"deepseek-chat":     {0.00027, 0.0011},
	"deepseek-reasoner": {0.00055, 0.00219},
}

func CalculateCost(model string, inputTokens, outputTokens int) float64 {
	prices, ok := costPerToken[model]
	if !ok {
		return 0
	}
	inputCost := float64(inputTokens) / 1000.0 * prices[0]
	outputCost := float64(outputTokens) / 1000.0 * prices[1]
	return inputCost + outputCost
}
