package models

import (
	"fmt"

	"github.com/promptforge/promptforge/internal/apperr"
)

const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderCohere     = "cohere"
	ProviderMistral    = "mistral"
	ProviderPerplexity = "perplexity"
	ProviderDeepSeek   = "deepseek"
)

// providerModels lists the model identifiers accepted per provider.
var providerModels = map[string][]string{
	ProviderOpenAI:     {"gpt-4", "gpt-4-turbo", "gpt-4o", "gpt-4o-mini", "gpt-3.5-turbo"},
	ProviderAnthropic:  {"claude-3-opus-20240229", "claude-3-sonnet-20240229", "claude-3-haiku-20240307", "claude-sonnet-4-20250514", "claude-opus-4-20250514"},
	ProviderCohere:     {"command-r-plus", "command-r", "command-light"},
	ProviderMistral:    {"mistral-large-latest", "mistral-small-latest", "open-mixtral-8x7b"},
	ProviderPerplexity: {"sonar", "sonar-pro", "sonar-reasoning"},
	ProviderDeepSeek:   {"deepseek-chat", "deepseek-reasoner"},
}

// Providers returns the known provider names in a stable order.
func Providers() []string {
	return []string{
		ProviderOpenAI, ProviderAnthropic, ProviderCohere,
		ProviderMistral, ProviderPerplexity, ProviderDeepSeek,
	}
}

// ModelsFor returns the accepted model list for a provider, nil if the
// provider is unknown.
func ModelsFor(provider string) []string {
	return providerModels[provider]
}

// ModelConfig is the provider/model/parameter bundle embedded in a
// prompt draft and in every version snapshot. It is a value type, not a
// persisted entity of its own.
type ModelConfig struct {
	Provider   string          `json:"provider"`
	Name       string          `json:"name"`
	Parameters ModelParameters `json:"parameters"`
}

type ModelParameters struct {
	Temperature      float64  `json:"temperature"`
	MaxTokens        int      `json:"max_tokens"`
	TopP             float64  `json:"top_p"`
	FrequencyPenalty float64  `json:"frequency_penalty"`
	PresencePenalty  float64  `json:"presence_penalty"`
	Stop             []string `json:"stop,omitempty"`
	Stream           bool     `json:"stream"`
}

// Validate rejects out-of-range parameters outright; nothing is clamped.
func (c ModelConfig) Validate() error {
	known, ok := providerModels[c.Provider]
	if !ok {
		return apperr.Validation("unknown provider %q", c.Provider)
	}
	found := false
	for _, m := range known {
		if m == c.Name {
			found = true
			break
		}
	}
	if !found {
		return apperr.Validation("model %q does not belong to provider %q", c.Name, c.Provider)
	}
	if err := c.Parameters.validate(); err != nil {
		return err
	}
	return nil
}

func (p ModelParameters) validate() error {
	checks := []struct {
		name     string
		val      float64
		min, max float64
	}{
		{"temperature", p.Temperature, 0, 2},
		{"max_tokens", float64(p.MaxTokens), 1, 32000},
		{"top_p", p.TopP, 0, 1},
		{"frequency_penalty", p.FrequencyPenalty, -2, 2},
		{"presence_penalty", p.PresencePenalty, -2, 2},
	}
	for _, c := range checks {
		if c.val < c.min || c.val > c.max {
			return apperr.Validation("%s must be in [%s, %s], got %v",
				c.name, trimFloat(c.min), trimFloat(c.max), c.val)
		}
	}
	return nil
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
