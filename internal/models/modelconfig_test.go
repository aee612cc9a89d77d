package models

import (
	"testing"

	"github.com/promptforge/promptforge/internal/apperr"
)

func validConfig() ModelConfig {
	return ModelConfig{
		Provider: ProviderOpenAI,
		Name:     "gpt-4o",
		Parameters: ModelParameters{
			Temperature: 0.7,
			MaxTokens:   2048,
			TopP:        1,
		},
	}
}

func TestModelConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ModelConfig)
		wantErr bool
	}{
		{"valid", func(c *ModelConfig) {}, false},
		{"unknown provider", func(c *ModelConfig) { c.Provider = "azure" }, true},
		{"model from wrong provider", func(c *ModelConfig) { c.Name = "claude-3-opus-20240229" }, true},
		{"temperature at upper bound", func(c *ModelConfig) { c.Parameters.Temperature = 2 }, false},
		{"temperature above range", func(c *ModelConfig) { c.Parameters.Temperature = 2.01 }, true},
		{"temperature negative", func(c *ModelConfig) { c.Parameters.Temperature = -0.1 }, true},
		{"max_tokens zero", func(c *ModelConfig) { c.Parameters.MaxTokens = 0 }, true},
		{"max_tokens at cap", func(c *ModelConfig) { c.Parameters.MaxTokens = 32000 }, false},
		{"max_tokens over cap", func(c *ModelConfig) { c.Parameters.MaxTokens = 32001 }, true},
		{"top_p above one", func(c *ModelConfig) { c.Parameters.TopP = 1.5 }, true},
		{"frequency_penalty below range", func(c *ModelConfig) { c.Parameters.FrequencyPenalty = -2.5 }, true},
		{"frequency_penalty at bound", func(c *ModelConfig) { c.Parameters.FrequencyPenalty = -2 }, false},
		{"presence_penalty above range", func(c *ModelConfig) { c.Parameters.PresencePenalty = 2.5 }, true},
		{"anthropic model", func(c *ModelConfig) {
			c.Provider = ProviderAnthropic
			c.Name = "claude-sonnet-4-20250514"
		}, false},
		{"deepseek model", func(c *ModelConfig) {
			c.Provider = ProviderDeepSeek
			c.Name = "deepseek-chat"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected validation error, got nil")
				}
				if apperr.KindOf(err) != apperr.KindValidation {
					t.Errorf("expected validation kind, got %s", apperr.KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestModelsForUnknownProvider(t *testing.T) {
	if got := ModelsFor("nonexistent"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestProvidersCoverModelLists(t *testing.T) {
	for _, p := range Providers() {
		if len(ModelsFor(p)) == 0 {
			t.Errorf("provider %s has no models", p)
		}
	}
}
