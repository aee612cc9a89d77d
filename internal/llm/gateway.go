package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/promptforge/promptforge/internal/config"
)

// Gateway routes a run to the provider named in its request and retries
// transient failures.
type Gateway interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Provider(name string) (Provider, error)
	Configured() []string
}

type gateway struct {
	providers  map[string]Provider
	maxRetries int
}

// Base URLs for providers that expose an OpenAI-compatible API.
const (
	mistralBaseURL    = "https://api.mistral.ai/v1"
	perplexityBaseURL = "https://api.perplexity.ai"
	deepseekBaseURL   = "https://api.deepseek.com/v1"
	cohereBaseURL     = "https://api.cohere.ai/compatibility/v1"
)

func NewGateway(cfg config.LLMConfig) Gateway {
	g := &gateway{
		providers:  make(map[string]Provider),
		maxRetries: cfg.MaxRetries,
	}

	if cfg.OpenAIKey != "" {
		g.providers["openai"] = NewOpenAIProvider(cfg.OpenAIKey)
	}
	if cfg.AnthropicKey != "" {
		g.providers["anthropic"] = NewAnthropicProvider(cfg.AnthropicKey)
	}
	if cfg.MistralKey != "" {
		g.providers["mistral"] = NewCompatibleProvider("mistral", cfg.MistralKey, mistralBaseURL)
	}
	if cfg.PerplexityKey != "" {
		g.providers["perplexity"] = NewCompatibleProvider("perplexity", cfg.PerplexityKey, perplexityBaseURL)
	}
	if cfg.DeepSeekKey != "" {
		g.providers["deepseek"] = NewCompatibleProvider("deepseek", cfg.DeepSeekKey, deepseekBaseURL)
	}
	if cfg.CohereKey != "" {
		g.providers["cohere"] = NewCompatibleProvider("cohere", cfg.CohereKey, cohereBaseURL)
	}

	return g
}

func (g *gateway) Provider(name string) (Provider, error) {
	p, ok := g.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not configured", name)
	}
	return p, nil
}

// Configured lists the providers with credentials present.
func (g *gateway) Configured() []string {
	names := make([]string, 0, len(g.providers))
	for name := range g.providers {
		names = append(names, name)
	}
	return names
}

func (g *gateway) Complete(ctx context.Context, req Request) (*Response, error) {
	p, err := g.Provider(req.Provider)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			slog.Warn("retrying completion",
				"provider", req.Provider,
				"attempt", attempt,
				"backoff", backoff,
				"error", lastErr,
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := p.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("completion failed after %d attempts: %w", g.maxRetries+1, lastErr)
}
