// Package llm provides the provider-agnostic text-generation capability
// used by the extraction and follow-up pipelines. Pipelines depend only on
// the Provider interface; provider selection is a configuration concern.
//
// Providers are initialized explicitly at startup and verify connectivity
// before the first generation call, so an unreachable model server fails
// fast instead of surfacing on the first user request.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Provider is the generation capability consumed by the pipelines.
type Provider interface {
	// Generate sends a prompt and returns the raw model text. The call is
	// the dominant latency source in the system; callers bound it with a
	// context deadline.
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
	// Name returns a human-readable provider identity, e.g. "ollama/llama3.2".
	Name() string
}

// Options configures a single generation request.
type Options struct {
	Temperature float64 // 0 = deterministic
	MaxTokens   int     // 0 = provider default
}

// Config selects and configures a provider. Provider is the tag; the
// remaining fields apply to whichever backend is selected.
type Config struct {
	Provider string // "ollama" or "openai"
	Model    string // e.g. "llama3.2", "qwen2.5-7b-instruct"
	BaseURL  string // server URL override (empty = provider default)
	APIKey   string // bearer token for openai-compatible servers (optional for local ones)
}

// ProviderError wraps failures of the generation capability: connectivity,
// timeouts, model loading, or malformed provider responses. It is surfaced
// to the caller and never retried internally beyond the extraction
// pipeline's single schema-driven retry.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ProviderError) Unwrap() error { return e.Err }

// NewProvider builds a ready-to-use provider from cfg and verifies the
// backing server is reachable. A nil error means Generate can be called
// immediately; there is no lazy first-call initialization.
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ollama":
		p := newOllamaProvider(cfg)
		if err := p.ping(ctx); err != nil {
			return nil, err
		}
		return p, nil
	case "openai":
		p := newOpenAIProvider(cfg)
		if err := p.ping(ctx); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (supported: ollama, openai)", cfg.Provider)
	}
}

// pingTimeout bounds the startup health check independently of the
// per-request generation timeout.
const pingTimeout = 5 * time.Second
