package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultOllamaURL = "http://localhost:11434"

// ollamaProvider talks to a local Ollama server through its native
// /api/generate endpoint. Ollama handles GPU offload itself; from this
// side it is just a slow HTTP call.
type ollamaProvider struct {
	model   string
	baseURL string
	client  *http.Client
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func newOllamaProvider(cfg Config) *ollamaProvider {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultOllamaURL
	}
	return &ollamaProvider{
		model:   cfg.Model,
		baseURL: base,
		// No client-level timeout: per-request deadlines come from ctx so
		// the caller controls how long a generation may block.
		client: &http.Client{},
	}
}

func (p *ollamaProvider) Name() string { return "ollama/" + p.model }

// ping verifies the server is up by listing installed models. A refused
// connection here means "ollama serve" is not running.
func (p *ollamaProvider) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return &ProviderError{Provider: p.Name(), Err: err}
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return &ProviderError{Provider: p.Name(), Err: fmt.Errorf("ollama not reachable at %s (start with: ollama serve): %w", p.baseURL, err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &ProviderError{Provider: p.Name(), Err: fmt.Errorf("ollama responded with status %d", resp.StatusCode)}
	}
	return nil
}

// Generate implements Provider.
func (p *ollamaProvider) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:  p.model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
		},
	})
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return "", &ProviderError{Provider: p.Name(), Err: fmt.Errorf("request timed out, the model may still be loading: %w", err)}
		}
		return "", &ProviderError{Provider: p.Name(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{Provider: p.Name(), Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(raw), 200))}
	}

	var out ollamaResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &ProviderError{Provider: p.Name(), Err: fmt.Errorf("malformed response: %w", err)}
	}
	if out.Error != "" {
		return "", &ProviderError{Provider: p.Name(), Err: errors.New(out.Error)}
	}
	return out.Response, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
