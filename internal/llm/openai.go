package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// openaiProvider drives any OpenAI-compatible chat completion server:
// llama.cpp's server, vLLM, LM Studio, or the hosted API. Local servers
// generally accept any API key; hosted ones require a real one.
type openaiProvider struct {
	model  string
	label  string
	client *openai.Client
}

func newOpenAIProvider(cfg Config) *openaiProvider {
	key := cfg.APIKey
	if key == "" {
		// go-openai requires a non-empty bearer token even for local
		// servers that ignore it.
		key = "local"
	}
	cc := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	return &openaiProvider{
		model:  cfg.Model,
		label:  "openai/" + cfg.Model,
		client: openai.NewClientWithConfig(cc),
	}
}

func (p *openaiProvider) Name() string { return p.label }

// ping lists models to confirm the server is reachable and serving.
func (p *openaiProvider) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := p.client.ListModels(ctx); err != nil {
		return &ProviderError{Provider: p.label, Err: fmt.Errorf("model server not reachable: %w", err)}
	}
	return nil
}

// Generate implements Provider.
func (p *openaiProvider) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", &ProviderError{Provider: p.label, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: p.label, Err: errors.New("empty completion response")}
	}
	return resp.Choices[0].Message.Content, nil
}
