package completion

import (
	"context"
	"fmt"

	"github.com/teilomillet/gollm"

	"github.com/collectwise/debtchat/config"
)

// Gollm is a Completer for the providers supported by gollm (anthropic,
// ollama, groq, ...). Model and sampling options are fixed when the client
// is built, so the per-request values are not sent.
type Gollm struct {
	llm      gollm.LLM
	provider string
}

// NewGollm builds a gollm client from cfg.
func NewGollm(cfg config.CompletionConfig) (*Gollm, error) {
	llm, err := gollm.NewLLM(
		gollm.SetProvider(cfg.Provider),
		gollm.SetModel(cfg.Model),
		gollm.SetAPIKey(cfg.APIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.Provider, err)
	}
	if cfg.Endpoint != "" {
		llm.SetEndpoint(cfg.Endpoint)
	}
	llm.SetOption("temperature", cfg.Temperature)
	llm.SetOption("max_tokens", cfg.MaxTokens)

	return NewGollmWith(llm, cfg.Provider), nil
}

// NewGollmWith wraps an existing gollm client.
func NewGollmWith(llm gollm.LLM, provider string) *Gollm {
	return &Gollm{llm: llm, provider: provider}
}

// Complete sends the transcript as one prompt. Generation failures are
// *ProviderError unless ctx ended first, in which case ctx.Err() is
// returned. An empty reply yields a response with no choices.
func (g *Gollm) Complete(ctx context.Context, req Request) (*Response, error) {
	prompt := &gollm.Prompt{Messages: make([]gollm.PromptMessage, 0, len(req.Messages))}
	for _, m := range req.Messages {
		prompt.Messages = append(prompt.Messages, gollm.PromptMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	out, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ProviderError{Provider: g.provider, Err: err}
	}
	if out == "" {
		return &Response{}, nil
	}
	return &Response{Choices: []Choice{{Message: ChoiceMessage{Content: out}}}}, nil
}
