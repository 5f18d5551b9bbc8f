package completion

import (
	"context"
	"errors"
	"math"
	"net/url"

	openaiapi "github.com/sashabaranov/go-openai"

	"github.com/collectwise/debtchat/transcript"
)

const providerOpenAI = "openai"

// OpenAI is a Completer backed by the OpenAI chat completions API.
type OpenAI struct {
	api *openaiapi.Client
}

// NewOpenAI creates a client for apiKey. A non-empty baseURL replaces the
// default API endpoint (useful for proxies and compatible servers).
func NewOpenAI(apiKey, baseURL string) *OpenAI {
	cfg := openaiapi.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{
		api: openaiapi.NewClientWithConfig(cfg),
	}
}

// Complete sends one chat completion request. API and transport failures
// are returned as *ProviderError; a cancelled or expired ctx is returned as
// ctx.Err().
func (c *OpenAI) Complete(ctx context.Context, req Request) (*Response, error) {
	apiReq := openaiapi.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toAPIMessages(req.Messages),
		Temperature: apiTemperature(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	}

	resp, err := c.api.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, classifyOpenAIError(err)
	}

	out := &Response{Choices: make([]Choice, 0, len(resp.Choices))}
	for _, ch := range resp.Choices {
		out.Choices = append(out.Choices, Choice{
			Message: ChoiceMessage{Content: ch.Message.Content},
		})
	}
	return out, nil
}

// apiTemperature converts t for the wire. The request field is omitempty, so
// an exact 0 would be dropped and the API default used instead.
func apiTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

func classifyOpenAIError(err error) error {
	var apiErr *openaiapi.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: providerOpenAI, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openaiapi.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{Provider: providerOpenAI, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &ProviderError{Provider: providerOpenAI, Err: err}
	}
	return err
}

func toAPIMessages(msgs []transcript.Message) []openaiapi.ChatCompletionMessage {
	res := make([]openaiapi.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, openaiapi.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return res
}
