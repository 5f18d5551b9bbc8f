// Package completion talks to the hosted chat completion service.
//
// Handlers depend on the Completer interface only; the process builds one
// Completer at startup with New and shares it read-only between requests.
package completion

import (
	"context"
	"errors"
	"fmt"

	"github.com/collectwise/debtchat/transcript"
)

// Completer generates a reply for a transcript.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request is a single completion call.
type Request struct {
	Messages    []transcript.Message
	Model       string
	Temperature float64
	MaxTokens   int
}

// ChoiceMessage is the message of a returned candidate.
type ChoiceMessage struct {
	Content string `json:"content"`
}

// Choice is one returned candidate.
type Choice struct {
	Message ChoiceMessage `json:"message"`
}

// Response carries the candidates returned by the service.
type Response struct {
	Choices []Choice `json:"choices"`
}

// FirstContent returns the content of the first candidate. ok is false when
// there is no candidate or its content is empty.
func (r *Response) FirstContent() (content string, ok bool) {
	if r == nil || len(r.Choices) == 0 {
		return "", false
	}
	content = r.Choices[0].Message.Content
	return content, content != ""
}

// ProviderError is a failure reported by, or while reaching, the completion
// provider. Its details are for logs only.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s provider error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError reports whether err is or wraps a *ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
