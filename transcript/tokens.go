package transcript

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts tokens in a piece of text.
type Tokenizer interface {
	CountTokens(text string) int
}

// tiktokenWrapper adapts tiktoken to Tokenizer.
type tiktokenWrapper struct {
	*tiktoken.Tiktoken
}

func (t *tiktokenWrapper) CountTokens(text string) int {
	return len(t.Encode(text, nil, nil))
}

// TokenCounter estimates transcript sizes for logging and metrics.
type TokenCounter struct {
	encoding Tokenizer
}

// NewTokenCounter loads the tiktoken encoding used by model. Loading may
// need network access to fetch the encoding ranks.
func NewTokenCounter(model string) (*TokenCounter, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("get encoding for model %s: %w", model, err)
	}
	return &TokenCounter{encoding: &tiktokenWrapper{encoding}}, nil
}

// NewTokenCounterWith builds a counter around an existing tokenizer.
func NewTokenCounterWith(t Tokenizer) *TokenCounter {
	return &TokenCounter{encoding: t}
}

// Count returns the total number of content tokens in msgs.
// A nil counter counts nothing.
func (tc *TokenCounter) Count(msgs []Message) int {
	if tc == nil || tc.encoding == nil {
		return 0
	}
	total := 0
	for _, msg := range msgs {
		total += tc.encoding.CountTokens(msg.Content)
	}
	return total
}
