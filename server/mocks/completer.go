// Package mocks provides test doubles for the completion layer.
package mocks

import (
	"context"
	"sync"

	"github.com/collectwise/debtchat/completion"
)

// Completer is a stub completion.Completer that records every call.
//
// Example usage:
//
//	stub := mocks.NewCompleter(func(ctx context.Context, req completion.Request) (*completion.Response, error) {
//	    return mocks.Reply("Let's do $300/month."), nil
//	})
type Completer struct {
	CompleteFunc func(context.Context, completion.Request) (*completion.Response, error)

	mu       sync.Mutex
	requests []completion.Request
}

// NewCompleter creates a stub. A nil fn returns a response with no choices.
func NewCompleter(fn func(context.Context, completion.Request) (*completion.Response, error)) *Completer {
	return &Completer{CompleteFunc: fn}
}

// Complete records req and delegates to CompleteFunc.
func (c *Completer) Complete(ctx context.Context, req completion.Request) (*completion.Response, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	if c.CompleteFunc != nil {
		return c.CompleteFunc(ctx, req)
	}
	return &completion.Response{}, nil
}

// Calls returns the number of Complete calls so far.
func (c *Completer) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// LastRequest returns the most recent request, or the zero Request.
func (c *Completer) LastRequest() completion.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.requests) == 0 {
		return completion.Request{}
	}
	return c.requests[len(c.requests)-1]
}

// Reply builds a single-choice response.
func Reply(content string) *completion.Response {
	return &completion.Response{
		Choices: []completion.Choice{{Message: completion.ChoiceMessage{Content: content}}},
	}
}
