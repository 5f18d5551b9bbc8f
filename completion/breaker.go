package completion

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/collectwise/debtchat/config"
)

// Breaker wraps a Completer with a circuit breaker. While the breaker is
// open, calls fail immediately with a *ProviderError instead of reaching
// the provider. Requests are never retried.
type Breaker struct {
	next Completer
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next. Only provider errors count as failures, so client
// cancellations and local bugs never open the breaker.
func NewBreaker(next Completer, cfg config.CircuitBreakerConfig, logger *zap.Logger) *Breaker {
	threshold := cfg.FailureThreshold
	settings := gobreaker.Settings{
		Name:        "completion",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return true
			}
			return !IsProviderError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Breaker{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

// Complete forwards req unless the breaker is open.
func (b *Breaker) Complete(ctx context.Context, req Request) (*Response, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &ProviderError{Provider: "circuit_breaker", Err: err}
		}
		return nil, err
	}
	return v.(*Response), nil
}

// State reports the breaker state ("closed", "half-open" or "open").
func (b *Breaker) State() string {
	return b.cb.State().String()
}
