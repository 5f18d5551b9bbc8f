package completion

import (
	"go.uber.org/zap"

	"github.com/collectwise/debtchat/config"
)

// New builds the process-wide Completer described by cfg: the OpenAI client
// for the "openai" provider, gollm otherwise, wrapped in a circuit breaker
// when enabled.
func New(cfg config.CompletionConfig, logger *zap.Logger) (Completer, error) {
	var c Completer
	if cfg.Provider == config.ProviderOpenAI {
		c = NewOpenAI(cfg.APIKey, cfg.Endpoint)
	} else {
		g, err := NewGollm(cfg)
		if err != nil {
			return nil, err
		}
		c = g
	}

	logger.Info("Completion client ready",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.Bool("circuit_breaker", cfg.CircuitBreaker.Enabled),
	)

	if cfg.CircuitBreaker.Enabled {
		return NewBreaker(c, cfg.CircuitBreaker, logger), nil
	}
	return c, nil
}
