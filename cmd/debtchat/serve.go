package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/collectwise/debtchat/completion"
	"github.com/collectwise/debtchat/config"
	"github.com/collectwise/debtchat/errors"
	"github.com/collectwise/debtchat/logger"
	"github.com/collectwise/debtchat/server"
	"github.com/collectwise/debtchat/server/metrics"
	"github.com/collectwise/debtchat/transcript"
)

const serveLongDesc string = `Start the HTTP server.

OPENAI_API_KEY must be set (or completion.api_key configured) when the
provider is openai. OPENAI_MODEL overrides the configured model.

Examples:
  debtchat serve
  debtchat serve --config debtchat.yaml`

type serveCommander struct {
	noTokens bool
}

func newServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat server",
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), configPath(cmd))
		},
	}

	cmd.Flags().BoolVar(&cmder.noTokens, "no-token-metrics", false, "Skip loading the tokenizer used for transcript size metrics")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, path string) error {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck
	errors.SetLogger(log)

	completer, err := completion.New(cfg.Completion, log)
	if err != nil {
		return fmt.Errorf("create completion client: %w", err)
	}

	var tokens *transcript.TokenCounter
	if !c.noTokens {
		tokens, err = transcript.NewTokenCounter(cfg.Completion.Model)
		if err != nil {
			log.Warn("Token metrics disabled", zap.Error(err))
		}
	}

	router := server.NewRouter(server.RouterOptions{
		Config:    cfg,
		Completer: completer,
		Logger:    log,
		Metrics:   metrics.NewMetrics(),
		Tokens:    tokens,
	})
	srv := server.NewServer(cfg.Server, router, log)

	log.Info("Starting debtchat",
		zap.String("version", Version),
		zap.Int("port", cfg.Server.Port),
		zap.String("provider", cfg.Completion.Provider),
		zap.String("model", cfg.Completion.Model),
		zap.Int("debt_amount", cfg.Negotiation.DebtAmount),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			log.Info("Received shutdown signal")
		}
		return nil
	})

	return g.Wait()
}
