// Package server wires the chat service's routes and runs its HTTP server.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/collectwise/debtchat/completion"
	"github.com/collectwise/debtchat/config"
	"github.com/collectwise/debtchat/errors"
	"github.com/collectwise/debtchat/server/handlers"
	"github.com/collectwise/debtchat/server/metrics"
	"github.com/collectwise/debtchat/server/middleware"
	"github.com/collectwise/debtchat/transcript"
)

// Router handles HTTP routing
type Router struct {
	router chi.Router
}

// RouterOptions carries the dependencies of NewRouter. Metrics and Tokens
// may be nil.
type RouterOptions struct {
	Config    *config.Config
	Completer completion.Completer
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Tokens    *transcript.TokenCounter
}

// NewRouter creates a router serving:
//
//	POST /api/chat      next bot reply for a history
//	GET  /api/greeting  opening bot turn
//	GET  /health        liveness
//	GET  /metrics       Prometheus metrics (when Metrics is set)
func NewRouter(opts RouterOptions) *Router {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	negotiation := transcript.FromConfig(cfg.Negotiation)

	r := chi.NewRouter()

	// Add our middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTimer)
	r.Use(middleware.Logging(logger))
	if opts.Metrics != nil {
		r.Use(middleware.PrometheusMetrics(opts.Metrics))
	}
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errors.ErrorWithType(w, "Not found", errors.NotFoundError, http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errors.ErrorWithType(w, "Method not allowed", errors.MethodNotAllowedError, http.StatusMethodNotAllowed)
	})

	chat := handlers.NewChatHandler(opts.Completer, handlers.ChatOptions{
		Instruction: negotiation.Instruction(),
		Model:       cfg.Completion.Model,
		Temperature: cfg.Completion.Temperature,
		MaxTokens:   cfg.Completion.MaxTokens,
	}, logger, opts.Metrics, opts.Tokens)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.RateLimit.Enabled {
				r.Use(middleware.NewRateLimiter(cfg.RateLimit, opts.Metrics).Handler)
			}
			r.Method(http.MethodPost, "/chat", chat)
		})
		r.Get("/greeting", handlers.GreetingHandler(negotiation.Greeting(), logger))
	})

	r.Get("/health", handlers.HealthHandler(logger))
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	return &Router{router: r}
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// Server represents the HTTP server
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

// NewServer creates a new server instance
func NewServer(cfg config.ServerConfig, handler http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:           fmt.Sprintf(":%d", cfg.Port),
			Handler:        handler,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			MaxHeaderBytes: cfg.MaxHeaderBytes,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully, giving
// in-flight requests up to the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("Server started", zap.String("address", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.logger.Info("Shutting down server")
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error during server shutdown: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}
