// Package config provides configuration management for the chat service.
// Configuration is read from YAML, with ${VAR} and ${VAR:-default}
// references expanded from the environment before decoding, and is
// immutable once loaded.
package config

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables read on top of the YAML file.
const (
	EnvAPIKey = "OPENAI_API_KEY"
	EnvModel  = "OPENAI_MODEL"
)

// ProviderOpenAI selects the OpenAI completion backend. Any other provider
// name is handed to gollm.
const ProviderOpenAI = "openai"

// Config represents the complete service configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Completion  CompletionConfig  `yaml:"completion"`
	Negotiation NegotiationConfig `yaml:"negotiation"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	CORS        CORSConfig        `yaml:"cors"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig holds settings for the HTTP server.
type ServerConfig struct {
	// Port specifies the HTTP server port (default: 8080)
	Port int `yaml:"port" validate:"min=0,max=65535"`

	// ReadTimeout is the maximum duration for reading the entire request (default: 30s)
	ReadTimeout time.Duration `yaml:"read_timeout" validate:"gte=0"`

	// WriteTimeout bounds writing the response. It must outlast a slow
	// completion call (default: 60s)
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`

	// MaxHeaderBytes limits request header size (default: 1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes" validate:"gte=0"`

	// ShutdownTimeout is how long in-flight requests get on shutdown (default: 15s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

// CompletionConfig configures the external completion service.
type CompletionConfig struct {
	// Provider is "openai" or any provider name gollm understands
	// (e.g. "anthropic", "ollama").
	Provider string `yaml:"provider" validate:"required"`

	// APIKey is the provider credential. OPENAI_API_KEY fills it when empty.
	APIKey string `yaml:"api_key"`

	// Model is the model identifier. OPENAI_MODEL overrides it when set.
	Model string `yaml:"model" validate:"required"`

	// Endpoint optionally replaces the provider's base URL.
	Endpoint string `yaml:"endpoint" validate:"omitempty,url"`

	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`

	// MaxTokens bounds the length of each reply.
	MaxTokens int `yaml:"max_tokens" validate:"gt=0"`

	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig controls fail-fast behavior when the provider keeps
// failing. The breaker never retries a request.
type CircuitBreakerConfig struct {
	Enabled bool `yaml:"enabled"`

	// MaxRequests is the number of trial requests allowed while half-open
	MaxRequests uint32 `yaml:"max_requests"`

	// Interval is the cyclic period of the closed state after which counts reset
	Interval time.Duration `yaml:"interval" validate:"gte=0"`

	// Timeout is how long the breaker stays open before going half-open
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`

	// FailureThreshold is the number of consecutive failures that opens the breaker
	FailureThreshold uint32 `yaml:"failure_threshold"`
}

// NegotiationConfig holds the business parameters rendered into the
// system instruction and the widget greeting.
type NegotiationConfig struct {
	Company    string   `yaml:"company" validate:"required"`
	AgentName  string   `yaml:"agent_name" validate:"required"`
	Creditor   string   `yaml:"creditor" validate:"required"`
	DebtAmount int      `yaml:"debt_amount" validate:"gt=0"`
	PaymentURL string   `yaml:"payment_url" validate:"required"`
	Plans      []string `yaml:"plans" validate:"min=1,dive,oneof=monthly biweekly weekly"`
}

// RateLimitConfig limits requests per client IP.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute" validate:"gte=0"`
	Burst             int  `yaml:"burst" validate:"gte=0"`
}

// CORSConfig lists the origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	// Level sets logging verbosity: debug, info, warn, error
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Format specifies log output format: json or text
	Format string `yaml:"format" validate:"oneof=json text"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 15 * time.Second,
		},
		Completion: CompletionConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-4",
			Temperature: 0.7,
			MaxTokens:   500,
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          true,
				MaxRequests:      1,
				Interval:         60 * time.Second,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
		},
		Negotiation: NegotiationConfig{
			Company:    "CollectWise",
			AgentName:  "Vivek",
			Creditor:   "The Bank of LOO",
			DebtAmount: 2400,
			PaymentURL: "collectwise.com/payments",
			Plans:      []string{"monthly", "biweekly", "weekly"},
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 30,
			Burst:             10,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadFile loads configuration from a YAML file. An empty filename yields
// the defaults with environment overrides applied.
func LoadFile(filename string) (*Config, error) {
	if filename == "" {
		return Load(strings.NewReader(""))
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load loads configuration from an io.Reader.
func Load(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	config := DefaultConfig()

	// Decode on top of defaults; an empty document keeps them untouched.
	if expanded := expandEnvVars(string(data)); strings.TrimSpace(expanded) != "" {
		if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} references. Unset
// variables without a default expand to the empty string.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		if i := strings.Index(key, ":-"); i >= 0 {
			if val := os.Getenv(key[:i]); val != "" {
				return val
			}
			return key[i+2:]
		}
		return os.Getenv(key)
	})
}

func (c *Config) applyEnv() {
	if c.Completion.APIKey == "" {
		c.Completion.APIKey = os.Getenv(EnvAPIKey)
	}
	if model := os.Getenv(EnvModel); model != "" {
		c.Completion.Model = model
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			field := strings.TrimPrefix(fe.Namespace(), "Config.")
			return fmt.Errorf("invalid %s: failed %q check (value %v)", field, fe.Tag(), fe.Value())
		}
		return err
	}

	if c.Completion.Provider == ProviderOpenAI && c.Completion.APIKey == "" {
		return fmt.Errorf("completion.api_key is required for the %s provider (set %s)", ProviderOpenAI, EnvAPIKey)
	}

	if cb := c.Completion.CircuitBreaker; cb.Enabled && (cb.MaxRequests == 0 || cb.FailureThreshold == 0) {
		return fmt.Errorf("completion.circuit_breaker needs positive max_requests and failure_threshold when enabled")
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute == 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be positive when rate limiting is enabled")
	}

	return nil
}
