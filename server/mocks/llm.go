package mocks

import (
	"context"

	"github.com/teilomillet/gollm"
	"github.com/teilomillet/gollm/llm"
	"github.com/teilomillet/gollm/utils"
)

// MockLLM implements gollm.LLM for exercising the gollm completion backend
// without a provider. Generate delegates to GenerateFunc; Options records
// every SetOption call.
type MockLLM struct {
	GenerateFunc func(context.Context, *gollm.Prompt) (string, error)
	Provider     string
	Model        string
	Endpoint     string
	Options      map[string]interface{}
}

// NewMockLLM creates a MockLLM. A nil generateFunc returns "" with no error.
func NewMockLLM(generateFunc func(context.Context, *gollm.Prompt) (string, error)) *MockLLM {
	return &MockLLM{
		GenerateFunc: generateFunc,
		Provider:     "mock",
		Model:        "mock-model",
		Options:      make(map[string]interface{}),
	}
}

func (m *MockLLM) Generate(ctx context.Context, prompt *gollm.Prompt, opts ...llm.GenerateOption) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return "", nil
}

func (m *MockLLM) GenerateWithSchema(ctx context.Context, prompt *gollm.Prompt, schema interface{}, opts ...llm.GenerateOption) (string, error) {
	return m.Generate(ctx, prompt)
}

func (m *MockLLM) Debug(format string, args ...interface{}) {}

func (m *MockLLM) GetPromptJSONSchema(opts ...gollm.SchemaOption) ([]byte, error) {
	return []byte(`{}`), nil
}

func (m *MockLLM) GetProvider() string { return m.Provider }

func (m *MockLLM) GetModel() string { return m.Model }

func (m *MockLLM) GetLogLevel() gollm.LogLevel { return gollm.LogLevelInfo }

func (m *MockLLM) UpdateLogLevel(level gollm.LogLevel) {}

func (m *MockLLM) SetLogLevel(level gollm.LogLevel) {}

func (m *MockLLM) GetLogger() utils.Logger { return nil }

func (m *MockLLM) NewPrompt(text string) *gollm.Prompt {
	return &gollm.Prompt{
		Messages: []gollm.PromptMessage{{Role: "user", Content: text}},
	}
}

func (m *MockLLM) SetEndpoint(endpoint string) { m.Endpoint = endpoint }

func (m *MockLLM) SetOption(key string, value interface{}) { m.Options[key] = value }

func (m *MockLLM) SupportsJSONSchema() bool { return true }

func (m *MockLLM) SetOllamaEndpoint(endpoint string) error {
	m.Endpoint = endpoint
	return nil
}

func (m *MockLLM) SetSystemPrompt(prompt string, cacheType llm.CacheType) {}
