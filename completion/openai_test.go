package completion_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collectwise/debtchat/completion"
	"github.com/collectwise/debtchat/transcript"
)

// fakeOpenAI serves /v1/chat/completions with handler and records the
// decoded request bodies.
func fakeOpenAI(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *[]map[string]interface{}) {
	t.Helper()
	var bodies []map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &bodies
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestOpenAIComplete(t *testing.T) {
	srv, bodies := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4",
			"choices": [
				{"index": 0, "message": {"role": "assistant", "content": "Let's do $300/month for 8 months."}, "finish_reason": "stop"}
			]
		}`)
	})

	client := completion.NewOpenAI("sk-test", srv.URL+"/v1")
	resp, err := client.Complete(context.Background(), completion.Request{
		Messages: transcript.Build([]transcript.Turn{
			{Sender: transcript.SpeakerBot, Text: "Hello"},
			{Sender: transcript.SpeakerUser, Text: "I can pay $200/month"},
		}, "negotiate"),
		Model:       "gpt-4",
		Temperature: 0.7,
		MaxTokens:   500,
	})
	require.NoError(t, err)

	content, ok := resp.FirstContent()
	assert.True(t, ok)
	assert.Equal(t, "Let's do $300/month for 8 months.", content)

	require.Len(t, *bodies, 1)
	sent := (*bodies)[0]
	assert.Equal(t, "gpt-4", sent["model"])
	assert.InDelta(t, 0.7, sent["temperature"], 1e-6)
	assert.Equal(t, float64(500), sent["max_tokens"])

	msgs, ok := sent["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, msgs, 3)
	assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])
	assert.Equal(t, "assistant", msgs[1].(map[string]interface{})["role"])
	assert.Equal(t, "user", msgs[2].(map[string]interface{})["role"])
	assert.Equal(t, "I can pay $200/month", msgs[2].(map[string]interface{})["content"])
}

func TestOpenAICompleteNoChoices(t *testing.T) {
	srv, _ := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id": "chatcmpl-2", "object": "chat.completion", "choices": []}`)
	})

	resp, err := completion.NewOpenAI("sk-test", srv.URL+"/v1").
		Complete(context.Background(), completion.Request{Model: "gpt-4", MaxTokens: 10})
	require.NoError(t, err)

	_, ok := resp.FirstContent()
	assert.False(t, ok)
}

func TestOpenAICompleteAPIError(t *testing.T) {
	srv, _ := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{
			"error": {"message": "Incorrect API key provided: sk-test", "type": "invalid_request_error", "code": "invalid_api_key"}
		}`)
	})

	_, err := completion.NewOpenAI("sk-test", srv.URL+"/v1").
		Complete(context.Background(), completion.Request{Model: "gpt-4", MaxTokens: 10})
	require.Error(t, err)
	assert.True(t, completion.IsProviderError(err))

	var pe *completion.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "openai", pe.Provider)
	assert.Equal(t, http.StatusUnauthorized, pe.StatusCode)
}

func TestOpenAICompleteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := completion.NewOpenAI("sk-test", url+"/v1").
		Complete(context.Background(), completion.Request{Model: "gpt-4", MaxTokens: 10})
	require.Error(t, err)
	assert.True(t, completion.IsProviderError(err))
}

func TestOpenAICompleteSendsZeroTemperature(t *testing.T) {
	srv, bodies := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id": "chatcmpl-3", "object": "chat.completion", "choices": []}`)
	})

	_, err := completion.NewOpenAI("sk-test", srv.URL+"/v1").
		Complete(context.Background(), completion.Request{Model: "gpt-4", Temperature: 0, MaxTokens: 500})
	require.NoError(t, err)

	require.Len(t, *bodies, 1)
	temp, ok := (*bodies)[0]["temperature"]
	require.True(t, ok, "temperature 0 must be sent, not omitted")
	assert.InDelta(t, 0, temp, 1e-6)
}

func TestOpenAICompleteCallerGaveUp(t *testing.T) {
	srv, _ := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := completion.NewOpenAI("sk-test", srv.URL+"/v1").
		Complete(ctx, completion.Request{Model: "gpt-4", MaxTokens: 10})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, completion.IsProviderError(err))
}
