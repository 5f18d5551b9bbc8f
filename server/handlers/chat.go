// Package handlers provides the HTTP handlers of the chat service.
//
// The chat handler validates the posted history, turns it into a transcript
// with the negotiation instruction first, asks the completion service for one
// reply, and answers with that reply or a fixed fallback. Every failure is
// logged with the request ID; callers only ever see fixed messages.
package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/collectwise/debtchat/completion"
	"github.com/collectwise/debtchat/errors"
	"github.com/collectwise/debtchat/server/metrics"
	"github.com/collectwise/debtchat/server/middleware"
	"github.com/collectwise/debtchat/transcript"
)

// FallbackReply is returned when the completion service answers without a
// usable candidate.
const FallbackReply = "I apologize, but I am unable to respond at the moment."

// maxBodyBytes bounds the request body.
const maxBodyBytes = 1 << 20

// ChatResponse is the success body of POST /api/chat and GET /api/greeting.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ChatOptions are the fixed parameters of every completion call.
type ChatOptions struct {
	Instruction string
	Model       string
	Temperature float64
	MaxTokens   int
}

// ChatHandler serves POST /api/chat. It is safe for concurrent use; nothing
// is carried between requests.
type ChatHandler struct {
	completer completion.Completer
	opts      ChatOptions
	logger    *zap.Logger
	metrics   *metrics.Metrics
	tokens    *transcript.TokenCounter
}

// NewChatHandler creates a chat handler. m and tokens may be nil.
func NewChatHandler(c completion.Completer, opts ChatOptions, logger *zap.Logger, m *metrics.Metrics, tokens *transcript.TokenCounter) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{
		completer: c,
		opts:      opts,
		logger:    logger,
		metrics:   m,
		tokens:    tokens,
	}
}

// ServeHTTP implements http.Handler.
//
// Responses:
//   - 200 {"reply": ...} with the first candidate, or FallbackReply
//   - 400 when history is missing, not an array, or holds non-object turns
//   - 500 with a fixed message when the provider or anything else fails
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	logger := h.logger.With(
		zap.String("request_id", requestID),
		zap.String("remote_addr", r.RemoteAddr),
	)

	conversation, err := decodeHistory(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		logger.Warn("Invalid chat request", zap.Error(err))
		errors.WriteError(w, errors.NewValidationError(
			requestID,
			errors.MsgInvalidHistory,
			nil,
		))
		return
	}

	messages := transcript.Build(conversation, h.opts.Instruction)
	h.observeTranscript(messages)

	logger.Debug("Requesting completion",
		zap.Int("turns", len(conversation)),
		zap.String("model", h.opts.Model),
	)

	start := time.Now()
	resp, err := h.completer.Complete(r.Context(), completion.Request{
		Messages:    messages,
		Model:       h.opts.Model,
		Temperature: h.opts.Temperature,
		MaxTokens:   h.opts.MaxTokens,
	})
	h.observeCompletion(time.Since(start))

	if err != nil {
		if r.Context().Err() != nil {
			h.countOutcome(metrics.OutcomeCanceled)
			logger.Info("Client went away before the reply was ready", zap.Error(err))
			errors.WriteError(w, errors.NewInternalError(requestID, err))
			return
		}

		var apiErr *errors.APIError
		if completion.IsProviderError(err) {
			h.countOutcome(metrics.OutcomeProvider)
			apiErr = errors.NewProviderError(requestID, err)
		} else {
			h.countOutcome(metrics.OutcomeInternal)
			apiErr = errors.NewInternalError(requestID, err)
		}
		errors.LogError(h.logger, apiErr, requestID)
		errors.WriteError(w, apiErr)
		return
	}

	reply, ok := resp.FirstContent()
	if !ok {
		h.countOutcome(metrics.OutcomeFallback)
		logger.Warn("Completion returned no usable candidate, sending fallback reply")
		reply = FallbackReply
	} else {
		h.countOutcome(metrics.OutcomeReply)
	}

	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply}, logger)
}

func (h *ChatHandler) observeTranscript(messages []transcript.Message) {
	if h.metrics == nil {
		return
	}
	h.metrics.TranscriptMessages.Observe(float64(len(messages)))
	if h.tokens != nil {
		h.metrics.TranscriptTokens.Observe(float64(h.tokens.Count(messages)))
	}
}

func (h *ChatHandler) observeCompletion(d time.Duration) {
	if h.metrics != nil {
		h.metrics.CompletionDuration.Observe(d.Seconds())
	}
}

func (h *ChatHandler) countOutcome(outcome string) {
	if h.metrics != nil {
		h.metrics.CompletionsTotal.WithLabelValues(outcome).Inc()
	}
}

// decodeHistory reads the request body and returns its history. The body
// must be a JSON object whose "history" is an array of objects. Keys are
// matched exactly; encoding/json would also accept "History" or "HISTORY".
func decodeHistory(body io.Reader) ([]transcript.Turn, error) {
	var req map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, err
	}

	raw := bytes.TrimSpace(req["history"])
	if len(raw) == 0 || raw[0] != '[' {
		return nil, errHistoryNotArray
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, err
	}

	conversation := make([]transcript.Turn, 0, len(elems))
	for _, elem := range elems {
		turn, err := decodeTurn(elem)
		if err != nil {
			return nil, err
		}
		conversation = append(conversation, turn)
	}
	return conversation, nil
}

// decodeTurn decodes one {"sender", "text"} object. Absent or null fields
// are left empty; other unknown keys are ignored.
func decodeTurn(elem json.RawMessage) (transcript.Turn, error) {
	var fields map[string]json.RawMessage
	if elem = bytes.TrimSpace(elem); len(elem) == 0 || elem[0] != '{' {
		return transcript.Turn{}, errTurnNotObject
	}
	if err := json.Unmarshal(elem, &fields); err != nil {
		return transcript.Turn{}, err
	}

	var turn transcript.Turn
	if v, ok := fields["sender"]; ok {
		var sender string
		if err := json.Unmarshal(v, &sender); err != nil {
			return transcript.Turn{}, err
		}
		turn.Sender = transcript.Speaker(sender)
	}
	if v, ok := fields["text"]; ok {
		if err := json.Unmarshal(v, &turn.Text); err != nil {
			return transcript.Turn{}, err
		}
	}
	return turn, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}
