package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/smilecare-dental/pkg/logging"
)

const (
	DefaultTimeout     = 20 * time.Second
	maxHistoryMessages = 20
	replyMaxTokens     = 400
	replyTemperature   = 0.4
)

var (
	ErrEmptyReply   = errors.New("chat: provider returned an empty reply")
	ErrEmptyMessage = errors.New("chat: message is required")
	ErrUnknownRole  = errors.New("chat: unknown message role")
)

var relayTracer = otel.Tracer("smilecare.internal.chat")

// Message is one turn of the visible conversation. Role is "user" or
// "assistant"; "model" is accepted as an alias for assistant.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Relay turns a conversation plus a new user message into a reply.
type Relay interface {
	GenerateReply(ctx context.Context, history []Message, message string) (string, error)
}

// LatencyRecorder receives relay call latencies.
type LatencyRecorder interface {
	ObserveChatLatency(provider, status string, seconds float64)
}

// LLMRelay implements Relay on top of an LLMClient.
type LLMRelay struct {
	client   LLMClient
	provider string
	model    string
	persona  string
	timeout  time.Duration
	metrics  LatencyRecorder
	logger   *logging.Logger
}

type RelayOption func(*LLMRelay)

func WithPersona(persona string) RelayOption {
	return func(r *LLMRelay) {
		if strings.TrimSpace(persona) != "" {
			r.persona = persona
		}
	}
}

func WithTimeout(d time.Duration) RelayOption {
	return func(r *LLMRelay) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithModel(model string) RelayOption {
	return func(r *LLMRelay) { r.model = model }
}

// WithProvider sets the label used for failed calls, where the client
// cannot report which provider answered.
func WithProvider(provider string) RelayOption {
	return func(r *LLMRelay) { r.provider = provider }
}

func WithLatencyRecorder(m LatencyRecorder) RelayOption {
	return func(r *LLMRelay) { r.metrics = m }
}

func WithRelayLogger(logger *logging.Logger) RelayOption {
	return func(r *LLMRelay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewLLMRelay(client LLMClient, opts ...RelayOption) *LLMRelay {
	if client == nil {
		panic("chat: llm client cannot be nil")
	}
	r := &LLMRelay{
		client:   client,
		provider: "llm",
		persona:  DefaultPersona,
		timeout:  DefaultTimeout,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GenerateReply sends the persona, the trimmed history and the new message to
// the provider. The call is bounded by the relay timeout.
func (r *LLMRelay) GenerateReply(ctx context.Context, history []Message, message string) (string, error) {
	ctx, span := relayTracer.Start(ctx, "chat.generate_reply")
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	messages, err := toChatMessages(history)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	messages = append(trimHistory(messages, maxHistoryMessages), ChatMessage{Role: RoleUser, Content: message})

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	resp, err := r.client.Complete(callCtx, LLMRequest{
		Model:       r.model,
		System:      []string{r.persona},
		Messages:    messages,
		MaxTokens:   replyMaxTokens,
		Temperature: replyTemperature,
	})
	latency := time.Since(start)

	provider := resp.Provider
	if provider == "" {
		provider = r.provider
	}
	status := "ok"
	if err != nil {
		status = "error"
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
	}
	if r.metrics != nil {
		r.metrics.ObserveChatLatency(provider, status, latency.Seconds())
	}
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("smilecare.chat.provider", provider),
			attribute.Int("smilecare.chat.history_len", len(messages)-1),
			attribute.Float64("smilecare.chat.latency_ms", float64(latency.Milliseconds())),
			attribute.Int("smilecare.chat.output_tokens", int(resp.Usage.OutputTokens)),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("chat relay failed", "provider", provider, "status", status, "latency_ms", latency.Milliseconds(), "error", err)
		return "", fmt.Errorf("chat: relay failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		span.SetStatus(codes.Error, ErrEmptyReply.Error())
		r.logger.Warn("chat relay returned empty reply", "provider", provider, "stop_reason", resp.StopReason)
		return "", ErrEmptyReply
	}
	r.logger.Info("chat relay replied",
		"provider", provider,
		"latency_ms", latency.Milliseconds(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)
	return text, nil
}

// NormalizeRole maps the roles a client may send onto RoleUser or
// RoleAssistant.
func NormalizeRole(role string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleUser:
		return RoleUser, nil
	case RoleAssistant, "model", "bot":
		return RoleAssistant, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
}

func toChatMessages(history []Message) ([]ChatMessage, error) {
	out := make([]ChatMessage, 0, len(history))
	for _, msg := range history {
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			continue
		}
		role, err := NormalizeRole(msg.Role)
		if err != nil {
			return nil, err
		}
		out = append(out, ChatMessage{Role: role, Content: text})
	}
	return out, nil
}

// trimHistory keeps the most recent limit messages and drops a leading
// assistant turn so the provider always sees a user message first.
func trimHistory(messages []ChatMessage, limit int) []ChatMessage {
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	for len(messages) > 0 && messages[0].Role == RoleAssistant {
		messages = messages[1:]
	}
	return messages
}
