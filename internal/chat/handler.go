package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/smilecare-dental/internal/http/middleware"
	"github.com/wolfman30/smilecare-dental/pkg/logging"
)

const (
	WelcomeMessage    = "Hi there! I'm SmileBot. How can I help you with your dental questions or booking today?"
	FallbackMessage   = "I'm having trouble connecting to the server right now. Please try again later or call our office."
	EmptyReplyMessage = "I'm sorry, I couldn't generate a response at the moment."
	maxMessageLength  = 2000
)

// ReplyRecorder counts replies by outcome.
type ReplyRecorder interface {
	ObserveChatReply(outcome string)
}

// Handler serves the chat widget over HTTP and websocket.
type Handler struct {
	relay   Relay
	limiter *middleware.RateLimiter
	metrics ReplyRecorder
	logger  *logging.Logger
}

// NewHandler creates a chat handler. A nil limiter disables rate limiting.
func NewHandler(relay Relay, limiter *middleware.RateLimiter, metrics ReplyRecorder, logger *logging.Logger) *Handler {
	if relay == nil {
		panic("chat: relay cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{relay: relay, limiter: limiter, metrics: metrics, logger: logger}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/welcome", h.Welcome)
	r.Get("/ws", h.HandleWebSocket)
	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.Middleware)
		}
		r.Post("/messages", h.PostMessage)
	})
}

// Reply asks the relay for an answer. It never returns an error: a failed
// relay call yields FallbackMessage and failed=true. Messages the guard
// blocks, or that are empty once cleaned, are answered with BlockedReply
// without reaching the relay.
func (h *Handler) Reply(ctx context.Context, history []Message, message string) (reply string, failed bool) {
	screening := Screen(message)
	if screening.Blocked || strings.TrimSpace(screening.Cleaned) == "" {
		h.observe("blocked")
		h.logger.Warn("chat message blocked", "score", screening.Score, "signals", screening.Signals)
		return BlockedReply, false
	}
	text, err := h.relay.GenerateReply(ctx, history, screening.Cleaned)
	switch {
	case err == nil:
		h.observe("ok")
		return text, false
	case errors.Is(err, ErrEmptyReply):
		h.observe("empty")
		return EmptyReplyMessage, false
	default:
		h.observe("fallback")
		h.logger.Warn("chat reply fell back", "error", err)
		return FallbackMessage, true
	}
}

func (h *Handler) observe(outcome string) {
	if h.metrics != nil {
		h.metrics.ObserveChatReply(outcome)
	}
}

type welcomeResponse struct {
	SessionID string  `json:"sessionId"`
	Message   Message `json:"message"`
}

// Welcome handles GET /chat/welcome.
func (h *Handler) Welcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, welcomeResponse{
		SessionID: uuid.NewString(),
		Message:   Message{Role: RoleAssistant, Text: WelcomeMessage},
	})
}

type messageRequest struct {
	History []Message `json:"history"`
	Message string    `json:"message"`
}

type messageResponse struct {
	Reply string `json:"reply"`
	Error bool   `json:"error"`
}

// PostMessage handles POST /chat/messages.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateTurn(req.History, req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reply, failed := h.Reply(r.Context(), req.History, req.Message)
	writeJSON(w, http.StatusOK, messageResponse{Reply: reply, Error: failed})
}

func validateTurn(history []Message, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return ErrEmptyMessage
	}
	if len(message) > maxMessageLength {
		return errors.New("chat: message is too long")
	}
	for _, msg := range history {
		if _, err := NormalizeRole(msg.Role); err != nil {
			return err
		}
	}
	return nil
}

// InboundFrame is what the widget sends over the websocket.
type InboundFrame struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundFrame is what the server sends over the websocket.
type OutboundFrame struct {
	Type      string `json:"type"` // "session", "typing", "message", "error", "pong"
	Role      string `json:"role,omitempty"`
	Text      string `json:"text,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Error     bool   `json:"error,omitempty"`
}

// HandleWebSocket upgrades to a websocket. History lives with the connection
// and is gone when it closes.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := uuid.NewString()
	clientIP := middleware.ClientIP(r)

	_ = websocket.JSON.Send(conn, OutboundFrame{Type: "session", SessionID: sessionID})
	_ = websocket.JSON.Send(conn, OutboundFrame{Type: "message", Role: RoleAssistant, Text: WelcomeMessage})

	history := []Message{{Role: RoleAssistant, Text: WelcomeMessage}}
	h.logger.Info("chat: connection opened", "session_id", sessionID)

	for {
		var frame InboundFrame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			h.logger.Debug("chat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		if frame.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundFrame{Type: "pong"})
			continue
		}
		if frame.Type != "message" {
			continue
		}
		if err := validateTurn(nil, frame.Text); err != nil {
			_ = websocket.JSON.Send(conn, OutboundFrame{Type: "error", Text: err.Error()})
			continue
		}
		if h.limiter != nil && !h.limiter.Allow(clientIP) {
			_ = websocket.JSON.Send(conn, OutboundFrame{Type: "error", Text: "rate limit exceeded"})
			continue
		}

		_ = websocket.JSON.Send(conn, OutboundFrame{Type: "typing"})
		reply, failed := h.Reply(r.Context(), history, frame.Text)
		if err := websocket.JSON.Send(conn, OutboundFrame{Type: "message", Role: RoleAssistant, Text: reply, Error: failed}); err != nil {
			return
		}

		history = append(history, Message{Role: RoleUser, Text: strings.TrimSpace(frame.Text)})
		if !failed {
			history = append(history, Message{Role: RoleAssistant, Text: reply})
		}
		if len(history) > 2*maxHistoryMessages {
			history = history[len(history)-2*maxHistoryMessages:]
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
