package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/smilecare-dental/internal/notify"
	"github.com/wolfman30/smilecare-dental/pkg/logging"
)

const maxMessageLength = 5000

var (
	ErrMissingName    = errors.New("contact: name is required")
	ErrInvalidEmail   = errors.New("contact: a valid email is required")
	ErrMissingMessage = errors.New("contact: message is required")
	ErrMessageTooLong = errors.New("contact: message is too long")
)

// Forwarder delivers a contact message to the clinic.
type Forwarder interface {
	ContactReceived(ctx context.Context, msg notify.ContactMessage) error
}

// Request is the contact form payload.
type Request struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Validate trims the request and checks the required fields.
func (r Request) Validate() (Request, error) {
	r = Request{
		Name:    strings.TrimSpace(r.Name),
		Email:   strings.TrimSpace(r.Email),
		Phone:   strings.TrimSpace(r.Phone),
		Message: strings.TrimSpace(r.Message),
	}
	switch {
	case r.Name == "":
		return r, ErrMissingName
	case r.Message == "":
		return r, ErrMissingMessage
	case len(r.Message) > maxMessageLength:
		return r, ErrMessageTooLong
	}
	addr, err := mail.ParseAddress(r.Email)
	if err != nil || addr.Address != r.Email {
		return r, ErrInvalidEmail
	}
	return r, nil
}

// Handler accepts contact form submissions.
type Handler struct {
	forwarder Forwarder
	logger    *logging.Logger
	now       func() time.Time
}

func NewHandler(forwarder Forwarder, logger *logging.Logger) *Handler {
	if forwarder == nil {
		panic("contact: forwarder cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{forwarder: forwarder, logger: logger, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Submit)
}

type submitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Submit handles POST /contact.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req, err := req.Validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := uuid.NewString()
	err = h.forwarder.ContactReceived(r.Context(), notify.ContactMessage{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Message:    req.Message,
		ReceivedAt: h.now().UTC(),
	})
	if err != nil {
		h.logger.Error("contact message not delivered", "contact_id", id, "error", err)
		writeError(w, http.StatusServiceUnavailable, "we couldn't send your message right now, please call our office")
		return
	}

	h.logger.Info("contact message received", "contact_id", id)
	writeJSON(w, http.StatusAccepted, submitResponse{ID: id, Status: "received"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
