package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/smilecare-dental/internal/appointments"
	"github.com/wolfman30/smilecare-dental/internal/catalog"
	"github.com/wolfman30/smilecare-dental/pkg/logging"
)

// Handler serves the admin API.
type Handler struct {
	review   *Review
	gate     *Gate
	catalog  *catalog.Catalog
	gatherer prometheus.Gatherer
	logger   *logging.Logger
}

func NewHandler(review *Review, gate *Gate, c *catalog.Catalog, gatherer prometheus.Gatherer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{review: review, gate: gate, catalog: c, gatherer: gatherer, logger: logger}
}

// Routes mounts login/logout publicly and everything else behind the gate.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Middleware())
		r.Get("/appointments", h.ListAppointments)
		r.Get("/stats", h.GetStats)
		r.Get("/dashboard", h.GetDashboard)
		r.Post("/appointments/{id}/status", h.UpdateStatus)
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /admin/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, err := h.gate.Login(req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			h.logger.Warn("admin login rejected", "username", req.Username)
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error("admin token issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	h.logger.Info("admin logged in", "username", req.Username)
	writeJSON(w, http.StatusOK, token)
}

// Logout handles POST /admin/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.gate.Logout()
	w.WriteHeader(http.StatusNoContent)
}

// ListAppointments handles GET /admin/appointments?status=.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	list := h.review.Filter(filter)
	writeJSON(w, http.StatusOK, map[string]any{
		"filter":       filter,
		"appointments": list,
		"count":        len(list),
	})
}

// GetStats handles GET /admin/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.review.Stats(h.review.Today()))
}

// GetDashboard handles GET /admin/dashboard?status=.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, BuildDashboard(h.review, h.catalog, filter, h.gatherer))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles POST /admin/appointments/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, err := appointments.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	change, err := h.review.Transition(r.Context(), chi.URLParam(r, "id"), status)
	switch {
	case errors.Is(err, appointments.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	case errors.Is(err, appointments.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":   "status transition not allowed",
			"current": change.From,
			"allowed": Actions(change.From),
		})
		return
	case err != nil:
		h.logger.Error("status update failed", "error", err)
		writeError(w, http.StatusInternalServerError, "status update failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"appointment": change.Appointment,
		"changed":     change.Changed,
		"actions":     Actions(change.Appointment.Status),
	})
}

func (h *Handler) parseFilter(w http.ResponseWriter, r *http.Request) (StatusFilter, bool) {
	filter, err := ParseFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return filter, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
