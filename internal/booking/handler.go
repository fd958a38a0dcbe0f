package booking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/smilecare-dental/internal/appointments"
	"github.com/wolfman30/smilecare-dental/internal/catalog"
	"github.com/wolfman30/smilecare-dental/pkg/logging"
)

// Handler exposes the wizard over HTTP.
type Handler struct {
	wizard *Wizard
	logger *logging.Logger
}

func NewHandler(wizard *Wizard, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{wizard: wizard, logger: logger}
}

// Routes mounts the wizard under /bookings/sessions.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/bookings/sessions", func(r chi.Router) {
		r.Post("/", h.StartSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Get("/doctors", h.ListEligibleDoctors)
			r.Put("/service", h.SetService)
			r.Put("/doctor", h.SetDoctor)
			r.Put("/datetime", h.SetDateTime)
			r.Put("/patient", h.SetPatientDetails)
			r.Post("/next", h.Next)
			r.Post("/back", h.Back)
			r.Post("/submit", h.Submit)
		})
	})
}

type startSessionRequest struct {
	ServiceID string `json:"serviceId"`
	DoctorID  string `json:"doctorId"`
}

type sessionResponse struct {
	*Session
	StepName    string                    `json:"stepName"`
	Appointment *appointments.Appointment `json:"appointment,omitempty"`
}

type errorResponse struct {
	Error   string           `json:"error"`
	Session *sessionResponse `json:"session,omitempty"`
}

// StartSession handles POST /bookings/sessions. Query parameters serviceId and
// doctorId pre-fill the draft; a JSON body may be used instead.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	req := startSessionRequest{
		ServiceID: r.URL.Query().Get("serviceId"),
		DoctorID:  r.URL.Query().Get("doctorId"),
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	session, err := h.wizard.Start(r.Context(), req.ServiceID, req.DoctorID)
	if err != nil {
		h.logger.Error("failed to start booking session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start booking")
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(session, nil))
}

// GetSession handles GET /bookings/sessions/{sessionID}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.wizard.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeWizardError(w, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session, nil))
}

// ListEligibleDoctors handles GET /bookings/sessions/{sessionID}/doctors.
func (h *Handler) ListEligibleDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.wizard.EligibleDoctors(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeWizardError(w, nil, err)
		return
	}
	resp := struct {
		Doctors []catalog.Doctor `json:"doctors"`
		Message string           `json:"message,omitempty"`
	}{Doctors: doctors}
	if len(doctors) == 0 {
		resp.Doctors = []catalog.Doctor{}
		resp.Message = ErrNoEligibleDoctors.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) SetService(w http.ResponseWriter, r *http.Request) {
	var ev SetService
	h.applyDecoded(w, r, &ev, func() Event { return ev })
}

func (h *Handler) SetDoctor(w http.ResponseWriter, r *http.Request) {
	var ev SetDoctor
	h.applyDecoded(w, r, &ev, func() Event { return ev })
}

func (h *Handler) SetDateTime(w http.ResponseWriter, r *http.Request) {
	var ev SetDateTime
	h.applyDecoded(w, r, &ev, func() Event { return ev })
}

func (h *Handler) SetPatientDetails(w http.ResponseWriter, r *http.Request) {
	var ev SetPatientDetails
	h.applyDecoded(w, r, &ev, func() Event { return ev })
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, Next{})
}

func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, Back{})
}

// Submit handles POST /bookings/sessions/{sessionID}/submit.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	session, apt, err := h.wizard.Submit(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeWizardError(w, session, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(session, &apt))
}

func (h *Handler) applyDecoded(w http.ResponseWriter, r *http.Request, dst any, event func() Event) {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.apply(w, r, event())
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request, ev Event) {
	session, err := h.wizard.Apply(r.Context(), chi.URLParam(r, "sessionID"), ev)
	if err != nil {
		h.writeWizardError(w, session, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session, nil))
}

func (h *Handler) writeWizardError(w http.ResponseWriter, session *Session, err error) {
	var resp *sessionResponse
	if session != nil {
		resp = newSessionResponse(session, nil)
	}
	status := http.StatusInternalServerError
	var submitErr *SubmitError
	switch {
	case errors.Is(err, ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.As(err, &submitErr):
		status = http.StatusServiceUnavailable
		if appointments.IsValidation(submitErr.Err) {
			status = http.StatusUnprocessableEntity
		}
	case errors.Is(err, ErrGuard):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ErrWrongStep), errors.Is(err, ErrAtFirstStep),
		errors.Is(err, ErrSubmitRequired), errors.Is(err, ErrAlreadyConfirmed):
		status = http.StatusConflict
	default:
		h.logger.Error("booking request failed", "error", err)
		writeJSON(w, status, errorResponse{Error: "internal error", Session: resp})
		return
	}
	writeJSON(w, status, errorResponse{Error: userMessage(err), Session: resp})
}

func newSessionResponse(session *Session, apt *appointments.Appointment) *sessionResponse {
	return &sessionResponse{Session: session, StepName: session.State.Step.String(), Appointment: apt}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
