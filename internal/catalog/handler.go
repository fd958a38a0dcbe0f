package catalog

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/smilecare-dental/pkg/logging"
)

// Handler serves the read-only catalog endpoints.
type Handler struct {
	catalog *Catalog
	logger  *logging.Logger
}

// NewHandler creates a catalog handler.
func NewHandler(c *Catalog, logger *logging.Logger) *Handler {
	if c == nil {
		panic("catalog: catalog required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{catalog: c, logger: logger}
}

// Routes mounts the catalog endpoints under /api.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/services", h.ListServices)
	r.Get("/services/grouped", h.GroupedServices)
	r.Get("/services/{serviceID}", h.GetService)
	r.Get("/doctors", h.ListDoctors)
	r.Get("/doctors/{doctorID}", h.GetDoctor)
	r.Get("/time-slots", h.ListTimeSlots)
	r.Get("/clinic", h.GetClinic)
}

// ListServices handles GET /api/services, optionally filtered by ?category=.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("category"))
	if raw == "" {
		writeJSON(w, http.StatusOK, map[string]any{"services": h.catalog.ListServices()})
		return
	}
	category, err := ParseCategory(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	services := h.catalog.ServicesIn(category)
	if services == nil {
		services = []Service{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": services})
}

// GroupedServices handles GET /api/services/grouped.
func (h *Handler) GroupedServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"groups": h.catalog.GroupedServices()})
}

// GetService handles GET /api/services/{serviceID}.
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	service, ok := h.catalog.ServiceByID(chi.URLParam(r, "serviceID"))
	if !ok {
		writeError(w, http.StatusNotFound, "service not found")
		return
	}
	writeJSON(w, http.StatusOK, service)
}

// ListDoctors handles GET /api/doctors. With ?serviceId= it returns only the
// doctors eligible for that service, matching the booking wizard.
func (h *Handler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	serviceID := strings.TrimSpace(r.URL.Query().Get("serviceId"))
	if serviceID == "" {
		writeJSON(w, http.StatusOK, map[string]any{"doctors": h.catalog.ListDoctors()})
		return
	}
	service, ok := h.catalog.ServiceByID(serviceID)
	if !ok {
		writeError(w, http.StatusNotFound, "service not found")
		return
	}
	doctors := h.catalog.DoctorsFor(service.Category)
	if doctors == nil {
		doctors = []Doctor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctors": doctors})
}

// GetDoctor handles GET /api/doctors/{doctorID}.
func (h *Handler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	doctor, ok := h.catalog.DoctorByID(chi.URLParam(r, "doctorID"))
	if !ok {
		writeError(w, http.StatusNotFound, "doctor not found")
		return
	}
	writeJSON(w, http.StatusOK, doctor)
}

// ListTimeSlots handles GET /api/time-slots.
func (h *Handler) ListTimeSlots(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"timeSlots": h.catalog.ListTimeSlots()})
}

// GetClinic handles GET /api/clinic.
func (h *Handler) GetClinic(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Clinic)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
