package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/smilecare-dental/pkg/logging"
)

func newTestRouter() http.Handler {
	h := NewHandler(Default(), logging.New("error"))
	r := chi.NewRouter()
	r.Route("/api", h.Routes)
	return r
}

func doGet(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListServicesByCategory(t *testing.T) {
	rec := doGet(t, newTestRouter(), "/api/services?category=SURGERY")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Services []Service `json:"services"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Services, 2)
	assert.Equal(t, "s4", body.Services[0].ID)
	assert.Equal(t, "s6", body.Services[1].ID)
}

func TestListServicesUnknownCategory(t *testing.T) {
	rec := doGet(t, newTestRouter(), "/api/services?category=nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListDoctorsForService(t *testing.T) {
	rec := doGet(t, newTestRouter(), "/api/doctors?serviceId=s5")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Doctors []Doctor `json:"doctors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Doctors, 1)
	assert.Equal(t, "d2", body.Doctors[0].ID)
}

func TestGetServiceNotFound(t *testing.T) {
	rec := doGet(t, newTestRouter(), "/api/services/zzz")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestGetDoctor(t *testing.T) {
	rec := doGet(t, newTestRouter(), "/api/doctors/d3")
	require.Equal(t, http.StatusOK, rec.Code)
	var d Doctor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, "Dr. Emily Ross", d.Name)
	assert.Equal(t, []Category{CategorySurgery}, d.Specialties)
}

func TestTimeSlotsAndClinic(t *testing.T) {
	router := newTestRouter()
	rec := doGet(t, router, "/api/time-slots")
	require.Equal(t, http.StatusOK, rec.Code)
	var slots struct {
		TimeSlots []string `json:"timeSlots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slots))
	assert.Equal(t, "09:00", slots.TimeSlots[0])

	rec = doGet(t, router, "/api/clinic")
	require.Equal(t, http.StatusOK, rec.Code)
	var info ClinicInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "(555) 123-4567", info.Phone)
}

func TestGroupedServicesEndpoint(t *testing.T) {
	rec := doGet(t, newTestRouter(), "/api/services/grouped")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Groups []CategoryGroup `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Groups, 5)
}
