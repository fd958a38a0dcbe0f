package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/smilecare-dental/internal/appointments"
	"github.com/wolfman30/smilecare-dental/internal/catalog"
)

type adminFixture struct {
	router http.Handler
	store  *appointments.Store
}

func newAdminFixture(t *testing.T) adminFixture {
	t.Helper()
	store := seededStore(t)
	gate, err := NewGate("admin", "test-secret", time.Hour, store)
	require.NoError(t, err)
	h := NewHandler(NewReview(store, nil), gate, catalog.Default(), prometheus.NewRegistry(), nil)
	r := chi.NewRouter()
	r.Route("/admin", h.Routes)
	return adminFixture{router: r, store: store}
}

func (f adminFixture) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f adminFixture) login(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/admin/login", "", `{"username":"admin","password":"admin"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tok Token
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	require.NotEmpty(t, tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	return tok.AccessToken
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	f := newAdminFixture(t)
	rec := f.do(t, http.MethodPost, "/admin/login", "", `{"password":"letmein"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, f.store.Authenticated())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newAdminFixture(t)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/admin/appointments", "", "").Code)

	token := f.login(t)
	assert.True(t, f.store.Authenticated())
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/admin/appointments", token, "").Code)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/admin/logout", "", "").Code)
	assert.False(t, f.store.Authenticated())
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/admin/appointments", token, "").Code)
}

func TestListAppointmentsFilter(t *testing.T) {
	f := newAdminFixture(t)
	token := f.login(t)

	rec := f.do(t, http.MethodGet, "/admin/appointments?status=Pending", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count        int                        `json:"count"`
		Appointments []appointments.Appointment `json:"appointments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "apt_2", body.Appointments[0].ID)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/admin/appointments?status=lost", token, "").Code)
}

func TestUpdateStatusFlow(t *testing.T) {
	f := newAdminFixture(t)
	token := f.login(t)

	rec := f.do(t, http.MethodPost, "/admin/appointments/apt_2/status", token, `{"status":"Confirmed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got, _ := f.store.Get("apt_2")
	assert.Equal(t, appointments.StatusConfirmed, got.Status)

	rec = f.do(t, http.MethodPost, "/admin/appointments/apt_2/status", token, `{"status":"Confirmed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var again struct {
		Changed bool `json:"changed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.False(t, again.Changed)

	rec = f.do(t, http.MethodPost, "/admin/appointments/apt_2/status", token, `{"status":"Pending"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/admin/appointments/apt_404/status", token, `{"status":"Confirmed"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/admin/appointments/apt_2/status", token, `{"status":"Archived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsAndDashboardEndpoints(t *testing.T) {
	f := newAdminFixture(t)
	token := f.login(t)

	rec := f.do(t, http.MethodGet, "/admin/stats", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, Stats{Pending: 1, Confirmed: 1, Today: 1, Total: 2}, stats)

	rec = f.do(t, http.MethodGet, "/admin/dashboard?status=Confirmed", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var dash Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	require.Len(t, dash.Appointments, 1)
	assert.Equal(t, "Dr. Sarah Bennett", dash.Appointments[0].DoctorName)
}

func TestGateGeneratesSecretWhenEmpty(t *testing.T) {
	store := seededStore(t)
	gate, err := NewGate("pw", "", 0, store)
	require.NoError(t, err)
	assert.Len(t, gate.secret, 64)
	assert.Equal(t, 12*time.Hour, gate.ttl)

	_, err = gate.Login("nope")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	_, err = gate.Login("pw")
	require.NoError(t, err)
	assert.True(t, gate.Open())
}

func TestGateRejectsEmptyConfiguredPassword(t *testing.T) {
	gate, err := NewGate("", "s", time.Hour, seededStore(t))
	require.NoError(t, err)
	_, err = gate.Login("")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}
