package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/smilecare-dental/internal/notify"
)

type recordingForwarder struct {
	got []notify.ContactMessage
	err error
}

func (f *recordingForwarder) ContactReceived(_ context.Context, msg notify.ContactMessage) error {
	f.got = append(f.got, msg)
	return f.err
}

func submit(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/contact", h.Routes)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/contact/", strings.NewReader(body)))
	return rec
}

func TestSubmitForwardsMessage(t *testing.T) {
	fwd := &recordingForwarder{}
	h := NewHandler(fwd, nil)
	h.now = func() time.Time { return time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC) }

	rec := submit(t, h, `{"name":" Sam Lee ","email":"sam@example.com","message":"Do you see kids?"}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "received", resp.Status)

	require.Len(t, fwd.got, 1)
	assert.Equal(t, "Sam Lee", fwd.got[0].Name)
	assert.Equal(t, "Do you see kids?", fwd.got[0].Message)
	assert.Equal(t, 2025, fwd.got[0].ReceivedAt.Year())
}

func TestSubmitValidation(t *testing.T) {
	cases := map[string]struct {
		body string
		want error
	}{
		"missing name":    {`{"email":"a@b.co","message":"hi"}`, ErrMissingName},
		"missing message": {`{"name":"A","email":"a@b.co"}`, ErrMissingMessage},
		"bad email":       {`{"name":"A","email":"not-an-email","message":"hi"}`, ErrInvalidEmail},
		"display name":    {`{"name":"A","email":"A <a@b.co>","message":"hi"}`, ErrInvalidEmail},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			fwd := &recordingForwarder{}
			rec := submit(t, NewHandler(fwd, nil), tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want.Error())
			assert.Empty(t, fwd.got)
		})
	}

	assert.Equal(t, http.StatusBadRequest, submit(t, NewHandler(&recordingForwarder{}, nil), `{`).Code)
}

func TestSubmitForwardFailure(t *testing.T) {
	fwd := &recordingForwarder{err: errors.New("ses down")}
	rec := submit(t, NewHandler(fwd, nil), `{"name":"A","email":"a@b.co","message":"hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestValidateTooLong(t *testing.T) {
	_, err := Request{Name: "A", Email: "a@b.co", Message: strings.Repeat("x", maxMessageLength+1)}.Validate()
	assert.ErrorIs(t, err, ErrMessageTooLong)
}
