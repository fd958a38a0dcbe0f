package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/smilecare-dental/internal/appointments"
	"github.com/wolfman30/smilecare-dental/internal/catalog"
)

var reviewNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func seededStore(t *testing.T) *appointments.Store {
	t.Helper()
	store := appointments.NewStore(catalog.Default(), appointments.WithClock(func() time.Time { return reviewNow }))
	require.NoError(t, store.Seed(appointments.DemoFixtures(reviewNow, time.UTC)))
	return store
}

func ids(list []appointments.Appointment) []string {
	out := make([]string, 0, len(list))
	for _, apt := range list {
		out = append(out, apt.ID)
	}
	return out
}

func TestParseFilter(t *testing.T) {
	for raw, want := range map[string]StatusFilter{
		"":          FilterAll,
		"all":       FilterAll,
		"ALL":       FilterAll,
		"pending":   StatusFilter(appointments.StatusPending),
		"Cancelled": StatusFilter(appointments.StatusCancelled),
	} {
		got, err := ParseFilter(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	_, err := ParseFilter("archived")
	assert.ErrorIs(t, err, appointments.ErrUnknownStatus)
}

func TestFilterByStatus(t *testing.T) {
	review := NewReview(seededStore(t), nil)
	assert.Equal(t, []string{"apt_1", "apt_2"}, ids(review.Filter(FilterAll)))
	assert.Equal(t, []string{"apt_2"}, ids(review.Filter(StatusFilter(appointments.StatusPending))))
	assert.Equal(t, []string{"apt_1"}, ids(review.Filter(StatusFilter(appointments.StatusConfirmed))))
	assert.Empty(t, review.Filter(StatusFilter(appointments.StatusCompleted)))
}

func TestStatsAreDerived(t *testing.T) {
	store := seededStore(t)
	review := NewReview(store, nil)
	assert.Equal(t, Stats{Pending: 1, Confirmed: 1, Today: 1, Total: 2}, review.Stats(review.Today()))

	_, err := review.Transition(context.Background(), "apt_2", appointments.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, Stats{Pending: 0, Confirmed: 2, Today: 1, Total: 2}, review.Stats("2025-03-10"))
	assert.Equal(t, 1, review.Stats("2025-03-11").Today)
}

func TestTransitionScenario(t *testing.T) {
	store := seededStore(t)
	review := NewReview(store, nil)
	ctx := context.Background()

	apt, err := store.Create(ctx, appointments.Draft{
		PatientName: "Jane Roe", PatientEmail: "jane@x.com", PatientPhone: "555-0000",
		ServiceID: "s1", DoctorID: "d1", Date: "2025-03-11", Time: "09:00",
	})
	require.NoError(t, err)
	pending := StatusFilter(appointments.StatusPending)
	confirmed := StatusFilter(appointments.StatusConfirmed)
	completed := StatusFilter(appointments.StatusCompleted)

	assert.Contains(t, ids(review.Filter(pending)), apt.ID)

	_, err = review.Transition(ctx, apt.ID, appointments.StatusConfirmed)
	require.NoError(t, err)
	assert.NotContains(t, ids(review.Filter(pending)), apt.ID)
	assert.Contains(t, ids(review.Filter(confirmed)), apt.ID)

	_, err = review.Transition(ctx, apt.ID, appointments.StatusCompleted)
	require.NoError(t, err)
	assert.Contains(t, ids(review.Filter(completed)), apt.ID)

	_, err = review.Transition(ctx, apt.ID, appointments.StatusPending)
	assert.ErrorIs(t, err, appointments.ErrInvalidTransition)
	assert.Contains(t, ids(review.Filter(completed)), apt.ID)

	_, err = review.Transition(ctx, "apt_missing", appointments.StatusConfirmed)
	assert.ErrorIs(t, err, appointments.ErrAppointmentNotFound)
}

func TestActions(t *testing.T) {
	assert.Equal(t, []Action{
		{Label: "Approve", Target: appointments.StatusConfirmed},
		{Label: "Reject", Target: appointments.StatusCancelled},
	}, Actions(appointments.StatusPending))
	assert.Equal(t, []Action{{Label: "Mark Complete", Target: appointments.StatusCompleted}}, Actions(appointments.StatusConfirmed))
	assert.Empty(t, Actions(appointments.StatusCompleted))
	assert.Empty(t, Actions(appointments.StatusCancelled))
}
