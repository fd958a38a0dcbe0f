package appointments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/smilecare-dental/internal/catalog"
)

var fixedNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...StoreOption) *Store {
	t.Helper()
	base := []StoreOption{WithClock(func() time.Time { return fixedNow })}
	return NewStore(catalog.Default(), append(base, opts...)...)
}

func validDraft() Draft {
	return Draft{
		PatientName:  "Jane Roe",
		PatientEmail: "jane@x.com",
		PatientPhone: "555-0000",
		ServiceID:    "s1",
		DoctorID:     "d1",
		Date:         "2025-03-11",
		Time:         "09:00",
	}
}

func filter(list []Appointment, status Status) []string {
	var ids []string
	for _, apt := range list {
		if apt.Status == status {
			ids = append(ids, apt.ID)
		}
	}
	return ids
}

func TestCreatePrependsPendingWithUniqueID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, validDraft())
	require.NoError(t, err)
	second, err := store.Create(ctx, validDraft())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, first.Status)
	assert.Equal(t, StatusPending, second.Status)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, fixedNow, first.CreatedAt)

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestCreateTrimsFields(t *testing.T) {
	store := newTestStore(t)
	draft := validDraft()
	draft.PatientName = "  Jane Roe  "
	draft.Notes = " sensitive gums "

	apt, err := store.Create(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe", apt.PatientName)
	assert.Equal(t, "sensitive gums", apt.Notes)
}

func TestCreateRejectsInvalidDrafts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Draft)
		want   error
	}{
		{"missing name", func(d *Draft) { d.PatientName = "  " }, ErrMissingPatientName},
		{"missing email", func(d *Draft) { d.PatientEmail = "" }, ErrMissingPatientEmail},
		{"missing phone", func(d *Draft) { d.PatientPhone = "" }, ErrMissingPatientPhone},
		{"unknown service", func(d *Draft) { d.ServiceID = "s99" }, ErrUnknownService},
		{"unknown doctor", func(d *Draft) { d.DoctorID = "d99" }, ErrUnknownDoctor},
		{"ineligible doctor", func(d *Draft) { d.DoctorID = "d3" }, ErrDoctorNotEligible},
		{"bad date", func(d *Draft) { d.Date = "11/03/2025" }, ErrInvalidDate},
		{"past date", func(d *Draft) { d.Date = "2025-03-09" }, ErrDateInPast},
		{"lunch slot", func(d *Draft) { d.Time = "12:00" }, ErrInvalidTimeSlot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			draft := validDraft()
			tt.mutate(&draft)
			_, err := store.Create(context.Background(), draft)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.True(t, IsValidation(err))
			assert.Empty(t, store.List())
		})
	}
}

func TestCreateAcceptsToday(t *testing.T) {
	store := newTestStore(t)
	draft := validDraft()
	draft.Date = "2025-03-10"
	_, err := store.Create(context.Background(), draft)
	assert.NoError(t, err)
}

func TestCreateUsesClinicLocationForToday(t *testing.T) {
	// 15:00 UTC on the 10th is already the 11th in Auckland.
	loc := time.FixedZone("NZDT", 13*60*60)
	store := newTestStore(t, WithLocation(loc))
	draft := validDraft()
	draft.Date = "2025-03-10"
	_, err := store.Create(context.Background(), draft)
	assert.ErrorIs(t, err, ErrDateInPast)
	assert.Equal(t, "2025-03-11", store.Today())
}

func TestCreateRetriesIDCollisions(t *testing.T) {
	ids := []string{"apt_x", "apt_x", "apt_y"}
	var i int
	store := newTestStore(t, WithIDGenerator(func() string {
		id := ids[i]
		i++
		return id
	}))
	a, err := store.Create(context.Background(), validDraft())
	require.NoError(t, err)
	b, err := store.Create(context.Background(), validDraft())
	require.NoError(t, err)
	assert.Equal(t, "apt_x", a.ID)
	assert.Equal(t, "apt_y", b.ID)
}

func TestSetStatusIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	apt, err := store.Create(ctx, validDraft())
	require.NoError(t, err)

	change, err := store.SetStatus(ctx, apt.ID, StatusConfirmed)
	require.NoError(t, err)
	assert.True(t, change.Changed)
	assert.Equal(t, StatusPending, change.From)

	change, err = store.SetStatus(ctx, apt.ID, StatusConfirmed)
	require.NoError(t, err)
	assert.False(t, change.Changed)
	assert.Equal(t, StatusConfirmed, change.Appointment.Status)

	got, ok := store.Get(apt.ID)
	require.True(t, ok)
	assert.Equal(t, StatusConfirmed, got.Status)
	assert.Len(t, store.List(), 1)
}

func TestSetStatusForwardOnly(t *testing.T) {
	ctx := context.Background()
	for _, terminal := range []Status{StatusCompleted, StatusCancelled} {
		t.Run(string(terminal), func(t *testing.T) {
			store := newTestStore(t)
			apt, err := store.Create(ctx, validDraft())
			require.NoError(t, err)
			if terminal == StatusCompleted {
				_, err = store.SetStatus(ctx, apt.ID, StatusConfirmed)
				require.NoError(t, err)
			}
			_, err = store.SetStatus(ctx, apt.ID, terminal)
			require.NoError(t, err)

			for _, next := range Statuses {
				if next == terminal {
					continue
				}
				_, err := store.SetStatus(ctx, apt.ID, next)
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", terminal, next)
			}
			got, _ := store.Get(apt.ID)
			assert.Equal(t, terminal, got.Status)
		})
	}
}

func TestSetStatusUnknownID(t *testing.T) {
	store := newTestStore(t)
	_, err := store.SetStatus(context.Background(), "apt_missing", StatusConfirmed)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestSetStatusUnknownStatus(t *testing.T) {
	store := newTestStore(t)
	apt, err := store.Create(context.Background(), validDraft())
	require.NoError(t, err)
	_, err = store.SetStatus(context.Background(), apt.ID, Status("Archived"))
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestConcurrentTransitionsKeepForwardOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	apt, err := store.Create(ctx, validDraft())
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		changed = map[Status]int{}
	)
	for i := 0; i < 50; i++ {
		target := StatusConfirmed
		if i%2 == 1 {
			target = StatusCancelled
		}
		wg.Add(1)
		go func(to Status) {
			defer wg.Done()
			change, err := store.SetStatus(ctx, apt.ID, to)
			if err == nil && change.Changed {
				mu.Lock()
				changed[to]++
				mu.Unlock()
			}
		}(target)
	}
	wg.Wait()

	total := 0
	for _, n := range changed {
		total += n
	}
	assert.Equal(t, 1, total, "exactly one transition out of Pending should win")
}

func TestEndToEndScenario(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Seed(DemoFixtures(fixedNow, time.UTC)))

	apt, err := store.Create(ctx, validDraft())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, apt.Status)
	assert.Equal(t, apt.ID, store.List()[0].ID)
	assert.Contains(t, filter(store.List(), StatusPending), apt.ID)

	_, err = store.SetStatus(ctx, apt.ID, StatusConfirmed)
	require.NoError(t, err)
	assert.NotContains(t, filter(store.List(), StatusPending), apt.ID)
	assert.Contains(t, filter(store.List(), StatusConfirmed), apt.ID)

	_, err = store.SetStatus(ctx, apt.ID, StatusCompleted)
	require.NoError(t, err)
	assert.Contains(t, filter(store.List(), StatusCompleted), apt.ID)

	_, err = store.SetStatus(ctx, apt.ID, StatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	got, _ := store.Get(apt.ID)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestSeedFixtures(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Seed(DemoFixtures(fixedNow, time.UTC)))

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, "apt_1", list[0].ID)
	assert.Equal(t, StatusConfirmed, list[0].Status)
	assert.Equal(t, "2025-03-10", list[0].Date)
	assert.Equal(t, "apt_2", list[1].ID)
	assert.Equal(t, "2025-03-11", list[1].Date)

	err := store.Seed([]Appointment{{ID: "apt_1", Status: StatusPending}})
	assert.Error(t, err)
	err = store.Seed([]Appointment{{ID: "apt_9", Status: "Lost"}})
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestSeedIsAllOrNothing(t *testing.T) {
	store := newTestStore(t)
	fixtures := DemoFixtures(fixedNow, time.UTC)

	err := store.Seed(append(fixtures, Appointment{ID: "apt_3", Status: "Lost"}))
	assert.ErrorIs(t, err, ErrUnknownStatus)
	assert.Empty(t, store.List())

	err = store.Seed(append(fixtures, fixtures[0]))
	assert.Error(t, err)
	assert.Empty(t, store.List())

	require.NoError(t, store.Seed(fixtures))
	assert.Len(t, store.List(), 2)
}

func TestListReturnsCopies(t *testing.T) {
	store := newTestStore(t)
	apt, err := store.Create(context.Background(), validDraft())
	require.NoError(t, err)

	list := store.List()
	list[0].Status = StatusCancelled
	got, _ := store.Get(apt.ID)
	assert.Equal(t, StatusPending, got.Status)
}

func TestCatalogLookups(t *testing.T) {
	store := newTestStore(t)
	assert.Len(t, store.ListServices(), 6)
	assert.Len(t, store.ListDoctors(), 3)
	svc, ok := store.FindService("s2")
	require.True(t, ok)
	assert.Equal(t, "Teeth Whitening", svc.Title)
	_, ok = store.FindDoctor("d42")
	assert.False(t, ok)
}

func TestAuthenticatedFlag(t *testing.T) {
	store := newTestStore(t)
	assert.False(t, store.Authenticated())
	store.SetAuthenticated(true)
	assert.True(t, store.Authenticated())
	store.SetAuthenticated(false)
	assert.False(t, store.Authenticated())
}

func TestCreateHonoursCancelledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Create(ctx, validDraft())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.List())
}

func ExampleStore_SetStatus() {
	store := NewStore(catalog.Default(), WithClock(func() time.Time { return fixedNow }))
	apt, _ := store.Create(context.Background(), validDraft())
	_, err := store.SetStatus(context.Background(), apt.ID, StatusCompleted)
	fmt.Println(errors.Is(err, ErrInvalidTransition))
	// Output: true
}
