package appointments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/smilecare-dental/internal/catalog"
)

// Clock returns the current time.
type Clock func() time.Time

// IDGenerator returns a fresh appointment id.
type IDGenerator func() string

// StatusChange describes the outcome of SetStatus.
type StatusChange struct {
	Appointment Appointment
	From        Status
	// Changed is false when the appointment already had the requested status.
	Changed bool
}

// Store is the in-memory source of truth for appointments and the admin gate.
// It owns the catalog reference used to validate drafts.
type Store struct {
	catalog *catalog.Catalog
	now     Clock
	newID   IDGenerator
	loc     *time.Location

	mu            sync.RWMutex
	appointments  []*Appointment // newest first
	byID          map[string]*Appointment
	authenticated bool
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithClock overrides time.Now.
func WithClock(c Clock) StoreOption {
	return func(s *Store) {
		if c != nil {
			s.now = c
		}
	}
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(g IDGenerator) StoreOption {
	return func(s *Store) {
		if g != nil {
			s.newID = g
		}
	}
}

// WithLocation sets the clinic time zone used for "today".
func WithLocation(loc *time.Location) StoreOption {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewStore creates an empty store over the given catalog.
func NewStore(c *catalog.Catalog, opts ...StoreOption) *Store {
	if c == nil {
		panic("appointments: catalog required")
	}
	s := &Store{
		catalog: c,
		now:     time.Now,
		newID:   func() string { return "apt_" + uuid.NewString() },
		loc:     time.UTC,
		byID:    make(map[string]*Appointment),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog exposes the reference data the store validates against.
func (s *Store) Catalog() *catalog.Catalog {
	return s.catalog
}

// Today is the clinic-local calendar date according to the store clock.
func (s *Store) Today() string {
	return Today(s.now(), s.loc)
}

// ListServices returns all catalog services.
func (s *Store) ListServices() []catalog.Service {
	return s.catalog.ListServices()
}

// ListDoctors returns all catalog doctors.
func (s *Store) ListDoctors() []catalog.Doctor {
	return s.catalog.ListDoctors()
}

// FindService looks up a service; ok is false when absent.
func (s *Store) FindService(id string) (catalog.Service, bool) {
	return s.catalog.ServiceByID(id)
}

// FindDoctor looks up a doctor; ok is false when absent.
func (s *Store) FindDoctor(id string) (catalog.Doctor, bool) {
	return s.catalog.DoctorByID(id)
}

// Create validates the draft and inserts a Pending appointment at the front
// of the collection.
func (s *Store) Create(ctx context.Context, draft Draft) (Appointment, error) {
	if err := ctx.Err(); err != nil {
		return Appointment{}, err
	}
	draft = draft.Normalize()
	now := s.now()
	if err := draft.Validate(s.catalog, Today(now, s.loc)); err != nil {
		return Appointment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for attempts := 0; s.byID[id] != nil; attempts++ {
		if attempts >= 5 {
			return Appointment{}, fmt.Errorf("appointments: could not allocate unique id")
		}
		id = s.newID()
	}

	apt := &Appointment{
		ID:           id,
		PatientName:  draft.PatientName,
		PatientEmail: draft.PatientEmail,
		PatientPhone: draft.PatientPhone,
		ServiceID:    draft.ServiceID,
		DoctorID:     draft.DoctorID,
		Date:         draft.Date,
		Time:         draft.Time,
		Status:       StatusPending,
		Notes:        draft.Notes,
		CreatedAt:    now.UTC(),
	}
	s.appointments = append([]*Appointment{apt}, s.appointments...)
	s.byID[id] = apt
	return *apt, nil
}

// SetStatus moves an appointment to status. Setting the current status again
// succeeds without change. Unknown ids return ErrAppointmentNotFound and edges
// outside the status graph return ErrInvalidTransition. The check and the write
// happen under one lock.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) (StatusChange, error) {
	if err := ctx.Err(); err != nil {
		return StatusChange{}, err
	}
	if !status.Valid() {
		return StatusChange{}, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	apt, ok := s.byID[id]
	if !ok {
		return StatusChange{}, ErrAppointmentNotFound
	}
	from := apt.Status
	if from == status {
		return StatusChange{Appointment: *apt, From: from}, nil
	}
	if !CanTransition(from, status) {
		return StatusChange{Appointment: *apt, From: from}, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, status)
	}
	apt.Status = status
	return StatusChange{Appointment: *apt, From: from, Changed: true}, nil
}

// Get returns a copy of the appointment with id.
func (s *Store) Get(id string) (Appointment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	apt, ok := s.byID[id]
	if !ok {
		return Appointment{}, false
	}
	return *apt, true
}

// List returns copies of all appointments, most recent first.
func (s *Store) List() []Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Appointment, len(s.appointments))
	for i, apt := range s.appointments {
		out[i] = *apt
	}
	return out
}

// Seed installs fixture appointments behind any existing ones. Fixtures skip
// draft validation but must have unique ids; an invalid batch installs nothing.
func (s *Store) Seed(fixtures []Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(fixtures))
	for _, f := range fixtures {
		_, stored := s.byID[f.ID]
		_, repeated := seen[f.ID]
		if stored || repeated || f.ID == "" {
			return fmt.Errorf("appointments: fixture id %q is empty or duplicated", f.ID)
		}
		if !f.Status.Valid() {
			return fmt.Errorf("appointments: fixture %s: %w", f.ID, ErrUnknownStatus)
		}
		seen[f.ID] = struct{}{}
	}
	for _, f := range fixtures {
		apt := f
		s.appointments = append(s.appointments, &apt)
		s.byID[apt.ID] = &apt
	}
	return nil
}

// SetAuthenticated toggles the process-local admin flag.
func (s *Store) SetAuthenticated(v bool) {
	s.mu.Lock()
	s.authenticated = v
	s.mu.Unlock()
}

// Authenticated reports the admin flag.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}
