package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/smilecare-dental/internal/appointments"
	"github.com/wolfman30/smilecare-dental/internal/catalog"
	"github.com/wolfman30/smilecare-dental/pkg/logging"
)

// Creator commits a finished draft.
type Creator interface {
	Create(ctx context.Context, draft appointments.Draft) (appointments.Appointment, error)
}

// StepRecorder receives per-step outcomes.
type StepRecorder interface {
	ObserveWizardStep(step, result string)
}

// SubmitError is returned when the store refuses or fails a submission. The
// session stays at PatientDetails with its draft intact and may be retried.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("booking: could not create appointment: %v", e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// Wizard drives sessions through Transition and commits them via a Creator.
type Wizard struct {
	creator  Creator
	sessions SessionStore
	catalog  *catalog.Catalog
	now      func() time.Time
	loc      *time.Location
	newID    func() string
	metrics  StepRecorder
	logger   *logging.Logger

	locksMu sync.Mutex
	locks   map[string]*sessionLock

	// unsaved holds appointments created for sessions whose confirmed state
	// could not be persisted, keyed by session id.
	unsavedMu sync.Mutex
	unsaved   map[string]appointments.Appointment
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// WizardOption customises a Wizard.
type WizardOption func(*Wizard)

func WithWizardClock(now func() time.Time) WizardOption {
	return func(w *Wizard) {
		if now != nil {
			w.now = now
		}
	}
}

func WithWizardLocation(loc *time.Location) WizardOption {
	return func(w *Wizard) {
		if loc != nil {
			w.loc = loc
		}
	}
}

func WithSessionIDs(gen func() string) WizardOption {
	return func(w *Wizard) {
		if gen != nil {
			w.newID = gen
		}
	}
}

func WithStepRecorder(r StepRecorder) WizardOption {
	return func(w *Wizard) { w.metrics = r }
}

func WithWizardLogger(logger *logging.Logger) WizardOption {
	return func(w *Wizard) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func NewWizard(creator Creator, sessions SessionStore, c *catalog.Catalog, opts ...WizardOption) *Wizard {
	if creator == nil || sessions == nil || c == nil {
		panic("booking: creator, session store and catalog are required")
	}
	w := &Wizard{
		creator:  creator,
		sessions: sessions,
		catalog:  c,
		now:      time.Now,
		loc:      time.UTC,
		newID:    uuid.NewString,
		logger:   logging.Default(),
		locks:    make(map[string]*sessionLock),
		unsaved:  make(map[string]appointments.Appointment),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Env returns the transition environment for the current instant.
func (w *Wizard) Env() Env {
	return Env{Catalog: w.catalog, Today: appointments.Today(w.now(), w.loc)}
}

// Start opens a fresh session, optionally pre-filled.
func (w *Wizard) Start(ctx context.Context, serviceID, doctorID string) (*Session, error) {
	now := w.now().UTC()
	session := &Session{
		ID:        w.newID(),
		State:     Start(w.Env(), serviceID, doctorID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := w.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	w.logger.Debug("booking session started", "session_id", session.ID, "service_id", session.State.ServiceID)
	return session, nil
}

// Get loads a session.
func (w *Wizard) Get(ctx context.Context, id string) (*Session, error) {
	return w.sessions.Get(ctx, id)
}

// Apply runs one event against a stored session. Rejected events leave the
// stored state untouched apart from LastError.
func (w *Wizard) Apply(ctx context.Context, id string, ev Event) (*Session, error) {
	unlock := w.lock(id)
	defer unlock()

	session, err := w.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := session.State.Step
	next, err := Transition(session.State, ev, w.Env())
	if err != nil {
		w.observe(from, ev, err)
		if !errors.Is(err, ErrAlreadyConfirmed) {
			session.LastError = userMessage(err)
			session.UpdatedAt = w.now().UTC()
			if saveErr := w.sessions.Save(ctx, session); saveErr != nil {
				return nil, saveErr
			}
		}
		return session, err
	}
	w.observe(from, ev, nil)
	session.State = next
	session.LastError = ""
	session.UpdatedAt = w.now().UTC()
	if err := w.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Submit checks the patient-details guard, creates the appointment and only
// then moves the session to Confirmed. Creation failures return *SubmitError.
func (w *Wizard) Submit(ctx context.Context, id string) (*Session, appointments.Appointment, error) {
	unlock := w.lock(id)
	defer unlock()

	session, err := w.sessions.Get(ctx, id)
	if err != nil {
		return nil, appointments.Appointment{}, err
	}
	if session.State.Terminal() {
		return session, appointments.Appointment{}, ErrAlreadyConfirmed
	}
	if session.State.Step != StepPatientDetails {
		return session, appointments.Appointment{}, ErrWrongStep
	}
	env := w.Env()
	if err := CheckGuard(session.State, env); err != nil {
		w.observe(StepPatientDetails, Confirmed{}, err)
		return w.recordFailure(ctx, session, err)
	}

	apt, created := w.takeUnsaved(id)
	if !created {
		apt, err = w.creator.Create(ctx, session.State.Draft())
		if err != nil {
			w.logger.Warn("booking submission failed", "session_id", id, "error", err)
			w.observeResult(StepPatientDetails, "submit_failed")
			return w.recordFailure(ctx, session, &SubmitError{Err: err})
		}
	}

	next, err := Transition(session.State, Confirmed{AppointmentID: apt.ID}, env)
	if err != nil {
		return session, apt, err
	}
	w.observeResult(StepPatientDetails, "ok")
	session.State = next
	session.LastError = ""
	session.UpdatedAt = w.now().UTC()
	if err := w.saveConfirmed(ctx, session); err != nil {
		// A resubmit confirms this appointment instead of creating another.
		w.rememberUnsaved(id, apt)
		w.logger.Error("booking session save failed after create", "session_id", id, "appointment_id", apt.ID, "error", err)
	}
	w.logger.Info("booking confirmed", "session_id", id, "appointment_id", apt.ID)
	return session, apt, nil
}

func (w *Wizard) saveConfirmed(ctx context.Context, session *Session) error {
	err := w.sessions.Save(ctx, session)
	if err == nil || ctx.Err() != nil {
		return err
	}
	return w.sessions.Save(ctx, session)
}

func (w *Wizard) rememberUnsaved(id string, apt appointments.Appointment) {
	w.unsavedMu.Lock()
	defer w.unsavedMu.Unlock()
	w.unsaved[id] = apt
}

func (w *Wizard) takeUnsaved(id string) (appointments.Appointment, bool) {
	w.unsavedMu.Lock()
	defer w.unsavedMu.Unlock()
	apt, ok := w.unsaved[id]
	if ok {
		delete(w.unsaved, id)
	}
	return apt, ok
}

// EligibleDoctors lists the doctors selectable for the session's service.
func (w *Wizard) EligibleDoctors(ctx context.Context, id string) ([]catalog.Doctor, error) {
	session, err := w.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return EligibleDoctors(w.catalog, session.State.ServiceID), nil
}

func (w *Wizard) recordFailure(ctx context.Context, session *Session, cause error) (*Session, appointments.Appointment, error) {
	session.LastError = userMessage(cause)
	session.UpdatedAt = w.now().UTC()
	if err := w.sessions.Save(ctx, session); err != nil {
		return nil, appointments.Appointment{}, err
	}
	return session, appointments.Appointment{}, cause
}

func (w *Wizard) observe(step Step, ev Event, err error) {
	if _, isNext := ev.(Next); !isNext && err == nil {
		return
	}
	result := "ok"
	switch {
	case errors.Is(err, ErrNoEligibleDoctors):
		result = "no_eligible_doctors"
	case err != nil:
		result = "blocked"
	}
	w.observeResult(step, result)
}

func (w *Wizard) observeResult(step Step, result string) {
	if w.metrics == nil {
		return
	}
	w.metrics.ObserveWizardStep(step.String(), result)
}

// lock serialises work on one session id.
func (w *Wizard) lock(id string) func() {
	w.locksMu.Lock()
	l, ok := w.locks[id]
	if !ok {
		l = &sessionLock{}
		w.locks[id] = l
	}
	l.refs++
	w.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		w.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(w.locks, id)
		}
		w.locksMu.Unlock()
	}
}

// userMessage strips the guard prefix so the visitor sees only the reason.
func userMessage(err error) string {
	var submitErr *SubmitError
	if errors.As(err, &submitErr) {
		if appointments.IsValidation(submitErr.Err) {
			return submitErr.Err.Error()
		}
		return "We could not save your booking. Please try again."
	}
	if errors.Is(err, ErrGuard) {
		return guardReason(err)
	}
	return err.Error()
}

func guardReason(err error) string {
	type multi interface{ Unwrap() []error }
	if m, ok := err.(multi); ok {
		for _, e := range m.Unwrap() {
			if e != ErrGuard {
				return e.Error()
			}
		}
	}
	return err.Error()
}
