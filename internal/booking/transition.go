package booking

import (
	"strings"

	"github.com/wolfman30/smilecare-dental/internal/appointments"
	"github.com/wolfman30/smilecare-dental/internal/catalog"
)

// Env is the read-only context a transition is evaluated against.
type Env struct {
	Catalog *catalog.Catalog
	// Today is the clinic-local date in appointments.DateLayout.
	Today string
}

// Event is a user action on the wizard.
type Event interface {
	eventName() string
}

type SetService struct {
	ServiceID string `json:"serviceId"`
}

type SetDoctor struct {
	DoctorID string `json:"doctorId"`
}

type SetDateTime struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type SetPatientDetails struct {
	Name  string `json:"patientName"`
	Email string `json:"patientEmail"`
	Phone string `json:"patientPhone"`
	Notes string `json:"notes"`
}

type Next struct{}

type Back struct{}

// Confirmed records a committed appointment. Only the submit path emits it.
type Confirmed struct {
	AppointmentID string
}

func (SetService) eventName() string        { return "set_service" }
func (SetDoctor) eventName() string         { return "set_doctor" }
func (SetDateTime) eventName() string       { return "set_datetime" }
func (SetPatientDetails) eventName() string { return "set_patient" }
func (Next) eventName() string              { return "next" }
func (Back) eventName() string              { return "back" }
func (Confirmed) eventName() string         { return "confirmed" }

// EventName returns a stable label for logs and metrics.
func EventName(ev Event) string {
	if ev == nil {
		return "unknown"
	}
	return ev.eventName()
}

// Start returns the initial state, pre-filled with any valid service or doctor
// the visitor arrived with. Unknown ids are ignored.
func Start(env Env, serviceID, doctorID string) State {
	st := State{Step: StepSelectService}
	serviceID = strings.TrimSpace(serviceID)
	doctorID = strings.TrimSpace(doctorID)
	if _, ok := env.Catalog.ServiceByID(serviceID); ok {
		st.ServiceID = serviceID
	}
	if _, ok := env.Catalog.DoctorByID(doctorID); ok {
		st.DoctorID = doctorID
		st = dropIneligibleDoctor(env, st)
	}
	return st
}

// Transition applies ev to st. It never performs I/O; on error the returned
// state equals st.
func Transition(st State, ev Event, env Env) (State, error) {
	if st.Terminal() {
		return st, ErrAlreadyConfirmed
	}
	next := st
	switch e := ev.(type) {
	case SetService:
		if st.Step != StepSelectService {
			return st, ErrWrongStep
		}
		id := strings.TrimSpace(e.ServiceID)
		if _, ok := env.Catalog.ServiceByID(id); !ok {
			return st, guardError(appointments.ErrUnknownService)
		}
		next.ServiceID = id
		return dropIneligibleDoctor(env, next), nil

	case SetDoctor:
		if st.Step != StepSelectDoctor {
			return st, ErrWrongStep
		}
		id := strings.TrimSpace(e.DoctorID)
		if err := appointments.ValidateSelection(env.Catalog, st.ServiceID, id); err != nil {
			return st, guardError(err)
		}
		next.DoctorID = id
		return next, nil

	case SetDateTime:
		if st.Step != StepSelectDateTime {
			return st, ErrWrongStep
		}
		next.Date = strings.TrimSpace(e.Date)
		next.Time = strings.TrimSpace(e.Time)
		return next, nil

	case SetPatientDetails:
		if st.Step != StepPatientDetails {
			return st, ErrWrongStep
		}
		next.PatientName = strings.TrimSpace(e.Name)
		next.PatientEmail = strings.TrimSpace(e.Email)
		next.PatientPhone = strings.TrimSpace(e.Phone)
		next.Notes = strings.TrimSpace(e.Notes)
		return next, nil

	case Next:
		if st.Step == StepPatientDetails {
			return st, ErrSubmitRequired
		}
		if err := CheckGuard(st, env); err != nil {
			return st, err
		}
		next.Step = st.Step + 1
		return next, nil

	case Back:
		if st.Step <= StepSelectService {
			return st, ErrAtFirstStep
		}
		next.Step = st.Step - 1
		return next, nil

	case Confirmed:
		if st.Step != StepPatientDetails {
			return st, ErrWrongStep
		}
		if err := CheckGuard(st, env); err != nil {
			return st, err
		}
		if strings.TrimSpace(e.AppointmentID) == "" {
			return st, ErrMissingAppointmentID
		}
		next.AppointmentID = e.AppointmentID
		next.Step = StepConfirmed
		return next, nil
	}
	return st, ErrWrongStep
}

// CheckGuard evaluates the exit guard of the current step.
func CheckGuard(st State, env Env) error {
	switch st.Step {
	case StepSelectService:
		if st.ServiceID == "" {
			return guardError(ErrMissingService)
		}
		if _, ok := env.Catalog.ServiceByID(st.ServiceID); !ok {
			return guardError(appointments.ErrUnknownService)
		}
	case StepSelectDoctor:
		if len(EligibleDoctors(env.Catalog, st.ServiceID)) == 0 {
			return guardError(ErrNoEligibleDoctors)
		}
		if st.DoctorID == "" {
			return guardError(ErrMissingDoctor)
		}
		if err := appointments.ValidateSelection(env.Catalog, st.ServiceID, st.DoctorID); err != nil {
			return guardError(err)
		}
	case StepSelectDateTime:
		if st.Date == "" || st.Time == "" {
			return guardError(ErrMissingDateTime)
		}
		if err := appointments.ValidateSchedule(env.Catalog, st.Date, st.Time, env.Today); err != nil {
			return guardError(err)
		}
	case StepPatientDetails:
		switch {
		case st.PatientName == "":
			return guardError(appointments.ErrMissingPatientName)
		case st.PatientEmail == "":
			return guardError(appointments.ErrMissingPatientEmail)
		case st.PatientPhone == "":
			return guardError(appointments.ErrMissingPatientPhone)
		}
	case StepConfirmed:
		return ErrAlreadyConfirmed
	}
	return nil
}

// EligibleDoctors returns the doctors whose specialties include the category of
// serviceID, in catalog order. An unknown service yields none.
func EligibleDoctors(c *catalog.Catalog, serviceID string) []catalog.Doctor {
	service, ok := c.ServiceByID(serviceID)
	if !ok {
		return nil
	}
	return c.DoctorsFor(service.Category)
}

func dropIneligibleDoctor(env Env, st State) State {
	if st.DoctorID == "" || st.ServiceID == "" {
		return st
	}
	if err := appointments.ValidateSelection(env.Catalog, st.ServiceID, st.DoctorID); err != nil {
		st.DoctorID = ""
	}
	return st
}
