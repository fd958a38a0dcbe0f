package booking

import (
	"errors"
	"fmt"

	"github.com/wolfman30/smilecare-dental/internal/appointments"
)

// Step is a wizard stage. The flow is strictly linear.
type Step int

const (
	StepSelectService Step = iota + 1
	StepSelectDoctor
	StepSelectDateTime
	StepPatientDetails
	StepConfirmed
)

func (s Step) String() string {
	switch s {
	case StepSelectService:
		return "select_service"
	case StepSelectDoctor:
		return "select_doctor"
	case StepSelectDateTime:
		return "select_datetime"
	case StepPatientDetails:
		return "patient_details"
	case StepConfirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("step_%d", int(s))
	}
}

var (
	// ErrGuard wraps every reason a step refuses to advance.
	ErrGuard = errors.New("booking: step requirements not met")

	ErrMissingService  = errors.New("please select a service")
	ErrMissingDoctor   = errors.New("please choose a specialist")
	ErrMissingDateTime = errors.New("please choose a date and time")

	// ErrNoEligibleDoctors is the dead end reached when no doctor treats the
	// selected service's category.
	ErrNoEligibleDoctors = errors.New("no specialists available for the selected service category; please go back and select a different service")

	ErrAlreadyConfirmed = errors.New("booking: session already confirmed")
	ErrAtFirstStep      = errors.New("booking: already at the first step")
	ErrWrongStep        = errors.New("booking: field cannot be changed at this step")
	ErrSubmitRequired   = errors.New("booking: patient details are confirmed by submitting")
	ErrSessionNotFound  = errors.New("booking: session not found")

	ErrMissingAppointmentID = errors.New("booking: confirmation requires an appointment id")
)

func guardError(reason error) error {
	return fmt.Errorf("%w: %w", ErrGuard, reason)
}

// State is the wizard position plus the draft accumulated so far. Fields
// survive Back and Next.
type State struct {
	Step          Step   `json:"step"`
	ServiceID     string `json:"serviceId,omitempty"`
	DoctorID      string `json:"doctorId,omitempty"`
	Date          string `json:"date,omitempty"`
	Time          string `json:"time,omitempty"`
	PatientName   string `json:"patientName,omitempty"`
	PatientEmail  string `json:"patientEmail,omitempty"`
	PatientPhone  string `json:"patientPhone,omitempty"`
	Notes         string `json:"notes,omitempty"`
	AppointmentID string `json:"appointmentId,omitempty"`
}

// Draft converts the accumulated fields into an appointment draft.
func (s State) Draft() appointments.Draft {
	return appointments.Draft{
		PatientName:  s.PatientName,
		PatientEmail: s.PatientEmail,
		PatientPhone: s.PatientPhone,
		ServiceID:    s.ServiceID,
		DoctorID:     s.DoctorID,
		Date:         s.Date,
		Time:         s.Time,
		Notes:        s.Notes,
	}.Normalize()
}

// Terminal reports whether the session has been committed.
func (s State) Terminal() bool {
	return s.Step == StepConfirmed
}
