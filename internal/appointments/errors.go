package appointments

import "errors"

var (
	ErrMissingPatientName  = errors.New("patient name is required")
	ErrMissingPatientEmail = errors.New("patient email is required")
	ErrMissingPatientPhone = errors.New("patient phone is required")
	ErrUnknownService      = errors.New("service does not exist")
	ErrUnknownDoctor       = errors.New("doctor does not exist")
	ErrDoctorNotEligible   = errors.New("doctor does not offer the selected service")
	ErrInvalidDate         = errors.New("date must be formatted YYYY-MM-DD")
	ErrDateInPast          = errors.New("date must be today or later")
	ErrInvalidTimeSlot     = errors.New("time is not an available slot")

	// ErrAppointmentNotFound is returned when a status update targets an unknown id.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrInvalidTransition is returned when the requested status is not reachable
	// from the current one.
	ErrInvalidTransition = errors.New("status transition not allowed")

	ErrUnknownStatus = errors.New("unknown appointment status")
)

// IsValidation reports whether err is a draft validation failure.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrMissingPatientName,
		ErrMissingPatientEmail,
		ErrMissingPatientPhone,
		ErrUnknownService,
		ErrUnknownDoctor,
		ErrDoctorNotEligible,
		ErrInvalidDate,
		ErrDateInPast,
		ErrInvalidTimeSlot,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
