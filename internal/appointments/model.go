package appointments

import (
	"strings"
	"time"

	"github.com/wolfman30/smilecare-dental/internal/catalog"
)

// DateLayout is the calendar-date format used for appointment dates.
const DateLayout = "2006-01-02"

// Appointment is a booked visit. Only Status changes after creation.
type Appointment struct {
	ID           string    `json:"id"`
	PatientName  string    `json:"patientName"`
	PatientEmail string    `json:"patientEmail"`
	PatientPhone string    `json:"patientPhone"`
	ServiceID    string    `json:"serviceId"`
	DoctorID     string    `json:"doctorId"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	Status       Status    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Draft is a candidate appointment without id, status or creation time.
type Draft struct {
	PatientName  string `json:"patientName"`
	PatientEmail string `json:"patientEmail"`
	PatientPhone string `json:"patientPhone"`
	ServiceID    string `json:"serviceId"`
	DoctorID     string `json:"doctorId"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Notes        string `json:"notes,omitempty"`
}

// Normalize trims surrounding whitespace from every field.
func (d Draft) Normalize() Draft {
	return Draft{
		PatientName:  strings.TrimSpace(d.PatientName),
		PatientEmail: strings.TrimSpace(d.PatientEmail),
		PatientPhone: strings.TrimSpace(d.PatientPhone),
		ServiceID:    strings.TrimSpace(d.ServiceID),
		DoctorID:     strings.TrimSpace(d.DoctorID),
		Date:         strings.TrimSpace(d.Date),
		Time:         strings.TrimSpace(d.Time),
		Notes:        strings.TrimSpace(d.Notes),
	}
}

// Validate checks the draft against the catalog. today is the clinic-local
// calendar date in DateLayout.
func (d Draft) Validate(c *catalog.Catalog, today string) error {
	d = d.Normalize()
	switch {
	case d.PatientName == "":
		return ErrMissingPatientName
	case d.PatientEmail == "":
		return ErrMissingPatientEmail
	case d.PatientPhone == "":
		return ErrMissingPatientPhone
	}
	if err := ValidateSelection(c, d.ServiceID, d.DoctorID); err != nil {
		return err
	}
	return ValidateSchedule(c, d.Date, d.Time, today)
}

// ValidateSelection checks that both ids resolve and the doctor treats the
// service's category.
func ValidateSelection(c *catalog.Catalog, serviceID, doctorID string) error {
	service, ok := c.ServiceByID(serviceID)
	if !ok {
		return ErrUnknownService
	}
	doctor, ok := c.DoctorByID(doctorID)
	if !ok {
		return ErrUnknownDoctor
	}
	if !doctor.Treats(service.Category) {
		return ErrDoctorNotEligible
	}
	return nil
}

// ValidateSchedule checks date ≥ today and that slot is bookable.
func ValidateSchedule(c *catalog.Catalog, date, slot, today string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return ErrInvalidDate
	}
	// Both are zero-padded ISO dates, so string order is calendar order.
	if date < today {
		return ErrDateInPast
	}
	if !c.IsTimeSlot(slot) {
		return ErrInvalidTimeSlot
	}
	return nil
}

// Today formats now as a calendar date in loc.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(DateLayout)
}
