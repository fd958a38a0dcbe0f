package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/smilecare-dental/internal/appointments"
	"github.com/wolfman30/smilecare-dental/internal/catalog"
	"github.com/wolfman30/smilecare-dental/pkg/logging"
)

// ContactMessage is a message left through the contact form.
type ContactMessage struct {
	Name       string
	Email      string
	Phone      string
	Message    string
	ReceivedAt time.Time
}

// BookingNotifier sends the patient and clinic e-mails around bookings.
type BookingNotifier struct {
	email   EmailSender
	catalog *catalog.Catalog
	inbox   string
	logger  *logging.Logger
}

// NewBookingNotifier creates a notifier. inbox is the clinic address that
// receives contact-form messages; empty falls back to the catalog's clinic
// e-mail.
func NewBookingNotifier(email EmailSender, c *catalog.Catalog, inbox string, logger *logging.Logger) *BookingNotifier {
	if email == nil {
		panic("notify: email sender cannot be nil")
	}
	if c == nil {
		panic("notify: catalog cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(inbox) == "" {
		inbox = c.Clinic.Email
	}
	return &BookingNotifier{email: email, catalog: c, inbox: inbox, logger: logger}
}

// AppointmentCreated sends the patient the request confirmation.
func (n *BookingNotifier) AppointmentCreated(ctx context.Context, apt appointments.Appointment) error {
	if apt.PatientEmail == "" {
		return nil
	}
	service, doctor := n.names(apt)
	body := fmt.Sprintf(`Hi %s,

Thanks for booking with %s. We received your request:

Service: %s
Doctor: %s
When: %s at %s
Reference: %s

Your appointment is pending until our team confirms it. We'll e-mail you as soon as it is reviewed.
If you need to change anything, call us at %s.
`, firstName(apt.PatientName), n.catalog.Clinic.Name, service, doctor, formatDate(apt.Date), apt.Time, apt.ID, n.catalog.Clinic.Phone)

	return n.send(ctx, "appointment_created", apt.ID, EmailMessage{
		To:      apt.PatientEmail,
		ToName:  apt.PatientName,
		Subject: fmt.Sprintf("We received your appointment request for %s", formatDate(apt.Date)),
		Body:    body,
	})
}

// StatusChanged tells the patient the outcome of the admin review.
func (n *BookingNotifier) StatusChanged(ctx context.Context, apt appointments.Appointment, from appointments.Status) error {
	if apt.PatientEmail == "" || apt.Status == from {
		return nil
	}
	service, doctor := n.names(apt)
	var subject, lead string
	switch apt.Status {
	case appointments.StatusConfirmed:
		subject = fmt.Sprintf("Your appointment on %s is confirmed", formatDate(apt.Date))
		lead = fmt.Sprintf("Good news! Your %s with %s on %s at %s is confirmed.", service, doctor, formatDate(apt.Date), apt.Time)
	case appointments.StatusCancelled:
		subject = "Your appointment request could not be scheduled"
		lead = fmt.Sprintf("Unfortunately we couldn't schedule your %s with %s on %s at %s. Please book another time or call us.", service, doctor, formatDate(apt.Date), apt.Time)
	case appointments.StatusCompleted:
		subject = fmt.Sprintf("Thanks for visiting %s", n.catalog.Clinic.Name)
		lead = fmt.Sprintf("Thanks for coming in for your %s with %s. We hope to see you again soon.", service, doctor)
	default:
		return nil
	}
	body := fmt.Sprintf("Hi %s,\n\n%s\n\nReference: %s\n%s\n%s\n", firstName(apt.PatientName), lead, apt.ID, n.catalog.Clinic.Name, n.catalog.Clinic.Phone)

	return n.send(ctx, "status_changed", apt.ID, EmailMessage{
		To:      apt.PatientEmail,
		ToName:  apt.PatientName,
		Subject: subject,
		Body:    body,
	})
}

// ContactReceived forwards a contact-form message to the clinic inbox.
func (n *BookingNotifier) ContactReceived(ctx context.Context, msg ContactMessage) error {
	if n.inbox == "" {
		n.logger.Warn("notify: no clinic inbox configured, dropping contact message", "from", msg.Email)
		return nil
	}
	phone := msg.Phone
	if phone == "" {
		phone = "not provided"
	}
	body := fmt.Sprintf("New message from the website contact form.\n\nName: %s\nEmail: %s\nPhone: %s\nReceived: %s\n\n%s\n",
		msg.Name, msg.Email, phone, msg.ReceivedAt.Format("January 2, 2006 at 3:04 PM"), msg.Message)

	return n.send(ctx, "contact_received", "", EmailMessage{
		To:      n.inbox,
		ToName:  n.catalog.Clinic.Name,
		ReplyTo: msg.Email,
		Subject: fmt.Sprintf("Website message from %s", msg.Name),
		Body:    body,
	})
}

func (n *BookingNotifier) send(ctx context.Context, kind, appointmentID string, msg EmailMessage) error {
	if err := n.email.Send(ctx, msg); err != nil {
		n.logger.Error("notify: email failed", "kind", kind, "appointment_id", appointmentID, "error", err)
		return fmt.Errorf("notify: %s: %w", kind, err)
	}
	n.logger.Info("notify: email sent", "kind", kind, "appointment_id", appointmentID)
	return nil
}

func (n *BookingNotifier) names(apt appointments.Appointment) (service, doctor string) {
	service, doctor = apt.ServiceID, apt.DoctorID
	if s, ok := n.catalog.ServiceByID(apt.ServiceID); ok {
		service = s.Title
	}
	if d, ok := n.catalog.DoctorByID(apt.DoctorID); ok {
		doctor = d.Name
	}
	return service, doctor
}

func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}

func formatDate(date string) string {
	t, err := time.Parse(appointments.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Monday, January 2")
}
