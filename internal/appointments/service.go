package appointments

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/smilecare-dental/pkg/logging"
)

var appointmentsTracer = otel.Tracer("smilecare.internal.appointments")

// Notifier is told about committed changes. Failures never undo the change.
type Notifier interface {
	AppointmentCreated(ctx context.Context, apt Appointment) error
	StatusChanged(ctx context.Context, apt Appointment, from Status) error
}

// Recorder receives booking metrics.
type Recorder interface {
	ObserveAppointmentCreated(serviceID string)
	ObserveStatusTransition(from, to, result string)
}

// Service wraps the Store with tracing, metrics, logging and notifications.
type Service struct {
	store    *Store
	notifier Notifier
	metrics  Recorder
	logger   *logging.Logger
}

// NewService constructs an appointments service. notifier and metrics may be nil.
func NewService(store *Store, notifier Notifier, metrics Recorder, logger *logging.Logger) *Service {
	if store == nil {
		panic("appointments: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, notifier: notifier, metrics: metrics, logger: logger}
}

// Store returns the underlying store for read-side projections.
func (s *Service) Store() *Store {
	return s.store
}

// Create commits a draft as a new Pending appointment.
func (s *Service) Create(ctx context.Context, draft Draft) (Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("smilecare.service_id", draft.ServiceID),
		attribute.String("smilecare.doctor_id", draft.DoctorID),
	)

	apt, err := s.store.Create(ctx, draft)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("appointment rejected", "service_id", draft.ServiceID, "doctor_id", draft.DoctorID, "error", err)
		return Appointment{}, err
	}
	span.SetAttributes(attribute.String("smilecare.appointment_id", apt.ID))
	if s.metrics != nil {
		s.metrics.ObserveAppointmentCreated(apt.ServiceID)
	}
	s.logger.Info("appointment created",
		"appointment_id", apt.ID,
		"service_id", apt.ServiceID,
		"doctor_id", apt.DoctorID,
		"date", apt.Date,
		"time", apt.Time,
	)

	if s.notifier != nil {
		if err := s.notifier.AppointmentCreated(ctx, apt); err != nil {
			s.logger.Error("appointment confirmation email failed", "appointment_id", apt.ID, "error", err)
		}
	}
	return apt, nil
}

// SetStatus applies an operator status change along the status graph.
func (s *Service) SetStatus(ctx context.Context, id string, status Status) (StatusChange, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.set_status")
	defer span.End()
	span.SetAttributes(
		attribute.String("smilecare.appointment_id", id),
		attribute.String("smilecare.status", string(status)),
	)

	change, err := s.store.SetStatus(ctx, id, status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.observeTransition(change.From, status, transitionResult(err))
		s.logger.Warn("status change rejected", "appointment_id", id, "status", status, "error", err)
		return change, err
	}
	if !change.Changed {
		s.observeTransition(change.From, status, "noop")
		return change, nil
	}

	s.observeTransition(change.From, status, "ok")
	s.logger.Info("appointment status changed", "appointment_id", id, "from", change.From, "to", status)
	if s.notifier != nil {
		if err := s.notifier.StatusChanged(ctx, change.Appointment, change.From); err != nil {
			s.logger.Error("status change email failed", "appointment_id", id, "error", err)
		}
	}
	return change, nil
}

func (s *Service) observeTransition(from, to Status, result string) {
	if s.metrics == nil {
		return
	}
	fromLabel := string(from)
	if fromLabel == "" {
		fromLabel = "unknown"
	}
	s.metrics.ObserveStatusTransition(fromLabel, string(to), result)
}

func transitionResult(err error) string {
	switch {
	case errors.Is(err, ErrAppointmentNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid"
	default:
		return "error"
	}
}
