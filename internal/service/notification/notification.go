// Package notification fans appointment lifecycle events out over NATS.
// Publishing is fire-and-forget: a broker outage is logged and never fails
// the transition that produced the event. Workers subscribe to the subjects,
// reload the entity and deliver the customer-facing email.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/evcare-vn/evcare_backend/internal/model"
)

// Subject prefixes. The entity id is appended as the last token so workers
// can subscribe with a trailing wildcard.
const (
	SubjectAppointmentCreated     = "evcare.appointment.created"
	SubjectAppointmentConfirmed   = "evcare.appointment.confirmed"
	SubjectAppointmentCancelled   = "evcare.appointment.cancelled"
	SubjectAppointmentRescheduled = "evcare.appointment.rescheduled"
	SubjectAppointmentReminder    = "evcare.appointment.reminder"
	SubjectQuoteProvided          = "evcare.quote.provided"
	SubjectMaintenanceCompleted   = "evcare.maintenance.completed"
	SubjectPaymentReceived        = "evcare.payment.received"
)

// Publisher is the slice of the NATS connection this service uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

type Service interface {
	BookingCreated(ctx context.Context, appt *model.Appointment)
	BookingConfirmed(ctx context.Context, appt *model.Appointment)
	BookingCancelled(ctx context.Context, appt *model.Appointment)
	BookingRescheduled(ctx context.Context, appt *model.Appointment)
	QuoteProvided(ctx context.Context, appt *model.Appointment)
	MaintenanceCompleted(ctx context.Context, appt *model.Appointment, inv *model.Invoice)
	PaymentReceived(ctx context.Context, appt *model.Appointment, p *model.Payment)
}

type notificationService struct {
	nc     Publisher
	logger *slog.Logger
}

func New(nc Publisher, logger *slog.Logger) Service {
	return &notificationService{nc: nc, logger: logger}
}

func (s *notificationService) publish(subjectPrefix, id string) {
	subject := fmt.Sprintf("%s.%s", subjectPrefix, id)
	if err := s.nc.Publish(subject, []byte(id)); err != nil {
		s.logger.Warn("event publish failed",
			slog.String("subject", subject),
			slog.Any("error", err))
	}
}

func (s *notificationService) BookingCreated(_ context.Context, appt *model.Appointment) {
	s.publish(SubjectAppointmentCreated, appt.ID.Hex())
}

func (s *notificationService) BookingConfirmed(_ context.Context, appt *model.Appointment) {
	s.publish(SubjectAppointmentConfirmed, appt.ID.Hex())
}

func (s *notificationService) BookingCancelled(_ context.Context, appt *model.Appointment) {
	s.publish(SubjectAppointmentCancelled, appt.ID.Hex())
}

func (s *notificationService) BookingRescheduled(_ context.Context, appt *model.Appointment) {
	s.publish(SubjectAppointmentRescheduled, appt.ID.Hex())
}

func (s *notificationService) QuoteProvided(_ context.Context, appt *model.Appointment) {
	s.publish(SubjectQuoteProvided, appt.ID.Hex())
}

func (s *notificationService) MaintenanceCompleted(_ context.Context, appt *model.Appointment, _ *model.Invoice) {
	s.publish(SubjectMaintenanceCompleted, appt.ID.Hex())
}

func (s *notificationService) PaymentReceived(_ context.Context, appt *model.Appointment, p *model.Payment) {
	s.publish(SubjectPaymentReceived, fmt.Sprintf("%d", p.OrderCode))
}
