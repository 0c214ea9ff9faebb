package app

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"

	"github.com/evcare-vn/evcare_backend/config"
	"github.com/evcare-vn/evcare_backend/internal/model"
	"github.com/evcare-vn/evcare_backend/internal/service/notification"
	"github.com/evcare-vn/evcare_backend/internal/service/payment"
	"github.com/evcare-vn/evcare_backend/internal/store"
	"github.com/evcare-vn/evcare_backend/pkg/email"
)

// WorkerModule registers the NATS event workers and the reminder ticker.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

var paymentsReceived = promauto.NewCounter(prometheus.CounterOpts{
	Name: "evcare_payments_received_total",
	Help: "Gateway payments reconciled as paid.",
})

type WorkerParams struct {
	fx.In

	Lc         fx.Lifecycle
	Cfg        *config.Config
	NC         *nats.Conn
	Redis      *redis.Client
	Appts      *store.AppointmentStore
	Catalog    *store.CatalogStore
	Invoices   *store.InvoiceStore
	Payments   *store.PaymentStore
	PaymentSvc payment.Service
	Email      *email.Client
}

func RegisterWorkers(p WorkerParams) {
	stop := make(chan struct{})

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			startEmailWorker(p)
			startPaymentWorker(p)
			go runReminderWorker(p, stop)
			go runPaymentSweep(p, stop)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(stop)
			// Drain handled by ProvideNatsClient
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// email_worker
// ---------------------------------------------------------------------------

// The services publish only entity ids. The worker reloads the appointment
// plus its customer and center, so emails always reflect the committed state
// rather than whatever was in memory at publish time.

func startEmailWorker(p WorkerParams) {
	subscribeAppointment(p, notification.SubjectAppointmentCreated, func(ctx context.Context, appt *model.Appointment, cust *model.Customer, center *model.ServiceCenter) email.Message {
		data := bookingEmailData(appt, cust, center)
		if pay, err := p.Payments.FindActiveByAppointment(ctx, appt.ID); err == nil {
			data.CheckoutURL = pay.CheckoutURL
			data.AmountVND = pay.Amount
		}
		return email.BuildBookingConfirmationEmail(data)
	})

	subscribeAppointment(p, notification.SubjectAppointmentConfirmed, func(ctx context.Context, appt *model.Appointment, cust *model.Customer, center *model.ServiceCenter) email.Message {
		return email.BuildBookingConfirmationEmail(bookingEmailData(appt, cust, center))
	})

	subscribeAppointment(p, notification.SubjectAppointmentRescheduled, func(ctx context.Context, appt *model.Appointment, cust *model.Customer, center *model.ServiceCenter) email.Message {
		return email.BuildRescheduleEmail(bookingEmailData(appt, cust, center))
	})

	subscribeAppointment(p, notification.SubjectAppointmentReminder, func(ctx context.Context, appt *model.Appointment, cust *model.Customer, center *model.ServiceCenter) email.Message {
		return email.BuildReminderEmail(bookingEmailData(appt, cust, center))
	})

	subscribeAppointment(p, notification.SubjectMaintenanceCompleted, func(ctx context.Context, appt *model.Appointment, cust *model.Customer, center *model.ServiceCenter) email.Message {
		data := email.InvoiceEmailData{
			CustomerName:  cust.Name,
			Email:         cust.Email,
			CenterName:    center.Name,
			PaymentMethod: string(appt.Payment.Method),
		}
		if inv, err := p.Invoices.GetByAppointment(ctx, appt.ID); err == nil {
			data.InvoiceNumber = inv.Number
			data.TotalVND = inv.Total
		}
		return email.BuildInvoiceEmail(data)
	})

	slog.Info("email_worker: started")
}

// subscribeAppointment wires one subject prefix to an email builder. The
// message payload is the appointment id.
func subscribeAppointment(p WorkerParams, subjectPrefix string, build func(context.Context, *model.Appointment, *model.Customer, *model.ServiceCenter) email.Message) {
	subject := subjectPrefix + ".*"

	_, err := p.NC.Subscribe(subject, func(msg *nats.Msg) {
		apptIDStr := strings.TrimSpace(string(msg.Data))
		apptID, err := primitive.ObjectIDFromHex(apptIDStr)
		if err != nil {
			return
		}

		ctx := context.Background()

		appt, err := p.Appts.GetByID(ctx, apptID)
		if err != nil {
			slog.Warn("email_worker: appointment not found", "id", apptIDStr, "err", err)
			return
		}

		cust, err := p.Catalog.GetCustomer(ctx, appt.CustomerID)
		if err != nil {
			slog.Warn("email_worker: customer not found", "id", appt.CustomerID.Hex(), "err", err)
			return
		}
		if cust.Email == "" {
			return
		}

		center, err := p.Catalog.GetServiceCenter(ctx, appt.ServiceCenterID)
		if err != nil {
			slog.Warn("email_worker: service center not found", "id", appt.ServiceCenterID.Hex(), "err", err)
			return
		}

		m := build(ctx, appt, cust, center)
		if err := p.Email.Send(ctx, m); err != nil {
			slog.Warn("email_worker: send failed", "subject", msg.Subject, "to", cust.Email, "err", err)
		}
	})
	if err != nil {
		slog.Error("email_worker: subscribe failed", "subject", subject, "err", err)
	}
}

func bookingEmailData(appt *model.Appointment, cust *model.Customer, center *model.ServiceCenter) email.BookingEmailData {
	return email.BookingEmailData{
		CustomerName: cust.Name,
		Email:        cust.Email,
		CenterName:   center.Name,
		Date:         appt.AppointmentDate.Format("2006-01-02"),
		StartTime:    appt.StartTime,
		EndTime:      appt.EndTime,
		AmountVND:    appt.Payment.Amount,
	}
}

// ---------------------------------------------------------------------------
// payment_worker
// ---------------------------------------------------------------------------

func startPaymentWorker(p WorkerParams) {
	_, err := p.NC.Subscribe(notification.SubjectPaymentReceived+".*", func(msg *nats.Msg) {
		orderCodeStr := strings.TrimSpace(string(msg.Data))
		orderCode, err := strconv.ParseInt(orderCodeStr, 10, 64)
		if err != nil {
			return
		}

		ctx := context.Background()

		pay, err := p.Payments.GetByOrderCode(ctx, orderCode)
		if err != nil {
			slog.Warn("payment_worker: payment not found", "order_code", orderCodeStr, "err", err)
			return
		}

		paymentsReceived.Inc()
		slog.Info("payment_worker: payment received",
			"order_code", orderCode,
			"appointment_id", pay.AppointmentID.Hex(),
			"amount", pay.Amount,
		)
	})
	if err != nil {
		slog.Error("payment_worker: subscribe payment.received failed", "err", err)
	}

	slog.Info("payment_worker: started")
}

const paymentSweepInterval = 10 * time.Minute

// runPaymentSweep reconciles pending payments whose link expiry passed. A
// missed webhook either settles late or the record flips to expired, so
// stale pending rows never linger.
func runPaymentSweep(p WorkerParams, stop <-chan struct{}) {
	ticker := time.NewTicker(paymentSweepInterval)
	defer ticker.Stop()

	slog.Info("payment_worker: expiry sweep started", "interval", paymentSweepInterval)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			changed, err := p.PaymentSvc.ReconcileExpired(ctx)
			cancel()
			if err != nil {
				slog.Warn("payment_worker: expiry sweep failed", "err", err)
				continue
			}
			if changed > 0 {
				slog.Info("payment_worker: expired payments reconciled", "changed", changed)
			}
		}
	}
}

// ---------------------------------------------------------------------------
// reminder_worker
// ---------------------------------------------------------------------------

const reminderScanInterval = 15 * time.Minute

// runReminderWorker periodically scans confirmed appointments inside the
// lead window and publishes one reminder per appointment. The dedup marker
// lives in Redis so restarts and multiple instances don't double-send.
func runReminderWorker(p WorkerParams, stop <-chan struct{}) {
	lead := time.Duration(p.Cfg.Booking.ReminderLeadHours) * time.Hour
	if lead <= 0 {
		lead = 24 * time.Hour
	}

	ticker := time.NewTicker(reminderScanInterval)
	defer ticker.Stop()

	slog.Info("reminder_worker: started", "lead", lead)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			scanReminders(p, lead)
		}
	}
}

func scanReminders(p WorkerParams, lead time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now().UTC()
	appts, err := p.Appts.ListByStatus(ctx, model.StatusConfirmed, now, now.Add(lead))
	if err != nil {
		slog.Warn("reminder_worker: list confirmed failed", "err", err)
		return
	}

	for _, appt := range appts {
		id := appt.ID.Hex()

		set, err := p.Redis.SetNX(ctx, "evcare:reminder:sent:"+id, 1, 48*time.Hour).Result()
		if err != nil {
			slog.Warn("reminder_worker: dedup check failed", "appointment_id", id, "err", err)
			continue
		}
		if !set {
			continue
		}

		subject := notification.SubjectAppointmentReminder + "." + id
		if err := p.NC.Publish(subject, []byte(id)); err != nil {
			slog.Warn("reminder_worker: publish failed", "appointment_id", id, "err", err)
		}
	}
}
