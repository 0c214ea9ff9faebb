// Package payment manages gateway payment links and their reconciliation.
// Three independent paths feed the same status mapping: the gateway webhook,
// the browser return redirect and a manual sync against the gateway. All
// three are idempotent so replayed deliveries never double-apply.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/evcare-vn/evcare_backend/config"
	"github.com/evcare-vn/evcare_backend/internal/lifecycle"
	"github.com/evcare-vn/evcare_backend/internal/model"
	"github.com/evcare-vn/evcare_backend/internal/store"
	"github.com/evcare-vn/evcare_backend/pkg/payos"
)

const orderCodeAttempts = 3

// ---------------------------------------------------------------------------
// Collaborator interfaces
// ---------------------------------------------------------------------------

type PaymentStore interface {
	Insert(ctx context.Context, p *model.Payment) error
	GetByOrderCode(ctx context.Context, orderCode int64) (*model.Payment, error)
	Update(ctx context.Context, p *model.Payment) error
	FindActiveByAppointment(ctx context.Context, appointmentID primitive.ObjectID) (*model.Payment, error)
	ListPendingExpiredBefore(ctx context.Context, cutoff time.Time) ([]*model.Payment, error)
}

type AppointmentStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Appointment, error)
	Update(ctx context.Context, a *model.Appointment) error
}

// Gateway is the slice of the PayOS client this service uses.
type Gateway interface {
	CreatePaymentLink(ctx context.Context, req payos.CreateLinkRequest) (*payos.PaymentLink, error)
	GetPaymentLink(ctx context.Context, orderCode int64) (*payos.LinkInfo, error)
	CancelPaymentLink(ctx context.Context, orderCode int64, reason string) error
}

// Notifier announces settled payments. Best-effort.
type Notifier interface {
	PaymentReceived(ctx context.Context, appt *model.Appointment, p *model.Payment)
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// WebhookEvent is the payload posted by the gateway, already
// signature-verified by the HTTP layer.
type WebhookEvent struct {
	OrderCode       int64
	Status          string // gateway vocabulary: PAID, CANCELLED, EXPIRED
	TransactionID   string
	TransactionTime time.Time
	Amount          int64
}

// ReconcileResult reports one reconciliation pass. Changed is false when the
// delivery was a replay against an already-final payment.
type ReconcileResult struct {
	Payment     *model.Payment
	Appointment *model.Appointment
	Changed     bool
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	CreateForAppointment(ctx context.Context, appt *model.Appointment, amount int64, description string) (*model.Payment, error)
	HandleWebhook(ctx context.Context, ev WebhookEvent) (*ReconcileResult, error)
	HandleReturn(ctx context.Context, orderCode int64, gatewayStatus string) (*ReconcileResult, error)
	SyncStatus(ctx context.Context, orderCode int64) (*ReconcileResult, error)
	ReconcileExpired(ctx context.Context) (int, error)
	GetByOrderCode(ctx context.Context, orderCode int64) (*model.Payment, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type paymentService struct {
	payments PaymentStore
	appts    AppointmentStore
	gateway  Gateway
	notifier Notifier
	cfg      config.PayOSConfig
	logger   *slog.Logger
	now      func() time.Time
}

func New(payments PaymentStore, appts AppointmentStore, gateway Gateway, notifier Notifier, cfg config.PayOSConfig, logger *slog.Logger) Service {
	return &paymentService{
		payments: payments,
		appts:    appts,
		gateway:  gateway,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *paymentService) GetByOrderCode(ctx context.Context, orderCode int64) (*model.Payment, error) {
	p, err := s.payments.GetByOrderCode(ctx, orderCode)
	if err != nil {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

// CreateForAppointment creates a gateway payment link for an upfront charge.
// The payment record is inserted before the gateway is called so the unique
// order-code index can arbitrate collisions; link metadata is patched in
// afterwards.
func (s *paymentService) CreateForAppointment(ctx context.Context, appt *model.Appointment, amount int64, description string) (*model.Payment, error) {
	existing, err := s.payments.FindActiveByAppointment(ctx, appt.ID)
	if err == nil {
		if existing.Status == model.PaymentPaid {
			return nil, ErrAlreadyPaid
		}
		if !existing.IsExpired(s.now()) {
			return existing, nil
		}
		// A stale pending link is expired locally before a new attempt.
		existing.Status = model.PaymentExpired
		if err := s.payments.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("expire stale payment: %w", err)
		}
	}

	expiry := time.Duration(s.cfg.LinkExpiryMinutes) * time.Minute
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	p := &model.Payment{
		AppointmentID: appt.ID,
		CustomerID:    appt.CustomerID,
		Amount:        amount,
		Currency:      "VND",
		Description:   payos.TruncateDescription(description),
		Status:        model.PaymentPending,
		ExpiresAt:     s.now().Add(expiry),
	}

	inserted := false
	for attempt := 0; attempt < orderCodeAttempts; attempt++ {
		p.OrderCode = payos.GenerateOrderCode()
		err := s.payments.Insert(ctx, p)
		if err == nil {
			inserted = true
			break
		}
		if !errors.Is(err, store.ErrDuplicateOrderCode) {
			return nil, fmt.Errorf("insert payment: %w", err)
		}
	}
	if !inserted {
		return nil, ErrOrderCodeExhausted
	}

	link, err := s.gateway.CreatePaymentLink(ctx, payos.CreateLinkRequest{
		OrderCode:   p.OrderCode,
		Amount:      amount,
		Description: p.Description,
		ReturnURL:   s.cfg.FrontendBaseURL + "/payment/success",
		CancelURL:   s.cfg.FrontendBaseURL + "/payment/cancel",
		ExpiredAt:   p.ExpiresAt,
	})
	if err != nil {
		p.Status = model.PaymentFailed
		if uerr := s.payments.Update(ctx, p); uerr != nil {
			s.logger.Error("failed payment record not updated",
				slog.Int64("order_code", p.OrderCode),
				slog.Any("error", uerr))
		}
		return nil, fmt.Errorf("create payment link: %w", err)
	}

	p.PaymentLinkID = link.PaymentLinkID
	p.CheckoutURL = link.CheckoutURL
	p.QRCode = link.QRCode
	p.DeepLink = link.DeepLink
	if err := s.payments.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}
	return p, nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, ev WebhookEvent) (*ReconcileResult, error) {
	p, err := s.payments.GetByOrderCode(ctx, ev.OrderCode)
	if err != nil {
		return nil, ErrPaymentNotFound
	}
	var txnTime *time.Time
	if !ev.TransactionTime.IsZero() {
		txnTime = &ev.TransactionTime
	}
	return s.apply(ctx, p, ev.Status, ev.TransactionID, txnTime)
}

// HandleReturn processes the browser redirect from the gateway. Unlike the
// webhook it carries no transaction details, so it only flips still-pending
// records.
func (s *paymentService) HandleReturn(ctx context.Context, orderCode int64, gatewayStatus string) (*ReconcileResult, error) {
	p, err := s.payments.GetByOrderCode(ctx, orderCode)
	if err != nil {
		return nil, ErrPaymentNotFound
	}
	if p.Status != model.PaymentPending {
		return &ReconcileResult{Payment: p}, nil
	}
	return s.apply(ctx, p, gatewayStatus, "", nil)
}

// SyncStatus polls the gateway for the authoritative link state and applies
// the standard mapping. Used to repair missed webhooks.
func (s *paymentService) SyncStatus(ctx context.Context, orderCode int64) (*ReconcileResult, error) {
	p, err := s.payments.GetByOrderCode(ctx, orderCode)
	if err != nil {
		return nil, ErrPaymentNotFound
	}
	if p.Status.IsFinal() {
		return &ReconcileResult{Payment: p}, nil
	}

	info, err := s.gateway.GetPaymentLink(ctx, orderCode)
	if err != nil {
		return nil, fmt.Errorf("poll gateway: %w", err)
	}
	var txnTime *time.Time
	if info.TransactionTime != "" {
		if t, perr := time.Parse(time.RFC3339, info.TransactionTime); perr == nil {
			txnTime = &t
		}
	}
	return s.apply(ctx, p, info.Status, info.PaymentLinkID, txnTime)
}

// ReconcileExpired sweeps pending payments past their expiry and syncs each
// against the gateway. A payment that settled just before expiring comes back
// paid; the rest flip to expired. Returns how many records changed.
func (s *paymentService) ReconcileExpired(ctx context.Context) (int, error) {
	pending, err := s.payments.ListPendingExpiredBefore(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("list expired payments: %w", err)
	}

	changed := 0
	for _, p := range pending {
		res, err := s.SyncStatus(ctx, p.OrderCode)
		if err != nil {
			s.logger.Warn("expired payment sync failed",
				slog.Int64("order_code", p.OrderCode),
				slog.Any("error", err))
			continue
		}
		if res.Changed {
			changed++
		}
	}
	return changed, nil
}

// apply is the single status mapping all reconciliation paths converge on.
func (s *paymentService) apply(ctx context.Context, p *model.Payment, gatewayStatus, transactionID string, txnTime *time.Time) (*ReconcileResult, error) {
	if p.Status.IsFinal() {
		return &ReconcileResult{Payment: p}, nil
	}

	var target model.PaymentStatus
	switch gatewayStatus {
	case payos.GatewayStatusPaid:
		target = model.PaymentPaid
	case payos.GatewayStatusCancelled:
		target = model.PaymentCancelled
	case payos.GatewayStatusExpired:
		target = model.PaymentExpired
	case payos.GatewayStatusPending, payos.GatewayStatusProcessing:
		return &ReconcileResult{Payment: p}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, gatewayStatus)
	}

	if p.Status == target {
		return &ReconcileResult{Payment: p}, nil
	}

	p.Status = target
	if target == model.PaymentPaid {
		p.TransactionID = transactionID
		if txnTime != nil {
			p.TransactionTime = txnTime
		} else {
			now := s.now()
			p.TransactionTime = &now
		}
	}
	if err := s.payments.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}

	res := &ReconcileResult{Payment: p, Changed: true}
	if target == model.PaymentPaid {
		res.Appointment = s.mirrorPaid(ctx, p)
		if res.Appointment != nil && s.notifier != nil {
			s.notifier.PaymentReceived(ctx, res.Appointment, p)
		}
	}
	return res, nil
}

// mirrorPaid reflects a settled payment onto its appointment: the payment
// block flips to paid and a pending booking moves to confirmed. Failures are
// logged; the Payment record is the source of truth and a later sync or
// staff confirmation repairs the appointment.
func (s *paymentService) mirrorPaid(ctx context.Context, p *model.Payment) *model.Appointment {
	appt, err := s.appts.GetByID(ctx, p.AppointmentID)
	if err != nil {
		s.logger.Error("paid payment references missing appointment",
			slog.Int64("order_code", p.OrderCode),
			slog.String("appointment_id", p.AppointmentID.Hex()),
			slog.Any("error", err))
		return nil
	}

	now := s.now()
	appt.Payment.Status = model.AppointmentPaymentPaid
	appt.Payment.PaidAt = &now
	appt.Payment.TransactionID = p.TransactionID

	if appt.Status == model.StatusPendingConfirmation {
		if err := lifecycle.Transition(appt, model.StatusConfirmed, model.StatusHistoryEntry{
			Reason:    "deposit paid",
			ChangedAt: now,
		}); err != nil {
			s.logger.Warn("paid booking not auto-confirmed",
				slog.String("appointment_id", appt.ID.Hex()),
				slog.Any("error", err))
		}
	}

	if err := s.appts.Update(ctx, appt); err != nil {
		s.logger.Error("appointment payment mirror failed",
			slog.String("appointment_id", appt.ID.Hex()),
			slog.Any("error", err))
		return nil
	}
	return appt
}
