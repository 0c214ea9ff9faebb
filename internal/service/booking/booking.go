// Package booking owns the front half of the appointment lifecycle: slot
// search, booking creation, staff confirmation, cancellation and reschedule.
package booking

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
	"github.com/evcare-vn/evcare_backend/internal/service/inventory"
	"github.com/evcare-vn/evcare_backend/internal/service/sideeffect"
)

// ---------------------------------------------------------------------------
// Collaborator interfaces
// ---------------------------------------------------------------------------

type AppointmentStore interface {
	Insert(ctx context.Context, a *model.Appointment) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Appointment, error)
	Update(ctx context.Context, a *model.Appointment) error
	ListByCenterAndDate(ctx context.Context, centerID primitive.ObjectID, day time.Time, statuses []model.AppointmentStatus) ([]*model.Appointment, error)
	ListByCustomer(ctx context.Context, customerID primitive.ObjectID, status model.AppointmentStatus, limit int64) ([]*model.Appointment, error)
}

type CatalogStore interface {
	GetServiceCenter(ctx context.Context, id primitive.ObjectID) (*model.ServiceCenter, error)
	GetServiceType(ctx context.Context, id primitive.ObjectID) (*model.ServiceType, error)
	GetServicePackage(ctx context.Context, id primitive.ObjectID) (*model.ServicePackage, error)
	GetVehicle(ctx context.Context, id primitive.ObjectID) (*model.Vehicle, error)
}

type PackageStore interface {
	Insert(ctx context.Context, p *model.CustomerPackage) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.CustomerPackage, error)
	Update(ctx context.Context, p *model.CustomerPackage) error
	FindActiveByCustomerAndPackage(ctx context.Context, customerID, servicePackageID primitive.ObjectID) (*model.CustomerPackage, error)
}

// PaymentLinker creates a gateway payment link for an upfront charge. The
// payment service implements it.
type PaymentLinker interface {
	CreateForAppointment(ctx context.Context, appt *model.Appointment, amount int64, description string) (*model.Payment, error)
}

// InventoryReleaser frees part reservations left behind by a cancelled
// booking. The inventory service implements it.
type InventoryReleaser interface {
	ReleaseForAppointment(ctx context.Context, appointmentID primitive.ObjectID) error
}

// Notifier delivers customer-facing notifications. Calls are best-effort.
type Notifier interface {
	BookingCreated(ctx context.Context, appt *model.Appointment)
	BookingConfirmed(ctx context.Context, appt *model.Appointment)
	BookingCancelled(ctx context.Context, appt *model.Appointment)
	BookingRescheduled(ctx context.Context, appt *model.Appointment)
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	CustomerID      primitive.ObjectID
	VehicleID       primitive.ObjectID
	ServiceCenterID primitive.ObjectID

	ServiceTypeID     *primitive.ObjectID
	ServicePackageID  *primitive.ObjectID // catalog package, subscribed on the fly
	CustomerPackageID *primitive.ObjectID // existing subscription instance
	IsInspectionOnly  bool

	AppointmentDate time.Time
	StartTime       string // "HH:MM"
	Description     string

	PaymentPreference model.PaymentMethod // cash by default
}

// CreateResult separates the committed booking from the outcomes of the
// best-effort side effects attempted after it.
type CreateResult struct {
	Appointment     *model.Appointment
	Payment         *model.Payment
	RequiresPayment bool
	SideEffects     []sideeffect.Outcome
}

type RescheduleRequest struct {
	NewDate      time.Time
	NewStartTime string
	Reason       string
}

type TransitionResult struct {
	Appointment *model.Appointment
	SideEffects []sideeffect.Outcome
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	GetAvailableSlots(ctx context.Context, req SlotRequest) (*SlotResult, error)
	Create(ctx context.Context, req CreateRequest) (*CreateResult, error)
	Confirm(ctx context.Context, bookingID, staffID primitive.ObjectID) (*TransitionResult, error)
	Cancel(ctx context.Context, bookingID, byID primitive.ObjectID, reason string) (*TransitionResult, error)
	Reschedule(ctx context.Context, bookingID, byID primitive.ObjectID, req RescheduleRequest) (*TransitionResult, error)
	GetByID(ctx context.Context, bookingID primitive.ObjectID) (*model.Appointment, error)
	ListByCustomer(ctx context.Context, customerID primitive.ObjectID, status model.AppointmentStatus, limit int64) ([]*model.Appointment, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type bookingService struct {
	appts     AppointmentStore
	catalog   CatalogStore
	packages  PackageStore
	payments  PaymentLinker
	inventory InventoryReleaser
	notifier  Notifier
	cfg       config.BookingConfig
	logger    *slog.Logger
	now       func() time.Time
}

func New(appts AppointmentStore, catalog CatalogStore, packages PackageStore, payments PaymentLinker, inv InventoryReleaser, notifier Notifier, cfg config.BookingConfig, logger *slog.Logger) Service {
	return &bookingService{
		appts:     appts,
		catalog:   catalog,
		packages:  packages,
		payments:  payments,
		inventory: inv,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *bookingService) GetByID(ctx context.Context, bookingID primitive.ObjectID) (*model.Appointment, error) {
	appt, err := s.appts.GetByID(ctx, bookingID)
	if err != nil {
		return nil, ErrAppointmentNotFound
	}
	return appt, nil
}

func (s *bookingService) ListByCustomer(ctx context.Context, customerID primitive.ObjectID, status model.AppointmentStatus, limit int64) ([]*model.Appointment, error) {
	return s.appts.ListByCustomer(ctx, customerID, status, limit)
}

func (s *bookingService) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if req.AppointmentDate.IsZero() {
		return nil, ErrMissingDate
	}
	startMin, err := parseHHMM(req.StartTime)
	if err != nil {
		return nil, ErrInvalidTime
	}

	selectors := 0
	if req.ServiceTypeID != nil {
		selectors++
	}
	if req.ServicePackageID != nil || req.CustomerPackageID != nil {
		selectors++
	}
	if req.IsInspectionOnly {
		selectors++
	}
	if selectors == 0 {
		return nil, ErrNoServiceSelected
	}

	center, err := s.catalog.GetServiceCenter(ctx, req.ServiceCenterID)
	if err != nil {
		return nil, ErrCenterNotFound
	}
	if !center.IsActive() {
		return nil, ErrCenterInactive
	}

	vehicle, err := s.catalog.GetVehicle(ctx, req.VehicleID)
	if err != nil {
		return nil, ErrVehicleNotFound
	}
	if vehicle.CustomerID != req.CustomerID {
		return nil, ErrVehicleOwnership
	}

	duration := s.cfg.DefaultDurationMin
	var estimatedCost int64
	var serviceType *model.ServiceType
	if req.ServiceTypeID != nil {
		serviceType, err = s.catalog.GetServiceType(ctx, *req.ServiceTypeID)
		if err != nil {
			return nil, ErrServiceTypeNotFound
		}
		duration = serviceType.DurationMinutes
		estimatedCost = serviceType.BasePrice
	}
	if req.IsInspectionOnly {
		estimatedCost = 0
	}

	endMin := startMin + duration
	if endMin > minutesPerDay {
		return nil, ErrCrossMidnight
	}

	appt := &model.Appointment{
		CustomerID:      req.CustomerID,
		VehicleID:       req.VehicleID,
		ServiceCenterID: req.ServiceCenterID,
		ServiceTypeID:   req.ServiceTypeID,
		AppointmentDate: req.AppointmentDate,
		StartTime:       formatHHMM(startMin),
		EndTime:         formatHHMM(endMin),
		DurationMinutes: duration,
		Status:          model.StatusPendingConfirmation,
		ServiceDetails: model.ServiceDetails{
			Description:      req.Description,
			EstimatedCost:    estimatedCost,
			IsInspectionOnly: req.IsInspectionOnly,
		},
	}

	// Package consumption takes precedence over direct pricing.
	pkg, err := s.resolvePackage(ctx, req, serviceType)
	if err != nil {
		return nil, err
	}
	if pkg != nil {
		appt.ServiceDetails.EstimatedCost = 0
		appt.ServiceDetails.IsFromPackage = true
		appt.ServiceDetails.CustomerPackageID = &pkg.ID
	}

	upfront := s.upfrontCharge(appt)
	method := req.PaymentPreference
	if method == "" {
		method = model.MethodCash
	}
	if upfront == 0 {
		method = model.MethodNotRequired
	}
	appt.Payment = model.AppointmentPayment{
		Method: method,
		Status: model.AppointmentPaymentPending,
		Amount: upfront,
	}

	// The booking is persisted before any collaborator is touched so it
	// exists even when the payment link or email fails afterwards.
	if err := s.appts.Insert(ctx, appt); err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	result := &CreateResult{
		Appointment:     appt,
		RequiresPayment: upfront > 0,
	}

	if pkg != nil {
		if err := s.consumePackage(ctx, pkg, appt); err != nil {
			// The booking stands; the quota repair is an operational task.
			s.logger.Error("package consumption failed",
				slog.String("appointment_id", appt.ID.Hex()),
				slog.String("package_id", pkg.ID.Hex()),
				slog.Any("error", err))
			result.SideEffects = append(result.SideEffects, sideeffect.Record("package_consumption", err))
		} else {
			result.SideEffects = append(result.SideEffects, sideeffect.Record("package_consumption", nil))
		}
	}

	if upfront > 0 && method != model.MethodCash && method != model.MethodNotRequired {
		payment, err := s.payments.CreateForAppointment(ctx, appt, upfront, s.chargeDescription(appt))
		if err != nil {
			s.logger.Error("payment link creation failed",
				slog.String("appointment_id", appt.ID.Hex()),
				slog.Any("error", err))
			result.SideEffects = append(result.SideEffects, sideeffect.Record("payment_link", err))
		} else {
			result.Payment = payment
			result.SideEffects = append(result.SideEffects, sideeffect.Record("payment_link", nil))
		}
	}

	s.notifier.BookingCreated(ctx, appt)
	return result, nil
}

// resolvePackage returns the subscription instance the booking consumes, or
// nil when the booking is not package-backed. A catalog package id subscribes
// the customer on the fly.
func (s *bookingService) resolvePackage(ctx context.Context, req CreateRequest, serviceType *model.ServiceType) (*model.CustomerPackage, error) {
	switch {
	case req.CustomerPackageID != nil:
		pkg, err := s.packages.GetByID(ctx, *req.CustomerPackageID)
		if err != nil {
			return nil, ErrPackageNotFound
		}
		if pkg.Status != model.PackageActive {
			return nil, ErrPackageInactive
		}
		if pkg.RemainingServices <= 0 {
			return nil, ErrPackageExhausted
		}
		if serviceType != nil {
			catalogPkg, err := s.catalog.GetServicePackage(ctx, pkg.ServicePackageID)
			if err != nil {
				return nil, ErrPackageNotFound
			}
			if !catalogPkg.Includes(serviceType.ID) {
				return nil, ErrPackageNotCovered
			}
		}
		return pkg, nil

	case req.ServicePackageID != nil:
		catalogPkg, err := s.catalog.GetServicePackage(ctx, *req.ServicePackageID)
		if err != nil {
			return nil, ErrPackageNotFound
		}
		if serviceType != nil && !catalogPkg.Includes(serviceType.ID) {
			return nil, ErrPackageNotCovered
		}
		// A customer already subscribed to this package consumes the
		// existing instance instead of a second subscription.
		if existing, err := s.packages.FindActiveByCustomerAndPackage(ctx, req.CustomerID, catalogPkg.ID); err == nil {
			if existing.RemainingServices <= 0 {
				return nil, ErrPackageExhausted
			}
			return existing, nil
		}
		now := s.now()
		pkg := &model.CustomerPackage{
			CustomerID:        req.CustomerID,
			ServicePackageID:  catalogPkg.ID,
			Status:            model.PackageActive,
			PaymentStatus:     "pending",
			RemainingServices: catalogPkg.MaxServicesPerMonth * catalogPkg.DurationMonths,
			StartDate:         now,
			EndDate:           now.AddDate(0, catalogPkg.DurationMonths, 0),
		}
		if err := s.packages.Insert(ctx, pkg); err != nil {
			return nil, fmt.Errorf("subscribe package: %w", err)
		}
		return pkg, nil
	}
	return nil, nil
}

func (s *bookingService) consumePackage(ctx context.Context, pkg *model.CustomerPackage, appt *model.Appointment) error {
	pkg.RemainingServices--
	pkg.UsedServices++
	pkg.UsageHistory = append(pkg.UsageHistory, model.PackageUsage{
		AppointmentID: appt.ID,
		ServiceTypeID: appt.ServiceTypeID,
		UsedAt:        s.now(),
	})
	return s.packages.Update(ctx, pkg)
}

// upfrontCharge is the amount collected before confirmation: a flat fee for
// inspection-only bookings, otherwise a deposit on the estimated cost.
func (s *bookingService) upfrontCharge(appt *model.Appointment) int64 {
	if appt.ServiceDetails.IsInspectionOnly {
		return s.cfg.InspectionFee
	}
	return int64(float64(appt.ServiceDetails.EstimatedCost) * s.cfg.DepositRate)
}

func (s *bookingService) chargeDescription(appt *model.Appointment) string {
	if appt.ServiceDetails.IsInspectionOnly {
		return "Phi kiem tra xe"
	}
	return "Dat coc dich vu"
}

func (s *bookingService) Confirm(ctx context.Context, bookingID, staffID primitive.ObjectID) (*TransitionResult, error) {
	appt, err := s.appts.GetByID(ctx, bookingID)
	if err != nil {
		return nil, ErrAppointmentNotFound
	}
	if !lifecycle.CanTransition(appt.Status, model.StatusConfirmed) {
		return nil, ErrNotConfirmable
	}

	center, err := s.catalog.GetServiceCenter(ctx, appt.ServiceCenterID)
	if err != nil {
		return nil, ErrCenterNotFound
	}
	if !center.IsActive() {
		return nil, ErrCenterInactive
	}

	// Online deposits must clear first. Cash settles at completion and
	// never blocks confirmation.
	if appt.Payment.Amount > 0 &&
		appt.Payment.Method != model.MethodCash &&
		appt.Payment.Method != model.MethodNotRequired &&
		appt.Payment.Status != model.AppointmentPaymentPaid {
		return nil, ErrUnpaidDeposit
	}

	now := s.now()
	if err := lifecycle.Transition(appt, model.StatusConfirmed, model.StatusHistoryEntry{
		ChangedBy: staffID,
		ChangedAt: now,
	}); err != nil {
		return nil, err
	}
	appt.Confirmation = &model.ConfirmationRecord{
		IsConfirmed: true,
		ConfirmedAt: now,
		ConfirmedBy: staffID,
	}
	if err := s.appts.Update(ctx, appt); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	s.notifier.BookingConfirmed(ctx, appt)
	return &TransitionResult{Appointment: appt}, nil
}

func (s *bookingService) Cancel(ctx context.Context, bookingID, byID primitive.ObjectID, reason string) (*TransitionResult, error) {
	appt, err := s.appts.GetByID(ctx, bookingID)
	if err != nil {
		return nil, ErrAppointmentNotFound
	}
	if !lifecycle.Cancellable(appt.Status) {
		return nil, ErrNotCancellable
	}

	from := appt.Status
	now := s.now()
	if err := lifecycle.Transition(appt, model.StatusCancelled, model.StatusHistoryEntry{
		ChangedBy: byID,
		Reason:    reason,
		ChangedAt: now,
	}); err != nil {
		return nil, ErrNotCancellable
	}
	appt.Cancellation = &model.CancellationRecord{
		IsCancelled: true,
		CancelledAt: now,
		CancelledBy: byID,
		Reason:      reason,
	}
	if err := s.appts.Update(ctx, appt); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	res := &TransitionResult{Appointment: appt}

	// An approved quote may be holding parts; a cancelled booking gives
	// them back instead of waiting out the hold TTL. Labor-only quotes
	// have no hold, which is not a failure.
	if from == model.StatusQuoteApproved {
		err := s.inventory.ReleaseForAppointment(ctx, appt.ID)
		if err != nil && !errors.Is(err, inventory.ErrNoHold) {
			s.logger.Error("inventory release failed",
				slog.String("appointment_id", appt.ID.Hex()),
				slog.Any("error", err))
			res.SideEffects = append(res.SideEffects, sideeffect.Record("inventory_release", err))
		} else {
			res.SideEffects = append(res.SideEffects, sideeffect.Record("inventory_release", nil))
		}
	}

	s.notifier.BookingCancelled(ctx, appt)
	return res, nil
}

func (s *bookingService) Reschedule(ctx context.Context, bookingID, byID primitive.ObjectID, req RescheduleRequest) (*TransitionResult, error) {
	appt, err := s.appts.GetByID(ctx, bookingID)
	if err != nil {
		return nil, ErrAppointmentNotFound
	}
	if !lifecycle.Reschedulable(appt.Status) {
		return nil, ErrNotReschedulable
	}
	if !req.NewDate.After(s.now()) {
		return nil, ErrPastDate
	}
	startMin, err := parseHHMM(req.NewStartTime)
	if err != nil {
		return nil, ErrInvalidTime
	}

	duration := appt.DurationMinutes
	if duration == 0 {
		duration = s.cfg.DefaultDurationMin
	}
	endMin := startMin + duration
	if endMin > minutesPerDay {
		return nil, ErrCrossMidnight
	}

	now := s.now()
	entry := model.RescheduleEntry{
		FromDate:      appt.AppointmentDate,
		FromStartTime: appt.StartTime,
		ToDate:        req.NewDate,
		ToStartTime:   formatHHMM(startMin),
		RescheduledBy: byID,
		RescheduledAt: now,
		Reason:        req.Reason,
	}

	appt.AppointmentDate = req.NewDate
	appt.StartTime = formatHHMM(startMin)
	appt.EndTime = formatHHMM(endMin)
	appt.DurationMinutes = duration
	if appt.Rescheduling == nil {
		appt.Rescheduling = &model.ReschedulingRecord{}
	}
	appt.Rescheduling.IsRescheduled = true
	appt.Rescheduling.History = append(appt.Rescheduling.History, entry)

	// Rescheduling re-enters the confirmation gate.
	if appt.Status != model.StatusPendingConfirmation {
		appt.StatusHistory = append(appt.StatusHistory, model.StatusHistoryEntry{
			From:      appt.Status,
			To:        model.StatusPendingConfirmation,
			ChangedBy: byID,
			Reason:    "rescheduled",
			ChangedAt: now,
		})
		appt.Status = model.StatusPendingConfirmation
		appt.Confirmation = nil
	}

	if err := s.appts.Update(ctx, appt); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	s.notifier.BookingRescheduled(ctx, appt)
	return &TransitionResult{Appointment: appt}, nil
}
