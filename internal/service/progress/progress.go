// Package progress owns the back half of the appointment lifecycle: the
// inspection and quote cycle, maintenance execution, completion and cash
// settlement.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/evcare-vn/evcare_backend/config"
	"github.com/evcare-vn/evcare_backend/internal/lifecycle"
	"github.com/evcare-vn/evcare_backend/internal/model"
	"github.com/evcare-vn/evcare_backend/internal/service/sideeffect"
)

// ---------------------------------------------------------------------------
// Collaborator interfaces
// ---------------------------------------------------------------------------

type AppointmentStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Appointment, error)
	Update(ctx context.Context, a *model.Appointment) error
}

type ProgressStore interface {
	Insert(ctx context.Context, w *model.WorkProgress) error
	GetByAppointment(ctx context.Context, appointmentID primitive.ObjectID) (*model.WorkProgress, error)
	Update(ctx context.Context, w *model.WorkProgress) error
}

type ScheduleStore interface {
	GetByTechnicianAndDate(ctx context.Context, technicianID primitive.ObjectID, day time.Time) (*model.TechnicianSchedule, error)
	AttachAppointment(ctx context.Context, scheduleID, appointmentID primitive.ObjectID) error
	ReleaseAppointment(ctx context.Context, scheduleID, appointmentID primitive.ObjectID) error
}

type InvoiceStore interface {
	Insert(ctx context.Context, inv *model.Invoice) error
	ListByCustomer(ctx context.Context, customerID primitive.ObjectID) ([]*model.Invoice, error)
}

// PartCatalog resolves part ids referenced by quote lines.
type PartCatalog interface {
	GetPart(ctx context.Context, id primitive.ObjectID) (*model.Part, error)
}

// InventoryReserver places part holds against approved quotes. The inventory
// service implements it.
type InventoryReserver interface {
	HoldForQuote(ctx context.Context, appt *model.Appointment) (*model.InventoryHold, error)
	ConsumeForAppointment(ctx context.Context, appointmentID primitive.ObjectID) error
}

type Notifier interface {
	QuoteProvided(ctx context.Context, appt *model.Appointment)
	MaintenanceCompleted(ctx context.Context, appt *model.Appointment, inv *model.Invoice)
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type QuoteItemInput struct {
	PartID    *primitive.ObjectID
	Name      string
	Quantity  int64
	UnitPrice int64
}

type InspectionRequest struct {
	VehicleCondition string
	DiagnosisDetails string
	InspectionNotes  string

	// Optional quote. Without one, the appointment finishes inspection
	// only.
	Items        []QuoteItemInput
	LaborMinutes int64
	LaborRate    int64
	QuoteAmount  int64 // caller's figure, cross-checked against the derived total
}

type QuoteResponseRequest struct {
	Status model.QuoteStatus // approved | rejected
	Note   string
}

// Result separates the committed transition from the best-effort side
// effects attempted after it.
type Result struct {
	Appointment *model.Appointment
	Progress    *model.WorkProgress
	Invoice     *model.Invoice
	SideEffects []sideeffect.Outcome
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	SubmitInspectionAndQuote(ctx context.Context, appointmentID, staffID primitive.ObjectID, req InspectionRequest) (*Result, error)
	ProcessQuoteResponse(ctx context.Context, appointmentID, customerID primitive.ObjectID, req QuoteResponseRequest) (*Result, error)
	StartMaintenance(ctx context.Context, appointmentID, technicianID primitive.ObjectID) (*Result, error)
	CompleteMaintenance(ctx context.Context, appointmentID, technicianID primitive.ObjectID, workDone string) (*Result, error)
	ProcessCashPayment(ctx context.Context, appointmentID, staffID primitive.ObjectID, amount int64) (*Result, error)
	GetByAppointment(ctx context.Context, appointmentID primitive.ObjectID) (*model.WorkProgress, error)
	ListInvoicesByCustomer(ctx context.Context, customerID primitive.ObjectID) ([]*model.Invoice, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type progressService struct {
	appts     AppointmentStore
	progress  ProgressStore
	schedules ScheduleStore
	invoices  InvoiceStore
	catalog   PartCatalog
	inventory InventoryReserver
	notifier  Notifier
	cfg       config.BookingConfig
	logger    *slog.Logger
	now       func() time.Time
}

func New(appts AppointmentStore, progress ProgressStore, schedules ScheduleStore, invoices InvoiceStore, catalog PartCatalog, inventory InventoryReserver, notifier Notifier, cfg config.BookingConfig, logger *slog.Logger) Service {
	return &progressService{
		appts:     appts,
		progress:  progress,
		schedules: schedules,
		invoices:  invoices,
		catalog:   catalog,
		inventory: inventory,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *progressService) ListInvoicesByCustomer(ctx context.Context, customerID primitive.ObjectID) ([]*model.Invoice, error) {
	return s.invoices.ListByCustomer(ctx, customerID)
}

func (s *progressService) GetByAppointment(ctx context.Context, appointmentID primitive.ObjectID) (*model.WorkProgress, error) {
	w, err := s.progress.GetByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, ErrProgressNotFound
	}
	return w, nil
}

func (s *progressService) SubmitInspectionAndQuote(ctx context.Context, appointmentID, staffID primitive.ObjectID, req InspectionRequest) (*Result, error) {
	if strings.TrimSpace(req.VehicleCondition) == "" {
		return nil, ErrMissingCondition
	}
	if strings.TrimSpace(req.DiagnosisDetails) == "" {
		return nil, ErrMissingDiagnosis
	}
	for _, it := range req.Items {
		if strings.TrimSpace(it.Name) == "" || it.Quantity <= 0 || it.UnitPrice < 0 {
			return nil, ErrInvalidQuoteItem
		}
		if it.PartID != nil {
			if _, err := s.catalog.GetPart(ctx, *it.PartID); err != nil {
				return nil, ErrPartNotFound
			}
		}
	}

	appt, err := s.appts.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, ErrAppointmentNotFound
	}

	now := s.now()
	iq := &model.InspectionAndQuote{
		InspectionNotes:  req.InspectionNotes,
		VehicleCondition: req.VehicleCondition,
		DiagnosisDetails: req.DiagnosisDetails,
		QuoteStatus:      model.QuotePending,
		InspectedAt:      now,
	}

	hasQuote := len(req.Items) > 0 || req.LaborMinutes > 0 || req.QuoteAmount > 0
	if hasQuote {
		details := &model.QuoteDetails{}
		for _, it := range req.Items {
			details.Items = append(details.Items, model.QuoteItem{
				PartID:    it.PartID,
				Name:      it.Name,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
			})
		}
		if req.LaborMinutes > 0 {
			details.Labor = &model.QuoteLabor{Minutes: req.LaborMinutes, Rate: req.LaborRate}
		}

		derived := details.DerivedAmount()
		if req.QuoteAmount > 0 && req.QuoteAmount != derived {
			// Tolerant reconciliation: the derived figure wins, the
			// discrepancy is logged for follow-up.
			s.logger.Warn("quote amount mismatch",
				slog.String("appointment_id", appt.ID.Hex()),
				slog.Int64("supplied", req.QuoteAmount),
				slog.Int64("derived", derived))
		}
		iq.QuoteAmount = derived
		iq.QuoteDetails = details
	}

	target := model.StatusInspectionCompleted
	if hasQuote {
		target = model.StatusQuoteProvided
	}
	if err := lifecycle.Transition(appt, target, model.StatusHistoryEntry{
		ChangedBy: staffID,
		ChangedAt: now,
	}); err != nil {
		return nil, err
	}
	appt.InspectionAndQuote = iq

	if err := s.appts.Update(ctx, appt); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	res := &Result{Appointment: appt}
	if hasQuote {
		s.notifier.QuoteProvided(ctx, appt)
	}
	return res, nil
}

func (s *progressService) ProcessQuoteResponse(ctx context.Context, appointmentID, customerID primitive.ObjectID, req QuoteResponseRequest) (*Result, error) {
	if req.Status != model.QuoteApproved && req.Status != model.QuoteRejected {
		return nil, ErrInvalidResponse
	}

	appt, err := s.appts.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, ErrAppointmentNotFound
	}
	if appt.Status != model.StatusQuoteProvided || appt.InspectionAndQuote == nil {
		return nil, ErrQuoteNotProvided
	}

	now := s.now()
	target := model.StatusQuoteApproved
	if req.Status == model.QuoteRejected {
		target = model.StatusQuoteRejected
	}
	if err := lifecycle.Transition(appt, target, model.StatusHistoryEntry{
		ChangedBy: customerID,
		Reason:    req.Note,
		ChangedAt: now,
	}); err != nil {
		return nil, err
	}
	appt.InspectionAndQuote.QuoteStatus = req.Status
	appt.InspectionAndQuote.RespondedAt = &now
	appt.InspectionAndQuote.ResponseNote = req.Note

	if err := s.appts.Update(ctx, appt); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	res := &Result{Appointment: appt}
	if req.Status == model.QuoteApproved {
		// Parts reservation must not fail the approval itself.
		if _, err := s.inventory.HoldForQuote(ctx, appt); err != nil {
			s.logger.Error("inventory hold failed",
				slog.String("appointment_id", appt.ID.Hex()),
				slog.Any("error", err))
			res.SideEffects = append(res.SideEffects, sideeffect.Record("inventory_hold", err))
		} else {
			res.SideEffects = append(res.SideEffects, sideeffect.Record("inventory_hold", nil))
		}
	}
	return res, nil
}

func (s *progressService) StartMaintenance(ctx context.Context, appointmentID, technicianID primitive.ObjectID) (*Result, error) {
	appt, err := s.appts.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, ErrAppointmentNotFound
	}
	if appt.Status != model.StatusQuoteApproved {
		return nil, ErrQuoteNotApproved
	}

	now := s.now()
	if err := lifecycle.Transition(appt, model.StatusMaintenanceInProgress, model.StatusHistoryEntry{
		ChangedBy: technicianID,
		ChangedAt: now,
	}); err != nil {
		return nil, err
	}
	if appt.TechnicianID == nil {
		appt.TechnicianID = &technicianID
	}
	if err := s.appts.Update(ctx, appt); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	w, err := s.progress.GetByAppointment(ctx, appointmentID)
	if err != nil {
		w = &model.WorkProgress{
			AppointmentID: appointmentID,
			TechnicianID:  &technicianID,
		}
		w.Status = model.ProgressInProgress
		w.Percentage = 25
		w.StartedAt = &now
		if err := s.progress.Insert(ctx, w); err != nil {
			return nil, fmt.Errorf("insert work progress: %w", err)
		}
	} else {
		w.Status = model.ProgressInProgress
		w.Percentage = 25
		w.StartedAt = &now
		w.TechnicianID = &technicianID
		if err := s.progress.Update(ctx, w); err != nil {
			return nil, fmt.Errorf("update work progress: %w", err)
		}
	}

	res := &Result{Appointment: appt, Progress: w}
	res.SideEffects = append(res.SideEffects,
		sideeffect.Record("assign_technician", s.assignTechnician(ctx, appt)))
	return res, nil
}

// assignTechnician attaches the appointment to the technician's day schedule,
// which flips the technician to busy. CompleteMaintenance undoes it.
func (s *progressService) assignTechnician(ctx context.Context, appt *model.Appointment) error {
	if appt.TechnicianID == nil {
		return nil
	}
	sched, err := s.schedules.GetByTechnicianAndDate(ctx, *appt.TechnicianID, appt.AppointmentDate)
	if err != nil {
		s.logger.Warn("technician schedule lookup failed",
			slog.String("appointment_id", appt.ID.Hex()),
			slog.Any("error", err))
		return err
	}
	if err := s.schedules.AttachAppointment(ctx, sched.ID, appt.ID); err != nil {
		s.logger.Warn("technician assignment failed",
			slog.String("appointment_id", appt.ID.Hex()),
			slog.Any("error", err))
		return err
	}
	return nil
}

func (s *progressService) CompleteMaintenance(ctx context.Context, appointmentID, technicianID primitive.ObjectID, workDone string) (*Result, error) {
	appt, err := s.appts.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, ErrAppointmentNotFound
	}

	w, err := s.progress.GetByAppointment(ctx, appointmentID)
	if err != nil || w.Status != model.ProgressInProgress {
		return nil, ErrWorkNotInProgress
	}

	now := s.now()
	if err := lifecycle.Transition(appt, model.StatusMaintenanceCompleted, model.StatusHistoryEntry{
		ChangedBy: technicianID,
		ChangedAt: now,
	}); err != nil {
		return nil, err
	}
	appt.Completion = &model.CompletionRecord{
		IsCompleted: true,
		CompletedAt: now,
		CompletedBy: technicianID,
		WorkDone:    workDone,
	}
	if appt.InspectionAndQuote != nil {
		appt.ServiceDetails.ActualCost = appt.InspectionAndQuote.QuoteAmount
	}
	if err := s.appts.Update(ctx, appt); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	w.Status = model.ProgressCompleted
	w.Percentage = 100
	w.CompletedAt = &now
	w.Notes = workDone
	if err := s.progress.Update(ctx, w); err != nil {
		return nil, fmt.Errorf("update work progress: %w", err)
	}

	res := &Result{Appointment: appt, Progress: w}

	res.SideEffects = append(res.SideEffects,
		sideeffect.Record("free_technician", s.freeTechnician(ctx, appt)))
	res.SideEffects = append(res.SideEffects,
		sideeffect.Record("consume_inventory", s.inventory.ConsumeForAppointment(ctx, appointmentID)))

	inv, err := s.issueInvoice(ctx, appt)
	res.SideEffects = append(res.SideEffects, sideeffect.Record("invoice", err))
	if err != nil {
		s.logger.Error("invoice generation failed",
			slog.String("appointment_id", appt.ID.Hex()),
			slog.Any("error", err))
	} else {
		res.Invoice = inv
	}

	s.notifier.MaintenanceCompleted(ctx, appt, inv)
	return res, nil
}

// freeTechnician flips the assigned technician's schedule for the appointment
// day back to available.
func (s *progressService) freeTechnician(ctx context.Context, appt *model.Appointment) error {
	if appt.TechnicianID == nil {
		return nil
	}
	sched, err := s.schedules.GetByTechnicianAndDate(ctx, *appt.TechnicianID, appt.AppointmentDate)
	if err != nil {
		s.logger.Warn("technician schedule lookup failed",
			slog.String("appointment_id", appt.ID.Hex()),
			slog.Any("error", err))
		return err
	}
	if err := s.schedules.ReleaseAppointment(ctx, sched.ID, appt.ID); err != nil {
		s.logger.Warn("technician release failed",
			slog.String("appointment_id", appt.ID.Hex()),
			slog.Any("error", err))
		return err
	}
	return nil
}

// issueInvoice builds an invoice from the approved quote, or from the flat
// inspection fee for inspection-only work.
func (s *progressService) issueInvoice(ctx context.Context, appt *model.Appointment) (*model.Invoice, error) {
	now := s.now()
	inv := &model.Invoice{
		Number:        invoiceNumber(appt.ID, now),
		AppointmentID: appt.ID,
		CustomerID:    appt.CustomerID,
		PaymentMethod: appt.Payment.Method,
		IssuedAt:      now,
	}

	if appt.InspectionAndQuote != nil && appt.InspectionAndQuote.QuoteDetails != nil {
		q := appt.InspectionAndQuote.QuoteDetails
		for _, it := range q.Items {
			inv.Items = append(inv.Items, model.InvoiceItem{
				Name:      it.Name,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
				Subtotal:  it.Quantity * it.UnitPrice,
			})
		}
		if q.Labor != nil {
			inv.LaborTotal = q.Labor.Minutes * q.Labor.Rate / 60
		}
		inv.Total = q.DerivedAmount()
	} else if appt.ServiceDetails.IsInspectionOnly {
		inv.Items = append(inv.Items, model.InvoiceItem{
			Name:      "Phi kiem tra xe",
			Quantity:  1,
			UnitPrice: s.cfg.InspectionFee,
			Subtotal:  s.cfg.InspectionFee,
		})
		inv.Total = s.cfg.InspectionFee
	} else {
		inv.Items = append(inv.Items, model.InvoiceItem{
			Name:      "Dich vu bao duong",
			Quantity:  1,
			UnitPrice: appt.ServiceDetails.EstimatedCost,
			Subtotal:  appt.ServiceDetails.EstimatedCost,
		})
		inv.Total = appt.ServiceDetails.EstimatedCost
	}

	if err := s.invoices.Insert(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func invoiceNumber(apptID primitive.ObjectID, now time.Time) string {
	hex := apptID.Hex()
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), strings.ToUpper(hex[len(hex)-6:]))
}

func (s *progressService) ProcessCashPayment(ctx context.Context, appointmentID, staffID primitive.ObjectID, amount int64) (*Result, error) {
	appt, err := s.appts.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, ErrAppointmentNotFound
	}
	if appt.Payment.Status == model.AppointmentPaymentPaid {
		return nil, ErrAlreadyPaid
	}
	if appt.Status != model.StatusMaintenanceCompleted && appt.Status != model.StatusPaymentPending &&
		appt.Status != model.StatusInspectionCompleted {
		return nil, ErrWorkNotCompleted
	}

	now := s.now()
	appt.Payment.Method = model.MethodCash
	appt.Payment.Status = model.AppointmentPaymentPaid
	if amount > 0 {
		appt.Payment.Amount = amount
	}
	appt.Payment.PaidAt = &now

	if err := lifecycle.Transition(appt, model.StatusCompleted, model.StatusHistoryEntry{
		ChangedBy: staffID,
		Reason:    "cash settlement",
		ChangedAt: now,
	}); err != nil {
		return nil, err
	}
	if err := s.appts.Update(ctx, appt); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	return &Result{Appointment: appt}, nil
}
