// Package inventory reserves parts stock against approved quotes.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/evcare-vn/evcare_backend/config"
	"github.com/evcare-vn/evcare_backend/internal/model"
)

const (
	HoldStatusHeld     = "held"
	HoldStatusReleased = "released"
	HoldStatusConsumed = "consumed"

	SourceApprovedQuote = "approved_quote"
)

var ErrNoHold = errors.New("no active hold for this appointment")

type HoldStore interface {
	InsertHold(ctx context.Context, h *model.InventoryHold) error
	GetHeldByAppointment(ctx context.Context, appointmentID primitive.ObjectID) (*model.InventoryHold, error)
	SetStatus(ctx context.Context, holdID primitive.ObjectID, status string) error
}

type Service interface {
	HoldForQuote(ctx context.Context, appt *model.Appointment) (*model.InventoryHold, error)
	ConsumeForAppointment(ctx context.Context, appointmentID primitive.ObjectID) error
	ReleaseForAppointment(ctx context.Context, appointmentID primitive.ObjectID) error
}

type inventoryService struct {
	holds  HoldStore
	cfg    config.BookingConfig
	logger *slog.Logger
	now    func() time.Time
}

func New(holds HoldStore, cfg config.BookingConfig, logger *slog.Logger) Service {
	return &inventoryService{holds: holds, cfg: cfg, logger: logger, now: time.Now}
}

// HoldForQuote reserves the catalog parts referenced by the approved quote.
// Quote lines without a part id are free-form labor or consumables and are
// skipped. A quote referencing no parts places no hold.
func (s *inventoryService) HoldForQuote(ctx context.Context, appt *model.Appointment) (*model.InventoryHold, error) {
	if appt.InspectionAndQuote == nil || appt.InspectionAndQuote.QuoteDetails == nil {
		return nil, nil
	}

	var items []model.HoldItem
	for _, it := range appt.InspectionAndQuote.QuoteDetails.Items {
		if it.PartID == nil {
			continue
		}
		items = append(items, model.HoldItem{PartID: *it.PartID, Quantity: it.Quantity})
	}
	if len(items) == 0 {
		return nil, nil
	}

	hours := s.cfg.InventoryHoldHours
	if hours <= 0 {
		hours = 48
	}

	hold := &model.InventoryHold{
		AppointmentID:   appt.ID,
		ServiceCenterID: appt.ServiceCenterID,
		Items:           items,
		Source:          SourceApprovedQuote,
		Status:          HoldStatusHeld,
		ExpiresAt:       s.now().Add(time.Duration(hours) * time.Hour),
	}
	if err := s.holds.InsertHold(ctx, hold); err != nil {
		return nil, fmt.Errorf("insert hold: %w", err)
	}

	s.logger.Info("parts held for approved quote",
		slog.String("appointment_id", appt.ID.Hex()),
		slog.Int("parts", len(items)))
	return hold, nil
}

// ConsumeForAppointment marks the active hold consumed once the work is done.
// Having no hold is normal for labor-only quotes.
func (s *inventoryService) ConsumeForAppointment(ctx context.Context, appointmentID primitive.ObjectID) error {
	hold, err := s.holds.GetHeldByAppointment(ctx, appointmentID)
	if err != nil {
		return nil
	}
	return s.holds.SetStatus(ctx, hold.ID, HoldStatusConsumed)
}

// ReleaseForAppointment frees the reservation, used when a booking is
// cancelled after quote approval.
func (s *inventoryService) ReleaseForAppointment(ctx context.Context, appointmentID primitive.ObjectID) error {
	hold, err := s.holds.GetHeldByAppointment(ctx, appointmentID)
	if err != nil {
		return ErrNoHold
	}
	return s.holds.SetStatus(ctx, hold.ID, HoldStatusReleased)
}
