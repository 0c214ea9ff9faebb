package booking

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/evcare-vn/evcare_backend/internal/model"
)

const minutesPerDay = 24 * 60

// occupancyStatuses are the appointment statuses that block a slot. Bookings
// that were cancelled, rescheduled away or marked no-show free their window.
var occupancyStatuses = []model.AppointmentStatus{
	model.StatusConfirmed,
	model.StatusInProgress,
}

type SlotRequest struct {
	ServiceCenterID primitive.ObjectID
	ServiceTypeID   *primitive.ObjectID
	Date            time.Time
}

// Slot is one offered booking window.
type Slot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// SlotResult lists the open windows plus the technicians nominally on the
// roster that day. Per-technician conflicts are not checked here; staff
// assign a technician after confirmation.
type SlotResult struct {
	Date            time.Time           `json:"date"`
	DurationMinutes int                 `json:"durationMinutes"`
	Slots           []Slot              `json:"slots"`
	Technicians     []model.StaffMember `json:"technicians"`
}

func (s *bookingService) GetAvailableSlots(ctx context.Context, req SlotRequest) (*SlotResult, error) {
	if req.Date.IsZero() {
		return nil, ErrMissingDate
	}

	center, err := s.catalog.GetServiceCenter(ctx, req.ServiceCenterID)
	if err != nil {
		return nil, ErrCenterNotFound
	}
	if !center.IsActive() {
		return nil, ErrCenterInactive
	}
	if len(center.OperatingHours) == 0 {
		return nil, ErrHoursNotConfigured
	}

	hours, open := center.HoursFor(req.Date.Weekday())
	if !open {
		return nil, ErrClosedOnDay
	}

	technicians := center.ActiveTechnicians()
	if len(technicians) == 0 {
		return nil, ErrNoTechnicians
	}

	duration := s.cfg.DefaultDurationMin
	if req.ServiceTypeID != nil {
		st, err := s.catalog.GetServiceType(ctx, *req.ServiceTypeID)
		if err != nil {
			return nil, ErrServiceTypeNotFound
		}
		if st.DurationMinutes > 0 {
			duration = st.DurationMinutes
		}
	}

	openMin, err := parseHHMM(hours.Open)
	if err != nil {
		return nil, ErrHoursNotConfigured
	}
	closeMin, err := parseHHMM(hours.Close)
	if err != nil {
		return nil, ErrHoursNotConfigured
	}

	existing, err := s.appts.ListByCenterAndDate(ctx, req.ServiceCenterID, req.Date, occupancyStatuses)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	type interval struct{ start, end int }
	booked := make([]interval, 0, len(existing))
	for _, a := range existing {
		st, err1 := parseHHMM(a.StartTime)
		en, err2 := parseHHMM(a.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		booked = append(booked, interval{st, en})
	}

	granularity := s.cfg.SlotGranularityMin
	if granularity <= 0 {
		granularity = 30
	}

	result := &SlotResult{
		Date:            req.Date,
		DurationMinutes: duration,
		Technicians:     technicians,
	}
	for start := openMin; start+duration <= closeMin; start += granularity {
		end := start + duration
		conflict := false
		for _, b := range booked {
			// Touching intervals do not conflict.
			if start < b.end && end > b.start {
				conflict = true
				break
			}
		}
		if !conflict {
			result.Slots = append(result.Slots, Slot{
				StartTime: formatHHMM(start),
				EndTime:   formatHHMM(end),
			})
		}
	}
	return result, nil
}

// parseHHMM converts "HH:MM" to minutes since midnight.
func parseHHMM(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatHHMM(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
