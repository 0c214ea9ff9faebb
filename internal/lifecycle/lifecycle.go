// Package lifecycle owns the appointment state machine. Every status change
// in the platform goes through CanTransition, so the allowed edges live in
// one table instead of per-operation guard code. This is also the single
// place a technician-conflict precondition would be added once the intended
// assignment workflow is settled.
package lifecycle

import (
	"fmt"

	"github.com/evcare-vn/evcare_backend/internal/model"
)

// transitions maps each state to the states it may move to. A state missing
// from the map is terminal.
var transitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.StatusPendingConfirmation: {
		model.StatusConfirmed,
		model.StatusCancelled,
		model.StatusNoShow,
	},
	model.StatusConfirmed: {
		model.StatusInProgress,
		model.StatusInspectionCompleted,
		model.StatusQuoteProvided,
		model.StatusCancelled,
		model.StatusNoShow,
	},
	model.StatusInProgress: {
		model.StatusInspectionCompleted,
		model.StatusQuoteProvided,
		model.StatusCancelled,
	},
	model.StatusInspectionCompleted: {
		model.StatusQuoteProvided,
		model.StatusCompleted,
		model.StatusCancelled,
	},
	model.StatusQuoteProvided: {
		model.StatusQuoteApproved,
		model.StatusQuoteRejected,
		model.StatusCancelled,
	},
	model.StatusQuoteApproved: {
		model.StatusMaintenanceInProgress,
		model.StatusCancelled,
	},
	model.StatusQuoteRejected: {
		// A rejected quote requires a new inspection cycle before any
		// further paid work; only cancellation moves it forward.
		model.StatusCancelled,
	},
	model.StatusMaintenanceInProgress: {
		model.StatusMaintenanceCompleted,
	},
	model.StatusMaintenanceCompleted: {
		model.StatusPaymentPending,
		model.StatusCompleted,
	},
	model.StatusPaymentPending: {
		model.StatusCompleted,
	},
}

// CanTransition reports whether the edge from -> to exists in the table.
func CanTransition(from, to model.AppointmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Next returns the states reachable from the given state.
func Next(from model.AppointmentStatus) []model.AppointmentStatus {
	out := make([]model.AppointmentStatus, len(transitions[from]))
	copy(out, transitions[from])
	return out
}

// IsTerminal reports whether no further transition is possible.
func IsTerminal(s model.AppointmentStatus) bool {
	return len(transitions[s]) == 0
}

// Cancellable reports whether the appointment may still be cancelled.
// Completion is the point of no return.
func Cancellable(s model.AppointmentStatus) bool {
	return s != model.StatusCompleted && CanTransition(s, model.StatusCancelled)
}

// Reschedulable reports whether a reschedule (which resets the appointment to
// pending_confirmation) is allowed from this state. Deliberately narrower
// than cancellation: once work has started the slot is spent.
func Reschedulable(s model.AppointmentStatus) bool {
	return s == model.StatusPendingConfirmation || s == model.StatusConfirmed
}

// Transition validates and applies a status change on the appointment,
// appending a history entry. The caller persists the document.
func Transition(appt *model.Appointment, to model.AppointmentStatus, entry model.StatusHistoryEntry) error {
	from := appt.Status
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	entry.From = from
	entry.To = to
	appt.StatusHistory = append(appt.StatusHistory, entry)
	appt.Status = to
	return nil
}

// InvalidTransitionError reports a rejected state change.
type InvalidTransitionError struct {
	From model.AppointmentStatus
	To   model.AppointmentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid appointment transition %s -> %s", e.From, e.To)
}
