package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TechnicianAvailability tracks whether a technician can take work that day.
type TechnicianAvailability string

const (
	TechnicianAvailable   TechnicianAvailability = "available"
	TechnicianBusy        TechnicianAvailability = "busy"
	TechnicianUnavailable TechnicianAvailability = "unavailable"
)

// TechnicianSchedule is one technician's day: shift window, availability and
// the appointments attached to it. Availability flips to busy when an
// appointment is attached and back to available when its work completes.
type TechnicianSchedule struct {
	ID              primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	TechnicianID    primitive.ObjectID     `bson:"technicianId" json:"technicianId"`
	ServiceCenterID primitive.ObjectID     `bson:"serviceCenterId" json:"serviceCenterId"`
	WorkDate        time.Time              `bson:"workDate" json:"workDate"`
	ShiftStart      string                 `bson:"shiftStart" json:"shiftStart"` // "HH:MM"
	ShiftEnd        string                 `bson:"shiftEnd" json:"shiftEnd"`     // "HH:MM"
	Status          string                 `bson:"status" json:"status"`         // scheduled | working | off
	Availability    TechnicianAvailability `bson:"availability" json:"availability"`
	AppointmentIDs  []primitive.ObjectID   `bson:"appointmentIds,omitempty" json:"appointmentIds,omitempty"`
	UpdatedAt       time.Time              `bson:"updatedAt" json:"updatedAt"`
}
