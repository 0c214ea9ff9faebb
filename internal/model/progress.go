package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgressStatus tracks the execution of a maintenance job.
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
)

// WorkProgress is the technician-facing record for one appointment's job.
type WorkProgress struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	AppointmentID primitive.ObjectID  `bson:"appointmentId" json:"appointmentId"`
	TechnicianID  *primitive.ObjectID `bson:"technicianId,omitempty" json:"technicianId,omitempty"`

	Status     ProgressStatus `bson:"status" json:"status"`
	Percentage int            `bson:"percentage" json:"percentage"`
	Notes      string         `bson:"notes,omitempty" json:"notes,omitempty"`

	StartedAt   *time.Time `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
}
