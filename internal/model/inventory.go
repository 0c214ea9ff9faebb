package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InventoryHold reserves parts stock against an approved quote. Holds carry
// an expiry; the reservation subsystem releases expired holds.
type InventoryHold struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AppointmentID   primitive.ObjectID `bson:"appointmentId" json:"appointmentId"`
	ServiceCenterID primitive.ObjectID `bson:"serviceCenterId" json:"serviceCenterId"`
	Items           []HoldItem         `bson:"items" json:"items"`
	Source          string             `bson:"source" json:"source"` // e.g. "approved_quote"
	Status          string             `bson:"status" json:"status"` // held | released | consumed
	ExpiresAt       time.Time          `bson:"expiresAt" json:"expiresAt"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

type HoldItem struct {
	PartID   primitive.ObjectID `bson:"partId" json:"partId"`
	Quantity int64              `bson:"quantity" json:"quantity"`
}
