package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invoice is generated when maintenance completes. Line items come from the
// approved quote; inspection-only jobs invoice the inspection fee.
type Invoice struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Number        string             `bson:"number" json:"number"`
	AppointmentID primitive.ObjectID `bson:"appointmentId" json:"appointmentId"`
	CustomerID    primitive.ObjectID `bson:"customerId" json:"customerId"`

	Items         []InvoiceItem `bson:"items" json:"items"`
	LaborTotal    int64         `bson:"laborTotal" json:"laborTotal"`
	Total         int64         `bson:"total" json:"total"`
	PaymentMethod PaymentMethod `bson:"paymentMethod" json:"paymentMethod"`

	IssuedAt time.Time `bson:"issuedAt" json:"issuedAt"`
}

type InvoiceItem struct {
	Name      string `bson:"name" json:"name"`
	Quantity  int64  `bson:"quantity" json:"quantity"`
	UnitPrice int64  `bson:"unitPrice" json:"unitPrice"`
	Subtotal  int64  `bson:"subtotal" json:"subtotal"`
}
