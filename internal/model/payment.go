package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentStatus is the state of one payment attempt against the gateway.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentExpired   PaymentStatus = "expired"
	PaymentRefunded  PaymentStatus = "refunded"
)

// IsFinal reports whether the status can no longer change through
// reconciliation. Expired is not final: a late webhook can still flip an
// expired record to paid if the gateway says so.
func (s PaymentStatus) IsFinal() bool {
	return s == PaymentPaid || s == PaymentCancelled || s == PaymentRefunded
}

// Payment is one payment attempt. A new record is created per attempt; the
// order code is unique across the collection.
type Payment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AppointmentID primitive.ObjectID `bson:"appointmentId" json:"appointmentId"`
	CustomerID    primitive.ObjectID `bson:"customerId" json:"customerId"`

	OrderCode   int64  `bson:"orderCode" json:"orderCode"`
	Amount      int64  `bson:"amount" json:"amount"`
	Currency    string `bson:"currency" json:"currency"`
	Description string `bson:"description" json:"description"`

	PaymentLinkID string `bson:"paymentLinkId,omitempty" json:"paymentLinkId,omitempty"`
	CheckoutURL   string `bson:"checkoutUrl,omitempty" json:"checkoutUrl,omitempty"`
	QRCode        string `bson:"qrCode,omitempty" json:"qrCode,omitempty"`
	DeepLink      string `bson:"deepLink,omitempty" json:"deepLink,omitempty"`

	Status          PaymentStatus `bson:"status" json:"status"`
	TransactionID   string        `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	TransactionTime *time.Time    `bson:"transactionTime,omitempty" json:"transactionTime,omitempty"`

	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsExpired reports whether a pending payment is past its expiry window and
// must be reconciled against the gateway rather than trusted.
func (p *Payment) IsExpired(now time.Time) bool {
	return p.Status == PaymentPending && now.After(p.ExpiresAt)
}
