package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CustomerPackageStatus is the subscription instance state.
type CustomerPackageStatus string

const (
	PackageActive    CustomerPackageStatus = "active"
	PackageExpired   CustomerPackageStatus = "expired"
	PackageCancelled CustomerPackageStatus = "cancelled"
)

// CustomerPackage is an active subscription instance granting a quota of
// services, decremented once per consuming booking.
type CustomerPackage struct {
	ID               primitive.ObjectID    `bson:"_id,omitempty" json:"id"`
	CustomerID       primitive.ObjectID    `bson:"customerId" json:"customerId"`
	ServicePackageID primitive.ObjectID    `bson:"servicePackageId" json:"servicePackageId"`
	Status           CustomerPackageStatus `bson:"status" json:"status"`
	PaymentStatus    string                `bson:"paymentStatus" json:"paymentStatus"` // pending | paid

	RemainingServices int            `bson:"remainingServices" json:"remainingServices"`
	UsedServices      int            `bson:"usedServices" json:"usedServices"`
	UsageHistory      []PackageUsage `bson:"usageHistory,omitempty" json:"usageHistory,omitempty"`

	StartDate time.Time `bson:"startDate" json:"startDate"`
	EndDate   time.Time `bson:"endDate" json:"endDate"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PackageUsage records one consumed service, referencing the booking that
// consumed it.
type PackageUsage struct {
	AppointmentID primitive.ObjectID  `bson:"appointmentId" json:"appointmentId"`
	ServiceTypeID *primitive.ObjectID `bson:"serviceTypeId,omitempty" json:"serviceTypeId,omitempty"`
	UsedAt        time.Time           `bson:"usedAt" json:"usedAt"`
}
