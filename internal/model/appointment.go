package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AppointmentStatus is the primary state variable of the lifecycle.
type AppointmentStatus string

const (
	StatusPendingConfirmation   AppointmentStatus = "pending_confirmation"
	StatusConfirmed             AppointmentStatus = "confirmed"
	StatusInProgress            AppointmentStatus = "in_progress"
	StatusInspectionCompleted   AppointmentStatus = "inspection_completed"
	StatusQuoteProvided         AppointmentStatus = "quote_provided"
	StatusQuoteApproved         AppointmentStatus = "quote_approved"
	StatusQuoteRejected         AppointmentStatus = "quote_rejected"
	StatusMaintenanceInProgress AppointmentStatus = "maintenance_in_progress"
	StatusMaintenanceCompleted  AppointmentStatus = "maintenance_completed"
	StatusPaymentPending        AppointmentStatus = "payment_pending"
	StatusCompleted             AppointmentStatus = "completed"
	StatusCancelled             AppointmentStatus = "cancelled"
	StatusRescheduled           AppointmentStatus = "rescheduled"
	StatusNoShow                AppointmentStatus = "no_show"
)

// PaymentMethod is how the customer settles a charge.
type PaymentMethod string

const (
	MethodCash        PaymentMethod = "cash"
	MethodCard        PaymentMethod = "card"
	MethodBanking     PaymentMethod = "banking"
	MethodEwallet     PaymentMethod = "ewallet"
	MethodNotRequired PaymentMethod = "not_required"
)

// AppointmentPaymentStatus tracks settlement on the appointment itself.
type AppointmentPaymentStatus string

const (
	AppointmentPaymentPending  AppointmentPaymentStatus = "pending"
	AppointmentPaymentPaid     AppointmentPaymentStatus = "paid"
	AppointmentPaymentFailed   AppointmentPaymentStatus = "failed"
	AppointmentPaymentRefunded AppointmentPaymentStatus = "refunded"
)

// QuoteStatus is the customer's standing response to a provided quote.
type QuoteStatus string

const (
	QuotePending  QuoteStatus = "pending"
	QuoteApproved QuoteStatus = "approved"
	QuoteRejected QuoteStatus = "rejected"
)

// Appointment is the central lifecycle document.
type Appointment struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CustomerID      primitive.ObjectID  `bson:"customerId" json:"customerId"`
	VehicleID       primitive.ObjectID  `bson:"vehicleId" json:"vehicleId"`
	ServiceCenterID primitive.ObjectID  `bson:"serviceCenterId" json:"serviceCenterId"`
	ServiceTypeID   *primitive.ObjectID `bson:"serviceTypeId,omitempty" json:"serviceTypeId,omitempty"`
	TechnicianID    *primitive.ObjectID `bson:"technicianId,omitempty" json:"technicianId,omitempty"`

	AppointmentDate time.Time `bson:"appointmentDate" json:"appointmentDate"`
	StartTime       string    `bson:"startTime" json:"startTime"` // "HH:MM"
	EndTime         string    `bson:"endTime" json:"endTime"`     // "HH:MM"
	DurationMinutes int       `bson:"durationMinutes" json:"durationMinutes"`

	Status        AppointmentStatus    `bson:"status" json:"status"`
	StatusHistory []StatusHistoryEntry `bson:"statusHistory,omitempty" json:"statusHistory,omitempty"`

	ServiceDetails     ServiceDetails      `bson:"serviceDetails" json:"serviceDetails"`
	InspectionAndQuote *InspectionAndQuote `bson:"inspectionAndQuote,omitempty" json:"inspectionAndQuote,omitempty"`
	Payment            AppointmentPayment  `bson:"payment" json:"payment"`

	Confirmation *ConfirmationRecord `bson:"confirmation,omitempty" json:"confirmation,omitempty"`
	Cancellation *CancellationRecord `bson:"cancellation,omitempty" json:"cancellation,omitempty"`
	Rescheduling *ReschedulingRecord `bson:"rescheduling,omitempty" json:"rescheduling,omitempty"`
	Completion   *CompletionRecord   `bson:"completion,omitempty" json:"completion,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// StatusHistoryEntry records one transition, appended on every status change.
type StatusHistoryEntry struct {
	From      AppointmentStatus  `bson:"from" json:"from"`
	To        AppointmentStatus  `bson:"to" json:"to"`
	ChangedBy primitive.ObjectID `bson:"changedBy,omitempty" json:"changedBy,omitempty"`
	Reason    string             `bson:"reason,omitempty" json:"reason,omitempty"`
	ChangedAt time.Time          `bson:"changedAt" json:"changedAt"`
}

type ServiceDetails struct {
	Description       string              `bson:"description,omitempty" json:"description,omitempty"`
	EstimatedCost     int64               `bson:"estimatedCost" json:"estimatedCost"`
	ActualCost        int64               `bson:"actualCost,omitempty" json:"actualCost,omitempty"`
	IsInspectionOnly  bool                `bson:"isInspectionOnly" json:"isInspectionOnly"`
	IsFromPackage     bool                `bson:"isFromPackage" json:"isFromPackage"`
	CustomerPackageID *primitive.ObjectID `bson:"customerPackageId,omitempty" json:"customerPackageId,omitempty"`
}

type InspectionAndQuote struct {
	InspectionNotes  string        `bson:"inspectionNotes,omitempty" json:"inspectionNotes,omitempty"`
	VehicleCondition string        `bson:"vehicleCondition" json:"vehicleCondition"`
	DiagnosisDetails string        `bson:"diagnosisDetails" json:"diagnosisDetails"`
	QuoteAmount      int64         `bson:"quoteAmount" json:"quoteAmount"`
	QuoteDetails     *QuoteDetails `bson:"quoteDetails,omitempty" json:"quoteDetails,omitempty"`
	QuoteStatus      QuoteStatus   `bson:"quoteStatus" json:"quoteStatus"`
	InspectedAt      time.Time     `bson:"inspectedAt" json:"inspectedAt"`
	RespondedAt      *time.Time    `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
	ResponseNote     string        `bson:"responseNote,omitempty" json:"responseNote,omitempty"`
}

type QuoteDetails struct {
	Items []QuoteItem `bson:"items" json:"items"`
	Labor *QuoteLabor `bson:"labor,omitempty" json:"labor,omitempty"`
}

type QuoteItem struct {
	PartID    *primitive.ObjectID `bson:"partId,omitempty" json:"partId,omitempty"`
	Name      string              `bson:"name" json:"name"`
	Quantity  int64               `bson:"quantity" json:"quantity"`
	UnitPrice int64               `bson:"unitPrice" json:"unitPrice"`
}

type QuoteLabor struct {
	Minutes int64 `bson:"minutes" json:"minutes"`
	Rate    int64 `bson:"rate" json:"rate"` // VND per hour
}

// DerivedAmount is the trusted quote total: parts plus labor. Labor is
// prorated per minute to avoid float arithmetic on money.
func (q *QuoteDetails) DerivedAmount() int64 {
	if q == nil {
		return 0
	}
	var total int64
	for _, it := range q.Items {
		total += it.Quantity * it.UnitPrice
	}
	if q.Labor != nil {
		total += q.Labor.Minutes * q.Labor.Rate / 60
	}
	return total
}

type AppointmentPayment struct {
	Method        PaymentMethod            `bson:"method" json:"method"`
	Status        AppointmentPaymentStatus `bson:"status" json:"status"`
	Amount        int64                    `bson:"amount" json:"amount"`
	PaidAt        *time.Time               `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	TransactionID string                   `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
}

type ConfirmationRecord struct {
	IsConfirmed bool               `bson:"isConfirmed" json:"isConfirmed"`
	ConfirmedAt time.Time          `bson:"confirmedAt" json:"confirmedAt"`
	ConfirmedBy primitive.ObjectID `bson:"confirmedBy" json:"confirmedBy"`
}

type CancellationRecord struct {
	IsCancelled bool               `bson:"isCancelled" json:"isCancelled"`
	CancelledAt time.Time          `bson:"cancelledAt" json:"cancelledAt"`
	CancelledBy primitive.ObjectID `bson:"cancelledBy" json:"cancelledBy"`
	Reason      string             `bson:"reason,omitempty" json:"reason,omitempty"`
}

type ReschedulingRecord struct {
	IsRescheduled bool              `bson:"isRescheduled" json:"isRescheduled"`
	History       []RescheduleEntry `bson:"history,omitempty" json:"history,omitempty"`
}

type RescheduleEntry struct {
	FromDate      time.Time          `bson:"fromDate" json:"fromDate"`
	FromStartTime string             `bson:"fromStartTime" json:"fromStartTime"`
	ToDate        time.Time          `bson:"toDate" json:"toDate"`
	ToStartTime   string             `bson:"toStartTime" json:"toStartTime"`
	RescheduledBy primitive.ObjectID `bson:"rescheduledBy" json:"rescheduledBy"`
	RescheduledAt time.Time          `bson:"rescheduledAt" json:"rescheduledAt"`
	Reason        string             `bson:"reason,omitempty" json:"reason,omitempty"`
}

type CompletionRecord struct {
	IsCompleted bool               `bson:"isCompleted" json:"isCompleted"`
	CompletedAt time.Time          `bson:"completedAt" json:"completedAt"`
	CompletedBy primitive.ObjectID `bson:"completedBy" json:"completedBy"`
	WorkDone    string             `bson:"workDone,omitempty" json:"workDone,omitempty"`
}
