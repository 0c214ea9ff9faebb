// Package store implements document-store access, one store per aggregate.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a referenced document is absent.
var ErrNotFound = errors.New("document not found")

// ErrDuplicateOrderCode is returned when a payment insert collides with the
// unique order-code index. Callers regenerate the code and retry.
var ErrDuplicateOrderCode = errors.New("order code already in use")

// Collection names.
const (
	CollAppointments     = "appointments"
	CollPayments         = "payments"
	CollCustomerPackages = "customer_packages"
	CollServiceCenters   = "service_centers"
	CollServiceTypes     = "service_types"
	CollServicePackages  = "service_packages"
	CollVehicles         = "vehicles"
	CollSchedules        = "technician_schedules"
	CollWorkProgress     = "work_progress"
	CollInventoryHolds   = "inventory_holds"
	CollInvoices         = "invoices"
	CollParts            = "parts"
	CollCustomers        = "users"
)

// IsDuplicateKey reports whether an insert hit a unique index.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

func mapErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// EnsureIndexes creates the indexes the lifecycle relies on: the unique
// payment order code, the center+date appointment lookup and the technician
// day schedule lookup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CollPayments).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "orderCode", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(CollAppointments).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "serviceCenterId", Value: 1}, {Key: "appointmentDate", Value: 1}}},
		{Keys: bson.D{{Key: "customerId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(CollSchedules).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "technicianId", Value: 1}, {Key: "workDate", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(CollInventoryHolds).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	return err
}

// DayRange returns the [start, end) window covering a calendar day in UTC,
// used for date-equality queries on bson date fields.
func DayRange(day time.Time) (time.Time, time.Time) {
	y, m, d := day.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
