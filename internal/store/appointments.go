package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/evcare-vn/evcare_backend/internal/model"
)

// AppointmentStore persists the central lifecycle documents.
type AppointmentStore struct {
	coll *mongo.Collection
}

func NewAppointmentStore(db *mongo.Database) *AppointmentStore {
	return &AppointmentStore{coll: db.Collection(CollAppointments)}
}

func (s *AppointmentStore) Insert(ctx context.Context, a *model.Appointment) error {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, a)
	return err
}

func (s *AppointmentStore) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Appointment, error) {
	var a model.Appointment
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

// Update replaces the full document. Callers mutate an Appointment loaded in
// the same request; there is no concurrent writer for one appointment in the
// flows exposed by the API.
func (s *AppointmentStore) Update(ctx context.Context, a *model.Appointment) error {
	a.UpdatedAt = time.Now()
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByCenterAndDate returns the appointments of one center on one calendar
// day, restricted to the given statuses. Slot search passes the statuses that
// count as occupancy so cancelled and no-show bookings never block a slot.
func (s *AppointmentStore) ListByCenterAndDate(ctx context.Context, centerID primitive.ObjectID, day time.Time, statuses []model.AppointmentStatus) ([]*model.Appointment, error) {
	start, end := DayRange(day)
	filter := bson.M{
		"serviceCenterId": centerID,
		"appointmentDate": bson.M{"$gte": start, "$lt": end},
	}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var out []*model.Appointment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByCustomer returns a customer's appointments, newest first, optionally
// filtered to one status.
func (s *AppointmentStore) ListByCustomer(ctx context.Context, customerID primitive.ObjectID, status model.AppointmentStatus, limit int64) ([]*model.Appointment, error) {
	filter := bson.M{"customerId": customerID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var out []*model.Appointment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByStatus returns all appointments in one status, used by the reminder
// worker to scan upcoming confirmed bookings.
func (s *AppointmentStore) ListByStatus(ctx context.Context, status model.AppointmentStatus, from, to time.Time) ([]*model.Appointment, error) {
	filter := bson.M{
		"status":          status,
		"appointmentDate": bson.M{"$gte": from, "$lt": to},
	}
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var out []*model.Appointment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
