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

// PaymentStore persists payment attempts. Order codes are guarded by a unique
// index; Insert surfaces the duplicate key error so the caller can regenerate.
type PaymentStore struct {
	coll *mongo.Collection
}

func NewPaymentStore(db *mongo.Database) *PaymentStore {
	return &PaymentStore{coll: db.Collection(CollPayments)}
}

func (s *PaymentStore) Insert(ctx context.Context, p *model.Payment) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, p)
	if IsDuplicateKey(err) {
		return ErrDuplicateOrderCode
	}
	return err
}

func (s *PaymentStore) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Payment, error) {
	var p model.Payment
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *PaymentStore) GetByOrderCode(ctx context.Context, orderCode int64) (*model.Payment, error) {
	var p model.Payment
	if err := s.coll.FindOne(ctx, bson.M{"orderCode": orderCode}).Decode(&p); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *PaymentStore) Update(ctx context.Context, p *model.Payment) error {
	p.UpdatedAt = time.Now()
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindActiveByAppointment returns the newest pending or paid payment for an
// appointment, or ErrNotFound. At most one such record should exist at a time.
func (s *PaymentStore) FindActiveByAppointment(ctx context.Context, appointmentID primitive.ObjectID) (*model.Payment, error) {
	filter := bson.M{
		"appointmentId": appointmentID,
		"status":        bson.M{"$in": []model.PaymentStatus{model.PaymentPending, model.PaymentPaid}},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	var p model.Payment
	if err := s.coll.FindOne(ctx, filter, opts).Decode(&p); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

// ListPendingExpiredBefore returns pending payments whose expiry passed, for
// the reconciliation sweep.
func (s *PaymentStore) ListPendingExpiredBefore(ctx context.Context, cutoff time.Time) ([]*model.Payment, error) {
	cur, err := s.coll.Find(ctx, bson.M{
		"status":    model.PaymentPending,
		"expiresAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return nil, err
	}
	var out []*model.Payment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
