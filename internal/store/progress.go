package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/evcare-vn/evcare_backend/internal/model"
)

// ProgressStore persists work progress records, one per appointment.
type ProgressStore struct {
	coll *mongo.Collection
}

func NewProgressStore(db *mongo.Database) *ProgressStore {
	return &ProgressStore{coll: db.Collection(CollWorkProgress)}
}

func (s *ProgressStore) Insert(ctx context.Context, w *model.WorkProgress) error {
	now := time.Now()
	w.CreatedAt = now
	w.UpdatedAt = now
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, w)
	return err
}

func (s *ProgressStore) GetByAppointment(ctx context.Context, appointmentID primitive.ObjectID) (*model.WorkProgress, error) {
	var w model.WorkProgress
	if err := s.coll.FindOne(ctx, bson.M{"appointmentId": appointmentID}).Decode(&w); err != nil {
		return nil, mapErr(err)
	}
	return &w, nil
}

func (s *ProgressStore) Update(ctx context.Context, w *model.WorkProgress) error {
	w.UpdatedAt = time.Now()
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": w.ID}, w)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
