package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/evcare-vn/evcare_backend/internal/model"
)

// InventoryStore persists part reservations made against approved quotes.
type InventoryStore struct {
	coll *mongo.Collection
}

func NewInventoryStore(db *mongo.Database) *InventoryStore {
	return &InventoryStore{coll: db.Collection(CollInventoryHolds)}
}

func (s *InventoryStore) InsertHold(ctx context.Context, h *model.InventoryHold) error {
	h.CreatedAt = time.Now()
	if h.ID.IsZero() {
		h.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, h)
	return err
}

func (s *InventoryStore) GetHeldByAppointment(ctx context.Context, appointmentID primitive.ObjectID) (*model.InventoryHold, error) {
	var h model.InventoryHold
	err := s.coll.FindOne(ctx, bson.M{
		"appointmentId": appointmentID,
		"status":        "held",
	}).Decode(&h)
	if err != nil {
		return nil, mapErr(err)
	}
	return &h, nil
}

// SetStatus marks a hold released or consumed.
func (s *InventoryStore) SetStatus(ctx context.Context, holdID primitive.ObjectID, status string) error {
	res, err := s.coll.UpdateByID(ctx, holdID, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
