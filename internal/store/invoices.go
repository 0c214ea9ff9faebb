package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/evcare-vn/evcare_backend/internal/model"
)

// InvoiceStore persists invoices issued on completed maintenance.
type InvoiceStore struct {
	coll *mongo.Collection
}

func NewInvoiceStore(db *mongo.Database) *InvoiceStore {
	return &InvoiceStore{coll: db.Collection(CollInvoices)}
}

func (s *InvoiceStore) Insert(ctx context.Context, inv *model.Invoice) error {
	if inv.ID.IsZero() {
		inv.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, inv)
	return err
}

func (s *InvoiceStore) GetByAppointment(ctx context.Context, appointmentID primitive.ObjectID) (*model.Invoice, error) {
	var inv model.Invoice
	if err := s.coll.FindOne(ctx, bson.M{"appointmentId": appointmentID}).Decode(&inv); err != nil {
		return nil, mapErr(err)
	}
	return &inv, nil
}

func (s *InvoiceStore) ListByCustomer(ctx context.Context, customerID primitive.ObjectID) ([]*model.Invoice, error) {
	cur, err := s.coll.Find(ctx, bson.M{"customerId": customerID})
	if err != nil {
		return nil, err
	}
	var out []*model.Invoice
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
