package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/evcare-vn/evcare_backend/internal/model"
)

// PackageStore persists customer subscription instances.
type PackageStore struct {
	coll *mongo.Collection
}

func NewPackageStore(db *mongo.Database) *PackageStore {
	return &PackageStore{coll: db.Collection(CollCustomerPackages)}
}

func (s *PackageStore) Insert(ctx context.Context, p *model.CustomerPackage) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, p)
	return err
}

func (s *PackageStore) GetByID(ctx context.Context, id primitive.ObjectID) (*model.CustomerPackage, error) {
	var p model.CustomerPackage
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *PackageStore) Update(ctx context.Context, p *model.CustomerPackage) error {
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

// FindActiveByCustomerAndPackage returns the customer's active paid instance
// of one catalog package, if any.
func (s *PackageStore) FindActiveByCustomerAndPackage(ctx context.Context, customerID, servicePackageID primitive.ObjectID) (*model.CustomerPackage, error) {
	var p model.CustomerPackage
	err := s.coll.FindOne(ctx, bson.M{
		"customerId":       customerID,
		"servicePackageId": servicePackageID,
		"status":           model.PackageActive,
	}).Decode(&p)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *PackageStore) ListByCustomer(ctx context.Context, customerID primitive.ObjectID) ([]*model.CustomerPackage, error) {
	cur, err := s.coll.Find(ctx, bson.M{"customerId": customerID})
	if err != nil {
		return nil, err
	}
	var out []*model.CustomerPackage
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
