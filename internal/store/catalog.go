package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/evcare-vn/evcare_backend/internal/model"
)

// CatalogStore reads reference data: centers, service types, catalog packages,
// vehicles and parts. The lifecycle only reads this data; administration of
// the catalog lives outside this service.
type CatalogStore struct {
	centers   *mongo.Collection
	types     *mongo.Collection
	packages  *mongo.Collection
	vehicles  *mongo.Collection
	parts     *mongo.Collection
	customers *mongo.Collection
}

func NewCatalogStore(db *mongo.Database) *CatalogStore {
	return &CatalogStore{
		centers:   db.Collection(CollServiceCenters),
		types:     db.Collection(CollServiceTypes),
		packages:  db.Collection(CollServicePackages),
		vehicles:  db.Collection(CollVehicles),
		parts:     db.Collection(CollParts),
		customers: db.Collection(CollCustomers),
	}
}

func (s *CatalogStore) GetServiceCenter(ctx context.Context, id primitive.ObjectID) (*model.ServiceCenter, error) {
	var c model.ServiceCenter
	if err := s.centers.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (s *CatalogStore) GetServiceType(ctx context.Context, id primitive.ObjectID) (*model.ServiceType, error) {
	var t model.ServiceType
	if err := s.types.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (s *CatalogStore) GetServicePackage(ctx context.Context, id primitive.ObjectID) (*model.ServicePackage, error) {
	var p model.ServicePackage
	if err := s.packages.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *CatalogStore) GetVehicle(ctx context.Context, id primitive.ObjectID) (*model.Vehicle, error) {
	var v model.Vehicle
	if err := s.vehicles.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		return nil, mapErr(err)
	}
	return &v, nil
}

func (s *CatalogStore) GetCustomer(ctx context.Context, id primitive.ObjectID) (*model.Customer, error) {
	var c model.Customer
	if err := s.customers.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (s *CatalogStore) GetPart(ctx context.Context, id primitive.ObjectID) (*model.Part, error) {
	var p model.Part
	if err := s.parts.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}
