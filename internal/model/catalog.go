package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServiceCenter is reference data consumed by the lifecycle: operating hours,
// status and staff roster.
type ServiceCenter struct {
	ID             primitive.ObjectID       `bson:"_id,omitempty" json:"id"`
	Name           string                   `bson:"name" json:"name"`
	Address        string                   `bson:"address,omitempty" json:"address,omitempty"`
	Status         string                   `bson:"status" json:"status"` // active | inactive
	OperatingHours map[string]OperatingHour `bson:"operatingHours,omitempty" json:"operatingHours,omitempty"`
	Staff          []StaffMember            `bson:"staff,omitempty" json:"staff,omitempty"`
}

// OperatingHour is one weekday's opening window, "HH:MM" local time.
type OperatingHour struct {
	Open   string `bson:"open" json:"open"`
	Close  string `bson:"close" json:"close"`
	Closed bool   `bson:"closed,omitempty" json:"closed,omitempty"`
}

type StaffMember struct {
	UserID   primitive.ObjectID `bson:"userId" json:"userId"`
	Name     string             `bson:"name" json:"name"`
	Role     string             `bson:"role" json:"role"` // technician | staff | manager
	IsActive bool               `bson:"isActive" json:"isActive"`
}

// IsActive reports whether the center accepts bookings.
func (c *ServiceCenter) IsActive() bool {
	return c.Status == "active"
}

// ActiveTechnicians returns the staff with role technician still active.
func (c *ServiceCenter) ActiveTechnicians() []StaffMember {
	var out []StaffMember
	for _, s := range c.Staff {
		if s.IsActive && s.Role == "technician" {
			out = append(out, s)
		}
	}
	return out
}

// HoursFor resolves the operating window for a weekday. Day keys are matched
// case-insensitively across short and long English day names, so documents
// configured with "mon", "Mon" or "Monday" all resolve.
func (c *ServiceCenter) HoursFor(day time.Weekday) (OperatingHour, bool) {
	long := strings.ToLower(day.String()) // "monday"
	short := long[:3]                     // "mon"

	for key, h := range c.OperatingHours {
		k := strings.ToLower(strings.TrimSpace(key))
		if k == long || k == short {
			if h.Closed || h.Open == "" || h.Close == "" {
				return OperatingHour{}, false
			}
			return h, true
		}
	}
	return OperatingHour{}, false
}

// ServiceType is catalog pricing and duration reference data.
type ServiceType struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	BasePrice       int64              `bson:"basePrice" json:"basePrice"`
	DurationMinutes int                `bson:"durationMinutes" json:"durationMinutes"`
	RequiredTechs   int                `bson:"requiredTechnicians,omitempty" json:"requiredTechnicians,omitempty"`
	IsActive        bool               `bson:"isActive" json:"isActive"`
}

// ServicePackage is a catalog subscription offer.
type ServicePackage struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name                string               `bson:"name" json:"name"`
	Price               int64                `bson:"price" json:"price"`
	DurationMonths      int                  `bson:"durationMonths" json:"durationMonths"`
	MaxServicesPerMonth int                  `bson:"maxServicesPerMonth" json:"maxServicesPerMonth"`
	IncludedServices    []primitive.ObjectID `bson:"includedServices,omitempty" json:"includedServices,omitempty"`
	IsActive            bool                 `bson:"isActive" json:"isActive"`
}

// Includes reports whether a concrete service type is covered by the package.
func (p *ServicePackage) Includes(serviceTypeID primitive.ObjectID) bool {
	for _, id := range p.IncludedServices {
		if id == serviceTypeID {
			return true
		}
	}
	return false
}

// Customer is the account holder contact record, read for notifications.
type Customer struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
	Phone string             `bson:"phone,omitempty" json:"phone,omitempty"`
}

// Vehicle is the customer's registered vehicle.
type Vehicle struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerID   primitive.ObjectID `bson:"customerId" json:"customerId"`
	ModelName    string             `bson:"modelName" json:"modelName"`
	LicensePlate string             `bson:"licensePlate" json:"licensePlate"`
	VIN          string             `bson:"vin,omitempty" json:"vin,omitempty"`
}

// Part is inventory reference data named by quote line items.
type Part struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	UnitPrice int64              `bson:"unitPrice" json:"unitPrice"`
	Stock     int64              `bson:"stock" json:"stock"`
}
