package pasetotoken

import (
	"time"
)

// Role identifies what a token holder is allowed to do on the platform.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleStaff      Role = "staff"
	RoleTechnician Role = "technician"
	RoleAdmin      Role = "admin"
)

// IsStaff reports whether the role may perform service-center actions.
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

// Claims is the app-facing token payload.
type Claims struct {
	UserID string
	Role   Role
	Email  string

	Issuer   string
	Audience string

	IssuedAt  time.Time
	NotBefore time.Time
	ExpiresAt time.Time
	TokenID   string // jti
	Subject   string
}
