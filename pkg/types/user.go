package types

import (
	"fmt"
	"time"
)

// UserRole represents the different user roles in the system
type UserRole string

const (
	RolePatient      UserRole = "patient"
	RoleTechnician   UserRole = "technician"
	RoleDoctor       UserRole = "doctor"
	RoleReceptionist UserRole = "receptionist"
	RoleAdmin        UserRole = "admin"
)

// ParseRole maps a claim value onto the closed role set.
func ParseRole(s string) (UserRole, error) {
	switch r := UserRole(s); r {
	case RolePatient, RoleTechnician, RoleDoctor, RoleReceptionist, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// IsStaff reports whether the role belongs to laboratory staff.
func (r UserRole) IsStaff() bool {
	switch r {
	case RoleTechnician, RoleDoctor, RoleReceptionist, RoleAdmin:
		return true
	case RolePatient:
		return false
	default:
		return false
	}
}

// UserClaims represents JWT token claims
type UserClaims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   UserRole
}

// ActorFromClaims builds an Actor from validated token claims.
func ActorFromClaims(c *UserClaims) Actor {
	return Actor{UserID: c.UserID, Role: c.Role}
}

// IsStaff reports whether the actor is staff.
func (a Actor) IsStaff() bool { return a.Role.IsStaff() }

// NotificationPreference is how a user prefers to be contacted.
type NotificationPreference string

const (
	PreferEmail NotificationPreference = "email"
	PreferSMS   NotificationPreference = "sms"
	PreferBoth  NotificationPreference = "both"
	PreferNone  NotificationPreference = "none"
)

// Valid reports whether p is a known preference.
func (p NotificationPreference) Valid() bool {
	switch p {
	case PreferEmail, PreferSMS, PreferBoth, PreferNone:
		return true
	}
	return false
}

// Profile holds display and contact data for a user.
type Profile struct {
	UserID                 string                 `json:"user_id" db:"user_id"`
	FullName               string                 `json:"full_name" db:"full_name"`
	Email                  string                 `json:"email" db:"email"`
	Phone                  string                 `json:"phone" db:"phone"`
	NotificationPreference NotificationPreference `json:"notification_preference" db:"notification_preference"`
	UpdatedAt              time.Time              `json:"updated_at" db:"updated_at"`
}

// ProfileUpdateRequest represents a profile upsert
type ProfileUpdateRequest struct {
	FullName               string                 `json:"full_name" validate:"required,max=200"`
	Email                  string                 `json:"email" validate:"omitempty,email"`
	Phone                  string                 `json:"phone" validate:"omitempty,max=20"`
	NotificationPreference NotificationPreference `json:"notification_preference" validate:"omitempty,oneof=email sms both none"`
}
