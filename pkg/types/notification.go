package types

import (
	"encoding/json"
	"time"
)

// NotificationType classifies user notifications
type NotificationType string

const (
	NotificationAppointmentBooked    NotificationType = "appointment_booked"
	NotificationAppointmentStatus    NotificationType = "appointment_status_changed"
	NotificationAppointmentCancelled NotificationType = "appointment_cancelled"
	NotificationPaymentRecorded      NotificationType = "payment_recorded"
	NotificationPaymentVerified      NotificationType = "payment_verified"
	NotificationResultReleased       NotificationType = "result_released"
)

// Notification is an in-app message for a user
type Notification struct {
	ID            string           `json:"id" db:"id"`
	UserID        string           `json:"user_id" db:"user_id"`
	Type          NotificationType `json:"type" db:"type"`
	Title         string           `json:"title" db:"title"`
	Message       string           `json:"message" db:"message"`
	AppointmentID string           `json:"appointment_id,omitempty" db:"appointment_id"`
	PaymentID     string           `json:"payment_id,omitempty" db:"payment_id"`
	IsRead        bool             `json:"is_read" db:"is_read"`
	ReadAt        *time.Time       `json:"read_at,omitempty" db:"read_at"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}

// AuditAction names what an actor did to an entity
type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
	AuditView   AuditAction = "view"
	AuditExport AuditAction = "export"
)

// AuditEntry is a persisted audit log row
type AuditEntry struct {
	ID        string          `json:"id" db:"id"`
	ActorID   string          `json:"actor_id" db:"actor_id"`
	Action    AuditAction     `json:"action" db:"action"`
	Entity    string          `json:"entity" db:"entity"`
	EntityID  string          `json:"entity_id" db:"entity_id"`
	Changes   json.RawMessage `json:"changes,omitempty" db:"changes"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// AuditFilters narrows audit log listings
type AuditFilters struct {
	ActorID  string `json:"actor_id,omitempty"`
	Entity   string `json:"entity,omitempty"`
	EntityID string `json:"entity_id,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// Setting is a system-wide key/value pair
type Setting struct {
	Key         string    `json:"key" db:"key"`
	Value       string    `json:"value" db:"value"`
	Description string    `json:"description" db:"description"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// SettingRequest updates a setting value
type SettingRequest struct {
	Value       string `json:"value" validate:"required,max=1000"`
	Description string `json:"description" validate:"max=500"`
}
