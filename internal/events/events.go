// Package events carries domain events from the services that commit state
// changes to the handlers that react to them (notifications, audit, mirror).
package events

import (
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// Event is a committed domain state change
type Event interface {
	EventName() string
}

// AppointmentBooked is published after a new appointment is persisted
type AppointmentBooked struct {
	Appointment *types.Appointment
	ActorID     string
}

// AppointmentStatusChanged is published after a staff status update
type AppointmentStatusChanged struct {
	Appointment *types.Appointment
	From        types.AppointmentStatus
	ActorID     string
}

// AppointmentCancelled is published after a cancellation
type AppointmentCancelled struct {
	Appointment *types.Appointment
	ActorID     string
}

// AppointmentAssigned is published when staff is assigned
type AppointmentAssigned struct {
	Appointment *types.Appointment
	ActorID     string
}

// PaymentRecorded is published after a payment row is created
type PaymentRecorded struct {
	Payment   *types.Payment
	PatientID string
	ActorID   string
}

// PaymentVerified is published when staff verifies a payment
type PaymentVerified struct {
	Payment   *types.Payment
	PatientID string
	ActorID   string
}

// ResultCreated is published when a result record is opened
type ResultCreated struct {
	Result  *types.TestResult
	ActorID string
}

// ResultUpdated is published when findings are attached
type ResultUpdated struct {
	Result  *types.TestResult
	ActorID string
}

// ResultAdvanced is published when a result moves to its next stage
type ResultAdvanced struct {
	Result  *types.TestResult
	From    types.ResultStatus
	ActorID string
}

// Released reports whether this advance released the result to the patient.
func (e ResultAdvanced) Released() bool {
	return e.Result.Status == types.ResultReleased
}

// CatalogChanged is published for department and service writes
type CatalogChanged struct {
	Entity   string
	EntityID string
	Action   types.AuditAction
	ActorID  string
	Changes  interface{}
}

// SettingChanged is published when an admin updates a setting
type SettingChanged struct {
	Setting *types.Setting
	ActorID string
}

// ProfileUpdated is published after a profile upsert
type ProfileUpdated struct {
	Profile *types.Profile
	ActorID string
}

// AppointmentsExported is published when staff export appointments
type AppointmentsExported struct {
	Format  string
	Count   int
	ActorID string
}

func (AppointmentBooked) EventName() string        { return "appointment.booked" }
func (AppointmentStatusChanged) EventName() string { return "appointment.status_changed" }
func (AppointmentCancelled) EventName() string     { return "appointment.cancelled" }
func (AppointmentAssigned) EventName() string      { return "appointment.assigned" }
func (PaymentRecorded) EventName() string          { return "payment.recorded" }
func (PaymentVerified) EventName() string          { return "payment.verified" }
func (ResultCreated) EventName() string            { return "result.created" }
func (ResultUpdated) EventName() string            { return "result.updated" }
func (ResultAdvanced) EventName() string           { return "result.advanced" }
func (CatalogChanged) EventName() string           { return "catalog.changed" }
func (SettingChanged) EventName() string           { return "setting.changed" }
func (ProfileUpdated) EventName() string           { return "profile.updated" }
func (AppointmentsExported) EventName() string     { return "appointment.exported" }
