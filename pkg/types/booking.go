package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Appointment represents a booked laboratory visit
type Appointment struct {
	ID                 string               `json:"id" db:"id"`
	Reference          string               `json:"reference" db:"reference"`
	PatientID          string               `json:"patient_id" db:"patient_id"`
	Services           []AppointmentService `json:"services"`
	ScheduledAt        time.Time            `json:"scheduled_at" db:"scheduled_at"`
	Status             AppointmentStatus    `json:"status" db:"status"`
	Priority           Priority             `json:"priority" db:"priority"`
	DiscountPolicy     DiscountPolicy       `json:"discount_policy" db:"discount_policy"`
	TotalAmount        decimal.Decimal      `json:"total_amount" db:"total_amount"`
	DiscountAmount     decimal.Decimal      `json:"discount_amount" db:"discount_amount"`
	FinalAmount        decimal.Decimal      `json:"final_amount" db:"final_amount"`
	HMOProvider        string               `json:"hmo_provider,omitempty" db:"hmo_provider"`
	HMOCardNumber      string               `json:"hmo_card_number,omitempty" db:"hmo_card_number"`
	Notes              string               `json:"notes" db:"notes"`
	AssignedStaffID    string               `json:"assigned_staff_id,omitempty" db:"assigned_staff_id"`
	CancellationReason string               `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CreatedAt          time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at" db:"updated_at"`
}

// ServiceIDs returns the ids of the booked services in booking order.
func (a *Appointment) ServiceIDs() []string {
	ids := make([]string, 0, len(a.Services))
	for _, s := range a.Services {
		ids = append(ids, s.ServiceID)
	}
	return ids
}

// AppointmentService is a booked service with its price at booking time
type AppointmentService struct {
	ServiceID   string          `json:"service_id" db:"service_id"`
	ServiceName string          `json:"service_name" db:"service_name"`
	Price       decimal.Decimal `json:"price" db:"price"`
}

// AppointmentStatus represents appointment status values
type AppointmentStatus string

const (
	StatusPending    AppointmentStatus = "pending"
	StatusConfirmed  AppointmentStatus = "confirmed"
	StatusInProgress AppointmentStatus = "in_progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
	StatusNoShow     AppointmentStatus = "no_show"
)

// Valid reports whether s is a known appointment status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Active reports whether the status occupies the patient's slot.
func (s AppointmentStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Priority represents how urgently an appointment should be handled
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// DiscountPolicy names a financial assistance category
type DiscountPolicy string

const (
	DiscountNone    DiscountPolicy = "none"
	DiscountHMO     DiscountPolicy = "hmo"
	DiscountSenior  DiscountPolicy = "senior"
	DiscountPWD     DiscountPolicy = "pwd"
	DiscountStudent DiscountPolicy = "student"
)

// DiscountPolicies lists every policy in display order.
var DiscountPolicies = []DiscountPolicy{DiscountNone, DiscountHMO, DiscountSenior, DiscountPWD, DiscountStudent}

// Valid reports whether p is a known policy.
func (p DiscountPolicy) Valid() bool {
	for _, known := range DiscountPolicies {
		if p == known {
			return true
		}
	}
	return false
}

// BookingRequest represents a patient's booking submission
type BookingRequest struct {
	PatientID      string         `json:"patient_id,omitempty"`
	ServiceIDs     []string       `json:"service_ids" validate:"required,min=1,dive,required"`
	Date           string         `json:"date" validate:"required,datetime=2006-01-02"`
	Time           string         `json:"time" validate:"required,datetime=15:04"`
	Notes          string         `json:"notes" validate:"max=1000"`
	DiscountPolicy DiscountPolicy `json:"discount_policy" validate:"omitempty,oneof=none hmo senior pwd student"`
	HMOProvider    string         `json:"hmo_provider" validate:"required_if=DiscountPolicy hmo,max=100"`
	HMOCardNumber  string         `json:"hmo_card_number" validate:"required_if=DiscountPolicy hmo,max=50"`
	Priority       Priority       `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
}

// QuoteRequest asks for a price without booking
type QuoteRequest struct {
	ServiceIDs     []string       `json:"service_ids" validate:"required,min=1,dive,required"`
	DiscountPolicy DiscountPolicy `json:"discount_policy" validate:"omitempty,oneof=none hmo senior pwd student"`
}

// Quote is the priced breakdown of a set of services
type Quote struct {
	Policy   DiscountPolicy  `json:"discount_policy"`
	Rate     decimal.Decimal `json:"rate"`
	Total    decimal.Decimal `json:"total_amount"`
	Discount decimal.Decimal `json:"discount_amount"`
	Final    decimal.Decimal `json:"final_amount"`
}

// AppointmentFilters represents filters for appointment queries
type AppointmentFilters struct {
	PatientID string            `json:"patient_id,omitempty"`
	Status    AppointmentStatus `json:"status,omitempty"`
	FromDate  time.Time         `json:"from_date,omitempty"`
	ToDate    time.Time         `json:"to_date,omitempty"`
	Limit     int               `json:"limit,omitempty"`
	Offset    int               `json:"offset,omitempty"`
}

// StatusUpdateRequest moves an appointment to a new status
type StatusUpdateRequest struct {
	Status AppointmentStatus `json:"status" validate:"required,oneof=pending confirmed in_progress completed cancelled no_show"`
}

// AssignRequest assigns a staff member to an appointment
type AssignRequest struct {
	StaffID string `json:"staff_id" validate:"required"`
}

// CancelRequest carries an optional cancellation reason
type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// DashboardStats aggregates appointment and revenue counters.
// Patient dashboards only fill the appointment counters.
type DashboardStats struct {
	TotalAppointments     int             `json:"total_appointments"`
	TodayAppointments     int             `json:"today_appointments"`
	PendingAppointments   int             `json:"pending_appointments"`
	CompletedAppointments int             `json:"completed_appointments"`
	TotalPatients         int             `json:"total_patients,omitempty"`
	MonthlyRevenue        decimal.Decimal `json:"monthly_revenue"`
}
