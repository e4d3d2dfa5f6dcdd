package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Department groups laboratory services
type Department struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Location    string    `json:"location" db:"location"`
	Phone       string    `json:"phone" db:"phone"`
	Email       string    `json:"email" db:"email"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// SampleType is the specimen a service needs
type SampleType string

const (
	SampleBlood   SampleType = "blood"
	SampleUrine   SampleType = "urine"
	SampleStool   SampleType = "stool"
	SampleSaliva  SampleType = "saliva"
	SampleTissue  SampleType = "tissue"
	SampleImaging SampleType = "imaging"
	SampleOther   SampleType = "other"
)

// Service is a bookable laboratory test or procedure
type Service struct {
	ID                      string          `json:"id" db:"id"`
	Name                    string          `json:"name" db:"name"`
	DepartmentID            string          `json:"department_id" db:"department_id"`
	Description             string          `json:"description" db:"description"`
	Price                   decimal.Decimal `json:"price" db:"price"`
	DurationMinutes         int             `json:"duration_minutes" db:"duration_minutes"`
	SampleType              SampleType      `json:"sample_type" db:"sample_type"`
	RequiresFasting         bool            `json:"requires_fasting" db:"requires_fasting"`
	PreparationInstructions string          `json:"preparation_instructions" db:"preparation_instructions"`
	NormalRange             string          `json:"normal_range" db:"normal_range"`
	IsAvailable             bool            `json:"is_available" db:"is_available"`
	CreatedAt               time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at" db:"updated_at"`
}

// DepartmentRequest creates a department
type DepartmentRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	Location    string `json:"location" validate:"max=200"`
	Phone       string `json:"phone" validate:"max=20"`
	Email       string `json:"email" validate:"omitempty,email"`
}

// ServiceRequest creates a service
type ServiceRequest struct {
	Name                    string          `json:"name" validate:"required,max=200"`
	DepartmentID            string          `json:"department_id" validate:"required"`
	Description             string          `json:"description"`
	Price                   decimal.Decimal `json:"price"`
	DurationMinutes         int             `json:"duration_minutes" validate:"required,gt=0"`
	SampleType              SampleType      `json:"sample_type" validate:"omitempty,oneof=blood urine stool saliva tissue imaging other"`
	RequiresFasting         bool            `json:"requires_fasting"`
	PreparationInstructions string          `json:"preparation_instructions"`
	NormalRange             string          `json:"normal_range"`
	IsAvailable             *bool           `json:"is_available"`
}

// ServiceUpdates represents staff edits to a service. Name and department
// are not editable here.
type ServiceUpdates struct {
	Description             *string          `json:"description,omitempty"`
	Price                   *decimal.Decimal `json:"price,omitempty"`
	DurationMinutes         *int             `json:"duration_minutes,omitempty" validate:"omitempty,gt=0"`
	SampleType              *SampleType      `json:"sample_type,omitempty" validate:"omitempty,oneof=blood urine stool saliva tissue imaging other"`
	RequiresFasting         *bool            `json:"requires_fasting,omitempty"`
	PreparationInstructions *string          `json:"preparation_instructions,omitempty"`
	NormalRange             *string          `json:"normal_range,omitempty"`
	IsAvailable             *bool            `json:"is_available,omitempty"`
}

// ServiceFilters narrows catalog listings
type ServiceFilters struct {
	DepartmentID  string `json:"department_id,omitempty"`
	AvailableOnly bool   `json:"available_only,omitempty"`
}
