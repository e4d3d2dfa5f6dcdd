package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodEWallet      PaymentMethod = "e_wallet"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCard         PaymentMethod = "card"
	MethodInsurance    PaymentMethod = "insurance"
	MethodInstallment  PaymentMethod = "installment"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodEWallet, MethodBankTransfer, MethodCard, MethodInsurance, MethodInstallment:
		return true
	}
	return false
}

// Payment represents a recorded payment against an appointment
type Payment struct {
	ID              string          `json:"id" db:"id"`
	ReceiptNumber   string          `json:"receipt_number" db:"receipt_number"`
	AppointmentID   string          `json:"appointment_id" db:"appointment_id"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	Method          PaymentMethod   `json:"method" db:"method"`
	ReferenceNumber string          `json:"reference_number,omitempty" db:"reference_number"`
	Notes           string          `json:"notes,omitempty" db:"notes"`
	IsVerified      bool            `json:"is_verified" db:"is_verified"`
	VerifiedBy      string          `json:"verified_by,omitempty" db:"verified_by"`
	VerifiedAt      *time.Time      `json:"verified_at,omitempty" db:"verified_at"`
	CreatedBy       string          `json:"created_by" db:"created_by"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// PaymentRequest represents a payment submission
type PaymentRequest struct {
	AppointmentID   string          `json:"appointment_id" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
	Method          PaymentMethod   `json:"method" validate:"required,oneof=cash e_wallet bank_transfer card insurance installment"`
	ReferenceNumber string          `json:"reference_number" validate:"max=100"`
	Notes           string          `json:"notes" validate:"max=500"`
}

// PaymentSummary reports payments against an appointment's final amount.
// Outstanding may be negative when more was verified than was due.
type PaymentSummary struct {
	AppointmentID string          `json:"appointment_id"`
	FinalAmount   decimal.Decimal `json:"final_amount"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	TotalVerified decimal.Decimal `json:"total_verified"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	PaymentCount  int             `json:"payment_count"`
}
