package interfaces

import (
	"context"
	"io"
	"time"

	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// BillingService defines payment recording and verification
type BillingService interface {
	RecordPayment(ctx context.Context, req *types.PaymentRequest, actor types.Actor) (*types.Payment, error)
	VerifyPayment(ctx context.Context, id string, actor types.Actor) (*types.Payment, error)
	GetPayment(ctx context.Context, id string, actor types.Actor) (*types.Payment, error)
	ListPayments(ctx context.Context, appointmentID string, actor types.Actor) ([]*types.Payment, error)
	Summary(ctx context.Context, appointmentID string, actor types.Actor) (*types.PaymentSummary, error)
	WriteReceipt(ctx context.Context, id string, actor types.Actor, w io.Writer) error
}

// PaymentRepository defines payment persistence
type PaymentRepository interface {
	CreatePayment(ctx context.Context, p *types.Payment) error
	GetPaymentByID(ctx context.Context, id string) (*types.Payment, error)
	ListByAppointment(ctx context.Context, appointmentID string) ([]*types.Payment, error)

	// MarkVerified reports false when the payment was already verified
	MarkVerified(ctx context.Context, id, verifierID string, at time.Time) (bool, error)
}

// ResultService defines test result tracking and release
type ResultService interface {
	CreateResult(ctx context.Context, appointmentID string, actor types.Actor) (*types.TestResult, error)
	AttachContent(ctx context.Context, id string, req *types.ResultContentRequest, actor types.Actor) (*types.TestResult, error)
	Advance(ctx context.Context, id string, target types.ResultStatus, actor types.Actor) (*types.TestResult, error)
	GetResult(ctx context.Context, id string, actor types.Actor) (*types.TestResult, error)
	GetResultByAppointment(ctx context.Context, appointmentID string, actor types.Actor) (*types.TestResult, error)
	ListResults(ctx context.Context, actor types.Actor, limit, offset int) ([]*types.TestResult, error)
}

// ResultRepository defines test result persistence
type ResultRepository interface {
	CreateResult(ctx context.Context, r *types.TestResult) error
	GetResultByID(ctx context.Context, id string) (*types.TestResult, error)
	GetResultByAppointment(ctx context.Context, appointmentID string) (*types.TestResult, error)

	// UpdateContent writes findings only while the result is in one of editable
	UpdateContent(ctx context.Context, id string, editable []types.ResultStatus, req *types.ResultContentRequest, processedBy string) error
	// UpdateStatus persists r.Status and its stamps only while the stored status equals from
	UpdateStatus(ctx context.Context, r *types.TestResult, from types.ResultStatus) error

	ListResults(ctx context.Context, patientID string, status types.ResultStatus, limit, offset int) ([]*types.TestResult, error)
}
