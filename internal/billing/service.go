package billing

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/aniemarie21/maes-laboratory-system/internal/events"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/monitoring"
	"github.com/aniemarie21/maes-laboratory-system/pkg/rbac"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// minimum reference number lengths for methods that need one
var referenceMinLength = map[types.PaymentMethod]int{
	types.MethodEWallet:      10,
	types.MethodBankTransfer: 6,
}

// Service implements the BillingService interface
type Service struct {
	repository   interfaces.PaymentRepository
	appointments interfaces.AppointmentReader
	events       events.Publisher
	metrics      *monitoring.MetricsCollector
	logger       *logger.Logger
	loc          *time.Location
	now          func() time.Time
}

// NewService creates a new billing service
func NewService(
	repo interfaces.PaymentRepository,
	appointments interfaces.AppointmentReader,
	pub events.Publisher,
	metrics *monitoring.MetricsCollector,
	log *logger.Logger,
	loc *time.Location,
) *Service {
	return &Service{
		repository:   repo,
		appointments: appointments,
		events:       pub,
		metrics:      metrics,
		logger:       log,
		loc:          loc,
		now:          time.Now,
	}
}

// RecordPayment stores an unverified payment against an appointment
func (s *Service) RecordPayment(ctx context.Context, req *types.PaymentRequest, actor types.Actor) (p *types.Payment, err error) {
	ctx, span := monitoring.StartSpan(ctx, "billing.RecordPayment",
		attribute.String("appointment.id", req.AppointmentID),
		attribute.String("payment.method", string(req.Method)),
	)
	defer func() { monitoring.EndSpan(span, err) }()

	if err := rbac.Require(actor, rbac.PermRecordPayment); err != nil {
		return nil, err
	}
	if err := validatePaymentRequest(req); err != nil {
		return nil, err
	}

	apt, err := s.appointments.GetAppointmentByID(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if err := rbac.RequireOwnerOrStaff(actor, apt.PatientID); err != nil {
		return nil, types.NewAccessDeniedError("you can only pay for your own appointments")
	}

	now := s.now()
	p = &types.Payment{
		ID:              uuid.New().String(),
		ReceiptNumber:   types.NewReference(types.ReceiptNumberPrefix, now.In(s.loc)),
		AppointmentID:   apt.ID,
		Amount:          req.Amount.Round(2),
		Method:          req.Method,
		ReferenceNumber: strings.TrimSpace(req.ReferenceNumber),
		Notes:           req.Notes,
		IsVerified:      false,
		CreatedBy:       actor.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.repository.CreatePayment(ctx, p)
	if errors.Is(err, types.ErrReferenceTaken) {
		p.ReceiptNumber = types.NewReference(types.ReceiptNumberPrefix, now.In(s.loc))
		err = s.repository.CreatePayment(ctx, p)
	}
	if err != nil {
		return nil, err
	}
	s.metrics.RecordPayment(string(p.Method))

	s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"payment_id":     p.ID,
		"receipt_number": p.ReceiptNumber,
		"appointment_id": p.AppointmentID,
		"amount":         p.Amount.StringFixed(2),
		"method":         p.Method,
	}).Info("Payment recorded")

	s.events.Publish(ctx, events.PaymentRecorded{Payment: p, PatientID: apt.PatientID, ActorID: actor.UserID})
	return p, nil
}

func validatePaymentRequest(req *types.PaymentRequest) error {
	fields := map[string]interface{}{}
	if strings.TrimSpace(req.AppointmentID) == "" {
		fields["appointment_id"] = "is required"
	}
	// amounts are stored to the centavo, so validate what will be stored
	if !req.Amount.Round(2).IsPositive() {
		fields["amount"] = "must be at least 0.01"
	}
	if !req.Method.Valid() {
		fields["method"] = "must be one of: cash e_wallet bank_transfer card insurance installment"
	} else if minLen, ok := referenceMinLength[req.Method]; ok {
		ref := strings.TrimSpace(req.ReferenceNumber)
		switch {
		case ref == "":
			fields["reference_number"] = "is required for " + string(req.Method)
		case len(ref) < minLen:
			fields["reference_number"] = "is too short for " + string(req.Method)
		}
	}
	if len(fields) > 0 {
		return types.NewValidationError(types.ErrCodeInvalidInput, "payment validation failed", fields)
	}
	return nil
}

// VerifyPayment marks a payment verified. Verifying twice returns the stored row.
func (s *Service) VerifyPayment(ctx context.Context, id string, actor types.Actor) (*types.Payment, error) {
	if err := rbac.Require(actor, rbac.PermVerifyPayments); err != nil {
		return nil, err
	}

	p, err := s.repository.GetPaymentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsVerified {
		return p, nil
	}

	now := s.now()
	changed, err := s.repository.MarkVerified(ctx, id, actor.UserID, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		// verified concurrently by someone else
		return s.repository.GetPaymentByID(ctx, id)
	}

	p.IsVerified = true
	p.VerifiedBy = actor.UserID
	p.VerifiedAt = &now
	p.UpdatedAt = now

	patientID := ""
	if apt, err := s.appointments.GetAppointmentByID(ctx, p.AppointmentID); err == nil {
		patientID = apt.PatientID
	} else {
		s.logger.WithContext(ctx).WithError(err).WithField("payment_id", id).Warn("Verified payment has no readable appointment")
	}

	s.logger.Audit(ctx, actor.UserID, "verify", "payment", p.ID, map[string]interface{}{
		"amount": p.Amount.StringFixed(2),
	})
	s.events.Publish(ctx, events.PaymentVerified{Payment: p, PatientID: patientID, ActorID: actor.UserID})
	return p, nil
}

// GetPayment returns a payment visible to the actor
func (s *Service) GetPayment(ctx context.Context, id string, actor types.Actor) (*types.Payment, error) {
	p, _, err := s.paymentWithAppointment(ctx, id, actor)
	return p, err
}

func (s *Service) paymentWithAppointment(ctx context.Context, id string, actor types.Actor) (*types.Payment, *types.Appointment, error) {
	p, err := s.repository.GetPaymentByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	apt, err := s.appointments.GetAppointmentByID(ctx, p.AppointmentID)
	if err != nil {
		return nil, nil, err
	}
	if err := rbac.RequireOwnerOrStaff(actor, apt.PatientID); err != nil {
		return nil, nil, err
	}
	return p, apt, nil
}

// ListPayments returns an appointment's payments
func (s *Service) ListPayments(ctx context.Context, appointmentID string, actor types.Actor) ([]*types.Payment, error) {
	if _, err := s.ownedAppointment(ctx, appointmentID, actor); err != nil {
		return nil, err
	}
	return s.repository.ListByAppointment(ctx, appointmentID)
}

// Summary totals an appointment's payments for display. It does not
// reconcile or block anything.
func (s *Service) Summary(ctx context.Context, appointmentID string, actor types.Actor) (*types.PaymentSummary, error) {
	apt, err := s.ownedAppointment(ctx, appointmentID, actor)
	if err != nil {
		return nil, err
	}
	payments, err := s.repository.ListByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	return summarize(apt, payments), nil
}

func summarize(apt *types.Appointment, payments []*types.Payment) *types.PaymentSummary {
	paid, verified := decimal.Zero, decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
		if p.IsVerified {
			verified = verified.Add(p.Amount)
		}
	}
	return &types.PaymentSummary{
		AppointmentID: apt.ID,
		FinalAmount:   apt.FinalAmount,
		TotalPaid:     paid,
		TotalVerified: verified,
		Outstanding:   apt.FinalAmount.Sub(verified),
		PaymentCount:  len(payments),
	}
}

// WriteReceipt renders the payment's PDF receipt to w
func (s *Service) WriteReceipt(ctx context.Context, id string, actor types.Actor, w io.Writer) error {
	p, apt, err := s.paymentWithAppointment(ctx, id, actor)
	if err != nil {
		return err
	}
	if err := RenderReceipt(w, p, apt, s.loc); err != nil {
		return types.NewInternalError(types.ErrCodeInternalError, "failed to render receipt", err)
	}
	return nil
}

func (s *Service) ownedAppointment(ctx context.Context, appointmentID string, actor types.Actor) (*types.Appointment, error) {
	apt, err := s.appointments.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := rbac.RequireOwnerOrStaff(actor, apt.PatientID); err != nil {
		return nil, err
	}
	return apt, nil
}
