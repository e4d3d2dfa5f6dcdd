package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/aniemarie21/maes-laboratory-system/internal/events"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/monitoring"
	"github.com/aniemarie21/maes-laboratory-system/pkg/rbac"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

const (
	// exportLimit caps how many appointments one export reads
	exportLimit  = 10000
	maxListLimit = 200
)

// Service implements the BookingService interface
type Service struct {
	repository interfaces.AppointmentRepository
	catalog    interfaces.CatalogRepository
	validator  *Validator
	pricer     *Pricer
	events     events.Publisher
	metrics    *monitoring.MetricsCollector
	logger     *logger.Logger
	loc        *time.Location
	now        func() time.Time
}

// NewService creates a new booking service. Dates and times in requests are
// interpreted in loc.
func NewService(
	repo interfaces.AppointmentRepository,
	catalog interfaces.CatalogRepository,
	validator *Validator,
	pricer *Pricer,
	pub events.Publisher,
	metrics *monitoring.MetricsCollector,
	log *logger.Logger,
	loc *time.Location,
) *Service {
	return &Service{
		repository: repo,
		catalog:    catalog,
		validator:  validator,
		pricer:     pricer,
		events:     pub,
		metrics:    metrics,
		logger:     log,
		loc:        loc,
		now:        time.Now,
	}
}

// Book validates, prices and persists a new pending appointment
func (s *Service) Book(ctx context.Context, req *types.BookingRequest, actor types.Actor) (apt *types.Appointment, err error) {
	ctx, span := monitoring.StartSpan(ctx, "booking.Book", attribute.String("actor.role", string(actor.Role)))
	defer func() {
		monitoring.EndSpan(span, err)
		s.metrics.RecordBooking(bookingOutcome(err))
	}()

	patientID, err := s.bookingPatient(req, actor)
	if err != nil {
		return nil, err
	}
	if err := validateBookingRequest(req); err != nil {
		return nil, err
	}

	serviceIDs := dedupe(req.ServiceIDs)
	scheduledAt, err := ScheduledAt(req.Date, req.Time, s.loc)
	if err != nil {
		return nil, err
	}

	services, err := s.catalog.GetServicesByIDs(ctx, serviceIDs)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Check(ctx, patientID, services, scheduledAt); err != nil {
		return nil, err
	}

	quote, err := s.pricer.Quote(ctx, services, req.DiscountPolicy)
	if err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = types.PriorityNormal
	}

	now := s.now()
	apt = &types.Appointment{
		ID:             uuid.New().String(),
		Reference:      types.NewReference(types.AppointmentReferencePrefix, now.In(s.loc)),
		PatientID:      patientID,
		Services:       make([]types.AppointmentService, 0, len(services)),
		ScheduledAt:    scheduledAt,
		Status:         types.StatusPending,
		Priority:       priority,
		DiscountPolicy: quote.Policy,
		TotalAmount:    quote.Total,
		DiscountAmount: quote.Discount,
		FinalAmount:    quote.Final,
		Notes:          req.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if quote.Policy == types.DiscountHMO {
		apt.HMOProvider = req.HMOProvider
		apt.HMOCardNumber = req.HMOCardNumber
	}
	for _, svc := range services {
		apt.Services = append(apt.Services, types.AppointmentService{
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			Price:       svc.Price,
		})
	}

	err = s.repository.CreateAppointment(ctx, apt)
	if errors.Is(err, types.ErrReferenceTaken) {
		// one fresh draw; a second collision is reported as is
		apt.Reference = types.NewReference(types.AppointmentReferencePrefix, now.In(s.loc))
		err = s.repository.CreateAppointment(ctx, apt)
	}
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"appointment_id": apt.ID,
		"reference":      apt.Reference,
		"patient_id":     apt.PatientID,
		"scheduled_at":   apt.ScheduledAt,
	}).Info("Appointment booked")

	s.events.Publish(ctx, events.AppointmentBooked{Appointment: apt, ActorID: actor.UserID})
	return apt, nil
}

// bookingPatient resolves whose appointment is being booked: patients book
// for themselves, staff must name the patient.
func (s *Service) bookingPatient(req *types.BookingRequest, actor types.Actor) (string, error) {
	if actor.Role == types.RolePatient {
		if err := rbac.Require(actor, rbac.PermBookOwn); err != nil {
			return "", err
		}
		if req.PatientID != "" && req.PatientID != actor.UserID {
			return "", types.NewAccessDeniedError("patients can only book for themselves")
		}
		return actor.UserID, nil
	}

	if err := rbac.Require(actor, rbac.PermBookForPatient); err != nil {
		return "", err
	}
	if req.PatientID == "" {
		return "", types.NewValidationError(types.ErrCodeInvalidInput, "patient_id is required when staff book an appointment",
			map[string]interface{}{"patient_id": "is required"})
	}
	return req.PatientID, nil
}

func validateBookingRequest(req *types.BookingRequest) error {
	fields := map[string]interface{}{}
	if len(dedupe(req.ServiceIDs)) == 0 {
		fields["service_ids"] = "select at least one service"
	}
	if req.Date == "" {
		fields["date"] = "is required"
	}
	if req.Time == "" {
		fields["time"] = "is required"
	}
	if req.DiscountPolicy != "" && !req.DiscountPolicy.Valid() {
		fields["discount_policy"] = "is not a known discount policy"
	}
	if req.DiscountPolicy == types.DiscountHMO {
		if req.HMOProvider == "" {
			fields["hmo_provider"] = "is required for HMO coverage"
		}
		if req.HMOCardNumber == "" {
			fields["hmo_card_number"] = "is required for HMO coverage"
		}
	}
	if len(fields) > 0 {
		return types.NewValidationError(types.ErrCodeInvalidInput, "booking request is incomplete", fields)
	}
	return nil
}

// dedupe drops blank and repeated ids, keeping first-seen order
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func bookingOutcome(err error) string {
	if err == nil {
		return "booked"
	}
	return string(types.ErrorTypeOf(err))
}

// Quote prices a set of services without booking
func (s *Service) Quote(ctx context.Context, req *types.QuoteRequest) (*types.Quote, error) {
	ids := dedupe(req.ServiceIDs)
	if len(ids) == 0 {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "select at least one service",
			map[string]interface{}{"service_ids": "is required"})
	}

	services, err := s.catalog.GetServicesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.pricer.Quote(ctx, services, req.DiscountPolicy)
}

// GetAppointment returns an appointment visible to the actor
func (s *Service) GetAppointment(ctx context.Context, id string, actor types.Actor) (*types.Appointment, error) {
	apt, err := s.repository.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.RequireOwnerOrStaff(actor, apt.PatientID); err != nil {
		return nil, err
	}
	return apt, nil
}

// ListAppointments lists appointments; patients only ever see their own
func (s *Service) ListAppointments(ctx context.Context, filters *types.AppointmentFilters, actor types.Actor) ([]*types.Appointment, error) {
	scoped := types.AppointmentFilters{}
	if filters != nil {
		scoped = *filters
	}
	if !rbac.Can(actor.Role, rbac.PermViewAllRecords) {
		scoped.PatientID = actor.UserID
	}
	if scoped.Limit > maxListLimit {
		scoped.Limit = maxListLimit
	}
	if scoped.Offset < 0 {
		scoped.Offset = 0
	}
	return s.repository.ListAppointments(ctx, &scoped)
}

// CancelAppointment cancels a pending or confirmed appointment on behalf of
// its patient or staff
func (s *Service) CancelAppointment(ctx context.Context, id, reason string, actor types.Actor) (*types.Appointment, error) {
	apt, err := s.GetAppointment(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !ValidTransition(apt.Status, types.StatusCancelled) {
		return nil, invalidTransition(apt.Status, types.StatusCancelled)
	}

	if err := s.repository.UpdateStatus(ctx, id, apt.Status, types.StatusCancelled, reason); err != nil {
		return nil, err
	}
	apt.Status = types.StatusCancelled
	apt.CancellationReason = reason
	apt.UpdatedAt = s.now()

	s.logger.Audit(ctx, actor.UserID, "cancel", "appointment", id, map[string]interface{}{"reason": reason})
	s.events.Publish(ctx, events.AppointmentCancelled{Appointment: apt, ActorID: actor.UserID})
	return apt, nil
}

// UpdateStatus moves an appointment along its lifecycle; staff only
func (s *Service) UpdateStatus(ctx context.Context, id string, status types.AppointmentStatus, actor types.Actor) (*types.Appointment, error) {
	if err := rbac.Require(actor, rbac.PermManageAppointments); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "unknown appointment status",
			map[string]interface{}{"status": status})
	}

	apt, err := s.repository.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := apt.Status
	if !ValidTransition(from, status) {
		return nil, invalidTransition(from, status)
	}

	if err := s.repository.UpdateStatus(ctx, id, from, status, apt.CancellationReason); err != nil {
		return nil, err
	}
	apt.Status = status
	apt.UpdatedAt = s.now()

	s.events.Publish(ctx, events.AppointmentStatusChanged{Appointment: apt, From: from, ActorID: actor.UserID})
	return apt, nil
}

// AssignStaff assigns a staff member to the appointment; staff only
func (s *Service) AssignStaff(ctx context.Context, id, staffID string, actor types.Actor) (*types.Appointment, error) {
	if err := rbac.Require(actor, rbac.PermManageAppointments); err != nil {
		return nil, err
	}

	apt, err := s.repository.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repository.AssignStaff(ctx, id, staffID); err != nil {
		return nil, err
	}
	apt.AssignedStaffID = staffID
	apt.UpdatedAt = s.now()

	s.events.Publish(ctx, events.AppointmentAssigned{Appointment: apt, ActorID: actor.UserID})
	return apt, nil
}

// Export writes matching appointments to w as csv or xlsx; staff only
func (s *Service) Export(ctx context.Context, filters *types.AppointmentFilters, format string, w io.Writer, actor types.Actor) error {
	if err := rbac.Require(actor, rbac.PermExportAppointments); err != nil {
		return err
	}
	exporter, err := NewExporter(format, s.loc)
	if err != nil {
		return err
	}

	scoped := types.AppointmentFilters{}
	if filters != nil {
		scoped = *filters
	}
	if scoped.Limit <= 0 || scoped.Limit > exportLimit {
		scoped.Limit = exportLimit
	}
	if scoped.Offset < 0 {
		scoped.Offset = 0
	}

	appointments, err := s.repository.ListAppointments(ctx, &scoped)
	if err != nil {
		return err
	}
	if err := exporter.Write(w, appointments); err != nil {
		return fmt.Errorf("failed to write %s export: %w", format, err)
	}

	s.events.Publish(ctx, events.AppointmentsExported{Format: format, Count: len(appointments), ActorID: actor.UserID})
	return nil
}

// Stats returns dashboard counters; patients get their own only
func (s *Service) Stats(ctx context.Context, actor types.Actor) (*types.DashboardStats, error) {
	now := s.now().In(s.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)

	patientID := ""
	if !rbac.Can(actor.Role, rbac.PermViewAllRecords) {
		patientID = actor.UserID
	}
	return s.repository.GetStats(ctx, patientID, dayStart, dayStart.AddDate(0, 0, 1), monthStart)
}
