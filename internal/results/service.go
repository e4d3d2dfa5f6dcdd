// Package results tracks laboratory test results from creation through
// review to release. Patients only ever see released results.
package results

import (
	"context"
	"encoding/json"
	"fmt"
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
	defaultListLimit = 50
	maxListLimit     = 200
)

// sequence is the only order a result may move through
var sequence = []types.ResultStatus{
	types.ResultPending,
	types.ResultInProgress,
	types.ResultCompleted,
	types.ResultReviewed,
	types.ResultReleased,
}

// editableStatuses are the stages in which findings may still change
var editableStatuses = []types.ResultStatus{types.ResultPending, types.ResultInProgress}

// NextStatus returns the stage after from, or false at the end of the sequence.
func NextStatus(from types.ResultStatus) (types.ResultStatus, bool) {
	for i, s := range sequence {
		if s == from && i+1 < len(sequence) {
			return sequence[i+1], true
		}
	}
	return "", false
}

// Service implements the ResultService interface
type Service struct {
	repository   interfaces.ResultRepository
	appointments interfaces.AppointmentReader
	events       events.Publisher
	metrics      *monitoring.MetricsCollector
	logger       *logger.Logger
	now          func() time.Time
}

// NewService creates a new result service
func NewService(
	repo interfaces.ResultRepository,
	appointments interfaces.AppointmentReader,
	pub events.Publisher,
	metrics *monitoring.MetricsCollector,
	log *logger.Logger,
) *Service {
	return &Service{
		repository:   repo,
		appointments: appointments,
		events:       pub,
		metrics:      metrics,
		logger:       log,
		now:          time.Now,
	}
}

// CreateResult opens a pending result for a completed appointment
func (s *Service) CreateResult(ctx context.Context, appointmentID string, actor types.Actor) (*types.TestResult, error) {
	if err := rbac.Require(actor, rbac.PermManageResults); err != nil {
		return nil, err
	}

	apt, err := s.appointments.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if apt.Status != types.StatusCompleted {
		return nil, types.NewConflictError(types.ErrCodeConflict,
			"results can only be created for completed appointments",
			map[string]interface{}{"status": apt.Status})
	}

	now := s.now()
	res := &types.TestResult{
		ID:            uuid.New().String(),
		AppointmentID: apt.ID,
		PatientID:     apt.PatientID,
		Status:        types.ResultPending,
		ProcessedBy:   actor.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repository.CreateResult(ctx, res); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"result_id":      res.ID,
		"appointment_id": res.AppointmentID,
	}).Info("Test result created")

	s.events.Publish(ctx, events.ResultCreated{Result: res, ActorID: actor.UserID})
	return res, nil
}

// AttachContent records findings while the result is still being processed
func (s *Service) AttachContent(ctx context.Context, id string, req *types.ResultContentRequest, actor types.Actor) (*types.TestResult, error) {
	if err := rbac.Require(actor, rbac.PermManageResults); err != nil {
		return nil, err
	}
	if len(req.ResultData) > 0 && !json.Valid(req.ResultData) {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "result_data must be valid JSON", map[string]interface{}{
			"result_data": "must be valid JSON",
		})
	}

	res, err := s.repository.GetResultByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !editable(res.Status) {
		return nil, types.NewConflictError(types.ErrCodeConflict,
			fmt.Sprintf("result content cannot change once %s", res.Status),
			map[string]interface{}{"status": res.Status})
	}

	if err := s.repository.UpdateContent(ctx, id, editableStatuses, req, actor.UserID); err != nil {
		return nil, err
	}

	updated, err := s.repository.GetResultByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, events.ResultUpdated{Result: updated, ActorID: actor.UserID})
	return updated, nil
}

func editable(status types.ResultStatus) bool {
	for _, s := range editableStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Advance moves a result exactly one stage forward to target
func (s *Service) Advance(ctx context.Context, id string, target types.ResultStatus, actor types.Actor) (res *types.TestResult, err error) {
	ctx, span := monitoring.StartSpan(ctx, "results.Advance",
		attribute.String("result.id", id),
		attribute.String("result.target", string(target)),
	)
	defer func() { monitoring.EndSpan(span, err) }()

	if err := rbac.Require(actor, rbac.PermManageResults); err != nil {
		return nil, err
	}

	res, err = s.repository.GetResultByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := res.Status
	next, ok := NextStatus(from)
	if !ok || target != next {
		return nil, types.NewConflictError(types.ErrCodeInvalidTransition,
			fmt.Sprintf("cannot move result from %s to %s", from, target),
			map[string]interface{}{"from": from, "to": target, "expected": next})
	}

	now := s.now()
	res.Status = target
	res.UpdatedAt = now
	switch target {
	case types.ResultReviewed:
		res.ReviewedBy = actor.UserID
	case types.ResultReleased:
		res.ReleasedAt = &now
	}

	if err := s.repository.UpdateStatus(ctx, res, from); err != nil {
		return nil, err
	}

	if target == types.ResultReleased {
		s.metrics.RecordResultReleased()
	}
	s.logger.Audit(ctx, actor.UserID, "advance", "test_result", res.ID, map[string]interface{}{
		"from": from,
		"to":   target,
	})

	s.events.Publish(ctx, events.ResultAdvanced{Result: res, From: from, ActorID: actor.UserID})
	return res, nil
}

// GetResult returns a result the actor may see. Unreleased results do not
// exist as far as their patient is concerned.
func (s *Service) GetResult(ctx context.Context, id string, actor types.Actor) (*types.TestResult, error) {
	res, err := s.repository.GetResultByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return visibleTo(res, actor)
}

// GetResultByAppointment returns an appointment's result, scoped like GetResult
func (s *Service) GetResultByAppointment(ctx context.Context, appointmentID string, actor types.Actor) (*types.TestResult, error) {
	res, err := s.repository.GetResultByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	return visibleTo(res, actor)
}

func visibleTo(res *types.TestResult, actor types.Actor) (*types.TestResult, error) {
	if rbac.Can(actor.Role, rbac.PermViewAllRecords) {
		return res, nil
	}
	if res.PatientID == actor.UserID && res.VisibleToPatient() {
		return res, nil
	}
	return nil, types.NewNotFoundError(types.ErrCodeNotFound, "test result not found")
}

// ListResults lists every result for staff and released own results for patients
func (s *Service) ListResults(ctx context.Context, actor types.Actor, limit, offset int) ([]*types.TestResult, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	if rbac.Can(actor.Role, rbac.PermViewAllRecords) {
		return s.repository.ListResults(ctx, "", "", limit, offset)
	}
	return s.repository.ListResults(ctx, actor.UserID, types.ResultReleased, limit, offset)
}
