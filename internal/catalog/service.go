package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aniemarie21/maes-laboratory-system/internal/events"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/rbac"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// Service implements the CatalogService interface
type Service struct {
	repository interfaces.CatalogRepository
	events     events.Publisher
	logger     *logger.Logger
	now        func() time.Time
}

// NewService creates a new catalog service
func NewService(repo interfaces.CatalogRepository, pub events.Publisher, log *logger.Logger) *Service {
	return &Service{
		repository: repo,
		events:     pub,
		logger:     log,
		now:        time.Now,
	}
}

// CreateDepartment creates a department; admin only
func (s *Service) CreateDepartment(ctx context.Context, req *types.DepartmentRequest, actor types.Actor) (*types.Department, error) {
	if err := rbac.Require(actor, rbac.PermManageCatalog); err != nil {
		return nil, err
	}

	now := s.now()
	dept := &types.Department{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Phone:       req.Phone,
		Email:       req.Email,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repository.CreateDepartment(ctx, dept); err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.CatalogChanged{
		Entity: "department", EntityID: dept.ID, Action: types.AuditCreate, ActorID: actor.UserID, Changes: dept,
	})
	return dept, nil
}

// ListDepartments lists active departments
func (s *Service) ListDepartments(ctx context.Context) ([]*types.Department, error) {
	return s.repository.ListDepartments(ctx)
}

// CreateService creates a service under an existing department; admin only
func (s *Service) CreateService(ctx context.Context, req *types.ServiceRequest, actor types.Actor) (*types.Service, error) {
	if err := rbac.Require(actor, rbac.PermManageCatalog); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "price must not be negative", map[string]interface{}{"price": req.Price})
	}
	if _, err := s.repository.GetDepartmentByID(ctx, req.DepartmentID); err != nil {
		return nil, err
	}

	sampleType := req.SampleType
	if sampleType == "" {
		sampleType = types.SampleBlood
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	now := s.now()
	svc := &types.Service{
		ID:                      uuid.New().String(),
		Name:                    req.Name,
		DepartmentID:            req.DepartmentID,
		Description:             req.Description,
		Price:                   req.Price.Round(2),
		DurationMinutes:         req.DurationMinutes,
		SampleType:              sampleType,
		RequiresFasting:         req.RequiresFasting,
		PreparationInstructions: req.PreparationInstructions,
		NormalRange:             req.NormalRange,
		IsAvailable:             available,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if err := s.repository.CreateService(ctx, svc); err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.CatalogChanged{
		Entity: "service", EntityID: svc.ID, Action: types.AuditCreate, ActorID: actor.UserID, Changes: svc,
	})
	return svc, nil
}

// GetService retrieves a service
func (s *Service) GetService(ctx context.Context, id string) (*types.Service, error) {
	return s.repository.GetServiceByID(ctx, id)
}

// ListServices lists services
func (s *Service) ListServices(ctx context.Context, filters *types.ServiceFilters) ([]*types.Service, error) {
	return s.repository.ListServices(ctx, filters)
}

// UpdateService edits price, availability and metadata; admin only
func (s *Service) UpdateService(ctx context.Context, id string, updates *types.ServiceUpdates, actor types.Actor) (*types.Service, error) {
	if err := rbac.Require(actor, rbac.PermManageCatalog); err != nil {
		return nil, err
	}
	if updates.Price != nil {
		if updates.Price.IsNegative() {
			return nil, types.NewValidationError(types.ErrCodeInvalidInput, "price must not be negative", nil)
		}
		rounded := updates.Price.Round(2)
		updates.Price = &rounded
	}

	if err := s.repository.UpdateService(ctx, id, updates); err != nil {
		return nil, err
	}

	svc, err := s.repository.GetServiceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithField("service_id", id).Info("Service updated")
	s.events.Publish(ctx, events.CatalogChanged{
		Entity: "service", EntityID: id, Action: types.AuditUpdate, ActorID: actor.UserID, Changes: updates,
	})
	return svc, nil
}
