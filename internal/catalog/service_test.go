package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aniemarie21/maes-laboratory-system/internal/events"
	"github.com/aniemarie21/maes-laboratory-system/pkg/httputil"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// MockCatalogRepository is a mock implementation of CatalogRepository
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) CreateDepartment(ctx context.Context, dept *types.Department) error {
	return m.Called(ctx, dept).Error(0)
}

func (m *MockCatalogRepository) GetDepartmentByID(ctx context.Context, id string) (*types.Department, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Department), args.Error(1)
}

func (m *MockCatalogRepository) ListDepartments(ctx context.Context) ([]*types.Department, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*types.Department), args.Error(1)
}

func (m *MockCatalogRepository) CreateService(ctx context.Context, svc *types.Service) error {
	return m.Called(ctx, svc).Error(0)
}

func (m *MockCatalogRepository) GetServiceByID(ctx context.Context, id string) (*types.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Service), args.Error(1)
}

func (m *MockCatalogRepository) GetServicesByIDs(ctx context.Context, ids []string) ([]*types.Service, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Service), args.Error(1)
}

func (m *MockCatalogRepository) ListServices(ctx context.Context, filters *types.ServiceFilters) ([]*types.Service, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*types.Service), args.Error(1)
}

func (m *MockCatalogRepository) UpdateService(ctx context.Context, id string, updates *types.ServiceUpdates) error {
	return m.Called(ctx, id, updates).Error(0)
}

var (
	admin   = types.Actor{UserID: "admin-1", Role: types.RoleAdmin}
	patient = types.Actor{UserID: "patient-1", Role: types.RolePatient}
)

func TestService_CreateService(t *testing.T) {
	repo := new(MockCatalogRepository)
	rec := &events.Recorder{}
	svc := NewService(repo, rec, logger.Discard())

	repo.On("GetDepartmentByID", mock.Anything, "dept-1").Return(&types.Department{ID: "dept-1"}, nil)
	repo.On("CreateService", mock.Anything, mock.MatchedBy(func(s *types.Service) bool {
		return s.Name == "Lipid Profile" && s.IsAvailable && s.SampleType == types.SampleBlood
	})).Return(nil)

	created, err := svc.CreateService(context.Background(), &types.ServiceRequest{
		Name:            "Lipid Profile",
		DepartmentID:    "dept-1",
		Price:           decimal.RequireFromString("650.005"),
		DurationMinutes: 20,
	}, admin)

	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "650.01", created.Price.StringFixed(2))
	assert.Equal(t, []string{"catalog.changed"}, rec.Names())
	repo.AssertExpectations(t)
}

func TestService_CreateService_UnknownDepartment(t *testing.T) {
	repo := new(MockCatalogRepository)
	svc := NewService(repo, events.Nop{}, logger.Discard())

	repo.On("GetDepartmentByID", mock.Anything, "dept-x").
		Return(nil, types.NewNotFoundError(types.ErrCodeNotFound, "department not found: dept-x"))

	_, err := svc.CreateService(context.Background(), &types.ServiceRequest{
		Name: "X", DepartmentID: "dept-x", Price: decimal.NewFromInt(1), DurationMinutes: 5,
	}, admin)
	assert.ErrorIs(t, err, types.ErrNotFound)
	repo.AssertNotCalled(t, "CreateService", mock.Anything, mock.Anything)
}

func TestService_WritesRequireAdmin(t *testing.T) {
	repo := new(MockCatalogRepository)
	svc := NewService(repo, events.Nop{}, logger.Discard())

	_, err := svc.CreateDepartment(context.Background(), &types.DepartmentRequest{Name: "Hematology"}, patient)
	assert.ErrorIs(t, err, types.ErrAccessDenied)

	tech := types.Actor{UserID: "tech-1", Role: types.RoleTechnician}
	available := false
	_, err = svc.UpdateService(context.Background(), "svc-1", &types.ServiceUpdates{IsAvailable: &available}, tech)
	assert.ErrorIs(t, err, types.ErrAccessDenied)

	repo.AssertExpectations(t)
}

func TestService_UpdateService_RejectsNegativePrice(t *testing.T) {
	svc := NewService(new(MockCatalogRepository), events.Nop{}, logger.Discard())

	price := decimal.NewFromInt(-1)
	_, err := svc.UpdateService(context.Background(), "svc-1", &types.ServiceUpdates{Price: &price}, admin)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestHandler_CreateDepartment(t *testing.T) {
	repo := new(MockCatalogRepository)
	repo.On("CreateDepartment", mock.Anything, mock.Anything).Return(nil)
	h := NewHandler(NewService(repo, events.Nop{}, logger.Discard()), logger.Discard())

	router := mux.NewRouter()
	h.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/departments", strings.NewReader(`{"name":"Hematology"}`))
	req = req.WithContext(httputil.WithActor(req.Context(), admin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Hematology"`)
}

func TestHandler_CreateDepartment_ValidationError(t *testing.T) {
	h := NewHandler(NewService(new(MockCatalogRepository), events.Nop{}, logger.Discard()), logger.Discard())

	router := mux.NewRouter()
	h.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/departments", strings.NewReader(`{"email":"not-an-email"}`))
	req = req.WithContext(httputil.WithActor(req.Context(), admin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"is required"`)
}

func TestHandler_ListServicesFilters(t *testing.T) {
	repo := new(MockCatalogRepository)
	repo.On("ListServices", mock.Anything, &types.ServiceFilters{DepartmentID: "dept-1", AvailableOnly: true}).
		Return([]*types.Service{{ID: "svc-1", Name: "CBC"}}, nil)
	h := NewHandler(NewService(repo, events.Nop{}, logger.Discard()), logger.Discard())

	router := mux.NewRouter()
	h.RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/services?department_id=dept-1&available=true", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"svc-1"`)
	repo.AssertExpectations(t)
}
