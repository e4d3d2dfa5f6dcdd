package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aniemarie21/maes-laboratory-system/internal/events"
	"github.com/aniemarie21/maes-laboratory-system/pkg/database"
	"github.com/aniemarie21/maes-laboratory-system/pkg/httputil"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// MockAuditRepository is a mock implementation of AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) CreateEntry(ctx context.Context, e *types.AuditEntry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockAuditRepository) ListEntries(ctx context.Context, filters *types.AuditFilters) ([]*types.AuditEntry, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*types.AuditEntry), args.Error(1)
}

func TestRecorder_PaymentRecorded(t *testing.T) {
	repo := new(MockAuditRepository)
	var entry *types.AuditEntry
	repo.On("CreateEntry", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { entry = args.Get(1).(*types.AuditEntry) }).
		Return(nil)

	err := NewRecorder(repo).Handle(context.Background(), events.PaymentRecorded{
		Payment: &types.Payment{ID: "pay-1", AppointmentID: "apt-1", Amount: decimal.NewFromInt(280), Method: types.MethodCash},
		ActorID: "patient-1",
	})

	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "patient-1", entry.ActorID)
	assert.Equal(t, types.AuditCreate, entry.Action)
	assert.Equal(t, "payment", entry.Entity)
	assert.Equal(t, "pay-1", entry.EntityID)
	assert.JSONEq(t, `{"appointment_id":"apt-1","amount":"280.00","method":"cash"}`, string(entry.Changes))
}

func TestRecorder_CatalogChangePassesActionThrough(t *testing.T) {
	repo := new(MockAuditRepository)
	repo.On("CreateEntry", mock.Anything, mock.MatchedBy(func(e *types.AuditEntry) bool {
		return e.Action == types.AuditUpdate && e.Entity == "service" && e.EntityID == "svc-1" && e.ActorID == "admin-1"
	})).Return(nil)

	err := NewRecorder(repo).Handle(context.Background(), events.CatalogChanged{
		Entity: "service", EntityID: "svc-1", Action: types.AuditUpdate, ActorID: "admin-1",
		Changes: map[string]interface{}{"is_available": false},
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRecorder_MissingActorIsSystem(t *testing.T) {
	repo := new(MockAuditRepository)
	repo.On("CreateEntry", mock.Anything, mock.MatchedBy(func(e *types.AuditEntry) bool {
		return e.ActorID == systemActor
	})).Return(nil)

	err := NewRecorder(repo).Handle(context.Background(), events.ResultAdvanced{
		Result: &types.TestResult{ID: "res-1", Status: types.ResultReleased}, From: types.ResultReviewed,
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRepository_ListEntries_Filters(t *testing.T) {
	sqlDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	repo := NewRepository(database.Wrap(sqlDB, logger.Discard()), logger.Discard())

	sqlMock.ExpectQuery("SELECT (.+) FROM audit_logs WHERE entity = \\$1 AND entity_id = \\$2 ORDER BY created_at DESC LIMIT \\$3 OFFSET \\$4").
		WithArgs("payment", "pay-1", defaultListLimit, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "actor_id", "action", "entity", "entity_id", "changes", "created_at"}).
			AddRow("a-1", "tech-1", "update", "payment", "pay-1", []byte(`{"is_verified":true}`), time.Now()).
			AddRow("a-2", "system", "create", "payment", "pay-1", nil, time.Now()))

	entries, err := repo.ListEntries(context.Background(), &types.AuditFilters{Entity: "payment", EntityID: "pay-1"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.JSONEq(t, `{"is_verified":true}`, string(entries[0].Changes))
	assert.Nil(t, entries[1].Changes)
}

func TestHandler_AdminOnly(t *testing.T) {
	repo := new(MockAuditRepository)
	repo.On("ListEntries", mock.Anything, mock.Anything).Return([]*types.AuditEntry{}, nil)

	router := mux.NewRouter()
	NewHandler(repo, logger.Discard()).RegisterRoutes(router)

	tests := []struct {
		role types.UserRole
		code int
	}{
		{types.RoleAdmin, http.StatusOK},
		{types.RoleReceptionist, http.StatusForbidden},
		{types.RolePatient, http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/audit?entity=payment", nil)
		req = req.WithContext(httputil.WithActor(req.Context(), types.Actor{UserID: "u-1", Role: tt.role}))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, tt.code, rec.Code, tt.role)
	}
}
