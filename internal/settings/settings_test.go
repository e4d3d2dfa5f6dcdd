package settings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aniemarie21/maes-laboratory-system/internal/booking"
	"github.com/aniemarie21/maes-laboratory-system/internal/events"
	"github.com/aniemarie21/maes-laboratory-system/pkg/config"
	"github.com/aniemarie21/maes-laboratory-system/pkg/database"
	"github.com/aniemarie21/maes-laboratory-system/pkg/httputil"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// MockSettingsRepository is a mock implementation of SettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) GetSetting(ctx context.Context, key string) (*types.Setting, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Setting), args.Error(1)
}

func (m *MockSettingsRepository) ListSettings(ctx context.Context) ([]*types.Setting, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*types.Setting), args.Error(1)
}

func (m *MockSettingsRepository) UpsertSetting(ctx context.Context, s *types.Setting) error {
	return m.Called(ctx, s).Error(0)
}

var (
	admin        = types.Actor{UserID: "admin-1", Role: types.RoleAdmin}
	receptionist = types.Actor{UserID: "rec-1", Role: types.RoleReceptionist}
)

func configRates() *booking.ConfigRates {
	return booking.NewConfigRates(config.PricingConfig{HMORate: 0.80, SeniorRate: 0.20, PWDRate: 0.20, StudentRate: 0.10})
}

func TestService_Set(t *testing.T) {
	repo := new(MockSettingsRepository)
	repo.On("UpsertSetting", mock.Anything, mock.MatchedBy(func(s *types.Setting) bool {
		return s.Key == "discount.senior" && s.Value == "0.25"
	})).Return(nil)
	rec := &events.Recorder{}

	svc := NewService(repo, rec, logger.Discard())
	setting, err := svc.Set(context.Background(), "discount.senior", &types.SettingRequest{Value: " 0.25 "}, admin)

	require.NoError(t, err)
	assert.Equal(t, "0.25", setting.Value)
	assert.Equal(t, []string{"setting.changed"}, rec.Names())
	repo.AssertExpectations(t)
}

func TestService_Set_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"rate above one", "discount.senior", "1.5"},
		{"negative rate", "discount.pwd", "-0.1"},
		{"not a number", "discount.hmo", "eighty"},
		{"unknown policy", "discount.veteran", "0.1"},
		{"bad key", "Clinic Name", "MAES"},
		{"empty value", "clinic.name", "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockSettingsRepository)
			svc := NewService(repo, events.Nop{}, logger.Discard())

			_, err := svc.Set(context.Background(), tt.key, &types.SettingRequest{Value: tt.value}, admin)
			assert.ErrorIs(t, err, types.ErrValidation)
			repo.AssertNotCalled(t, "UpsertSetting", mock.Anything, mock.Anything)
		})
	}
}

func TestService_AdminOnly(t *testing.T) {
	svc := NewService(new(MockSettingsRepository), events.Nop{}, logger.Discard())

	_, err := svc.List(context.Background(), receptionist)
	assert.ErrorIs(t, err, types.ErrAccessDenied)

	_, err = svc.Set(context.Background(), "clinic.name", &types.SettingRequest{Value: "MAES"}, receptionist)
	assert.ErrorIs(t, err, types.ErrAccessDenied)
}

func TestRates_OverrideAndFallback(t *testing.T) {
	repo := new(MockSettingsRepository)
	repo.On("GetSetting", mock.Anything, "discount.student").Return(&types.Setting{Key: "discount.student", Value: "0.15"}, nil)
	repo.On("GetSetting", mock.Anything, "discount.senior").Return(nil, types.NewNotFoundError(types.ErrCodeNotFound, "setting not found"))
	repo.On("GetSetting", mock.Anything, "discount.pwd").Return(&types.Setting{Key: "discount.pwd", Value: "2"}, nil)

	rates := NewRates(repo, configRates(), logger.Discard())
	ctx := context.Background()

	rate, err := rates.Rate(ctx, types.DiscountStudent)
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.15")))

	rate, err = rates.Rate(ctx, types.DiscountSenior)
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.20")))

	rate, err = rates.Rate(ctx, types.DiscountPWD)
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.20")), "invalid stored rate falls back")
}

func TestRates_DrivePricer(t *testing.T) {
	repo := new(MockSettingsRepository)
	repo.On("GetSetting", mock.Anything, "discount.student").Return(&types.Setting{Key: "discount.student", Value: "0.5"}, nil)

	pricer := booking.NewPricer(NewRates(repo, configRates(), logger.Discard()))
	quote, err := pricer.Quote(context.Background(), []*types.Service{{Price: decimal.NewFromInt(350)}}, types.DiscountStudent)

	require.NoError(t, err)
	assert.True(t, quote.Final.Equal(decimal.NewFromInt(175)), quote.Final.String())
}

func TestRepository_Upsert(t *testing.T) {
	sqlDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	repo := NewRepository(database.Wrap(sqlDB, logger.Discard()), logger.Discard())

	now := time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC)
	sqlMock.ExpectExec("INSERT INTO system_settings (.+) ON CONFLICT \\(key\\) DO UPDATE").
		WithArgs("discount.senior", "0.25", "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpsertSetting(context.Background(), &types.Setting{Key: "discount.senior", Value: "0.25", UpdatedAt: now}))
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestRepository_GetNotFound(t *testing.T) {
	sqlDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	repo := NewRepository(database.Wrap(sqlDB, logger.Discard()), logger.Discard())

	sqlMock.ExpectQuery("SELECT (.+) FROM system_settings WHERE key = \\$1").
		WithArgs("discount.hmo").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "description", "updated_at"}))

	_, err = repo.GetSetting(context.Background(), "discount.hmo")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestHandler_Set(t *testing.T) {
	repo := new(MockSettingsRepository)
	repo.On("UpsertSetting", mock.Anything, mock.Anything).Return(nil)

	router := mux.NewRouter()
	NewHandler(NewService(repo, events.Nop{}, logger.Discard()), logger.Discard()).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodPut, "/settings/discount.hmo", strings.NewReader(`{"value":"0.75"}`))
	req = req.WithContext(httputil.WithActor(req.Context(), admin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"key":"discount.hmo"`)
}

func TestHandler_SetRejectsBadRate(t *testing.T) {
	router := mux.NewRouter()
	NewHandler(NewService(new(MockSettingsRepository), events.Nop{}, logger.Discard()), logger.Discard()).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodPut, "/settings/discount.hmo", strings.NewReader(`{"value":"1.2"}`))
	req = req.WithContext(httputil.WithActor(req.Context(), admin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
