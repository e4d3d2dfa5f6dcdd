package booking

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aniemarie21/maes-laboratory-system/internal/events"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/monitoring"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// MockAppointmentRepository is a mock implementation of AppointmentRepository
type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) CreateAppointment(ctx context.Context, apt *types.Appointment) error {
	return m.Called(ctx, apt).Error(0)
}

func (m *MockAppointmentRepository) GetAppointmentByID(ctx context.Context, id string) (*types.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) ListAppointments(ctx context.Context, filters *types.AppointmentFilters) ([]*types.Appointment, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*types.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) HasActiveAppointmentAt(ctx context.Context, patientID string, at time.Time) (bool, error) {
	args := m.Called(ctx, patientID, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockAppointmentRepository) UpdateStatus(ctx context.Context, id string, from, to types.AppointmentStatus, reason string) error {
	return m.Called(ctx, id, from, to, reason).Error(0)
}

func (m *MockAppointmentRepository) AssignStaff(ctx context.Context, id, staffID string) error {
	return m.Called(ctx, id, staffID).Error(0)
}

func (m *MockAppointmentRepository) GetStats(ctx context.Context, patientID string, dayStart, dayEnd, monthStart time.Time) (*types.DashboardStats, error) {
	args := m.Called(ctx, patientID, dayStart, dayEnd, monthStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.DashboardStats), args.Error(1)
}

// MockCatalogRepository is a mock implementation of CatalogRepository
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) CreateDepartment(ctx context.Context, dept *types.Department) error {
	return m.Called(ctx, dept).Error(0)
}

func (m *MockCatalogRepository) GetDepartmentByID(ctx context.Context, id string) (*types.Department, error) {
	args := m.Called(ctx, id)
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
	patient      = types.Actor{UserID: "patient-1", Role: types.RolePatient}
	receptionist = types.Actor{UserID: "staff-1", Role: types.RoleReceptionist}
)

type testFixture struct {
	service  *Service
	repo     *MockAppointmentRepository
	catalog  *MockCatalogRepository
	recorder *events.Recorder
	metrics  *monitoring.MetricsCollector
	loc      *time.Location
}

func newTestService(t *testing.T) *testFixture {
	loc := manila(t)
	repo := new(MockAppointmentRepository)
	catalog := new(MockCatalogRepository)
	rec := &events.Recorder{}
	metrics := monitoring.NewMetricsCollector("booking-test")

	validator, err := NewValidator(repo, bookingConfig(), loc)
	require.NoError(t, err)
	validator.now = fixedNow(loc)

	svc := NewService(repo, catalog, validator, NewPricer(defaultRates()), rec, metrics, logger.Discard(), loc)
	svc.now = fixedNow(loc)

	return &testFixture{service: svc, repo: repo, catalog: catalog, recorder: rec, metrics: metrics, loc: loc}
}

func cbc() *types.Service {
	return &types.Service{ID: "svc-cbc", Name: "Complete Blood Count", Price: decimal.NewFromInt(350), IsAvailable: true}
}

func TestService_Book_TomorrowIsPending(t *testing.T) {
	f := newTestService(t)
	at := time.Date(2025, 1, 14, 10, 0, 0, 0, f.loc)

	f.catalog.On("GetServicesByIDs", mock.Anything, []string{"svc-cbc"}).Return([]*types.Service{cbc()}, nil)
	f.repo.On("HasActiveAppointmentAt", mock.Anything, "patient-1", mock.MatchedBy(at.Equal)).Return(false, nil)
	f.repo.On("CreateAppointment", mock.Anything, mock.AnythingOfType("*types.Appointment")).Return(nil)

	apt, err := f.service.Book(context.Background(), &types.BookingRequest{
		ServiceIDs:     []string{"svc-cbc", "svc-cbc"},
		Date:           "2025-01-14",
		Time:           "10:00",
		DiscountPolicy: types.DiscountSenior,
	}, patient)

	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, apt.Status)
	assert.Equal(t, "patient-1", apt.PatientID)
	assert.True(t, apt.ScheduledAt.Equal(at))
	assert.Equal(t, "350.00", apt.TotalAmount.StringFixed(2))
	assert.Equal(t, "70.00", apt.DiscountAmount.StringFixed(2))
	assert.Equal(t, "280.00", apt.FinalAmount.StringFixed(2))
	assert.Regexp(t, `^APT20250113-[0-9A-F]{6}$`, apt.Reference)
	require.Len(t, apt.Services, 1)
	assert.Equal(t, types.PriorityNormal, apt.Priority)
	assert.Equal(t, []string{"appointment.booked"}, f.recorder.Names())

	f.repo.AssertExpectations(t)
	f.catalog.AssertExpectations(t)
}

func TestService_Book_RetriesReferenceCollisionOnce(t *testing.T) {
	f := newTestService(t)

	var references []string
	capture := func(args mock.Arguments) {
		references = append(references, args.Get(1).(*types.Appointment).Reference)
	}
	f.catalog.On("GetServicesByIDs", mock.Anything, mock.Anything).Return([]*types.Service{cbc()}, nil)
	f.repo.On("HasActiveAppointmentAt", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	f.repo.On("CreateAppointment", mock.Anything, mock.Anything).Run(capture).Return(types.NewReferenceTakenError(nil)).Once()
	f.repo.On("CreateAppointment", mock.Anything, mock.Anything).Run(capture).Return(nil).Once()

	apt, err := f.service.Book(context.Background(), &types.BookingRequest{
		ServiceIDs: []string{"svc-cbc"}, Date: "2025-01-14", Time: "10:00",
	}, patient)

	require.NoError(t, err)
	require.Len(t, references, 2)
	assert.NotEqual(t, references[0], references[1])
	assert.Equal(t, references[1], apt.Reference)
	assert.Equal(t, []string{"appointment.booked"}, f.recorder.Names())
}

func TestService_Book_SecondReferenceCollisionIsReported(t *testing.T) {
	f := newTestService(t)

	f.catalog.On("GetServicesByIDs", mock.Anything, mock.Anything).Return([]*types.Service{cbc()}, nil)
	f.repo.On("HasActiveAppointmentAt", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	f.repo.On("CreateAppointment", mock.Anything, mock.Anything).Return(types.NewReferenceTakenError(nil))

	_, err := f.service.Book(context.Background(), &types.BookingRequest{
		ServiceIDs: []string{"svc-cbc"}, Date: "2025-01-14", Time: "10:00",
	}, patient)

	assert.ErrorIs(t, err, types.ErrReferenceTaken)
	f.repo.AssertNumberOfCalls(t, "CreateAppointment", 2)
	assert.Empty(t, f.recorder.Events)
}

func TestService_Book_DoubleBookingIsSlotConflict(t *testing.T) {
	f := newTestService(t)

	f.catalog.On("GetServicesByIDs", mock.Anything, mock.Anything).Return([]*types.Service{cbc()}, nil)
	f.repo.On("HasActiveAppointmentAt", mock.Anything, "patient-1", mock.Anything).Return(true, nil)

	_, err := f.service.Book(context.Background(), &types.BookingRequest{
		ServiceIDs: []string{"svc-cbc"}, Date: "2025-01-14", Time: "10:00",
	}, patient)

	assert.ErrorIs(t, err, types.ErrSlotConflict)
	f.repo.AssertNotCalled(t, "CreateAppointment", mock.Anything, mock.Anything)
	assert.Empty(t, f.recorder.Events)
}

func TestService_Book_RaceLostAtInsertIsSlotConflict(t *testing.T) {
	f := newTestService(t)

	f.catalog.On("GetServicesByIDs", mock.Anything, mock.Anything).Return([]*types.Service{cbc()}, nil)
	f.repo.On("HasActiveAppointmentAt", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	f.repo.On("CreateAppointment", mock.Anything, mock.Anything).Return(types.NewSlotConflictError(nil))

	_, err := f.service.Book(context.Background(), &types.BookingRequest{
		ServiceIDs: []string{"svc-cbc"}, Date: "2025-01-14", Time: "10:00",
	}, patient)

	assert.ErrorIs(t, err, types.ErrSlotConflict)
	assert.Empty(t, f.recorder.Events)
}

func TestService_Book_PastDate(t *testing.T) {
	f := newTestService(t)
	f.catalog.On("GetServicesByIDs", mock.Anything, mock.Anything).Return([]*types.Service{cbc()}, nil)

	_, err := f.service.Book(context.Background(), &types.BookingRequest{
		ServiceIDs: []string{"svc-cbc"}, Date: "2025-01-10", Time: "10:00",
	}, patient)

	assert.ErrorIs(t, err, types.ErrPastDateTime)
}

func TestService_Book_UnavailableService(t *testing.T) {
	f := newTestService(t)
	unavailable := cbc()
	unavailable.IsAvailable = false
	f.catalog.On("GetServicesByIDs", mock.Anything, mock.Anything).Return([]*types.Service{unavailable}, nil)

	_, err := f.service.Book(context.Background(), &types.BookingRequest{
		ServiceIDs: []string{"svc-cbc"}, Date: "2025-01-14", Time: "10:00",
	}, patient)

	assert.ErrorIs(t, err, types.ErrServiceUnavailable)
}

func TestService_Book_UnknownService(t *testing.T) {
	f := newTestService(t)
	f.catalog.On("GetServicesByIDs", mock.Anything, mock.Anything).
		Return(nil, types.NewNotFoundError(types.ErrCodeNotFound, "service not found: svc-x"))

	_, err := f.service.Book(context.Background(), &types.BookingRequest{
		ServiceIDs: []string{"svc-x"}, Date: "2025-01-14", Time: "10:00",
	}, patient)

	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestService_Book_RequestValidation(t *testing.T) {
	f := newTestService(t)

	tests := []struct {
		name    string
		req     *types.BookingRequest
		actor   types.Actor
		wantErr error
	}{
		{"no services", &types.BookingRequest{Date: "2025-01-14", Time: "10:00"}, patient, types.ErrValidation},
		{"hmo without card", &types.BookingRequest{
			ServiceIDs: []string{"svc-cbc"}, Date: "2025-01-14", Time: "10:00",
			DiscountPolicy: types.DiscountHMO, HMOProvider: "Maxicare",
		}, patient, types.ErrValidation},
		{"patient booking for someone else", &types.BookingRequest{
			PatientID: "patient-2", ServiceIDs: []string{"svc-cbc"}, Date: "2025-01-14", Time: "10:00",
		}, patient, types.ErrAccessDenied},
		{"staff without patient", &types.BookingRequest{
			ServiceIDs: []string{"svc-cbc"}, Date: "2025-01-14", Time: "10:00",
		}, receptionist, types.ErrValidation},
		{"malformed time", &types.BookingRequest{
			ServiceIDs: []string{"svc-cbc"}, Date: "2025-01-14", Time: "25:99",
		}, patient, types.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Book(context.Background(), tt.req, tt.actor)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	f.catalog.AssertNotCalled(t, "GetServicesByIDs", mock.Anything, mock.Anything)
}

func TestService_Book_StaffOnBehalfOfPatient(t *testing.T) {
	f := newTestService(t)

	f.catalog.On("GetServicesByIDs", mock.Anything, mock.Anything).Return([]*types.Service{cbc()}, nil)
	f.repo.On("HasActiveAppointmentAt", mock.Anything, "patient-9", mock.Anything).Return(false, nil)
	f.repo.On("CreateAppointment", mock.Anything, mock.Anything).Return(nil)

	apt, err := f.service.Book(context.Background(), &types.BookingRequest{
		PatientID: "patient-9", ServiceIDs: []string{"svc-cbc"}, Date: "2025-01-14", Time: "10:00",
		DiscountPolicy: types.DiscountHMO, HMOProvider: "Maxicare", HMOCardNumber: "MC-12345",
	}, receptionist)

	require.NoError(t, err)
	assert.Equal(t, "patient-9", apt.PatientID)
	assert.Equal(t, "Maxicare", apt.HMOProvider)
	assert.Equal(t, "70.00", apt.FinalAmount.StringFixed(2))
}

func TestService_GetAppointment_OwnerOnly(t *testing.T) {
	f := newTestService(t)
	f.repo.On("GetAppointmentByID", mock.Anything, "apt-1").
		Return(&types.Appointment{ID: "apt-1", PatientID: "patient-2"}, nil)

	_, err := f.service.GetAppointment(context.Background(), "apt-1", patient)
	assert.ErrorIs(t, err, types.ErrAccessDenied)

	apt, err := f.service.GetAppointment(context.Background(), "apt-1", receptionist)
	require.NoError(t, err)
	assert.Equal(t, "apt-1", apt.ID)
}

func TestService_ListAppointments_PatientScoped(t *testing.T) {
	f := newTestService(t)
	f.repo.On("ListAppointments", mock.Anything, &types.AppointmentFilters{PatientID: "patient-1", Status: types.StatusPending}).
		Return([]*types.Appointment{}, nil)

	_, err := f.service.ListAppointments(context.Background(),
		&types.AppointmentFilters{PatientID: "patient-2", Status: types.StatusPending}, patient)
	require.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestService_ListAppointments_ClampsPaging(t *testing.T) {
	f := newTestService(t)
	f.repo.On("ListAppointments", mock.Anything, &types.AppointmentFilters{Limit: maxListLimit, Offset: 0}).
		Return([]*types.Appointment{}, nil)

	_, err := f.service.ListAppointments(context.Background(),
		&types.AppointmentFilters{Limit: 100000, Offset: -1}, receptionist)
	require.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestService_Export_ClampsOffset(t *testing.T) {
	f := newTestService(t)
	f.repo.On("ListAppointments", mock.Anything, mock.MatchedBy(func(filters *types.AppointmentFilters) bool {
		return filters.Limit == exportLimit && filters.Offset == 0
	})).Return([]*types.Appointment{}, nil)

	var buf bytes.Buffer
	require.NoError(t, f.service.Export(context.Background(), &types.AppointmentFilters{Offset: -5}, "csv", &buf, receptionist))
	f.repo.AssertExpectations(t)
}

func TestService_CancelAppointment(t *testing.T) {
	f := newTestService(t)
	f.repo.On("GetAppointmentByID", mock.Anything, "apt-1").
		Return(&types.Appointment{ID: "apt-1", PatientID: "patient-1", Status: types.StatusConfirmed}, nil)
	f.repo.On("UpdateStatus", mock.Anything, "apt-1", types.StatusConfirmed, types.StatusCancelled, "feeling better").Return(nil)

	apt, err := f.service.CancelAppointment(context.Background(), "apt-1", "feeling better", patient)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCancelled, apt.Status)
	assert.Equal(t, []string{"appointment.cancelled"}, f.recorder.Names())
}

func TestService_CancelAppointment_NotCancellable(t *testing.T) {
	f := newTestService(t)
	f.repo.On("GetAppointmentByID", mock.Anything, "apt-1").
		Return(&types.Appointment{ID: "apt-1", PatientID: "patient-1", Status: types.StatusCompleted}, nil)

	_, err := f.service.CancelAppointment(context.Background(), "apt-1", "", patient)
	assert.ErrorIs(t, err, types.ErrConflict)
	f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_UpdateStatus(t *testing.T) {
	f := newTestService(t)

	_, err := f.service.UpdateStatus(context.Background(), "apt-1", types.StatusConfirmed, patient)
	assert.ErrorIs(t, err, types.ErrAccessDenied)

	f.repo.On("GetAppointmentByID", mock.Anything, "apt-1").
		Return(&types.Appointment{ID: "apt-1", PatientID: "patient-1", Status: types.StatusPending}, nil)
	f.repo.On("UpdateStatus", mock.Anything, "apt-1", types.StatusPending, types.StatusConfirmed, "").Return(nil)

	apt, err := f.service.UpdateStatus(context.Background(), "apt-1", types.StatusConfirmed, receptionist)
	require.NoError(t, err)
	assert.Equal(t, types.StatusConfirmed, apt.Status)

	_, err = f.service.UpdateStatus(context.Background(), "apt-1", types.StatusCompleted, receptionist)
	assert.ErrorIs(t, err, types.ErrConflict)

	require.Len(t, f.recorder.Events, 1)
	changed := f.recorder.Events[0].(events.AppointmentStatusChanged)
	assert.Equal(t, types.StatusPending, changed.From)
}

func TestService_Export_CSV(t *testing.T) {
	f := newTestService(t)
	at := time.Date(2025, 1, 14, 10, 0, 0, 0, f.loc)
	f.repo.On("ListAppointments", mock.Anything, mock.MatchedBy(func(filters *types.AppointmentFilters) bool {
		return filters.Limit == exportLimit
	})).Return([]*types.Appointment{{
		Reference:      "APT20250113-ABC123",
		PatientID:      "patient-1",
		Services:       []types.AppointmentService{{ServiceName: "CBC"}, {ServiceName: "Urinalysis"}},
		ScheduledAt:    at.UTC(),
		Status:         types.StatusPending,
		DiscountPolicy: types.DiscountSenior,
		TotalAmount:    decimal.NewFromInt(500),
		DiscountAmount: decimal.NewFromInt(100),
		FinalAmount:    decimal.NewFromInt(400),
	}}, nil)

	var buf bytes.Buffer
	require.NoError(t, f.service.Export(context.Background(), nil, "csv", &buf, receptionist))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ExportHeader, records[0])
	assert.Equal(t, []string{
		"APT20250113-ABC123", "patient-1", "CBC; Urinalysis", "2025-01-14", "10:00",
		"pending", "senior", "500.00", "100.00", "400.00", "",
	}, records[1])
	assert.Equal(t, []string{"appointment.exported"}, f.recorder.Names())
}

func TestService_Export_Guards(t *testing.T) {
	f := newTestService(t)
	var buf bytes.Buffer

	assert.ErrorIs(t, f.service.Export(context.Background(), nil, "csv", &buf, patient), types.ErrAccessDenied)
	assert.ErrorIs(t, f.service.Export(context.Background(), nil, "pdf", &buf, receptionist), types.ErrValidation)
}

func TestService_Export_XLSX(t *testing.T) {
	f := newTestService(t)
	f.repo.On("ListAppointments", mock.Anything, mock.Anything).Return([]*types.Appointment{}, nil)

	var buf bytes.Buffer
	require.NoError(t, f.service.Export(context.Background(), nil, "xlsx", &buf, receptionist))
	// xlsx files are zip archives
	assert.Equal(t, []byte("PK"), buf.Bytes()[:2])
}

func TestService_Stats_ScopesPatients(t *testing.T) {
	f := newTestService(t)
	dayStart := time.Date(2025, 1, 13, 0, 0, 0, 0, f.loc)
	monthStart := time.Date(2025, 1, 1, 0, 0, 0, 0, f.loc)

	f.repo.On("GetStats", mock.Anything, "patient-1", dayStart, dayStart.AddDate(0, 0, 1), monthStart).
		Return(&types.DashboardStats{TotalAppointments: 3}, nil)
	f.repo.On("GetStats", mock.Anything, "", dayStart, dayStart.AddDate(0, 0, 1), monthStart).
		Return(&types.DashboardStats{TotalAppointments: 40, TotalPatients: 12}, nil)

	stats, err := f.service.Stats(context.Background(), patient)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalAppointments)

	stats, err = f.service.Stats(context.Background(), receptionist)
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalPatients)
}
