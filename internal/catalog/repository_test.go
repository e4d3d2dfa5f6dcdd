package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniemarie21/maes-laboratory-system/pkg/database"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

var serviceRowColumns = []string{
	"id", "name", "department_id", "description", "price", "duration_minutes", "sample_type",
	"requires_fasting", "preparation_instructions", "normal_range", "is_available", "created_at", "updated_at",
}

func setupTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	repo := NewRepository(database.Wrap(sqlDB, logger.Discard()), logger.Discard()).(*Repository)
	return repo, mock
}

func addServiceRow(rows *sqlmock.Rows, id, name, price string, available bool) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, name, "dept-1", "", price, 15, "blood", false, "", "", available, now, now)
}

func TestRepository_GetServiceByID(t *testing.T) {
	repo, mock := setupTestRepository(t)

	rows := addServiceRow(sqlmock.NewRows(serviceRowColumns), "svc-1", "Complete Blood Count", "350.00", true)
	mock.ExpectQuery("SELECT (.+) FROM services WHERE id = \\$1").
		WithArgs("svc-1").
		WillReturnRows(rows)

	svc, err := repo.GetServiceByID(context.Background(), "svc-1")
	require.NoError(t, err)
	assert.Equal(t, "Complete Blood Count", svc.Name)
	assert.True(t, svc.Price.Equal(decimal.NewFromInt(350)))
	assert.True(t, svc.IsAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetServiceByID_NotFound(t *testing.T) {
	repo, mock := setupTestRepository(t)

	mock.ExpectQuery("SELECT (.+) FROM services WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(serviceRowColumns))

	_, err := repo.GetServiceByID(context.Background(), "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRepository_GetServicesByIDs_PreservesOrder(t *testing.T) {
	repo, mock := setupTestRepository(t)

	rows := sqlmock.NewRows(serviceRowColumns)
	addServiceRow(rows, "svc-1", "CBC", "350.00", true)
	addServiceRow(rows, "svc-2", "Urinalysis", "150.00", true)

	mock.ExpectQuery("SELECT (.+) FROM services WHERE id = ANY\\(\\$1\\)").
		WithArgs(pq.Array([]string{"svc-2", "svc-1"})).
		WillReturnRows(rows)

	services, err := repo.GetServicesByIDs(context.Background(), []string{"svc-2", "svc-1"})
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, "svc-2", services[0].ID)
	assert.Equal(t, "svc-1", services[1].ID)
}

func TestRepository_GetServicesByIDs_MissingID(t *testing.T) {
	repo, mock := setupTestRepository(t)

	rows := addServiceRow(sqlmock.NewRows(serviceRowColumns), "svc-1", "CBC", "350.00", true)
	mock.ExpectQuery("SELECT (.+) FROM services").WillReturnRows(rows)

	_, err := repo.GetServicesByIDs(context.Background(), []string{"svc-1", "svc-9"})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRepository_ListServices_Filters(t *testing.T) {
	repo, mock := setupTestRepository(t)

	mock.ExpectQuery("SELECT (.+) FROM services WHERE department_id = \\$1 AND is_available = TRUE ORDER BY name").
		WithArgs("dept-1").
		WillReturnRows(addServiceRow(sqlmock.NewRows(serviceRowColumns), "svc-1", "CBC", "350.00", true))

	services, err := repo.ListServices(context.Background(), &types.ServiceFilters{DepartmentID: "dept-1", AvailableOnly: true})
	require.NoError(t, err)
	assert.Len(t, services, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateService(t *testing.T) {
	repo, mock := setupTestRepository(t)

	price := decimal.NewFromInt(400)
	available := false
	mock.ExpectExec("UPDATE services SET price = \\$1, is_available = \\$2, updated_at = \\$3 WHERE id = \\$4").
		WithArgs(sqlmock.AnyArg(), false, sqlmock.AnyArg(), "svc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateService(context.Background(), "svc-1", &types.ServiceUpdates{Price: &price, IsAvailable: &available})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateService_NoRows(t *testing.T) {
	repo, mock := setupTestRepository(t)

	desc := "fasting panel"
	mock.ExpectExec("UPDATE services SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateService(context.Background(), "svc-404", &types.ServiceUpdates{Description: &desc})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRepository_UpdateService_Empty(t *testing.T) {
	repo, _ := setupTestRepository(t)

	err := repo.UpdateService(context.Background(), "svc-1", &types.ServiceUpdates{})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestRepository_CreateDepartment_Duplicate(t *testing.T) {
	repo, mock := setupTestRepository(t)

	mock.ExpectExec("INSERT INTO departments").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "departments_name_key"})

	err := repo.CreateDepartment(context.Background(), &types.Department{ID: "d1", Name: "Hematology"})
	assert.ErrorIs(t, err, types.ErrConflict)
}
