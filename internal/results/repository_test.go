package results

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniemarie21/maes-laboratory-system/pkg/database"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

var resultRowColumns = []string{
	"id", "appointment_id", "patient_id", "status", "result_text", "result_data", "is_normal",
	"abnormal_findings", "recommendations", "technician_notes", "doctor_notes", "processed_by", "reviewed_by",
	"released_at", "created_at", "updated_at",
}

func setupTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return NewRepository(database.Wrap(sqlDB, logger.Discard()), logger.Discard()).(*Repository), mock
}

func TestRepository_CreateResult_Duplicate(t *testing.T) {
	repo, mock := setupTestRepository(t)

	mock.ExpectExec("INSERT INTO test_results").
		WillReturnError(&pq.Error{Code: "23505", Constraint: appointmentUniqueConstraint})

	err := repo.CreateResult(context.Background(), &types.TestResult{ID: "res-1", AppointmentID: "apt-1", Status: types.ResultPending})

	var le *types.LabError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, types.ErrCodeResultExists, le.Code)
}

func TestRepository_CreateResult_EmptyDataIsNull(t *testing.T) {
	repo, mock := setupTestRepository(t)
	now := time.Now()

	mock.ExpectExec("INSERT INTO test_results").
		WithArgs("res-1", "apt-1", "patient-1", types.ResultPending, "", nil, nil,
			"", "", "", "", "tech-1", "", nil, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateResult(context.Background(), &types.TestResult{
		ID: "res-1", AppointmentID: "apt-1", PatientID: "patient-1", Status: types.ResultPending,
		ProcessedBy: "tech-1", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetResultByID(t *testing.T) {
	repo, mock := setupTestRepository(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM test_results WHERE id = \\$1").
		WithArgs("res-1").
		WillReturnRows(sqlmock.NewRows(resultRowColumns).AddRow(
			"res-1", "apt-1", "patient-1", "released", "Normal", []byte(`{"hgb":14.2}`), true,
			"", "", "", "", "tech-1", "doc-1", now, now, now,
		))

	res, err := repo.GetResultByID(context.Background(), "res-1")
	require.NoError(t, err)
	assert.Equal(t, types.ResultReleased, res.Status)
	assert.JSONEq(t, `{"hgb":14.2}`, string(res.ResultData))
	require.NotNil(t, res.IsNormal)
	assert.True(t, *res.IsNormal)
	require.NotNil(t, res.ReleasedAt)
}

func TestRepository_GetResultByAppointment_NotFound(t *testing.T) {
	repo, mock := setupTestRepository(t)

	mock.ExpectQuery("SELECT (.+) FROM test_results WHERE appointment_id = \\$1").
		WillReturnRows(sqlmock.NewRows(resultRowColumns))

	_, err := repo.GetResultByAppointment(context.Background(), "apt-9")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRepository_UpdateContent_Locked(t *testing.T) {
	repo, mock := setupTestRepository(t)

	mock.ExpectExec("UPDATE test_results SET result_text").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateContent(context.Background(), "res-1", editableStatuses, &types.ResultContentRequest{ResultText: "x"}, "tech-1")
	assert.ErrorIs(t, err, types.ErrConflict)
}

func TestRepository_UpdateStatus_Guarded(t *testing.T) {
	repo, mock := setupTestRepository(t)
	res := &types.TestResult{ID: "res-1", Status: types.ResultReviewed, ReviewedBy: "doc-1", UpdatedAt: time.Now()}

	mock.ExpectExec("UPDATE test_results SET status = \\$1").
		WithArgs(types.ResultReviewed, "doc-1", nil, res.UpdatedAt, "res-1", types.ResultCompleted).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), res, types.ResultCompleted)

	var le *types.LabError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, types.ErrCodeInvalidTransition, le.Code)
}

func TestRepository_ListResults_PatientReleased(t *testing.T) {
	repo, mock := setupTestRepository(t)

	mock.ExpectQuery("SELECT (.+) FROM test_results WHERE patient_id = \\$1 AND status = \\$2 ORDER BY created_at DESC LIMIT \\$3 OFFSET \\$4").
		WithArgs("patient-1", types.ResultReleased, 50, 0).
		WillReturnRows(sqlmock.NewRows(resultRowColumns))

	results, err := repo.ListResults(context.Background(), "patient-1", types.ResultReleased, 50, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NoError(t, mock.ExpectationsWereMet())
}
