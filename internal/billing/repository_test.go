package billing

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

var paymentRowColumns = []string{
	"id", "receipt_number", "appointment_id", "amount", "method", "reference_number", "notes",
	"is_verified", "verified_by", "verified_at", "created_by", "created_at", "updated_at",
}

func setupTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return NewRepository(database.Wrap(sqlDB, logger.Discard()), logger.Discard()).(*Repository), mock
}

func TestRepository_CreatePayment(t *testing.T) {
	repo, mock := setupTestRepository(t)
	now := time.Now()

	mock.ExpectExec("INSERT INTO payments").
		WithArgs("pay-1", "RCP20250113-ABCDEF", "apt-1", sqlmock.AnyArg(), types.MethodCash, "", "",
			false, "", nil, "staff-1", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreatePayment(context.Background(), &types.Payment{
		ID: "pay-1", ReceiptNumber: "RCP20250113-ABCDEF", AppointmentID: "apt-1",
		Amount: decimal.NewFromInt(280), Method: types.MethodCash, CreatedBy: "staff-1",
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreatePayment_ReceiptTaken(t *testing.T) {
	repo, mock := setupTestRepository(t)

	mock.ExpectExec("INSERT INTO payments").
		WillReturnError(&pq.Error{Code: "23505", Constraint: database.ReceiptNumberKey})

	err := repo.CreatePayment(context.Background(), &types.Payment{ID: "pay-1", ReceiptNumber: "RCP20250113-ABCDEF"})
	assert.ErrorIs(t, err, types.ErrReferenceTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetPaymentByID(t *testing.T) {
	repo, mock := setupTestRepository(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE id = \\$1").
		WithArgs("pay-1").
		WillReturnRows(sqlmock.NewRows(paymentRowColumns).AddRow(
			"pay-1", "RCP20250113-ABCDEF", "apt-1", "280.00", "e_wallet", "0917123456789", "",
			true, "tech-1", now, "patient-1", now, now,
		))

	p, err := repo.GetPaymentByID(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, types.MethodEWallet, p.Method)
	assert.True(t, p.IsVerified)
	require.NotNil(t, p.VerifiedAt)
	assert.Equal(t, "280.00", p.Amount.StringFixed(2))
}

func TestRepository_GetPaymentByID_NotFound(t *testing.T) {
	repo, mock := setupTestRepository(t)

	mock.ExpectQuery("SELECT (.+) FROM payments").WillReturnRows(sqlmock.NewRows(paymentRowColumns))

	_, err := repo.GetPaymentByID(context.Background(), "nope")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRepository_ListByAppointment_NullVerifiedAt(t *testing.T) {
	repo, mock := setupTestRepository(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE appointment_id = \\$1 ORDER BY created_at").
		WithArgs("apt-1").
		WillReturnRows(sqlmock.NewRows(paymentRowColumns).AddRow(
			"pay-1", "RCP20250113-ABCDEF", "apt-1", "100.00", "cash", "", "",
			false, "", nil, "patient-1", now, now,
		))

	payments, err := repo.ListByAppointment(context.Background(), "apt-1")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Nil(t, payments[0].VerifiedAt)
}

func TestRepository_MarkVerified(t *testing.T) {
	repo, mock := setupTestRepository(t)
	at := time.Now()

	mock.ExpectExec("UPDATE payments SET is_verified = TRUE").
		WithArgs("tech-1", at, "pay-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE payments SET is_verified = TRUE").
		WithArgs("tech-1", at, "pay-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.MarkVerified(context.Background(), "pay-1", "tech-1", at)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.MarkVerified(context.Background(), "pay-1", "tech-1", at)
	require.NoError(t, err)
	assert.False(t, changed)
}
