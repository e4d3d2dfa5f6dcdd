package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aniemarie21/maes-laboratory-system/pkg/database"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// Repository implements the PaymentRepository interface
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new payment repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.PaymentRepository {
	return &Repository{db: db, logger: log}
}

const paymentColumns = `id, receipt_number, appointment_id, amount, method, reference_number, notes,
	is_verified, verified_by, verified_at, created_by, created_at, updated_at`

// CreatePayment inserts an unverified payment
func (r *Repository) CreatePayment(ctx context.Context, p *types.Payment) error {
	query := `INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.ReceiptNumber, p.AppointmentID, p.Amount, p.Method, p.ReferenceNumber, p.Notes,
		p.IsVerified, p.VerifiedBy, p.VerifiedAt, p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, database.ReceiptNumberKey) {
			return types.NewReferenceTakenError(err)
		}
		r.logger.DatabaseOperation(ctx, "insert", "payments", err)
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetPaymentByID retrieves a payment by ID
func (r *Repository) GetPaymentByID(ctx context.Context, id string) (*types.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("payment not found: %s", id))
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

// ListByAppointment returns an appointment's payments, oldest first
func (r *Repository) ListByAppointment(ctx context.Context, appointmentID string) ([]*types.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE appointment_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*types.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// MarkVerified flags the payment verified unless it already was
func (r *Repository) MarkVerified(ctx context.Context, id, verifierID string, at time.Time) (bool, error) {
	query := `
		UPDATE payments
		SET is_verified = TRUE, verified_by = $1, verified_at = $2, updated_at = $2
		WHERE id = $3 AND is_verified = FALSE`

	result, err := r.db.ExecContext(ctx, query, verifierID, at, id)
	if err != nil {
		r.logger.DatabaseOperation(ctx, "update", "payments", err)
		return false, fmt.Errorf("failed to verify payment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(row rowScanner) (*types.Payment, error) {
	p := &types.Payment{}
	err := row.Scan(
		&p.ID, &p.ReceiptNumber, &p.AppointmentID, &p.Amount, &p.Method, &p.ReferenceNumber, &p.Notes,
		&p.IsVerified, &p.VerifiedBy, &p.VerifiedAt, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}
