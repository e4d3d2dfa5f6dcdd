package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/aniemarie21/maes-laboratory-system/pkg/database"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// Repository implements the AppointmentRepository interface
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new appointment repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.AppointmentRepository {
	return &Repository{db: db, logger: log}
}

const appointmentColumns = `id, reference, patient_id, scheduled_at, status, priority, discount_policy,
	total_amount, discount_amount, final_amount, hmo_provider, hmo_card_number, notes,
	assigned_staff_id, cancellation_reason, created_at, updated_at`

const defaultListLimit = 50

// CreateAppointment inserts the appointment and its service lines in one transaction.
// A concurrent booking of the same patient slot surfaces as a slot conflict.
func (r *Repository) CreateAppointment(ctx context.Context, apt *types.Appointment) error {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO appointments (` + appointmentColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

		if _, err := tx.ExecContext(ctx, query,
			apt.ID, apt.Reference, apt.PatientID, apt.ScheduledAt, apt.Status, apt.Priority, apt.DiscountPolicy,
			apt.TotalAmount, apt.DiscountAmount, apt.FinalAmount, apt.HMOProvider, apt.HMOCardNumber, apt.Notes,
			apt.AssignedStaffID, apt.CancellationReason, apt.CreatedAt, apt.UpdatedAt,
		); err != nil {
			return err
		}

		lineQuery := `
			INSERT INTO appointment_services (appointment_id, service_id, service_name, price, position)
			VALUES ($1, $2, $3, $4, $5)`
		for i, line := range apt.Services {
			if _, err := tx.ExecContext(ctx, lineQuery, apt.ID, line.ServiceID, line.ServiceName, line.Price, i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if database.IsUniqueViolation(err, database.ActiveSlotIndex) {
			return types.NewSlotConflictError(err)
		}
		if database.IsUniqueViolation(err, database.AppointmentReferenceKey) {
			return types.NewReferenceTakenError(err)
		}
		r.logger.DatabaseOperation(ctx, "insert", "appointments", err)
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// GetAppointmentByID retrieves an appointment with its service lines
func (r *Repository) GetAppointmentByID(ctx context.Context, id string) (*types.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	apt, err := scanAppointment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("appointment not found: %s", id))
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	if err := r.loadServices(ctx, []*types.Appointment{apt}); err != nil {
		return nil, err
	}
	return apt, nil
}

// ListAppointments retrieves appointments matching filters, newest schedule first
func (r *Repository) ListAppointments(ctx context.Context, filters *types.AppointmentFilters) ([]*types.Appointment, error) {
	if filters == nil {
		filters = &types.AppointmentFilters{}
	}

	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filters.PatientID != "" {
		add("patient_id = $%d", filters.PatientID)
	}
	if filters.Status != "" {
		add("status = $%d", filters.Status)
	}
	if !filters.FromDate.IsZero() {
		add("scheduled_at >= $%d", filters.FromDate)
	}
	if !filters.ToDate.IsZero() {
		add("scheduled_at < $%d", filters.ToDate)
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit, filters.Offset)
	query += fmt.Sprintf(" ORDER BY scheduled_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*types.Appointment
	for rows.Next() {
		apt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, apt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadServices(ctx, appointments); err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *Repository) loadServices(ctx context.Context, appointments []*types.Appointment) error {
	if len(appointments) == 0 {
		return nil
	}

	ids := make([]string, len(appointments))
	byID := make(map[string]*types.Appointment, len(appointments))
	for i, apt := range appointments {
		ids[i] = apt.ID
		byID[apt.ID] = apt
	}

	query := `
		SELECT appointment_id, service_id, service_name, price
		FROM appointment_services
		WHERE appointment_id = ANY($1)
		ORDER BY appointment_id, position`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load appointment services: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			aptID string
			line  types.AppointmentService
		)
		if err := rows.Scan(&aptID, &line.ServiceID, &line.ServiceName, &line.Price); err != nil {
			return fmt.Errorf("failed to scan appointment service: %w", err)
		}
		if apt, ok := byID[aptID]; ok {
			apt.Services = append(apt.Services, line)
		}
	}
	return rows.Err()
}

// HasActiveAppointmentAt reports whether the patient holds a pending or
// confirmed appointment at exactly at
func (r *Repository) HasActiveAppointmentAt(ctx context.Context, patientID string, at time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE patient_id = $1 AND scheduled_at = $2 AND status IN ('pending', 'confirmed')
		)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, patientID, at).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check active appointment: %w", err)
	}
	return exists, nil
}

// UpdateStatus moves the appointment from one status to another. The write
// only applies while the row is still in status from.
func (r *Repository) UpdateStatus(ctx context.Context, id string, from, to types.AppointmentStatus, reason string) error {
	query := `
		UPDATE appointments
		SET status = $1, cancellation_reason = $2, updated_at = $3
		WHERE id = $4 AND status = $5`

	result, err := r.db.ExecContext(ctx, query, to, reason, time.Now(), id, from)
	if err != nil {
		r.logger.DatabaseOperation(ctx, "update", "appointments", err)
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return invalidTransition(from, to)
	}
	return nil
}

// AssignStaff records the staff member handling the appointment
func (r *Repository) AssignStaff(ctx context.Context, id, staffID string) error {
	query := `UPDATE appointments SET assigned_staff_id = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, staffID, time.Now(), id)
	if err != nil {
		r.logger.DatabaseOperation(ctx, "update", "appointments", err)
		return fmt.Errorf("failed to assign staff: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("appointment not found: %s", id))
	}
	return nil
}

// GetStats aggregates dashboard counters. An empty patientID covers every
// patient and also sums verified revenue since monthStart.
func (r *Repository) GetStats(ctx context.Context, patientID string, dayStart, dayEnd, monthStart time.Time) (*types.DashboardStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE scheduled_at >= $1 AND scheduled_at < $2),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(DISTINCT patient_id)
		FROM appointments`
	args := []interface{}{dayStart, dayEnd}
	if patientID != "" {
		query += " WHERE patient_id = $3"
		args = append(args, patientID)
	}

	stats := &types.DashboardStats{MonthlyRevenue: decimal.Zero}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalAppointments,
		&stats.TodayAppointments,
		&stats.PendingAppointments,
		&stats.CompletedAppointments,
		&stats.TotalPatients,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment stats: %w", err)
	}

	if patientID != "" {
		stats.TotalPatients = 0
		return stats, nil
	}

	revenueQuery := `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE is_verified = TRUE AND verified_at >= $1`
	if err := r.db.QueryRowContext(ctx, revenueQuery, monthStart).Scan(&stats.MonthlyRevenue); err != nil {
		return nil, fmt.Errorf("failed to get monthly revenue: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*types.Appointment, error) {
	a := &types.Appointment{}
	err := row.Scan(
		&a.ID, &a.Reference, &a.PatientID, &a.ScheduledAt, &a.Status, &a.Priority, &a.DiscountPolicy,
		&a.TotalAmount, &a.DiscountAmount, &a.FinalAmount, &a.HMOProvider, &a.HMOCardNumber, &a.Notes,
		&a.AssignedStaffID, &a.CancellationReason, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}
