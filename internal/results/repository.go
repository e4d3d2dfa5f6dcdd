package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/aniemarie21/maes-laboratory-system/pkg/database"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// appointmentUniqueConstraint is PostgreSQL's name for UNIQUE(appointment_id)
const appointmentUniqueConstraint = "test_results_appointment_id_key"

// Repository implements the ResultRepository interface
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new test result repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.ResultRepository {
	return &Repository{db: db, logger: log}
}

const resultColumns = `id, appointment_id, patient_id, status, result_text, result_data, is_normal,
	abnormal_findings, recommendations, technician_notes, doctor_notes, processed_by, reviewed_by,
	released_at, created_at, updated_at`

// CreateResult inserts a new result. A second result for the same
// appointment is a RESULT_EXISTS conflict.
func (r *Repository) CreateResult(ctx context.Context, res *types.TestResult) error {
	query := `INSERT INTO test_results (` + resultColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.db.ExecContext(ctx, query,
		res.ID, res.AppointmentID, res.PatientID, res.Status, res.ResultText, nullableJSON(res.ResultData), res.IsNormal,
		res.AbnormalFindings, res.Recommendations, res.TechnicianNotes, res.DoctorNotes, res.ProcessedBy, res.ReviewedBy,
		res.ReleasedAt, res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, appointmentUniqueConstraint) {
			return types.NewConflictError(types.ErrCodeResultExists, "a result already exists for this appointment", map[string]interface{}{
				"appointment_id": res.AppointmentID,
			})
		}
		r.logger.DatabaseOperation(ctx, "insert", "test_results", err)
		return fmt.Errorf("failed to create test result: %w", err)
	}
	return nil
}

// GetResultByID retrieves a result by ID
func (r *Repository) GetResultByID(ctx context.Context, id string) (*types.TestResult, error) {
	return r.getOne(ctx, "id", id)
}

// GetResultByAppointment retrieves the result of an appointment
func (r *Repository) GetResultByAppointment(ctx context.Context, appointmentID string) (*types.TestResult, error) {
	return r.getOne(ctx, "appointment_id", appointmentID)
}

func (r *Repository) getOne(ctx context.Context, column, value string) (*types.TestResult, error) {
	query := `SELECT ` + resultColumns + ` FROM test_results WHERE ` + column + ` = $1`

	res, err := scanResult(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound, "test result not found")
		}
		return nil, fmt.Errorf("failed to get test result: %w", err)
	}
	return res, nil
}

// UpdateContent writes findings while the stored status is one of editable
func (r *Repository) UpdateContent(ctx context.Context, id string, editable []types.ResultStatus, req *types.ResultContentRequest, processedBy string) error {
	statuses := make([]string, 0, len(editable))
	for _, s := range editable {
		statuses = append(statuses, string(s))
	}

	query := `
		UPDATE test_results
		SET result_text = $1, result_data = $2, is_normal = $3, abnormal_findings = $4,
			recommendations = $5, technician_notes = $6, doctor_notes = $7, processed_by = $8, updated_at = $9
		WHERE id = $10 AND status = ANY($11)`

	result, err := r.db.ExecContext(ctx, query,
		req.ResultText, nullableJSON(req.ResultData), req.IsNormal, req.AbnormalFindings,
		req.Recommendations, req.TechnicianNotes, req.DoctorNotes, processedBy, time.Now(),
		id, pq.Array(statuses),
	)
	if err != nil {
		r.logger.DatabaseOperation(ctx, "update", "test_results", err)
		return fmt.Errorf("failed to update test result: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return types.NewConflictError(types.ErrCodeConflict, "result content can no longer be changed", map[string]interface{}{
			"editable_statuses": statuses,
		})
	}
	return nil
}

// UpdateStatus persists res.Status with its stamps, guarded by from
func (r *Repository) UpdateStatus(ctx context.Context, res *types.TestResult, from types.ResultStatus) error {
	query := `
		UPDATE test_results
		SET status = $1, reviewed_by = $2, released_at = $3, updated_at = $4
		WHERE id = $5 AND status = $6`

	result, err := r.db.ExecContext(ctx, query, res.Status, res.ReviewedBy, res.ReleasedAt, res.UpdatedAt, res.ID, from)
	if err != nil {
		r.logger.DatabaseOperation(ctx, "update", "test_results", err)
		return fmt.Errorf("failed to update test result status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return types.NewConflictError(types.ErrCodeInvalidTransition,
			fmt.Sprintf("result is no longer %s", from),
			map[string]interface{}{"from": from, "to": res.Status})
	}
	return nil
}

// ListResults lists results newest first, optionally by patient and status
func (r *Repository) ListResults(ctx context.Context, patientID string, status types.ResultStatus, limit, offset int) ([]*types.TestResult, error) {
	var conditions []string
	var args []interface{}

	if patientID != "" {
		args = append(args, patientID)
		conditions = append(conditions, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if status != "" {
		args = append(args, status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + resultColumns + ` FROM test_results`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list test results: %w", err)
	}
	defer rows.Close()

	var results []*types.TestResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan test result: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// nullableJSON stores an empty document as SQL NULL
func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(row rowScanner) (*types.TestResult, error) {
	res := &types.TestResult{}
	var data []byte
	err := row.Scan(
		&res.ID, &res.AppointmentID, &res.PatientID, &res.Status, &res.ResultText, &data, &res.IsNormal,
		&res.AbnormalFindings, &res.Recommendations, &res.TechnicianNotes, &res.DoctorNotes, &res.ProcessedBy, &res.ReviewedBy,
		&res.ReleasedAt, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		res.ResultData = data
	}
	return res, nil
}
