package catalog

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

// Repository implements the CatalogRepository interface
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new catalog repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.CatalogRepository {
	return &Repository{db: db, logger: log}
}

const serviceColumns = `id, name, department_id, description, price, duration_minutes, sample_type,
	requires_fasting, preparation_instructions, normal_range, is_available, created_at, updated_at`

// CreateDepartment inserts a department
func (r *Repository) CreateDepartment(ctx context.Context, dept *types.Department) error {
	query := `
		INSERT INTO departments (id, name, description, location, phone, email, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		dept.ID, dept.Name, dept.Description, dept.Location, dept.Phone, dept.Email,
		dept.IsActive, dept.CreatedAt, dept.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return types.NewConflictError(types.ErrCodeConflict, "a department with this name already exists", nil)
		}
		r.logger.DatabaseOperation(ctx, "insert", "departments", err)
		return fmt.Errorf("failed to create department: %w", err)
	}
	return nil
}

// GetDepartmentByID retrieves a department by ID
func (r *Repository) GetDepartmentByID(ctx context.Context, id string) (*types.Department, error) {
	query := `
		SELECT id, name, description, location, phone, email, is_active, created_at, updated_at
		FROM departments WHERE id = $1`

	d := &types.Department{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.Name, &d.Description, &d.Location, &d.Phone, &d.Email, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("department not found: %s", id))
		}
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	return d, nil
}

// ListDepartments returns active departments ordered by name
func (r *Repository) ListDepartments(ctx context.Context) ([]*types.Department, error) {
	query := `
		SELECT id, name, description, location, phone, email, is_active, created_at, updated_at
		FROM departments WHERE is_active = TRUE ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	var depts []*types.Department
	for rows.Next() {
		d := &types.Department{}
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.Location, &d.Phone, &d.Email, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		depts = append(depts, d)
	}
	return depts, rows.Err()
}

// CreateService inserts a service
func (r *Repository) CreateService(ctx context.Context, svc *types.Service) error {
	query := `INSERT INTO services (` + serviceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.ExecContext(ctx, query,
		svc.ID, svc.Name, svc.DepartmentID, svc.Description, svc.Price, svc.DurationMinutes, svc.SampleType,
		svc.RequiresFasting, svc.PreparationInstructions, svc.NormalRange, svc.IsAvailable, svc.CreatedAt, svc.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return types.NewConflictError(types.ErrCodeConflict, "this department already offers a service with that name", nil)
		}
		r.logger.DatabaseOperation(ctx, "insert", "services", err)
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

// GetServiceByID retrieves a service by ID
func (r *Repository) GetServiceByID(ctx context.Context, id string) (*types.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	svc, err := scanService(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("service not found: %s", id))
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return svc, nil
}

// GetServicesByIDs returns the services with the given ids, in the order of ids.
// A missing id is a not-found error.
func (r *Repository) GetServicesByIDs(ctx context.Context, ids []string) ([]*types.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get services: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*types.Service, len(ids))
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		byID[svc.ID] = svc
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	services := make([]*types.Service, 0, len(ids))
	for _, id := range ids {
		svc, ok := byID[id]
		if !ok {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("service not found: %s", id))
		}
		services = append(services, svc)
	}
	return services, nil
}

// ListServices lists services matching filters, ordered by name
func (r *Repository) ListServices(ctx context.Context, filters *types.ServiceFilters) ([]*types.Service, error) {
	var (
		where []string
		args  []interface{}
	)
	if filters != nil {
		if filters.DepartmentID != "" {
			args = append(args, filters.DepartmentID)
			where = append(where, fmt.Sprintf("department_id = $%d", len(args)))
		}
		if filters.AvailableOnly {
			where = append(where, "is_available = TRUE")
		}
	}

	query := `SELECT ` + serviceColumns + ` FROM services`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []*types.Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

// UpdateService applies the non-nil fields of updates
func (r *Repository) UpdateService(ctx context.Context, id string, updates *types.ServiceUpdates) error {
	var (
		setParts []string
		args     []interface{}
	)
	set := func(column string, value interface{}) {
		args = append(args, value)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if updates.Description != nil {
		set("description", *updates.Description)
	}
	if updates.Price != nil {
		set("price", *updates.Price)
	}
	if updates.DurationMinutes != nil {
		set("duration_minutes", *updates.DurationMinutes)
	}
	if updates.SampleType != nil {
		set("sample_type", *updates.SampleType)
	}
	if updates.RequiresFasting != nil {
		set("requires_fasting", *updates.RequiresFasting)
	}
	if updates.PreparationInstructions != nil {
		set("preparation_instructions", *updates.PreparationInstructions)
	}
	if updates.NormalRange != nil {
		set("normal_range", *updates.NormalRange)
	}
	if updates.IsAvailable != nil {
		set("is_available", *updates.IsAvailable)
	}

	if len(setParts) == 0 {
		return types.NewValidationError(types.ErrCodeInvalidInput, "no updates provided", nil)
	}
	set("updated_at", time.Now())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE services SET %s WHERE id = $%d", strings.Join(setParts, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.DatabaseOperation(ctx, "update", "services", err)
		return fmt.Errorf("failed to update service: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("service not found: %s", id))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanService(row rowScanner) (*types.Service, error) {
	s := &types.Service{}
	err := row.Scan(
		&s.ID, &s.Name, &s.DepartmentID, &s.Description, &s.Price, &s.DurationMinutes, &s.SampleType,
		&s.RequiresFasting, &s.PreparationInstructions, &s.NormalRange, &s.IsAvailable, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}
