package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/aniemarie21/maes-laboratory-system/pkg/database"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

const defaultListLimit = 100

// Repository implements the AuditRepository interface
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new audit repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.AuditRepository {
	return &Repository{db: db, logger: log}
}

// CreateEntry appends an audit row
func (r *Repository) CreateEntry(ctx context.Context, e *types.AuditEntry) error {
	var changes interface{}
	if len(e.Changes) > 0 {
		changes = []byte(e.Changes)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_id, action, entity, entity_id, changes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.ActorID, e.Action, e.Entity, e.EntityID, changes, e.CreatedAt,
	)
	if err != nil {
		r.logger.DatabaseOperation(ctx, "insert", "audit_logs", err)
		return fmt.Errorf("failed to create audit entry: %w", err)
	}
	return nil
}

// ListEntries lists audit rows newest first
func (r *Repository) ListEntries(ctx context.Context, filters *types.AuditFilters) ([]*types.AuditEntry, error) {
	var conditions []string
	var args []interface{}

	if filters.ActorID != "" {
		args = append(args, filters.ActorID)
		conditions = append(conditions, fmt.Sprintf("actor_id = $%d", len(args)))
	}
	if filters.Entity != "" {
		args = append(args, filters.Entity)
		conditions = append(conditions, fmt.Sprintf("entity = $%d", len(args)))
	}
	if filters.EntityID != "" {
		args = append(args, filters.EntityID)
		conditions = append(conditions, fmt.Sprintf("entity_id = $%d", len(args)))
	}

	query := `SELECT id, actor_id, action, entity, entity_id, changes, created_at FROM audit_logs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit, filters.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*types.AuditEntry
	for rows.Next() {
		e := &types.AuditEntry{}
		var changes []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Entity, &e.EntityID, &changes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if len(changes) > 0 {
			e.Changes = changes
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
