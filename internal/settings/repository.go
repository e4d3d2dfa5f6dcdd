package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aniemarie21/maes-laboratory-system/pkg/database"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// Repository implements the SettingsRepository interface
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new settings repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.SettingsRepository {
	return &Repository{db: db, logger: log}
}

// GetSetting loads one setting by key
func (r *Repository) GetSetting(ctx context.Context, key string) (*types.Setting, error) {
	s := &types.Setting{}
	err := r.db.QueryRowContext(ctx,
		`SELECT key, value, description, updated_at FROM system_settings WHERE key = $1`, key,
	).Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("setting not found: %s", key))
		}
		r.logger.DatabaseOperation(ctx, "select", "system_settings", err)
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return s, nil
}

// ListSettings lists settings ordered by key
func (r *Repository) ListSettings(ctx context.Context) ([]*types.Setting, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value, description, updated_at FROM system_settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	settings := []*types.Setting{}
	for rows.Next() {
		s := &types.Setting{}
		if err := rows.Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// UpsertSetting inserts or replaces a setting
func (r *Repository) UpsertSetting(ctx context.Context, s *types.Setting) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO system_settings (key, value, description, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, description = EXCLUDED.description, updated_at = EXCLUDED.updated_at`,
		s.Key, s.Value, s.Description, s.UpdatedAt,
	)
	if err != nil {
		r.logger.DatabaseOperation(ctx, "upsert", "system_settings", err)
		return fmt.Errorf("failed to upsert setting: %w", err)
	}
	return nil
}
