package profile

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

// Repository implements the ProfileRepository interface
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new profile repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.ProfileRepository {
	return &Repository{db: db, logger: log}
}

// GetProfile loads a profile by user id
func (r *Repository) GetProfile(ctx context.Context, userID string) (*types.Profile, error) {
	p := &types.Profile{}
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, full_name, email, phone, notification_preference, updated_at
		FROM profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.FullName, &p.Email, &p.Phone, &p.NotificationPreference, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("profile not found: %s", userID))
		}
		r.logger.DatabaseOperation(ctx, "select", "profiles", err)
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// UpsertProfile inserts or replaces a profile
func (r *Repository) UpsertProfile(ctx context.Context, p *types.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, full_name, email, phone, notification_preference, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET full_name = EXCLUDED.full_name, email = EXCLUDED.email, phone = EXCLUDED.phone,
			notification_preference = EXCLUDED.notification_preference, updated_at = EXCLUDED.updated_at`,
		p.UserID, p.FullName, p.Email, p.Phone, p.NotificationPreference, p.UpdatedAt,
	)
	if err != nil {
		r.logger.DatabaseOperation(ctx, "upsert", "profiles", err)
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
