package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/aniemarie21/maes-laboratory-system/pkg/database"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// Repository implements the NotificationRepository interface
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new notification repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.NotificationRepository {
	return &Repository{db: db, logger: log}
}

const notificationColumns = `id, user_id, type, title, message, appointment_id, payment_id, is_read, read_at, created_at`

// CreateNotification inserts an unread notification
func (r *Repository) CreateNotification(ctx context.Context, n *types.Notification) error {
	query := `INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.AppointmentID, n.PaymentID, n.IsRead, n.ReadAt, n.CreatedAt,
	)
	if err != nil {
		r.logger.DatabaseOperation(ctx, "insert", "notifications", err)
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListForUser lists a user's notifications, newest first
func (r *Repository) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*types.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*types.Notification
	for rows.Next() {
		n := &types.Notification{}
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.AppointmentID, &n.PaymentID, &n.IsRead, &n.ReadAt, &n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// UnreadCount counts a user's unread notifications
func (r *Repository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one of the user's notifications read. A notification owned
// by someone else is reported as not found.
func (r *Repository) MarkRead(ctx context.Context, id, userID string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = COALESCE(read_at, $1) WHERE id = $2 AND user_id = $3`,
		at, id, userID,
	)
	if err != nil {
		r.logger.DatabaseOperation(ctx, "update", "notifications", err)
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("notification not found: %s", id))
	}
	return nil
}

// MarkAllRead marks every unread notification of the user read
func (r *Repository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = $1 WHERE user_id = $2 AND is_read = FALSE`,
		at, userID,
	)
	if err != nil {
		r.logger.DatabaseOperation(ctx, "update", "notifications", err)
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.RowsAffected()
}
