package interfaces

import (
	"context"
	"time"

	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// NotificationService defines read/unread notification management
type NotificationService interface {
	List(ctx context.Context, actor types.Actor, unreadOnly bool, limit, offset int) ([]*types.Notification, error)
	UnreadCount(ctx context.Context, actor types.Actor) (int, error)
	MarkRead(ctx context.Context, id string, actor types.Actor) error
	MarkAllRead(ctx context.Context, actor types.Actor) (int64, error)
}

// NotificationRepository defines notification persistence
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *types.Notification) error
	ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*types.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
}

// AuditRepository defines audit log persistence
type AuditRepository interface {
	CreateEntry(ctx context.Context, e *types.AuditEntry) error
	ListEntries(ctx context.Context, filters *types.AuditFilters) ([]*types.AuditEntry, error)
}

// ChatLogRepository stores chatbot exchanges
type ChatLogRepository interface {
	SaveExchange(ctx context.Context, l *types.ChatLog) error
}

// SettingsRepository defines system settings persistence
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (*types.Setting, error)
	ListSettings(ctx context.Context) ([]*types.Setting, error)
	UpsertSetting(ctx context.Context, s *types.Setting) error
}

// ProfileRepository defines user profile persistence
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*types.Profile, error)
	UpsertProfile(ctx context.Context, p *types.Profile) error
}

// DocumentStore is an external document database keyed by collection and id
type DocumentStore interface {
	Put(ctx context.Context, collection, id string, doc []byte) error
	Get(ctx context.Context, collection, id string) ([]byte, error)
	Name() string
}
