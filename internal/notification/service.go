package notification

import (
	"context"
	"time"

	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Service implements the NotificationService interface. Every operation is
// scoped to the calling actor's own notifications.
type Service struct {
	repository interfaces.NotificationRepository
	logger     *logger.Logger
	now        func() time.Time
}

// NewService creates a new notification service
func NewService(repo interfaces.NotificationRepository, log *logger.Logger) *Service {
	return &Service{repository: repo, logger: log, now: time.Now}
}

// List returns the actor's notifications
func (s *Service) List(ctx context.Context, actor types.Actor, unreadOnly bool, limit, offset int) ([]*types.Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repository.ListForUser(ctx, actor.UserID, unreadOnly, limit, offset)
}

// UnreadCount returns how many of the actor's notifications are unread
func (s *Service) UnreadCount(ctx context.Context, actor types.Actor) (int, error) {
	return s.repository.UnreadCount(ctx, actor.UserID)
}

// MarkRead marks one of the actor's notifications read
func (s *Service) MarkRead(ctx context.Context, id string, actor types.Actor) error {
	return s.repository.MarkRead(ctx, id, actor.UserID, s.now())
}

// MarkAllRead marks all of the actor's notifications read
func (s *Service) MarkAllRead(ctx context.Context, actor types.Actor) (int64, error) {
	n, err := s.repository.MarkAllRead(ctx, actor.UserID, s.now())
	if err != nil {
		return 0, err
	}
	s.logger.WithContext(ctx).WithField("count", n).Debug("Notifications marked read")
	return n, nil
}
