// Package profile keeps each user's contact details and notification preference.
package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aniemarie21/maes-laboratory-system/internal/events"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// Service reads and updates the caller's own profile
type Service struct {
	repository interfaces.ProfileRepository
	events     events.Publisher
	logger     *logger.Logger
	now        func() time.Time
}

// NewService creates a new profile service
func NewService(repo interfaces.ProfileRepository, pub events.Publisher, log *logger.Logger) *Service {
	return &Service{repository: repo, events: pub, logger: log, now: time.Now}
}

// Get returns the actor's profile. A user who never saved one gets an
// empty profile with the default preference.
func (s *Service) Get(ctx context.Context, actor types.Actor) (*types.Profile, error) {
	if actor.UserID == "" {
		return nil, types.NewAuthenticationError(types.ErrCodeUnauthorized, "authentication required")
	}

	p, err := s.repository.GetProfile(ctx, actor.UserID)
	if errors.Is(err, types.ErrNotFound) {
		return &types.Profile{UserID: actor.UserID, NotificationPreference: types.PreferEmail}, nil
	}
	return p, err
}

// Upsert saves the actor's profile
func (s *Service) Upsert(ctx context.Context, req *types.ProfileUpdateRequest, actor types.Actor) (*types.Profile, error) {
	if actor.UserID == "" {
		return nil, types.NewAuthenticationError(types.ErrCodeUnauthorized, "authentication required")
	}

	pref := req.NotificationPreference
	if pref == "" {
		pref = types.PreferEmail
	}
	if !pref.Valid() {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "request validation failed", map[string]interface{}{
			"notification_preference": "must be one of: email sms both none",
		})
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "request validation failed", map[string]interface{}{
			"full_name": "is required",
		})
	}

	p := &types.Profile{
		UserID:                 actor.UserID,
		FullName:               fullName,
		Email:                  strings.TrimSpace(req.Email),
		Phone:                  strings.TrimSpace(req.Phone),
		NotificationPreference: pref,
		UpdatedAt:              s.now(),
	}
	if err := s.repository.UpsertProfile(ctx, p); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithField("notification_preference", pref).Info("Profile updated")
	s.events.Publish(ctx, events.ProfileUpdated{Profile: p, ActorID: actor.UserID})
	return p, nil
}
