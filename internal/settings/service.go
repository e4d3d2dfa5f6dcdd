package settings

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aniemarie21/maes-laboratory-system/internal/booking"
	"github.com/aniemarie21/maes-laboratory-system/internal/events"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/rbac"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// DiscountPrefix prefixes settings that override a discount rate
const DiscountPrefix = "discount."

var keyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z0-9_]+)*$`)

// DiscountKey returns the setting key that overrides policy's rate
func DiscountKey(policy types.DiscountPolicy) string {
	return DiscountPrefix + string(policy)
}

// Service manages system settings
type Service struct {
	repository interfaces.SettingsRepository
	events     events.Publisher
	logger     *logger.Logger
	now        func() time.Time
}

// NewService creates a new settings service
func NewService(repo interfaces.SettingsRepository, pub events.Publisher, log *logger.Logger) *Service {
	return &Service{repository: repo, events: pub, logger: log, now: time.Now}
}

// List returns every setting; admin only
func (s *Service) List(ctx context.Context, actor types.Actor) ([]*types.Setting, error) {
	if err := rbac.Require(actor, rbac.PermManageSettings); err != nil {
		return nil, err
	}
	return s.repository.ListSettings(ctx)
}

// Get returns one setting; admin only
func (s *Service) Get(ctx context.Context, key string, actor types.Actor) (*types.Setting, error) {
	if err := rbac.Require(actor, rbac.PermManageSettings); err != nil {
		return nil, err
	}
	return s.repository.GetSetting(ctx, key)
}

// Set creates or replaces a setting; admin only
func (s *Service) Set(ctx context.Context, key string, req *types.SettingRequest, actor types.Actor) (*types.Setting, error) {
	if err := rbac.Require(actor, rbac.PermManageSettings); err != nil {
		return nil, err
	}

	value := strings.TrimSpace(req.Value)
	if err := validateSetting(key, value); err != nil {
		return nil, err
	}

	setting := &types.Setting{
		Key:         key,
		Value:       value,
		Description: req.Description,
		UpdatedAt:   s.now(),
	}
	if err := s.repository.UpsertSetting(ctx, setting); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"key":   key,
		"value": value,
	}).Info("Setting updated")

	s.events.Publish(ctx, events.SettingChanged{Setting: setting, ActorID: actor.UserID})
	return setting, nil
}

func validateSetting(key, value string) error {
	if len(key) > 100 || !keyPattern.MatchString(key) {
		return types.NewValidationError(types.ErrCodeInvalidInput, "invalid setting key", map[string]interface{}{
			"key": "must be lowercase dotted words, at most 100 characters",
		})
	}
	if value == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "request validation failed", map[string]interface{}{
			"value": "is required",
		})
	}

	if !strings.HasPrefix(key, DiscountPrefix) {
		return nil
	}
	policy := types.DiscountPolicy(strings.TrimPrefix(key, DiscountPrefix))
	if !policy.Valid() {
		return types.NewValidationError(types.ErrCodeInvalidInput, "unknown discount policy", map[string]interface{}{
			"discount_policy": policy,
		})
	}
	if _, err := parseRate(value); err != nil {
		return types.NewValidationError(types.ErrCodeInvalidInput, "invalid discount rate", map[string]interface{}{
			"value": err.Error(),
		})
	}
	return nil
}

func parseRate(value string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, errors.New("must be a decimal number")
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("must be between 0 and 1, got %s", rate)
	}
	return rate, nil
}

// Rates overlays discount.<policy> settings on a fallback rate source
type Rates struct {
	repository interfaces.SettingsRepository
	fallback   booking.RateSource
	logger     *logger.Logger
}

// NewRates creates a settings-backed booking.RateSource
func NewRates(repo interfaces.SettingsRepository, fallback booking.RateSource, log *logger.Logger) *Rates {
	return &Rates{repository: repo, fallback: fallback, logger: log}
}

// Rate implements booking.RateSource. A missing or unreadable setting
// falls back to the configured rate.
func (r *Rates) Rate(ctx context.Context, policy types.DiscountPolicy) (decimal.Decimal, error) {
	setting, err := r.repository.GetSetting(ctx, DiscountKey(policy))
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			r.logger.WithContext(ctx).WithError(err).WithField("discount_policy", policy).Warn("Failed to read discount setting")
		}
		return r.fallback.Rate(ctx, policy)
	}

	rate, err := parseRate(setting.Value)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("key", setting.Key).Warn("Ignoring invalid discount setting")
		return r.fallback.Rate(ctx, policy)
	}
	return rate, nil
}
