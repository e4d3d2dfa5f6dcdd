package booking

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/aniemarie21/maes-laboratory-system/pkg/config"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// RateSource resolves the discount rate of a policy
type RateSource interface {
	Rate(ctx context.Context, policy types.DiscountPolicy) (decimal.Decimal, error)
}

// ConfigRates serves the default rates from configuration
type ConfigRates struct {
	rates map[types.DiscountPolicy]decimal.Decimal
}

// NewConfigRates builds a RateSource from the pricing section
func NewConfigRates(cfg config.PricingConfig) *ConfigRates {
	return &ConfigRates{rates: map[types.DiscountPolicy]decimal.Decimal{
		types.DiscountNone:    decimal.Zero,
		types.DiscountHMO:     decimal.NewFromFloat(cfg.HMORate),
		types.DiscountSenior:  decimal.NewFromFloat(cfg.SeniorRate),
		types.DiscountPWD:     decimal.NewFromFloat(cfg.PWDRate),
		types.DiscountStudent: decimal.NewFromFloat(cfg.StudentRate),
	}}
}

// Rate implements RateSource
func (c *ConfigRates) Rate(_ context.Context, policy types.DiscountPolicy) (decimal.Decimal, error) {
	rate, ok := c.rates[policy]
	if !ok {
		return decimal.Zero, unknownPolicy(policy)
	}
	return rate, nil
}

func unknownPolicy(policy types.DiscountPolicy) error {
	return types.NewValidationError(types.ErrCodeInvalidInput, "unknown discount policy", map[string]interface{}{
		"discount_policy": policy,
	})
}

var one = decimal.NewFromInt(1)

// ComputeQuote prices services under a policy at the given rate.
//
// total is the sum of prices, discount is total*rate rounded to centavos and
// kept within [0, total], and final is total minus discount. A rate outside
// [0,1] is clamped first.
func ComputeQuote(services []*types.Service, policy types.DiscountPolicy, rate decimal.Decimal) *types.Quote {
	if rate.IsNegative() {
		rate = decimal.Zero
	}
	if rate.GreaterThan(one) {
		rate = one
	}

	total := decimal.Zero
	for _, svc := range services {
		total = total.Add(svc.Price)
	}

	discount := total.Mul(rate).Round(2)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(total) {
		discount = total
	}

	final := total.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}

	return &types.Quote{
		Policy:   policy,
		Rate:     rate,
		Total:    total,
		Discount: discount,
		Final:    final,
	}
}

// Pricer quotes services using a RateSource
type Pricer struct {
	rates RateSource
}

// NewPricer creates a pricer
func NewPricer(rates RateSource) *Pricer {
	return &Pricer{rates: rates}
}

// Quote prices services under policy; an empty policy means none
func (p *Pricer) Quote(ctx context.Context, services []*types.Service, policy types.DiscountPolicy) (*types.Quote, error) {
	if policy == "" {
		policy = types.DiscountNone
	}
	if !policy.Valid() {
		return nil, unknownPolicy(policy)
	}

	rate, err := p.rates.Rate(ctx, policy)
	if err != nil {
		return nil, err
	}
	return ComputeQuote(services, policy, rate), nil
}
