package delivery

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/config"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db/models"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/logger"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/metrics"
)

// Quote is the result of one delivery fee calculation.
type Quote struct {
	Charge decimal.Decimal
	IsFree bool
	Method enums.DeliveryFeeMethod
}

type ruleSource interface {
	ListChargeRules(ctx context.Context) ([]models.DeliveryChargeRule, error)
	ActiveOrderValueRule(ctx context.Context) (*models.DeliveryOrderValueRule, error)
}

// Engine computes the delivery charge for a checkout from cached order-value
// and distance-tier rules. When the rules cannot be loaded at all it degrades
// to a fixed fallback charge instead of failing the checkout.
type Engine struct {
	rules   ruleSource
	cache   *RuleCache
	logg    *logger.Logger
	metrics *metrics.PipelineMetrics

	fallbackCharge decimal.Decimal
}

// NewEngine wires the engine. metrics may be nil.
func NewEngine(rules ruleSource, cache *RuleCache, cfg config.DeliveryConfig, logg *logger.Logger, pm *metrics.PipelineMetrics) (*Engine, error) {
	if rules == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "rule source is required")
	}
	if cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "rule cache is required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger is required")
	}
	return &Engine{
		rules:          rules,
		cache:          cache,
		logg:           logg,
		metrics:        pm,
		fallbackCharge: decimal.NewFromInt(cfg.FallbackCharge),
	}, nil
}

// Calculate resolves the delivery charge for the given distance and order
// value. Order-value rules take precedence over distance tiers; a distance
// outside every tier clamps to the nearest boundary tier.
func (e *Engine) Calculate(ctx context.Context, distanceKm, orderValue decimal.Decimal) Quote {
	snapshot := e.cache.Get()
	if snapshot != nil {
		e.recordCache("hit")
	} else {
		loaded, err := e.loadSnapshot(ctx)
		if err != nil {
			e.logg.Error(ctx, "delivery rules unavailable, using fallback charge", err)
			e.recordMethod(enums.DeliveryFeeMethodFallback)
			return Quote{
				Charge: e.fallbackCharge,
				IsFree: false,
				Method: enums.DeliveryFeeMethodFallback,
			}
		}
		snapshot = loaded
	}

	if rule := snapshot.orderValueRule; rule != nil && orderValue.GreaterThanOrEqual(rule.Threshold) {
		switch rule.Type {
		case enums.OrderValueRuleTypeFree:
			e.recordMethod(enums.DeliveryFeeMethodOrderValue)
			return Quote{
				Charge: decimal.Zero,
				IsFree: true,
				Method: enums.DeliveryFeeMethodOrderValue,
			}
		case enums.OrderValueRuleTypeFixed:
			e.recordMethod(enums.DeliveryFeeMethodOrderValue)
			return Quote{
				Charge: rule.FixedPrice,
				IsFree: rule.FixedPrice.IsZero(),
				Method: enums.DeliveryFeeMethodOrderValue,
			}
		}
	}

	tiers := snapshot.chargeRules
	if len(tiers) == 0 {
		e.recordMethod(enums.DeliveryFeeMethodFallback)
		return Quote{
			Charge: e.fallbackCharge,
			IsFree: false,
			Method: enums.DeliveryFeeMethodFallback,
		}
	}

	price := e.matchTier(tiers, distanceKm)
	e.recordMethod(enums.DeliveryFeeMethodDistance)
	return Quote{
		Charge: price,
		IsFree: price.IsZero(),
		Method: enums.DeliveryFeeMethodDistance,
	}
}

func (e *Engine) loadSnapshot(ctx context.Context) (*ruleSnapshot, error) {
	e.recordCache("miss")

	chargeRules, err := e.rules.ListChargeRules(ctx)
	if err != nil {
		return nil, err
	}
	orderValueRule, err := e.rules.ActiveOrderValueRule(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := &ruleSnapshot{
		chargeRules:    chargeRules,
		orderValueRule: orderValueRule,
	}
	e.cache.Put(snapshot)
	return snapshot, nil
}

// matchTier returns the price of the tier containing distanceKm, clamping to
// the nearest boundary tier when the distance falls outside the table. Tiers
// arrive sorted by start_km.
func (e *Engine) matchTier(tiers []models.DeliveryChargeRule, distanceKm decimal.Decimal) decimal.Decimal {
	for _, tier := range tiers {
		if distanceKm.GreaterThanOrEqual(tier.StartKm) && distanceKm.LessThanOrEqual(tier.EndKm) {
			return tier.Price
		}
	}
	if distanceKm.LessThan(tiers[0].StartKm) {
		return tiers[0].Price
	}
	return tiers[len(tiers)-1].Price
}

func (e *Engine) recordMethod(method enums.DeliveryFeeMethod) {
	if e.metrics != nil {
		e.metrics.IncDeliveryFee(method.String())
	}
}

func (e *Engine) recordCache(result string) {
	if e.metrics != nil {
		e.metrics.IncRuleCache(result)
	}
}
