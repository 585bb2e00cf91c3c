package delivery

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/config"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db/models"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/logger"
)

type stubRuleSource struct {
	chargeRules    []models.DeliveryChargeRule
	orderValueRule *models.DeliveryOrderValueRule
	loadErr        error
	listCalls      int
}

func (s *stubRuleSource) ListChargeRules(ctx context.Context) ([]models.DeliveryChargeRule, error) {
	s.listCalls++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.chargeRules, nil
}

func (s *stubRuleSource) ActiveOrderValueRule(ctx context.Context) (*models.DeliveryOrderValueRule, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.orderValueRule, nil
}

func standardTiers() []models.DeliveryChargeRule {
	return []models.DeliveryChargeRule{
		{StartKm: decimal.Zero, EndKm: decimal.NewFromInt(5), Price: decimal.NewFromInt(40)},
		{StartKm: decimal.NewFromInt(5), EndKm: decimal.NewFromInt(10), Price: decimal.NewFromInt(60)},
		{StartKm: decimal.NewFromInt(10), EndKm: decimal.NewFromInt(15), Price: decimal.NewFromInt(80)},
	}
}

func newTestEngine(t *testing.T, rules *stubRuleSource, ttl time.Duration) *Engine {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "delivery-test", Output: io.Discard})
	cfg := config.DeliveryConfig{FallbackCharge: 50}
	engine, err := NewEngine(rules, NewRuleCache(ttl), cfg, logg, nil)
	require.NoError(t, err)
	return engine
}

func TestCalculateMatchesDistanceTier(t *testing.T) {
	rules := &stubRuleSource{chargeRules: standardTiers()}
	engine := newTestEngine(t, rules, time.Minute)
	ctx := context.Background()

	quote := engine.Calculate(ctx, decimal.NewFromInt(12), decimal.NewFromInt(300))
	assert.True(t, quote.Charge.Equal(decimal.NewFromInt(80)))
	assert.False(t, quote.IsFree)
	assert.Equal(t, enums.DeliveryFeeMethodDistance, quote.Method)
}

func TestCalculateClampsOutOfRangeDistances(t *testing.T) {
	tiers := []models.DeliveryChargeRule{
		{StartKm: decimal.NewFromInt(1), EndKm: decimal.NewFromInt(5), Price: decimal.NewFromInt(40)},
		{StartKm: decimal.NewFromInt(5), EndKm: decimal.NewFromInt(10), Price: decimal.NewFromInt(60)},
		{StartKm: decimal.NewFromInt(10), EndKm: decimal.NewFromInt(15), Price: decimal.NewFromInt(80)},
	}
	rules := &stubRuleSource{chargeRules: tiers}
	engine := newTestEngine(t, rules, time.Minute)
	ctx := context.Background()

	below := engine.Calculate(ctx, decimal.NewFromFloat(0.5), decimal.NewFromInt(300))
	assert.True(t, below.Charge.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, enums.DeliveryFeeMethodDistance, below.Method)

	above := engine.Calculate(ctx, decimal.NewFromInt(20), decimal.NewFromInt(300))
	assert.True(t, above.Charge.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, enums.DeliveryFeeMethodDistance, above.Method)
}

func TestCalculateFreeDeliveryThresholdWinsOverDistance(t *testing.T) {
	rules := &stubRuleSource{
		chargeRules: standardTiers(),
		orderValueRule: &models.DeliveryOrderValueRule{
			Threshold: decimal.NewFromInt(500),
			Type:      enums.OrderValueRuleTypeFree,
		},
	}
	engine := newTestEngine(t, rules, time.Minute)

	quote := engine.Calculate(context.Background(), decimal.NewFromInt(5), decimal.NewFromInt(600))
	assert.True(t, quote.Charge.IsZero())
	assert.True(t, quote.IsFree)
	assert.Equal(t, enums.DeliveryFeeMethodOrderValue, quote.Method)
}

func TestCalculateFixedPriceRule(t *testing.T) {
	rules := &stubRuleSource{
		chargeRules: standardTiers(),
		orderValueRule: &models.DeliveryOrderValueRule{
			Threshold:  decimal.NewFromInt(500),
			Type:       enums.OrderValueRuleTypeFixed,
			FixedPrice: decimal.NewFromInt(25),
		},
	}
	engine := newTestEngine(t, rules, time.Minute)
	ctx := context.Background()

	over := engine.Calculate(ctx, decimal.NewFromInt(12), decimal.NewFromInt(600))
	assert.True(t, over.Charge.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, enums.DeliveryFeeMethodOrderValue, over.Method)

	// below the threshold the distance table still applies
	under := engine.Calculate(ctx, decimal.NewFromInt(12), decimal.NewFromInt(300))
	assert.True(t, under.Charge.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, enums.DeliveryFeeMethodDistance, under.Method)
}

func TestCalculateFallsBackWhenRulesUnavailable(t *testing.T) {
	rules := &stubRuleSource{loadErr: errors.New("db down")}
	engine := newTestEngine(t, rules, time.Minute)

	quote := engine.Calculate(context.Background(), decimal.NewFromInt(3), decimal.NewFromInt(300))
	assert.True(t, quote.Charge.Equal(decimal.NewFromInt(50)))
	assert.False(t, quote.IsFree)
	assert.Equal(t, enums.DeliveryFeeMethodFallback, quote.Method)
}

func TestCalculateFallsBackOnEmptyTierTable(t *testing.T) {
	rules := &stubRuleSource{}
	engine := newTestEngine(t, rules, time.Minute)

	quote := engine.Calculate(context.Background(), decimal.NewFromInt(3), decimal.NewFromInt(300))
	assert.True(t, quote.Charge.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, enums.DeliveryFeeMethodFallback, quote.Method)
}

func TestCalculateUsesCacheUntilInvalidated(t *testing.T) {
	rules := &stubRuleSource{chargeRules: standardTiers()}
	cache := NewRuleCache(time.Minute)
	logg := logger.New(logger.Options{ServiceName: "delivery-test", Output: io.Discard})
	cfg := config.DeliveryConfig{FallbackCharge: 50}
	engine, err := NewEngine(rules, cache, cfg, logg, nil)
	require.NoError(t, err)
	ctx := context.Background()

	engine.Calculate(ctx, decimal.NewFromInt(3), decimal.NewFromInt(300))
	engine.Calculate(ctx, decimal.NewFromInt(7), decimal.NewFromInt(300))
	assert.Equal(t, 1, rules.listCalls)
	assert.Equal(t, 3, cache.Size())
	assert.False(t, cache.IsExpired())

	cache.Invalidate()
	assert.True(t, cache.IsExpired())
	assert.Equal(t, 0, cache.Size())

	engine.Calculate(ctx, decimal.NewFromInt(3), decimal.NewFromInt(300))
	assert.Equal(t, 2, rules.listCalls)
}

func TestRuleCacheExpiresAfterTTL(t *testing.T) {
	cache := NewRuleCache(time.Minute)
	current := time.Now()
	cache.now = func() time.Time { return current }

	cache.Put(&ruleSnapshot{chargeRules: standardTiers()})
	assert.False(t, cache.IsExpired())
	assert.NotNil(t, cache.Get())

	current = current.Add(2 * time.Minute)
	assert.True(t, cache.IsExpired())
	assert.Nil(t, cache.Get())
}
