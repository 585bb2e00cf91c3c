package delivery

import (
	"sync"
	"time"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db/models"
)

// ruleSnapshot is what one cache fill captures: the full tier table plus the
// single active order-value rule.
type ruleSnapshot struct {
	chargeRules    []models.DeliveryChargeRule
	orderValueRule *models.DeliveryOrderValueRule
}

// RuleCache holds delivery rules in process memory with a TTL. Operators can
// inspect freshness via IsExpired and Size, and rule edits upstream must call
// Invalidate.
type RuleCache struct {
	mu       sync.RWMutex
	ttl      time.Duration
	filledAt time.Time
	snapshot *ruleSnapshot

	now func() time.Time
}

// NewRuleCache builds an empty cache with the given TTL.
func NewRuleCache(ttl time.Duration) *RuleCache {
	return &RuleCache{
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns the cached snapshot, or nil when empty or expired.
func (c *RuleCache) Get() *ruleSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil || c.expiredLocked() {
		return nil
	}
	return c.snapshot
}

// Put replaces the cached snapshot and resets the TTL clock.
func (c *RuleCache) Put(snapshot *ruleSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = snapshot
	c.filledAt = c.now()
}

// Invalidate drops the snapshot so the next read refills from the source.
func (c *RuleCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
	c.filledAt = time.Time{}
}

// IsExpired reports whether the cached snapshot is absent or past its TTL.
func (c *RuleCache) IsExpired() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot == nil || c.expiredLocked()
}

// Size returns the number of cached distance tiers.
func (c *RuleCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return 0
	}
	return len(c.snapshot.chargeRules)
}

func (c *RuleCache) expiredLocked() bool {
	return c.now().Sub(c.filledAt) > c.ttl
}
