package delivery

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db/models"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
)

// Repository loads delivery pricing rules.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListChargeRules returns active distance tiers sorted by start_km.
func (r *Repository) ListChargeRules(ctx context.Context) ([]models.DeliveryChargeRule, error) {
	var rules []models.DeliveryChargeRule
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("start_km ASC").
		Find(&rules).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading delivery charge rules")
	}
	return rules, nil
}

// ActiveOrderValueRule returns the current order-value rule, or nil when none
// is configured.
func (r *Repository) ActiveOrderValueRule(ctx context.Context) (*models.DeliveryOrderValueRule, error) {
	var rule models.DeliveryOrderValueRule
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("updated_at DESC").
		First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading order value rule")
	}
	return &rule, nil
}
