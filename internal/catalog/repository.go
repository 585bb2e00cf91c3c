package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db/models"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
)

// Repository loads the reference data consumed by checkout validation:
// products, coupons, and the active GST split.
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

// FindProductByID loads one product regardless of active flag.
func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading product")
	}
	return &product, nil
}

// FindProductsByIDs loads the requested products keyed by ID. Missing or
// inactive products are simply absent from the result, the caller decides
// whether that is an error.
func (r *Repository) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []models.Product
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND active = ?", ids, true).
		Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading products")
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// FindCouponByCode loads a coupon by its code, case-insensitive.
func (r *Repository) FindCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}

	var coupon models.Coupon
	if err := r.db.WithContext(ctx).
		First(&coupon, "UPPER(code) = ?", normalized).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading coupon")
	}
	return &coupon, nil
}

// ActiveTaxSetting returns the current GST split, or nil when taxes are not
// configured.
func (r *Repository) ActiveTaxSetting(ctx context.Context) (*models.TaxSetting, error) {
	var setting models.TaxSetting
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("updated_at DESC").
		First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading tax setting")
	}
	return &setting, nil
}

// CouponIsRedeemable applies the activation window and floor checks that do
// not depend on the cart.
func CouponIsRedeemable(coupon *models.Coupon, now time.Time) bool {
	if coupon == nil || !coupon.Active {
		return false
	}
	if now.Before(coupon.ValidFrom) || now.After(coupon.ValidUntil) {
		return false
	}
	return true
}
