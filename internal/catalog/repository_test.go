package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db/models"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
)

func TestFindProductsByIDsSkipsInactive(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	active := &models.Product{
		ID:     uuid.New(),
		Name:   "Chocolate Truffle",
		Price:  decimal.NewFromInt(550),
		Active: true,
	}
	inactive := &models.Product{
		ID:     uuid.New(),
		Name:   "Discontinued Tart",
		Price:  decimal.NewFromInt(300),
		Active: false,
	}
	require.NoError(t, db.Create(active).Error)
	require.NoError(t, db.Create(inactive).Error)

	found, err := repo.FindProductsByIDs(ctx, []uuid.UUID{active.ID, inactive.ID, uuid.New()})
	require.NoError(t, err)

	assert.Len(t, found, 1)
	got, ok := found[active.ID]
	require.True(t, ok)
	assert.Equal(t, "Chocolate Truffle", got.Name)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(550)))
}

func TestFindCouponByCodeIsCaseInsensitive(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now()
	coupon := &models.Coupon{
		ID:             uuid.New(),
		Code:           "SWEET10",
		Type:           enums.CouponTypePercentage,
		Value:          decimal.NewFromInt(10),
		MinOrderAmount: decimal.NewFromInt(500),
		MaxDiscount:    decimal.NewFromInt(150),
		ValidFrom:      now.Add(-time.Hour),
		ValidUntil:     now.Add(time.Hour),
		Active:         true,
	}
	require.NoError(t, db.Create(coupon).Error)

	got, err := repo.FindCouponByCode(ctx, "sweet10")
	require.NoError(t, err)
	assert.Equal(t, "SWEET10", got.Code)

	_, err = repo.FindCouponByCode(ctx, "NOPE")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, err = repo.FindCouponByCode(ctx, "   ")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestActiveTaxSettingReturnsNewestActive(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	setting, err := repo.ActiveTaxSetting(ctx)
	require.NoError(t, err)
	assert.Nil(t, setting)

	old := &models.TaxSetting{
		ID:        uuid.New(),
		CGSTRate:  decimal.NewFromFloat(2.5),
		SGSTRate:  decimal.NewFromFloat(2.5),
		Active:    true,
		UpdatedAt: time.Now().Add(-time.Hour),
	}
	current := &models.TaxSetting{
		ID:       uuid.New(),
		CGSTRate: decimal.NewFromFloat(9),
		SGSTRate: decimal.NewFromFloat(9),
		Active:   true,
	}
	require.NoError(t, db.Create(old).Error)
	require.NoError(t, db.Create(current).Error)

	setting, err = repo.ActiveTaxSetting(ctx)
	require.NoError(t, err)
	require.NotNil(t, setting)
	assert.True(t, setting.CGSTRate.Equal(decimal.NewFromFloat(9)))
}

func TestCouponIsRedeemable(t *testing.T) {
	now := time.Now()
	coupon := &models.Coupon{
		Active:     true,
		ValidFrom:  now.Add(-time.Hour),
		ValidUntil: now.Add(time.Hour),
	}

	assert.True(t, CouponIsRedeemable(coupon, now))
	assert.False(t, CouponIsRedeemable(nil, now))

	coupon.Active = false
	assert.False(t, CouponIsRedeemable(coupon, now))

	coupon.Active = true
	assert.False(t, CouponIsRedeemable(coupon, now.Add(2*time.Hour)))
	assert.False(t, CouponIsRedeemable(coupon, now.Add(-2*time.Hour)))
}
