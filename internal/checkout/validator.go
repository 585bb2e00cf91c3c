package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Its-SuperNova/duchess-backend-sub004/internal/catalog"
	"github.com/Its-SuperNova/duchess-backend-sub004/internal/delivery"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db/models"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
)

// Client totals are accepted when they differ from the server total by at
// most one rupee.
var totalTolerance = decimal.NewFromInt(1)

// ItemInput is one cart line as submitted by the client. Only the product id
// and quantity are trusted.
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// ValidateInput is the full payload for a server-side checkout validation.
type ValidateInput struct {
	Items       []ItemInput
	AddressID   string
	DistanceKm  decimal.Decimal
	CouponCode  *string
	ClientTotal *decimal.Decimal
}

// ValidatedTotals is the authoritative pricing for a checkout.
type ValidatedTotals struct {
	Items          []LineItem
	Subtotal       decimal.Decimal
	Discount       decimal.Decimal
	CGST           decimal.Decimal
	SGST           decimal.Decimal
	DeliveryFee    decimal.Decimal
	DeliveryIsFree bool
	DeliveryMethod enums.DeliveryFeeMethod
	Total          decimal.Decimal
	CouponCode     *string
}

type catalogSource interface {
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	FindCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
	ActiveTaxSetting(ctx context.Context) (*models.TaxSetting, error)
}

type feeCalculator interface {
	Calculate(ctx context.Context, distanceKm, orderValue decimal.Decimal) delivery.Quote
}

// Validator recomputes every checkout amount from trusted sources and rejects
// client totals that diverge beyond tolerance. It reads reference data but
// performs no writes, so it is safe to call any number of times.
type Validator struct {
	catalog catalogSource
	fees    feeCalculator

	now func() time.Time
}

// NewValidator wires the validator.
func NewValidator(catalogRepo catalogSource, fees feeCalculator) (*Validator, error) {
	if catalogRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog source is required")
	}
	if fees == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "fee calculator is required")
	}
	return &Validator{catalog: catalogRepo, fees: fees, now: time.Now}, nil
}

// Validate re-prices the cart, applies coupon and tax rules, computes the
// delivery fee, and compares the result against the client's total when one
// is supplied.
func (v *Validator) Validate(ctx context.Context, input ValidateInput) (*ValidatedTotals, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	ids := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		ids = append(ids, item.ProductID)
	}

	products, err := v.catalog.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]LineItem, 0, len(input.Items))
	subtotal := decimal.Zero
	for _, item := range input.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product unavailable").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		lines = append(lines, LineItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  item.Quantity,
			ImageURL:  product.ImageURL,
		})
		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	discount, appliedCoupon, err := v.applyCoupon(ctx, input.CouponCode, subtotal)
	if err != nil {
		return nil, err
	}

	taxable := subtotal.Sub(discount)
	cgst, sgst, err := v.computeTax(ctx, taxable)
	if err != nil {
		return nil, err
	}

	quote := v.fees.Calculate(ctx, input.DistanceKm, subtotal)

	total := taxable.Add(cgst).Add(sgst).Add(quote.Charge)

	if input.ClientTotal != nil {
		if total.Sub(*input.ClientTotal).Abs().GreaterThan(totalTolerance) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout total does not match server pricing").
				WithDetails(map[string]any{
					"client_total": input.ClientTotal.String(),
					"server_total": total.String(),
				})
		}
	}

	return &ValidatedTotals{
		Items:          lines,
		Subtotal:       subtotal,
		Discount:       discount,
		CGST:           cgst,
		SGST:           sgst,
		DeliveryFee:    quote.Charge,
		DeliveryIsFree: quote.IsFree,
		DeliveryMethod: quote.Method,
		Total:          total,
		CouponCode:     appliedCoupon,
	}, nil
}

func (v *Validator) applyCoupon(ctx context.Context, code *string, subtotal decimal.Decimal) (decimal.Decimal, *string, error) {
	if code == nil || *code == "" {
		return decimal.Zero, nil, nil
	}

	coupon, err := v.catalog.FindCouponByCode(ctx, *code)
	if err != nil {
		if pkgerrors.As(err).Code() == pkgerrors.CodeNotFound {
			return decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is not valid")
		}
		return decimal.Zero, nil, err
	}

	if !catalog.CouponIsRedeemable(coupon, v.now()) {
		return decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is not valid")
	}
	if subtotal.LessThan(coupon.MinOrderAmount) {
		return decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("order total below coupon minimum of %s", coupon.MinOrderAmount.StringFixed(2)))
	}

	var discount decimal.Decimal
	switch coupon.Type {
	case enums.CouponTypePercentage:
		discount = subtotal.Mul(coupon.Value).Div(decimal.NewFromInt(100))
		if coupon.MaxDiscount.IsPositive() && discount.GreaterThan(coupon.MaxDiscount) {
			discount = coupon.MaxDiscount
		}
	case enums.CouponTypeFlat:
		discount = coupon.Value
	default:
		return decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeInternal, "unknown coupon type")
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	discount = discount.Round(2)
	return discount, &coupon.Code, nil
}

func (v *Validator) computeTax(ctx context.Context, taxable decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	setting, err := v.catalog.ActiveTaxSetting(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if setting == nil {
		return decimal.Zero, decimal.Zero, nil
	}

	hundred := decimal.NewFromInt(100)
	cgst := taxable.Mul(setting.CGSTRate).Div(hundred).Round(2)
	sgst := taxable.Mul(setting.SGSTRate).Div(hundred).Round(2)
	return cgst, sgst, nil
}
