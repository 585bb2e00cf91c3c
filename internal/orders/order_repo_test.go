package orders

import (
	"context"
	"regexp"
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

func buildTestOrder() *models.Order {
	return &models.Order{
		OrderNumber:     NewOrderNumber(time.Now()),
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.OrderPaymentStatusPending,
		ItemTotal:       decimal.NewFromInt(900),
		DiscountAmount:  decimal.NewFromInt(90),
		CGST:            decimal.NewFromFloat(40.5),
		SGST:            decimal.NewFromFloat(40.5),
		DeliveryCharge:  decimal.NewFromInt(60),
		TotalAmount:     decimal.NewFromInt(951),
		ContactName:     "Meera",
		ContactPhone:    "9876543210",
		DeliveryAddress: "12 Cake Street, Coimbatore",
		DistanceKm:      decimal.NewFromFloat(7.5),
		Items: []models.OrderItem{
			{
				ProductID:  uuid.New(),
				Name:       "Red Velvet Cake",
				Quantity:   1,
				UnitPrice:  decimal.NewFromInt(650),
				TotalPrice: decimal.NewFromInt(650),
			},
			{
				ProductID:  uuid.New(),
				Name:       "Croissant",
				Quantity:   5,
				UnitPrice:  decimal.NewFromInt(50),
				TotalPrice: decimal.NewFromInt(250),
			},
		},
	}
}

func TestNewOrderNumberFormat(t *testing.T) {
	re := regexp.MustCompile(`^DB-\d{8}-[0-9A-F]{6}$`)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		number := NewOrderNumber(time.Now())
		assert.Regexp(t, re, number)
		assert.False(t, seen[number], "duplicate order number %s", number)
		seen[number] = true
	}
}

func TestOrderCreateAssignsIDsAndLinksItems(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order, err := repo.Create(ctx, buildTestOrder())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, order.ID)

	loaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	for _, item := range loaded.Items {
		assert.Equal(t, order.ID, item.OrderID)
		assert.NotEqual(t, uuid.Nil, item.ID)
	}
}

func TestOrderCreateRejectsDuplicateOrderNumber(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	first := buildTestOrder()
	_, err := repo.Create(ctx, first)
	require.NoError(t, err)

	dup := buildTestOrder()
	dup.OrderNumber = first.OrderNumber
	_, err = repo.Create(ctx, dup)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestOrderSetPaymentState(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order, err := repo.Create(ctx, buildTestOrder())
	require.NoError(t, err)

	paymentID := uuid.New()
	require.NoError(t, repo.SetPaymentState(ctx, order.ID, enums.OrderPaymentStatusPaid, enums.OrderStatusConfirmed, &paymentID))

	loaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderPaymentStatusPaid, loaded.PaymentStatus)
	assert.Equal(t, enums.OrderStatusConfirmed, loaded.Status)
	require.NotNil(t, loaded.LatestPaymentID)
	assert.Equal(t, paymentID, *loaded.LatestPaymentID)
}

func TestOrderFindByOrderNumber(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order, err := repo.Create(ctx, buildTestOrder())
	require.NoError(t, err)

	loaded, err := repo.FindByOrderNumber(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, loaded.ID)
}
