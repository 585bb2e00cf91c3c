package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Its-SuperNova/duchess-backend-sub004/internal/orders"
	"github.com/Its-SuperNova/duchess-backend-sub004/internal/webhooks"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/config"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db/models"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
)

type jobHarness struct {
	client    *db.Client
	payments  *orders.PaymentRepository
	orderRepo *orders.OrderRepository
	facts     *webhooks.Repository
}

func newJobHarness(t *testing.T) *jobHarness {
	t.Helper()
	ctx := context.Background()

	client, err := db.New(ctx, config.DBConfig{Driver: "sqlite", DSN: "file::memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.DB().AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.PendingWebhookEvent{},
	))

	return &jobHarness{
		client:    client,
		payments:  orders.NewPaymentRepository(client.DB()),
		orderRepo: orders.NewOrderRepository(client.DB()),
		facts:     webhooks.NewRepository(client.DB()),
	}
}

func (h *jobHarness) seedPendingPair(t *testing.T, providerOrderID string) (*models.Order, *models.Payment) {
	t.Helper()
	ctx := context.Background()

	order, err := h.orderRepo.Create(ctx, &models.Order{
		OrderNumber:    orders.NewOrderNumber(time.Now()),
		Status:         enums.OrderStatusPending,
		PaymentStatus:  enums.OrderPaymentStatusPending,
		ItemTotal:      decimal.NewFromInt(600),
		DeliveryCharge: decimal.NewFromInt(60),
		TotalAmount:    decimal.NewFromInt(660),
		ContactName:    "Meera",
		ContactPhone:   "9876543210",
	})
	require.NoError(t, err)

	payment, err := h.payments.Create(ctx, &models.Payment{
		OrderID:         &order.ID,
		ProviderOrderID: providerOrderID,
		Amount:          decimal.NewFromInt(660),
		Currency:        "INR",
		Status:          enums.PaymentStatusPending,
	})
	require.NoError(t, err)
	return order, payment
}

func newExpiryJob(t *testing.T, h *jobHarness, ttl time.Duration) *PaymentExpiryJob {
	t.Helper()
	job, err := NewPaymentExpiryJob(h.client, h.payments, h.orderRepo, ttl, testLogger())
	require.NoError(t, err)
	return job
}

func TestPaymentExpiryFailsStalePendingPair(t *testing.T) {
	h := newJobHarness(t)
	ctx := context.Background()
	order, payment := h.seedPendingPair(t, "order_stale")

	job := newExpiryJob(t, h, time.Hour)
	job.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	require.NoError(t, job.Run(ctx))

	updated, err := h.payments.FindByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusFailed, updated.Status)
	require.NotNil(t, updated.FailureReason)
	assert.Equal(t, expiredPaymentReason, *updated.FailureReason)

	reloaded, err := h.orderRepo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, reloaded.Status)
	assert.Equal(t, enums.OrderPaymentStatusFailed, reloaded.PaymentStatus)
}

func TestPaymentExpiryLeavesFreshPaymentsAlone(t *testing.T) {
	h := newJobHarness(t)
	ctx := context.Background()
	_, payment := h.seedPendingPair(t, "order_fresh")

	job := newExpiryJob(t, h, time.Hour)

	require.NoError(t, job.Run(ctx))

	updated, err := h.payments.FindByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, updated.Status)
}

func TestPaymentExpirySkipsPaymentCapturedMeanwhile(t *testing.T) {
	h := newJobHarness(t)
	ctx := context.Background()
	order, payment := h.seedPendingPair(t, "order_raced")

	// Capture lands after the job listed the row but before it expires it.
	providerPaymentID := "pay_raced"
	require.NoError(t, h.payments.ApplyState(ctx, payment.ID, orders.PaymentStateUpdate{
		Status:            enums.PaymentStatusCaptured,
		ProviderPaymentID: &providerPaymentID,
	}))

	job := newExpiryJob(t, h, time.Hour)
	job.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	require.NoError(t, job.Run(ctx))

	updated, err := h.payments.FindByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCaptured, updated.Status)
	assert.Nil(t, updated.FailureReason)

	reloaded, err := h.orderRepo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.NotEqual(t, enums.OrderStatusCancelled, reloaded.Status)
}

func TestWebhookFactPurgeDropsOnlyConsumedFacts(t *testing.T) {
	h := newJobHarness(t)
	ctx := context.Background()

	consumed := &models.PendingWebhookEvent{
		EventID:         "evt_consumed",
		EventType:       enums.WebhookEventPaymentCaptured,
		ProviderOrderID: "order_done",
		Payload:         []byte(`{}`),
	}
	require.NoError(t, h.facts.Record(ctx, consumed))
	require.NoError(t, h.facts.Record(ctx, &models.PendingWebhookEvent{
		EventID:         "evt_waiting",
		EventType:       enums.WebhookEventPaymentCaptured,
		ProviderOrderID: "order_waiting",
		Payload:         []byte(`{}`),
	}))

	require.NoError(t, h.facts.MarkProcessed(ctx, []uuid.UUID{consumed.ID}, time.Now().Add(-48*time.Hour)))

	job, err := NewWebhookFactPurgeJob(h.facts, 24*time.Hour, testLogger())
	require.NoError(t, err)

	require.NoError(t, job.Run(ctx))

	waiting, err := h.facts.ListUnprocessed(ctx, "order_waiting")
	require.NoError(t, err)
	assert.Len(t, waiting, 1)

	var remaining int64
	require.NoError(t, h.client.DB().Model(&models.PendingWebhookEvent{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}
