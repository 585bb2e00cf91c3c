package webhooks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db/models"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.PendingWebhookEvent{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return conn
}

func TestRecordIsIdempotentPerEventID(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	event := &models.PendingWebhookEvent{
		EventID:         "evt_1",
		EventType:       enums.WebhookEventPaymentCaptured,
		ProviderOrderID: "order_A",
	}
	require.NoError(t, repo.Record(ctx, event))

	redelivery := &models.PendingWebhookEvent{
		EventID:         "evt_1",
		EventType:       enums.WebhookEventPaymentCaptured,
		ProviderOrderID: "order_A",
	}
	require.NoError(t, repo.Record(ctx, redelivery))

	events, err := repo.ListUnprocessed(ctx, "order_A")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestListUnprocessedFiltersAndOrders(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	old := &models.PendingWebhookEvent{
		EventID:         "evt_old",
		EventType:       enums.WebhookEventPaymentFailed,
		ProviderOrderID: "order_B",
		CreatedAt:       time.Now().Add(-time.Hour),
	}
	recent := &models.PendingWebhookEvent{
		EventID:         "evt_recent",
		EventType:       enums.WebhookEventPaymentCaptured,
		ProviderOrderID: "order_B",
	}
	other := &models.PendingWebhookEvent{
		EventID:         "evt_other",
		EventType:       enums.WebhookEventPaymentCaptured,
		ProviderOrderID: "order_C",
	}
	require.NoError(t, repo.Record(ctx, old))
	require.NoError(t, repo.Record(ctx, recent))
	require.NoError(t, repo.Record(ctx, other))

	events, err := repo.ListUnprocessed(ctx, "order_B")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "evt_old", events[0].EventID)
	assert.Equal(t, "evt_recent", events[1].EventID)

	now := time.Now()
	require.NoError(t, repo.MarkProcessed(ctx, []uuid.UUID{events[0].ID}, now))

	events, err = repo.ListUnprocessed(ctx, "order_B")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt_recent", events[0].EventID)
}

func TestPurgeProcessedBefore(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	event := &models.PendingWebhookEvent{
		EventID:         "evt_purge",
		EventType:       enums.WebhookEventOrderPaid,
		ProviderOrderID: "order_D",
	}
	require.NoError(t, repo.Record(ctx, event))
	require.NoError(t, repo.MarkProcessed(ctx, []uuid.UUID{event.ID}, time.Now().Add(-48*time.Hour)))

	purged, err := repo.PurgeProcessedBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}
