package checkout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/config"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
)

type fakeBackend struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		values: map[string]string{},
		ttls:   map[string]time.Duration{},
	}
}

func (f *fakeBackend) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	switch typed := value.(type) {
	case []byte:
		f.values[key] = string(typed)
	case string:
		f.values[key] = typed
	default:
		f.values[key] = fmt.Sprint(typed)
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeBackend) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (f *fakeBackend) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
		delete(f.ttls, key)
	}
	return nil
}

func (f *fakeBackend) CheckoutSessionKey(checkoutID string) string {
	return "duchess:checkout:session:" + checkoutID
}

func newTestStore(t *testing.T) (*SessionStore, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	store, err := NewSessionStore(backend, config.CheckoutConfig{SessionTTL: time.Hour})
	require.NoError(t, err)
	return store, backend
}

func TestSessionCreateGetRoundTrip(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, &Session{
		Items: []LineItem{
			{ProductID: uuid.New(), Name: "Black Forest Cake", UnitPrice: decimal.NewFromInt(550), Quantity: 1},
		},
		Subtotal:     decimal.NewFromInt(550),
		Total:        decimal.NewFromInt(610),
		ContactName:  "Arun",
		ContactPhone: "9876500000",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, enums.CheckoutPaymentStatusPending, created.PaymentStatus)
	assert.Equal(t, time.Hour, backend.ttls[backend.CheckoutSessionKey(created.ID)])

	loaded, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
	assert.True(t, loaded.Subtotal.Equal(decimal.NewFromInt(550)))
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "Black Forest Cake", loaded.Items[0].Name)
}

func TestSessionGetMissingMapsToNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestSessionUpdateRefreshesState(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, &Session{Subtotal: decimal.NewFromInt(300), Total: decimal.NewFromInt(340)})
	require.NoError(t, err)

	coupon := "SWEET10"
	updated, err := store.Update(ctx, created.ID, func(session *Session) error {
		session.CouponCode = &coupon
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, updated.CouponCode)
	assert.Equal(t, "SWEET10", *updated.CouponCode)

	loaded, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.CouponCode)
	assert.Equal(t, "SWEET10", *loaded.CouponCode)
}

func TestSessionAttachProviderOrderAndPaymentStatus(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, &Session{Total: decimal.NewFromInt(500)})
	require.NoError(t, err)

	require.NoError(t, store.AttachProviderOrder(ctx, created.ID, "order_Live123"))

	orderID := uuid.New()
	require.NoError(t, store.SetPaymentStatus(ctx, created.ID, enums.CheckoutPaymentStatusPaid, &orderID))

	loaded, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.ProviderOrderID)
	assert.Equal(t, "order_Live123", *loaded.ProviderOrderID)
	assert.Equal(t, enums.CheckoutPaymentStatusPaid, loaded.PaymentStatus)
	require.NotNil(t, loaded.DatabaseOrderID)
	assert.Equal(t, orderID, *loaded.DatabaseOrderID)
}

func TestSessionSetPaymentStatusToleratesExpiredSession(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.SetPaymentStatus(context.Background(), "expired-session", enums.CheckoutPaymentStatusPaid, nil)
	require.NoError(t, err)
}

func TestSessionDestroy(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, &Session{})
	require.NoError(t, err)

	require.NoError(t, store.Destroy(ctx, created.ID))

	_, err = store.Get(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
