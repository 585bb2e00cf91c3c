package orders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db/models"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
)

const uniqueOrderNumberConstraint = "uq_orders_order_number"

// OrderRepository persists orders and their item snapshots.
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository builds a repository tied to the provided GORM DB.
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

// NewOrderNumber generates a human-readable unique order number.
func NewOrderNumber(now time.Time) string {
	suffix := make([]byte, 3)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("DB-%s-%s", now.UTC().Format("20060102"), strings.ToUpper(hex.EncodeToString(suffix)))
}

// Create inserts the order and its items in one statement chain, assigning
// IDs when absent.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}

	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if db.IsUniqueViolation(err, uniqueOrderNumberConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "creating order")
	}
	return order, nil
}

// FindByID loads the order with its items.
func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading order")
	}
	return &order, nil
}

// FindByOrderNumber loads the order with its items by its public number.
func (r *OrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "order_number = ?", orderNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading order")
	}
	return &order, nil
}

// SetPaymentState writes the order's payment status, confirmation status, and
// the weak back-reference to the payment that produced it.
func (r *OrderRepository) SetPaymentState(ctx context.Context, orderID uuid.UUID, paymentStatus enums.OrderPaymentStatus, status enums.OrderStatus, latestPaymentID *uuid.UUID) error {
	values := map[string]any{
		"payment_status": paymentStatus,
		"status":         status,
	}
	if latestPaymentID != nil {
		values["latest_payment_id"] = *latestPaymentID
	}

	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(values).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "updating order payment state")
	}
	return nil
}

