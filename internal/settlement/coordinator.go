package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/Its-SuperNova/duchess-backend-sub004/internal/checkout"
	"github.com/Its-SuperNova/duchess-backend-sub004/internal/orders"
	"github.com/Its-SuperNova/duchess-backend-sub004/internal/webhooks"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/config"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db/models"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/logger"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/metrics"
)

// Evidence is the proof of payment carried by the channel invoking
// finalization. Settlement trusts it only after the channel's signature check
// has passed.
type Evidence struct {
	ProviderPaymentID string
	SignatureVerified bool
	// Source names the channel for logging: "redirect", "webhook", "polling".
	Source string
}

// Result reports the settled order.
type Result struct {
	OrderID        uuid.UUID
	PaymentID      uuid.UUID
	OrderNumber    string
	AlreadySettled bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sessionStore interface {
	Get(ctx context.Context, checkoutID string) (*checkout.Session, error)
	SetPaymentStatus(ctx context.Context, checkoutID string, status enums.CheckoutPaymentStatus, databaseOrderID *uuid.UUID) error
}

type totalsValidator interface {
	Validate(ctx context.Context, input checkout.ValidateInput) (*checkout.ValidatedTotals, error)
}

type leaser interface {
	SettlementLeaseKey(providerOrderID string) string
	AcquireLease(ctx context.Context, key, holder string, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, key, holder string) error
}

// Coordinator turns confirmed payment evidence into exactly one Order and
// Payment pair per provider order. Three unsynchronized channels can call it
// concurrently for the same provider order; correctness rests on a per-key
// Redis lease, the provider_order_id unique constraint as the final arbiter,
// and a transactional multi-row write.
type Coordinator struct {
	tx        txRunner
	payments  *orders.PaymentRepository
	orderRepo *orders.OrderRepository
	facts     *webhooks.Repository
	sessions  sessionStore
	validator totalsValidator
	leases    leaser
	logg      *logger.Logger
	metrics   *metrics.PipelineMetrics

	leaseTTL time.Duration
	now      func() time.Time
}

// NewCoordinator wires the coordinator. metrics may be nil.
func NewCoordinator(
	tx txRunner,
	payments *orders.PaymentRepository,
	orderRepo *orders.OrderRepository,
	facts *webhooks.Repository,
	sessions sessionStore,
	validator totalsValidator,
	leases leaser,
	cfg config.CheckoutConfig,
	logg *logger.Logger,
	pm *metrics.PipelineMetrics,
) (*Coordinator, error) {
	switch {
	case tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "tx runner is required")
	case payments == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment repository is required")
	case orderRepo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order repository is required")
	case facts == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook fact repository is required")
	case sessions == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session store is required")
	case validator == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "totals validator is required")
	case leases == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "lease store is required")
	case logg == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger is required")
	}
	return &Coordinator{
		tx:        tx,
		payments:  payments,
		orderRepo: orderRepo,
		facts:     facts,
		sessions:  sessions,
		validator: validator,
		leases:    leases,
		logg:      logg,
		metrics:   pm,
		leaseTTL:  cfg.SettlementLeaseTTL,
		now:       time.Now,
	}, nil
}

// Prepare creates the pending Payment and Order pair right after the provider
// order is opened. Racing calls for the same provider order collapse onto the
// first pair via the unique constraint.
func (c *Coordinator) Prepare(ctx context.Context, session *checkout.Session, providerOrderID string) (*Result, error) {
	ctx = c.logg.WithProviderOrderID(ctx, providerOrderID)

	if existing, err := c.payments.FindByProviderOrderID(ctx, providerOrderID); err == nil {
		return c.resultFromPayment(ctx, existing, true)
	} else if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		return nil, err
	}

	order := buildOrderFromSession(session, c.now())
	payment := &models.Payment{
		ProviderOrderID: providerOrderID,
		Amount:          session.Total,
		Currency:        "INR",
		Status:          enums.PaymentStatusPending,
	}

	err := c.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := c.orderRepo.WithTx(tx).Create(ctx, order)
		if err != nil {
			return err
		}
		payment.OrderID = &created.ID
		if _, err := c.payments.WithTx(tx).Create(ctx, payment); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err).Code() == pkgerrors.CodeConflict {
			// lost the creation race, the winner's pair is authoritative
			winner, findErr := c.payments.FindByProviderOrderID(ctx, providerOrderID)
			if findErr != nil {
				return nil, findErr
			}
			return c.resultFromPayment(ctx, winner, true)
		}
		return nil, err
	}

	c.logg.Info(ctx, "pending order and payment pair created")
	return &Result{
		OrderID:     order.ID,
		PaymentID:   payment.ID,
		OrderNumber: order.OrderNumber,
	}, nil
}

// Finalize applies confirmed payment evidence. It is invoked by whichever
// channel fires first and is safe to invoke from all of them: the first
// caller settles, later callers get the same result back.
func (c *Coordinator) Finalize(ctx context.Context, providerOrderID, checkoutID string, evidence Evidence) (*Result, error) {
	started := c.now()
	ctx = c.logg.WithProviderOrderID(ctx, providerOrderID)
	if checkoutID != "" {
		ctx = c.logg.WithCheckoutID(ctx, checkoutID)
	}

	if !evidence.SignatureVerified {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "unverified evidence cannot settle a payment")
	}

	leaseKey := c.leases.SettlementLeaseKey(providerOrderID)
	// the holder is unique per attempt so a finalizer that outlives the
	// lease TTL cannot release its successor's lease
	leaseHolder := uuid.NewString()
	acquired, err := c.leases.AcquireLease(ctx, leaseKey, leaseHolder, c.leaseTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring settlement lease")
	}
	if !acquired {
		// another channel is mid-settlement, check whether it already won
		if payment, findErr := c.payments.FindByProviderOrderID(ctx, providerOrderID); findErr == nil &&
			payment.Status == enums.PaymentStatusCaptured && payment.OrderID != nil {
			c.observe("replay", started)
			return c.resultFromPayment(ctx, payment, true)
		}
		return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "settlement already in progress, poll for result")
	}
	defer func() {
		if releaseErr := c.leases.ReleaseLease(ctx, leaseKey, leaseHolder); releaseErr != nil {
			c.logg.Warn(ctx, "failed to release settlement lease")
		}
	}()

	result, outcome, err := c.finalizeLocked(ctx, providerOrderID, checkoutID, evidence)
	c.observe(outcome, started)
	return result, err
}

func (c *Coordinator) finalizeLocked(ctx context.Context, providerOrderID, checkoutID string, evidence Evidence) (*Result, string, error) {
	payment, err := c.payments.FindByProviderOrderID(ctx, providerOrderID)
	switch {
	case err == nil:
		if payment.Status == enums.PaymentStatusCaptured && payment.OrderID != nil {
			result, resErr := c.resultFromPayment(ctx, payment, true)
			return result, "replay", resErr
		}
		result, capErr := c.capturePending(ctx, payment, checkoutID, evidence)
		if capErr != nil {
			return nil, "failed", capErr
		}
		return result, "captured", nil

	case pkgerrors.As(err).Code() == pkgerrors.CodeNotFound:
		result, createErr := c.settleWithoutRow(ctx, providerOrderID, checkoutID, evidence)
		if createErr != nil {
			return nil, "failed", createErr
		}
		return result, "created", nil

	default:
		return nil, "failed", err
	}
}

// capturePending promotes an existing pending pair to the paid state and
// drains any webhook facts that arrived before this call.
func (c *Coordinator) capturePending(ctx context.Context, payment *models.Payment, checkoutID string, evidence Evidence) (*Result, error) {
	if payment.OrderID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment row has no order attached")
	}
	orderID := *payment.OrderID

	verified := true
	update := orders.PaymentStateUpdate{
		Status:            enums.PaymentStatusCaptured,
		SignatureVerified: &verified,
	}
	if evidence.ProviderPaymentID != "" {
		update.ProviderPaymentID = &evidence.ProviderPaymentID
	}

	err := c.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := c.payments.WithTx(tx).ApplyState(ctx, payment.ID, update); err != nil {
			return err
		}
		return c.orderRepo.WithTx(tx).SetPaymentState(ctx, orderID,
			enums.OrderPaymentStatusPaid, enums.OrderStatusConfirmed, &payment.ID)
	})
	if err != nil {
		return nil, err
	}

	if err := c.drainPendingFacts(ctx, payment.ProviderOrderID, payment.ID, orderID); err != nil {
		c.logg.Error(ctx, "draining deferred webhook facts failed", err)
	}
	c.updateSession(ctx, checkoutID, orderID)

	order, err := c.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	c.logg.Info(ctx, "payment captured and order confirmed")
	return &Result{OrderID: orderID, PaymentID: payment.ID, OrderNumber: order.OrderNumber}, nil
}

// settleWithoutRow covers a confirmation whose Prepare never ran or whose row
// creation raced: it rebuilds the order from the checkout session, re-validates
// totals, and creates the paid pair in one transaction.
func (c *Coordinator) settleWithoutRow(ctx context.Context, providerOrderID, checkoutID string, evidence Evidence) (*Result, error) {
	if checkoutID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no payment row and no checkout session to settle from")
	}
	session, err := c.sessions.Get(ctx, checkoutID)
	if err != nil {
		return nil, err
	}

	if _, err := c.revalidate(ctx, session); err != nil {
		return nil, err
	}

	order := buildOrderFromSession(session, c.now())
	order.Status = enums.OrderStatusConfirmed
	order.PaymentStatus = enums.OrderPaymentStatusPaid

	payment := &models.Payment{
		ProviderOrderID:   providerOrderID,
		Amount:            session.Total,
		Currency:          "INR",
		Status:            enums.PaymentStatusCaptured,
		SignatureVerified: true,
	}
	if evidence.ProviderPaymentID != "" {
		payment.ProviderPaymentID = &evidence.ProviderPaymentID
	}

	err = c.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := c.orderRepo.WithTx(tx).Create(ctx, order)
		if err != nil {
			return err
		}
		payment.OrderID = &created.ID
		if _, err := c.payments.WithTx(tx).Create(ctx, payment); err != nil {
			return err
		}
		return c.orderRepo.WithTx(tx).SetPaymentState(ctx, created.ID,
			enums.OrderPaymentStatusPaid, enums.OrderStatusConfirmed, &payment.ID)
	})
	if err != nil {
		if pkgerrors.As(err).Code() == pkgerrors.CodeConflict {
			// the re-checked unique constraint says another caller won
			winner, findErr := c.payments.FindByProviderOrderID(ctx, providerOrderID)
			if findErr != nil {
				return nil, findErr
			}
			return c.resultFromPayment(ctx, winner, true)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "settlement write failed")
	}

	if err := c.drainPendingFacts(ctx, providerOrderID, payment.ID, order.ID); err != nil {
		c.logg.Error(ctx, "draining deferred webhook facts failed", err)
	}
	c.updateSession(ctx, checkoutID, order.ID)

	c.logg.Info(ctx, "order settled from confirmation without prepared row")
	return &Result{OrderID: order.ID, PaymentID: payment.ID, OrderNumber: order.OrderNumber}, nil
}

// revalidate reruns server-side pricing from the session's stored cart.
func (c *Coordinator) revalidate(ctx context.Context, session *checkout.Session) (*checkout.ValidatedTotals, error) {
	items := make([]checkout.ItemInput, 0, len(session.Items))
	for _, line := range session.Items {
		items = append(items, checkout.ItemInput{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	total := session.Total
	return c.validator.Validate(ctx, checkout.ValidateInput{
		Items:       items,
		AddressID:   session.AddressID,
		DistanceKm:  session.DistanceKm,
		CouponCode:  session.CouponCode,
		ClientTotal: &total,
	})
}

// drainPendingFacts applies webhook events that arrived before the payment
// row existed, then marks them consumed.
func (c *Coordinator) drainPendingFacts(ctx context.Context, providerOrderID string, paymentID, orderID uuid.UUID) error {
	events, err := c.facts.ListUnprocessed(ctx, providerOrderID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	var errs error
	processed := make([]uuid.UUID, 0, len(events))
	for _, event := range events {
		transition, ok := webhooks.TransitionFor(event.EventType)
		if !ok {
			c.logg.Warn(ctx, "skipping deferred webhook fact with unknown event type")
			continue
		}
		if transition.Mutates {
			update := orders.PaymentStateUpdate{
				Status:          transition.PaymentStatus,
				WebhookReceived: &transition.WebhookReceived,
			}
			if event.ProviderPaymentID != nil {
				update.ProviderPaymentID = event.ProviderPaymentID
			}
			if event.FailureReason != nil {
				update.FailureReason = event.FailureReason
			}
			err := c.tx.WithTx(ctx, func(tx *gorm.DB) error {
				if err := c.payments.WithTx(tx).ApplyState(ctx, paymentID, update); err != nil {
					return err
				}
				return c.orderRepo.WithTx(tx).SetPaymentState(ctx, orderID,
					transition.OrderPaymentStatus, transition.OrderStatus, &paymentID)
			})
			if err != nil {
				// keep draining, an unapplied fact stays pending for retry
				errs = multierr.Append(errs, err)
				continue
			}
		}
		processed = append(processed, event.ID)
	}

	return multierr.Append(errs, c.facts.MarkProcessed(ctx, processed, c.now()))
}

func (c *Coordinator) updateSession(ctx context.Context, checkoutID string, orderID uuid.UUID) {
	if checkoutID == "" {
		return
	}
	if err := c.sessions.SetPaymentStatus(ctx, checkoutID, enums.CheckoutPaymentStatusPaid, &orderID); err != nil {
		c.logg.Warn(ctx, "failed to update checkout session after settlement")
	}
}

func (c *Coordinator) resultFromPayment(ctx context.Context, payment *models.Payment, alreadySettled bool) (*Result, error) {
	if payment.OrderID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment row has no order attached")
	}
	order, err := c.orderRepo.FindByID(ctx, *payment.OrderID)
	if err != nil {
		return nil, err
	}
	return &Result{
		OrderID:        order.ID,
		PaymentID:      payment.ID,
		OrderNumber:    order.OrderNumber,
		AlreadySettled: alreadySettled,
	}, nil
}

func (c *Coordinator) observe(outcome string, started time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveSettlement(outcome, c.now().Sub(started))
	}
}

// buildOrderFromSession snapshots the session into an order row with pending
// statuses.
func buildOrderFromSession(session *checkout.Session, now time.Time) *models.Order {
	items := make([]models.OrderItem, 0, len(session.Items))
	for _, line := range session.Items {
		quantity := decimal.NewFromInt(int64(line.Quantity))
		items = append(items, models.OrderItem{
			ProductID:  line.ProductID,
			Name:       line.Name,
			ImageURL:   line.ImageURL,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: line.UnitPrice.Mul(quantity),
		})
	}

	return &models.Order{
		OrderNumber:     orders.NewOrderNumber(now),
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.OrderPaymentStatusPending,
		ItemTotal:       session.Subtotal,
		DiscountAmount:  session.Discount,
		CGST:            session.CGST,
		SGST:            session.SGST,
		DeliveryCharge:  session.DeliveryFee,
		TotalAmount:     session.Total,
		CouponCode:      session.CouponCode,
		ContactName:     session.ContactName,
		ContactPhone:    session.ContactPhone,
		ContactEmail:    session.ContactEmail,
		DeliveryAddress: session.DeliveryAddress,
		DistanceKm:      session.DistanceKm,
		Notes:           session.Notes,
		Items:           items,
	}
}
