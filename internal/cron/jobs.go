package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/Its-SuperNova/duchess-backend-sub004/internal/orders"
	"github.com/Its-SuperNova/duchess-backend-sub004/internal/webhooks"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db/models"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/logger"
)

const expiredPaymentReason = "payment window expired"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PaymentExpiryJob fails payment rows that stayed pending past the payment
// window and cancels their orders. A customer who abandoned checkout after
// the provider order was opened never triggers capture or a webhook, so
// these rows only leave pending through this sweep.
type PaymentExpiryJob struct {
	tx        txRunner
	payments  *orders.PaymentRepository
	orderRepo *orders.OrderRepository
	ttl       time.Duration
	logg      *logger.Logger
	now       func() time.Time
}

func NewPaymentExpiryJob(
	tx txRunner,
	payments *orders.PaymentRepository,
	orderRepo *orders.OrderRepository,
	ttl time.Duration,
	logg *logger.Logger,
) (*PaymentExpiryJob, error) {
	switch {
	case tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case payments == nil:
		return nil, fmt.Errorf("payment repository required")
	case orderRepo == nil:
		return nil, fmt.Errorf("order repository required")
	case ttl <= 0:
		return nil, fmt.Errorf("pending payment ttl must be positive")
	case logg == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &PaymentExpiryJob{
		tx:        tx,
		payments:  payments,
		orderRepo: orderRepo,
		ttl:       ttl,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (j *PaymentExpiryJob) Name() string { return "payment_expiry" }

func (j *PaymentExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.ttl)
	stale, err := j.payments.FindPendingBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	var errs error
	expired := 0
	for _, payment := range stale {
		if err := j.expire(ctx, payment); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		expired++
	}
	j.logg.Info(j.logg.WithField(ctx, "expired", expired), "stale pending payments expired")
	return errs
}

func (j *PaymentExpiryJob) expire(ctx context.Context, payment models.Payment) error {
	return j.tx.WithTx(ctx, func(tx *gorm.DB) error {
		paymentRepo := j.payments.WithTx(tx)

		// Re-read inside the transaction: a webhook may have captured the
		// payment between the listing and this sweep reaching it.
		current, err := paymentRepo.FindByID(ctx, payment.ID)
		if err != nil {
			return err
		}
		if current.Status != enums.PaymentStatusPending {
			return nil
		}

		reason := expiredPaymentReason
		if err := paymentRepo.ApplyState(ctx, payment.ID, orders.PaymentStateUpdate{
			Status:        enums.PaymentStatusFailed,
			FailureReason: &reason,
		}); err != nil {
			return err
		}
		if current.OrderID == nil {
			return nil
		}
		return j.orderRepo.WithTx(tx).SetPaymentState(
			ctx,
			*current.OrderID,
			enums.OrderPaymentStatusFailed,
			enums.OrderStatusCancelled,
			&payment.ID,
		)
	})
}

// WebhookFactPurgeJob drops consumed webhook facts older than the retention
// window. Unprocessed facts are never purged; they remain evidence for
// operator follow-up.
type WebhookFactPurgeJob struct {
	facts     *webhooks.Repository
	retention time.Duration
	logg      *logger.Logger
	now       func() time.Time
}

func NewWebhookFactPurgeJob(
	facts *webhooks.Repository,
	retention time.Duration,
	logg *logger.Logger,
) (*WebhookFactPurgeJob, error) {
	switch {
	case facts == nil:
		return nil, fmt.Errorf("webhook fact repository required")
	case retention <= 0:
		return nil, fmt.Errorf("retention must be positive")
	case logg == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &WebhookFactPurgeJob{
		facts:     facts,
		retention: retention,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (j *WebhookFactPurgeJob) Name() string { return "webhook_fact_purge" }

func (j *WebhookFactPurgeJob) Run(ctx context.Context) error {
	purged, err := j.facts.PurgeProcessedBefore(ctx, j.now().Add(-j.retention))
	if err != nil {
		return err
	}
	j.logg.Info(j.logg.WithField(ctx, "purged", purged), "consumed webhook facts purged")
	return nil
}
