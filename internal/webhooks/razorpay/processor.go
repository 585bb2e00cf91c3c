package razorpaywebhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"gorm.io/gorm"

	"github.com/Its-SuperNova/duchess-backend-sub004/internal/orders"
	"github.com/Its-SuperNova/duchess-backend-sub004/internal/webhooks"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db/models"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/logger"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/metrics"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/razorpay"
)

// Outcome describes what the processor did with an event. Every outcome
// except a verification or persistence failure is acknowledged with 2xx so
// the gateway stops redelivering.
type Outcome string

const (
	// OutcomeProcessed means the transition was applied to existing rows.
	OutcomeProcessed Outcome = "processed"
	// OutcomeDeferred means no payment row exists yet; the event was stored
	// as a durable fact for the settlement path to drain later.
	OutcomeDeferred Outcome = "deferred"
	// OutcomeIgnored means the event type carries no state change.
	OutcomeIgnored Outcome = "ignored"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Processor applies gateway webhook events to payment and order rows. All
// transitions write absolute states, so gateway redelivery is harmless.
type Processor struct {
	tx        txRunner
	payments  *orders.PaymentRepository
	orderRepo *orders.OrderRepository
	facts     *webhooks.Repository
	secret    string
	logg      *logger.Logger
	pm        *metrics.PipelineMetrics
}

func NewProcessor(
	tx txRunner,
	payments *orders.PaymentRepository,
	orderRepo *orders.OrderRepository,
	facts *webhooks.Repository,
	webhookSecret string,
	logg *logger.Logger,
	pm *metrics.PipelineMetrics,
) (*Processor, error) {
	switch {
	case tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	case payments == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment repository required")
	case orderRepo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order repository required")
	case facts == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook fact repository required")
	case webhookSecret == "":
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook secret required")
	case logg == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if pm == nil {
		pm = metrics.NewPipelineMetrics(nil)
	}
	return &Processor{
		tx:        tx,
		payments:  payments,
		orderRepo: orderRepo,
		facts:     facts,
		secret:    webhookSecret,
		logg:      logg,
		pm:        pm,
	}, nil
}

// Process verifies the signature over the exact raw body, then applies the
// event. Verification happens before any parsing; a body we cannot
// authenticate is never decoded.
func (p *Processor) Process(ctx context.Context, rawBody []byte, signature, eventID string) (Outcome, error) {
	if err := razorpay.VerifyWebhookSignature(rawBody, signature, p.secret); err != nil {
		p.pm.IncWebhookEvent("unknown", "rejected")
		return "", err
	}

	event, err := ParseEvent(rawBody, eventID)
	if err != nil {
		p.pm.IncWebhookEvent("unknown", "invalid")
		return "", err
	}
	if event == nil {
		p.logg.Info(ctx, "unhandled webhook event type acknowledged")
		p.pm.IncWebhookEvent("unknown", string(OutcomeIgnored))
		return OutcomeIgnored, nil
	}

	ctx = p.logg.WithProviderOrderID(ctx, event.ProviderOrderID)
	outcome, err := p.apply(ctx, event, rawBody)
	if err != nil {
		p.pm.IncWebhookEvent(event.Type.String(), "failed")
		return "", err
	}
	p.pm.IncWebhookEvent(event.Type.String(), string(outcome))
	return outcome, nil
}

func (p *Processor) apply(ctx context.Context, event *Event, rawBody []byte) (Outcome, error) {
	transition, known := webhooks.TransitionFor(event.Type)
	if !known {
		return OutcomeIgnored, nil
	}
	if !transition.Mutates {
		p.logg.Warn(ctx, "webhook event recorded for operator follow-up")
		return OutcomeIgnored, nil
	}

	payment, err := p.payments.FindByProviderOrderID(ctx, event.ProviderOrderID)
	if err != nil {
		if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
			return "", err
		}
		return p.deferFact(ctx, event, rawBody)
	}

	if err := p.applyTransition(ctx, payment, event, transition); err != nil {
		return "", err
	}
	p.logg.Info(ctx, "webhook transition applied")
	return OutcomeProcessed, nil
}

// deferFact stores the event as a durable fact keyed by provider order id.
// The settlement path drains pending facts when it creates the payment row,
// so a webhook that outruns the redirect is delayed rather than lost.
func (p *Processor) deferFact(ctx context.Context, event *Event, rawBody []byte) (Outcome, error) {
	eventID := event.ID
	if eventID == "" {
		// the event id header is optional; derive a stable id from the body
		// so distinct events never collide on the unique constraint while a
		// byte-identical redelivery still deduplicates
		sum := sha256.Sum256(rawBody)
		eventID = "sha256:" + hex.EncodeToString(sum[:])
	}
	fact := &models.PendingWebhookEvent{
		EventID:           eventID,
		EventType:         event.Type,
		ProviderOrderID:   event.ProviderOrderID,
		ProviderPaymentID: event.ProviderPaymentID,
		FailureReason:     event.FailureReason,
		Payload:           json.RawMessage(rawBody),
	}
	if err := p.facts.Record(ctx, fact); err != nil {
		return "", err
	}
	p.logg.Info(ctx, "webhook event deferred until payment row exists")
	return OutcomeDeferred, nil
}

func (p *Processor) applyTransition(ctx context.Context, payment *models.Payment, event *Event, transition webhooks.Transition) error {
	received := transition.WebhookReceived
	update := orders.PaymentStateUpdate{
		Status:            transition.PaymentStatus,
		ProviderPaymentID: event.ProviderPaymentID,
		WebhookReceived:   &received,
		FailureReason:     event.FailureReason,
	}
	return p.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := p.payments.WithTx(tx).ApplyState(ctx, payment.ID, update); err != nil {
			return err
		}
		if payment.OrderID == nil {
			// pending pair not yet linked; the payment row alone carries the state
			return nil
		}
		return p.orderRepo.WithTx(tx).SetPaymentState(ctx, *payment.OrderID, transition.OrderPaymentStatus, transition.OrderStatus, &payment.ID)
	})
}
