package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/Its-SuperNova/duchess-backend-sub004/api/responses"
	razorpaywebhook "github.com/Its-SuperNova/duchess-backend-sub004/internal/webhooks/razorpay"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/logger"
)

const (
	webhookSignatureHeader = "X-Razorpay-Signature"
	webhookEventIDHeader   = "X-Razorpay-Event-Id"

	// the gateway caps webhook bodies well below this
	maxWebhookBodyBytes = 1 << 20
)

type webhookProcessor interface {
	Process(ctx context.Context, rawBody []byte, signature, eventID string) (razorpaywebhook.Outcome, error)
}

// RazorpayWebhook receives gateway events. The raw body is read exactly as
// sent and verified before any parsing. Processing errors return non-2xx so
// the gateway redelivers; redelivery is safe because every transition is
// idempotent.
func RazorpayWebhook(processor webhookProcessor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		signature := r.Header.Get(webhookSignatureHeader)
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeSignature, "missing webhook signature"))
			return
		}

		rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read webhook body"))
			return
		}

		outcome, err := processor.Process(ctx, rawBody, signature, r.Header.Get(webhookEventIDHeader))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"outcome": string(outcome)})
	}
}
