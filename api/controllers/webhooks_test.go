package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	razorpaywebhook "github.com/Its-SuperNova/duchess-backend-sub004/internal/webhooks/razorpay"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
)

type stubProcessor struct {
	outcome   razorpaywebhook.Outcome
	err       error
	body      []byte
	signature string
	eventID   string
}

func (s *stubProcessor) Process(ctx context.Context, rawBody []byte, signature, eventID string) (razorpaywebhook.Outcome, error) {
	s.body = rawBody
	s.signature = signature
	s.eventID = eventID
	if s.err != nil {
		return "", s.err
	}
	return s.outcome, nil
}

func postWebhook(processor *stubProcessor, signature, eventID string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Razorpay-Signature", signature)
	}
	if eventID != "" {
		req.Header.Set("X-Razorpay-Event-Id", eventID)
	}
	rec := httptest.NewRecorder()
	RazorpayWebhook(processor, nil)(rec, req)
	return rec
}

func TestRazorpayWebhookRequiresSignatureHeader(t *testing.T) {
	processor := &stubProcessor{}
	rec := postWebhook(processor, "", "", []byte(`{}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, processor.body)
}

func TestRazorpayWebhookPassesRawBodyThrough(t *testing.T) {
	processor := &stubProcessor{outcome: razorpaywebhook.OutcomeProcessed}
	body := []byte(`{"event":"payment.captured"}`)
	rec := postWebhook(processor, "sig-value", "evt-1", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body, processor.body)
	assert.Equal(t, "sig-value", processor.signature)
	assert.Equal(t, "evt-1", processor.eventID)
	assert.Contains(t, rec.Body.String(), "processed")
}

func TestRazorpayWebhookRejectsBadSignature(t *testing.T) {
	processor := &stubProcessor{err: pkgerrors.New(pkgerrors.CodeSignature, "webhook signature mismatch")}
	rec := postWebhook(processor, "forged", "", []byte(`{}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRazorpayWebhookReturnsServerErrorForRetry(t *testing.T) {
	processor := &stubProcessor{err: pkgerrors.New(pkgerrors.CodePersistence, "settlement write failed")}
	rec := postWebhook(processor, "sig-value", "", []byte(`{}`))

	// non-2xx makes the gateway redeliver, which is safe because transitions
	// are idempotent
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
