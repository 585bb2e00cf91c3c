package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Its-SuperNova/duchess-backend-sub004/internal/settlement"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/razorpay"
)

const verifySecret = "sign_secret"

type stubFinalizer struct {
	result   *settlement.Result
	report   *settlement.StatusReport
	err      error
	evidence settlement.Evidence
	called   bool
}

func (s *stubFinalizer) Finalize(ctx context.Context, providerOrderID, checkoutID string, evidence settlement.Evidence) (*settlement.Result, error) {
	s.called = true
	s.evidence = evidence
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubFinalizer) Status(ctx context.Context, providerOrderID, checkoutID string) (*settlement.StatusReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func postVerify(t *testing.T, handler http.HandlerFunc, orderID, paymentID, signature string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]string{
		"provider_order_id":   orderID,
		"provider_payment_id": paymentID,
		"signature":           signature,
		"checkout_id":         "chk_verify",
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestVerifyPaymentAcceptsValidSignature(t *testing.T) {
	orderID := uuid.New()
	coordinator := &stubFinalizer{result: &settlement.Result{OrderID: orderID, OrderNumber: "DB-20260829-AB12CD"}}
	signature := razorpay.SignPayload([]byte("order_v1|pay_v1"), verifySecret)

	rec := postVerify(t, VerifyPayment(coordinator, verifySecret, nil), "order_v1", "pay_v1", signature)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, coordinator.called)
	assert.True(t, coordinator.evidence.SignatureVerified)
	assert.Equal(t, "pay_v1", coordinator.evidence.ProviderPaymentID)
	assert.Equal(t, "redirect", coordinator.evidence.Source)

	var envelope struct {
		Data verifyPaymentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Success)
	assert.Equal(t, orderID, envelope.Data.LocalOrderID)
}

func TestVerifyPaymentRejectsBadSignatureBeforeSettling(t *testing.T) {
	coordinator := &stubFinalizer{}

	rec := postVerify(t, VerifyPayment(coordinator, verifySecret, nil), "order_v1", "pay_v1", "forged")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, coordinator.called)
}

func TestVerifyPaymentSurfacesSettlementInProgress(t *testing.T) {
	coordinator := &stubFinalizer{err: pkgerrors.New(pkgerrors.CodeIdempotency, "settlement already in progress, poll for result")}
	signature := razorpay.SignPayload([]byte("order_v1|pay_v1"), verifySecret)

	rec := postVerify(t, VerifyPayment(coordinator, verifySecret, nil), "order_v1", "pay_v1", signature)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPaymentStatusRequiresAnIdentifier(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/status", nil)
	rec := httptest.NewRecorder()
	PaymentStatus(&stubFinalizer{}, nil)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentStatusReportsSettledOrder(t *testing.T) {
	orderID := uuid.New()
	coordinator := &stubFinalizer{report: &settlement.StatusReport{
		PaymentStatus: enums.PaymentStatusCaptured,
		OrderID:       &orderID,
		OrderNumber:   "DB-20260829-AB12CD",
		Settled:       true,
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/status?orderId=order_v1", nil)
	rec := httptest.NewRecorder()
	PaymentStatus(coordinator, nil)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data paymentStatusResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "captured", envelope.Data.Status)
	assert.True(t, envelope.Data.Settled)
	require.NotNil(t, envelope.Data.OrderID)
	assert.Equal(t, orderID, *envelope.Data.OrderID)
}
