package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
)

// VerifyPaymentSignature checks the redirect-confirmation signature computed
// over "<providerOrderID>|<providerPaymentID>".
func VerifyPaymentSignature(providerOrderID, providerPaymentID, signature, secret string) error {
	if providerOrderID == "" || providerPaymentID == "" || signature == "" {
		return pkgerrors.New(pkgerrors.CodeSignature, "payment signature fields missing")
	}
	payload := providerOrderID + "|" + providerPaymentID
	if !verifyHMAC([]byte(payload), signature, secret) {
		return pkgerrors.New(pkgerrors.CodeSignature, "payment signature mismatch")
	}
	return nil
}

// VerifyWebhookSignature checks the webhook signature computed over the exact
// raw request body. Callers must pass the unparsed bytes; decoding first would
// invalidate the check.
func VerifyWebhookSignature(rawBody []byte, signature, secret string) error {
	if len(rawBody) == 0 || signature == "" {
		return pkgerrors.New(pkgerrors.CodeSignature, "webhook signature fields missing")
	}
	if !verifyHMAC(rawBody, signature, secret) {
		return pkgerrors.New(pkgerrors.CodeSignature, "webhook signature mismatch")
	}
	return nil
}

func verifyHMAC(payload []byte, signature, secret string) bool {
	if secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignPayload produces the hex HMAC-SHA256 of payload. Tests and the dev
// sandbox use it to fabricate valid gateway signatures.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
