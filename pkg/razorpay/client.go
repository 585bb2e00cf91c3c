package razorpay

import (
	"fmt"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/config"
	pkgerrors "github.com/Its-SuperNova/duchess-backend-sub004/pkg/errors"
)

// Client wraps the Razorpay SDK with the narrow surface the checkout flow
// needs. Secrets never leave this package except through KeyID, which is the
// public key the storefront embeds in its checkout widget.
type Client struct {
	api           *razorpay.Client
	keyID         string
	keySecret     string
	webhookSecret string
}

// NewClient builds the gateway client from configuration.
func NewClient(cfg config.RazorpayConfig) (*Client, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keyID == "" || keySecret == "" {
		return nil, fmt.Errorf("razorpay key id and secret are required")
	}
	if strings.TrimSpace(cfg.WebhookSecret) == "" {
		return nil, fmt.Errorf("razorpay webhook secret is required")
	}
	return &Client{
		api:           razorpay.NewClient(keyID, keySecret),
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

// ProviderOrder is the gateway-side order opened before client payment.
type ProviderOrder struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

// CreateOrder opens a provider order for the given amount in paise.
func (c *Client) CreateOrder(amountPaise int64, currency, receipt string, notes map[string]any) (*ProviderOrder, error) {
	if amountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive")
	}
	if currency == "" {
		currency = "INR"
	}

	payload := map[string]any{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		payload["notes"] = notes
	}

	raw, err := c.api.Order.Create(payload, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create provider order")
	}

	id, _ := raw["id"].(string)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "provider order response missing id")
	}

	order := &ProviderOrder{
		ID:       id,
		Amount:   amountPaise,
		Currency: currency,
		Receipt:  receipt,
	}
	if amount, ok := raw["amount"].(float64); ok {
		order.Amount = int64(amount)
	}
	if cur, ok := raw["currency"].(string); ok && cur != "" {
		order.Currency = cur
	}
	return order, nil
}

// KeyID returns the public gateway key.
func (c *Client) KeyID() string {
	return c.keyID
}

// SigningSecret returns the secret used for redirect confirmation signatures.
func (c *Client) SigningSecret() string {
	return c.keySecret
}

// WebhookSecret returns the secret used for webhook payload signatures.
func (c *Client) WebhookSecret() string {
	return c.webhookSecret
}
