// Package payment creates hosted checkout sessions and verifies payment webhooks.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrIgnoredEvent is returned by ParseWebhook for events that do not complete a checkout.
var ErrIgnoredEvent = errors.New("ignored webhook event")

// CheckoutRequest describes one tour purchase.
type CheckoutRequest struct {
	ClientReferenceID string
	CustomerEmail     string
	ProductName       string
	Description       string
	ImageURL          string
	Amount            decimal.Decimal
	Currency          string
	SuccessURL        string
	CancelURL         string
}

// Session is a created checkout session.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CompletedCheckout is the verified payload of a finished checkout.
type CompletedCheckout struct {
	SessionID         string
	ClientReferenceID string
	CustomerEmail     string
	Amount            decimal.Decimal
}

// Gateway is a hosted payment provider.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error)
	ParseWebhook(payload []byte, signature string) (*CompletedCheckout, error)
}
