package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const eventCheckoutCompleted = "checkout.session.completed"

// StripeGateway implements Gateway with Stripe Checkout.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway builds a gateway for the given secret key.
func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, webhookSecret: webhookSecret}
}

// CreateCheckoutSession implements Gateway.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	params := newCheckoutParams(req)
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

func newCheckoutParams(req CheckoutRequest) *stripe.CheckoutSessionParams {
	currency := req.Currency
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name:        stripe.String(req.ProductName),
		Description: stripe.String(req.Description),
	}
	if req.ImageURL != "" {
		product.Images = stripe.StringSlice([]string{req.ImageURL})
	}

	return &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		CustomerEmail:      stripe.String(req.CustomerEmail),
		ClientReferenceID:  stripe.String(req.ClientReferenceID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				UnitAmount:  stripe.Int64(toMinorUnits(req.Amount)),
				ProductData: product,
			},
		}},
	}
}

// ParseWebhook verifies the Stripe-Signature header and extracts a completed
// checkout. Other event types yield ErrIgnoredEvent.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*CompletedCheckout, error) {
	// The endpoint's API version is set in the Stripe dashboard and may differ
	// from the library's pinned one; only the checkout fields below are read.
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("verify webhook: %w", err)
	}
	if string(event.Type) != eventCheckoutCompleted {
		return nil, ErrIgnoredEvent
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}

	email := sess.CustomerEmail
	if email == "" && sess.CustomerDetails != nil {
		email = sess.CustomerDetails.Email
	}
	return &CompletedCheckout{
		SessionID:         sess.ID,
		ClientReferenceID: sess.ClientReferenceID,
		CustomerEmail:     email,
		Amount:            fromMinorUnits(sess.AmountTotal),
	}, nil
}

func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func fromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
