// Package payment adapts the Stripe API to the checkout, payment intent and
// webhook operations the booking services need.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"
)

// ErrNotConfigured is returned by API calls when no secret key is set.
var ErrNotConfigured = errors.New("payment gateway not configured")

// LineItem is one row of a hosted checkout page.
type LineItem struct {
	Name           string
	Description    string
	UnitPriceCents int64
	Quantity       int64
}

// CheckoutRequest describes a hosted checkout session.
type CheckoutRequest struct {
	Items         []LineItem
	CustomerEmail string
	Metadata      map[string]string
}

// IntentRequest describes a direct payment intent.
type IntentRequest struct {
	AmountCents int64
	Currency    string
	Metadata    map[string]string
}

// Config carries the Stripe credentials and redirect URLs.
type Config struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Currency      string
	// Tolerance bounds the age of a signed webhook; zero uses Stripe's default.
	Tolerance time.Duration
}

// StripeGateway talks to Stripe.  Checkout and intent calls fail with
// ErrNotConfigured when no secret key is set; signature verification fails
// closed when no webhook secret is set.
type StripeGateway struct {
	cfg Config
}

// NewStripeGateway sets the process-wide Stripe key and returns a gateway.
func NewStripeGateway(cfg Config) *StripeGateway {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	cfg.Currency = strings.ToLower(cfg.Currency)
	if cfg.SecretKey != "" {
		stripe.Key = cfg.SecretKey
	}
	return &StripeGateway{cfg: cfg}
}

// CreateCheckoutSession creates a hosted checkout session and returns its URL.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	if g.cfg.SecretKey == "" {
		return "", ErrNotConfigured
	}
	if len(req.Items) == 0 {
		return "", errors.New("checkout session needs at least one item")
	}
	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(g.cfg.SuccessURL),
		CancelURL:  stripe.String(g.cfg.CancelURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
	}
	params.Context = ctx
	for _, it := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(g.cfg.Currency),
				UnitAmount: stripe.Int64(it.UnitPriceCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(it.Name),
					Description: stripe.String(it.Description),
				},
			},
			Quantity: stripe.Int64(it.Quantity),
		})
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	s, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe checkout session: %w", err)
	}
	return s.URL, nil
}

// CreatePaymentIntent creates a payment intent and returns its client secret.
func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (string, error) {
	if g.cfg.SecretKey == "" {
		return "", ErrNotConfigured
	}
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = g.cfg.Currency
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe payment intent: %w", err)
	}
	return pi.ClientSecret, nil
}

// VerifySignature checks the Stripe-Signature header against the payload.
// It never returns an error: a missing secret, a malformed header, a stale
// timestamp or a mismatched digest all yield false.
func (g *StripeGateway) VerifySignature(payload []byte, signature string) bool {
	if g.cfg.WebhookSecret == "" || signature == "" {
		return false
	}
	opts := webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true}
	if g.cfg.Tolerance > 0 {
		opts.Tolerance = g.cfg.Tolerance
	}
	_, err := webhook.ConstructEventWithOptions(payload, signature, g.cfg.WebhookSecret, opts)
	return err == nil
}
