package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/observability"
)

// maxWebhookBody bounds the gateway event payload.
const maxWebhookBody = 1 << 16

// SignatureHeader carries the gateway's webhook signature.
const SignatureHeader = "Stripe-Signature"

// Payments is the payment reconciliation and gateway API.
type Payments interface {
	VerifySignature(payload []byte, signature string) bool
	ProcessEvent(ctx context.Context, payload []byte) error
	CreateCheckoutSession(ctx context.Context, userID uint64, email string) (string, error)
	CreatePaymentIntent(ctx context.Context, userID uint64, ref string, amountCents int64, currency string) (string, error)
}

type PaymentHandler struct {
	payments Payments
	log      zerolog.Logger
}

func NewPaymentHandler(payments Payments, log zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, log: log.With().Str("component", "payments").Logger()}
}

// CheckoutSession opens a hosted checkout for the caller's Pending bookings
// and returns its URL.
func (h *PaymentHandler) CheckoutSession(c echo.Context) error {
	url, err := h.payments.CreateCheckoutSession(c.Request().Context(), userID(c), middleware.Email(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"url": url})
}

type paymentIntentReq struct {
	BookingReference string `json:"booking_reference" validate:"required"`
	AmountCents      int64  `json:"amount_cents" validate:"gte=0"`
	Currency         string `json:"currency" validate:"omitempty,len=3"`
}

// PaymentIntent creates an intent for one booking and returns its client
// secret.  A zero amount charges the stay's computed total.
func (h *PaymentHandler) PaymentIntent(c echo.Context) error {
	var req paymentIntentReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	secret, err := h.payments.CreatePaymentIntent(c.Request().Context(), userID(c), req.BookingReference, req.AmountCents, req.Currency)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"client_secret": secret})
}

// Webhook receives gateway events.  A bad signature is 400; an event that
// was applied, ignored or dropped is 200; a persistence failure is 500 so
// the gateway retries.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}
	if !h.payments.VerifySignature(payload, c.Request().Header.Get(SignatureHeader)) {
		observability.ObserveWebhook("", "rejected")
		h.log.Warn().Str("ip", c.RealIP()).Msg("webhook signature rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	}
	if err := h.payments.ProcessEvent(c.Request().Context(), payload); err != nil {
		h.log.Error().Err(err).Msg("webhook processing failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "processing failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
