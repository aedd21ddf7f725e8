package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/observability"
	"github.com/iliyamo/hotel-booking/internal/payment"
	"github.com/iliyamo/hotel-booking/internal/queue"
	"github.com/iliyamo/hotel-booking/internal/repository"
)

// Gateway event types handled by ProcessEvent.
const (
	EventCheckoutCompleted      = "checkout.session.completed"
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
)

// Metadata keys written on checkout sessions and payment intents.
const (
	MetaBookingNumber  = "bookingNumber"
	MetaBookingNumbers = "bookingNumbers" // comma separated, checkout sessions only
	MetaUserID         = "userId"
)

// Gateway is the card payment provider.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (string, error)
	CreatePaymentIntent(ctx context.Context, req payment.IntentRequest) (string, error)
	VerifySignature(payload []byte, signature string) bool
}

// EventPublisher announces confirmed bookings.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// PaymentService reconciles gateway payments with bookings.
type PaymentService struct {
	store    repository.Store
	gateway  Gateway
	events   EventPublisher // nil disables publishing
	currency string
	log      zerolog.Logger
	now      func() time.Time
}

func NewPaymentService(store repository.Store, gateway Gateway, events EventPublisher, currency string, log zerolog.Logger) *PaymentService {
	if currency == "" {
		currency = "usd"
	}
	return &PaymentService{
		store:    store,
		gateway:  gateway,
		events:   events,
		currency: strings.ToLower(currency),
		log:      log.With().Str("component", "payment").Logger(),
		now:      time.Now,
	}
}

// ApplyResult describes the outcome of ApplyPayment.
type ApplyResult struct {
	Payment   model.Payment
	Booking   model.BookingDetail // status after the apply
	Created   bool                // a new payment row was inserted
	Confirmed bool                // the booking moved from Pending to Confirmed
}

// VerifySignature reports whether signature authenticates payload.  It
// never fails loudly; any problem is a false.
func (s *PaymentService) VerifySignature(payload []byte, signature string) bool {
	if s.gateway == nil {
		return false
	}
	return s.gateway.VerifySignature(payload, signature)
}

type gatewayEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object eventObject `json:"object"`
	} `json:"data"`
}

type eventObject struct {
	ID             string         `json:"id"`
	Metadata       map[string]any `json:"metadata"`
	AmountReceived int64          `json:"amount_received"`
	PaymentStatus  string         `json:"payment_status"`
}

// metaString reads a metadata value that may arrive as a string or a number.
func metaString(md map[string]any, key string) string {
	switch v := md[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// ProcessEvent applies a verified gateway event.  Malformed payloads,
// unknown event types and events that resolve to no booking are logged and
// dropped with a nil error.  A non-nil error means persistence failed and
// the gateway should redeliver; redelivery is safe because the upsert is
// idempotent.
func (s *PaymentService) ProcessEvent(ctx context.Context, payload []byte) error {
	var ev gatewayEvent
	if err := json.Unmarshal(payload, &ev); err != nil || ev.Type == "" {
		s.log.Warn().Err(err).Int("bytes", len(payload)).Msg("dropping malformed webhook payload")
		observability.ObserveWebhook("", "dropped")
		return nil
	}
	logger := s.log.With().Str("event_id", ev.ID).Str("event_type", ev.Type).Logger()
	obj := ev.Data.Object

	var reported int64
	switch ev.Type {
	case EventCheckoutCompleted:
		// amount comes from the booking
	case EventPaymentIntentSucceeded:
		reported = obj.AmountReceived
	default:
		logger.Debug().Msg("ignoring webhook event")
		observability.ObserveWebhook(ev.Type, "ignored")
		return nil
	}

	bookingIDs, err := s.resolveBookings(ctx, obj.Metadata)
	if err != nil {
		logger.Error().Err(err).Msg("resolve booking failed")
		observability.ObserveWebhook(ev.Type, "failed")
		return err
	}
	if len(bookingIDs) == 0 {
		logger.Warn().Str("object_id", obj.ID).Interface("metadata", obj.Metadata).Msg("no booking found for payment event")
		observability.ObserveWebhook(ev.Type, "dropped")
		return nil
	}
	if ev.Type == EventCheckoutCompleted && obj.PaymentStatus != "paid" {
		logger.Info().Uints64("booking_ids", bookingIDs).Str("payment_status", obj.PaymentStatus).Msg("checkout session not paid")
		observability.ObserveWebhook(ev.Type, "ignored")
		return nil
	}
	// A reported amount covers the whole charge, so it only maps onto a
	// single booking.
	if len(bookingIDs) > 1 {
		reported = 0
	}

	applied := 0
	for _, id := range bookingIDs {
		if _, err := s.ApplyPayment(ctx, id, reported, obj.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				logger.Warn().Uint64("booking_id", id).Msg("booking vanished before payment was applied")
				continue
			}
			logger.Error().Err(err).Uint64("booking_id", id).Str("object_id", obj.ID).Msg("apply payment failed")
			observability.ObserveWebhook(ev.Type, "failed")
			return err
		}
		applied++
	}
	if applied == 0 {
		observability.ObserveWebhook(ev.Type, "dropped")
		return nil
	}
	observability.ObserveWebhook(ev.Type, "applied")
	return nil
}

// resolveBookings finds the bookings an event pays for: every existing id
// in the bookingNumbers metadata, else the bookingNumber metadata when it
// names an existing booking, else the most recent Pending booking of the
// userId metadata.
func (s *PaymentService) resolveBookings(ctx context.Context, md map[string]any) ([]uint64, error) {
	var refs []string
	if list := metaString(md, MetaBookingNumbers); list != "" {
		refs = strings.Split(list, ",")
	} else if one := metaString(md, MetaBookingNumber); one != "" {
		refs = []string{one}
	}

	var ids []uint64
	seen := map[uint64]bool{}
	for _, ref := range refs {
		id, ok := ParseReference(ref)
		if !ok || seen[id] {
			continue
		}
		b, err := s.store.Bookings().GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		seen[id] = true
		ids = append(ids, b.ID)
	}
	if len(ids) > 0 {
		return ids, nil
	}

	uid, err := strconv.ParseUint(metaString(md, MetaUserID), 10, 64)
	if err != nil || uid == 0 {
		return nil, nil
	}
	b, err := s.store.Bookings().LatestPendingForUser(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []uint64{b.ID}, nil
}

// ApplyPayment upserts the Stripe payment of bookingID and confirms it.
//
// The booking row is locked for the whole transaction, so concurrent
// deliveries of the same event apply one after another and the second one
// updates the payment the first one created.  reportedCents, when positive,
// overrides the amount computed from the stay.  A Cancelled booking keeps
// its status; the payment is still recorded so it can be refunded.
func (s *PaymentService) ApplyPayment(ctx context.Context, bookingID uint64, reportedCents int64, gatewayRef string) (ApplyResult, error) {
	return s.applyPayment(ctx, bookingID, reportedCents, gatewayRef, false)
}

// ApplyManualPayment is ApplyPayment for payments entered by staff.  A
// Cancelled booking is refused with ErrConflict and nothing is written.
func (s *PaymentService) ApplyManualPayment(ctx context.Context, bookingID uint64, gatewayRef string) (ApplyResult, error) {
	return s.applyPayment(ctx, bookingID, 0, gatewayRef, true)
}

func (s *PaymentService) applyPayment(ctx context.Context, bookingID uint64, reportedCents int64, gatewayRef string, refuseCancelled bool) (ApplyResult, error) {
	var res ApplyResult
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		b, err := tx.Bookings().GetForUpdate(ctx, bookingID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock booking: %w", err)
		}
		if refuseCancelled && b.Status == model.BookingCancelled {
			return fmt.Errorf("%w: booking %s is cancelled", ErrConflict, FormatReference(b.ID))
		}
		detail, err := tx.Bookings().GetDetail(ctx, b.ID)
		if err != nil {
			return fmt.Errorf("load booking detail: %w", err)
		}

		amount := detail.TotalCents()
		if reportedCents > 0 {
			amount = reportedCents
		}
		pt, err := ensurePaymentType(ctx, tx, model.PaymentTypeStripe)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		p, err := tx.Payments().GetByBookingAndType(ctx, b.ID, pt.ID)
		switch {
		case err == nil:
			p.AmountCents = amount
			p.Status = model.PaymentCompleted
			p.PaidAt = now
			if gatewayRef != "" {
				p.GatewayRef = gatewayRef
			}
			if err := tx.Payments().Update(ctx, p); err != nil {
				return fmt.Errorf("update payment: %w", err)
			}
		case errors.Is(err, repository.ErrNotFound):
			p = model.Payment{
				BookingID:     b.ID,
				PaymentTypeID: pt.ID,
				AmountCents:   amount,
				GatewayRef:    gatewayRef,
				PaidAt:        now,
				Status:        model.PaymentCompleted,
			}
			if err := tx.Payments().Create(ctx, &p); err != nil {
				return fmt.Errorf("insert payment: %w", err)
			}
			res.Created = true
		default:
			return fmt.Errorf("load payment: %w", err)
		}

		switch {
		case b.Status.CanTransitionTo(model.BookingConfirmed):
			if err := tx.Bookings().UpdateStatus(ctx, b.ID, model.BookingConfirmed); err != nil {
				return fmt.Errorf("confirm booking: %w", err)
			}
			detail.Status = model.BookingConfirmed
			res.Confirmed = true
		case b.Status == model.BookingCancelled:
			s.log.Warn().Uint64("booking_id", b.ID).Int64("amount_cents", amount).Msg("payment received for cancelled booking")
		}
		res.Payment = p
		res.Booking = detail
		return nil
	})
	if err != nil {
		return ApplyResult{}, err
	}

	action := "updated"
	if res.Created {
		action = "created"
	}
	observability.PaymentsApplied.WithLabelValues(action).Inc()
	s.log.Info().Uint64("booking_id", bookingID).Uint64("payment_id", res.Payment.ID).
		Int64("amount_cents", res.Payment.AmountCents).Str("action", action).
		Str("booking_status", string(res.Booking.Status)).Msg("payment applied")

	if res.Confirmed {
		s.publishConfirmed(ctx, res)
	}
	return res, nil
}

func ensurePaymentType(ctx context.Context, tx repository.Store, name string) (model.PaymentType, error) {
	pt, err := tx.PaymentTypes().GetByName(ctx, name)
	if err == nil {
		return pt, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return pt, fmt.Errorf("load payment type: %w", err)
	}
	pt = model.PaymentType{Name: name, Description: name + " payments"}
	if err := tx.PaymentTypes().Create(ctx, &pt); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return tx.PaymentTypes().GetByName(ctx, name)
		}
		return pt, fmt.Errorf("create payment type: %w", err)
	}
	return pt, nil
}

func (s *PaymentService) publishConfirmed(ctx context.Context, res ApplyResult) {
	if s.events == nil {
		return
	}
	d := res.Booking
	ev := queue.BookingConfirmedEvent{
		BookingID:     d.ID,
		CustomerID:    d.CustomerID,
		UserID:        d.CustomerUserID,
		CustomerName:  d.CustomerName,
		CustomerEmail: d.CustomerEmail,
		RoomID:        d.RoomID,
		RoomNumber:    d.RoomNumber,
		RoomType:      d.RoomTypeName,
		CheckIn:       d.CheckIn.Format("2006-01-02"),
		CheckOut:      d.CheckOut.Format("2006-01-02"),
		Nights:        d.Nights(),
		AmountCents:   res.Payment.AmountCents,
		GatewayRef:    res.Payment.GatewayRef,
		ConfirmedAt:   s.now().UTC().Format(time.RFC3339),
	}
	if err := s.events.PublishBookingConfirmed(ctx, ev); err != nil {
		s.log.Warn().Err(err).Uint64("booking_id", d.ID).Msg("booking.confirmed not published")
	}
}

// CreateCheckoutSession opens a hosted checkout for the caller's Pending
// bookings.  Each booking becomes one line item priced per night with the
// number of nights as quantity.  All booking ids, the first booking id and
// the user id are attached as metadata so the webhook confirms every
// booking the session charged for.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, userID uint64, email string) (string, error) {
	c, err := s.store.Customers().GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("%w: no customer profile", ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	pending, err := s.store.Bookings().ListPendingByCustomer(ctx, c.ID)
	if err != nil {
		return "", err
	}
	if len(pending) == 0 {
		return "", fmt.Errorf("%w: no pending bookings", ErrValidation)
	}

	ids := make([]string, len(pending))
	for i, b := range pending {
		ids[i] = strconv.FormatUint(b.ID, 10)
	}
	req := payment.CheckoutRequest{
		CustomerEmail: email,
		Metadata: map[string]string{
			MetaBookingNumber:  ids[0],
			MetaBookingNumbers: strings.Join(ids, ","),
			MetaUserID:         strconv.FormatUint(userID, 10),
		},
	}
	for _, b := range pending {
		req.Items = append(req.Items, payment.LineItem{
			Name:           fmt.Sprintf("%s - %s", b.RoomNumber, b.RoomTypeName),
			Description:    fmt.Sprintf("Check-in: %s, Check-out: %s", b.CheckIn.Format("2006-01-02"), b.CheckOut.Format("2006-01-02")),
			UnitPriceCents: b.PricePerNightCents,
			Quantity:       b.Nights(),
		})
	}
	url, err := s.gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		s.log.Error().Err(err).Uint64("user_id", userID).Uint64("booking_id", pending[0].ID).Msg("create checkout session failed")
		return "", err
	}
	return url, nil
}

// CreatePaymentIntent creates a payment intent for the booking behind ref,
// which must belong to userID and still be Pending.  A zero amountCents
// charges the amount computed from the stay.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, userID uint64, ref string, amountCents int64, currency string) (string, error) {
	id, ok := ParseReference(ref)
	if !ok {
		return "", fmt.Errorf("%w: invalid booking reference", ErrValidation)
	}
	if amountCents < 0 {
		return "", fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	d, err := s.store.Bookings().GetDetail(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if d.CustomerUserID != userID {
		return "", ErrForbidden
	}
	if d.Status != model.BookingPending {
		return "", fmt.Errorf("%w: booking is %s", ErrConflict, d.Status)
	}
	if amountCents == 0 {
		amountCents = d.TotalCents()
	}
	if currency == "" {
		currency = s.currency
	}
	secret, err := s.gateway.CreatePaymentIntent(ctx, payment.IntentRequest{
		AmountCents: amountCents,
		Currency:    currency,
		Metadata: map[string]string{
			MetaBookingNumber: strconv.FormatUint(d.ID, 10),
			MetaUserID:        strconv.FormatUint(userID, 10),
		},
	})
	if err != nil {
		s.log.Error().Err(err).Uint64("booking_id", d.ID).Msg("create payment intent failed")
		return "", err
	}
	return secret, nil
}
