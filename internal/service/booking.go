package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/hotel-booking/internal/cart"
	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/observability"
	"github.com/iliyamo/hotel-booking/internal/repository"
)

// PaymentApplier records a staff-entered payment for a booking.  It is
// implemented by PaymentService.
type PaymentApplier interface {
	ApplyManualPayment(ctx context.Context, bookingID uint64, gatewayRef string) (ApplyResult, error)
}

// BookingService drives the booking lifecycle: Pending on creation, then
// Confirmed by payment or Cancelled by its owner.
type BookingService struct {
	store    repository.Store
	payments PaymentApplier
	log      zerolog.Logger
	now      func() time.Time
}

func NewBookingService(store repository.Store, payments PaymentApplier, log zerolog.Logger) *BookingService {
	return &BookingService{store: store, payments: payments, log: log.With().Str("component", "booking").Logger(), now: time.Now}
}

// CreateBooking turns the cart items of userID into Pending bookings.
//
// Every item is validated and checked for availability before anything is
// written; the first failing item aborts the whole checkout with a
// *BookingError.  The checks and inserts run in one transaction holding row
// locks on the booked rooms (taken in ascending id order), so two
// concurrent checkouts for the same room are serialised and the second one
// sees the first one's bookings.
func (s *BookingService) CreateBooking(ctx context.Context, userID uint64, items []cart.Item) ([]model.Booking, error) {
	if len(items) == 0 {
		return nil, emptyCartError()
	}
	customer, err := s.store.Customers().GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, noCustomerError()
	}
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}

	stays := make([]cart.Item, len(items))
	for i, it := range items {
		it.CheckIn, it.CheckOut = model.DateOnly(it.CheckIn), model.DateOnly(it.CheckOut)
		if !it.CheckIn.Before(it.CheckOut) {
			return nil, invalidDatesError(it.RoomID)
		}
		stays[i] = it
	}

	var created []model.Booking
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		for _, id := range lockOrder(stays) {
			if err := tx.Rooms().LockForBooking(ctx, id); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return roomNotFoundError(id)
				}
				return fmt.Errorf("lock room %d: %w", id, err)
			}
		}

		for i, it := range stays {
			room, err := tx.Rooms().GetByID(ctx, it.RoomID)
			if err != nil {
				return fmt.Errorf("load room %d: %w", it.RoomID, err)
			}
			free, err := isAvailable(ctx, tx, it.RoomID, it.CheckIn, it.CheckOut, nil)
			if err != nil {
				return fmt.Errorf("check room %d: %w", it.RoomID, err)
			}
			if free {
				for _, prev := range stays[:i] {
					if prev.RoomID == it.RoomID && overlaps(prev.CheckIn, prev.CheckOut, it.CheckIn, it.CheckOut) {
						free = false
						break
					}
				}
			}
			if !free {
				return roomUnavailableError(it.RoomID, room.RoomNumber)
			}
		}

		now := s.now().UTC()
		created = make([]model.Booking, 0, len(stays))
		for _, it := range stays {
			b := model.Booking{
				CustomerID:  customer.ID,
				RoomID:      it.RoomID,
				BookingDate: now,
				CheckIn:     it.CheckIn,
				CheckOut:    it.CheckOut,
				Status:      model.BookingPending,
			}
			if err := tx.Bookings().Create(ctx, &b); err != nil {
				return fmt.Errorf("insert booking for room %d: %w", it.RoomID, err)
			}
			created = append(created, b)
		}
		return nil
	})
	if err != nil {
		var be *BookingError
		if errors.As(err, &be) {
			s.log.Info().Uint64("user_id", userID).Str("reason", string(be.Reason)).Uint64("room_id", be.RoomID).Msg("checkout rejected")
		}
		return nil, err
	}

	observability.BookingsCreated.Add(float64(len(created)))
	ids := make([]uint64, len(created))
	for i, b := range created {
		ids[i] = b.ID
	}
	s.log.Info().Uint64("user_id", userID).Uints64("booking_ids", ids).Msg("bookings created")
	return created, nil
}

// lockOrder returns the distinct room ids of items in ascending order.
func lockOrder(items []cart.Item) []uint64 {
	seen := map[uint64]bool{}
	ids := make([]uint64, 0, len(items))
	for _, it := range items {
		if !seen[it.RoomID] {
			seen[it.RoomID] = true
			ids = append(ids, it.RoomID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ValidateCartAvailability reports whether every item could be booked right
// now.  An empty cart, a bad date range, an unknown room or two items
// competing for the same room all make the cart invalid.
func (s *BookingService) ValidateCartAvailability(ctx context.Context, items []cart.Item) (bool, error) {
	if len(items) == 0 {
		return false, nil
	}
	for i, it := range items {
		in, out := model.DateOnly(it.CheckIn), model.DateOnly(it.CheckOut)
		if _, err := s.store.Rooms().GetByID(ctx, it.RoomID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		free, err := isAvailable(ctx, s.store, it.RoomID, in, out, nil)
		if errors.Is(err, ErrInvalidRange) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if !free {
			return false, nil
		}
		for _, prev := range items[:i] {
			if prev.RoomID == it.RoomID && overlaps(model.DateOnly(prev.CheckIn), model.DateOnly(prev.CheckOut), in, out) {
				return false, nil
			}
		}
	}
	return true, nil
}

// GetUserBookings lists the bookings of userID, newest first.  A zero id or
// a user without a customer profile yields an empty list.
func (s *BookingService) GetUserBookings(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	if userID == 0 {
		return []model.BookingDetail{}, nil
	}
	c, err := s.store.Customers().GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return []model.BookingDetail{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.store.Bookings().ListByCustomer(ctx, c.ID)
}

// ParseReference resolves a booking reference to its numeric id.  "42" and
// "#42" are both accepted.
func ParseReference(ref string) (uint64, bool) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "#")
	id, err := strconv.ParseUint(ref, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// FormatReference is the display form of a booking id, "#42".
func FormatReference(id uint64) string { return "#" + strconv.FormatUint(id, 10) }

// GetBookingByReference returns the booking for ref, or nil when the
// reference does not resolve to a booking.
func (s *BookingService) GetBookingByReference(ctx context.Context, ref string) (*model.BookingDetail, error) {
	id, ok := ParseReference(ref)
	if !ok {
		return nil, nil
	}
	d, err := s.store.Bookings().GetDetail(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CancelBooking cancels bookingID on behalf of userID.  Only the owning
// customer may cancel, and only while the booking is Pending.  Nothing is
// written unless the outcome is CancelOK.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, userID uint64) (CancelOutcome, error) {
	outcome := CancelNotFound
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		b, err := tx.Bookings().GetForUpdate(ctx, bookingID)
		if errors.Is(err, repository.ErrNotFound) {
			outcome = CancelNotFound
			return nil
		}
		if err != nil {
			return err
		}
		c, err := tx.Customers().GetByUserID(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && c.ID != b.CustomerID) {
			outcome = CancelNotOwner
			return nil
		}
		if err != nil {
			return err
		}
		if !b.Status.CanBeCancelled() {
			outcome = CancelNotAllowed
			return nil
		}
		if err := tx.Bookings().UpdateStatus(ctx, b.ID, model.BookingCancelled); err != nil {
			return err
		}
		outcome = CancelOK
		return nil
	})
	if err != nil {
		return CancelNotFound, fmt.Errorf("cancel booking %d: %w", bookingID, err)
	}
	s.log.Info().Uint64("booking_id", bookingID).Uint64("user_id", userID).Str("outcome", outcome.String()).Msg("cancel requested")
	return outcome, nil
}

// ConfirmPayment confirms the booking behind ref through the same
// idempotent payment upsert the webhook uses, with the amount computed from
// the stay.  It returns false when the reference does not resolve and
// ErrConflict, without recording a payment, when the booking is Cancelled.
func (s *BookingService) ConfirmPayment(ctx context.Context, ref, gatewayRef string) (bool, error) {
	id, ok := ParseReference(ref)
	if !ok {
		return false, nil
	}
	res, err := s.payments.ApplyManualPayment(ctx, id, gatewayRef)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return res.Booking.Status == model.BookingConfirmed, nil
}

// PageBookings is the admin booking listing.
func (s *BookingService) PageBookings(ctx context.Context, q repository.PageQuery) ([]model.BookingDetail, int64, int64, error) {
	return s.store.Bookings().Page(ctx, q)
}
