package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/hotel-booking/internal/cart"
	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
)

// CartService loads, mutates and saves the session cart, and turns it into
// bookings at checkout.
type CartService struct {
	carts    cart.Store
	store    repository.Store
	bookings *BookingService
	log      zerolog.Logger
}

func NewCartService(carts cart.Store, store repository.Store, bookings *BookingService, log zerolog.Logger) *CartService {
	return &CartService{carts: carts, store: store, bookings: bookings, log: log.With().Str("component", "cart").Logger()}
}

func (s *CartService) Get(ctx context.Context, sessionID string) (*cart.Cart, error) {
	return s.carts.Load(ctx, sessionID)
}

// Add puts a room stay in the cart, filling in the display fields from the
// room.  Adding the same stay twice is a no-op.
func (s *CartService) Add(ctx context.Context, sessionID string, roomID uint64, checkIn, checkOut time.Time) (*cart.Cart, error) {
	checkIn, checkOut = model.DateOnly(checkIn), model.DateOnly(checkOut)
	if !checkIn.Before(checkOut) {
		return nil, ErrInvalidRange
	}
	room, err := s.store.Rooms().GetByID(ctx, roomID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.Add(cart.Item{
		RoomID:             room.ID,
		RoomNumber:         room.RoomNumber,
		RoomTypeName:       room.RoomTypeName,
		PricePerNightCents: room.PricePerNightCents,
		CheckIn:            checkIn,
		CheckOut:           checkOut,
	})
	if err := s.carts.Save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Remove drops a stay from the cart.  ErrNotFound means it was not there.
func (s *CartService) Remove(ctx context.Context, sessionID string, roomID uint64, checkIn, checkOut time.Time) (*cart.Cart, error) {
	c, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !c.Remove(roomID, model.DateOnly(checkIn), model.DateOnly(checkOut)) {
		return c, ErrNotFound
	}
	if err := s.carts.Save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	return s.carts.Delete(ctx, sessionID)
}

// Validate reports whether the whole cart could be booked now.
func (s *CartService) Validate(ctx context.Context, sessionID string) (bool, error) {
	c, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return s.bookings.ValidateCartAvailability(ctx, c.Items)
}

// Checkout books every item of the cart for userID, creating the customer
// profile on first use.  The cart is cleared only when the bookings were
// created.
func (s *CartService) Checkout(ctx context.Context, sessionID string, userID uint64) ([]model.Booking, error) {
	c, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.Empty() {
		return nil, emptyCartError()
	}
	if _, err := ensureCustomer(ctx, s.store, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, noCustomerError()
		}
		return nil, fmt.Errorf("ensure customer: %w", err)
	}
	created, err := s.bookings.CreateBooking(ctx, userID, c.Items)
	if err != nil {
		return nil, err
	}
	// A cart that fails to clear expires on its own; its stays are booked now.
	if err := s.carts.Delete(ctx, sessionID); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Uint64("user_id", userID).Msg("clear cart after checkout failed")
	}
	return created, nil
}
