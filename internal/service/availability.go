// Package service holds the booking, payment, approval and catalog logic.
// Services depend on repository.Store and never on SQL; every multi-row
// mutation runs inside Store.WithinTx.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
)

// AvailabilityChecker answers whether a room is free for a stay.
type AvailabilityChecker struct {
	store repository.Store
}

func NewAvailabilityChecker(store repository.Store) *AvailabilityChecker {
	return &AvailabilityChecker{store: store}
}

// IsAvailable reports whether no non-cancelled booking of roomID overlaps
// the half-open range [checkIn, checkOut).  A stay that starts on another
// stay's check-out day does not overlap it.  excludeBookingID, when not nil,
// is left out of the test.
func (a *AvailabilityChecker) IsAvailable(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeBookingID *uint64) (bool, error) {
	return isAvailable(ctx, a.store, roomID, checkIn, checkOut, excludeBookingID)
}

func isAvailable(ctx context.Context, s repository.Store, roomID uint64, checkIn, checkOut time.Time, exclude *uint64) (bool, error) {
	checkIn, checkOut = model.DateOnly(checkIn), model.DateOnly(checkOut)
	if !checkIn.Before(checkOut) {
		return false, ErrInvalidRange
	}
	var excludeID uint64
	if exclude != nil {
		excludeID = *exclude
	}
	overlap, err := s.Bookings().HasOverlap(ctx, roomID, checkIn, checkOut, excludeID)
	if err != nil {
		return false, err
	}
	return !overlap, nil
}

// overlaps is the half-open interval test used for items of the same cart.
func overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && bIn.Before(aOut)
}
