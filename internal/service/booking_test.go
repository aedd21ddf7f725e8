package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-booking/internal/cart"
	"github.com/iliyamo/hotel-booking/internal/model"
)

func requireBookingError(t *testing.T, err error, reason BookingReason) *BookingError {
	t.Helper()
	var be *BookingError
	require.True(t, errors.As(err, &be), "want *BookingError, got %v", err)
	assert.Equal(t, reason, be.Reason)
	return be
}

func TestCreateBookingEmptyCart(t *testing.T) {
	f := newFixture()
	_, err := f.bookings.CreateBooking(context.Background(), f.user.ID, nil)
	be := requireBookingError(t, err, ReasonEmptyCart)
	assert.Equal(t, "Cart is empty", be.Error())
}

func TestCreateBookingWithoutCustomer(t *testing.T) {
	f := newFixture()
	stranger := f.store.addUser("eve@example.com")
	_, err := f.bookings.CreateBooking(context.Background(), stranger.ID, []cart.Item{item(f.room101, "2024-06-01", "2024-06-03")})
	requireBookingError(t, err, ReasonNoCustomer)
}

func TestCreateBookingReturnsEveryBooking(t *testing.T) {
	f := newFixture()
	items := []cart.Item{
		item(f.room101, "2024-06-01", "2024-06-03"),
		item(f.room102, "2024-06-01", "2024-06-03"),
		item(f.room101, "2024-06-03", "2024-06-05"), // back to back with the first
	}
	got, err := f.bookings.CreateBooking(context.Background(), f.user.ID, items)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, b := range got {
		assert.NotZero(t, b.ID)
		assert.Equal(t, model.BookingPending, b.Status)
		assert.Equal(t, f.customer.ID, b.CustomerID)
		assert.Equal(t, items[i].RoomID, b.RoomID)
	}
	assert.Len(t, f.store.allBookings(), 3)
}

func TestCreateBookingIsAllOrNothing(t *testing.T) {
	f := newFixture()
	f.store.addBooking(f.otherCus.ID, f.room101.ID, day("2024-06-01"), day("2024-06-05"), model.BookingPending)

	items := []cart.Item{
		item(f.room102, "2024-06-01", "2024-06-03"),
		item(f.room101, "2024-06-04", "2024-06-06"),
	}
	_, err := f.bookings.CreateBooking(context.Background(), f.user.ID, items)
	be := requireBookingError(t, err, ReasonRoomUnavailable)
	assert.Equal(t, "Room 101 is not available for requested dates.", be.Error())
	assert.Equal(t, f.room101.ID, be.RoomID)

	assert.Len(t, f.store.allBookings(), 1, "no booking from the rejected cart is persisted")
}

func TestCreateBookingRejectsOverlapWithinCart(t *testing.T) {
	f := newFixture()
	items := []cart.Item{
		item(f.room101, "2024-06-01", "2024-06-04"),
		item(f.room101, "2024-06-03", "2024-06-05"),
	}
	_, err := f.bookings.CreateBooking(context.Background(), f.user.ID, items)
	requireBookingError(t, err, ReasonRoomUnavailable)
	assert.Empty(t, f.store.allBookings())
}

func TestCreateBookingValidatesItems(t *testing.T) {
	f := newFixture()
	_, err := f.bookings.CreateBooking(context.Background(), f.user.ID, []cart.Item{item(f.room101, "2024-06-03", "2024-06-03")})
	requireBookingError(t, err, ReasonInvalidDates)

	ghost := model.Room{ID: 9999, RoomNumber: "999"}
	_, err = f.bookings.CreateBooking(context.Background(), f.user.ID, []cart.Item{item(ghost, "2024-06-01", "2024-06-03")})
	requireBookingError(t, err, ReasonRoomNotFound)
}

func TestCreateBookingRollsBackOnInsertFailure(t *testing.T) {
	f := newFixture()
	f.store.failOn("Bookings.Create", errors.New("disk full"))
	_, err := f.bookings.CreateBooking(context.Background(), f.user.ID, []cart.Item{item(f.room101, "2024-06-01", "2024-06-03")})
	require.Error(t, err)
	var be *BookingError
	assert.False(t, errors.As(err, &be))
	assert.Empty(t, f.store.allBookings())
}

func TestCreateBookingConcurrentSameRoom(t *testing.T) {
	f := newFixture()
	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.bookings.CreateBooking(context.Background(), f.user.ID, []cart.Item{item(f.room101, "2024-06-01", "2024-06-03")})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, success)
	assert.Len(t, f.store.allBookings(), 1)
}

func TestValidateCartAvailability(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.store.addBooking(f.otherCus.ID, f.room101.ID, day("2024-06-01"), day("2024-06-05"), model.BookingConfirmed)

	ok, err := f.bookings.ValidateCartAvailability(ctx, []cart.Item{})
	require.NoError(t, err)
	assert.False(t, ok, "empty cart is invalid")

	ok, err = f.bookings.ValidateCartAvailability(ctx, []cart.Item{item(f.room101, "2024-06-05", "2024-06-08")})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.bookings.ValidateCartAvailability(ctx, []cart.Item{
		item(f.room102, "2024-06-01", "2024-06-02"),
		item(f.room101, "2024-06-04", "2024-06-06"),
	})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.bookings.ValidateCartAvailability(ctx, []cart.Item{item(f.room102, "2024-06-02", "2024-06-01")})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetUserBookings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.store.addBooking(f.customer.ID, f.room101.ID, day("2024-06-01"), day("2024-06-03"), model.BookingPending)
	f.store.addBooking(f.otherCus.ID, f.room102.ID, day("2024-06-01"), day("2024-06-03"), model.BookingPending)

	got, err := f.bookings.GetUserBookings(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "101", got[0].RoomNumber)

	got, err = f.bookings.GetUserBookings(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	stranger := f.store.addUser("eve@example.com")
	got, err = f.bookings.GetUserBookings(ctx, stranger.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetBookingByReference(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.store.addBooking(f.customer.ID, f.room101.ID, day("2024-06-01"), day("2024-06-03"), model.BookingPending)

	got, err := f.bookings.GetBookingByReference(ctx, " #"+uitoa(b.ID))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, int64(10000), got.TotalCents())

	for _, ref := range []string{"", "abc", "0", "123456"} {
		got, err := f.bookings.GetBookingByReference(ctx, ref)
		require.NoError(t, err)
		assert.Nil(t, got, ref)
	}
}

func TestCancelBooking(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.store.addBooking(f.customer.ID, f.room101.ID, day("2024-06-01"), day("2024-06-03"), model.BookingPending)

	out, err := f.bookings.CancelBooking(ctx, b.ID, f.other.ID)
	require.NoError(t, err)
	assert.Equal(t, CancelNotOwner, out)
	assert.False(t, out.OK())
	assert.Equal(t, model.BookingPending, f.store.booking(b.ID).Status, "nothing changes for a non-owner")

	out, err = f.bookings.CancelBooking(ctx, 424242, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, CancelNotFound, out)

	out, err = f.bookings.CancelBooking(ctx, b.ID, f.user.ID)
	require.NoError(t, err)
	assert.True(t, out.OK())
	assert.Equal(t, model.BookingCancelled, f.store.booking(b.ID).Status)

	out, err = f.bookings.CancelBooking(ctx, b.ID, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, CancelNotAllowed, out)
}

func TestCancelConfirmedBookingIsNotAllowed(t *testing.T) {
	f := newFixture()
	b := f.store.addBooking(f.customer.ID, f.room101.ID, day("2024-06-01"), day("2024-06-03"), model.BookingConfirmed)
	out, err := f.bookings.CancelBooking(context.Background(), b.ID, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, CancelNotAllowed, out)
	assert.Equal(t, model.BookingConfirmed, f.store.booking(b.ID).Status)
}

func TestConfirmPaymentUsesIdempotentUpsert(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.store.addBooking(f.customer.ID, f.room101.ID, day("2024-06-01"), day("2024-06-04"), model.BookingPending)

	ok, err := f.bookings.ConfirmPayment(ctx, "999999", "pi_x")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.bookings.ConfirmPayment(ctx, uitoa(b.ID), "pi_1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.bookings.ConfirmPayment(ctx, uitoa(b.ID), "pi_1")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, model.BookingConfirmed, f.store.booking(b.ID).Status)
	pays := f.store.allPayments()
	require.Len(t, pays, 1)
	assert.Equal(t, int64(15000), pays[0].AmountCents)
	assert.Equal(t, "pi_1", pays[0].GatewayRef)
}

func TestConfirmPaymentRefusesCancelledBooking(t *testing.T) {
	f := newFixture()
	b := f.store.addBooking(f.customer.ID, f.room101.ID, day("2024-06-01"), day("2024-06-04"), model.BookingCancelled)

	ok, err := f.bookings.ConfirmPayment(context.Background(), FormatReference(b.ID), "manual-1")
	assert.ErrorIs(t, err, ErrConflict)
	assert.False(t, ok)
	assert.Empty(t, f.store.allPayments(), "no payment is recorded")
	assert.Equal(t, model.BookingCancelled, f.store.booking(b.ID).Status)
}
