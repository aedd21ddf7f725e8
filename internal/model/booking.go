package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "Pending"
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCancelled BookingStatus = "Cancelled"
)

// bookingTransitions lists the states each status may move to.  Confirmed
// and Cancelled are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {},
	BookingCancelled: {},
}

// CanTransitionTo reports whether the status may move to target.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// CanBeCancelled reports whether the owner may still cancel the booking.
func (s BookingStatus) CanBeCancelled() bool { return s.CanTransitionTo(BookingCancelled) }

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// Booking represents a row in the `bookings` table.  One booking covers a
// single room for the half-open stay [CheckIn, CheckOut).  Dates are stored
// as DATE columns and scanned as UTC midnights.
//
// Fields:
//
//	ID          – primary key identifier.
//	CustomerID  – customer that owns the booking.
//	RoomID      – booked room.
//	BookingDate – when the booking was created.
//	CheckIn     – first night of the stay.
//	CheckOut    – departure day; strictly after CheckIn.
//	Status      – Pending, Confirmed or Cancelled.
type Booking struct {
	ID          uint64        // bookings.id
	CustomerID  uint64        // bookings.customer_id
	RoomID      uint64        // bookings.room_id
	BookingDate time.Time     // bookings.booking_date
	CheckIn     time.Time     // bookings.check_in
	CheckOut    time.Time     // bookings.check_out
	Status      BookingStatus // bookings.status
}

// Nights returns the number of nights billed for the stay.  Stays shorter
// than a full day still count as one night.
func (b Booking) Nights() int64 {
	return Nights(b.CheckIn, b.CheckOut)
}

// Nights returns max(1, whole days between checkIn and checkOut).
func Nights(checkIn, checkOut time.Time) int64 {
	days := int64(checkOut.Sub(checkIn).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// BookingDetail is a booking joined with the room, room type and customer
// it references.  It is the read model returned to customers and admins.
type BookingDetail struct {
	Booking
	RoomNumber         string
	RoomTypeName       string
	PricePerNightCents int64
	CustomerName       string
	CustomerEmail      string
	CustomerUserID     uint64
}

// TotalCents is nights × nightly price for the booking.
func (d BookingDetail) TotalCents() int64 {
	return d.Nights() * d.PricePerNightCents
}

// DateOnly truncates t to midnight UTC of its UTC calendar day.  Stays are
// stored as DATE columns, so every comparison happens on whole days.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
