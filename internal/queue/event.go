// Package queue defines message payloads exchanged over the message broker,
// the publisher used by the payment flow and the background consumer.
package queue

// BookingConfirmedQueue is the durable queue carrying BookingConfirmedEvent.
const BookingConfirmedQueue = "booking.confirmed"

// BookingConfirmedEvent is published when a verified payment moves a booking
// to Confirmed.  It carries enough for downstream consumers to log and send
// the confirmation email without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID     uint64 `json:"booking_id"`
	CustomerID    uint64 `json:"customer_id"`
	UserID        uint64 `json:"user_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	RoomID        uint64 `json:"room_id"`
	RoomNumber    string `json:"room_number"`
	RoomType      string `json:"room_type"`
	CheckIn       string `json:"check_in"`  // YYYY-MM-DD
	CheckOut      string `json:"check_out"` // YYYY-MM-DD
	Nights        int64  `json:"nights"`
	AmountCents   int64  `json:"amount_cents"`
	GatewayRef    string `json:"gateway_ref,omitempty"`
	ConfirmedAt   string `json:"confirmed_at"` // RFC3339
}
