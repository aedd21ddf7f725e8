package model

import (
	"fmt"
	"time"
)

// PaymentStatus is the state of a payment row.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentCompleted PaymentStatus = "Completed"
	PaymentFailed    PaymentStatus = "Failed"
)

// PaymentTypeStripe names the card gateway payment type.  The row is created
// on first use.
const PaymentTypeStripe = "Stripe"

// PaymentType represents a row in the `payment_types` table.
type PaymentType struct {
	ID          uint64 // payment_types.id
	Name        string // payment_types.name (unique)
	Description string // payment_types.description
}

// Payment represents a row in the `payments` table.  There is at most one
// payment per (booking, payment type); reconciliation updates it in place.
//
// Fields:
//
//	ID            – primary key identifier.
//	BookingID     – booking being paid.
//	PaymentTypeID – payment method.
//	AmountCents   – captured amount in cents.
//	GatewayRef    – gateway object id (payment intent / checkout session), may be empty.
//	PaidAt        – time of the last status change.
//	Status        – Pending, Completed or Failed.
type Payment struct {
	ID            uint64        // payments.id
	BookingID     uint64        // payments.booking_id
	PaymentTypeID uint64        // payments.payment_type_id
	AmountCents   int64         // payments.amount_cents
	GatewayRef    string        // payments.gateway_ref
	PaidAt        time.Time     // payments.paid_at
	Status        PaymentStatus // payments.status
}

// FormatCents renders an amount in cents as a decimal string with two
// places, e.g. 15000 -> "150.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
