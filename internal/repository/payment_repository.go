package repository

import (
	"context"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// PaymentTypeRepo provides data access to the payment_types table.
type PaymentTypeRepo struct{ db dbtx }

func (r *PaymentTypeRepo) GetByName(ctx context.Context, name string) (model.PaymentType, error) {
	var pt model.PaymentType
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM payment_types WHERE name = ?`, name,
	).Scan(&pt.ID, &pt.Name, &pt.Description)
	return pt, notFound(err)
}

// Create inserts a payment type and sets pt.ID.  A name that already exists
// yields ErrDuplicate.
func (r *PaymentTypeRepo) Create(ctx context.Context, pt *model.PaymentType) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payment_types (name, description) VALUES (?, ?)`, pt.Name, pt.Description)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	pt.ID = uint64(id)
	return nil
}

// PaymentRepo provides data access to the payments table.
type PaymentRepo struct{ db dbtx }

const paymentColumns = `id, booking_id, payment_type_id, amount_cents, gateway_ref, paid_at, status`

// GetByBookingAndType returns the payment recorded for the booking with the
// given payment type.
func (r *PaymentRepo) GetByBookingAndType(ctx context.Context, bookingID, paymentTypeID uint64) (model.Payment, error) {
	var p model.Payment
	err := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE booking_id = ? AND payment_type_id = ? LIMIT 1`,
		bookingID, paymentTypeID,
	).Scan(&p.ID, &p.BookingID, &p.PaymentTypeID, &p.AmountCents, &p.GatewayRef, &p.PaidAt, &p.Status)
	return p, notFound(err)
}

// Create inserts a payment and sets p.ID.  A second payment for the same
// booking and type yields ErrDuplicate.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (booking_id, payment_type_id, amount_cents, gateway_ref, paid_at, status) VALUES (?, ?, ?, ?, ?, ?)`,
		p.BookingID, p.PaymentTypeID, p.AmountCents, p.GatewayRef, p.PaidAt, string(p.Status))
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

func (r *PaymentRepo) Update(ctx context.Context, p model.Payment) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET amount_cents = ?, gateway_ref = ?, paid_at = ?, status = ? WHERE id = ?`,
		p.AmountCents, p.GatewayRef, p.PaidAt, string(p.Status), p.ID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}
