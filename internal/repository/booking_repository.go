package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// BookingRepo provides data access to the bookings table.
type BookingRepo struct{ db dbtx }

const bookingColumns = `b.id, b.customer_id, b.room_id, b.booking_date, b.check_in, b.check_out, b.status`

const bookingDetailSelect = `SELECT ` + bookingColumns + `,
		r.room_number, rt.name, rt.price_per_night_cents, c.name, c.email, c.user_id
	FROM bookings b
	JOIN rooms r       ON r.id = b.room_id
	JOIN room_types rt ON rt.id = r.room_type_id
	JOIN customers c   ON c.id = b.customer_id`

func scanBooking(sc interface{ Scan(...any) error }) (model.Booking, error) {
	var b model.Booking
	err := sc.Scan(&b.ID, &b.CustomerID, &b.RoomID, &b.BookingDate, &b.CheckIn, &b.CheckOut, &b.Status)
	return b, err
}

func scanBookingDetail(sc interface{ Scan(...any) error }) (model.BookingDetail, error) {
	var d model.BookingDetail
	err := sc.Scan(&d.ID, &d.CustomerID, &d.RoomID, &d.BookingDate, &d.CheckIn, &d.CheckOut, &d.Status,
		&d.RoomNumber, &d.RoomTypeName, &d.PricePerNightCents, &d.CustomerName, &d.CustomerEmail, &d.CustomerUserID)
	return d, err
}

func collectBookingDetails(rows *sql.Rows) ([]model.BookingDetail, error) {
	defer rows.Close()
	out := []model.BookingDetail{}
	for rows.Next() {
		d, err := scanBookingDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// HasOverlap reports whether a non-cancelled booking on roomID intersects
// the half-open range [checkIn, checkOut).  Bookings that end on checkIn or
// start on checkOut do not intersect.  excludeID, when non-zero, is ignored.
func (r *BookingRepo) HasOverlap(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeID uint64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE room_id = ?
			  AND status <> ?
			  AND check_in < ?
			  AND check_out > ?
			  AND id <> ?)`,
		roomID, string(model.BookingCancelled), checkOut, checkIn, excludeID,
	).Scan(&exists)
	return exists, err
}

// Create inserts a booking and sets b.ID.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (customer_id, room_id, booking_date, check_in, check_out, status) VALUES (?, ?, ?, ?, ?, ?)`,
		b.CustomerID, b.RoomID, b.BookingDate, b.CheckIn, b.CheckOut, string(b.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ?`, id))
	return b, notFound(err)
}

// GetForUpdate loads a booking and locks its row until the transaction ends.
func (r *BookingRepo) GetForUpdate(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ? FOR UPDATE`, id))
	return b, notFound(err)
}

func (r *BookingRepo) GetDetail(ctx context.Context, id uint64) (model.BookingDetail, error) {
	d, err := scanBookingDetail(r.db.QueryRowContext(ctx, bookingDetailSelect+` WHERE b.id = ?`, id))
	return d, notFound(err)
}

// ListByCustomer returns the customer's bookings, newest first.
func (r *BookingRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]model.BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, bookingDetailSelect+`
		WHERE b.customer_id = ?
		ORDER BY b.booking_date DESC, b.id DESC`, customerID)
	if err != nil {
		return nil, err
	}
	return collectBookingDetails(rows)
}

// ListPendingByCustomer returns the customer's Pending bookings in id order.
func (r *BookingRepo) ListPendingByCustomer(ctx context.Context, customerID uint64) ([]model.BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, bookingDetailSelect+`
		WHERE b.customer_id = ? AND b.status = ?
		ORDER BY b.id`, customerID, string(model.BookingPending))
	if err != nil {
		return nil, err
	}
	return collectBookingDetails(rows)
}

// LatestPendingForUser returns the most recently created Pending booking of
// the customer linked to userID.
func (r *BookingRepo) LatestPendingForUser(ctx context.Context, userID uint64) (model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+`
		FROM bookings b
		JOIN customers c ON c.id = b.customer_id
		WHERE c.user_id = ? AND b.status = ?
		ORDER BY b.booking_date DESC, b.id DESC
		LIMIT 1`, userID, string(model.BookingPending)))
	return b, notFound(err)
}

func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status model.BookingStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// Page is the admin booking listing, newest first.  The search matches the
// booking id, the customer name or the room number.
func (r *BookingRepo) Page(ctx context.Context, q PageQuery) ([]model.BookingDetail, int64, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&total); err != nil {
		return nil, 0, 0, err
	}

	cond := "1=1"
	args := []any{}
	if s := strings.TrimSpace(q.Search); s != "" {
		cond = "(CAST(b.id AS CHAR) LIKE ? OR LOWER(c.name) LIKE ? OR r.room_number LIKE ?)"
		args = append(args, "%"+s+"%", "%"+strings.ToLower(s)+"%", "%"+s+"%")
	}

	var filtered int64
	countSQL := `SELECT COUNT(*)
		FROM bookings b
		JOIN rooms r     ON r.id = b.room_id
		JOIN customers c ON c.id = b.customer_id
		WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&filtered); err != nil {
		return nil, 0, 0, err
	}

	rows, err := r.db.QueryContext(ctx, bookingDetailSelect+` WHERE `+cond+` ORDER BY b.id DESC LIMIT ? OFFSET ?`,
		append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, 0, err
	}
	out, err := collectBookingDetails(rows)
	if err != nil {
		return nil, 0, 0, err
	}
	return out, total, filtered, nil
}
