package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// RoomRepo provides data access to the rooms table.  Reads always join the
// hotel and room type so callers get prices without a second query.
type RoomRepo struct{ db dbtx }

const roomDetailSelect = `SELECT r.id, r.hotel_id, r.room_type_id, r.room_number, r.status,
		h.name, rt.name, rt.price_per_night_cents, rt.capacity
	FROM rooms r
	JOIN hotels h      ON h.id = r.hotel_id
	JOIN room_types rt ON rt.id = r.room_type_id`

func scanRoomDetail(sc interface{ Scan(...any) error }) (model.RoomDetail, error) {
	var d model.RoomDetail
	err := sc.Scan(&d.ID, &d.HotelID, &d.RoomTypeID, &d.RoomNumber, &d.Status,
		&d.HotelName, &d.RoomTypeName, &d.PricePerNightCents, &d.Capacity)
	return d, err
}

func collectRoomDetails(rows *sql.Rows, capHint int) ([]model.RoomDetail, error) {
	defer rows.Close()
	out := make([]model.RoomDetail, 0, capHint)
	for rows.Next() {
		d, err := scanRoomDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (model.RoomDetail, error) {
	d, err := scanRoomDetail(r.db.QueryRowContext(ctx, roomDetailSelect+` WHERE r.id = ?`, id))
	return d, notFound(err)
}

// Search returns one page of rooms matching q together with the total
// number of matches.
func (r *RoomRepo) Search(ctx context.Context, q RoomSearchQuery) ([]model.RoomDetail, int64, error) {
	where := []string{}
	args := []any{}

	if q.Status != "" {
		where = append(where, "r.status = ?")
		args = append(args, string(q.Status))
	}
	if q.ExcludeBooked {
		where = append(where, `NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.room_id = r.id
			  AND b.status <> ?
			  AND b.check_in < ?
			  AND b.check_out > ?)`)
		args = append(args, string(model.BookingCancelled), q.CheckOut, q.CheckIn)
	}
	if q.RoomTypeID != 0 {
		where = append(where, "r.room_type_id = ?")
		args = append(args, q.RoomTypeID)
	}
	if s := strings.TrimSpace(q.Query); s != "" {
		where = append(where, "r.room_number LIKE ?")
		args = append(args, "%"+s+"%")
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*) FROM rooms r WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, roomDetailSelect+` WHERE `+cond+` ORDER BY r.id LIMIT ? OFFSET ?`, argsData...)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectRoomDetails(rows, limit)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Featured returns up to count available rooms, most expensive types first.
func (r *RoomRepo) Featured(ctx context.Context, count int) ([]model.RoomDetail, error) {
	rows, err := r.db.QueryContext(ctx, roomDetailSelect+`
		WHERE r.status = ?
		ORDER BY rt.price_per_night_cents DESC, r.id
		LIMIT ?`, string(model.RoomAvailable), count)
	if err != nil {
		return nil, err
	}
	return collectRoomDetails(rows, count)
}

// Page is the admin listing.  The search matches the room number, the hotel
// name or the room type name.
func (r *RoomRepo) Page(ctx context.Context, q PageQuery) ([]model.RoomDetail, int64, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms`).Scan(&total); err != nil {
		return nil, 0, 0, err
	}

	cond := "1=1"
	args := []any{}
	if s := strings.TrimSpace(q.Search); s != "" {
		cond = "(r.room_number LIKE ? OR LOWER(h.name) LIKE ? OR LOWER(rt.name) LIKE ?)"
		like := "%" + strings.ToLower(s) + "%"
		args = append(args, "%"+s+"%", like, like)
	}

	var filtered int64
	countSQL := `SELECT COUNT(*)
		FROM rooms r
		JOIN hotels h      ON h.id = r.hotel_id
		JOIN room_types rt ON rt.id = r.room_type_id
		WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&filtered); err != nil {
		return nil, 0, 0, err
	}

	rows, err := r.db.QueryContext(ctx, roomDetailSelect+` WHERE `+cond+` ORDER BY r.id DESC LIMIT ? OFFSET ?`,
		append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, 0, err
	}
	out, err := collectRoomDetails(rows, q.Limit)
	if err != nil {
		return nil, 0, 0, err
	}
	return out, total, filtered, nil
}

// Create inserts a room and sets rm.ID.  A room number already used in the
// same hotel yields ErrDuplicate.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (hotel_id, room_type_id, room_number, status) VALUES (?, ?, ?, ?)`,
		rm.HotelID, rm.RoomTypeID, rm.RoomNumber, string(rm.Status))
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
	rm.ID = uint64(id)
	return nil
}

func (r *RoomRepo) Update(ctx context.Context, rm model.Room) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET hotel_id = ?, room_type_id = ?, room_number = ?, status = ? WHERE id = ?`,
		rm.HotelID, rm.RoomTypeID, rm.RoomNumber, string(rm.Status), rm.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return expectAffected(res)
}

// Delete removes a room.  Rooms that have bookings cannot be deleted and
// yield ErrConflict.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		if isReferenced(err) {
			return ErrConflict
		}
		return err
	}
	return expectAffected(res)
}

func (r *RoomRepo) LockForBooking(ctx context.Context, id uint64) error {
	var locked uint64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = ? FOR UPDATE`, id).Scan(&locked)
	return notFound(err)
}
