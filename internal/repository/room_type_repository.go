package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// RoomTypeRepo provides data access to the room_types table.
type RoomTypeRepo struct{ db dbtx }

const roomTypeColumns = `rt.id, rt.name, rt.description, rt.price_per_night_cents, rt.capacity`

// ListWithCounts returns every room type with the number of rooms using it.
func (r *RoomTypeRepo) ListWithCounts(ctx context.Context) ([]model.RoomType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roomTypeColumns+`, COUNT(rm.id)
		FROM room_types rt
		LEFT JOIN rooms rm ON rm.room_type_id = rt.id
		GROUP BY rt.id, rt.name, rt.description, rt.price_per_night_cents, rt.capacity
		ORDER BY rt.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.RoomType{}
	for rows.Next() {
		var t model.RoomType
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.PricePerNightCents, &t.Capacity, &t.RoomCount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Page returns one window of room types plus the total and filtered counts.
// The search matches the name or description.
func (r *RoomTypeRepo) Page(ctx context.Context, q PageQuery) ([]model.RoomType, int64, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM room_types`).Scan(&total); err != nil {
		return nil, 0, 0, err
	}

	cond := "1=1"
	args := []any{}
	if s := strings.TrimSpace(q.Search); s != "" {
		cond = "(LOWER(rt.name) LIKE ? OR LOWER(rt.description) LIKE ?)"
		like := "%" + strings.ToLower(s) + "%"
		args = append(args, like, like)
	}

	var filtered int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM room_types rt WHERE `+cond, args...).Scan(&filtered); err != nil {
		return nil, 0, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+roomTypeColumns+`,
			(SELECT COUNT(*) FROM rooms rm WHERE rm.room_type_id = rt.id)
		FROM room_types rt
		WHERE `+cond+`
		ORDER BY rt.id DESC
		LIMIT ? OFFSET ?`, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	out := make([]model.RoomType, 0, q.Limit)
	for rows.Next() {
		var t model.RoomType
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.PricePerNightCents, &t.Capacity, &t.RoomCount); err != nil {
			return nil, 0, 0, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}
	return out, total, filtered, nil
}

func (r *RoomTypeRepo) GetByID(ctx context.Context, id uint64) (model.RoomType, error) {
	var t model.RoomType
	err := r.db.QueryRowContext(ctx, `SELECT `+roomTypeColumns+` FROM room_types rt WHERE rt.id = ?`, id).
		Scan(&t.ID, &t.Name, &t.Description, &t.PricePerNightCents, &t.Capacity)
	return t, notFound(err)
}

// Create inserts a room type and sets rt.ID.
func (r *RoomTypeRepo) Create(ctx context.Context, rt *model.RoomType) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO room_types (name, description, price_per_night_cents, capacity) VALUES (?, ?, ?, ?)`,
		rt.Name, rt.Description, rt.PricePerNightCents, rt.Capacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)
	return nil
}

func (r *RoomTypeRepo) Update(ctx context.Context, rt model.RoomType) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE room_types SET name = ?, description = ?, price_per_night_cents = ?, capacity = ? WHERE id = ?`,
		rt.Name, rt.Description, rt.PricePerNightCents, rt.Capacity, rt.ID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// Delete removes a room type.  It returns ErrConflict while rooms still use it.
func (r *RoomTypeRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM room_types WHERE id = ?`, id)
	if err != nil {
		if isReferenced(err) {
			return ErrConflict
		}
		return err
	}
	return expectAffected(res)
}
