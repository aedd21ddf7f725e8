package repository

import (
	"context"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// HotelRepo provides data access to the hotels table.
type HotelRepo struct{ db dbtx }

func (r *HotelRepo) List(ctx context.Context) ([]model.Hotel, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, location, contact_info FROM hotels ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Hotel{}
	for rows.Next() {
		var h model.Hotel
		if err := rows.Scan(&h.ID, &h.Name, &h.Location, &h.ContactInfo); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *HotelRepo) GetByID(ctx context.Context, id uint64) (model.Hotel, error) {
	var h model.Hotel
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, location, contact_info FROM hotels WHERE id = ?`, id,
	).Scan(&h.ID, &h.Name, &h.Location, &h.ContactInfo)
	return h, notFound(err)
}

// Create inserts a hotel and sets h.ID.
func (r *HotelRepo) Create(ctx context.Context, h *model.Hotel) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO hotels (name, location, contact_info) VALUES (?, ?, ?)`,
		h.Name, h.Location, h.ContactInfo)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}
