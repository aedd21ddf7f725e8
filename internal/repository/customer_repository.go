package repository

import (
	"context"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// CustomerRepo provides data access to the customers table.
type CustomerRepo struct{ db dbtx }

func (r *CustomerRepo) GetByUserID(ctx context.Context, userID uint64) (model.Customer, error) {
	var c model.Customer
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, email, phone FROM customers WHERE user_id = ?`, userID,
	).Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone)
	return c, notFound(err)
}

// Create inserts a customer profile and sets c.ID.  A second profile for
// the same user yields ErrDuplicate.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO customers (user_id, name, email, phone) VALUES (?, ?, ?, ?)`,
		c.UserID, c.Name, c.Email, c.Phone)
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
	c.ID = uint64(id)
	return nil
}
