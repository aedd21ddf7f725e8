package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// UserRepo provides data access to the users and user_roles tables.
type UserRepo struct{ db dbtx }

const userColumns = `id, email, username, password_hash, is_active, created_at, updated_at`

// Create inserts a user with an already hashed password and sets u.ID.
// The email is normalised to lower case.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, username, password_hash, is_active) VALUES (?, ?, ?, ?)`,
		u.Email, u.Username, u.PasswordHash, u.IsActive)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, email,
	).Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, notFound(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id,
	).Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, notFound(err)
}

// Roles lists the roles granted to the user in name order.
func (r *UserRepo) Roles(ctx context.Context, userID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id = ? ORDER BY role`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// AddRole grants a role.  Granting a role the user already holds is a no-op.
func (r *UserRepo) AddRole(ctx context.Context, userID uint64, role string) error {
	_, err := r.db.ExecContext(ctx, `INSERT IGNORE INTO user_roles (user_id, role) VALUES (?, ?)`, userID, role)
	return err
}

// List returns every user with their roles and whether an admin approval
// request is pending.
func (r *UserRepo) List(ctx context.Context) ([]model.UserSummary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT u.id, u.email,
			COALESCE(GROUP_CONCAT(ur.role ORDER BY ur.role SEPARATOR ','), ''),
			EXISTS (SELECT 1 FROM admin_approval_requests a WHERE a.user_id = u.id AND a.status = ?)
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		GROUP BY u.id, u.email
		ORDER BY u.id`, string(model.ApprovalPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.UserSummary{}
	for rows.Next() {
		var (
			s     model.UserSummary
			roles string
		)
		if err := rows.Scan(&s.ID, &s.Email, &roles, &s.Pending); err != nil {
			return nil, err
		}
		s.Roles = []string{}
		if roles != "" {
			s.Roles = strings.Split(roles, ",")
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
