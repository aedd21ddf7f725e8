package model

import "time"

// Role names stored in `user_roles`.  A user may hold several roles; the
// access token carries the highest one (see PrimaryRole).
const (
	RoleAdmin    = "Admin"
	RoleCustomer = "Customer"
)

// User represents an application user record as stored in the `users`
// table.  Roles live in `user_roles` and are loaded separately.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique email address, stored lower-cased.
//	Username     – display name; defaults to the email local part.
//	PasswordHash – bcrypt hashed password.
//	IsActive     – whether the account may log in.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// PrimaryRole picks the role written into access tokens.  Admin wins over
// Customer; an empty string means the user holds no role yet (for example
// while an admin request is pending).
func PrimaryRole(roles []string) string {
	primary := ""
	for _, r := range roles {
		switch r {
		case RoleAdmin:
			return RoleAdmin
		case RoleCustomer:
			primary = RoleCustomer
		}
	}
	return primary
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

// Customer is the booking profile linked one-to-one to a user.
type Customer struct {
	ID     uint64 // customers.id
	UserID uint64 // customers.user_id (unique)
	Name   string // customers.name
	Email  string // customers.email
	Phone  string // customers.phone
}

// ApprovalStatus is the state of an admin approval request.  A Pending
// request is the only marker of an outstanding admin-role request.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "Pending"
	ApprovalApproved ApprovalStatus = "Approved"
	ApprovalRejected ApprovalStatus = "Rejected"
)

// AdminApprovalRequest represents a row in `admin_approval_requests`.
type AdminApprovalRequest struct {
	ID          uint64         // admin_approval_requests.id
	UserID      uint64         // admin_approval_requests.user_id
	Email       string         // admin_approval_requests.email
	RequestedAt time.Time      // admin_approval_requests.requested_at
	Status      ApprovalStatus // admin_approval_requests.status
	ApprovedBy  *uint64        // admin_approval_requests.approved_by (nullable)
	ApprovedAt  *time.Time     // admin_approval_requests.approved_at (nullable)
}

// UserSummary is the admin listing row: identity, roles and whether an
// admin request is outstanding.
type UserSummary struct {
	ID      uint64
	Email   string
	Roles   []string
	Pending bool
}
