package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// PageQuery is an offset/limit window with an optional free-text search,
// used by the admin listings.
type PageQuery struct {
	Search string
	Offset int
	Limit  int
}

// RoomSearchQuery filters public and admin room listings.  When
// ExcludeBooked is set, rooms with a non-cancelled booking overlapping
// [CheckIn, CheckOut) are left out.
type RoomSearchQuery struct {
	CheckIn       time.Time
	CheckOut      time.Time
	ExcludeBooked bool
	Status        model.RoomStatus
	RoomTypeID    uint64
	Query         string
	Page          int
	PageSize      int
}

type HotelRepository interface {
	List(ctx context.Context) ([]model.Hotel, error)
	GetByID(ctx context.Context, id uint64) (model.Hotel, error)
	Create(ctx context.Context, h *model.Hotel) error
}

type RoomTypeRepository interface {
	ListWithCounts(ctx context.Context) ([]model.RoomType, error)
	Page(ctx context.Context, q PageQuery) ([]model.RoomType, int64, int64, error)
	GetByID(ctx context.Context, id uint64) (model.RoomType, error)
	Create(ctx context.Context, rt *model.RoomType) error
	Update(ctx context.Context, rt model.RoomType) error
	Delete(ctx context.Context, id uint64) error
}

type RoomRepository interface {
	GetByID(ctx context.Context, id uint64) (model.RoomDetail, error)
	Search(ctx context.Context, q RoomSearchQuery) ([]model.RoomDetail, int64, error)
	Featured(ctx context.Context, count int) ([]model.RoomDetail, error)
	Page(ctx context.Context, q PageQuery) ([]model.RoomDetail, int64, int64, error)
	Create(ctx context.Context, r *model.Room) error
	Update(ctx context.Context, r model.Room) error
	Delete(ctx context.Context, id uint64) error
	// LockForBooking takes a row lock on the room for the rest of the
	// transaction.  It serialises concurrent bookings of the same room.
	LockForBooking(ctx context.Context, id uint64) error
}

type BookingRepository interface {
	HasOverlap(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeID uint64) (bool, error)
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (model.Booking, error)
	GetForUpdate(ctx context.Context, id uint64) (model.Booking, error)
	GetDetail(ctx context.Context, id uint64) (model.BookingDetail, error)
	ListByCustomer(ctx context.Context, customerID uint64) ([]model.BookingDetail, error)
	ListPendingByCustomer(ctx context.Context, customerID uint64) ([]model.BookingDetail, error)
	LatestPendingForUser(ctx context.Context, userID uint64) (model.Booking, error)
	UpdateStatus(ctx context.Context, id uint64, status model.BookingStatus) error
	Page(ctx context.Context, q PageQuery) ([]model.BookingDetail, int64, int64, error)
}

type PaymentTypeRepository interface {
	GetByName(ctx context.Context, name string) (model.PaymentType, error)
	Create(ctx context.Context, pt *model.PaymentType) error
}

type PaymentRepository interface {
	GetByBookingAndType(ctx context.Context, bookingID, paymentTypeID uint64) (model.Payment, error)
	Create(ctx context.Context, p *model.Payment) error
	Update(ctx context.Context, p model.Payment) error
}

type CustomerRepository interface {
	GetByUserID(ctx context.Context, userID uint64) (model.Customer, error)
	Create(ctx context.Context, c *model.Customer) error
}

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	Roles(ctx context.Context, userID uint64) ([]string, error)
	AddRole(ctx context.Context, userID uint64, role string) error
	List(ctx context.Context) ([]model.UserSummary, error)
}

type ApprovalRepository interface {
	Create(ctx context.Context, r *model.AdminApprovalRequest) error
	// GetPendingByUser returns the user's pending request and locks it for
	// the rest of the transaction.
	GetPendingByUser(ctx context.Context, userID uint64) (model.AdminApprovalRequest, error)
	Resolve(ctx context.Context, id uint64, status model.ApprovalStatus, approverID uint64, at time.Time) error
}

type TokenRepository interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Store groups the per-aggregate repositories behind one handle.  WithinTx
// runs fn against a Store whose repositories all share a single
// transaction; the transaction commits when fn returns nil and rolls back
// otherwise.
type Store interface {
	Hotels() HotelRepository
	RoomTypes() RoomTypeRepository
	Rooms() RoomRepository
	Bookings() BookingRepository
	PaymentTypes() PaymentTypeRepository
	Payments() PaymentRepository
	Customers() CustomerRepository
	Users() UserRepository
	Approvals() ApprovalRepository
	Tokens() TokenRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore is the MySQL implementation of Store.
type SQLStore struct {
	db *sql.DB
	q  dbtx
	tx *sql.Tx
}

// NewStore returns a Store backed by db.
func NewStore(db *sql.DB) *SQLStore { return &SQLStore{db: db, q: db} }

// DB exposes the underlying pool, e.g. for health checks.
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) Hotels() HotelRepository             { return &HotelRepo{db: s.q} }
func (s *SQLStore) RoomTypes() RoomTypeRepository       { return &RoomTypeRepo{db: s.q} }
func (s *SQLStore) Rooms() RoomRepository               { return &RoomRepo{db: s.q} }
func (s *SQLStore) Bookings() BookingRepository         { return &BookingRepo{db: s.q} }
func (s *SQLStore) PaymentTypes() PaymentTypeRepository { return &PaymentTypeRepo{db: s.q} }
func (s *SQLStore) Payments() PaymentRepository         { return &PaymentRepo{db: s.q} }
func (s *SQLStore) Customers() CustomerRepository       { return &CustomerRepo{db: s.q} }
func (s *SQLStore) Users() UserRepository               { return &UserRepo{db: s.q} }
func (s *SQLStore) Approvals() ApprovalRepository       { return &ApprovalRepo{db: s.q} }
func (s *SQLStore) Tokens() TokenRepository             { return &TokenRepo{db: s.q} }

// WithinTx runs fn inside a READ COMMITTED transaction so that reads made
// after a row lock observe rows committed by the previous lock holder.
// Calling WithinTx on a transaction-scoped store reuses the open
// transaction.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(tx Store) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&SQLStore{db: s.db, q: tx, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
