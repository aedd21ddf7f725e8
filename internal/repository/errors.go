// Package repository defines the storage ports used by the services and
// their MySQL implementations.  The sentinel values below let higher layers
// distinguish failure scenarios without inspecting driver errors.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a delete or update cannot be performed
// because other rows still reference the target, such as deleting a room
// that has bookings.  Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when an insert violates a unique key.
var ErrDuplicate = errors.New("duplicate")

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = errors.New("email already exists")

const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
)

func isMySQLError(err error, number uint16) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == number
}

func isDuplicate(err error) bool { return isMySQLError(err, mysqlDuplicateEntry) }

func isReferenced(err error) bool { return isMySQLError(err, mysqlRowIsReferenced) }

// notFound maps sql.ErrNoRows to ErrNotFound and passes other errors through.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// expectAffected returns ErrNotFound when an UPDATE or DELETE matched no row.
// The DSN sets clientFoundRows so that unchanged rows still count as matched.
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
