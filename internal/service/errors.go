package service

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the services.  Handlers map them to status codes
// with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidRange = errors.New("check-out must be after check-in")
	ErrUnauthorized = errors.New("invalid credentials")
)

// BookingReason classifies why a booking could not be created.
type BookingReason string

const (
	ReasonEmptyCart       BookingReason = "empty_cart"
	ReasonNoCustomer      BookingReason = "no_customer"
	ReasonInvalidDates    BookingReason = "invalid_dates"
	ReasonRoomNotFound    BookingReason = "room_not_found"
	ReasonRoomUnavailable BookingReason = "room_unavailable"
)

// BookingError is the expected-failure result of CreateBooking.  RoomID and
// RoomNumber identify the offending cart item when there is one.
type BookingError struct {
	Reason     BookingReason
	RoomID     uint64
	RoomNumber string
	Message    string
}

func (e *BookingError) Error() string { return e.Message }

func emptyCartError() *BookingError {
	return &BookingError{Reason: ReasonEmptyCart, Message: "Cart is empty"}
}

func noCustomerError() *BookingError {
	return &BookingError{Reason: ReasonNoCustomer, Message: "Customer profile not found"}
}

func invalidDatesError(roomID uint64) *BookingError {
	return &BookingError{Reason: ReasonInvalidDates, RoomID: roomID, Message: "Check-out date must be after check-in date."}
}

func roomNotFoundError(roomID uint64) *BookingError {
	return &BookingError{Reason: ReasonRoomNotFound, RoomID: roomID, Message: fmt.Sprintf("Room %d not found.", roomID)}
}

func roomUnavailableError(roomID uint64, number string) *BookingError {
	return &BookingError{
		Reason:     ReasonRoomUnavailable,
		RoomID:     roomID,
		RoomNumber: number,
		Message:    fmt.Sprintf("Room %s is not available for requested dates.", number),
	}
}

// CancelOutcome is the result of a cancellation attempt.
type CancelOutcome int

const (
	CancelOK CancelOutcome = iota
	CancelNotFound
	CancelNotOwner
	CancelNotAllowed
)

// OK reports whether the booking was cancelled.
func (o CancelOutcome) OK() bool { return o == CancelOK }

func (o CancelOutcome) String() string {
	switch o {
	case CancelOK:
		return "cancelled"
	case CancelNotFound:
		return "booking not found"
	case CancelNotOwner:
		return "booking belongs to another customer"
	case CancelNotAllowed:
		return "booking can no longer be cancelled"
	}
	return fmt.Sprintf("CancelOutcome(%d)", int(o))
}
