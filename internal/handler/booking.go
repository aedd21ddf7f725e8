package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
	"github.com/iliyamo/hotel-booking/internal/service"
)

// Bookings is the booking lifecycle used by customers and admins.
type Bookings interface {
	GetUserBookings(ctx context.Context, userID uint64) ([]model.BookingDetail, error)
	GetBookingByReference(ctx context.Context, ref string) (*model.BookingDetail, error)
	CancelBooking(ctx context.Context, bookingID, userID uint64) (service.CancelOutcome, error)
	ConfirmPayment(ctx context.Context, ref, gatewayRef string) (bool, error)
	PageBookings(ctx context.Context, q repository.PageQuery) ([]model.BookingDetail, int64, int64, error)
}

// BookingHandler serves the customer booking endpoints and the admin
// booking table.
type BookingHandler struct {
	bookings Bookings
	log      zerolog.Logger
}

func NewBookingHandler(bookings Bookings, log zerolog.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, log: log}
}

type bookingResp struct {
	ID            uint64 `json:"id"`
	Reference     string `json:"reference"`
	RoomID        uint64 `json:"room_id"`
	RoomNumber    string `json:"room_number"`
	RoomType      string `json:"room_type"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	Nights        int64  `json:"nights"`
	PricePerNight string `json:"price_per_night"`
	Total         string `json:"total"`
	Status        string `json:"status"`
	BookedAt      string `json:"booked_at"`
	Customer      string `json:"customer,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	Cancellable   bool   `json:"cancellable"`
}

func toBookingResp(d model.BookingDetail, withCustomer bool) bookingResp {
	r := bookingResp{
		ID:            d.ID,
		Reference:     service.FormatReference(d.ID),
		RoomID:        d.RoomID,
		RoomNumber:    d.RoomNumber,
		RoomType:      d.RoomTypeName,
		CheckIn:       d.CheckIn.Format(dateLayout),
		CheckOut:      d.CheckOut.Format(dateLayout),
		Nights:        d.Nights(),
		PricePerNight: model.FormatCents(d.PricePerNightCents),
		Total:         model.FormatCents(d.TotalCents()),
		Status:        string(d.Status),
		BookedAt:      d.BookingDate.UTC().Format("2006-01-02T15:04:05Z"),
		Cancellable:   d.Status.CanBeCancelled(),
	}
	if withCustomer {
		r.Customer = d.CustomerName
		r.CustomerEmail = d.CustomerEmail
	}
	return r
}

// MyBookings lists the caller's bookings, newest first.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	list, err := h.bookings.GetUserBookings(c.Request().Context(), userID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]bookingResp, 0, len(list))
	for _, d := range list {
		out = append(out, toBookingResp(d, false))
	}
	return c.JSON(http.StatusOK, out)
}

// GetByReference returns one booking.  Customers only see their own;
// admins see any.
func (h *BookingHandler) GetByReference(c echo.Context) error {
	d, err := h.bookings.GetBookingByReference(c.Request().Context(), c.Param("ref"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	isAdmin := middleware.Role(c) == model.RoleAdmin
	if d == nil || (!isAdmin && d.CustomerUserID != userID(c)) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	return c.JSON(http.StatusOK, toBookingResp(*d, isAdmin))
}

// Cancel cancels a Pending booking owned by the caller.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	outcome, err := h.bookings.CancelBooking(c.Request().Context(), id, userID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	switch outcome {
	case service.CancelOK:
		return c.JSON(http.StatusOK, echo.Map{"id": id, "status": model.BookingCancelled})
	case service.CancelNotAllowed:
		return c.JSON(http.StatusConflict, echo.Map{"error": outcome.String()})
	default:
		// Other customers' bookings are reported as missing.
		return c.JSON(http.StatusNotFound, echo.Map{"error": service.CancelNotFound.String()})
	}
}

// AdminList is the paged booking table for administrators.
func (h *BookingHandler) AdminList(c echo.Context) error {
	search, offset, limit := pageQuery(c)
	list, total, filtered, err := h.bookings.PageBookings(c.Request().Context(), repository.PageQuery{Search: search, Offset: offset, Limit: limit})
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]bookingResp, 0, len(list))
	for _, d := range list {
		out = append(out, toBookingResp(d, true))
	}
	return c.JSON(http.StatusOK, pageResp[bookingResp]{Data: out, RecordsTotal: total, RecordsFiltered: filtered})
}

type confirmPaymentReq struct {
	GatewayRef string `json:"gateway_ref"`
}

// ConfirmPayment records a manual payment for the booking and confirms it.
func (h *BookingHandler) ConfirmPayment(c echo.Context) error {
	var req confirmPaymentReq
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
	}
	ref := c.Param("ref")
	confirmed, err := h.bookings.ConfirmPayment(c.Request().Context(), ref, req.GatewayRef)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if !confirmed {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking was not confirmed", "confirmed": false})
	}
	return c.JSON(http.StatusOK, echo.Map{"reference": ref, "confirmed": true})
}
