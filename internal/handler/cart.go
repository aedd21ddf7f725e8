package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/hotel-booking/internal/cart"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
)

// Carts is the session cart API.
type Carts interface {
	Get(ctx context.Context, sessionID string) (*cart.Cart, error)
	Add(ctx context.Context, sessionID string, roomID uint64, checkIn, checkOut time.Time) (*cart.Cart, error)
	Remove(ctx context.Context, sessionID string, roomID uint64, checkIn, checkOut time.Time) (*cart.Cart, error)
	Clear(ctx context.Context, sessionID string) error
	Validate(ctx context.Context, sessionID string) (bool, error)
	Checkout(ctx context.Context, sessionID string, userID uint64) ([]model.Booking, error)
}

// CartHandler serves /v1/cart.  Every route runs behind CartSession.
type CartHandler struct {
	carts Carts
	log   zerolog.Logger
}

func NewCartHandler(carts Carts, log zerolog.Logger) *CartHandler {
	return &CartHandler{carts: carts, log: log}
}

type cartItemReq struct {
	RoomID   uint64 `json:"room_id" validate:"required"`
	CheckIn  string `json:"check_in" validate:"required"`
	CheckOut string `json:"check_out" validate:"required"`
}

type cartItemResp struct {
	RoomID        uint64 `json:"room_id"`
	RoomNumber    string `json:"room_number"`
	RoomType      string `json:"room_type"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	Nights        int64  `json:"nights"`
	PricePerNight string `json:"price_per_night"`
	Subtotal      string `json:"subtotal"`
}

type cartResp struct {
	SessionID string         `json:"session_id"`
	Items     []cartItemResp `json:"items"`
	Total     string         `json:"total"`
}

func toCartResp(sid string, c *cart.Cart) cartResp {
	resp := cartResp{SessionID: sid, Items: []cartItemResp{}}
	var total int64
	for _, it := range c.Items {
		nights := model.Nights(it.CheckIn, it.CheckOut)
		sub := nights * it.PricePerNightCents
		total += sub
		resp.Items = append(resp.Items, cartItemResp{
			RoomID:        it.RoomID,
			RoomNumber:    it.RoomNumber,
			RoomType:      it.RoomTypeName,
			CheckIn:       it.CheckIn.Format(dateLayout),
			CheckOut:      it.CheckOut.Format(dateLayout),
			Nights:        nights,
			PricePerNight: model.FormatCents(it.PricePerNightCents),
			Subtotal:      model.FormatCents(sub),
		})
	}
	resp.Total = model.FormatCents(total)
	return resp
}

func (r cartItemReq) dates() (time.Time, time.Time, error) {
	in, err := parseDate(r.CheckIn)
	if err != nil {
		return in, in, echo.NewHTTPError(http.StatusBadRequest, "invalid check_in")
	}
	out, err := parseDate(r.CheckOut)
	if err != nil {
		return in, out, echo.NewHTTPError(http.StatusBadRequest, "invalid check_out")
	}
	return in, out, nil
}

func (h *CartHandler) Get(c echo.Context) error {
	sid := middleware.CartSessionID(c)
	ct, err := h.carts.Get(c.Request().Context(), sid)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toCartResp(sid, ct))
}

func (h *CartHandler) Add(c echo.Context) error {
	var req cartItemReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	in, out, err := req.dates()
	if err != nil {
		return err
	}
	sid := middleware.CartSessionID(c)
	ct, err := h.carts.Add(c.Request().Context(), sid, req.RoomID, in, out)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toCartResp(sid, ct))
}

// RemoveItem takes the same body as Add.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	var req cartItemReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	in, out, err := req.dates()
	if err != nil {
		return err
	}
	sid := middleware.CartSessionID(c)
	ct, err := h.carts.Remove(c.Request().Context(), sid, req.RoomID, in, out)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toCartResp(sid, ct))
}

func (h *CartHandler) Clear(c echo.Context) error {
	if err := h.carts.Clear(c.Request().Context(), middleware.CartSessionID(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Validate reports whether every item could be booked right now.
func (h *CartHandler) Validate(c echo.Context) error {
	ok, err := h.carts.Validate(c.Request().Context(), middleware.CartSessionID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"available": ok})
}

// Checkout turns the cart into Pending bookings for the caller.
func (h *CartHandler) Checkout(c echo.Context) error {
	created, err := h.carts.Checkout(c.Request().Context(), middleware.CartSessionID(c), userID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	ids := make([]uint64, 0, len(created))
	for _, b := range created {
		ids = append(ids, b.ID)
	}
	return c.JSON(http.StatusCreated, echo.Map{"booking_ids": ids, "status": model.BookingPending})
}
