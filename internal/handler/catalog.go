package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/service"
)

// Catalog is the read side used by the public browsing endpoints.
type Catalog interface {
	Search(ctx context.Context, in service.RoomSearch) (service.RoomPage, error)
	GetRoom(ctx context.Context, id uint64) (model.RoomDetail, error)
	FeaturedRooms(ctx context.Context, count int) ([]model.RoomDetail, error)
	ListRoomTypes(ctx context.Context) ([]model.RoomType, error)
	ListHotels(ctx context.Context) ([]model.Hotel, error)
}

// Availability answers the date check for one room.
type Availability interface {
	IsAvailable(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeBookingID *uint64) (bool, error)
}

// PublicHandler serves unauthenticated browsing.  Responses carry only the
// fields a guest needs.
type PublicHandler struct {
	catalog      Catalog
	availability Availability
	log          zerolog.Logger
}

func NewPublicHandler(catalog Catalog, availability Availability, log zerolog.Logger) *PublicHandler {
	return &PublicHandler{catalog: catalog, availability: availability, log: log}
}

// PublicRoom is a room as shown to guests.
type PublicRoom struct {
	ID            uint64 `json:"id"`
	RoomNumber    string `json:"room_number"`
	Hotel         string `json:"hotel"`
	RoomTypeID    uint64 `json:"room_type_id"`
	RoomType      string `json:"room_type"`
	Capacity      int    `json:"capacity"`
	PricePerNight string `json:"price_per_night"`
	Status        string `json:"status"`
}

func toPublicRoom(r model.RoomDetail) PublicRoom {
	return PublicRoom{
		ID:            r.ID,
		RoomNumber:    r.RoomNumber,
		Hotel:         r.HotelName,
		RoomTypeID:    r.RoomTypeID,
		RoomType:      r.RoomTypeName,
		Capacity:      r.Capacity,
		PricePerNight: model.FormatCents(r.PricePerNightCents),
		Status:        string(r.Status),
	}
}

func toPublicRooms(rs []model.RoomDetail) []PublicRoom {
	out := make([]PublicRoom, 0, len(rs))
	for _, r := range rs {
		out = append(out, toPublicRoom(r))
	}
	return out
}

// PublicRoomType is a room type with the number of rooms of that type.
type PublicRoomType struct {
	ID            uint64 `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	PricePerNight string `json:"price_per_night"`
	Capacity      int    `json:"capacity"`
	Rooms         int    `json:"rooms"`
}

func toPublicRoomType(t model.RoomType) PublicRoomType {
	return PublicRoomType{
		ID:            t.ID,
		Name:          t.Name,
		Description:   t.Description,
		PricePerNight: model.FormatCents(t.PricePerNightCents),
		Capacity:      t.Capacity,
		Rooms:         t.RoomCount,
	}
}

// SearchRooms lists rooms free for check_in..check_out.  Query parameters:
// check_in, check_out (YYYY-MM-DD), room_type_id, q, page, page_size.
func (h *PublicHandler) SearchRooms(c echo.Context) error {
	in, err := parseDate(c.QueryParam("check_in"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_in"})
	}
	out, err := parseDate(c.QueryParam("check_out"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_out"})
	}
	typeID, _ := strconv.ParseUint(c.QueryParam("room_type_id"), 10, 64)

	page, err := h.catalog.Search(c.Request().Context(), service.RoomSearch{
		CheckIn:    in,
		CheckOut:   out,
		RoomTypeID: typeID,
		Query:      strings.TrimSpace(c.QueryParam("q")),
		Page:       atoiDefault(c.QueryParam("page"), 1),
		PageSize:   atoiDefault(c.QueryParam("page_size"), 0),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":      toPublicRooms(page.Rooms),
		"total":     page.Total,
		"page":      page.Page,
		"page_size": page.PageSize,
		"check_in":  page.CheckIn.Format(dateLayout),
		"check_out": page.CheckOut.Format(dateLayout),
	})
}

func (h *PublicHandler) GetRoom(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	r, err := h.catalog.GetRoom(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toPublicRoom(r))
}

// FeaturedRooms takes an optional count parameter.
func (h *PublicHandler) FeaturedRooms(c echo.Context) error {
	rooms, err := h.catalog.FeaturedRooms(c.Request().Context(), atoiDefault(c.QueryParam("count"), 0))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toPublicRooms(rooms))
}

func (h *PublicHandler) ListRoomTypes(c echo.Context) error {
	types, err := h.catalog.ListRoomTypes(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]PublicRoomType, 0, len(types))
	for _, t := range types {
		out = append(out, toPublicRoomType(t))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PublicHandler) ListHotels(c echo.Context) error {
	hotels, err := h.catalog.ListHotels(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]echo.Map, 0, len(hotels))
	for _, ht := range hotels {
		out = append(out, echo.Map{"id": ht.ID, "name": ht.Name, "location": ht.Location, "contact_info": ht.ContactInfo})
	}
	return c.JSON(http.StatusOK, out)
}

// RoomAvailability reports whether the room is free for the requested stay.
// Both dates are required.
func (h *PublicHandler) RoomAvailability(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	in, errIn := parseDate(c.QueryParam("check_in"))
	out, errOut := parseDate(c.QueryParam("check_out"))
	if errIn != nil || errOut != nil || in.IsZero() || out.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_in and check_out are required (YYYY-MM-DD)"})
	}
	if _, err := h.catalog.GetRoom(c.Request().Context(), id); err != nil {
		return respondError(c, h.log, err)
	}
	free, err := h.availability.IsAvailable(c.Request().Context(), id, in, out, nil)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room_id":   id,
		"check_in":  model.DateOnly(in).Format(dateLayout),
		"check_out": model.DateOnly(out).Format(dateLayout),
		"available": free,
	})
}
