package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
)

// Management is the admin CRUD over hotels, room types and rooms.
type Management interface {
	CreateHotel(ctx context.Context, h model.Hotel) (model.Hotel, error)
	PageRoomTypes(ctx context.Context, q repository.PageQuery) ([]model.RoomType, int64, int64, error)
	GetRoomType(ctx context.Context, id uint64) (model.RoomType, error)
	CreateRoomType(ctx context.Context, rt model.RoomType) (model.RoomType, error)
	UpdateRoomType(ctx context.Context, rt model.RoomType) error
	DeleteRoomType(ctx context.Context, id uint64) error
	PageRooms(ctx context.Context, q repository.PageQuery) ([]model.RoomDetail, int64, int64, error)
	CreateRoom(ctx context.Context, r model.Room) (model.Room, error)
	UpdateRoom(ctx context.Context, r model.Room) error
	DeleteRoom(ctx context.Context, id uint64) error
}

// ManageHandler serves the admin catalogue endpoints.
type ManageHandler struct {
	manage Management
	log    zerolog.Logger
}

func NewManageHandler(manage Management, log zerolog.Logger) *ManageHandler {
	return &ManageHandler{manage: manage, log: log}
}

type hotelReq struct {
	Name        string `json:"name" validate:"required,max=255"`
	Location    string `json:"location" validate:"max=255"`
	ContactInfo string `json:"contact_info" validate:"max=255"`
}

func (h *ManageHandler) CreateHotel(c echo.Context) error {
	var req hotelReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ht, err := h.manage.CreateHotel(c.Request().Context(), model.Hotel{Name: req.Name, Location: req.Location, ContactInfo: req.ContactInfo})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": ht.ID, "name": ht.Name, "location": ht.Location, "contact_info": ht.ContactInfo})
}

type roomTypeReq struct {
	Name               string `json:"name" validate:"required,max=128"`
	Description        string `json:"description"`
	PricePerNightCents int64  `json:"price_per_night_cents" validate:"gte=0"`
	Capacity           int    `json:"capacity" validate:"gte=1"`
}

func (r roomTypeReq) model(id uint64) model.RoomType {
	return model.RoomType{ID: id, Name: r.Name, Description: r.Description, PricePerNightCents: r.PricePerNightCents, Capacity: r.Capacity}
}

func (h *ManageHandler) ListRoomTypes(c echo.Context) error {
	search, offset, limit := pageQuery(c)
	items, total, filtered, err := h.manage.PageRoomTypes(c.Request().Context(), repository.PageQuery{Search: search, Offset: offset, Limit: limit})
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]PublicRoomType, 0, len(items))
	for _, t := range items {
		out = append(out, toPublicRoomType(t))
	}
	return c.JSON(http.StatusOK, pageResp[PublicRoomType]{Data: out, RecordsTotal: total, RecordsFiltered: filtered})
}

func (h *ManageHandler) GetRoomType(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room type id"})
	}
	t, err := h.manage.GetRoomType(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toPublicRoomType(t))
}

func (h *ManageHandler) CreateRoomType(c echo.Context) error {
	var req roomTypeReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	t, err := h.manage.CreateRoomType(c.Request().Context(), req.model(0))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, toPublicRoomType(t))
}

func (h *ManageHandler) UpdateRoomType(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room type id"})
	}
	var req roomTypeReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if err := h.manage.UpdateRoomType(c.Request().Context(), req.model(id)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ManageHandler) DeleteRoomType(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room type id"})
	}
	if err := h.manage.DeleteRoomType(c.Request().Context(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type roomReq struct {
	HotelID    uint64 `json:"hotel_id" validate:"required"`
	RoomTypeID uint64 `json:"room_type_id" validate:"required"`
	RoomNumber string `json:"room_number" validate:"required,max=32"`
	Status     string `json:"status" validate:"omitempty,oneof=Available Unavailable Maintenance"`
}

func (r roomReq) model(id uint64) model.Room {
	return model.Room{ID: id, HotelID: r.HotelID, RoomTypeID: r.RoomTypeID, RoomNumber: strings.TrimSpace(r.RoomNumber), Status: model.RoomStatus(r.Status)}
}

func (h *ManageHandler) ListRooms(c echo.Context) error {
	search, offset, limit := pageQuery(c)
	items, total, filtered, err := h.manage.PageRooms(c.Request().Context(), repository.PageQuery{Search: search, Offset: offset, Limit: limit})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, pageResp[PublicRoom]{Data: toPublicRooms(items), RecordsTotal: total, RecordsFiltered: filtered})
}

func (h *ManageHandler) CreateRoom(c echo.Context) error {
	var req roomReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	r, err := h.manage.CreateRoom(c.Request().Context(), req.model(0))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": r.ID, "room_number": r.RoomNumber, "status": r.Status})
}

func (h *ManageHandler) UpdateRoom(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var req roomReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if err := h.manage.UpdateRoom(c.Request().Context(), req.model(id)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ManageHandler) DeleteRoom(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	if err := h.manage.DeleteRoom(c.Request().Context(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
