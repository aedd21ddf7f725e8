package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
)

// ManagementService is the admin CRUD over hotels, room types and rooms.
type ManagementService struct {
	store repository.Store
	log   zerolog.Logger
}

func NewManagementService(store repository.Store, log zerolog.Logger) *ManagementService {
	return &ManagementService{store: store, log: log.With().Str("component", "management").Logger()}
}

// translate maps repository sentinels onto service ones.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: already exists", ErrConflict)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: still referenced", ErrConflict)
	}
	return err
}

func (s *ManagementService) CreateHotel(ctx context.Context, h model.Hotel) (model.Hotel, error) {
	h.Name = strings.TrimSpace(h.Name)
	if h.Name == "" {
		return h, fmt.Errorf("%w: name required", ErrValidation)
	}
	if err := s.store.Hotels().Create(ctx, &h); err != nil {
		return h, translate(err)
	}
	s.log.Info().Uint64("hotel_id", h.ID).Msg("hotel created")
	return h, nil
}

func validateRoomType(rt *model.RoomType) error {
	rt.Name = strings.TrimSpace(rt.Name)
	switch {
	case rt.Name == "":
		return fmt.Errorf("%w: name required", ErrValidation)
	case rt.PricePerNightCents < 0:
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	case rt.Capacity <= 0:
		return fmt.Errorf("%w: capacity must be positive", ErrValidation)
	}
	return nil
}

func (s *ManagementService) PageRoomTypes(ctx context.Context, q repository.PageQuery) ([]model.RoomType, int64, int64, error) {
	return s.store.RoomTypes().Page(ctx, q)
}

func (s *ManagementService) GetRoomType(ctx context.Context, id uint64) (model.RoomType, error) {
	rt, err := s.store.RoomTypes().GetByID(ctx, id)
	return rt, translate(err)
}

func (s *ManagementService) CreateRoomType(ctx context.Context, rt model.RoomType) (model.RoomType, error) {
	if err := validateRoomType(&rt); err != nil {
		return rt, err
	}
	if err := s.store.RoomTypes().Create(ctx, &rt); err != nil {
		return rt, translate(err)
	}
	return rt, nil
}

func (s *ManagementService) UpdateRoomType(ctx context.Context, rt model.RoomType) error {
	if err := validateRoomType(&rt); err != nil {
		return err
	}
	return translate(s.store.RoomTypes().Update(ctx, rt))
}

// DeleteRoomType fails with ErrConflict while rooms still use the type.
func (s *ManagementService) DeleteRoomType(ctx context.Context, id uint64) error {
	return translate(s.store.RoomTypes().Delete(ctx, id))
}

// checkRoomRefs verifies the hotel and room type a room points at.
func (s *ManagementService) checkRoomRefs(ctx context.Context, r *model.Room) error {
	r.RoomNumber = strings.TrimSpace(r.RoomNumber)
	if r.Status == "" {
		r.Status = model.RoomAvailable
	}
	switch {
	case r.RoomNumber == "":
		return fmt.Errorf("%w: room number required", ErrValidation)
	case !r.Status.Valid():
		return fmt.Errorf("%w: unknown room status %q", ErrValidation, r.Status)
	}
	if _, err := s.store.Hotels().GetByID(ctx, r.HotelID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: unknown hotel %d", ErrValidation, r.HotelID)
		}
		return err
	}
	if _, err := s.store.RoomTypes().GetByID(ctx, r.RoomTypeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: unknown room type %d", ErrValidation, r.RoomTypeID)
		}
		return err
	}
	return nil
}

func (s *ManagementService) PageRooms(ctx context.Context, q repository.PageQuery) ([]model.RoomDetail, int64, int64, error) {
	return s.store.Rooms().Page(ctx, q)
}

func (s *ManagementService) CreateRoom(ctx context.Context, r model.Room) (model.Room, error) {
	if err := s.checkRoomRefs(ctx, &r); err != nil {
		return r, err
	}
	if err := s.store.Rooms().Create(ctx, &r); err != nil {
		return r, translate(err)
	}
	s.log.Info().Uint64("room_id", r.ID).Str("room_number", r.RoomNumber).Msg("room created")
	return r, nil
}

func (s *ManagementService) UpdateRoom(ctx context.Context, r model.Room) error {
	if err := s.checkRoomRefs(ctx, &r); err != nil {
		return err
	}
	return translate(s.store.Rooms().Update(ctx, r))
}

// DeleteRoom fails with ErrConflict while bookings reference the room.
func (s *ManagementService) DeleteRoom(ctx context.Context, id uint64) error {
	return translate(s.store.Rooms().Delete(ctx, id))
}
