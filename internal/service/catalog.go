package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
)

const (
	defaultRoomPageSize = 12
	maxPageSize         = 100
	defaultFeatured     = 6
	maxFeatured         = 24
)

// RoomSearch filters the public room listing.  Zero dates mean today and
// tomorrow.
type RoomSearch struct {
	CheckIn    time.Time
	CheckOut   time.Time
	RoomTypeID uint64
	Query      string
	Page       int
	PageSize   int
}

// RoomPage is one page of search results.
type RoomPage struct {
	Rooms    []model.RoomDetail
	Total    int64
	Page     int
	PageSize int
	CheckIn  time.Time
	CheckOut time.Time
}

// CatalogService serves the public browsing endpoints.
type CatalogService struct {
	store repository.Store
	now   func() time.Time
}

func NewCatalogService(store repository.Store) *CatalogService {
	return &CatalogService{store: store, now: time.Now}
}

// Search lists Available rooms with no non-cancelled booking overlapping
// the requested stay.
func (s *CatalogService) Search(ctx context.Context, in RoomSearch) (RoomPage, error) {
	checkIn, checkOut := model.DateOnly(in.CheckIn), model.DateOnly(in.CheckOut)
	if in.CheckIn.IsZero() {
		checkIn = model.DateOnly(s.now())
	}
	if in.CheckOut.IsZero() {
		checkOut = checkIn.AddDate(0, 0, 1)
	}
	if !checkIn.Before(checkOut) {
		return RoomPage{}, ErrInvalidRange
	}
	page, size := in.Page, in.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultRoomPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	rooms, total, err := s.store.Rooms().Search(ctx, repository.RoomSearchQuery{
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		ExcludeBooked: true,
		Status:        model.RoomAvailable,
		RoomTypeID:    in.RoomTypeID,
		Query:         in.Query,
		Page:          page,
		PageSize:      size,
	})
	if err != nil {
		return RoomPage{}, err
	}
	return RoomPage{Rooms: rooms, Total: total, Page: page, PageSize: size, CheckIn: checkIn, CheckOut: checkOut}, nil
}

func (s *CatalogService) GetRoom(ctx context.Context, id uint64) (model.RoomDetail, error) {
	r, err := s.store.Rooms().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return r, ErrNotFound
	}
	return r, err
}

// FeaturedRooms returns up to count rooms for the landing page; zero means
// the default of six.
func (s *CatalogService) FeaturedRooms(ctx context.Context, count int) ([]model.RoomDetail, error) {
	if count <= 0 {
		count = defaultFeatured
	}
	if count > maxFeatured {
		count = maxFeatured
	}
	return s.store.Rooms().Featured(ctx, count)
}

func (s *CatalogService) ListRoomTypes(ctx context.Context) ([]model.RoomType, error) {
	return s.store.RoomTypes().ListWithCounts(ctx)
}

func (s *CatalogService) ListHotels(ctx context.Context) ([]model.Hotel, error) {
	return s.store.Hotels().List(ctx)
}
