package model

// RoomStatus is the administrative status of a room.  It is independent of
// bookings; availability for dates is always computed from bookings.
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "Available"
	RoomUnavailable RoomStatus = "Unavailable"
	RoomMaintenance RoomStatus = "Maintenance"
)

// Valid reports whether s is one of the known room statuses.
func (s RoomStatus) Valid() bool {
	switch s {
	case RoomAvailable, RoomUnavailable, RoomMaintenance:
		return true
	}
	return false
}

// Hotel represents a row in the `hotels` table.
type Hotel struct {
	ID          uint64 // hotels.id
	Name        string // hotels.name
	Location    string // hotels.location
	ContactInfo string // hotels.contact_info
}

// RoomType represents a row in the `room_types` table.  Prices are kept in
// cents so that amounts never lose precision.
//
// Fields:
//
//	ID                 – primary key identifier.
//	Name               – display name (e.g. "Deluxe").
//	Description        – free text.
//	PricePerNightCents – nightly price, non-negative.
//	Capacity           – maximum guests, positive.
//	RoomCount          – number of rooms of this type (read model only).
type RoomType struct {
	ID                 uint64 // room_types.id
	Name               string // room_types.name
	Description        string // room_types.description
	PricePerNightCents int64  // room_types.price_per_night_cents
	Capacity           int    // room_types.capacity
	RoomCount          int    // COUNT(rooms.id), populated by listings
}

// Room represents a row in the `rooms` table.  RoomNumber is unique per hotel.
type Room struct {
	ID         uint64     // rooms.id
	HotelID    uint64     // rooms.hotel_id
	RoomTypeID uint64     // rooms.room_type_id
	RoomNumber string     // rooms.room_number
	Status     RoomStatus // rooms.status
}

// RoomDetail is a room joined with its hotel and room type.
type RoomDetail struct {
	Room
	HotelName          string
	RoomTypeName       string
	PricePerNightCents int64
	Capacity           int
}
