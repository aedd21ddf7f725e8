// Package cart holds the per-session reservation cart.  A cart is loaded
// from a Store at the start of a request, mutated in memory and saved back
// before the response is written; nothing is kept in process-global state.
package cart

import (
	"context"
	"time"
)

// Item is one room requested for the half-open stay [CheckIn, CheckOut).
// The display fields are captured when the item is added so the cart can be
// rendered without touching the database.
type Item struct {
	RoomID             uint64    `json:"room_id"`
	RoomNumber         string    `json:"room_number"`
	RoomTypeName       string    `json:"room_type"`
	PricePerNightCents int64     `json:"price_per_night_cents"`
	CheckIn            time.Time `json:"check_in"`
	CheckOut           time.Time `json:"check_out"`
}

// Same reports whether two items reserve the same room for the same stay.
func (it Item) Same(roomID uint64, checkIn, checkOut time.Time) bool {
	return it.RoomID == roomID && it.CheckIn.Equal(checkIn) && it.CheckOut.Equal(checkOut)
}

// Cart is the list of items for one session.
type Cart struct {
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Add appends it unless an identical item is already present.
func (c *Cart) Add(it Item) {
	for _, existing := range c.Items {
		if existing.Same(it.RoomID, it.CheckIn, it.CheckOut) {
			return
		}
	}
	c.Items = append(c.Items, it)
}

// Remove drops the matching item and reports whether one was found.
func (c *Cart) Remove(roomID uint64, checkIn, checkOut time.Time) bool {
	for i, it := range c.Items {
		if it.Same(roomID, checkIn, checkOut) {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Empty reports whether the cart has no items.
func (c *Cart) Empty() bool { return c == nil || len(c.Items) == 0 }

// Store persists carts by session id.  Load returns an empty cart for an
// unknown or expired session.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, c *Cart) error
	Delete(ctx context.Context, sessionID string) error
}
