package service

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/hotel-booking/internal/cart"
	"github.com/iliyamo/hotel-booking/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type fixture struct {
	store    *memStore
	hotel    model.Hotel
	deluxe   model.RoomType
	room101  model.Room
	room102  model.Room
	user     model.User
	customer model.Customer
	other    model.User
	otherCus model.Customer
	payments *PaymentService
	bookings *BookingService
	events   *recordingPublisher
	gateway  *fakeGateway
}

func newFixture() *fixture {
	s := newMemStore()
	f := &fixture{store: s}
	f.hotel = s.addHotel("Seaside")
	f.deluxe = s.addRoomType("Deluxe", 5000)
	f.room101 = s.addRoom(f.hotel.ID, f.deluxe.ID, "101")
	f.room102 = s.addRoom(f.hotel.ID, f.deluxe.ID, "102")
	f.user = s.addUser("ann@example.com", model.RoleCustomer)
	f.customer = s.addCustomer(f.user.ID, "ann")
	f.other = s.addUser("bob@example.com", model.RoleCustomer)
	f.otherCus = s.addCustomer(f.other.ID, "bob")

	f.events = &recordingPublisher{}
	f.gateway = &fakeGateway{valid: true, url: "https://checkout.example/s/1", secret: "pi_secret"}
	f.payments = NewPaymentService(s, f.gateway, f.events, "usd", zerolog.Nop())
	f.bookings = NewBookingService(s, f.payments, zerolog.Nop())
	return f
}

func item(room model.Room, in, out string) cart.Item {
	return cart.Item{RoomID: room.ID, RoomNumber: room.RoomNumber, CheckIn: day(in), CheckOut: day(out)}
}
