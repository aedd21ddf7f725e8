package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/handler"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
)

// RegisterAdmin registers /v1/admin.  Every route requires the Admin role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, m *handler.ManageHandler, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1/admin", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin))

	g.GET("/users", a.ListUsers)
	g.POST("/users/approve", a.Approve)
	g.POST("/users/reject", a.Reject)

	g.POST("/hotels", m.CreateHotel)

	g.GET("/room-types", m.ListRoomTypes)
	g.POST("/room-types", m.CreateRoomType)
	g.GET("/room-types/:id", m.GetRoomType)
	g.PUT("/room-types/:id", m.UpdateRoomType)
	g.DELETE("/room-types/:id", m.DeleteRoomType)

	g.GET("/rooms", m.ListRooms)
	g.POST("/rooms", m.CreateRoom)
	g.PUT("/rooms/:id", m.UpdateRoom)
	g.DELETE("/rooms/:id", m.DeleteRoom)

	g.GET("/bookings", b.AdminList)
	g.GET("/bookings/:ref", b.GetByReference)
	g.POST("/bookings/:ref/confirm-payment", b.ConfirmPayment)
}
