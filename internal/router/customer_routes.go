package router

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/handler"
	"github.com/iliyamo/hotel-booking/internal/middleware"
)

// RegisterCart registers the session cart.  Browsing the cart needs no
// account; checkout does.
func RegisterCart(e *echo.Echo, h *handler.CartHandler, jwtSecret string, sessionTTL time.Duration) {
	g := e.Group("/v1/cart", middleware.CartSession(sessionTTL))
	g.GET("", h.Get)
	g.POST("", h.Add)
	g.DELETE("", h.Clear)
	g.DELETE("/items", h.RemoveItem)
	g.POST("/validate", h.Validate)
	g.POST("/checkout", h.Checkout, customerOnly(jwtSecret)...)
}

// RegisterCustomer registers the signed-in customer endpoints under /v1.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, p *handler.PaymentHandler, jwtSecret string) {
	g := e.Group("/v1", customerOnly(jwtSecret)...)
	g.GET("/my-bookings", b.MyBookings)
	g.GET("/bookings/:ref", b.GetByReference)
	g.POST("/bookings/:id/cancel", b.Cancel)

	g.POST("/payments/checkout-session", p.CheckoutSession)
	g.POST("/payments/payment-intent", p.PaymentIntent)
}
