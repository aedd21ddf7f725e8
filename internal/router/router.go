// Package router registers the HTTP routes on an echo instance.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/handler"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
)

// RegisterRoutes registers the unauthenticated operational endpoints.
// metrics may be nil to leave /metrics out.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, metrics http.Handler) {
	e.GET("/healthz", handler.Health(db))
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
}

// RegisterAuth registers the token endpoints under /v1/auth and /v1/me.
// Logout takes the refresh token in the body and needs no access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	// /v1/me is open to any authenticated user, including admin applicants
	// whose token carries no role yet.
	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterPublic registers guest browsing.  The catalogue lists go through
// the response cache; availability is always computed fresh.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/hotels", p.ListHotels, cache)
	e.GET("/v1/room-types", p.ListRoomTypes, cache)
	e.GET("/v1/rooms", p.SearchRooms, cache)
	e.GET("/v1/rooms/featured", p.FeaturedRooms, cache)
	e.GET("/v1/rooms/:id", p.GetRoom, cache)
	e.GET("/v1/rooms/:id/availability", p.RoomAvailability)
}

// RegisterPayments registers the gateway webhook.  It is authenticated by
// its signature, not by a JWT.
func RegisterPayments(e *echo.Echo, p *handler.PaymentHandler) {
	e.POST("/v1/payments/webhook", p.Webhook)
}

func customerOnly(jwtSecret string) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleCustomer, model.RoleAdmin)}
}
