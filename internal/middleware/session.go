package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// CartSessionHeader lets API clients carry the cart session explicitly.
	CartSessionHeader = "X-Cart-Session"
	// CartSessionCookie is used by browsers.
	CartSessionCookie = "cart_session"

	ctxCartSession = "cart_session"
)

// CartSession resolves the cart session id from the header or cookie and
// issues a new one when neither is present or the value is not a UUID.  The
// id is echoed back in the header and the cookie.
func CartSession(ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := strings.TrimSpace(c.Request().Header.Get(CartSessionHeader))
			if sid == "" {
				if ck, err := c.Cookie(CartSessionCookie); err == nil {
					sid = ck.Value
				}
			}
			if _, err := uuid.Parse(sid); err != nil {
				sid = uuid.NewString()
			}
			c.Set(ctxCartSession, sid)
			c.Response().Header().Set(CartSessionHeader, sid)
			c.SetCookie(&http.Cookie{
				Name:     CartSessionCookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(ttl / time.Second),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			return next(c)
		}
	}
}

// CartSessionID returns the id resolved by CartSession.
func CartSessionID(c echo.Context) string {
	sid, _ := c.Get(ctxCartSession).(string)
	return sid
}
