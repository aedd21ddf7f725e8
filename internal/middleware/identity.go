package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	CtxUserID   = "user_id"
	CtxRole     = "role"
	CtxEmail    = "email"
	CtxUsername = "username"
)

// UserID returns the authenticated user id, or false when the request
// carries no valid access token.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxUserID).(uint64)
	return id, ok && id > 0
}

// Role returns the role claim of the authenticated user.
func Role(c echo.Context) string {
	r, _ := c.Get(CtxRole).(string)
	return r
}

// Email returns the email claim of the authenticated user.
func Email(c echo.Context) string {
	e, _ := c.Get(CtxEmail).(string)
	return e
}

// userKey identifies the caller in rate limit keys; "guest" when anonymous.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "guest"
}
