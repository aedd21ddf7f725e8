package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/hotel-booking/internal/observability"
)

// RequestLogger writes one zerolog line per request and records the HTTP
// metrics.  Errors returned by handlers are passed to echo's error handler
// first so the logged status is the one the client sees.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req, res := c.Request(), c.Response()
			dur := time.Since(start)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			observability.ObserveHTTP(route, req.Method, res.Status, dur)

			ev := log.Info()
			switch {
			case res.Status >= 500:
				ev = log.Error().Err(err)
			case res.Status >= 400:
				ev = log.Warn()
			}
			ev.Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("route", route).
				Int("status", res.Status).
				Dur("latency", dur).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Str("ip", c.RealIP()).
				Msg("request")
			return nil
		}
	}
}
