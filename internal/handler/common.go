package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/payment"
	"github.com/iliyamo/hotel-booking/internal/service"
)

const dateLayout = "2006-01-02"

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator { return &Validator{v: validator.New()} }

func (cv *Validator) Validate(i any) error { return cv.v.Struct(i) }

// bindValid binds the request into dst and runs the struct tags.  The
// returned error is a 400 HTTPError for ErrorHandler to render.
func bindValid(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, validationMessage(err))
	}
	return nil
}

// ErrorHandler renders errors that reach echo as {"error": message}.
func ErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg := http.StatusInternalServerError, "internal error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
		} else {
			log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, echo.Map{"error": msg})
	}
}

func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return strings.Join(msgs, "; ")
}

// respondError maps service errors onto status codes.  Unexpected errors are
// logged and answered with 500 and a generic message.
func respondError(c echo.Context, log zerolog.Logger, err error) error {
	var be *service.BookingError
	switch {
	case errors.As(err, &be):
		status := http.StatusConflict
		switch be.Reason {
		case service.ReasonEmptyCart, service.ReasonInvalidDates, service.ReasonNoCustomer:
			status = http.StatusBadRequest
		case service.ReasonRoomNotFound:
			status = http.StatusNotFound
		}
		body := echo.Map{"error": be.Message, "reason": be.Reason}
		if be.RoomID != 0 {
			body["room_id"] = be.RoomID
			body["room_number"] = be.RoomNumber
		}
		return c.JSON(status, body)
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidRange):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, payment.ErrNotConfigured):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payments are not configured"})
	}
	log.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// userID is the caller set by JWTAuth; zero when the route is public.
func userID(c echo.Context) uint64 {
	id, _ := middleware.UserID(c)
	return id
}

func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// parseDate accepts an ISO date; an empty string yields the zero time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// pageQuery reads the admin table parameters: search, offset (or start)
// and limit (or length).
func pageQuery(c echo.Context) (search string, offset, limit int) {
	search = strings.TrimSpace(c.QueryParam("search"))
	offset = atoiDefault(c.QueryParam("offset"), atoiDefault(c.QueryParam("start"), 0))
	limit = atoiDefault(c.QueryParam("limit"), atoiDefault(c.QueryParam("length"), 10))
	if offset < 0 {
		offset = 0
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return search, offset, limit
}

type pageResp[T any] struct {
	Data            []T   `json:"data"`
	RecordsTotal    int64 `json:"recordsTotal"`
	RecordsFiltered int64 `json:"recordsFiltered"`
}
