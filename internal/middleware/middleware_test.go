package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-booking/internal/config"
	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/utils"
)

const secret = "test-secret"

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func bearer(t *testing.T, id utils.Identity) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, id, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRequireRole(t *testing.T) {
	e := echo.New()
	admin := e.Group("/admin", JWTAuth(secret), RequireRole(model.RoleAdmin))
	admin.GET("/who", func(c echo.Context) error {
		id, ok := UserID(c)
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		return c.JSON(http.StatusOK, echo.Map{"id": id, "role": Role(c), "email": Email(c)})
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/who", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/who", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/who", nil)
	req.Header.Set("Authorization", bearer(t, utils.Identity{UserID: 3, Email: "c@example.com", Role: model.RoleCustomer}))
	assert.Equal(t, http.StatusForbidden, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/who", nil)
	req.Header.Set("Authorization", bearer(t, utils.Identity{UserID: 7, Email: "a@example.com", Role: model.RoleAdmin}))
	rec := serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7,"role":"Admin","email":"a@example.com"}`, rec.Body.String())
}

func TestCartSessionIssuesAndReusesID(t *testing.T) {
	e := echo.New()
	e.GET("/cart", func(c echo.Context) error { return c.String(http.StatusOK, CartSessionID(c)) }, CartSession(time.Hour))

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/cart", nil))
	sid := rec.Body.String()
	require.Len(t, sid, 36)
	assert.Equal(t, sid, rec.Header().Get(CartSessionHeader))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), CartSessionCookie+"="+sid)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: CartSessionCookie, Value: sid})
	assert.Equal(t, sid, serve(e, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(CartSessionHeader, "../../etc")
	assert.NotEqual(t, "../../etc", serve(e, req).Body.String(), "non-uuid ids are replaced")
}

func TestRedisCacheHitAndMiss(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache"}

	calls := 0
	e := echo.New()
	e.Use(NewRedisCache(cfg, rdb))
	e.GET("/v1/rooms", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"page": c.QueryParam("page")})
	})
	e.GET("/v1/rooms/missing", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	})

	first := serve(e, httptest.NewRequest(http.MethodGet, "/v1/rooms?page=1", nil))
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := serve(e, httptest.NewRequest(http.MethodGet, "/v1/rooms?page=1", nil))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, calls)

	other := serve(e, httptest.NewRequest(http.MethodGet, "/v1/rooms?page=2", nil))
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)

	serve(e, httptest.NewRequest(http.MethodGet, "/v1/rooms/missing", nil))
	serve(e, httptest.NewRequest(http.MethodGet, "/v1/rooms/missing", nil))
	assert.Equal(t, 4, calls, "errors are not cached")
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
		TTL: time.Hour, KeyStrategy: "ip", Prefix: "rl",
	}
	e := echo.New()
	e.Use(NewTokenBucket(cfg, rdb, zerolog.Nop()))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	for i := 0; i < 2; i++ {
		rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour, TTL: time.Hour, Prefix: "rl"}
	e := echo.New()
	e.Use(NewTokenBucket(cfg, rdb, zerolog.Nop()))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, serve(e, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func TestRequestLoggerReportsHandlerErrors(t *testing.T) {
	e := echo.New()
	e.Use(RequestLogger(zerolog.Nop()))
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusConflict, "taken") })

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}
