package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"warrantyhub/config"
	"warrantyhub/internal/database"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestApp(m Middleware, handlers ...fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(m.TraceID())
	chain := append(handlers, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"traceId": GetTraceID(c)})
	})
	app.Get("/test", chain...)
	return app
}

func TestRequireCronSecret(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		header     string
		wantStatus int
	}{
		{name: "open when no secret", secret: "", header: "", wantStatus: http.StatusOK},
		{name: "matching token", secret: "s3cret", header: "Bearer s3cret", wantStatus: http.StatusOK},
		{name: "case-insensitive scheme", secret: "s3cret", header: "bearer s3cret", wantStatus: http.StatusOK},
		{name: "missing header", secret: "s3cret", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong token", secret: "s3cret", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", secret: "s3cret", header: "Basic s3cret", wantStatus: http.StatusUnauthorized},
		{name: "empty token", secret: "s3cret", header: "Bearer ", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(database.DB{}, config.Config{CronSecret: tt.secret})
			app := newTestApp(m, m.RequireCronSecret())

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == http.StatusUnauthorized {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.JSONEq(t, `{"error":"Unauthorized"}`, string(body))
			}
		})
	}
}

func TestTraceID(t *testing.T) {
	m := New(database.DB{}, config.Config{})
	app := newTestApp(m)

	t.Run("propagates caller trace id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(TraceIDHeader, "trace-123")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, "trace-123", resp.Header.Get(TraceIDHeader))

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "trace-123", body["traceId"])
	})

	t.Run("generates one when absent", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		require.NoError(t, err)
		assert.Len(t, resp.Header.Get(TraceIDHeader), 36)
	})
}

func TestRateLimit(t *testing.T) {
	m := New(database.DB{}, config.Config{})
	app := newTestApp(m, m.RateLimit(rate.Limit(0.001), 2))

	statuses := make([]int, 0, 3)
	for range 3 {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestIPRateLimiter_SeparateBucketsAndSweep(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(0.001), 1)

	assert.True(t, limiter.GetLimiter("10.0.0.1").Allow())
	assert.False(t, limiter.GetLimiter("10.0.0.1").Allow())
	assert.True(t, limiter.GetLimiter("10.0.0.2").Allow())
	assert.Len(t, limiter.visitors, 2)

	later := limiter.now().Add(limiter.idle * 2)
	limiter.now = func() time.Time { return later }
	limiter.GetLimiter("10.0.0.3")
	assert.Len(t, limiter.visitors, 1)
}
