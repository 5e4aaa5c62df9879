package api

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/marketlens/seasonality-analyzer/pkg/logger"
	"github.com/marketlens/seasonality-analyzer/pkg/metrics"
)

// PrometheusMiddleware observes request counts and latencies through
// the shared collectors in pkg/metrics.
func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := strconv.Itoa(c.Response().StatusCode())
		route := c.Route().Path
		metrics.HTTPDuration.WithLabelValues(c.Method(), route, status).
			Observe(time.Since(start).Seconds())
		metrics.HTTPRequests.WithLabelValues(c.Method(), route, status).Inc()

		return err
	}
}

// RateLimiter applies a per-IP sliding window sized by configuration.
func RateLimiter(max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests",
			})
		},
	})
}

// ErrorHandler converts unhandled fiber errors into the JSON error
// envelope.
func ErrorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		message := "internal server error"
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		}

		return c.Status(code).JSON(fiber.Map{
			"error": message,
			"code":  code,
		})
	}
}

// RequestID assigns or propagates the X-Request-ID header and threads
// the ID into the request context, so downstream logging carries it
// without each handler re-deriving it.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = newRequestID()
		}

		c.Set("X-Request-ID", requestID)
		c.Locals("requestID", requestID)
		c.SetUserContext(logger.WithRequestID(c.UserContext(), requestID))

		return c.Next()
	}
}

func newRequestID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10) + "-" + randomString(8)
}

const requestIDCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = requestIDCharset[rand.Intn(len(requestIDCharset))]
	}
	return string(b)
}
