package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/sahilchouksey/elearning-api/utils/response"
)

// probePaths are hit by load balancers and scrapers; they skip the access log and the rate limiter.
var probePaths = []string{"/ping", "/metrics"}

// SecurityConfig holds security middleware configuration
type SecurityConfig struct {
	AllowedOrigins    string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	Log               *logger.Logger
}

// SetupSecurity installs the global middleware chain in order: request id, access log,
// panic recovery, security headers, CORS and the per-IP rate limit.
func SetupSecurity(app *fiber.App, config SecurityConfig) {
	app.Use(requestid.New())

	if config.Log != nil {
		app.Use(AccessLog(config.Log))
	}

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
		ReferrerPolicy:     "no-referrer",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders:    "X-Request-ID,Retry-After",
		AllowCredentials: config.AllowedOrigins != "*",
		MaxAge:           86400,
	}))

	if config.RateLimitRequests > 0 {
		app.Use(limiter.New(limiter.Config{
			Next:       isProbe,
			Max:        config.RateLimitRequests,
			Expiration: config.RateLimitWindow,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(config.RateLimitWindow.Seconds())))
				return response.TooManyRequests(c, "Too many requests. Please try again later.")
			},
		}))
	}
}

// AccessLog writes one structured line per request through the application logger
func AccessLog(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isProbe(c) {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the error handler pick the status before it is logged
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		fields := []interface{}{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"ip", c.IP(),
			"request_id", c.Locals("requestid"),
		}
		if rc, ok := GetRequestContext(c); ok {
			fields = append(fields, "user_id", rc.UserID, "role", rc.Role)
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("request failed", fields...)
		case status >= fiber.StatusBadRequest:
			log.Warn("request rejected", fields...)
		default:
			log.Debug("request served", fields...)
		}
		return nil
	}
}

func isProbe(c *fiber.Ctx) bool {
	path := c.Path()
	for _, p := range probePaths {
		if path == p {
			return true
		}
	}
	return false
}
