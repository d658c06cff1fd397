package middleware

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	// Global limits (per IP)
	GlobalAPIMax        int
	GlobalAPIExpiration time.Duration

	// Write endpoint limits (per user when authenticated, else per IP)
	WriteMax        int
	WriteExpiration time.Duration

	// Summary generation limits (expensive LLM calls)
	SummaryMax        int
	SummaryExpiration time.Duration
}

// DefaultRateLimitConfig returns production-safe defaults
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		// Global: 200/min is generous for normal journaling use
		GlobalAPIMax:        200,
		GlobalAPIExpiration: 1 * time.Minute,

		// Writes: 60/min covers bursty snippet capture
		WriteMax:        60,
		WriteExpiration: 1 * time.Minute,

		// Summaries: 10/min, each one is an LLM round trip
		SummaryMax:        10,
		SummaryExpiration: 1 * time.Minute,
	}
}

// LoadRateLimitConfig loads config from environment variables with defaults
func LoadRateLimitConfig() *RateLimitConfig {
	config := DefaultRateLimitConfig()

	if v := os.Getenv("RATE_LIMIT_GLOBAL_API"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.GlobalAPIMax = n
		}
	}

	if v := os.Getenv("RATE_LIMIT_WRITE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.WriteMax = n
		}
	}

	if v := os.Getenv("RATE_LIMIT_SUMMARY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.SummaryMax = n
		}
	}

	if os.Getenv("ENVIRONMENT") == "development" {
		config.GlobalAPIMax = 1000
		config.WriteMax = 500
		log.Println("⚠️  [RATE-LIMIT] Development mode: using relaxed rate limits")
	}

	return config
}

// GlobalAPIRateLimiter creates a rate limiter for all API requests
func GlobalAPIRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.GlobalAPIMax,
		Expiration: config.GlobalAPIExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "global:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("🚫 [RATE-LIMIT] Global limit reached for IP: %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many requests. Please slow down.",
				"retry_after": int(config.GlobalAPIExpiration.Seconds()),
			})
		},
	})
}

// WriteRateLimiter creates a rate limiter for mutation endpoints, keyed by
// the authenticated user when available.
func WriteRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.WriteMax,
		Expiration: config.WriteExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			if userID, ok := c.Locals("user_id").(string); ok && userID != "" {
				return "write:" + userID
			}
			return "write:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many write requests. Please slow down.",
				"retry_after": int(config.WriteExpiration.Seconds()),
			})
		},
	})
}

// SummaryRateLimiter creates a rate limiter for summary generation
func SummaryRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.SummaryMax,
		Expiration: config.SummaryExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			if userID, ok := c.Locals("user_id").(string); ok && userID != "" {
				return "summary:" + userID
			}
			return "summary:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("🚫 [RATE-LIMIT] Summary limit reached for %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Summary generation limit reached. Try again shortly.",
				"retry_after": int(config.SummaryExpiration.Seconds()),
			})
		},
	})
}
