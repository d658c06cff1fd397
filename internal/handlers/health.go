package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"daybook/internal/database"
)

// HealthHandler reports liveness and the database connection state.
type HealthHandler struct {
	db *database.MongoDB
}

func NewHealthHandler(db *database.MongoDB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	status := "healthy"
	mongoStatus := "connected"
	code := fiber.StatusOK

	if err := h.db.Ping(c.Context()); err != nil {
		status = "degraded"
		mongoStatus = "disconnected"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"mongodb":   mongoStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
