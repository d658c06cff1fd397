package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"daybook/internal/apperrors"
)

// respondError maps a service error onto its HTTP status with a plain
// {"error": "..."} body.
func respondError(c *fiber.Ctx, err error) error {
	return c.Status(apperrors.StatusCode(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// parseObjectID parses a path parameter as a Mongo object id.
func parseObjectID(c *fiber.Ctx, param string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Params(param))
	if err != nil {
		return primitive.NilObjectID, &apperrors.ValidationError{Field: param, Reason: "must be a valid object id"}
	}
	return id, nil
}

// parseDateQuery parses an optional ?date= query value. Full ISO
// timestamps are accepted and truncated at 'T' to their calendar date.
func parseDateQuery(c *fiber.Ctx) (*time.Time, error) {
	raw := c.Query("date")
	if raw == "" {
		return nil, nil
	}
	if idx := strings.IndexByte(raw, 'T'); idx > 0 {
		raw = raw[:idx]
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, &apperrors.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD or an ISO timestamp"}
	}
	return &parsed, nil
}
