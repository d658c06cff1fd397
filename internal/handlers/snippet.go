package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"daybook/internal/apperrors"
	"daybook/internal/models"
	"daybook/internal/services"
)

// SnippetHandler exposes the snippet ingestion endpoints.
type SnippetHandler struct {
	service *services.SnippetService
}

func NewSnippetHandler(service *services.SnippetService) *SnippetHandler {
	return &SnippetHandler{service: service}
}

// CreateSnippet handles POST /api/snippets
func (h *SnippetHandler) CreateSnippet(c *fiber.Ctx) error {
	var req models.CreateSnippetRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, &apperrors.ValidationError{Field: "body", Reason: "invalid JSON"})
	}

	snippet, err := h.service.CreateSnippet(c.Context(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(snippet)
}

// GetSnippets handles GET /api/snippets
func (h *SnippetHandler) GetSnippets(c *fiber.Ctx) error {
	snippets, err := h.service.GetSnippets(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(snippets)
}

// GetUserSnippets handles GET /api/snippets/:userId with optional
// ?snippetId= or ?date= filters. With snippetId the response is the single
// snippet object; otherwise a list.
func (h *SnippetHandler) GetUserSnippets(c *fiber.Ctx) error {
	userID := c.Params("userId")

	if raw := c.Query("snippetId"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return respondError(c, &apperrors.ValidationError{Field: "snippetId", Reason: "must be a valid object id"})
		}
		snippet, err := h.service.GetUserSnippetByID(c.Context(), userID, id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(snippet)
	}

	date, err := parseDateQuery(c)
	if err != nil {
		return respondError(c, err)
	}
	snippets, err := h.service.GetUserSnippets(c.Context(), userID, date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(snippets)
}

// UpdateSnippet handles PUT /api/snippets/:id
func (h *SnippetHandler) UpdateSnippet(c *fiber.Ctx) error {
	id, err := parseObjectID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var patch models.UpdateSnippetRequest
	if err := c.BodyParser(&patch); err != nil {
		return respondError(c, &apperrors.ValidationError{Field: "body", Reason: "invalid JSON"})
	}

	snippet, err := h.service.UpdateSnippet(c.Context(), id, &patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(snippet)
}

// DeleteSnippet handles DELETE /api/snippets/:id
func (h *SnippetHandler) DeleteSnippet(c *fiber.Ctx) error {
	id, err := parseObjectID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.service.DeleteSnippet(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
