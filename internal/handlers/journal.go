package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"daybook/internal/apperrors"
	"daybook/internal/models"
	"daybook/internal/services"
)

// JournalHandler exposes the journal entry endpoints plus statistics.
type JournalHandler struct {
	journals *services.JournalService
	stats    *services.StatisticsService
}

func NewJournalHandler(journals *services.JournalService, stats *services.StatisticsService) *JournalHandler {
	return &JournalHandler{journals: journals, stats: stats}
}

// CreateJournalEntry handles POST /api/journalEntries
func (h *JournalHandler) CreateJournalEntry(c *fiber.Ctx) error {
	var req models.CreateJournalEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, &apperrors.ValidationError{Field: "body", Reason: "invalid JSON"})
	}

	entry, err := h.journals.CreateJournalEntry(c.Context(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Journal entry created successfully",
		"data":    entry,
	})
}

// GetUserJournals handles GET /api/journalEntries/:userId with optional
// ?journalId= or ?date= filters.
func (h *JournalHandler) GetUserJournals(c *fiber.Ctx) error {
	userID := c.Params("userId")

	if raw := c.Query("journalId"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return respondError(c, &apperrors.ValidationError{Field: "journalId", Reason: "must be a valid object id"})
		}
		entry, err := h.journals.GetUserJournalByID(c.Context(), userID, id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(entry)
	}

	date, err := parseDateQuery(c)
	if err != nil {
		return respondError(c, err)
	}
	entries, err := h.journals.GetUserJournals(c.Context(), userID, date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

// GetUserStatistics handles GET /api/journalEntries/:userId/statistics
func (h *JournalHandler) GetUserStatistics(c *fiber.Ctx) error {
	stats, err := h.stats.GetUserStatistics(c.Context(), c.Params("userId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// UpdateJournalEntry handles PUT /api/journalEntries/:id
func (h *JournalHandler) UpdateJournalEntry(c *fiber.Ctx) error {
	id, err := parseObjectID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var patch models.UpdateJournalEntryRequest
	if err := c.BodyParser(&patch); err != nil {
		return respondError(c, &apperrors.ValidationError{Field: "body", Reason: "invalid JSON"})
	}

	entry, err := h.journals.UpdateJournalEntry(c.Context(), id, &patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Journal entry updated successfully",
		"data":    entry,
	})
}

// DeleteJournalEntry handles DELETE /api/journalEntries/:id
func (h *JournalHandler) DeleteJournalEntry(c *fiber.Ctx) error {
	id, err := parseObjectID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.journals.DeleteJournalEntry(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Journal entry deleted successfully",
	})
}
