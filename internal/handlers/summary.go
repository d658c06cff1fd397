package handlers

import (
	"github.com/gofiber/fiber/v2"

	"daybook/internal/services"
)

// SummaryHandler exposes on-demand summary generation for a journal entry.
type SummaryHandler struct {
	service *services.SummaryService
}

func NewSummaryHandler(service *services.SummaryService) *SummaryHandler {
	return &SummaryHandler{service: service}
}

// GenerateSummary handles GET /api/summary/:journalId. The response always
// carries summary, analysis and insights; the generative service failing
// degrades to placeholder text and an empty insights object rather than
// an error.
func (h *SummaryHandler) GenerateSummary(c *fiber.Ctx) error {
	id, err := parseObjectID(c, "journalId")
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.service.GenerateForEntry(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	insights := fiber.Map{}
	if result.Insights != nil {
		insights = fiber.Map{
			"mood":        result.Insights.Mood,
			"suggestion":  result.Insights.Suggestion,
			"achievement": result.Insights.Achievement,
			"wellness":    result.Insights.Wellness,
		}
	}
	return c.JSON(fiber.Map{
		"summary":  result.Summary,
		"analysis": result.Analysis,
		"insights": insights,
	})
}
