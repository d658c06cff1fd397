package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"daybook/internal/models"
	"daybook/internal/store"
)

// Fallbacks returned to callers when the language model is unavailable or
// returns nothing usable. The entry itself stays untouched so a later
// attempt can still fill it in.
const (
	fallbackSummary  = "No summary available"
	fallbackAnalysis = "No analysis available"
)

// SummaryService asks the generative service for a daily summary over an
// entry's snippets and persists the result on the entry.
type SummaryService struct {
	entries    store.EntryStore
	snippets   store.SnippetStore
	summarizer Summarizer
	nowFunc    func() time.Time
}

func NewSummaryService(entries store.EntryStore, snippets store.SnippetStore, summarizer Summarizer) *SummaryService {
	return &SummaryService{
		entries:    entries,
		snippets:   snippets,
		summarizer: summarizer,
		nowFunc:    time.Now,
	}
}

// GenerateForEntry summarizes a journal entry's snippets, persists the
// result on the entry, and returns it. Failures of the generative service
// degrade to placeholder summary/analysis text without writing to the
// entry, so the endpoint never surfaces an upstream 5xx for this.
func (s *SummaryService) GenerateForEntry(ctx context.Context, entryID primitive.ObjectID) (*models.SummaryResult, error) {
	entry, err := s.entries.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	snippets, err := s.snippets.ListSnippetsByEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	contents := make([]string, 0, len(snippets))
	for _, snippet := range snippets {
		if snippet.Content != "" {
			contents = append(contents, snippet.Content)
		}
	}

	start := time.Now()
	result, err := s.summarizer.GenerateSummary(ctx, contents)
	if m := GetMetrics(); m != nil {
		m.RecordSummaryLatency(time.Since(start).Seconds())
	}
	if err != nil || result == nil || result.Summary == "" {
		if err != nil {
			log.Printf("⚠️ Summary generation failed for entry %s: %v", entryID.Hex(), err)
		}
		return &models.SummaryResult{Summary: fallbackSummary, Analysis: fallbackAnalysis}, nil
	}

	insights := &models.Insights{Analysis: result.Analysis}
	if result.Insights != nil {
		insights.MoodPattern = result.Insights.Mood
		insights.Suggestion = result.Insights.Suggestion
		insights.Achievement = result.Insights.Achievement
		insights.WellnessTip = result.Insights.Wellness
	}

	if _, err := s.entries.PatchEntry(ctx, entry.ID, store.EntryPatch{
		Summary:   &result.Summary,
		Insights:  insights,
		UpdatedAt: s.nowFunc(),
	}); err != nil {
		return nil, err
	}
	return result, nil
}
