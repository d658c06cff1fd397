package jobs

import (
	"context"
	"log"
	"time"

	"daybook/internal/services"
	"daybook/internal/store"
)

// InsightsJob backfills summaries and insights for yesterday's journal
// entries that never had one generated on demand.
type InsightsJob struct {
	entries store.EntryStore
	summary *services.SummaryService
	loc     *time.Location
	nowFunc func() time.Time
}

func NewInsightsJob(entries store.EntryStore, summary *services.SummaryService, loc *time.Location) *InsightsJob {
	return &InsightsJob{
		entries: entries,
		summary: summary,
		loc:     loc,
		nowFunc: time.Now,
	}
}

// Run processes all of yesterday's entries without a summary. Failures on
// individual entries are logged and skipped so one bad entry never stalls
// the batch.
func (j *InsightsJob) Run(ctx context.Context) error {
	yesterday := services.DateOnly(j.nowFunc().In(j.loc).AddDate(0, 0, -1), j.loc)

	entries, err := j.entries.ListEntriesByDate(ctx, yesterday)
	if err != nil {
		return err
	}

	generated := 0
	for i := range entries {
		entry := &entries[i]
		if entry.Summary != "" {
			continue
		}
		if _, err := j.summary.GenerateForEntry(ctx, entry.ID); err != nil {
			log.Printf("⚠️ [INSIGHTS] Failed to generate summary for entry %s: %v", entry.ID.Hex(), err)
			continue
		}
		generated++
	}

	log.Printf("✅ [INSIGHTS] Processed %d entries for %s, generated %d summaries",
		len(entries), yesterday.Format("2006-01-02"), generated)
	return nil
}
