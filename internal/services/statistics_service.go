package services

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"daybook/internal/apperrors"
	"daybook/internal/models"
	"daybook/internal/store"
)

// weeklyTarget is the number of journaled days aimed for per week.
const weeklyTarget = 7

// StatisticsService computes per-user journaling statistics over the full
// entry history. Results are cached briefly per user; every write path
// invalidates the owning user's cache entry.
type StatisticsService struct {
	entries  store.EntryStore
	snippets store.SnippetStore
	cache    *gocache.Cache
	loc      *time.Location
	nowFunc  func() time.Time
}

func NewStatisticsService(entries store.EntryStore, snippets store.SnippetStore, loc *time.Location, ttl time.Duration) *StatisticsService {
	return &StatisticsService{
		entries:  entries,
		snippets: snippets,
		cache:    gocache.New(ttl, 2*ttl),
		loc:      loc,
		nowFunc:  time.Now,
	}
}

// Invalidate drops the cached statistics for a user after a write.
func (s *StatisticsService) Invalidate(userID string) {
	s.cache.Delete(userID)
}

// GetUserStatistics computes (or returns cached) statistics for a user.
// A user with no journal entries is a 404, matching the listing endpoints.
func (s *StatisticsService) GetUserStatistics(ctx context.Context, userID string) (*models.Statistics, error) {
	if cached, ok := s.cache.Get(userID); ok {
		if stats, ok := cached.(*models.Statistics); ok {
			return stats, nil
		}
	}

	start := time.Now()
	entries, err := s.entries.ListEntriesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, &apperrors.NotFoundError{Resource: "journal entries for user", ID: userID}
	}

	snippets, err := s.snippets.ListSnippetsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := s.compute(entries, snippets)
	s.cache.SetDefault(userID, stats)

	if m := GetMetrics(); m != nil {
		m.RecordStatistics(time.Since(start).Seconds())
	}
	return stats, nil
}

func (s *StatisticsService) compute(entries []models.JournalEntry, snippets []models.Snippet) *models.Statistics {
	now := s.nowFunc().In(s.loc)
	weekStart, weekEnd := weekBounds(now)

	stats := &models.Statistics{
		TotalJournals: len(entries),
		WeeklyTarget:  weeklyTarget,
	}

	for i := range snippets {
		stats.TotalWords += countWords(snippets[i].Content)
	}

	moodSum := 0.0
	moodCount := 0
	weeklyMoodSum := 0.0
	journaledDays := make(map[string]struct{}, len(entries))

	for i := range entries {
		entry := &entries[i]

		if entry.DailyMood != nil {
			moodSum += *entry.DailyMood
			moodCount++
		}

		updated := entry.UpdatedAt.In(s.loc)
		if !updated.Before(weekStart) && updated.Before(weekEnd) {
			stats.WeeklyJournalCount++
			if entry.DailyMood != nil {
				weeklyMoodSum += *entry.DailyMood
			}
		}

		journaledDays[dayKey(entry.UpdatedAt, s.loc)] = struct{}{}
	}

	if moodCount > 0 {
		stats.AvgMood = moodSum / float64(moodCount)
	}
	if stats.WeeklyJournalCount > 0 {
		// Weekly average spreads over every entry in the window, so
		// mood-less days pull the weekly figure toward zero.
		stats.WeeklyAvgMood = weeklyMoodSum / float64(stats.WeeklyJournalCount)
	}

	stats.CurrentStreak = currentStreak(journaledDays, now, s.loc)
	return stats
}

// countWords counts whitespace-separated tokens by their rune length,
// i.e. the character count of the text with all whitespace stripped.
func countWords(text string) int {
	total := 0
	for _, field := range strings.Fields(text) {
		total += len([]rune(field))
	}
	return total
}

// weekBounds returns the Monday 00:00 start (inclusive) and the following
// Monday 00:00 end (exclusive) of the week containing now.
func weekBounds(now time.Time) (time.Time, time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := (int(midnight.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	start := midnight.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}

// currentStreak counts consecutive journaled days ending today or
// yesterday. A missing today does not break the streak until the day is
// over, so yesterday anchors the walk when today has no entry yet.
func currentStreak(days map[string]struct{}, now time.Time, loc *time.Location) int {
	if len(days) == 0 {
		return 0
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	cursor := today
	if _, ok := days[dayKey(cursor, loc)]; !ok {
		cursor = today.AddDate(0, 0, -1)
		if _, ok := days[dayKey(cursor, loc)]; !ok {
			return 0
		}
	}

	streak := 0
	for {
		if _, ok := days[dayKey(cursor, loc)]; !ok {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}
