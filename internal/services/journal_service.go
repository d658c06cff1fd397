package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"daybook/internal/apperrors"
	"daybook/internal/models"
	"daybook/internal/store"
)

// JournalService provides direct CRUD over journal entries, alongside the
// lazy creation the snippet path performs.
type JournalService struct {
	entries  store.EntryStore
	snippets store.SnippetStore
	userSync UserSyncer
	events   *EventsService
	stats    *StatisticsService
	loc      *time.Location
	nowFunc  func() time.Time
}

func NewJournalService(entries store.EntryStore, snippets store.SnippetStore, userSync UserSyncer, loc *time.Location) *JournalService {
	return &JournalService{
		entries:  entries,
		snippets: snippets,
		userSync: userSync,
		loc:      loc,
		nowFunc:  time.Now,
	}
}

func (s *JournalService) SetEventsService(events *EventsService) {
	s.events = events
}

func (s *JournalService) SetStatisticsService(stats *StatisticsService) {
	s.stats = stats
}

// CreateJournalEntry creates an entry explicitly. The (userId, date) pair is
// unique, so creating a second entry for the same day is a conflict.
func (s *JournalService) CreateJournalEntry(ctx context.Context, req *models.CreateJournalEntryRequest) (*models.JournalEntry, error) {
	if req.UserID == "" {
		return nil, &apperrors.ValidationError{Field: "userId"}
	}

	now := s.nowFunc()
	date := now
	if req.Date != nil {
		date = *req.Date
	}

	entry := &models.JournalEntry{
		UserID:     req.UserID,
		Date:       DateOnly(date, s.loc),
		Title:      req.Title,
		Summary:    req.Summary,
		SnippetIDs: []primitive.ObjectID{},
		UpdatedAt:  now,
	}
	if err := s.entries.InsertEntry(ctx, entry); err != nil {
		return nil, err
	}

	if s.userSync != nil {
		if err := s.userSync.AddJournalEntryToUser(ctx, entry.UserID, entry.ID.Hex()); err != nil {
			log.Printf("⚠️ Failed to update user with new journal entry, but journal entry was created: %v", err)
			if m := GetMetrics(); m != nil {
				m.RecordUserSyncFailure("journalEntries")
			}
		}
	}

	s.events.Publish(ctx, JournalEvent{
		Type:    EventEntryCreated,
		UserID:  entry.UserID,
		EntryID: entry.ID.Hex(),
	})
	if m := GetMetrics(); m != nil {
		m.RecordEntryCreated()
	}
	s.invalidateStats(entry.UserID)

	return entry, nil
}

// UpdateJournalEntry applies a partial update to title, summary, insights
// or the daily mood. Overriding dailyMood rebases the running mood sum so
// later snippet adds and removes average around the overridden value.
// The patch goes to the store field by field; a snippet ingested while the
// edit is in flight keeps its place in the aggregate.
func (s *JournalService) UpdateJournalEntry(ctx context.Context, id primitive.ObjectID, patch *models.UpdateJournalEntryRequest) (*models.JournalEntry, error) {
	entry, err := s.entries.PatchEntry(ctx, id, store.EntryPatch{
		Title:     patch.Title,
		Summary:   patch.Summary,
		Insights:  patch.Insights,
		DailyMood: patch.DailyMood,
		UpdatedAt: s.nowFunc(),
	})
	if err != nil {
		return nil, err
	}
	s.invalidateStats(entry.UserID)
	return entry, nil
}

// DeleteJournalEntry removes an entry and cascades to its snippets.
// Snippet deletions that fail are logged and skipped so a partial cascade
// still removes the entry itself.
func (s *JournalService) DeleteJournalEntry(ctx context.Context, id primitive.ObjectID) error {
	entry, err := s.entries.GetEntry(ctx, id)
	if err != nil {
		return err
	}

	snippets, err := s.snippets.ListSnippetsByEntry(ctx, id)
	if err != nil {
		return err
	}
	for _, snippet := range snippets {
		if err := s.snippets.DeleteSnippet(ctx, snippet.ID); err != nil {
			log.Printf("⚠️ Failed to delete snippet %s while deleting entry %s: %v", snippet.ID.Hex(), id.Hex(), err)
		}
	}

	if err := s.entries.DeleteEntry(ctx, id); err != nil {
		return err
	}

	s.events.Publish(ctx, JournalEvent{
		Type:    EventEntryDeleted,
		UserID:  entry.UserID,
		EntryID: id.Hex(),
	})
	s.invalidateStats(entry.UserID)

	return nil
}

// GetUserJournalByID returns a single entry scoped to its owner.
func (s *JournalService) GetUserJournalByID(ctx context.Context, userID string, id primitive.ObjectID) (*models.JournalEntry, error) {
	entry, err := s.entries.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.UserID != userID {
		return nil, &apperrors.NotFoundError{Resource: "journal entry", ID: id.Hex()}
	}
	return entry, nil
}

// GetUserJournals returns a user's entries, optionally restricted to one
// calendar day. A user with no entries at all is a 404, not an empty list.
func (s *JournalService) GetUserJournals(ctx context.Context, userID string, date *time.Time) ([]models.JournalEntry, error) {
	entries, err := s.entries.ListEntriesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, &apperrors.NotFoundError{Resource: "journal entries for user", ID: userID}
	}

	if date != nil {
		day := DateOnly(*date, s.loc)
		filtered := entries[:0]
		for _, entry := range entries {
			if DateOnly(entry.Date, s.loc).Equal(day) {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}

	return entries, nil
}

func (s *JournalService) invalidateStats(userID string) {
	if s.stats != nil {
		s.stats.Invalidate(userID)
	}
}
