package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"daybook/internal/apperrors"
	"daybook/internal/logging"
	"daybook/internal/models"
	"daybook/internal/store"
)

// SnippetService owns the snippet create/update/delete contract and keeps
// the owning journal entry's aggregate mood correct.
type SnippetService struct {
	entries  store.EntryStore
	snippets store.SnippetStore
	userSync UserSyncer     // optional, best-effort
	events   *EventsService // optional, nil-safe
	stats    *StatisticsService
	loc      *time.Location
	nowFunc  func() time.Time
}

// NewSnippetService creates a new snippet ingestion service.
// userSync may be nil; the ingestion path then skips propagation.
func NewSnippetService(entries store.EntryStore, snippets store.SnippetStore, userSync UserSyncer, loc *time.Location) *SnippetService {
	return &SnippetService{
		entries:  entries,
		snippets: snippets,
		userSync: userSync,
		loc:      loc,
		nowFunc:  time.Now,
	}
}

// SetEventsService sets the optional event publisher (deferred wiring)
func (s *SnippetService) SetEventsService(events *EventsService) {
	s.events = events
}

// SetStatisticsService sets the statistics service whose per-user cache is
// invalidated on every write (deferred wiring)
func (s *SnippetService) SetStatisticsService(stats *StatisticsService) {
	s.stats = stats
}

// CreateSnippet persists a snippet, lazily creating the day's journal entry
// and folding the snippet's mood into the entry aggregate. Propagation of
// the new ids into the user directory is best-effort and never fails the
// primary write.
func (s *SnippetService) CreateSnippet(ctx context.Context, req *models.CreateSnippetRequest) (*models.Snippet, error) {
	if req.UserID == "" {
		return nil, &apperrors.ValidationError{Field: "userId"}
	}

	now := s.nowFunc()
	timestamp := now
	if req.Timestamp != nil {
		timestamp = *req.Timestamp
	}
	day := DateOnly(timestamp, s.loc)

	entry, err := s.resolveOrCreateEntry(ctx, req.UserID, day)
	if err != nil {
		return nil, err
	}

	// updatedAt starts as the authored day, not the ingestion time, so the
	// per-day retrieval filter finds backdated snippets under their day.
	snippet := &models.Snippet{
		UserID:         req.UserID,
		Content:        req.Content,
		Timestamp:      timestamp,
		Mood:           req.Mood,
		Tags:           req.Tags,
		JournalEntryID: entry.ID,
		UpdatedAt:      day,
	}
	if err := s.snippets.InsertSnippet(ctx, snippet); err != nil {
		return nil, err
	}

	if _, err := s.entries.ApplySnippetAdded(ctx, entry.ID, snippet.ID, snippet.Mood, now); err != nil {
		return nil, err
	}

	if s.userSync != nil {
		if err := s.userSync.AddSnippetToUser(ctx, snippet.UserID, snippet.ID.Hex()); err != nil {
			log.Printf("⚠️ Failed to update user with new snippet, but snippet was created: %v", err)
			if m := GetMetrics(); m != nil {
				m.RecordUserSyncFailure("snippets")
			}
		}
	}

	s.events.Publish(ctx, JournalEvent{
		Type:      EventSnippetCreated,
		UserID:    snippet.UserID,
		EntryID:   entry.ID.Hex(),
		SnippetID: snippet.ID.Hex(),
	})
	if m := GetMetrics(); m != nil {
		m.RecordSnippetCreate()
	}
	s.invalidateStats(snippet.UserID)

	logging.WithEntry(logging.WithUser(snippet.UserID), entry.ID.Hex()).
		Debug("snippet ingested", "snippet_id", snippet.ID.Hex())
	return snippet, nil
}

// resolveOrCreateEntry finds the (userId, day) entry or lazily creates it.
// A concurrent creator losing the unique-index race recovers by re-reading
// once; only a second miss surfaces the conflict to the caller.
func (s *SnippetService) resolveOrCreateEntry(ctx context.Context, userID string, day time.Time) (*models.JournalEntry, error) {
	entry, err := s.entries.GetEntryByUserAndDate(ctx, userID, day)
	if err == nil {
		return entry, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	log.Printf("📝 No journal entry for user %s on %s, creating one", userID, dayKey(day, s.loc))
	entry = &models.JournalEntry{
		UserID:     userID,
		Date:       day,
		SnippetIDs: []primitive.ObjectID{},
		UpdatedAt:  s.nowFunc(),
	}

	err = s.entries.InsertEntry(ctx, entry)
	if apperrors.IsConflict(err) {
		// Lost the race to a concurrent first snippet; its entry exists now.
		return s.entries.GetEntryByUserAndDate(ctx, userID, day)
	}
	if err != nil {
		return nil, err
	}

	if s.userSync != nil {
		if syncErr := s.userSync.AddJournalEntryToUser(ctx, userID, entry.ID.Hex()); syncErr != nil {
			log.Printf("⚠️ Failed to update user with new journal entry, but journal entry was created: %v", syncErr)
			if m := GetMetrics(); m != nil {
				m.RecordUserSyncFailure("journalEntries")
			}
		}
	}

	s.events.Publish(ctx, JournalEvent{
		Type:    EventEntryCreated,
		UserID:  userID,
		EntryID: entry.ID.Hex(),
	})
	if m := GetMetrics(); m != nil {
		m.RecordEntryCreated()
	}

	return entry, nil
}

// UpdateSnippet applies a partial update. Only content and tags are
// mutable; mood is immutable once persisted, so aggregate mood never needs
// recomputation here.
func (s *SnippetService) UpdateSnippet(ctx context.Context, id primitive.ObjectID, patch *models.UpdateSnippetRequest) (*models.Snippet, error) {
	snippet, err := s.snippets.GetSnippet(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Content != nil {
		snippet.Content = *patch.Content
	}
	if patch.Tags != nil {
		snippet.Tags = *patch.Tags
	}
	snippet.UpdatedAt = s.nowFunc()

	if err := s.snippets.UpdateSnippet(ctx, snippet); err != nil {
		return nil, err
	}
	return snippet, nil
}

// DeleteSnippet removes a snippet and unfolds its mood from the owning
// entry. Deleting the last remaining snippet of an entry is rejected; the
// entry itself is deleted only through the explicit entry delete.
func (s *SnippetService) DeleteSnippet(ctx context.Context, id primitive.ObjectID) error {
	snippet, err := s.snippets.GetSnippet(ctx, id)
	if err != nil {
		return err
	}

	now := s.nowFunc()
	day := DateOnly(snippet.Timestamp, s.loc)

	entry, err := s.entries.GetEntryByUserAndDate(ctx, snippet.UserID, day)
	switch {
	case err == nil:
		if _, err := s.entries.ApplySnippetRemoved(ctx, entry.ID, snippet.ID, snippet.Mood, now); err != nil {
			return err
		}
	case apperrors.IsNotFound(err):
		// Orphaned snippet: its entry is already gone, just drop the record.
		log.Printf("⚠️ Snippet %s has no owning entry for %s, deleting orphan", id.Hex(), dayKey(day, s.loc))
	default:
		return err
	}

	if err := s.snippets.DeleteSnippet(ctx, id); err != nil {
		return err
	}

	s.events.Publish(ctx, JournalEvent{
		Type:      EventSnippetDeleted,
		UserID:    snippet.UserID,
		EntryID:   snippet.JournalEntryID.Hex(),
		SnippetID: id.Hex(),
	})
	if m := GetMetrics(); m != nil {
		m.RecordSnippetDelete()
	}
	s.invalidateStats(snippet.UserID)

	return nil
}

// GetSnippets returns all snippets (admin/debug surface).
func (s *SnippetService) GetSnippets(ctx context.Context) ([]models.Snippet, error) {
	return s.snippets.ListSnippets(ctx)
}

// GetUserSnippetByID returns a single snippet scoped to its owner.
func (s *SnippetService) GetUserSnippetByID(ctx context.Context, userID string, id primitive.ObjectID) (*models.Snippet, error) {
	snippet, err := s.snippets.GetSnippet(ctx, id)
	if err != nil {
		return nil, err
	}
	if snippet.UserID != userID {
		return nil, &apperrors.NotFoundError{Resource: "snippet", ID: id.Hex()}
	}
	return snippet, nil
}

// GetUserSnippets returns a user's snippets, optionally restricted to one
// calendar day (matched against updatedAt, as the original API does).
// A user with no snippets at all is a 404, not an empty list.
func (s *SnippetService) GetUserSnippets(ctx context.Context, userID string, date *time.Time) ([]models.Snippet, error) {
	snippets, err := s.snippets.ListSnippetsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(snippets) == 0 {
		return nil, &apperrors.NotFoundError{Resource: "snippets for user", ID: userID}
	}

	if date != nil {
		day := DateOnly(*date, s.loc)
		filtered := snippets[:0]
		for _, snippet := range snippets {
			if DateOnly(snippet.UpdatedAt, s.loc).Equal(day) {
				filtered = append(filtered, snippet)
			}
		}
		snippets = filtered
	}

	return snippets, nil
}

func (s *SnippetService) invalidateStats(userID string) {
	if s.stats != nil {
		s.stats.Invalidate(userID)
	}
}
