package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"daybook/internal/apperrors"
	"daybook/internal/models"
	"daybook/internal/store"
)

// Store is an in-memory implementation of both store interfaces, used by
// tests. A single mutex serializes every operation, which makes the
// aggregate updates trivially atomic; the Mongo store achieves the same
// with single-document pipeline updates.
type Store struct {
	mu       sync.RWMutex
	entries  map[primitive.ObjectID]*models.JournalEntry
	snippets map[primitive.ObjectID]*models.Snippet
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		entries:  make(map[primitive.ObjectID]*models.JournalEntry),
		snippets: make(map[primitive.ObjectID]*models.Snippet),
	}
}

func cloneEntry(e *models.JournalEntry) *models.JournalEntry {
	c := *e
	c.SnippetIDs = append([]primitive.ObjectID(nil), e.SnippetIDs...)
	if e.DailyMood != nil {
		mood := *e.DailyMood
		c.DailyMood = &mood
	}
	if e.Insights != nil {
		insights := *e.Insights
		c.Insights = &insights
	}
	return &c
}

func cloneSnippet(s *models.Snippet) *models.Snippet {
	c := *s
	c.Tags = append([]string(nil), s.Tags...)
	if s.Mood != nil {
		mood := *s.Mood
		c.Mood = &mood
	}
	return &c
}

func (s *Store) GetEntry(_ context.Context, id primitive.ObjectID) (*models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "journal entry", ID: id.Hex()}
	}
	return cloneEntry(entry), nil
}

func (s *Store) GetEntryByUserAndDate(_ context.Context, userID string, date time.Time) (*models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries {
		if entry.UserID == userID && entry.Date.Equal(date) {
			return cloneEntry(entry), nil
		}
	}
	return nil, &apperrors.NotFoundError{Resource: "journal entry"}
}

func (s *Store) ListEntriesByUser(_ context.Context, userID string) ([]models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []models.JournalEntry
	for _, entry := range s.entries {
		if entry.UserID == userID {
			entries = append(entries, *cloneEntry(entry))
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
	return entries, nil
}

func (s *Store) ListEntriesByDate(_ context.Context, date time.Time) ([]models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []models.JournalEntry
	for _, entry := range s.entries {
		if entry.Date.Equal(date) {
			entries = append(entries, *cloneEntry(entry))
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UserID < entries[j].UserID
	})
	return entries, nil
}

func (s *Store) InsertEntry(_ context.Context, entry *models.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.entries {
		if existing.UserID == entry.UserID && existing.Date.Equal(entry.Date) {
			return &apperrors.ConflictError{Key: "(" + entry.UserID + ", " + entry.Date.Format("2006-01-02") + ")"}
		}
	}

	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.SnippetIDs == nil {
		entry.SnippetIDs = []primitive.ObjectID{}
	}
	s.entries[entry.ID] = cloneEntry(entry)
	return nil
}

func (s *Store) PatchEntry(_ context.Context, id primitive.ObjectID, patch store.EntryPatch) (*models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "journal entry", ID: id.Hex()}
	}

	if patch.Title != nil {
		entry.Title = *patch.Title
	}
	if patch.Summary != nil {
		entry.Summary = *patch.Summary
	}
	if patch.Insights != nil {
		insights := *patch.Insights
		entry.Insights = &insights
	}
	if patch.DailyMood != nil {
		mood := *patch.DailyMood
		if entry.MoodCount == 0 {
			entry.MoodCount = 1
		}
		entry.MoodSum = mood * float64(entry.MoodCount)
		entry.DailyMood = &mood
	}
	entry.UpdatedAt = patch.UpdatedAt

	return cloneEntry(entry), nil
}

func (s *Store) DeleteEntry(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return &apperrors.NotFoundError{Resource: "journal entry", ID: id.Hex()}
	}
	delete(s.entries, id)
	return nil
}

func (s *Store) ApplySnippetAdded(_ context.Context, entryID, snippetID primitive.ObjectID, mood *float64, at time.Time) (*models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[entryID]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "journal entry", ID: entryID.Hex()}
	}

	entry.SnippetIDs = append(entry.SnippetIDs, snippetID)
	if mood != nil {
		entry.MoodSum += *mood
		entry.MoodCount++
	}
	recomputeDailyMood(entry)
	entry.UpdatedAt = at

	return cloneEntry(entry), nil
}

func (s *Store) ApplySnippetRemoved(_ context.Context, entryID, snippetID primitive.ObjectID, mood *float64, at time.Time) (*models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[entryID]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "journal entry", ID: entryID.Hex()}
	}
	if len(entry.SnippetIDs) <= 1 {
		return nil, &apperrors.InvalidOperationError{Reason: "cannot delete the last remaining snippet in a journal entry"}
	}

	kept := entry.SnippetIDs[:0]
	for _, sid := range entry.SnippetIDs {
		if sid != snippetID {
			kept = append(kept, sid)
		}
	}
	entry.SnippetIDs = kept

	if mood != nil {
		entry.MoodSum -= *mood
		entry.MoodCount--
	}
	recomputeDailyMood(entry)
	entry.UpdatedAt = at

	return cloneEntry(entry), nil
}

func recomputeDailyMood(entry *models.JournalEntry) {
	if entry.MoodCount > 0 {
		mood := entry.MoodSum / float64(entry.MoodCount)
		entry.DailyMood = &mood
	} else {
		entry.DailyMood = nil
	}
}

func (s *Store) GetSnippet(_ context.Context, id primitive.ObjectID) (*models.Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snippet, ok := s.snippets[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "snippet", ID: id.Hex()}
	}
	return cloneSnippet(snippet), nil
}

func (s *Store) ListSnippets(_ context.Context) ([]models.Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(*models.Snippet) bool { return true }), nil
}

func (s *Store) ListSnippetsByUser(_ context.Context, userID string) ([]models.Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(sn *models.Snippet) bool { return sn.UserID == userID }), nil
}

func (s *Store) ListSnippetsByEntry(_ context.Context, entryID primitive.ObjectID) ([]models.Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(sn *models.Snippet) bool { return sn.JournalEntryID == entryID }), nil
}

func (s *Store) collect(match func(*models.Snippet) bool) []models.Snippet {
	var snippets []models.Snippet
	for _, snippet := range s.snippets {
		if match(snippet) {
			snippets = append(snippets, *cloneSnippet(snippet))
		}
	}
	sort.Slice(snippets, func(i, j int) bool {
		return snippets[i].Timestamp.Before(snippets[j].Timestamp)
	})
	return snippets
}

func (s *Store) InsertSnippet(_ context.Context, snippet *models.Snippet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snippet.ID.IsZero() {
		snippet.ID = primitive.NewObjectID()
	}
	s.snippets[snippet.ID] = cloneSnippet(snippet)
	return nil
}

func (s *Store) UpdateSnippet(_ context.Context, snippet *models.Snippet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snippets[snippet.ID]; !ok {
		return &apperrors.NotFoundError{Resource: "snippet", ID: snippet.ID.Hex()}
	}
	s.snippets[snippet.ID] = cloneSnippet(snippet)
	return nil
}

func (s *Store) DeleteSnippet(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snippets[id]; !ok {
		return &apperrors.NotFoundError{Resource: "snippet", ID: id.Hex()}
	}
	delete(s.snippets, id)
	return nil
}
