package services

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"daybook/internal/apperrors"
	"daybook/internal/models"
	"daybook/internal/store"
	"daybook/internal/store/memory"
)

func newJournalFixture(t *testing.T) (*JournalService, *SnippetService, *memory.Store) {
	t.Helper()
	st := memory.NewStore()
	syncer := &recordingSyncer{}
	journals := NewJournalService(st, st, syncer, time.UTC)
	snippets := NewSnippetService(st, st, syncer, time.UTC)
	return journals, snippets, st
}

func TestCreateJournalEntryDuplicateDayConflicts(t *testing.T) {
	journals, _, _ := newJournalFixture(t)
	ctx := context.Background()

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if _, err := journals.CreateJournalEntry(ctx, &models.CreateJournalEntryRequest{
		UserID: "u1", Date: &day, Title: "first",
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err := journals.CreateJournalEntry(ctx, &models.CreateJournalEntryRequest{
		UserID: "u1", Date: &day, Title: "second",
	})
	if !apperrors.IsConflict(err) {
		t.Fatalf("expected conflict for duplicate day, got %v", err)
	}
}

func TestUpdateJournalEntryMoodOverrideRebasesAggregate(t *testing.T) {
	journals, snippets, st := newJournalFixture(t)
	ctx := context.Background()

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var entryID string
	for _, mood := range []float64{2, 4} {
		snippet, err := snippets.CreateSnippet(ctx, &models.CreateSnippetRequest{
			UserID: "u1", Content: "s", Timestamp: &at, Mood: floatPtr(mood),
		})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		entryID = snippet.JournalEntryID.Hex()
	}

	entries, _ := st.ListEntriesByUser(ctx, "u1")
	entry := entries[0]
	if entry.ID.Hex() != entryID {
		t.Fatal("unexpected entry")
	}

	override := 5.0
	updated, err := journals.UpdateJournalEntry(ctx, entry.ID, &models.UpdateJournalEntryRequest{
		DailyMood: &override,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.DailyMood == nil || *updated.DailyMood != 5 {
		t.Fatalf("override not applied: %v", updated.DailyMood)
	}

	// A new mood-bearing snippet averages around the overridden value, not
	// the pre-override sum: (5*2 + 2) / 3 = 4
	later := at.Add(time.Hour)
	if _, err := snippets.CreateSnippet(ctx, &models.CreateSnippetRequest{
		UserID: "u1", Content: "s", Timestamp: &later, Mood: floatPtr(2),
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	entries, _ = st.ListEntriesByUser(ctx, "u1")
	got := entries[0].DailyMood
	if got == nil || *got != 4 {
		t.Fatalf("expected rebased average 4, got %v", got)
	}
}

// racingEntryStore fires a hook right before an entry patch reaches the
// store, the worst interleaving for an edit racing a snippet ingestion.
type racingEntryStore struct {
	store.EntryStore
	before func()
}

func (r *racingEntryStore) PatchEntry(ctx context.Context, id primitive.ObjectID, patch store.EntryPatch) (*models.JournalEntry, error) {
	if r.before != nil {
		hook := r.before
		r.before = nil
		hook()
	}
	return r.EntryStore.PatchEntry(ctx, id, patch)
}

func TestUpdateJournalEntrySurvivesConcurrentSnippetAdd(t *testing.T) {
	st := memory.NewStore()
	racing := &racingEntryStore{EntryStore: st}
	journals := NewJournalService(racing, st, nil, time.UTC)
	snippets := NewSnippetService(st, st, nil, time.UTC)
	ctx := context.Background()

	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	first, err := snippets.CreateSnippet(ctx, &models.CreateSnippetRequest{
		UserID: "u1", Content: "a", Timestamp: &at, Mood: floatPtr(2),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	var racer *models.Snippet
	racing.before = func() {
		later := at.Add(time.Hour)
		var createErr error
		racer, createErr = snippets.CreateSnippet(ctx, &models.CreateSnippetRequest{
			UserID: "u1", Content: "b", Timestamp: &later, Mood: floatPtr(4),
		})
		if createErr != nil {
			t.Fatalf("concurrent create failed: %v", createErr)
		}
	}

	title := "edited"
	updated, err := journals.UpdateJournalEntry(ctx, first.JournalEntryID, &models.UpdateJournalEntryRequest{
		Title: &title,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.Title != "edited" {
		t.Fatalf("title not applied: %q", updated.Title)
	}
	if len(updated.SnippetIDs) != 2 {
		t.Fatalf("concurrent snippet clobbered, %d ids left", len(updated.SnippetIDs))
	}
	found := false
	for _, id := range updated.SnippetIDs {
		if id == racer.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("concurrent snippet id missing from entry")
	}
	if updated.DailyMood == nil || *updated.DailyMood != 3 {
		t.Fatalf("mood aggregate clobbered: %v", updated.DailyMood)
	}
}

func TestDeleteJournalEntryCascadesToSnippets(t *testing.T) {
	journals, snippets, st := newJournalFixture(t)
	ctx := context.Background()

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	first, err := snippets.CreateSnippet(ctx, &models.CreateSnippetRequest{
		UserID: "u1", Content: "a", Timestamp: &at,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	later := at.Add(time.Minute)
	if _, err := snippets.CreateSnippet(ctx, &models.CreateSnippetRequest{
		UserID: "u1", Content: "b", Timestamp: &later,
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := journals.DeleteJournalEntry(ctx, first.JournalEntryID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := st.GetEntry(ctx, first.JournalEntryID); !apperrors.IsNotFound(err) {
		t.Fatalf("entry still present: %v", err)
	}
	remaining, _ := st.ListSnippetsByEntry(ctx, first.JournalEntryID)
	if len(remaining) != 0 {
		t.Fatalf("expected cascade to remove snippets, %d left", len(remaining))
	}
}

func TestGetUserJournalsEmptyIsNotFound(t *testing.T) {
	journals, _, _ := newJournalFixture(t)

	_, err := journals.GetUserJournals(context.Background(), "nobody", nil)
	if !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetUserJournalsDateFilter(t *testing.T) {
	journals, snippets, _ := newJournalFixture(t)
	ctx := context.Background()

	for _, day := range []int{1, 2, 3} {
		at := time.Date(2024, 3, day, 10, 0, 0, 0, time.UTC)
		if _, err := snippets.CreateSnippet(ctx, &models.CreateSnippetRequest{
			UserID: "u1", Content: "s", Timestamp: &at,
		}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	target := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	entries, err := journals.GetUserJournals(ctx, "u1", &target)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 1 || !entries[0].Date.Equal(target) {
		t.Fatalf("date filter returned %d entries", len(entries))
	}
}
