package memory

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"daybook/internal/apperrors"
	"daybook/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func floatPtr(v float64) *float64 { return &v }

func TestInsertEntryConflict(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first := &models.JournalEntry{UserID: "u1", Date: date(2024, 3, 1)}
	if err := s.InsertEntry(ctx, first); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	dup := &models.JournalEntry{UserID: "u1", Date: date(2024, 3, 1)}
	err := s.InsertEntry(ctx, dup)
	if !apperrors.IsConflict(err) {
		t.Fatalf("expected conflict error, got %v", err)
	}

	// Same day for another user is fine
	other := &models.JournalEntry{UserID: "u2", Date: date(2024, 3, 1)}
	if err := s.InsertEntry(ctx, other); err != nil {
		t.Fatalf("insert for other user failed: %v", err)
	}
}

func TestApplySnippetAddedAggregates(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	entry := &models.JournalEntry{UserID: "u1", Date: date(2024, 3, 1)}
	if err := s.InsertEntry(ctx, entry); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	now := time.Now()
	got, err := s.ApplySnippetAdded(ctx, entry.ID, primitive.NewObjectID(), floatPtr(4), now)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got.DailyMood == nil || *got.DailyMood != 4 {
		t.Fatalf("expected dailyMood 4, got %v", got.DailyMood)
	}

	// Mood-less snippet joins the list but not the average
	got, err = s.ApplySnippetAdded(ctx, entry.ID, primitive.NewObjectID(), nil, now)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if len(got.SnippetIDs) != 2 {
		t.Fatalf("expected 2 snippet ids, got %d", len(got.SnippetIDs))
	}
	if got.DailyMood == nil || *got.DailyMood != 4 {
		t.Fatalf("mood-less snippet changed the average: %v", got.DailyMood)
	}

	got, err = s.ApplySnippetAdded(ctx, entry.ID, primitive.NewObjectID(), floatPtr(2), now)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got.DailyMood == nil || *got.DailyMood != 3 {
		t.Fatalf("expected dailyMood 3, got %v", got.DailyMood)
	}
}

func TestApplySnippetRemovedLastSnippetGuard(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	entry := &models.JournalEntry{UserID: "u1", Date: date(2024, 3, 1)}
	if err := s.InsertEntry(ctx, entry); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	onlyID := primitive.NewObjectID()
	if _, err := s.ApplySnippetAdded(ctx, entry.ID, onlyID, floatPtr(5), time.Now()); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	_, err := s.ApplySnippetRemoved(ctx, entry.ID, onlyID, floatPtr(5), time.Now())
	if !apperrors.IsInvalidOperation(err) {
		t.Fatalf("expected invalid operation error, got %v", err)
	}

	// The rejected removal left the entry untouched
	got, err := s.GetEntry(ctx, entry.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got.SnippetIDs) != 1 || got.DailyMood == nil || *got.DailyMood != 5 {
		t.Fatalf("entry mutated by rejected removal: %+v", got)
	}
}

func TestApplySnippetRemovedUnfoldsMood(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	entry := &models.JournalEntry{UserID: "u1", Date: date(2024, 3, 1)}
	if err := s.InsertEntry(ctx, entry); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	first := primitive.NewObjectID()
	second := primitive.NewObjectID()
	if _, err := s.ApplySnippetAdded(ctx, entry.ID, first, floatPtr(2), time.Now()); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if _, err := s.ApplySnippetAdded(ctx, entry.ID, second, floatPtr(4), time.Now()); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	got, err := s.ApplySnippetRemoved(ctx, entry.ID, first, floatPtr(2), time.Now())
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(got.SnippetIDs) != 1 || got.SnippetIDs[0] != second {
		t.Fatalf("unexpected snippet ids after removal: %v", got.SnippetIDs)
	}
	if got.DailyMood == nil || *got.DailyMood != 4 {
		t.Fatalf("expected dailyMood 4 after removal, got %v", got.DailyMood)
	}
}

func TestListEntriesByDate(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	day := date(2024, 3, 1)
	for _, userID := range []string{"u1", "u2"} {
		if err := s.InsertEntry(ctx, &models.JournalEntry{UserID: userID, Date: day}); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}
	if err := s.InsertEntry(ctx, &models.JournalEntry{UserID: "u1", Date: date(2024, 3, 2)}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	entries, err := s.ListEntriesByDate(ctx, day)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for %s, got %d", day.Format("2006-01-02"), len(entries))
	}
}
