package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"daybook/internal/models"
)

// EntryStore is the keyed persistence boundary for journal entries.
//
// Implementations must enforce uniqueness of (userId, date): InsertEntry
// returns an apperrors.ConflictError when a concurrent writer got there
// first, and the ingestion path recovers by re-reading.
//
// ApplySnippetAdded and ApplySnippetRemoved are single-document atomic
// updates: the snippet-id list, the mood-bearing sum/count, and the derived
// dailyMood change together or not at all, so concurrent add/delete for the
// same entry can never interleave a stale read-modify-write.
type EntryStore interface {
	GetEntry(ctx context.Context, id primitive.ObjectID) (*models.JournalEntry, error)
	GetEntryByUserAndDate(ctx context.Context, userID string, date time.Time) (*models.JournalEntry, error)
	ListEntriesByUser(ctx context.Context, userID string) ([]models.JournalEntry, error)

	// ListEntriesByDate returns every user's entry for one calendar day,
	// used by the nightly insight job.
	ListEntriesByDate(ctx context.Context, date time.Time) ([]models.JournalEntry, error)

	InsertEntry(ctx context.Context, entry *models.JournalEntry) error

	// PatchEntry applies patch field by field against the stored document.
	// It must never replace the whole document: the snippet aggregate
	// (snippetIds, moodSum, moodCount) is owned by ApplySnippetAdded and
	// ApplySnippetRemoved, and a concurrent fold must survive an entry edit.
	PatchEntry(ctx context.Context, id primitive.ObjectID, patch EntryPatch) (*models.JournalEntry, error)

	DeleteEntry(ctx context.Context, id primitive.ObjectID) error

	// ApplySnippetAdded appends snippetID and folds mood (nil = mood-less)
	// into the running aggregate, returning the updated entry.
	ApplySnippetAdded(ctx context.Context, entryID, snippetID primitive.ObjectID, mood *float64, at time.Time) (*models.JournalEntry, error)

	// ApplySnippetRemoved removes snippetID and unfolds mood from the
	// aggregate. It fails with apperrors.InvalidOperationError when the
	// entry references at most one snippet: an entry never loses its last
	// snippet through snippet deletion.
	ApplySnippetRemoved(ctx context.Context, entryID, snippetID primitive.ObjectID, mood *float64, at time.Time) (*models.JournalEntry, error)
}

// EntryPatch is a field-level update of an entry's editable fields; nil
// fields are left untouched. A non-nil DailyMood overrides the day's mood
// and rebases the running mood sum around it, so later snippet folds
// average around the override.
type EntryPatch struct {
	Title     *string
	Summary   *string
	Insights  *models.Insights
	DailyMood *float64
	UpdatedAt time.Time
}

// SnippetStore is the keyed persistence boundary for snippets.
type SnippetStore interface {
	GetSnippet(ctx context.Context, id primitive.ObjectID) (*models.Snippet, error)
	ListSnippets(ctx context.Context) ([]models.Snippet, error)
	ListSnippetsByUser(ctx context.Context, userID string) ([]models.Snippet, error)
	ListSnippetsByEntry(ctx context.Context, entryID primitive.ObjectID) ([]models.Snippet, error)
	InsertSnippet(ctx context.Context, snippet *models.Snippet) error
	UpdateSnippet(ctx context.Context, snippet *models.Snippet) error
	DeleteSnippet(ctx context.Context, id primitive.ObjectID) error
}
