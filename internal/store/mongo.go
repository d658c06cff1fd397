package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"daybook/internal/apperrors"
	"daybook/internal/database"
	"daybook/internal/models"
)

// MongoEntryStore persists journal entries in MongoDB
type MongoEntryStore struct {
	collection *mongo.Collection
}

// NewMongoEntryStore creates a new entry store backed by MongoDB
func NewMongoEntryStore(db *database.MongoDB) *MongoEntryStore {
	return &MongoEntryStore{collection: db.Collection(database.CollectionJournalEntries)}
}

func (s *MongoEntryStore) GetEntry(ctx context.Context, id primitive.ObjectID) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if err == mongo.ErrNoDocuments {
		return nil, &apperrors.NotFoundError{Resource: "journal entry", ID: id.Hex()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}
	return &entry, nil
}

func (s *MongoEntryStore) GetEntryByUserAndDate(ctx context.Context, userID string, date time.Time) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	err := s.collection.FindOne(ctx, bson.M{"userId": userID, "date": date}).Decode(&entry)
	if err == mongo.ErrNoDocuments {
		return nil, &apperrors.NotFoundError{Resource: "journal entry"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journal entry by date: %w", err)
	}
	return &entry, nil
}

func (s *MongoEntryStore) ListEntriesByUser(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	opts := options.Find().SetSort(bson.M{"date": -1})
	cursor, err := s.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.JournalEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode journal entries: %w", err)
	}
	return entries, nil
}

func (s *MongoEntryStore) ListEntriesByDate(ctx context.Context, date time.Time) ([]models.JournalEntry, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"date": date})
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries by date: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.JournalEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode journal entries: %w", err)
	}
	return entries, nil
}

// InsertEntry inserts a new entry. The unique (userId, date) index turns a
// concurrent duplicate creation into a ConflictError the caller recovers
// from by re-reading.
func (s *MongoEntryStore) InsertEntry(ctx context.Context, entry *models.JournalEntry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.SnippetIDs == nil {
		entry.SnippetIDs = []primitive.ObjectID{}
	}
	_, err := s.collection.InsertOne(ctx, entry)
	if mongo.IsDuplicateKeyError(err) {
		return &apperrors.ConflictError{Key: fmt.Sprintf("(%s, %s)", entry.UserID, entry.Date.Format("2006-01-02"))}
	}
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return nil
}

// PatchEntry sets only the patched fields with a single pipeline update,
// never replacing the document, so a snippet folded in concurrently keeps
// its place in snippetIds and the mood aggregate. The mood rebase reads
// moodCount inside the same atomic update. User-supplied strings go
// through $literal so content starting with "$" is never evaluated.
func (s *MongoEntryStore) PatchEntry(ctx context.Context, id primitive.ObjectID, patch EntryPatch) (*models.JournalEntry, error) {
	set := bson.M{"updatedAt": patch.UpdatedAt}
	if patch.Title != nil {
		set["title"] = bson.M{"$literal": *patch.Title}
	}
	if patch.Summary != nil {
		set["summary"] = bson.M{"$literal": *patch.Summary}
	}
	if patch.Insights != nil {
		set["insights"] = bson.M{"$literal": patch.Insights}
	}
	if patch.DailyMood != nil {
		count := bson.M{"$cond": bson.A{
			bson.M{"$gt": bson.A{bson.M{"$ifNull": bson.A{"$moodCount", 0}}, 0}},
			"$moodCount",
			1,
		}}
		set["dailyMood"] = *patch.DailyMood
		set["moodCount"] = count
		set["moodSum"] = bson.M{"$multiply": bson.A{*patch.DailyMood, count}}
	}

	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var entry models.JournalEntry
	err := s.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&entry)
	if err == mongo.ErrNoDocuments {
		return nil, &apperrors.NotFoundError{Resource: "journal entry", ID: id.Hex()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to patch journal entry: %w", err)
	}
	return &entry, nil
}

func (s *MongoEntryStore) DeleteEntry(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}
	if result.DeletedCount == 0 {
		return &apperrors.NotFoundError{Resource: "journal entry", ID: id.Hex()}
	}
	return nil
}

// ApplySnippetAdded folds a new snippet into the entry aggregate with a
// single aggregation-pipeline update: id append, moodSum/moodCount
// increment, and dailyMood derivation happen in one atomic write.
func (s *MongoEntryStore) ApplySnippetAdded(ctx context.Context, entryID, snippetID primitive.ObjectID, mood *float64, at time.Time) (*models.JournalEntry, error) {
	moodValue := 0.0
	countInc := 0
	if mood != nil {
		moodValue = *mood
		countInc = 1
	}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"snippetIds": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$snippetIds", bson.A{}}},
				bson.A{snippetID},
			}},
			"moodSum":   bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$moodSum", 0}}, moodValue}},
			"moodCount": bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$moodCount", 0}}, countInc}},
			"updatedAt": at,
		}}},
		{{Key: "$set", Value: bson.M{
			"dailyMood": dailyMoodExpr(),
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var entry models.JournalEntry
	err := s.collection.FindOneAndUpdate(ctx, bson.M{"_id": entryID}, pipeline, opts).Decode(&entry)
	if err == mongo.ErrNoDocuments {
		return nil, &apperrors.NotFoundError{Resource: "journal entry", ID: entryID.Hex()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply snippet to journal entry: %w", err)
	}
	return &entry, nil
}

// ApplySnippetRemoved unfolds a snippet from the entry aggregate. The
// filter requires a second element in snippetIds, so the last-snippet rule
// is enforced by the same atomic update that performs the removal.
func (s *MongoEntryStore) ApplySnippetRemoved(ctx context.Context, entryID, snippetID primitive.ObjectID, mood *float64, at time.Time) (*models.JournalEntry, error) {
	moodValue := 0.0
	countDec := 0
	if mood != nil {
		moodValue = *mood
		countDec = 1
	}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"snippetIds": bson.M{"$filter": bson.M{
				"input": bson.M{"$ifNull": bson.A{"$snippetIds", bson.A{}}},
				"as":    "sid",
				"cond":  bson.M{"$ne": bson.A{"$$sid", snippetID}},
			}},
			"moodSum":   bson.M{"$subtract": bson.A{bson.M{"$ifNull": bson.A{"$moodSum", 0}}, moodValue}},
			"moodCount": bson.M{"$subtract": bson.A{bson.M{"$ifNull": bson.A{"$moodCount", 0}}, countDec}},
			"updatedAt": at,
		}}},
		{{Key: "$set", Value: bson.M{
			"dailyMood": dailyMoodExpr(),
		}}},
	}

	filter := bson.M{"_id": entryID, "snippetIds.1": bson.M{"$exists": true}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var entry models.JournalEntry
	err := s.collection.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&entry)
	if err == mongo.ErrNoDocuments {
		// Either the entry is gone or it holds a single snippet; look again
		// to report the right failure.
		if _, getErr := s.GetEntry(ctx, entryID); getErr != nil {
			return nil, getErr
		}
		return nil, &apperrors.InvalidOperationError{Reason: "cannot delete the last remaining snippet in a journal entry"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to remove snippet from journal entry: %w", err)
	}
	return &entry, nil
}

// dailyMoodExpr recomputes dailyMood from the running aggregate, unsetting
// it while no mood-bearing snippet remains.
func dailyMoodExpr() bson.M {
	return bson.M{"$cond": bson.A{
		bson.M{"$gt": bson.A{"$moodCount", 0}},
		bson.M{"$divide": bson.A{"$moodSum", "$moodCount"}},
		"$$REMOVE",
	}}
}

// MongoSnippetStore persists snippets in MongoDB
type MongoSnippetStore struct {
	collection *mongo.Collection
}

// NewMongoSnippetStore creates a new snippet store backed by MongoDB
func NewMongoSnippetStore(db *database.MongoDB) *MongoSnippetStore {
	return &MongoSnippetStore{collection: db.Collection(database.CollectionSnippets)}
}

func (s *MongoSnippetStore) GetSnippet(ctx context.Context, id primitive.ObjectID) (*models.Snippet, error) {
	var snippet models.Snippet
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&snippet)
	if err == mongo.ErrNoDocuments {
		return nil, &apperrors.NotFoundError{Resource: "snippet", ID: id.Hex()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snippet: %w", err)
	}
	return &snippet, nil
}

func (s *MongoSnippetStore) ListSnippets(ctx context.Context) ([]models.Snippet, error) {
	return s.list(ctx, bson.M{})
}

func (s *MongoSnippetStore) ListSnippetsByUser(ctx context.Context, userID string) ([]models.Snippet, error) {
	return s.list(ctx, bson.M{"userId": userID})
}

func (s *MongoSnippetStore) ListSnippetsByEntry(ctx context.Context, entryID primitive.ObjectID) ([]models.Snippet, error) {
	return s.list(ctx, bson.M{"journalEntryId": entryID})
}

func (s *MongoSnippetStore) list(ctx context.Context, filter bson.M) ([]models.Snippet, error) {
	opts := options.Find().SetSort(bson.M{"timestamp": 1})
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list snippets: %w", err)
	}
	defer cursor.Close(ctx)

	var snippets []models.Snippet
	if err := cursor.All(ctx, &snippets); err != nil {
		return nil, fmt.Errorf("failed to decode snippets: %w", err)
	}
	return snippets, nil
}

func (s *MongoSnippetStore) InsertSnippet(ctx context.Context, snippet *models.Snippet) error {
	if snippet.ID.IsZero() {
		snippet.ID = primitive.NewObjectID()
	}
	_, err := s.collection.InsertOne(ctx, snippet)
	if err != nil {
		return fmt.Errorf("failed to insert snippet: %w", err)
	}
	return nil
}

func (s *MongoSnippetStore) UpdateSnippet(ctx context.Context, snippet *models.Snippet) error {
	result, err := s.collection.ReplaceOne(ctx, bson.M{"_id": snippet.ID}, snippet)
	if err != nil {
		return fmt.Errorf("failed to update snippet: %w", err)
	}
	if result.MatchedCount == 0 {
		return &apperrors.NotFoundError{Resource: "snippet", ID: snippet.ID.Hex()}
	}
	return nil
}

func (s *MongoSnippetStore) DeleteSnippet(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete snippet: %w", err)
	}
	if result.DeletedCount == 0 {
		return &apperrors.NotFoundError{Resource: "snippet", ID: id.Hex()}
	}
	return nil
}
