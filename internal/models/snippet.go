package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Snippet is an atomic, timestamped journal note. Mood is optional and
// immutable once persisted; only creation and deletion affect the owning
// entry's aggregate mood.
type Snippet struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         string             `bson:"userId" json:"userId"`
	Content        string             `bson:"content" json:"content"`
	Timestamp      time.Time          `bson:"timestamp" json:"timestamp"`
	Mood           *float64           `bson:"mood,omitempty" json:"mood,omitempty"`
	Tags           []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	JournalEntryID primitive.ObjectID `bson:"journalEntryId" json:"journalEntryId"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CreateSnippetRequest is the request body for POST /api/snippets
type CreateSnippetRequest struct {
	UserID    string     `json:"userId"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Mood      *float64   `json:"mood,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
}

// UpdateSnippetRequest is the request body for PUT /api/snippets/:id.
// Only content and tags are mutable.
type UpdateSnippetRequest struct {
	Content *string   `json:"content,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}
