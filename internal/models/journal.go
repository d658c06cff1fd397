package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JournalEntry is the per-user, per-calendar-day rollup of snippets.
// At most one entry exists per (userId, date); the unique index enforces it.
//
// MoodSum and MoodCount track the mood-bearing snippets only, so a snippet
// without a mood never skews the average. DailyMood is always
// MoodSum/MoodCount and is unset while MoodCount is zero.
type JournalEntry struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID     string               `bson:"userId" json:"userId"`
	Date       time.Time            `bson:"date" json:"date"`
	Title      string               `bson:"title,omitempty" json:"title,omitempty"`
	Summary    string               `bson:"summary,omitempty" json:"summary,omitempty"`
	DailyMood  *float64             `bson:"dailyMood,omitempty" json:"dailyMood,omitempty"`
	MoodSum    float64              `bson:"moodSum" json:"-"`
	MoodCount  int                  `bson:"moodCount" json:"-"`
	SnippetIDs []primitive.ObjectID `bson:"snippetIds" json:"snippetIds"`
	Insights   *Insights            `bson:"insights,omitempty" json:"insights,omitempty"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Insights is the structured analysis block embedded on a journal entry.
// It has no lifecycle of its own.
type Insights struct {
	Analysis    string `bson:"analysis,omitempty" json:"analysis,omitempty"`
	MoodPattern string `bson:"moodPattern,omitempty" json:"moodPattern,omitempty"`
	Suggestion  string `bson:"suggestion,omitempty" json:"suggestion,omitempty"`
	Achievement string `bson:"achievement,omitempty" json:"achievement,omitempty"`
	WellnessTip string `bson:"wellnessTip,omitempty" json:"wellnessTip,omitempty"`
}

// CreateJournalEntryRequest is the request body for POST /api/journalEntries
// (manual creation, bypassing the snippet-driven path).
type CreateJournalEntryRequest struct {
	UserID  string     `json:"userId"`
	Date    *time.Time `json:"date,omitempty"`
	Title   string     `json:"title,omitempty"`
	Summary string     `json:"summary,omitempty"`
}

// UpdateJournalEntryRequest is the request body for PUT /api/journalEntries/:id
type UpdateJournalEntryRequest struct {
	Title     *string   `json:"title,omitempty"`
	Summary   *string   `json:"summary,omitempty"`
	DailyMood *float64  `json:"dailyMood,omitempty"`
	Insights  *Insights `json:"insights,omitempty"`
}

// Statistics is the response of GET /api/journalEntries/:userId/statistics
type Statistics struct {
	TotalJournals      int     `json:"totalJournals"`
	TotalWords         int     `json:"totalWords"`
	AvgMood            float64 `json:"avgMood"`
	WeeklyJournalCount int     `json:"weeklyJournalCount"`
	WeeklyAvgMood      float64 `json:"weeklyAvgMood"`
	WeeklyTarget       int     `json:"weeklyTarget"`
	CurrentStreak      int     `json:"currentStreak"`
}
