package models

// UserRecord is the externally-owned user aggregate as exposed by the user
// service. The id arrays are a denormalized index kept eventually consistent
// by best-effort sync; they are never the source of truth for existence.
type UserRecord struct {
	ID             string   `json:"id"`
	Name           string   `json:"name,omitempty"`
	Email          string   `json:"email,omitempty"`
	JournalEntries []string `json:"journalEntries"`
	Snippets       []string `json:"snippets"`
}
