package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// UserSyncer propagates newly created ids into the user directory.
type UserSyncer interface {
	AddJournalEntryToUser(ctx context.Context, userID, entryID string) error
	AddSnippetToUser(ctx context.Context, userID, snippetID string) error
}

// UserSyncService appends entry/snippet ids to the denormalized arrays on
// the externally-owned user record. Callers treat every returned error as
// best-effort: the ingestion path logs and swallows it, the primary write
// has already succeeded and must report success.
type UserSyncService struct {
	directory UserDirectory
	log       *logrus.Entry
}

// NewUserSyncService creates a new user sync service
func NewUserSyncService(directory UserDirectory) *UserSyncService {
	return &UserSyncService{
		directory: directory,
		log:       logrus.WithField("component", "user-sync"),
	}
}

// AddJournalEntryToUser appends entryID to the user's journalEntries array.
func (s *UserSyncService) AddJournalEntryToUser(ctx context.Context, userID, entryID string) error {
	if err := s.appendID(ctx, userID, entryID, "journalEntries"); err != nil {
		return fmt.Errorf("failed to add journal entry %s to user %s: %w", entryID, userID, err)
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "entry_id": entryID}).Debug("journal entry id propagated")
	return nil
}

// AddSnippetToUser appends snippetID to the user's snippets array.
func (s *UserSyncService) AddSnippetToUser(ctx context.Context, userID, snippetID string) error {
	if err := s.appendID(ctx, userID, snippetID, "snippets"); err != nil {
		return fmt.Errorf("failed to add snippet %s to user %s: %w", snippetID, userID, err)
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "snippet_id": snippetID}).Debug("snippet id propagated")
	return nil
}

// appendID is a read-modify-write against the remote record. Two near-
// simultaneous appends for the same user can race last-writer-wins; the
// arrays are an index, not a source of truth, so the loss is tolerated.
func (s *UserSyncService) appendID(ctx context.Context, userID, id, target string) error {
	user, err := s.directory.FetchUser(ctx, userID)
	if err != nil {
		return err
	}

	switch target {
	case "journalEntries":
		user.JournalEntries = append(user.JournalEntries, id)
	case "snippets":
		user.Snippets = append(user.Snippets, id)
	}

	if _, err := s.directory.ReplaceUser(ctx, userID, user); err != nil {
		return err
	}
	return nil
}
