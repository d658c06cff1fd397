package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"daybook/internal/apperrors"
	"daybook/internal/models"
)

// fakeUserService is an in-process stand-in for the user microservice.
type fakeUserService struct {
	mu    sync.Mutex
	users map[string]*models.UserRecord
	fail  bool
}

func (f *fakeUserService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if f.fail {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}

		userID := r.URL.Path[len("/api/users/"):]
		user, ok := f.users[userID]
		if !ok {
			http.NotFound(w, r)
			return
		}

		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(user)
		case http.MethodPut:
			var updated models.UserRecord
			if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			f.users[userID] = &updated
			json.NewEncoder(w).Encode(&updated)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	return mux
}

func newUserSyncFixture(t *testing.T, fake *fakeUserService) (*UserSyncService, func()) {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	client := NewUserClient(srv.URL, 100)
	return NewUserSyncService(client), srv.Close
}

func TestAddJournalEntryToUserAppends(t *testing.T) {
	fake := &fakeUserService{users: map[string]*models.UserRecord{
		"u1": {ID: "u1", Name: "Ada", JournalEntries: []string{"e1"}},
	}}
	syncer, done := newUserSyncFixture(t, fake)
	defer done()

	if err := syncer.AddJournalEntryToUser(context.Background(), "u1", "e2"); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	got := fake.users["u1"].JournalEntries
	if len(got) != 2 || got[1] != "e2" {
		t.Fatalf("expected [e1 e2], got %v", got)
	}
}

func TestAddSnippetToUserHandlesMissingArray(t *testing.T) {
	// A user record without a snippets array is treated as empty
	fake := &fakeUserService{users: map[string]*models.UserRecord{
		"u1": {ID: "u1", Name: "Ada"},
	}}
	syncer, done := newUserSyncFixture(t, fake)
	defer done()

	if err := syncer.AddSnippetToUser(context.Background(), "u1", "s1"); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	got := fake.users["u1"].Snippets
	if len(got) != 1 || got[0] != "s1" {
		t.Fatalf("expected [s1], got %v", got)
	}
}

func TestUserSyncMissingUserIsNotFound(t *testing.T) {
	fake := &fakeUserService{users: map[string]*models.UserRecord{}}
	syncer, done := newUserSyncFixture(t, fake)
	defer done()

	err := syncer.AddJournalEntryToUser(context.Background(), "ghost", "e1")
	if !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUserSyncServerErrorIsUpstream(t *testing.T) {
	fake := &fakeUserService{users: map[string]*models.UserRecord{}, fail: true}
	syncer, done := newUserSyncFixture(t, fake)
	defer done()

	err := syncer.AddSnippetToUser(context.Background(), "u1", "s1")
	var upstream *apperrors.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
