package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"daybook/internal/models"
	"daybook/internal/services"
	"daybook/internal/store/memory"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	st := memory.NewStore()
	snippetService := services.NewSnippetService(st, st, nil, time.UTC)
	journalService := services.NewJournalService(st, st, nil, time.UTC)
	statsService := services.NewStatisticsService(st, st, time.UTC, time.Minute)

	snippetService.SetStatisticsService(statsService)
	journalService.SetStatisticsService(statsService)

	snippetHandler := NewSnippetHandler(snippetService)
	journalHandler := NewJournalHandler(journalService, statsService)

	app := fiber.New()
	api := app.Group("/api")

	snippets := api.Group("/snippets")
	snippets.Post("/", snippetHandler.CreateSnippet)
	snippets.Get("/", snippetHandler.GetSnippets)
	snippets.Get("/:userId", snippetHandler.GetUserSnippets)
	snippets.Put("/:id", snippetHandler.UpdateSnippet)
	snippets.Delete("/:id", snippetHandler.DeleteSnippet)

	journals := api.Group("/journalEntries")
	journals.Post("/", journalHandler.CreateJournalEntry)
	journals.Get("/:userId", journalHandler.GetUserJournals)
	journals.Get("/:userId/statistics", journalHandler.GetUserStatistics)
	journals.Put("/:id", journalHandler.UpdateJournalEntry)
	journals.Delete("/:id", journalHandler.DeleteJournalEntry)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	resp.Body.Close()
	return resp, payload
}

func createSnippet(t *testing.T, app *fiber.App, userID, content, timestamp string, mood *float64) models.Snippet {
	t.Helper()

	body := map[string]any{
		"userId":    userID,
		"content":   content,
		"timestamp": timestamp,
	}
	if mood != nil {
		body["mood"] = *mood
	}

	resp, payload := doJSON(t, app, http.MethodPost, "/api/snippets/", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, payload)
	}

	var snippet models.Snippet
	if err := json.Unmarshal(payload, &snippet); err != nil {
		t.Fatalf("decode snippet: %v", err)
	}
	return snippet
}

func TestCreateSnippetEndpoint(t *testing.T) {
	app := newTestApp(t)

	mood := 4.0
	snippet := createSnippet(t, app, "u1", "morning pages", "2024-03-01T08:30:00Z", &mood)
	if snippet.ID.IsZero() || snippet.JournalEntryID.IsZero() {
		t.Fatalf("snippet missing ids: %+v", snippet)
	}
}

func TestCreateSnippetMissingUserIs400(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/snippets/", map[string]any{"content": "no owner"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDeleteLastSnippetIs400(t *testing.T) {
	app := newTestApp(t)

	snippet := createSnippet(t, app, "u1", "only one", "2024-03-01T08:30:00Z", nil)

	resp, payload := doJSON(t, app, http.MethodDelete, "/api/snippets/"+snippet.ID.Hex(), nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for last snippet, got %d: %s", resp.StatusCode, payload)
	}
}

func TestDeleteSnippetIs204(t *testing.T) {
	app := newTestApp(t)

	first := createSnippet(t, app, "u1", "a", "2024-03-01T08:30:00Z", nil)
	createSnippet(t, app, "u1", "b", "2024-03-01T09:30:00Z", nil)

	resp, _ := doJSON(t, app, http.MethodDelete, "/api/snippets/"+first.ID.Hex(), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

func TestGetUserSnippetsUnknownUserIs404(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/snippets/nobody", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetUserSnippetsBySnippetID(t *testing.T) {
	app := newTestApp(t)

	snippet := createSnippet(t, app, "u1", "target", "2024-03-01T08:30:00Z", nil)

	resp, payload := doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/snippets/u1?snippetId=%s", snippet.ID.Hex()), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, payload)
	}

	var got models.Snippet
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("decode snippet: %v", err)
	}
	if got.Content != "target" {
		t.Fatalf("unexpected snippet: %+v", got)
	}
}

func TestCreateJournalEntryEnvelope(t *testing.T) {
	app := newTestApp(t)

	resp, payload := doJSON(t, app, http.MethodPost, "/api/journalEntries/", map[string]any{
		"userId": "u1",
		"date":   "2024-03-01T00:00:00Z",
		"title":  "March first",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, payload)
	}

	var envelope struct {
		Message string              `json:"message"`
		Data    models.JournalEntry `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Message == "" || envelope.Data.Title != "March first" {
		t.Fatalf("unexpected envelope: %s", payload)
	}
}

func TestCreateJournalEntryDuplicateDayIs409(t *testing.T) {
	app := newTestApp(t)

	body := map[string]any{"userId": "u1", "date": "2024-03-01T00:00:00Z"}
	if resp, _ := doJSON(t, app, http.MethodPost, "/api/journalEntries/", body); resp.StatusCode != http.StatusCreated {
		t.Fatalf("first create failed: %d", resp.StatusCode)
	}

	resp, _ := doJSON(t, app, http.MethodPost, "/api/journalEntries/", body)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestGetUserJournalsWithISODate(t *testing.T) {
	app := newTestApp(t)

	createSnippet(t, app, "u1", "a", "2024-03-01T08:30:00Z", nil)
	createSnippet(t, app, "u1", "b", "2024-03-02T08:30:00Z", nil)

	// A full ISO timestamp in ?date= is truncated to its calendar date
	resp, payload := doJSON(t, app, http.MethodGet,
		"/api/journalEntries/u1?date=2024-03-02T23:59:59Z", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, payload)
	}

	var entries []models.JournalEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry for the day, got %d", len(entries))
	}
}

func TestStatisticsEndpoint(t *testing.T) {
	app := newTestApp(t)

	mood := 3.0
	createSnippet(t, app, "u1", "entry", "2024-03-01T08:30:00Z", &mood)

	resp, payload := doJSON(t, app, http.MethodGet, "/api/journalEntries/u1/statistics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, payload)
	}

	var stats models.Statistics
	if err := json.Unmarshal(payload, &stats); err != nil {
		t.Fatalf("decode statistics: %v", err)
	}
	if stats.TotalJournals != 1 || stats.AvgMood != 3 {
		t.Fatalf("unexpected statistics: %+v", stats)
	}
}

func TestStatisticsUnknownUserIs404(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/journalEntries/nobody/statistics", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestInvalidObjectIDIs400(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodDelete, "/api/snippets/not-an-id", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

type stubSummarizer struct {
	result *models.SummaryResult
	err    error
}

func (s *stubSummarizer) GenerateSummary(_ context.Context, _ []string) (*models.SummaryResult, error) {
	return s.result, s.err
}

func newSummaryApp(t *testing.T, summarizer services.Summarizer) (*fiber.App, *memory.Store) {
	t.Helper()

	st := memory.NewStore()
	handler := NewSummaryHandler(services.NewSummaryService(st, st, summarizer))

	app := fiber.New()
	app.Get("/api/summary/:journalId", handler.GenerateSummary)
	return app, st
}

func seedEntryWithSnippet(t *testing.T, st *memory.Store) *models.JournalEntry {
	t.Helper()
	ctx := context.Background()

	entry := &models.JournalEntry{UserID: "u1", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	if err := st.InsertEntry(ctx, entry); err != nil {
		t.Fatalf("seed entry failed: %v", err)
	}
	snippet := &models.Snippet{UserID: "u1", Content: "walked at dawn", JournalEntryID: entry.ID}
	if err := st.InsertSnippet(ctx, snippet); err != nil {
		t.Fatalf("seed snippet failed: %v", err)
	}
	if _, err := st.ApplySnippetAdded(ctx, entry.ID, snippet.ID, nil, time.Now()); err != nil {
		t.Fatalf("seed apply failed: %v", err)
	}
	return entry
}

func TestGenerateSummaryResponseShape(t *testing.T) {
	app, st := newSummaryApp(t, &stubSummarizer{result: &models.SummaryResult{
		Summary:  "A good day.",
		Analysis: "Positive overall.",
		Insights: &models.SummaryInsights{
			Mood:        "upbeat",
			Suggestion:  "rest",
			Achievement: "ran 5k",
			Wellness:    "hydrate",
		},
	}})
	entry := seedEntryWithSnippet(t, st)

	resp, payload := doJSON(t, app, http.MethodGet, "/api/summary/"+entry.ID.Hex(), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, payload)
	}

	var body struct {
		Summary  string            `json:"summary"`
		Analysis string            `json:"analysis"`
		Insights map[string]string `json:"insights"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("decode summary response: %v", err)
	}
	if body.Summary != "A good day." || body.Analysis != "Positive overall." {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Insights["mood"] != "upbeat" || body.Insights["wellness"] != "hydrate" {
		t.Fatalf("unexpected insights: %+v", body.Insights)
	}
}

func TestGenerateSummaryDegradedShape(t *testing.T) {
	app, st := newSummaryApp(t, &stubSummarizer{err: errors.New("genai down")})
	entry := seedEntryWithSnippet(t, st)

	resp, payload := doJSON(t, app, http.MethodGet, "/api/summary/"+entry.ID.Hex(), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, payload)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("decode summary response: %v", err)
	}
	var summary, analysis string
	if err := json.Unmarshal(raw["summary"], &summary); err != nil || summary != "No summary available" {
		t.Fatalf("unexpected summary: %s", raw["summary"])
	}
	if err := json.Unmarshal(raw["analysis"], &analysis); err != nil || analysis != "No analysis available" {
		t.Fatalf("unexpected analysis: %s", raw["analysis"])
	}

	// insights is present as an empty object, not omitted
	insightsRaw, ok := raw["insights"]
	if !ok {
		t.Fatal("insights key missing from degraded response")
	}
	var insights map[string]string
	if err := json.Unmarshal(insightsRaw, &insights); err != nil || len(insights) != 0 {
		t.Fatalf("expected empty insights object, got %s", insightsRaw)
	}
}
