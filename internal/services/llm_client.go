package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"daybook/internal/apperrors"
	"daybook/internal/models"
)

// Summarizer is the boundary to the genai summarization service.
type Summarizer interface {
	GenerateSummary(ctx context.Context, snippetContents []string) (*models.SummaryResult, error)
}

// GenAIClient calls the genai microservice for summary and insight
// generation. The timeout is generous: LLM inference is slow.
type GenAIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGenAIClient creates a genai service client
func NewGenAIClient(baseURL string) *GenAIClient {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &GenAIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   90 * time.Second,
		},
	}
}

// GenerateSummary asks the genai service for a summary and insights over
// the given snippet contents.
func (c *GenAIClient) GenerateSummary(ctx context.Context, snippetContents []string) (*models.SummaryResult, error) {
	body, err := json.Marshal(models.SummaryRequest{SnippetContents: snippetContents})
	if err != nil {
		return nil, fmt.Errorf("failed to encode summary request: %w", err)
	}

	url := c.baseURL + "/api/genai/summary"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.UpstreamError{Service: "genai service", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperrors.UpstreamError{Service: "genai service", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var result models.SummaryResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &apperrors.UpstreamError{Service: "genai service", Err: fmt.Errorf("decode summary: %w", err)}
	}
	return &result, nil
}
