package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"daybook/internal/apperrors"
	"daybook/internal/models"
)

// UserDirectory is the boundary to the externally-owned user service.
type UserDirectory interface {
	FetchUser(ctx context.Context, userID string) (*models.UserRecord, error)
	ReplaceUser(ctx context.Context, userID string, record *models.UserRecord) (*models.UserRecord, error)
}

// UserClient talks to the user microservice over HTTP. An outbound rate
// limiter keeps bursts of snippet creation from hammering the directory.
type UserClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewUserClient creates a user directory client.
// syncRate is the allowed requests/second against the user service.
func NewUserClient(baseURL string, syncRate float64) *UserClient {
	transport := &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	if syncRate <= 0 {
		syncRate = 10
	}

	return &UserClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(syncRate), int(syncRate*2)),
	}
}

// FetchUser retrieves the user record from the directory.
func (c *UserClient) FetchUser(ctx context.Context, userID string) (*models.UserRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/users/%s", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.UpstreamError{Service: "user service", Err: err}
	}
	defer resp.Body.Close()

	if err := classifyStatus("user service", "user", userID, resp.StatusCode); err != nil {
		return nil, err
	}

	var user models.UserRecord
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, &apperrors.UpstreamError{Service: "user service", Err: fmt.Errorf("decode user: %w", err)}
	}
	return &user, nil
}

// ReplaceUser writes the full user record back to the directory.
// This is a non-atomic read-modify-write from the caller's perspective:
// concurrent appends can race last-writer-wins, which is acceptable because
// the arrays are a denormalized index, never the source of truth.
func (c *UserClient) ReplaceUser(ctx context.Context, userID string, record *models.UserRecord) (*models.UserRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}

	url := fmt.Sprintf("%s/api/users/%s", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.UpstreamError{Service: "user service", Err: err}
	}
	defer resp.Body.Close()

	if err := classifyStatus("user service", "user", userID, resp.StatusCode); err != nil {
		return nil, err
	}

	var updated models.UserRecord
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		return nil, &apperrors.UpstreamError{Service: "user service", Err: fmt.Errorf("decode user: %w", err)}
	}
	return &updated, nil
}

func classifyStatus(service, resource, id string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return &apperrors.NotFoundError{Resource: resource, ID: id}
	default:
		return &apperrors.UpstreamError{Service: service, Err: fmt.Errorf("unexpected status %d", status)}
	}
}
