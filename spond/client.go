// Package spond provides a client for the Spond group/event API.
//
// Spond's payload schemas are inconsistent between endpoints and app
// versions, so responses are returned as raw map[string]interface{} and
// the sync engine resolves fields through alias lists.
package spond

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/ihks/teamsync/ratelimit"
)

const (
	baseURL = "https://api.spond.com/core/v1"

	// maxEventsPerQuery caps how many events a single listing call returns.
	// Spond silently truncates past 500.
	maxEventsPerQuery = 500
)

// AuthError indicates the Spond credentials were rejected. It is fatal for
// a sync run: nothing can be fetched without a session token.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("spond authentication failed with status %d: %s", e.StatusCode, e.Body)
}

// Client wraps Spond API interactions.
type Client struct {
	email       string
	password    string
	httpClient  *http.Client
	limiter     *ratelimit.RateLimiter
	accessToken string
	tokenExpiry time.Time
}

// Config holds Spond credentials.
type Config struct {
	Email    string
	Password string
}

// NewClient creates a new Spond client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.Email == "" || cfg.Password == "" {
		return nil, fmt.Errorf("missing required Spond credentials")
	}

	return &Client{
		email:      cfg.Email,
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    ratelimit.NewRateLimiter(nil),
	}, nil
}

// NewClientFromEnv builds a client from SPOND_EMAIL and SPOND_PASSWORD.
func NewClientFromEnv() (*Client, error) {
	return NewClient(&Config{
		Email:    os.Getenv("SPOND_EMAIL"),
		Password: os.Getenv("SPOND_PASSWORD"),
	})
}

// authenticate logs in and stores the session token.
func (c *Client) authenticate(ctx context.Context) error {
	slog.Debug("Spond authenticating", "email", c.email)

	payload, err := json.Marshal(map[string]string{
		"email":    c.email,
		"password": c.password,
	})
	if err != nil {
		return fmt.Errorf("encode login payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/login", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read login response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var authResp struct {
		LoginToken  string `json:"loginToken"`
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(body, &authResp); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}

	token := authResp.LoginToken
	if token == "" {
		token = authResp.AccessToken
	}
	if token == "" {
		return fmt.Errorf("login response contained no token")
	}

	c.accessToken = token
	// Spond session tokens are opaque; assume a one hour lifetime and
	// re-login early rather than decode anything.
	c.tokenExpiry = time.Now().Add(time.Hour)

	slog.Debug("Spond authentication successful")
	return nil
}

// ensureAuthenticated ensures we have a valid session token.
func (c *Client) ensureAuthenticated(ctx context.Context) error {
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-5*time.Minute)) {
		return nil
	}
	return c.authenticate(ctx)
}

// makeRequest makes an authenticated GET request and returns the raw body.
// Requests are rate limited and retried on 429 via the shared limiter.
func (c *Client) makeRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.ensureAuthenticated(ctx); err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	fullURL := baseURL + "/" + endpoint
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var body []byte
	err := c.limiter.ExecuteWithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, http.NoBody)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			// Session expired server side. Force a re-login on next call
			// and surface the error for the retry loop.
			c.accessToken = ""
			return fmt.Errorf("API error 401: %s", string(body))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return body, nil
}

// GetGroups retrieves all groups visible to the authenticated account.
func (c *Client) GetGroups(ctx context.Context) ([]map[string]interface{}, error) {
	body, err := c.makeRequest(ctx, "groups/", nil)
	if err != nil {
		return nil, err
	}

	var groups []map[string]interface{}
	if err := json.Unmarshal(body, &groups); err != nil {
		return nil, fmt.Errorf("decode groups response: %w", err)
	}

	return groups, nil
}

// GetEvents retrieves events for a group within [minStart, maxStart].
// The listing is minimal; callers fetch details per event.
func (c *Client) GetEvents(ctx context.Context, groupID string, minStart, maxStart time.Time) ([]map[string]interface{}, error) {
	params := url.Values{}
	params.Set("groupId", groupID)
	params.Set("minStartTimestamp", minStart.UTC().Format(time.RFC3339))
	params.Set("maxStartTimestamp", maxStart.UTC().Format(time.RFC3339))
	params.Set("includeScheduled", "true")
	params.Set("order", "asc")
	params.Set("max", fmt.Sprintf("%d", maxEventsPerQuery))

	body, err := c.makeRequest(ctx, "sponds/", params)
	if err != nil {
		return nil, err
	}

	var events []map[string]interface{}
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("decode events response: %w", err)
	}

	return events, nil
}

// GetEvent retrieves the full detail document for one event.
func (c *Client) GetEvent(ctx context.Context, eventID string) (map[string]interface{}, error) {
	body, err := c.makeRequest(ctx, "sponds/"+url.PathEscape(eventID), nil)
	if err != nil {
		return nil, err
	}

	var event map[string]interface{}
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode event response: %w", err)
	}

	return event, nil
}

// GetEventAttendanceXLSX downloads the attendance export workbook for an
// event. The response is raw XLSX bytes, not JSON.
func (c *Client) GetEventAttendanceXLSX(ctx context.Context, eventID string) ([]byte, error) {
	return c.makeRequest(ctx, "sponds/"+url.PathEscape(eventID)+"/export", nil)
}
