package zoom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TokenSource supplies a current OAuth access token. Token exchange and
// refresh happen outside this package.
type TokenSource func(ctx context.Context) (string, error)

// Client is a thin wrapper over the Zoom REST API, covering only the
// scheduling call this app needs.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		tokens:     tokens,
	}
}

type createMeetingRequest struct {
	Topic     string `json:"topic"`
	Type      int    `json:"type"`
	StartTime string `json:"start_time"`
	Duration  int    `json:"duration"`
}

// ScheduledMeeting is the slice of Zoom's meeting object we consume.
type ScheduledMeeting struct {
	ID      int64  `json:"id"`
	Topic   string `json:"topic"`
	JoinURL string `json:"join_url"`
}

// CreateMeeting schedules a meeting on the authenticated user's account.
func (c *Client) CreateMeeting(ctx context.Context, topic string, startTime time.Time, durationMin int) (*ScheduledMeeting, error) {
	token, err := c.tokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}

	body, err := json.Marshal(createMeetingRequest{
		Topic:     topic,
		Type:      2, // scheduled meeting
		StartTime: startTime.UTC().Format("2006-01-02T15:04:05Z"),
		Duration:  durationMin,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/me/meetings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("zoom request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("zoom returned %d: %s", resp.StatusCode, detail)
	}

	meeting := &ScheduledMeeting{}
	if err := json.NewDecoder(resp.Body).Decode(meeting); err != nil {
		return nil, fmt.Errorf("failed to decode zoom response: %w", err)
	}

	return meeting, nil
}
