// Package subscribe adds waitlist subscribers, either through the backend's
// /add-subscriber endpoint or, in development, to a local SQLite file.
package subscribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Backland-Labs/waitlist/internal/logger"
)

const (
	defaultFailureThreshold = 3
	defaultCooldown         = time.Minute
)

// Client posts subscribers to the backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *Breaker
}

// NewClient creates a client for the backend at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		breaker:    NewBreaker(defaultFailureThreshold, defaultCooldown),
	}
}

// WithBreaker replaces the client's circuit breaker
func (c *Client) WithBreaker(b *Breaker) *Client {
	c.breaker = b
	return c
}

// Subscribe adds email to the mailing list
func (c *Client) Subscribe(ctx context.Context, email string) error {
	if err := c.breaker.Allow(); err != nil {
		return err
	}
	err := c.post(ctx, email)
	c.breaker.Record(err)
	return err
}

func (c *Client) post(ctx context.Context, email string) error {
	body, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return fmt.Errorf("failed to marshal subscriber: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/add-subscriber", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to add subscriber: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("failed to add subscriber: unexpected status code: %d", resp.StatusCode)
	}

	var subscriber map[string]any
	if err := json.Unmarshal(data, &subscriber); err != nil {
		return fmt.Errorf("failed to decode subscriber response: %w", err)
	}
	logger.WithFields(map[string]interface{}{
		"email":  email,
		"status": subscriber["status"],
	}).Info("Subscriber added")
	return nil
}
