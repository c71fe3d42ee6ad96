package achievements

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"vaultmarket/config"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxAttempts = 3

// Client notifies the gamification subsystem that an order settled. It is
// used strictly fire-and-forget: delivery is retried a few times with
// backoff and then given up on.
type Client struct {
	url        string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new achievements client.
func NewClient(cfg config.AchievementsConfig, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type notification struct {
	UserID  uuid.UUID `json:"user_id"`
	Role    string    `json:"role"`
	OrderID uuid.UUID `json:"order_id"`
	Event   string    `json:"event"`
}

// NotifyOrderSettled posts an order-settled event for one party.
func (c *Client) NotifyOrderSettled(ctx context.Context, userID uuid.UUID, role string, orderID uuid.UUID) error {
	payload, err := json.Marshal(notification{
		UserID:  userID,
		Role:    role,
		OrderID: orderID,
		Event:   "order_settled",
	})
	if err != nil {
		return fmt.Errorf("marshaling notification: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		lastErr = c.post(ctx, payload)
		if lastErr == nil {
			return nil
		}
		c.log.Debug().
			Err(lastErr).
			Int("attempt", attempt).
			Str("order_id", orderID.String()).
			Msg("achievement notification attempt failed")
	}
	return fmt.Errorf("notifying achievements after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
