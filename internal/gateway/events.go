package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Event is an audit event emitted to the remote event log.
type Event struct {
	EventType   string    `json:"eventType"`
	UserID      string    `json:"userId"`
	Tenant      string    `json:"tenant"`
	Timestamp   time.Time `json:"timestamp"`
	IP          string    `json:"ip,omitempty"`
	BrowserInfo string    `json:"browserInfo,omitempty"`
}

const eventSendTimeout = 5 * time.Second

// PublishEvent emits an audit event without blocking the caller. Failures are
// logged locally and never propagate; the send runs on a detached context so
// the emission survives the originating request.
func (c *Client) PublishEvent(tc TenantContext, ev Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventSendTimeout)
		defer cancel()

		if err := c.SendEvent(ctx, tc, ev); err != nil {
			c.logger.Error("failed to emit audit event",
				slog.String("event_type", ev.EventType),
				slog.String("user_id", ev.UserID),
				slog.Any("error", err))
		}
	}()
}

// SendEvent posts a single audit event to the event log.
func (c *Client) SendEvent(ctx context.Context, tc TenantContext, ev Event) error {
	if ev.Tenant == "" {
		ev.Tenant = tc.Tenant
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	req, err := c.newRequest(ctx, tc, http.MethodPost, "/events", ev)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: event post failed: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("gateway: event post returned status %d", resp.StatusCode)
	}

	return nil
}
