package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"relief-disbursement-gateway/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

// Notifier publishes decision events on a Redis pub/sub channel for
// downstream review dashboards. Implements ports.Notifier.
type Notifier struct {
	client  *goredis.Client
	channel string
}

// NewNotifier creates a Redis-backed decision event notifier.
func NewNotifier(client *goredis.Client, channel string) *Notifier {
	return &Notifier{client: client, channel: channel}
}

// Publish sends the event as JSON. Callers treat failures as
// best-effort and must not fail the authorization on them.
func (n *Notifier) Publish(ctx context.Context, event ports.DecisionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode decision event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish decision event: %w", err)
	}
	return nil
}
