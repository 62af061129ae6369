package redis

import (
	"context"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"
)

// EventBus implements ports.EventBus over Redis pub/sub. Each subscriber
// holds its own subscription, so every published rowId reaches every waiter
// current on the scope — broadcast, not a shared work queue.
type EventBus struct {
	client *goredis.Client
	prefix string
}

// NewEventBus creates a new Redis-backed event bus.
func NewEventBus(client *goredis.Client) *EventBus {
	return &EventBus{
		client: client,
		prefix: "ledger-events:",
	}
}

// Publish emits a committed rowId on the given scope.
func (b *EventBus) Publish(ctx context.Context, scope string, rowID int64) error {
	err := b.client.Publish(ctx, b.prefix+scope, strconv.FormatInt(rowID, 10)).Err()
	if err != nil {
		return fmt.Errorf("publish ledger event: %w", err)
	}
	return nil
}

// Subscribe registers a waiter on the scope. The subscription is confirmed
// before returning, so an event committed after Subscribe cannot be missed.
// The cancel func must always be called; it closes the subscription and,
// eventually, the returned channel.
func (b *EventBus) Subscribe(ctx context.Context, scope string) (<-chan int64, func(), error) {
	sub := b.client.Subscribe(ctx, b.prefix+scope)

	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe to %s: %w", scope, err)
	}

	out := make(chan int64, 16)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			rowID, err := strconv.ParseInt(msg.Payload, 10, 64)
			if err != nil {
				continue
			}
			select {
			case out <- rowID:
			default:
				// Waiter is behind; it re-queries on wake anyway.
			}
		}
	}()

	cancel := func() { _ = sub.Close() }
	return out, cancel, nil
}
