package contracts

import "context"

// EventPublisher is the broker client the outbox publisher drains into.
// Publish must not return nil before the broker has acknowledged the
// message; the publisher flips records to published on a nil return.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
}
