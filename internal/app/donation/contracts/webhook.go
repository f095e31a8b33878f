package contracts

import (
	"context"
	"time"
)

// Webhook log statuses.
const (
	WebhookStatusProcessed = "processed"
	WebhookStatusFailed    = "failed"
)

// WebhookLog is the dedup record for an inbound provider event. Inserting it
// is the fencing token: the first writer wins, every later insert with the
// same event id is rejected before any side effect runs.
type WebhookLog struct {
	EventID     string
	Provider    string
	EventType   string
	Signature   string
	Payload     string
	Status      string
	ProcessedAt time.Time
}

// WebhookLogStore persists webhook dedup records.
type WebhookLogStore interface {
	// Insert writes the log row. Returns ErrDuplicateWebhookEvent when the
	// event id has been seen before.
	Insert(ctx context.Context, log *WebhookLog) error
}
