package contracts

import (
	"context"
	"time"
)

// Outbox record statuses.
const (
	OutboxStatusPending   = "pending"
	OutboxStatusPublished = "published"
	OutboxStatusFailed    = "failed"
)

// DefaultMaxRetries bounds publish attempts per record before the record is
// parked as failed for operator remediation.
const DefaultMaxRetries = 5

// OutboxEvent is a pending domain event awaiting relay to the broker. The
// payload is a serialized snapshot taken at commit time, not a live
// reference.
type OutboxEvent struct {
	EventID     string
	EventType   string
	RoutingKey  string
	AggregateID string
	Payload     string // JSON
	Status      string
	RetryCount  int64
	MaxRetries  int64
	LastError   string
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// OutboxCounts are the live per-status record counts.
type OutboxCounts struct {
	Pending   int64 `json:"pending"`
	Published int64 `json:"published"`
	Failed    int64 `json:"failed"`
}

// OutboxStore is the publisher-facing view of the outbox table.
type OutboxStore interface {
	// FetchPending returns up to limit pending records, oldest first.
	FetchPending(ctx context.Context, limit int64) ([]*OutboxEvent, error)

	// GetStatus re-reads the current status of a single record.
	GetStatus(ctx context.Context, eventID string) (string, error)

	// MarkPublished flips a record to published and stamps publishedAt.
	// Called only after the broker acknowledged the publish.
	MarkPublished(ctx context.Context, eventID string, publishedAt time.Time) error

	// MarkRetry keeps the record pending with an incremented retry count
	// and the latest error text.
	MarkRetry(ctx context.Context, eventID string, retryCount int64, lastError string) error

	// MarkFailed parks the record as failed after retries are exhausted.
	MarkFailed(ctx context.Context, eventID string, retryCount int64, lastError string) error

	// RequeueFailed bulk-resets failed records to pending with the retry
	// count cleared. Returns the number of records reset.
	RequeueFailed(ctx context.Context) (int64, error)

	// Counts returns the live per-status record counts.
	Counts(ctx context.Context) (OutboxCounts, error)
}
