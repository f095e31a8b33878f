package m_outbox

import (
	"time"

	"cloud.google.com/go/spanner"
)

// Data represents the database model for the outbox_events table.
type Data struct {
	EventID     string
	EventType   string
	RoutingKey  string
	AggregateID string
	Payload     spanner.NullJSON // JSON column
	Status      string
	RetryCount  int64
	MaxRetries  int64
	LastError   spanner.NullString
	CreatedAt   time.Time
	PublishedAt spanner.NullTime
}
