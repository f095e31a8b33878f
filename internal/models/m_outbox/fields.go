package m_outbox

// Field name constants for the outbox_events table.
const (
	TableName = "outbox_events"

	EventID     = "event_id"
	EventType   = "event_type"
	RoutingKey  = "routing_key"
	AggregateID = "aggregate_id"
	Payload     = "payload"
	Status      = "status"
	RetryCount  = "retry_count"
	MaxRetries  = "max_retries"
	LastError   = "last_error"
	CreatedAt   = "created_at"
	PublishedAt = "published_at"
)

// Record status constants
const (
	StatusPending   = "pending"
	StatusPublished = "published"
	StatusFailed    = "failed"
)
