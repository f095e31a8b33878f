package m_webhook

// Field name constants for the webhook_logs table.
const (
	TableName = "webhook_logs"

	EventID     = "event_id"
	Provider    = "provider"
	EventType   = "event_type"
	Signature   = "signature"
	Payload     = "payload"
	Status      = "status"
	ProcessedAt = "processed_at"
)

// Log status constants
const (
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)
