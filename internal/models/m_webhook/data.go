package m_webhook

import (
	"time"

	"cloud.google.com/go/spanner"
)

// Data represents the database model for the webhook_logs table.
type Data struct {
	EventID     string
	Provider    string
	EventType   string
	Signature   spanner.NullString
	Payload     spanner.NullJSON
	Status      string
	ProcessedAt time.Time
}
