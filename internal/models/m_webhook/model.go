package m_webhook

import (
	"cloud.google.com/go/spanner"
)

// Model provides a facade for type-safe operations on the webhook_logs table.
type Model struct{}

// NewModel creates a new Model instance.
func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a Spanner mutation for inserting a webhook log.
// Insert (not InsertOrUpdate): the AlreadyExists error on a duplicate event
// id is the dedup mechanism.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.Insert(
		TableName,
		[]string{
			EventID,
			Provider,
			EventType,
			Signature,
			Payload,
			Status,
			ProcessedAt,
		},
		[]interface{}{
			data.EventID,
			data.Provider,
			data.EventType,
			data.Signature,
			data.Payload,
			data.Status,
			data.ProcessedAt,
		},
	)
}
