package m_outbox

import (
	"cloud.google.com/go/spanner"
)

// Model provides a facade for type-safe operations on the outbox_events table.
type Model struct{}

// NewModel creates a new Model instance.
func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a Spanner mutation for inserting an outbox record.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.Insert(
		TableName,
		[]string{
			EventID,
			EventType,
			RoutingKey,
			AggregateID,
			Payload,
			Status,
			RetryCount,
			MaxRetries,
			LastError,
			CreatedAt,
			PublishedAt,
		},
		[]interface{}{
			data.EventID,
			data.EventType,
			data.RoutingKey,
			data.AggregateID,
			data.Payload,
			data.Status,
			data.RetryCount,
			data.MaxRetries,
			data.LastError,
			spanner.CommitTimestamp,
			data.PublishedAt,
		},
	)
}

// UpdateMut creates a Spanner mutation for updating an outbox record.
func (m *Model) UpdateMut(eventID string, updates map[string]interface{}) *spanner.Mutation {
	if len(updates) == 0 {
		return nil
	}

	columns := make([]string, 0, len(updates)+1)
	values := make([]interface{}, 0, len(updates)+1)

	columns = append(columns, EventID)
	values = append(values, eventID)

	for col, val := range updates {
		columns = append(columns, col)
		values = append(values, val)
	}

	return spanner.Update(TableName, columns, values)
}
