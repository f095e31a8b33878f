package repo

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/donation-service/internal/app/donation/contracts"
	"github.com/light-bringer/donation-service/internal/app/donation/domain"
	"github.com/light-bringer/donation-service/internal/models/m_outbox"
	"github.com/light-bringer/donation-service/internal/pkg/query"
)

// OutboxRepo implements outbox persistence for Spanner. It serves two
// sides: mutation building for the orchestrator (events ride the donation
// commit) and the OutboxStore interface for the publisher.
type OutboxRepo struct {
	client *spanner.Client
	model  *m_outbox.Model
}

// NewOutboxRepo creates a new OutboxRepo.
func NewOutboxRepo(client *spanner.Client) *OutboxRepo {
	return &OutboxRepo{
		client: client,
		model:  m_outbox.NewModel(),
	}
}

// EnrichEvent converts a domain event to an outbox record with metadata.
func (r *OutboxRepo) EnrichEvent(event domain.DomainEvent, payload string) *contracts.OutboxEvent {
	return &contracts.OutboxEvent{
		EventID:     uuid.New().String(),
		EventType:   event.EventType(),
		RoutingKey:  event.RoutingKey(),
		AggregateID: event.AggregateID(),
		Payload:     payload,
		Status:      contracts.OutboxStatusPending,
		MaxRetries:  contracts.DefaultMaxRetries,
	}
}

// InsertMut creates a mutation for inserting an outbox record.
func (r *OutboxRepo) InsertMut(event *contracts.OutboxEvent) *spanner.Mutation {
	payload := spanner.NullJSON{Value: json.RawMessage(event.Payload), Valid: event.Payload != ""}

	data := &m_outbox.Data{
		EventID:     event.EventID,
		EventType:   event.EventType,
		RoutingKey:  event.RoutingKey,
		AggregateID: event.AggregateID,
		Payload:     payload,
		Status:      event.Status,
		RetryCount:  0,
		MaxRetries:  event.MaxRetries,
	}

	return r.model.InsertMut(data)
}

// FetchPending returns up to limit pending records, oldest first.
func (r *OutboxRepo) FetchPending(ctx context.Context, limit int64) ([]*contracts.OutboxEvent, error) {
	stmt := query.From(m_outbox.TableName).
		Select(
			m_outbox.EventID,
			m_outbox.EventType,
			m_outbox.RoutingKey,
			m_outbox.AggregateID,
			m_outbox.Payload,
			m_outbox.Status,
			m_outbox.RetryCount,
			m_outbox.MaxRetries,
			m_outbox.LastError,
			m_outbox.CreatedAt,
			m_outbox.PublishedAt,
		).
		Where(query.Eq(m_outbox.Status, m_outbox.StatusPending)).
		OrderBy(m_outbox.CreatedAt, query.Asc).
		Limit(limit).
		Build()

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	events := make([]*contracts.OutboxEvent, 0, limit)
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query pending outbox records: %w", err)
		}

		event, err := scanOutboxRow(row)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, nil
}

// GetStatus re-reads the current status of a single record.
func (r *OutboxRepo) GetStatus(ctx context.Context, eventID string) (string, error) {
	row, err := r.client.Single().ReadRow(ctx, m_outbox.TableName, spanner.Key{eventID}, []string{m_outbox.Status})
	if err != nil {
		return "", fmt.Errorf("failed to read outbox record %s: %w", eventID, err)
	}

	var status string
	if err := row.Column(0, &status); err != nil {
		return "", fmt.Errorf("failed to parse outbox status: %w", err)
	}
	return status, nil
}

// MarkPublished flips a record to published after a broker acknowledgment.
func (r *OutboxRepo) MarkPublished(ctx context.Context, eventID string, publishedAt time.Time) error {
	return r.applyUpdate(ctx, eventID, map[string]interface{}{
		m_outbox.Status:      m_outbox.StatusPublished,
		m_outbox.PublishedAt: spanner.NullTime{Time: publishedAt, Valid: true},
	})
}

// MarkRetry keeps the record pending with an incremented retry count.
func (r *OutboxRepo) MarkRetry(ctx context.Context, eventID string, retryCount int64, lastError string) error {
	return r.applyUpdate(ctx, eventID, map[string]interface{}{
		m_outbox.RetryCount: retryCount,
		m_outbox.LastError:  spanner.NullString{StringVal: lastError, Valid: lastError != ""},
	})
}

// MarkFailed parks the record as failed after retries are exhausted.
func (r *OutboxRepo) MarkFailed(ctx context.Context, eventID string, retryCount int64, lastError string) error {
	return r.applyUpdate(ctx, eventID, map[string]interface{}{
		m_outbox.Status:     m_outbox.StatusFailed,
		m_outbox.RetryCount: retryCount,
		m_outbox.LastError:  spanner.NullString{StringVal: lastError, Valid: lastError != ""},
	})
}

// RequeueFailed bulk-resets failed records to pending for another round of
// publishing. Operator remediation; failed records are never dropped.
func (r *OutboxRepo) RequeueFailed(ctx context.Context) (int64, error) {
	var reset int64
	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		stmt := spanner.Statement{
			SQL: `UPDATE outbox_events
			      SET status = @pending, retry_count = 0, last_error = NULL
			      WHERE status = @failed`,
			Params: map[string]interface{}{
				"pending": m_outbox.StatusPending,
				"failed":  m_outbox.StatusFailed,
			},
		}
		count, err := txn.Update(ctx, stmt)
		if err != nil {
			return fmt.Errorf("failed to requeue outbox records: %w", err)
		}
		reset = count
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reset, nil
}

// Counts returns the live per-status record counts.
func (r *OutboxRepo) Counts(ctx context.Context) (contracts.OutboxCounts, error) {
	stmt := spanner.Statement{
		SQL: "SELECT status, COUNT(*) FROM outbox_events GROUP BY status",
	}

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	var counts contracts.OutboxCounts
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return contracts.OutboxCounts{}, fmt.Errorf("failed to count outbox records: %w", err)
		}

		var status string
		var count int64
		if err := row.Columns(&status, &count); err != nil {
			return contracts.OutboxCounts{}, fmt.Errorf("failed to parse outbox counts: %w", err)
		}

		switch status {
		case m_outbox.StatusPending:
			counts.Pending = count
		case m_outbox.StatusPublished:
			counts.Published = count
		case m_outbox.StatusFailed:
			counts.Failed = count
		}
	}

	return counts, nil
}

func (r *OutboxRepo) applyUpdate(ctx context.Context, eventID string, updates map[string]interface{}) error {
	mut := r.model.UpdateMut(eventID, updates)
	if _, err := r.client.Apply(ctx, []*spanner.Mutation{mut}); err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return fmt.Errorf("outbox record %s not found: %w", eventID, err)
		}
		return fmt.Errorf("failed to update outbox record %s: %w", eventID, err)
	}
	return nil
}

func scanOutboxRow(row *spanner.Row) (*contracts.OutboxEvent, error) {
	var data m_outbox.Data
	if err := row.Columns(
		&data.EventID,
		&data.EventType,
		&data.RoutingKey,
		&data.AggregateID,
		&data.Payload,
		&data.Status,
		&data.RetryCount,
		&data.MaxRetries,
		&data.LastError,
		&data.CreatedAt,
		&data.PublishedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan outbox row: %w", err)
	}

	event := &contracts.OutboxEvent{
		EventID:     data.EventID,
		EventType:   data.EventType,
		RoutingKey:  data.RoutingKey,
		AggregateID: data.AggregateID,
		Status:      data.Status,
		RetryCount:  data.RetryCount,
		MaxRetries:  data.MaxRetries,
		CreatedAt:   data.CreatedAt,
	}
	if data.Payload.Valid {
		event.Payload = data.Payload.String()
	}
	if data.LastError.Valid {
		event.LastError = data.LastError.StringVal
	}
	if data.PublishedAt.Valid {
		t := data.PublishedAt.Time
		event.PublishedAt = &t
	}

	return event, nil
}
