//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/donation-service/internal/app/donation/contracts"
	"github.com/light-bringer/donation-service/internal/app/donation/domain"
	"github.com/light-bringer/donation-service/internal/app/donation/repo"
	"github.com/light-bringer/donation-service/tests/testutil"
)

func TestOutboxRepository_EnrichEvent(t *testing.T) {
	repository := repo.NewOutboxRepo(nil) // No client needed for enrichment

	event := &domain.DonationCompletedEvent{
		DonationID: "don-1",
		CampaignID: "campaign-1",
		Amount:     2500,
	}

	outboxEvent := repository.EnrichEvent(event, `{"donation_id":"don-1"}`)

	assert.NotEmpty(t, outboxEvent.EventID, "event ID should be generated")
	assert.Equal(t, domain.EventDonationCompleted, outboxEvent.EventType)
	assert.Equal(t, domain.EventDonationCompleted, outboxEvent.RoutingKey)
	assert.Equal(t, "don-1", outboxEvent.AggregateID)
	assert.Equal(t, contracts.OutboxStatusPending, outboxEvent.Status)
	assert.Equal(t, int64(contracts.DefaultMaxRetries), outboxEvent.MaxRetries)
}

func TestOutboxRepository_InsertAndFetchPending(t *testing.T) {
	client, cleanup := testutil.SetupSpannerTest(t)
	defer cleanup()

	ctx := context.Background()
	repository := repo.NewOutboxRepo(client)

	events := []domain.DomainEvent{
		&domain.PaymentAuthorizedEvent{DonationID: "don-1", Amount: 2500},
		&domain.PaymentCapturedEvent{DonationID: "don-1", Amount: 2500},
		&domain.DonationCompletedEvent{DonationID: "don-1", CampaignID: "campaign-1", Amount: 2500},
	}

	mutations := make([]*spanner.Mutation, 0, len(events))
	for _, event := range events {
		outboxEvent := repository.EnrichEvent(event, `{"donation_id":"don-1"}`)
		mutations = append(mutations, repository.InsertMut(outboxEvent))
	}

	_, err := client.Apply(ctx, mutations)
	require.NoError(t, err)

	pending, err := repository.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	for _, e := range pending {
		assert.Equal(t, contracts.OutboxStatusPending, e.Status)
		assert.Equal(t, "don-1", e.AggregateID)
		assert.NotEmpty(t, e.Payload)
		assert.False(t, e.CreatedAt.IsZero())
	}
}

func TestOutboxRepository_MarkPublished(t *testing.T) {
	client, cleanup := testutil.SetupSpannerTest(t)
	defer cleanup()

	ctx := context.Background()
	repository := repo.NewOutboxRepo(client)

	event := repository.EnrichEvent(&domain.DonationCreatedEvent{DonationID: "don-1"}, `{}`)
	_, err := client.Apply(ctx, []*spanner.Mutation{repository.InsertMut(event)})
	require.NoError(t, err)

	publishedAt := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repository.MarkPublished(ctx, event.EventID, publishedAt))

	status, err := repository.GetStatus(ctx, event.EventID)
	require.NoError(t, err)
	assert.Equal(t, contracts.OutboxStatusPublished, status)

	// Published records are out of the pending set.
	pending, err := repository.FetchPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutboxRepository_RetryAndFailLifecycle(t *testing.T) {
	client, cleanup := testutil.SetupSpannerTest(t)
	defer cleanup()

	ctx := context.Background()
	repository := repo.NewOutboxRepo(client)

	event := repository.EnrichEvent(&domain.DonationCreatedEvent{DonationID: "don-1"}, `{}`)
	_, err := client.Apply(ctx, []*spanner.Mutation{repository.InsertMut(event)})
	require.NoError(t, err)

	// A retry keeps the record pending with the error recorded.
	require.NoError(t, repository.MarkRetry(ctx, event.EventID, 1, "broker unavailable"))

	pending, err := repository.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(1), pending[0].RetryCount)
	assert.Equal(t, "broker unavailable", pending[0].LastError)

	// Exhausted retries park the record.
	require.NoError(t, repository.MarkFailed(ctx, event.EventID, 5, "broker unavailable"))

	status, err := repository.GetStatus(ctx, event.EventID)
	require.NoError(t, err)
	assert.Equal(t, contracts.OutboxStatusFailed, status)

	counts, err := repository.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, contracts.OutboxCounts{Failed: 1}, counts)

	// Requeue resets the record for another full retry budget.
	reset, err := repository.RequeueFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reset)

	pending, err = repository.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(0), pending[0].RetryCount)
	assert.Empty(t, pending[0].LastError)
}

func TestOutboxRepository_FetchPendingOrdersOldestFirst(t *testing.T) {
	client, cleanup := testutil.SetupSpannerTest(t)
	defer cleanup()

	ctx := context.Background()
	repository := repo.NewOutboxRepo(client)

	// Separate commits so commit timestamps strictly increase.
	first := repository.EnrichEvent(&domain.PaymentAuthorizedEvent{DonationID: "don-1"}, `{}`)
	_, err := client.Apply(ctx, []*spanner.Mutation{repository.InsertMut(first)})
	require.NoError(t, err)

	second := repository.EnrichEvent(&domain.PaymentCapturedEvent{DonationID: "don-1"}, `{}`)
	_, err = client.Apply(ctx, []*spanner.Mutation{repository.InsertMut(second)})
	require.NoError(t, err)

	pending, err := repository.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, domain.EventPaymentAuthorized, pending[0].RoutingKey)
	assert.Equal(t, domain.EventPaymentCaptured, pending[1].RoutingKey)
}

func TestOutboxRepository_TransactionRollbackDropsEvents(t *testing.T) {
	client, cleanup := testutil.SetupSpannerTest(t)
	defer cleanup()

	ctx := context.Background()
	repository := repo.NewOutboxRepo(client)

	_, err := client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		event := repository.EnrichEvent(&domain.DonationCreatedEvent{DonationID: "don-1"}, `{}`)
		if err := txn.BufferWrite([]*spanner.Mutation{repository.InsertMut(event)}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	testutil.AssertRowCount(t, client, "outbox_events", 0)
}
