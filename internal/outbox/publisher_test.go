package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/light-bringer/donation-service/internal/app/donation/contracts"
	"github.com/light-bringer/donation-service/internal/pkg/clock"
	"github.com/light-bringer/donation-service/tests/testutil"
)

func newTestPublisher(t *testing.T, store contracts.OutboxStore, broker contracts.EventPublisher, clk clock.Clock) *Publisher {
	t.Helper()
	return NewPublisher(store, broker, clk, zap.NewNop(), Config{
		Interval:   10 * time.Millisecond,
		BatchSize:  50,
		Registerer: prometheus.NewRegistry(),
	})
}

func pendingEvent(id, routingKey string, createdAt time.Time) *contracts.OutboxEvent {
	return &contracts.OutboxEvent{
		EventID:     id,
		EventType:   routingKey,
		RoutingKey:  routingKey,
		AggregateID: "don-1",
		Payload:     `{"donation_id":"don-1"}`,
		Status:      contracts.OutboxStatusPending,
		MaxRetries:  contracts.DefaultMaxRetries,
		CreatedAt:   createdAt,
	}
}

func TestDrainOncePublishesPending(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(now)
	store := testutil.NewFakeOutboxStore()
	broker := testutil.NewFakePublisher()
	publisher := newTestPublisher(t, store, broker, clk)

	store.Add(pendingEvent("evt-1", "donation.created", now))
	store.Add(pendingEvent("evt-2", "donation.completed", now.Add(time.Second)))

	published, failed := publisher.DrainOnce(context.Background())
	assert.Equal(t, 2, published)
	assert.Equal(t, 0, failed)

	// Broker saw both messages in insertion order.
	messages := broker.Published()
	require.Len(t, messages, 2)
	assert.Equal(t, "donation.created", messages[0].RoutingKey)
	assert.Equal(t, "donation.completed", messages[1].RoutingKey)

	// Records flipped to published with the clock's stamp.
	for _, e := range store.All() {
		assert.Equal(t, contracts.OutboxStatusPublished, e.Status)
		require.NotNil(t, e.PublishedAt)
		assert.Equal(t, now, *e.PublishedAt)
	}
}

func TestDrainOnceRetriesOnBrokerError(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(now)
	store := testutil.NewFakeOutboxStore()
	broker := testutil.NewFakePublisher()
	publisher := newTestPublisher(t, store, broker, clk)

	store.Add(pendingEvent("evt-1", "donation.created", now))
	broker.FailNext(1, errors.New("broker unavailable"))

	published, failed := publisher.DrainOnce(context.Background())
	assert.Equal(t, 0, published)
	assert.Equal(t, 0, failed)

	// Still pending, retry count incremented, error recorded.
	e := store.All()[0]
	assert.Equal(t, contracts.OutboxStatusPending, e.Status)
	assert.Equal(t, int64(1), e.RetryCount)
	assert.Equal(t, "broker unavailable", e.LastError)
	assert.Nil(t, e.PublishedAt)

	// The next drain succeeds and publishes the record.
	published, failed = publisher.DrainOnce(context.Background())
	assert.Equal(t, 1, published)
	assert.Equal(t, 0, failed)
	assert.Equal(t, contracts.OutboxStatusPublished, store.All()[0].Status)
}

func TestDrainOnceParksRecordAfterRetriesExhausted(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(now)
	store := testutil.NewFakeOutboxStore()
	broker := testutil.NewFakePublisher()
	publisher := newTestPublisher(t, store, broker, clk)

	store.Add(pendingEvent("evt-1", "donation.created", now))
	broker.FailNext(int(contracts.DefaultMaxRetries), errors.New("broker unavailable"))

	var totalFailed int
	for n := 0; n < int(contracts.DefaultMaxRetries); n++ {
		_, failed := publisher.DrainOnce(context.Background())
		totalFailed += failed
	}

	assert.Equal(t, 1, totalFailed)

	e := store.All()[0]
	assert.Equal(t, contracts.OutboxStatusFailed, e.Status)
	assert.Equal(t, contracts.DefaultMaxRetries, int(e.RetryCount))
	assert.Equal(t, "broker unavailable", e.LastError)

	// Parked records are never picked up again.
	published, failed := publisher.DrainOnce(context.Background())
	assert.Equal(t, 0, published)
	assert.Equal(t, 0, failed)
	assert.Empty(t, broker.Published())
}

func TestDrainOnceSkipsRecordsFlippedSinceFetch(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(now)
	store := testutil.NewFakeOutboxStore()
	broker := testutil.NewFakePublisher()
	publisher := newTestPublisher(t, store, broker, clk)

	store.Add(pendingEvent("evt-1", "donation.created", now))
	require.NoError(t, store.MarkPublished(context.Background(), "evt-1", now))

	published, failed := publisher.DrainOnce(context.Background())
	assert.Equal(t, 0, published)
	assert.Equal(t, 0, failed)
	assert.Empty(t, broker.Published())
}

func TestRequeuedRecordsGetFullRetryBudget(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(now)
	store := testutil.NewFakeOutboxStore()
	broker := testutil.NewFakePublisher()
	publisher := newTestPublisher(t, store, broker, clk)

	store.Add(pendingEvent("evt-1", "donation.created", now))
	broker.FailNext(int(contracts.DefaultMaxRetries), errors.New("broker unavailable"))
	for n := 0; n < int(contracts.DefaultMaxRetries); n++ {
		publisher.DrainOnce(context.Background())
	}
	require.Equal(t, contracts.OutboxStatusFailed, store.All()[0].Status)

	reset, err := store.RequeueFailed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), reset)
	assert.Equal(t, int64(0), store.All()[0].RetryCount)

	published, failed := publisher.DrainOnce(context.Background())
	assert.Equal(t, 1, published)
	assert.Equal(t, 0, failed)
	assert.Equal(t, contracts.OutboxStatusPublished, store.All()[0].Status)
}

func TestDrainOnceHonorsBatchSize(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(now)
	store := testutil.NewFakeOutboxStore()
	broker := testutil.NewFakePublisher()
	publisher := NewPublisher(store, broker, clk, zap.NewNop(), Config{
		Interval:   10 * time.Millisecond,
		BatchSize:  2,
		Registerer: prometheus.NewRegistry(),
	})

	for _, id := range []string{"evt-1", "evt-2", "evt-3"} {
		store.Add(pendingEvent(id, "donation.created", now))
	}

	published, _ := publisher.DrainOnce(context.Background())
	assert.Equal(t, 2, published)

	counts, err := publisher.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Pending)
	assert.Equal(t, int64(2), counts.Published)
}

func TestRunStopsOnCancel(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(now)
	store := testutil.NewFakeOutboxStore()
	broker := testutil.NewFakePublisher()
	publisher := newTestPublisher(t, store, broker, clk)

	store.Add(pendingEvent("evt-1", "donation.created", now))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		publisher.Run(ctx)
		close(done)
	}()

	// Let at least one tick fire, then stop the loop.
	require.Eventually(t, func() bool {
		return len(broker.Published()) >= 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop after cancel")
	}
}
