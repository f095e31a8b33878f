package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/light-bringer/donation-service/internal/app/donation/contracts"
	"github.com/light-bringer/donation-service/tests/testutil"
)

func newTestServer(t *testing.T, store contracts.OutboxStore) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	NewOutboxHandler(store, zap.NewNop()).Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func seedRecord(store *testutil.FakeOutboxStore, id, status string) {
	store.Add(&contracts.OutboxEvent{
		EventID:     id,
		EventType:   "donation.created",
		RoutingKey:  "donation.created",
		AggregateID: "don-1",
		Payload:     `{}`,
		Status:      status,
		MaxRetries:  contracts.DefaultMaxRetries,
		CreatedAt:   time.Now().UTC(),
	})
}

func TestOutboxStatsEndpoint(t *testing.T) {
	store := testutil.NewFakeOutboxStore()
	seedRecord(store, "evt-1", contracts.OutboxStatusPending)
	seedRecord(store, "evt-2", contracts.OutboxStatusPublished)
	seedRecord(store, "evt-3", contracts.OutboxStatusPublished)
	seedRecord(store, "evt-4", contracts.OutboxStatusFailed)

	server := newTestServer(t, store)

	resp, err := http.Get(server.URL + "/api/v1/outbox/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var counts contracts.OutboxCounts
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&counts))
	assert.Equal(t, contracts.OutboxCounts{Pending: 1, Published: 2, Failed: 1}, counts)
}

func TestOutboxStatsRejectsNonGet(t *testing.T) {
	server := newTestServer(t, testutil.NewFakeOutboxStore())

	resp, err := http.Post(server.URL+"/api/v1/outbox/stats", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestOutboxRequeueEndpoint(t *testing.T) {
	store := testutil.NewFakeOutboxStore()
	seedRecord(store, "evt-1", contracts.OutboxStatusFailed)
	seedRecord(store, "evt-2", contracts.OutboxStatusFailed)
	seedRecord(store, "evt-3", contracts.OutboxStatusPublished)

	server := newTestServer(t, store)

	resp, err := http.Post(server.URL+"/api/v1/outbox/requeue", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]int64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int64(2), body["requeued"])

	counts, err := store.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, contracts.OutboxCounts{Pending: 2, Published: 1}, counts)
}

func TestOutboxRequeueRejectsNonPost(t *testing.T) {
	server := newTestServer(t, testutil.NewFakeOutboxStore())

	resp, err := http.Get(server.URL + "/api/v1/outbox/requeue")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
