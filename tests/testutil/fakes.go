package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/light-bringer/donation-service/internal/app/donation/contracts"
	"github.com/light-bringer/donation-service/internal/app/donation/domain"
)

// FakeDonationRepo is an in-memory DonationRepository for unit tests. It
// enforces idempotency-key uniqueness the way the unique index does and
// mirrors recorded domain events into an attached FakeOutboxStore so tests
// can assert what would have ridden each commit.
type FakeDonationRepo struct {
	mu         sync.Mutex
	byID       map[string]*domain.Donation
	byKey      map[string]string // idempotency key → donation id
	Outbox     *FakeOutboxStore
	FailCreate error
}

// NewFakeDonationRepo creates an empty FakeDonationRepo wired to outbox.
func NewFakeDonationRepo(outbox *FakeOutboxStore) *FakeDonationRepo {
	return &FakeDonationRepo{
		byID:   make(map[string]*domain.Donation),
		byKey:  make(map[string]string),
		Outbox: outbox,
	}
}

func (r *FakeDonationRepo) Create(ctx context.Context, d *domain.Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailCreate != nil {
		return r.FailCreate
	}
	if _, taken := r.byKey[d.IdempotencyKey()]; taken {
		return contracts.ErrIdempotencyKeyConflict
	}

	r.byID[d.ID()] = d
	r.byKey[d.IdempotencyKey()] = d.ID()
	return nil
}

func (r *FakeDonationRepo) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrDonationNotFound
	}
	return d, nil
}

func (r *FakeDonationRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byKey[key]
	if !ok {
		return nil, domain.ErrDonationNotFound
	}
	return r.byID[id], nil
}

func (r *FakeDonationRepo) Transition(ctx context.Context, id string, apply func(d *domain.Donation) error) (*domain.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrDonationNotFound
	}

	if err := apply(d); err != nil {
		d.ClearEvents()
		return nil, err
	}

	for _, event := range d.DomainEvents() {
		payload, err := json.Marshal(event)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event payload: %w", err)
		}
		r.Outbox.add(&contracts.OutboxEvent{
			EventID:     uuid.New().String(),
			EventType:   event.EventType(),
			RoutingKey:  event.RoutingKey(),
			AggregateID: event.AggregateID(),
			Payload:     string(payload),
			Status:      contracts.OutboxStatusPending,
			MaxRetries:  contracts.DefaultMaxRetries,
			CreatedAt:   time.Now().UTC(),
		})
	}
	d.ClearEvents()

	return d, nil
}

// FakeOutboxStore is an in-memory OutboxStore.
type FakeOutboxStore struct {
	mu     sync.Mutex
	events []*contracts.OutboxEvent
}

// NewFakeOutboxStore creates an empty FakeOutboxStore.
func NewFakeOutboxStore() *FakeOutboxStore {
	return &FakeOutboxStore{}
}

func (s *FakeOutboxStore) add(event *contracts.OutboxEvent) {
	s.events = append(s.events, event)
}

// Add seeds a record directly, for publisher tests.
func (s *FakeOutboxStore) Add(event *contracts.OutboxEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(event)
}

// All returns every record in insertion order.
func (s *FakeOutboxStore) All() []*contracts.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*contracts.OutboxEvent, len(s.events))
	copy(out, s.events)
	return out
}

// ByRoutingKey returns records matching a routing key, in insertion order.
func (s *FakeOutboxStore) ByRoutingKey(key string) []*contracts.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*contracts.OutboxEvent
	for _, e := range s.events {
		if e.RoutingKey == key {
			out = append(out, e)
		}
	}
	return out
}

func (s *FakeOutboxStore) FetchPending(ctx context.Context, limit int64) ([]*contracts.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*contracts.OutboxEvent, 0, limit)
	for _, e := range s.events {
		if e.Status != contracts.OutboxStatusPending {
			continue
		}
		out = append(out, e)
		if int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (s *FakeOutboxStore) GetStatus(ctx context.Context, eventID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.events {
		if e.EventID == eventID {
			return e.Status, nil
		}
	}
	return "", fmt.Errorf("outbox record %s not found", eventID)
}

func (s *FakeOutboxStore) MarkPublished(ctx context.Context, eventID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.events {
		if e.EventID == eventID {
			e.Status = contracts.OutboxStatusPublished
			t := publishedAt
			e.PublishedAt = &t
			return nil
		}
	}
	return fmt.Errorf("outbox record %s not found", eventID)
}

func (s *FakeOutboxStore) MarkRetry(ctx context.Context, eventID string, retryCount int64, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.events {
		if e.EventID == eventID {
			e.RetryCount = retryCount
			e.LastError = lastError
			return nil
		}
	}
	return fmt.Errorf("outbox record %s not found", eventID)
}

func (s *FakeOutboxStore) MarkFailed(ctx context.Context, eventID string, retryCount int64, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.events {
		if e.EventID == eventID {
			e.Status = contracts.OutboxStatusFailed
			e.RetryCount = retryCount
			e.LastError = lastError
			return nil
		}
	}
	return fmt.Errorf("outbox record %s not found", eventID)
}

func (s *FakeOutboxStore) RequeueFailed(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reset int64
	for _, e := range s.events {
		if e.Status == contracts.OutboxStatusFailed {
			e.Status = contracts.OutboxStatusPending
			e.RetryCount = 0
			e.LastError = ""
			reset++
		}
	}
	return reset, nil
}

func (s *FakeOutboxStore) Counts(ctx context.Context) (contracts.OutboxCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var counts contracts.OutboxCounts
	for _, e := range s.events {
		switch e.Status {
		case contracts.OutboxStatusPending:
			counts.Pending++
		case contracts.OutboxStatusPublished:
			counts.Published++
		case contracts.OutboxStatusFailed:
			counts.Failed++
		}
	}
	return counts, nil
}

// FakeWebhookLogStore is an in-memory WebhookLogStore with first-writer-wins
// semantics on the event id.
type FakeWebhookLogStore struct {
	mu   sync.Mutex
	logs map[string]*contracts.WebhookLog
}

// NewFakeWebhookLogStore creates an empty FakeWebhookLogStore.
func NewFakeWebhookLogStore() *FakeWebhookLogStore {
	return &FakeWebhookLogStore{logs: make(map[string]*contracts.WebhookLog)}
}

func (s *FakeWebhookLogStore) Insert(ctx context.Context, log *contracts.WebhookLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.logs[log.EventID]; seen {
		return contracts.ErrDuplicateWebhookEvent
	}
	s.logs[log.EventID] = log
	return nil
}

// Len returns the number of stored log rows.
func (s *FakeWebhookLogStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

// FakePublisher is an EventPublisher that records publishes and can be told
// to fail the next N attempts.
type FakePublisher struct {
	mu        sync.Mutex
	published []PublishedMessage
	failNext  int
	failErr   error
}

// PublishedMessage is one acknowledged publish.
type PublishedMessage struct {
	RoutingKey string
	Payload    []byte
}

// NewFakePublisher creates a FakePublisher that acknowledges everything.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// FailNext makes the next n Publish calls return err.
func (p *FakePublisher) FailNext(n int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNext = n
	p.failErr = err
}

func (p *FakePublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failNext > 0 {
		p.failNext--
		return p.failErr
	}

	p.published = append(p.published, PublishedMessage{RoutingKey: routingKey, Payload: payload})
	return nil
}

// Published returns every acknowledged message in publish order.
func (p *FakePublisher) Published() []PublishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PublishedMessage, len(p.published))
	copy(out, p.published)
	return out
}
