package outbox

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/light-bringer/donation-service/internal/app/donation/contracts"
	"github.com/light-bringer/donation-service/internal/pkg/clock"
)

const (
	defaultInterval  = 5 * time.Second
	defaultBatchSize = 50
)

// Config tunes the publisher loop.
type Config struct {
	Interval  time.Duration
	BatchSize int64

	// Registerer receives the publisher metrics. Defaults to the global
	// prometheus registerer.
	Registerer prometheus.Registerer
}

// Publisher drains pending outbox records to the broker. It is a single
// logical poller: running two pollers over the same store is unsafe without
// a claim mechanism this design deliberately omits. Records flip to
// published only after a broker acknowledgment, so a crash between the ack
// and the flip republishes the record on restart: at-least-once delivery,
// with deduplication owed by downstream consumers.
type Publisher struct {
	store     contracts.OutboxStore
	broker    contracts.EventPublisher
	clock     clock.Clock
	logger    *zap.Logger
	interval  time.Duration
	batchSize int64
	metrics   *metrics
}

// NewPublisher creates a Publisher.
func NewPublisher(
	store contracts.OutboxStore,
	broker contracts.EventPublisher,
	clk clock.Clock,
	logger *zap.Logger,
	cfg Config,
) *Publisher {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}

	return &Publisher{
		store:     store,
		broker:    broker,
		clock:     clk,
		logger:    logger,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		metrics:   newMetrics(cfg.Registerer),
	}
}

// Run drives the poll loop until ctx is canceled. Cancellation prevents the
// next tick from being scheduled; an in-flight batch runs to completion
// rather than being interrupted mid-record.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("outbox publisher started",
		zap.Duration("interval", p.interval),
		zap.Int64("batch_size", p.batchSize),
	)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox publisher stopped")
			return
		case <-ticker.C:
			p.DrainOnce(context.WithoutCancel(ctx))
		}
	}
}

// DrainOnce publishes one batch of pending records sequentially, oldest
// first, preserving relative order among causally related events. It
// returns the number of records published and the number parked as failed.
func (p *Publisher) DrainOnce(ctx context.Context) (published, failed int) {
	events, err := p.store.FetchPending(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("failed to fetch pending outbox records", zap.Error(err))
		return 0, 0
	}

	for _, event := range events {
		// Re-read immediately before publishing: the record may have been
		// modified since the batch was selected.
		status, err := p.store.GetStatus(ctx, event.EventID)
		if err != nil {
			p.logger.Error("failed to re-read outbox record",
				zap.String("event_id", event.EventID), zap.Error(err))
			continue
		}
		if status != contracts.OutboxStatusPending {
			continue
		}

		if err := p.broker.Publish(ctx, event.RoutingKey, []byte(event.Payload)); err != nil {
			retryCount := event.RetryCount + 1
			if retryCount >= event.MaxRetries {
				if markErr := p.store.MarkFailed(ctx, event.EventID, retryCount, err.Error()); markErr != nil {
					p.logger.Error("failed to park outbox record",
						zap.String("event_id", event.EventID), zap.Error(markErr))
					continue
				}
				p.metrics.outcomes.WithLabelValues("failed").Inc()
				p.logger.Error("outbox record exhausted retries",
					zap.String("event_id", event.EventID),
					zap.String("routing_key", event.RoutingKey),
					zap.Int64("retry_count", retryCount),
					zap.Error(err),
				)
				failed++
				continue
			}

			if markErr := p.store.MarkRetry(ctx, event.EventID, retryCount, err.Error()); markErr != nil {
				p.logger.Error("failed to record outbox retry",
					zap.String("event_id", event.EventID), zap.Error(markErr))
				continue
			}
			p.metrics.outcomes.WithLabelValues("retried").Inc()
			p.logger.Warn("publish failed, will retry",
				zap.String("event_id", event.EventID),
				zap.String("routing_key", event.RoutingKey),
				zap.Int64("retry_count", retryCount),
				zap.Error(err),
			)
			continue
		}

		if err := p.store.MarkPublished(ctx, event.EventID, p.clock.Now()); err != nil {
			// Ack received but the flip did not commit; the record will be
			// republished on the next tick. At-least-once by contract.
			p.logger.Warn("published but failed to mark record",
				zap.String("event_id", event.EventID), zap.Error(err))
			continue
		}
		p.metrics.outcomes.WithLabelValues("published").Inc()
		published++
	}

	p.refreshGauges(ctx)
	return published, failed
}

// Stats returns the live per-status record counts.
func (p *Publisher) Stats(ctx context.Context) (contracts.OutboxCounts, error) {
	return p.store.Counts(ctx)
}

func (p *Publisher) refreshGauges(ctx context.Context) {
	counts, err := p.store.Counts(ctx)
	if err != nil {
		p.logger.Warn("failed to refresh outbox counts", zap.Error(err))
		return
	}
	p.metrics.pending.Set(float64(counts.Pending))
	p.metrics.published.Set(float64(counts.Published))
	p.metrics.failed.Set(float64(counts.Failed))
}
