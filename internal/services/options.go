package services

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"
	"go.uber.org/zap"

	"github.com/light-bringer/donation-service/internal/app/donation/contracts"
	"github.com/light-bringer/donation-service/internal/app/donation/repo"
	"github.com/light-bringer/donation-service/internal/app/donation/usecases/create_checkout"
	"github.com/light-bringer/donation-service/internal/app/donation/usecases/handle_webhook"
	"github.com/light-bringer/donation-service/internal/app/donation/usecases/refund_donation"
	"github.com/light-bringer/donation-service/internal/broker"
	"github.com/light-bringer/donation-service/internal/outbox"
	"github.com/light-bringer/donation-service/internal/pkg/clock"
	"github.com/light-bringer/donation-service/internal/settlement"
)

// Config holds the external endpoints and tunables.
type Config struct {
	SpannerDB         string
	NATSURL           string
	PublishInterval   time.Duration
	PublishBatchSize  int64
	SettlementLatency time.Duration
}

// ServiceOptions holds all dependencies for the application.
type ServiceOptions struct {
	SpannerClient *spanner.Client
	Broker        *broker.NATSPublisher
	Ledger        *settlement.Ledger
	OutboxStore   contracts.OutboxStore
	Publisher     *outbox.Publisher

	CreateCheckout *create_checkout.Interactor
	RefundDonation *refund_donation.Interactor
	HandleWebhook  *handle_webhook.Interactor
}

// NewServiceOptions creates and wires up all application dependencies.
func NewServiceOptions(ctx context.Context, cfg Config, logger *zap.Logger) (*ServiceOptions, error) {
	spannerClient, err := spanner.NewClient(ctx, cfg.SpannerDB)
	if err != nil {
		return nil, fmt.Errorf("failed to create Spanner client: %w", err)
	}

	natsPublisher, err := broker.NewNATSPublisher(cfg.NATSURL, logger)
	if err != nil {
		spannerClient.Close()
		return nil, err
	}

	clk := clock.NewRealClock()
	ledger := settlement.NewLedger(cfg.SettlementLatency)

	outboxRepo := repo.NewOutboxRepo(spannerClient)
	donationRepo := repo.NewDonationRepo(spannerClient, outboxRepo)
	webhookLogRepo := repo.NewWebhookLogRepo(spannerClient)

	createCheckout := create_checkout.NewInteractor(donationRepo, ledger, clk)
	refundDonation := refund_donation.NewInteractor(donationRepo, ledger, clk)
	handleWebhook := handle_webhook.NewInteractor(webhookLogRepo, donationRepo, refundDonation, clk, logger)

	publisher := outbox.NewPublisher(outboxRepo, natsPublisher, clk, logger, outbox.Config{
		Interval:  cfg.PublishInterval,
		BatchSize: cfg.PublishBatchSize,
	})

	return &ServiceOptions{
		SpannerClient:  spannerClient,
		Broker:         natsPublisher,
		Ledger:         ledger,
		OutboxStore:    outboxRepo,
		Publisher:      publisher,
		CreateCheckout: createCheckout,
		RefundDonation: refundDonation,
		HandleWebhook:  handleWebhook,
	}, nil
}

// Close closes all resources.
func (s *ServiceOptions) Close() {
	if s.Broker != nil {
		s.Broker.Close()
	}
	if s.SpannerClient != nil {
		s.SpannerClient.Close()
	}
}
