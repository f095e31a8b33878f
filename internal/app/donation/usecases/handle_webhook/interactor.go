package handle_webhook

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/light-bringer/donation-service/internal/app/donation/contracts"
	"github.com/light-bringer/donation-service/internal/app/donation/domain"
	"github.com/light-bringer/donation-service/internal/app/donation/usecases/refund_donation"
	"github.com/light-bringer/donation-service/internal/pkg/clock"
)

// Result is the terminal acknowledgment returned to the webhook sender.
type Result string

const (
	ResultProcessed Result = "PROCESSED"
	ResultDuplicate Result = "DUPLICATE"
	ResultFailed    Result = "FAILED"
)

// Provider event types this service reacts to.
const (
	EventChargeSucceeded = "charge.succeeded"
	EventChargeRefunded  = "charge.refunded"
)

// Request is an inbound provider webhook delivery.
type Request struct {
	Provider  string
	EventType string
	EventID   string
	Signature string
	Payload   []byte
}

// Response carries the acknowledgment status.
type Response struct {
	Status Result
}

// chargePayload is the provider payload shape for charge events.
type chargePayload struct {
	DonationID string `json:"donation_id"`
	ChargeID   string `json:"charge_id"`
	Reason     string `json:"reason"`
}

// Interactor handles inbound provider webhooks. Inserting the webhook log
// is the fencing token: it runs before any side effect, and a duplicate
// event id short-circuits to DUPLICATE with zero mutation. Once the
// delivery is logged the acknowledgment is always terminal: business
// failures during processing are loud-logged, never bounced back to the
// provider.
type Interactor struct {
	logs    contracts.WebhookLogStore
	repo    contracts.DonationRepository
	refunds *refund_donation.Interactor
	clock   clock.Clock
	logger  *zap.Logger
}

// NewInteractor creates a new webhook interactor.
func NewInteractor(
	logs contracts.WebhookLogStore,
	repo contracts.DonationRepository,
	refunds *refund_donation.Interactor,
	clk clock.Clock,
	logger *zap.Logger,
) *Interactor {
	return &Interactor{
		logs:    logs,
		repo:    repo,
		refunds: refunds,
		clock:   clk,
		logger:  logger,
	}
}

// Execute acknowledges one webhook delivery.
func (i *Interactor) Execute(ctx context.Context, req *Request) (*Response, error) {
	if req.EventID == "" {
		return nil, domain.NewBusinessError(domain.CodeInvalidRequest, "webhook event id is required", nil)
	}

	entry := &contracts.WebhookLog{
		EventID:     req.EventID,
		Provider:    req.Provider,
		EventType:   req.EventType,
		Signature:   req.Signature,
		Payload:     string(req.Payload),
		Status:      contracts.WebhookStatusProcessed,
		ProcessedAt: i.clock.Now(),
	}

	if err := i.logs.Insert(ctx, entry); err != nil {
		if errors.Is(err, contracts.ErrDuplicateWebhookEvent) {
			// Seen before: a success outcome so the provider stops retrying.
			return &Response{Status: ResultDuplicate}, nil
		}
		// Even logging the attempt failed; the delivery must be retried.
		return &Response{Status: ResultFailed}, fmt.Errorf("failed to record webhook event: %w", err)
	}

	if err := i.process(ctx, req); err != nil {
		if be, ok := domain.AsBusiness(err); ok {
			i.logger.Warn("webhook processing rejected",
				zap.String("event_id", req.EventID),
				zap.String("event_type", req.EventType),
				zap.String("code", be.Code),
				zap.String("message", be.Message),
			)
		} else {
			i.logger.Error("webhook processing failed",
				zap.String("event_id", req.EventID),
				zap.String("event_type", req.EventType),
				zap.Error(err),
			)
		}
	}

	return &Response{Status: ResultProcessed}, nil
}

func (i *Interactor) process(ctx context.Context, req *Request) error {
	switch req.EventType {
	case EventChargeRefunded:
		payload, err := decodeCharge(req.Payload)
		if err != nil {
			return err
		}
		reason := payload.Reason
		if reason == "" {
			reason = "refunded by payment provider"
		}
		_, err = i.refunds.Execute(ctx, &refund_donation.Request{
			DonationID:      payload.DonationID,
			Reason:          reason,
			ProviderEventID: req.EventID,
		})
		return err

	case EventChargeSucceeded:
		payload, err := decodeCharge(req.Payload)
		if err != nil {
			return err
		}
		return i.confirm(ctx, payload.DonationID, payload.ChargeID)

	default:
		i.logger.Debug("ignoring webhook event type",
			zap.String("event_id", req.EventID),
			zap.String("event_type", req.EventType),
		)
		return nil
	}
}

// confirm completes a captured donation on provider confirmation and stamps
// the provider charge id. A donation the checkout already completed is a
// no-op apart from the external reference.
func (i *Interactor) confirm(ctx context.Context, donationID, chargeID string) error {
	_, err := i.repo.Transition(ctx, donationID, func(d *domain.Donation) error {
		if chargeID != "" {
			d.SetExternalRef(chargeID)
		}
		if d.Status() == domain.StatusCompleted {
			return nil
		}
		return d.Complete(i.clock.Now())
	})
	return err
}

func decodeCharge(raw []byte) (*chargePayload, error) {
	var payload chargePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, domain.NewBusinessError(domain.CodeInvalidRequest, "malformed webhook payload", err)
	}
	if payload.DonationID == "" {
		return nil, domain.NewBusinessError(domain.CodeInvalidRequest, "webhook payload missing donation_id", nil)
	}
	return &payload, nil
}
