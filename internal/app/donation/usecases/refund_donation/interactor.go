package refund_donation

import (
	"context"
	"errors"
	"fmt"

	"github.com/light-bringer/donation-service/internal/app/donation/contracts"
	"github.com/light-bringer/donation-service/internal/app/donation/domain"
	"github.com/light-bringer/donation-service/internal/pkg/clock"
)

// Request contains the donation to refund.
type Request struct {
	DonationID string
	Reason     string

	// ProviderEventID is set when the refund was initiated by the payment
	// provider (webhook path) rather than an operator.
	ProviderEventID string
}

// Response reports the refunded donation.
type Response struct {
	DonationID string
	Status     domain.DonationStatus
}

// Interactor handles the refund path. Refunds are permitted only for
// completed donations; the settlement backend is credited first, then the
// refunded status and its outbox record commit atomically.
type Interactor struct {
	repo       contracts.DonationRepository
	settlement contracts.SettlementBackend
	clock      clock.Clock
}

// NewInteractor creates a new refund interactor.
func NewInteractor(
	repo contracts.DonationRepository,
	settlement contracts.SettlementBackend,
	clk clock.Clock,
) *Interactor {
	return &Interactor{
		repo:       repo,
		settlement: settlement,
		clock:      clk,
	}
}

// Execute refunds a completed donation.
func (i *Interactor) Execute(ctx context.Context, req *Request) (*Response, error) {
	d, err := i.repo.GetByID(ctx, req.DonationID)
	if err != nil {
		if errors.Is(err, domain.ErrDonationNotFound) {
			return nil, domain.NewBusinessError(domain.CodeNotFound, "donation not found", err)
		}
		return nil, err
	}

	if d.Status() != domain.StatusCompleted {
		return nil, domain.NewBusinessError(
			domain.CodeRefundNotAllowed,
			fmt.Sprintf("refund requires a completed donation, current status is %q", d.Status()),
			domain.ErrRefundNotAllowed,
		)
	}

	// Settlement failure means no mutation at all.
	if err := i.settlement.Refund(ctx, d.AccountID(), d.Amount()); err != nil {
		return nil, domain.NewBusinessError(
			domain.CodeRefundNotAllowed,
			fmt.Sprintf("settlement refund rejected: %v", err),
			err,
		)
	}

	updated, err := i.repo.Transition(ctx, req.DonationID, func(d *domain.Donation) error {
		now := i.clock.Now()
		if req.ProviderEventID != "" {
			return d.RefundByProvider(req.Reason, req.ProviderEventID, now)
		}
		return d.Refund(req.Reason, now)
	})
	if err != nil {
		// The transition re-validates against the persisted status, so a
		// concurrent refund that won the race surfaces here.
		var ite *domain.InvalidTransitionError
		if errors.As(err, &ite) {
			return nil, domain.NewBusinessError(domain.CodeRefundNotAllowed, ite.Error(), err)
		}
		return nil, err
	}

	return &Response{DonationID: updated.ID(), Status: updated.Status()}, nil
}
