package create_checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/light-bringer/donation-service/internal/app/donation/contracts"
	"github.com/light-bringer/donation-service/internal/app/donation/domain"
	"github.com/light-bringer/donation-service/internal/pkg/clock"
)

// Request contains the data needed to start a checkout.
type Request struct {
	CampaignID     string
	Amount         int64 // minor currency units
	Donor          domain.Donor
	AccountID      string
	IdempotencyKey string
}

// Response reports the donation id and its final status. On a business
// failure the response still references the donation so callers can inspect
// the audit record.
type Response struct {
	DonationID string
	Status     domain.DonationStatus
}

// Interactor drives the checkout sequence. It is the sole writer of
// donations on this path: create pending, balance check, deduct, then
// authorized, captured and completed, each step durably committed before
// the next begins, so a crash leaves the donation at its last committed
// status, never somewhere ambiguous.
type Interactor struct {
	repo       contracts.DonationRepository
	settlement contracts.SettlementBackend
	clock      clock.Clock
}

// NewInteractor creates a new checkout interactor.
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

// Execute runs the checkout sequence.
func (i *Interactor) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Create the donation in pending, in its own atomic unit.
	d, err := domain.NewDonation(
		uuid.New().String(),
		req.CampaignID,
		req.Donor,
		req.AccountID,
		req.Amount,
		req.IdempotencyKey,
		i.clock.Now(),
	)
	if err != nil {
		return nil, domain.NewBusinessError(domain.CodeInvalidRequest, err.Error(), err)
	}

	if err := i.repo.Create(ctx, d); err != nil {
		if errors.Is(err, contracts.ErrIdempotencyKeyConflict) {
			// A retry of an earlier request: return the original donation
			// instead of creating a second monetary operation.
			existing, lookupErr := i.repo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
			if lookupErr != nil {
				return nil, fmt.Errorf("failed to load donation for idempotency key: %w", lookupErr)
			}
			return &Response{DonationID: existing.ID(), Status: existing.Status()}, nil
		}
		return nil, err
	}
	id := d.ID()

	// 2. Move into the balance check step.
	if _, err := i.repo.Transition(ctx, id, func(d *domain.Donation) error {
		return d.BeginBalanceCheck(i.clock.Now())
	}); err != nil {
		return nil, err
	}

	// 3. Probe the settlement account.
	check, err := i.settlement.CheckBalance(ctx, req.AccountID, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("balance check failed: %w", err)
	}
	if !check.Sufficient {
		reason := fmt.Sprintf("insufficient balance: account %s holds %d, requested %d",
			req.AccountID, check.Balance, req.Amount)
		return i.fail(ctx, id, reason, domain.CodeInsufficientBalance, domain.ErrInsufficientBalance)
	}

	// 4. Deduct. A rejection here is a business failure like step 3; the
	// settlement backend is not idempotent, but this step runs at most once
	// per donation because the preceding transition gates it.
	if err := i.settlement.Deduct(ctx, req.AccountID, req.Amount); err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) || errors.Is(err, domain.ErrUnknownAccount) {
			return i.fail(ctx, id, fmt.Sprintf("deduct rejected: %v", err), domain.CodeInsufficientBalance, err)
		}
		return nil, fmt.Errorf("deduct failed: %w", err)
	}

	// 5. Advance through authorized and captured, one commit per milestone.
	if _, err := i.repo.Transition(ctx, id, func(d *domain.Donation) error {
		return d.Authorize(i.clock.Now())
	}); err != nil {
		return nil, err
	}
	if _, err := i.repo.Transition(ctx, id, func(d *domain.Donation) error {
		return d.Capture(i.clock.Now())
	}); err != nil {
		return nil, err
	}

	// 6. Complete. The created and completed outbox records ride this
	// final commit.
	final, err := i.repo.Transition(ctx, id, func(d *domain.Donation) error {
		return d.Complete(i.clock.Now())
	})
	if err != nil {
		return nil, err
	}

	return &Response{DonationID: final.ID(), Status: final.Status()}, nil
}

// fail commits the failed status with its reason and outbox record, then
// reports the business failure to the caller.
func (i *Interactor) fail(ctx context.Context, id, reason, code string, cause error) (*Response, error) {
	if _, err := i.repo.Transition(ctx, id, func(d *domain.Donation) error {
		return d.Fail(reason, i.clock.Now())
	}); err != nil {
		return nil, fmt.Errorf("failed to record donation failure: %w", err)
	}
	return &Response{DonationID: id, Status: domain.StatusFailed},
		domain.NewBusinessError(code, reason, cause)
}
