package contracts

import (
	"context"
	"errors"

	"github.com/light-bringer/donation-service/internal/app/donation/domain"
)

// Storage-level sentinels surfaced by repositories.
var (
	// ErrIdempotencyKeyConflict signals that a donation with the same
	// idempotency key is already committed. Callers translate it into
	// "return the existing donation".
	ErrIdempotencyKeyConflict = errors.New("idempotency key already used")

	// ErrDuplicateWebhookEvent signals that the provider event id has been
	// seen before. It is a success outcome, not a failure.
	ErrDuplicateWebhookEvent = errors.New("webhook event already processed")
)

// DonationRepository persists Donation aggregates. Implementations must
// guarantee that Transition re-reads the currently committed row, applies
// the change, and writes the updated donation together with any recorded
// domain events in one atomic unit.
type DonationRepository interface {
	// Create inserts a new donation in its own atomic unit.
	// Returns ErrIdempotencyKeyConflict when the key is already taken.
	Create(ctx context.Context, d *domain.Donation) error

	// GetByID loads a donation, reconstructing the aggregate.
	GetByID(ctx context.Context, id string) (*domain.Donation, error)

	// GetByIdempotencyKey loads the donation created with the given key.
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Donation, error)

	// Transition re-reads the donation inside a read-write transaction,
	// invokes apply on the fresh aggregate, and commits the mutated row
	// plus outbox records for every event apply recorded. If apply returns
	// an error nothing is written. The committed aggregate is returned.
	Transition(ctx context.Context, id string, apply func(d *domain.Donation) error) (*domain.Donation, error)
}
