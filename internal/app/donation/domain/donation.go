package domain

import (
	"time"
)

// Donation is the aggregate root for a monetary operation. It is created
// pending, never deleted, and advances only along the transition table.
// Every transition stamps the instant the status was first reached; a stamp
// is never overwritten.
type Donation struct {
	id             string
	campaignID     string
	donor          Donor
	accountID      string
	amount         int64 // minor currency units
	status         DonationStatus
	idempotencyKey string
	externalRef    string
	reason         string
	createdAt      time.Time
	updatedAt      time.Time
	statusTimes    map[DonationStatus]time.Time

	// Domain events to be written to the outbox with the next commit
	events []DomainEvent
}

// NewDonation creates a new pending Donation.
func NewDonation(id, campaignID string, donor Donor, accountID string, amount int64, idempotencyKey string, now time.Time) (*Donation, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if campaignID == "" {
		return nil, ErrEmptyCampaign
	}
	if accountID == "" {
		return nil, ErrEmptyAccount
	}
	if idempotencyKey == "" {
		return nil, ErrEmptyIdempotencyKey
	}

	d := &Donation{
		id:             id,
		campaignID:     campaignID,
		donor:          donor,
		accountID:      accountID,
		amount:         amount,
		status:         StatusPending,
		idempotencyKey: idempotencyKey,
		createdAt:      now,
		updatedAt:      now,
		statusTimes:    map[DonationStatus]time.Time{StatusPending: now},
		events:         make([]DomainEvent, 0),
	}

	return d, nil
}

// ReconstructDonation reconstitutes a Donation loaded from the database.
func ReconstructDonation(
	id, campaignID string,
	donor Donor,
	accountID string,
	amount int64,
	status DonationStatus,
	idempotencyKey, externalRef, reason string,
	createdAt, updatedAt time.Time,
	statusTimes map[DonationStatus]time.Time,
) *Donation {
	if statusTimes == nil {
		statusTimes = make(map[DonationStatus]time.Time)
	}
	return &Donation{
		id:             id,
		campaignID:     campaignID,
		donor:          donor,
		accountID:      accountID,
		amount:         amount,
		status:         status,
		idempotencyKey: idempotencyKey,
		externalRef:    externalRef,
		reason:         reason,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
		statusTimes:    statusTimes,
		events:         make([]DomainEvent, 0),
	}
}

// Getters
func (d *Donation) ID() string                 { return d.id }
func (d *Donation) CampaignID() string         { return d.campaignID }
func (d *Donation) Donor() Donor               { return d.donor }
func (d *Donation) AccountID() string          { return d.accountID }
func (d *Donation) Amount() int64              { return d.amount }
func (d *Donation) Status() DonationStatus     { return d.status }
func (d *Donation) IdempotencyKey() string     { return d.idempotencyKey }
func (d *Donation) ExternalRef() string        { return d.externalRef }
func (d *Donation) Reason() string             { return d.reason }
func (d *Donation) CreatedAt() time.Time       { return d.createdAt }
func (d *Donation) UpdatedAt() time.Time       { return d.updatedAt }
func (d *Donation) DomainEvents() []DomainEvent { return d.events }

// StatusTimestamp returns the first-arrival instant for a status, if the
// donation has ever reached it.
func (d *Donation) StatusTimestamp(status DonationStatus) (time.Time, bool) {
	t, ok := d.statusTimes[status]
	return t, ok
}

// StatusTimestamps returns a copy of all first-arrival stamps.
func (d *Donation) StatusTimestamps() map[DonationStatus]time.Time {
	out := make(map[DonationStatus]time.Time, len(d.statusTimes))
	for k, v := range d.statusTimes {
		out[k] = v
	}
	return out
}

// SetExternalRef records the provider-side reference (e.g. a charge id).
func (d *Donation) SetExternalRef(ref string) {
	d.externalRef = ref
}

// BeginBalanceCheck moves the donation into the balance check step.
func (d *Donation) BeginBalanceCheck(now time.Time) error {
	return d.attemptTransition(StatusBalanceCheck, now)
}

// Authorize marks funds as authorized.
func (d *Donation) Authorize(now time.Time) error {
	if err := d.attemptTransition(StatusAuthorized, now); err != nil {
		return err
	}
	d.recordEvent(&PaymentAuthorizedEvent{
		DonationID:   d.id,
		Amount:       d.amount,
		AuthorizedAt: now,
	})
	return nil
}

// Capture marks funds as captured.
func (d *Donation) Capture(now time.Time) error {
	if err := d.attemptTransition(StatusCaptured, now); err != nil {
		return err
	}
	d.recordEvent(&PaymentCapturedEvent{
		DonationID: d.id,
		Amount:     d.amount,
		CapturedAt: now,
	})
	return nil
}

// Complete finishes the checkout. The created and completed events ride the
// same commit as the final status write.
func (d *Donation) Complete(now time.Time) error {
	if err := d.attemptTransition(StatusCompleted, now); err != nil {
		return err
	}
	d.recordEvent(&DonationCreatedEvent{
		DonationID: d.id,
		CampaignID: d.campaignID,
		Amount:     d.amount,
		DonorKind:  d.donor.Kind,
		DonorID:    d.donor.UserID,
		CreatedAt:  d.createdAt,
	})
	d.recordEvent(&DonationCompletedEvent{
		DonationID:  d.id,
		CampaignID:  d.campaignID,
		Amount:      d.amount,
		CompletedAt: now,
	})
	return nil
}

// Fail moves the donation to failed with a reason.
func (d *Donation) Fail(reason string, now time.Time) error {
	if err := d.attemptTransition(StatusFailed, now); err != nil {
		return err
	}
	d.reason = reason
	d.recordEvent(&DonationFailedEvent{
		DonationID: d.id,
		CampaignID: d.campaignID,
		Amount:     d.amount,
		Reason:     reason,
		FailedAt:   now,
	})
	return nil
}

// Refund moves a completed donation to refunded.
func (d *Donation) Refund(reason string, now time.Time) error {
	if err := d.attemptTransition(StatusRefunded, now); err != nil {
		return err
	}
	d.reason = reason
	d.recordEvent(&DonationRefundedEvent{
		DonationID: d.id,
		CampaignID: d.campaignID,
		Amount:     d.amount,
		Reason:     reason,
		RefundedAt: now,
	})
	return nil
}

// RefundByProvider relays a provider-initiated refund. It additionally emits
// the payment-level event carrying the provider reference.
func (d *Donation) RefundByProvider(reason, providerEventID string, now time.Time) error {
	if err := d.Refund(reason, now); err != nil {
		return err
	}
	d.recordEvent(&PaymentRefundedEvent{
		DonationID:      d.id,
		Amount:          d.amount,
		ProviderEventID: providerEventID,
		RefundedAt:      now,
	})
	return nil
}

// attemptTransition validates the move against the transition table and
// applies it. On rejection nothing is mutated. The first-arrival stamp for
// the target status is set only if that status has never been reached.
func (d *Donation) attemptTransition(target DonationStatus, now time.Time) error {
	if !CanTransition(d.status, target) {
		return NewInvalidTransitionError(d.status, target)
	}
	d.status = target
	if _, stamped := d.statusTimes[target]; !stamped {
		d.statusTimes[target] = now
	}
	d.updatedAt = now
	return nil
}

// recordEvent adds a domain event to the list of events.
func (d *Donation) recordEvent(event DomainEvent) {
	d.events = append(d.events, event)
}

// ClearEvents clears all recorded domain events (called after commit).
func (d *Donation) ClearEvents() {
	d.events = make([]DomainEvent, 0)
}
