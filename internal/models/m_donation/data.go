package m_donation

import (
	"time"

	"cloud.google.com/go/spanner"
)

// Data represents the database model for the donations table.
type Data struct {
	DonationID     string
	CampaignID     string
	DonorKind      string
	DonorUserID    spanner.NullString
	AccountID      string
	Amount         int64
	Status         string
	IdempotencyKey string
	ExternalRef    spanner.NullString
	Reason         spanner.NullString
	CreatedAt      time.Time
	UpdatedAt      time.Time
	PendingAt      spanner.NullTime
	BalanceCheckAt spanner.NullTime
	AuthorizedAt   spanner.NullTime
	CapturedAt     spanner.NullTime
	CompletedAt    spanner.NullTime
	FailedAt       spanner.NullTime
	RefundedAt     spanner.NullTime
}
