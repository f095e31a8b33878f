package m_donation

// Field name constants for the donations table.
const (
	TableName = "donations"

	DonationID     = "donation_id"
	CampaignID     = "campaign_id"
	DonorKind      = "donor_kind"
	DonorUserID    = "donor_user_id"
	AccountID      = "account_id"
	Amount         = "amount"
	Status         = "status"
	IdempotencyKey = "idempotency_key"
	ExternalRef    = "external_ref"
	Reason         = "reason"
	CreatedAt      = "created_at"
	UpdatedAt      = "updated_at"

	// First-arrival stamps, one column per status, set once.
	PendingAt      = "pending_at"
	BalanceCheckAt = "balance_check_at"
	AuthorizedAt   = "authorized_at"
	CapturedAt     = "captured_at"
	CompletedAt    = "completed_at"
	FailedAt       = "failed_at"
	RefundedAt     = "refunded_at"
)

// ByIdempotencyKeyIndex is the unique index backing request deduplication.
const ByIdempotencyKeyIndex = "donations_by_idempotency_key"
