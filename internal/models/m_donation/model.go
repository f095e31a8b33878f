package m_donation

import (
	"cloud.google.com/go/spanner"
)

// Model provides a facade for type-safe operations on the donations table.
type Model struct{}

// NewModel creates a new Model instance.
func NewModel() *Model {
	return &Model{}
}

// Columns lists every column in read order.
func (m *Model) Columns() []string {
	return []string{
		DonationID,
		CampaignID,
		DonorKind,
		DonorUserID,
		AccountID,
		Amount,
		Status,
		IdempotencyKey,
		ExternalRef,
		Reason,
		CreatedAt,
		UpdatedAt,
		PendingAt,
		BalanceCheckAt,
		AuthorizedAt,
		CapturedAt,
		CompletedAt,
		FailedAt,
		RefundedAt,
	}
}

// InsertMut creates a Spanner mutation for inserting a donation.
// Insert (not InsertOrUpdate) so a duplicate key surfaces as AlreadyExists.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.Insert(
		TableName,
		m.Columns(),
		[]interface{}{
			data.DonationID,
			data.CampaignID,
			data.DonorKind,
			data.DonorUserID,
			data.AccountID,
			data.Amount,
			data.Status,
			data.IdempotencyKey,
			data.ExternalRef,
			data.Reason,
			data.CreatedAt,
			data.UpdatedAt,
			data.PendingAt,
			data.BalanceCheckAt,
			data.AuthorizedAt,
			data.CapturedAt,
			data.CompletedAt,
			data.FailedAt,
			data.RefundedAt,
		},
	)
}

// UpdateMut creates a Spanner mutation for updating specific donation fields.
func (m *Model) UpdateMut(donationID string, updates map[string]interface{}) *spanner.Mutation {
	if len(updates) == 0 {
		return nil
	}

	columns := make([]string, 0, len(updates)+1)
	values := make([]interface{}, 0, len(updates)+1)

	columns = append(columns, DonationID)
	values = append(values, donationID)

	for col, val := range updates {
		columns = append(columns, col)
		values = append(values, val)
	}

	return spanner.Update(TableName, columns, values)
}

// StampColumn maps a status name to its first-arrival timestamp column.
func StampColumn(status string) (string, bool) {
	switch status {
	case "pending":
		return PendingAt, true
	case "balance_check":
		return BalanceCheckAt, true
	case "authorized":
		return AuthorizedAt, true
	case "captured":
		return CapturedAt, true
	case "completed":
		return CompletedAt, true
	case "failed":
		return FailedAt, true
	case "refunded":
		return RefundedAt, true
	default:
		return "", false
	}
}
