package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDonation(t *testing.T) {
	now := time.Now().UTC()

	t.Run("valid donation starts pending", func(t *testing.T) {
		d, err := NewDonation("id-1", "campaign-1", AuthenticatedDonor("user-1"), "acct-1", 5000, "idem-1", now)
		require.NoError(t, err)

		assert.Equal(t, "id-1", d.ID())
		assert.Equal(t, "campaign-1", d.CampaignID())
		assert.Equal(t, int64(5000), d.Amount())
		assert.Equal(t, StatusPending, d.Status())
		assert.Equal(t, "idem-1", d.IdempotencyKey())
		assert.Equal(t, now, d.CreatedAt())
		assert.True(t, d.Donor().IsAuthenticated())
		assert.Equal(t, "user-1", d.Donor().UserID)
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		_, err := NewDonation("id-2", "campaign-1", GuestDonor(), "acct-1", 0, "idem-2", now)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		_, err := NewDonation("id-3", "campaign-1", GuestDonor(), "acct-1", -100, "idem-3", now)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("empty campaign rejected", func(t *testing.T) {
		_, err := NewDonation("id-4", "", GuestDonor(), "acct-1", 100, "idem-4", now)
		assert.ErrorIs(t, err, ErrEmptyCampaign)
	})

	t.Run("empty account rejected", func(t *testing.T) {
		_, err := NewDonation("id-5", "campaign-1", GuestDonor(), "", 100, "idem-5", now)
		assert.ErrorIs(t, err, ErrEmptyAccount)
	})

	t.Run("empty idempotency key rejected", func(t *testing.T) {
		_, err := NewDonation("id-6", "campaign-1", GuestDonor(), "acct-1", 100, "", now)
		assert.ErrorIs(t, err, ErrEmptyIdempotencyKey)
	})
}

func TestReconstructDonation(t *testing.T) {
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	updated := created.Add(5 * time.Second)

	stamps := map[DonationStatus]time.Time{
		StatusPending:      created,
		StatusBalanceCheck: created.Add(time.Second),
		StatusAuthorized:   created.Add(2 * time.Second),
	}

	d := ReconstructDonation(
		"id-1", "campaign-1",
		AuthenticatedDonor("user-9"),
		"acct-1", 7500,
		StatusAuthorized,
		"idem-1", "ch_123", "",
		created, updated, stamps,
	)

	assert.Equal(t, StatusAuthorized, d.Status())
	assert.Equal(t, "ch_123", d.ExternalRef())
	assert.Empty(t, d.DomainEvents())

	got, ok := d.StatusTimestamp(StatusBalanceCheck)
	require.True(t, ok)
	assert.Equal(t, created.Add(time.Second), got)

	// A reconstructed aggregate keeps obeying the transition table.
	require.NoError(t, d.Capture(updated.Add(time.Second)))
	assert.Equal(t, StatusCaptured, d.Status())
}

func TestStatusTimestampsReturnsCopy(t *testing.T) {
	now := time.Now().UTC()
	d, err := NewDonation("id-1", "campaign-1", GuestDonor(), "acct-1", 100, "idem-1", now)
	require.NoError(t, err)

	stamps := d.StatusTimestamps()
	stamps[StatusCompleted] = now

	_, ok := d.StatusTimestamp(StatusCompleted)
	assert.False(t, ok, "mutating the returned map must not leak into the aggregate")
}

func TestDonorVariants(t *testing.T) {
	auth := AuthenticatedDonor("user-1")
	assert.True(t, auth.IsAuthenticated())
	assert.Equal(t, "user-1", auth.UserID)

	guest := GuestDonor()
	assert.False(t, guest.IsAuthenticated())
	assert.Empty(t, guest.UserID)
}

func TestBusinessError(t *testing.T) {
	t.Run("wraps cause", func(t *testing.T) {
		err := NewBusinessError(CodeInsufficientBalance, "balance too low", ErrInsufficientBalance)
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.Contains(t, err.Error(), "balance too low")

		be, ok := AsBusiness(err)
		require.True(t, ok)
		assert.Equal(t, CodeInsufficientBalance, be.Code)
	})

	t.Run("AsBusiness on plain error", func(t *testing.T) {
		_, ok := AsBusiness(ErrDonationNotFound)
		assert.False(t, ok)
	})
}
