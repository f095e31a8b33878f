package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDonation(t *testing.T, id string, now time.Time) *Donation {
	t.Helper()
	d, err := NewDonation(id, "campaign-1", GuestDonor(), "acct-1", 2500, "idem-"+id, now)
	require.NoError(t, err)
	return d
}

// TestDonationStateMachine verifies all valid and invalid state transitions.
func TestDonationStateMachine(t *testing.T) {
	now := time.Now().UTC()

	// Transition table:
	// pending       → balance_check, failed
	// balance_check → authorized, failed
	// authorized    → captured, failed
	// captured      → completed, refunded, failed
	// completed     → refunded
	// failed        → (terminal)
	// refunded      → (terminal)

	t.Run("pending → balance_check: allowed", func(t *testing.T) {
		d := newTestDonation(t, "id-1", now)
		assert.Equal(t, StatusPending, d.Status())

		err := d.BeginBalanceCheck(now)
		require.NoError(t, err)
		assert.Equal(t, StatusBalanceCheck, d.Status())
	})

	t.Run("pending → failed: allowed", func(t *testing.T) {
		d := newTestDonation(t, "id-2", now)

		err := d.Fail("validation rejected", now)
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, d.Status())
		assert.Equal(t, "validation rejected", d.Reason())
	})

	t.Run("pending → authorized: forbidden", func(t *testing.T) {
		d := newTestDonation(t, "id-3", now)

		err := d.Authorize(now)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, StatusPending, d.Status()) // Status unchanged
	})

	t.Run("balance_check → authorized: allowed", func(t *testing.T) {
		d := newTestDonation(t, "id-4", now)
		d.BeginBalanceCheck(now)

		err := d.Authorize(now)
		require.NoError(t, err)
		assert.Equal(t, StatusAuthorized, d.Status())
	})

	t.Run("balance_check → completed: forbidden", func(t *testing.T) {
		d := newTestDonation(t, "id-5", now)
		d.BeginBalanceCheck(now)

		err := d.Complete(now)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, StatusBalanceCheck, d.Status())
	})

	t.Run("authorized → captured: allowed", func(t *testing.T) {
		d := newTestDonation(t, "id-6", now)
		d.BeginBalanceCheck(now)
		d.Authorize(now)

		err := d.Capture(now)
		require.NoError(t, err)
		assert.Equal(t, StatusCaptured, d.Status())
	})

	t.Run("captured → completed: allowed", func(t *testing.T) {
		d := newTestDonation(t, "id-7", now)
		d.BeginBalanceCheck(now)
		d.Authorize(now)
		d.Capture(now)

		err := d.Complete(now)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, d.Status())
	})

	t.Run("captured → refunded: allowed", func(t *testing.T) {
		d := newTestDonation(t, "id-8", now)
		d.BeginBalanceCheck(now)
		d.Authorize(now)
		d.Capture(now)

		err := d.Refund("void before settlement", now)
		require.NoError(t, err)
		assert.Equal(t, StatusRefunded, d.Status())
	})

	t.Run("completed → refunded: allowed", func(t *testing.T) {
		d := newTestDonation(t, "id-9", now)
		d.BeginBalanceCheck(now)
		d.Authorize(now)
		d.Capture(now)
		d.Complete(now)

		err := d.Refund("donor requested", now)
		require.NoError(t, err)
		assert.Equal(t, StatusRefunded, d.Status())
	})

	t.Run("completed → failed: forbidden", func(t *testing.T) {
		d := newTestDonation(t, "id-10", now)
		d.BeginBalanceCheck(now)
		d.Authorize(now)
		d.Capture(now)
		d.Complete(now)

		err := d.Fail("too late", now)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, StatusCompleted, d.Status())
	})

	t.Run("failed is terminal", func(t *testing.T) {
		d := newTestDonation(t, "id-11", now)
		d.Fail("boom", now)

		assert.ErrorIs(t, d.BeginBalanceCheck(now), ErrInvalidTransition)
		assert.ErrorIs(t, d.Complete(now), ErrInvalidTransition)
		assert.ErrorIs(t, d.Refund("nope", now), ErrInvalidTransition)
		assert.Equal(t, StatusFailed, d.Status())
	})

	t.Run("refunded is terminal", func(t *testing.T) {
		d := newTestDonation(t, "id-12", now)
		d.BeginBalanceCheck(now)
		d.Authorize(now)
		d.Capture(now)
		d.Complete(now)
		d.Refund("donor requested", now)

		assert.ErrorIs(t, d.Refund("again", now), ErrInvalidTransition)
		assert.ErrorIs(t, d.Fail("boom", now), ErrInvalidTransition)
		assert.Equal(t, StatusRefunded, d.Status())
	})

	t.Run("re-applying the current status is rejected", func(t *testing.T) {
		d := newTestDonation(t, "id-13", now)
		d.BeginBalanceCheck(now)

		err := d.BeginBalanceCheck(now)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		var invalidErr *InvalidTransitionError
		require.ErrorAs(t, err, &invalidErr)
		assert.Equal(t, StatusBalanceCheck, invalidErr.From)
		assert.Equal(t, StatusBalanceCheck, invalidErr.To)
	})
}

// TestCanTransitionMatrix exercises the full from/to grid against the table.
func TestCanTransitionMatrix(t *testing.T) {
	allowed := map[DonationStatus][]DonationStatus{
		StatusPending:      {StatusBalanceCheck, StatusFailed},
		StatusBalanceCheck: {StatusAuthorized, StatusFailed},
		StatusAuthorized:   {StatusCaptured, StatusFailed},
		StatusCaptured:     {StatusCompleted, StatusRefunded, StatusFailed},
		StatusCompleted:    {StatusRefunded},
		StatusFailed:       {},
		StatusRefunded:     {},
	}

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			got := CanTransition(from, to)
			assert.Equal(t, want, got, "%s → %s", from, to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusFailed))
	assert.True(t, IsTerminal(StatusRefunded))
	assert.False(t, IsTerminal(StatusPending))
	assert.False(t, IsTerminal(StatusBalanceCheck))
	assert.False(t, IsTerminal(StatusAuthorized))
	assert.False(t, IsTerminal(StatusCaptured))
	assert.False(t, IsTerminal(StatusCompleted))
}

// TestStatusTimestampsSetOnce verifies first-arrival stamps are never
// overwritten and statuses never visited stay unstamped.
func TestStatusTimestampsSetOnce(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Second)
	t2 := t0.Add(2 * time.Second)

	d := newTestDonation(t, "id-1", t0)

	pendingAt, ok := d.StatusTimestamp(StatusPending)
	require.True(t, ok)
	assert.Equal(t, t0, pendingAt)

	require.NoError(t, d.BeginBalanceCheck(t1))
	require.NoError(t, d.Authorize(t2))

	checkAt, ok := d.StatusTimestamp(StatusBalanceCheck)
	require.True(t, ok)
	assert.Equal(t, t1, checkAt)

	authorizedAt, ok := d.StatusTimestamp(StatusAuthorized)
	require.True(t, ok)
	assert.Equal(t, t2, authorizedAt)

	// Never reached: no stamp.
	_, ok = d.StatusTimestamp(StatusCompleted)
	assert.False(t, ok)
	_, ok = d.StatusTimestamp(StatusFailed)
	assert.False(t, ok)

	// The pending stamp survives later transitions untouched.
	pendingAt, _ = d.StatusTimestamp(StatusPending)
	assert.Equal(t, t0, pendingAt)

	assert.Equal(t, t2, d.UpdatedAt())
}

// TestStateTransitionEventEmission verifies which events each transition records.
func TestStateTransitionEventEmission(t *testing.T) {
	now := time.Now().UTC()

	t.Run("balance check records no event", func(t *testing.T) {
		d := newTestDonation(t, "id-1", now)
		d.ClearEvents()

		d.BeginBalanceCheck(now)
		assert.Empty(t, d.DomainEvents())
	})

	t.Run("authorize records payment.authorized", func(t *testing.T) {
		d := newTestDonation(t, "id-2", now)
		d.BeginBalanceCheck(now)
		d.ClearEvents()

		d.Authorize(now)

		events := d.DomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventPaymentAuthorized, events[0].EventType())
		assert.Equal(t, d.ID(), events[0].AggregateID())
	})

	t.Run("capture records payment.captured", func(t *testing.T) {
		d := newTestDonation(t, "id-3", now)
		d.BeginBalanceCheck(now)
		d.Authorize(now)
		d.ClearEvents()

		d.Capture(now)

		events := d.DomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventPaymentCaptured, events[0].EventType())
	})

	t.Run("complete records created then completed", func(t *testing.T) {
		d := newTestDonation(t, "id-4", now)
		d.BeginBalanceCheck(now)
		d.Authorize(now)
		d.Capture(now)
		d.ClearEvents()

		d.Complete(now)

		events := d.DomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, EventDonationCreated, events[0].EventType())
		assert.Equal(t, EventDonationCompleted, events[1].EventType())
	})

	t.Run("fail records donation.failed with reason", func(t *testing.T) {
		d := newTestDonation(t, "id-5", now)
		d.ClearEvents()

		d.Fail("insufficient balance", now)

		events := d.DomainEvents()
		require.Len(t, events, 1)
		failed, ok := events[0].(*DonationFailedEvent)
		require.True(t, ok)
		assert.Equal(t, "insufficient balance", failed.Reason)
	})

	t.Run("provider refund records donation.refunded and payment.refunded", func(t *testing.T) {
		d := newTestDonation(t, "id-6", now)
		d.BeginBalanceCheck(now)
		d.Authorize(now)
		d.Capture(now)
		d.Complete(now)
		d.ClearEvents()

		d.RefundByProvider("charge.refunded", "evt_prov_1", now)

		events := d.DomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, EventDonationRefunded, events[0].EventType())

		refunded, ok := events[1].(*PaymentRefundedEvent)
		require.True(t, ok)
		assert.Equal(t, "evt_prov_1", refunded.ProviderEventID)
	})

	t.Run("rejected transition records nothing", func(t *testing.T) {
		d := newTestDonation(t, "id-7", now)
		d.ClearEvents()

		err := d.Complete(now)
		require.Error(t, err)
		assert.Empty(t, d.DomainEvents())
	})
}
