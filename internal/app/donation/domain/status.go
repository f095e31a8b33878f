package domain

// DonationStatus represents the lifecycle status of a donation.
type DonationStatus string

const (
	StatusPending      DonationStatus = "pending"
	StatusBalanceCheck DonationStatus = "balance_check"
	StatusAuthorized   DonationStatus = "authorized"
	StatusCaptured     DonationStatus = "captured"
	StatusCompleted    DonationStatus = "completed"
	StatusFailed       DonationStatus = "failed"
	StatusRefunded     DonationStatus = "refunded"
)

// allowedTransitions defines the valid state transitions.
// The key is the current status, the value the set of reachable statuses.
// No path ever revisits a status; failed and refunded are terminal.
var allowedTransitions = map[DonationStatus][]DonationStatus{
	StatusPending:      {StatusBalanceCheck, StatusFailed},
	StatusBalanceCheck: {StatusAuthorized, StatusFailed},
	StatusAuthorized:   {StatusCaptured, StatusFailed},
	StatusCaptured:     {StatusCompleted, StatusRefunded, StatusFailed},
	StatusCompleted:    {StatusRefunded},
	StatusFailed:       {},
	StatusRefunded:     {},
}

// CanTransition reports whether a transition between two statuses is allowed.
func CanTransition(from, to DonationStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func IsTerminal(status DonationStatus) bool {
	return len(allowedTransitions[status]) == 0
}

// AllStatuses lists every status in lifecycle order.
func AllStatuses() []DonationStatus {
	return []DonationStatus{
		StatusPending,
		StatusBalanceCheck,
		StatusAuthorized,
		StatusCaptured,
		StatusCompleted,
		StatusFailed,
		StatusRefunded,
	}
}
