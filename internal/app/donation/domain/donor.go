package domain

// DonorKind tags the two ways a donor can be identified.
type DonorKind string

const (
	DonorAuthenticated DonorKind = "authenticated"
	DonorGuest         DonorKind = "guest"
)

// Donor is a tagged variant: either an authenticated user with an id, or an
// anonymous guest. It replaces nullable user-id fields threaded through the
// orchestrator.
type Donor struct {
	Kind   DonorKind
	UserID string // set only when Kind == DonorAuthenticated
}

// AuthenticatedDonor creates a Donor for a known user.
func AuthenticatedDonor(userID string) Donor {
	return Donor{Kind: DonorAuthenticated, UserID: userID}
}

// GuestDonor creates an anonymous Donor.
func GuestDonor() Donor {
	return Donor{Kind: DonorGuest}
}

// IsAuthenticated reports whether the donor carries a user id.
func (d Donor) IsAuthenticated() bool {
	return d.Kind == DonorAuthenticated
}
