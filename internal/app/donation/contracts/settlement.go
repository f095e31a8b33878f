package contracts

import "context"

// BalanceCheck is the result of probing an account before a deduction.
type BalanceCheck struct {
	Sufficient bool
	Balance    int64
}

// SettlementBackend holds and mutates account balances. Deduct and Refund
// are destructive and not idempotent; callers must gate them behind a
// one-directional status progression so each runs at most once per donation.
type SettlementBackend interface {
	CheckBalance(ctx context.Context, accountID string, amount int64) (BalanceCheck, error)
	Deduct(ctx context.Context, accountID string, amount int64) error
	Refund(ctx context.Context, accountID string, amount int64) error
}
