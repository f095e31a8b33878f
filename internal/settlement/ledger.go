package settlement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/light-bringer/donation-service/internal/app/donation/contracts"
	"github.com/light-bringer/donation-service/internal/app/donation/domain"
)

// Ledger is the mock settlement backend: an in-memory account-balance map
// with simulated latency. Deduct and Refund mutate destructively and are
// not idempotent; safety against duplicate debits comes entirely from the
// orchestrator's one-directional status progression.
type Ledger struct {
	mu       sync.Mutex
	balances map[string]int64
	latency  time.Duration
}

// NewLedger creates a Ledger with the given simulated call latency.
func NewLedger(latency time.Duration) *Ledger {
	return &Ledger{
		balances: make(map[string]int64),
		latency:  latency,
	}
}

// Seed sets an account balance directly. Test and bootstrap helper.
func (l *Ledger) Seed(accountID string, balance int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[accountID] = balance
}

// Balance returns the current balance of an account. Unknown accounts
// report zero.
func (l *Ledger) Balance(accountID string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[accountID]
}

// CheckBalance probes whether the account can cover the amount.
func (l *Ledger) CheckBalance(ctx context.Context, accountID string, amount int64) (contracts.BalanceCheck, error) {
	if err := l.wait(ctx); err != nil {
		return contracts.BalanceCheck{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	balance := l.balances[accountID]
	return contracts.BalanceCheck{
		Sufficient: balance >= amount,
		Balance:    balance,
	}, nil
}

// Deduct removes the amount from the account balance.
func (l *Ledger) Deduct(ctx context.Context, accountID string, amount int64) error {
	if err := l.wait(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	balance := l.balances[accountID]
	if balance < amount {
		return fmt.Errorf("account %s holds %d, requested %d: %w",
			accountID, balance, amount, domain.ErrInsufficientBalance)
	}
	l.balances[accountID] = balance - amount
	return nil
}

// Refund credits the amount back to the account balance.
func (l *Ledger) Refund(ctx context.Context, accountID string, amount int64) error {
	if err := l.wait(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[accountID] += amount
	return nil
}

// wait simulates settlement-network latency, honoring cancellation.
func (l *Ledger) wait(ctx context.Context) error {
	if l.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(l.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
