package redis

import "context"

// BalanceStoreInterface defines the interface for driver balance operations.
type BalanceStoreInterface interface {
	Increment(ctx context.Context, driverName string, amount float64) (float64, error)
	Get(ctx context.Context, driverName string) (float64, error)
}

// SettlementGuardInterface defines the interface for the settlement
// idempotency guard.
type SettlementGuardInterface interface {
	MarkSettled(ctx context.Context, businessID string) (bool, error)
	Unmark(ctx context.Context, businessID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ BalanceStoreInterface    = (*BalanceStore)(nil)
	_ SettlementGuardInterface = (*SettlementGuard)(nil)
)
