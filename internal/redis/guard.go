package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const settledKeyPrefix = "settled:"

// SettlementGuard tracks which business IDs have already been settled so a
// redelivered event does not credit the driver twice.
//
// The marker is claimed before the balance increment and released again
// when the increment fails, so a transient store error retries the credit
// on redelivery. A crash between claim and increment still loses that one
// credit; the conditional record update goes through on redelivery either
// way.
type SettlementGuard struct {
	client *redis.Client
}

// NewSettlementGuard creates a new SettlementGuard.
func NewSettlementGuard(client *redis.Client) *SettlementGuard {
	return &SettlementGuard{client: client}
}

// MarkSettled records that the business ID is being settled. It returns
// true when this is the first time the ID was seen, false when a previous
// delivery already claimed it.
func (g *SettlementGuard) MarkSettled(ctx context.Context, businessID string) (bool, error) {
	return g.client.SetNX(ctx, settledKeyPrefix+businessID, "1", 0).Result()
}

// Unmark releases a claimed marker so the next delivery of the same
// business ID counts as the first again.
func (g *SettlementGuard) Unmark(ctx context.Context, businessID string) error {
	return g.client.Del(ctx, settledKeyPrefix+businessID).Err()
}
