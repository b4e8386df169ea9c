package redis

import (
	"context"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const balanceKeyPrefix = "saldo:"

// BalanceStore holds driver balances in Redis.
//
// A driver's only identity here is the lower-cased name: two drivers whose
// names collide after normalization share a balance. Balances are created
// implicitly on first increment and only ever grow.
type BalanceStore struct {
	client *redis.Client
}

// NewBalanceStore creates a new BalanceStore.
func NewBalanceStore(client *redis.Client) *BalanceStore {
	return &BalanceStore{client: client}
}

// BalanceKey derives the balance key for a driver name.
func BalanceKey(driverName string) string {
	return balanceKeyPrefix + strings.ToLower(driverName)
}

// Increment atomically adds amount to the driver's balance and returns the
// new total. Concurrent increments for the same driver are serialized by
// Redis itself (INCRBYFLOAT), not by the caller.
func (s *BalanceStore) Increment(ctx context.Context, driverName string, amount float64) (float64, error) {
	return s.client.IncrByFloat(ctx, BalanceKey(driverName), amount).Result()
}

// Get returns the driver's balance. A driver that has never been settled
// reads as 0.0, not an error.
func (s *BalanceStore) Get(ctx context.Context, driverName string) (float64, error) {
	val, err := s.client.Get(ctx, BalanceKey(driverName)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0.0, nil
		}
		return 0, err
	}

	return strconv.ParseFloat(val, 64)
}
