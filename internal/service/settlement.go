package service

import (
	"context"
	"fmt"
	"log"

	"transflow/internal/domain"
	"transflow/internal/metrics"
	"transflow/internal/redis"
	"transflow/internal/repository"
)

// Outcome classifies how a settlement delivery was resolved.
type Outcome string

const (
	// OutcomeSettled means the driver was credited and the record moved to
	// processed.
	OutcomeSettled Outcome = "settled"

	// OutcomeUnmatched means no pending record matched the business ID.
	// The delivery is dropped, not requeued: a permanently missing record
	// would otherwise redeliver forever.
	OutcomeUnmatched Outcome = "unmatched"

	// OutcomeDuplicate means the idempotency guard recognized a redelivery
	// and the balance increment was skipped.
	OutcomeDuplicate Outcome = "duplicate"
)

// SettlementProcessor settles delivered ride events: it credits the
// driver's balance, then transitions the ride record to processed. It owns
// no state of its own; it is a transition function over the two stores.
//
// The guard is optional. Without it, a redelivered event credits the
// driver again while the record transition stays a no-op; that asymmetry
// is the documented at-least-once cost.
type SettlementProcessor struct {
	rideRepo repository.RideRepository
	balances redis.BalanceStoreInterface
	guard    redis.SettlementGuardInterface
}

// NewSettlementProcessor creates a new SettlementProcessor. guard may be
// nil to run without duplicate-delivery protection.
func NewSettlementProcessor(
	rideRepo repository.RideRepository,
	balances redis.BalanceStoreInterface,
	guard redis.SettlementGuardInterface,
) *SettlementProcessor {
	return &SettlementProcessor{
		rideRepo: rideRepo,
		balances: balances,
		guard:    guard,
	}
}

// Process settles one delivered event.
//
// The balance increment happens before the record lookup, mirroring the
// delivery contract: an event for an unknown business ID still credits
// the driver. Any returned error means neither log-and-drop nor success;
// the caller hands the delivery back to the channel for redelivery.
func (p *SettlementProcessor) Process(ctx context.Context, event domain.RideSettlementEvent) (Outcome, error) {
	log.Printf("[SETTLEMENT] processing ride %s", event.BusinessID)

	firstDelivery := true
	claimedNow := false
	if p.guard != nil {
		first, err := p.guard.MarkSettled(ctx, event.BusinessID)
		if err != nil {
			// Guard unavailable: fall back to unguarded behavior rather
			// than blocking settlement.
			log.Printf("[SETTLEMENT] guard unavailable for %s: %v", event.BusinessID, err)
		} else {
			firstDelivery = first
			claimedNow = first
		}
	}

	if firstDelivery {
		newTotal, err := p.balances.Increment(ctx, event.Driver.Name, event.FareAmount)
		if err != nil {
			// Release the marker so the redelivery retries the credit
			// instead of skipping it as a duplicate.
			if claimedNow {
				if unmarkErr := p.guard.Unmark(ctx, event.BusinessID); unmarkErr != nil {
					log.Printf("[SETTLEMENT] could not release guard for %s: %v", event.BusinessID, unmarkErr)
				}
			}
			metrics.SettlementFailures.Inc()
			return "", fmt.Errorf("increment balance for %s: %w", event.Driver.Name, err)
		}
		log.Printf("[SETTLEMENT] balance of %s is now %.2f", event.Driver.Name, newTotal)
	} else {
		log.Printf("[SETTLEMENT] ride %s already credited, skipping increment", event.BusinessID)
	}

	matched, err := p.rideRepo.MarkProcessed(ctx, event.BusinessID, event.FareAmount)
	if err != nil {
		metrics.SettlementFailures.Inc()
		return "", fmt.Errorf("mark ride %s processed: %w", event.BusinessID, err)
	}

	outcome := OutcomeSettled
	switch {
	case matched:
		log.Printf("[SETTLEMENT] ride %s marked processed", event.BusinessID)
	case !firstDelivery:
		outcome = OutcomeDuplicate
	default:
		// Either the record never existed or an earlier delivery already
		// processed it. Logged and dropped either way.
		outcome = OutcomeUnmatched
		log.Printf("[SETTLEMENT] no pending record for ride %s, dropping", event.BusinessID)
	}

	metrics.SettlementsTotal.WithLabelValues(string(outcome)).Inc()
	return outcome, nil
}
