package service

import (
	"context"
	"log"
	"time"

	"transflow/internal/domain"
	"transflow/internal/repository"
)

// Reconciler re-publishes settlement events for rides that stayed pending
// past a cutoff. It closes the gap intake cannot heal alone: a record that
// was persisted but whose event publish failed would otherwise never
// settle.
//
// Re-publishing a ride whose original event is merely slow is possible and
// accepted: the resulting duplicate delivery is the same at-least-once
// case the worker already handles.
type Reconciler struct {
	rideRepo  repository.RideRepository
	publisher SettlementPublisher
	after     time.Duration
	batch     int
}

// NewReconciler creates a new Reconciler. after is how old a pending ride
// must be before it is swept; batch caps one sweep's re-publishes.
func NewReconciler(rideRepo repository.RideRepository, publisher SettlementPublisher, after time.Duration, batch int) *Reconciler {
	return &Reconciler{
		rideRepo:  rideRepo,
		publisher: publisher,
		after:     after,
		batch:     batch,
	}
}

// RunOnce sweeps stale pending rides and re-publishes their settlement
// events. It returns how many events were published.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-r.after)

	rides, err := r.rideRepo.GetStalePending(ctx, cutoff, r.batch)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, ride := range rides {
		if err := r.publisher.PublishSettlement(ctx, domain.SettlementEventFromRide(ride)); err != nil {
			// Keep sweeping; the next run picks this ride up again.
			log.Printf("[RECONCILE] re-publish of ride %s failed: %v", ride.BusinessID, err)
			continue
		}
		published++
	}

	if published > 0 {
		log.Printf("[RECONCILE] re-published %d stale pending rides", published)
	}

	return published, nil
}

// Run sweeps on the given interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				log.Printf("[RECONCILE] sweep failed: %v", err)
			}
		}
	}
}
