package repository

import (
	"context"
	"time"

	"transflow/internal/domain"
)

// RideRepository defines the persistence operations for ride records.
//
// Rides are inserted by intake and mutated exactly once by settlement
// (pending -> processed). No component deletes rides.
type RideRepository interface {
	// Insert persists a new ride and returns the storage-assigned ID.
	Insert(ctx context.Context, ride *domain.Ride) (int64, error)

	// MarkProcessed conditionally transitions the ride identified by
	// businessID from pending to processed, recording the settled fare.
	// It reports whether a pending row matched. A false result with a nil
	// error means the ride is either missing or already processed.
	MarkProcessed(ctx context.Context, businessID string, settledFare float64) (bool, error)

	// GetByBusinessID retrieves a ride by its business identifier.
	GetByBusinessID(ctx context.Context, businessID string) (*domain.Ride, error)

	// GetAll retrieves up to 100 rides, newest first.
	GetAll(ctx context.Context) ([]*domain.Ride, error)

	// GetByPaymentMethod retrieves up to 100 rides with the given payment
	// method, newest first.
	GetByPaymentMethod(ctx context.Context, method string) ([]*domain.Ride, error)

	// GetStalePending retrieves up to limit rides that are still pending
	// and were created before the cutoff. Used by the reconciliation
	// sweep to re-publish events that were lost after insert.
	GetStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Ride, error)
}
