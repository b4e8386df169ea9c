package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"transflow/internal/domain"
	"transflow/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

const rideColumns = `id, business_id, passenger_name, passenger_phone, driver_name, driver_rating, origin, destination, fare_amount, payment_method, status, settled_fare, created_at`

// Insert persists a new ride and returns the storage-assigned ID.
func (r *RideRepository) Insert(ctx context.Context, ride *domain.Ride) (int64, error) {
	query := `
		INSERT INTO rides (business_id, passenger_name, passenger_phone, driver_name, driver_rating, origin, destination, fare_amount, payment_method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	var id int64
	err := r.q.QueryRowContext(ctx, query,
		ride.BusinessID,
		ride.Passenger.Name,
		ride.Passenger.Phone,
		ride.Driver.Name,
		ride.Driver.Rating,
		ride.Origin,
		ride.Destination,
		ride.FareAmount,
		ride.PaymentMethod,
		ride.Status,
		ride.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	ride.StorageID = id
	return id, nil
}

// MarkProcessed conditionally transitions a pending ride to processed.
// Only rows still in pending status match, so a redelivered event is a
// no-op here regardless of how many workers race on the same business ID.
func (r *RideRepository) MarkProcessed(ctx context.Context, businessID string, settledFare float64) (bool, error) {
	query := `
		UPDATE rides
		SET status = $1, settled_fare = $2
		WHERE business_id = $3 AND status = $4
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.RideStatusProcessed,
		settledFare,
		businessID,
		domain.RideStatusPending,
	)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// GetByBusinessID retrieves a ride by its business identifier.
func (r *RideRepository) GetByBusinessID(ctx context.Context, businessID string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE business_id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, businessID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// GetAll retrieves up to 100 rides, newest first.
func (r *RideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides ORDER BY created_at DESC LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRides(rows)
}

// GetByPaymentMethod retrieves up to 100 rides with the given payment method.
func (r *RideRepository) GetByPaymentMethod(ctx context.Context, method string) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE payment_method = $1 ORDER BY created_at DESC LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query, method)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRides(rows)
}

// GetStalePending retrieves pending rides created before the cutoff.
func (r *RideRepository) GetStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE status = $1 AND created_at < $2 ORDER BY created_at ASC LIMIT $3`

	rows, err := r.q.QueryContext(ctx, query, domain.RideStatusPending, createdBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRides(rows)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var settledFare sql.NullFloat64

	err := row.Scan(
		&ride.StorageID,
		&ride.BusinessID,
		&ride.Passenger.Name,
		&ride.Passenger.Phone,
		&ride.Driver.Name,
		&ride.Driver.Rating,
		&ride.Origin,
		&ride.Destination,
		&ride.FareAmount,
		&ride.PaymentMethod,
		&ride.Status,
		&settledFare,
		&ride.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if settledFare.Valid {
		ride.SettledFare = settledFare.Float64
	}

	return &ride, nil
}

func collectRides(rows *sql.Rows) ([]*domain.Ride, error) {
	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}
