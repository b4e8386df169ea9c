package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"transflow/internal/domain"
	"transflow/internal/repository"
)

// SettlementPublisher publishes settlement events to the event channel.
type SettlementPublisher interface {
	PublishSettlement(ctx context.Context, event domain.RideSettlementEvent) error
}

// IntakeService accepts new rides: it assigns the business identifier,
// persists the pending record, and emits the settlement event.
type IntakeService struct {
	rideRepo  repository.RideRepository
	publisher SettlementPublisher
}

// NewIntakeService creates a new IntakeService.
func NewIntakeService(rideRepo repository.RideRepository, publisher SettlementPublisher) *IntakeService {
	return &IntakeService{
		rideRepo:  rideRepo,
		publisher: publisher,
	}
}

// SubmitRideRequest contains the parameters for registering a ride.
type SubmitRideRequest struct {
	Passenger     domain.Passenger
	Driver        domain.Driver
	Origin        string
	Destination   string
	FareAmount    float64
	PaymentMethod string
}

// Submit registers a new ride. The record is inserted with pending status
// before the settlement event is published, so a consumer can only ever
// see an event for a ride the store has accepted. The returned ride still
// reads pending: settlement happens asynchronously.
//
// If the insert fails nothing is published. If the publish fails after the
// insert, the error is returned with the record already persisted; the
// reconciliation sweep re-emits events for such rides.
func (s *IntakeService) Submit(ctx context.Context, req SubmitRideRequest) (*domain.Ride, error) {
	if err := validateSubmitRequest(req); err != nil {
		return nil, err
	}

	ride := &domain.Ride{
		BusinessID:    uuid.New().String(),
		Passenger:     req.Passenger,
		Driver:        req.Driver,
		Origin:        req.Origin,
		Destination:   req.Destination,
		FareAmount:    req.FareAmount,
		PaymentMethod: req.PaymentMethod,
		Status:        domain.RideStatusPending,
		CreatedAt:     time.Now(),
	}

	if _, err := s.rideRepo.Insert(ctx, ride); err != nil {
		return nil, fmt.Errorf("insert ride: %w", err)
	}

	if err := s.publisher.PublishSettlement(ctx, domain.SettlementEventFromRide(ride)); err != nil {
		return nil, fmt.Errorf("publish settlement event for ride %s: %w", ride.BusinessID, err)
	}

	return ride, nil
}

func validateSubmitRequest(req SubmitRideRequest) error {
	if req.Passenger.Name == "" {
		return ErrInvalidPassengerName
	}
	if req.Driver.Name == "" {
		return ErrInvalidDriverName
	}
	if req.FareAmount < 0 {
		return ErrInvalidFareAmount
	}
	return nil
}
