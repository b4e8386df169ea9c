package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"transflow/internal/domain"
	"transflow/internal/service"
)

func validSubmitRequest() service.SubmitRideRequest {
	return service.SubmitRideRequest{
		Passenger:     domain.Passenger{Name: "Teste", Phone: "123"},
		Driver:        domain.Driver{Name: "Motorista Teste", Rating: 5.0},
		Origin:        "A",
		Destination:   "B",
		FareAmount:    20.0,
		PaymentMethod: "Pix",
	}
}

func TestIntake_CreatesPendingRideAndPublishes(t *testing.T) {
	rideRepo := NewMockRideRepository()
	publisher := NewMockPublisher()
	intake := service.NewIntakeService(rideRepo, publisher)

	ride, err := intake.Submit(context.Background(), validSubmitRequest())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if ride.Status != domain.RideStatusPending {
		t.Errorf("expected status pending at return time, got %s", ride.Status)
	}
	if ride.BusinessID == "" {
		t.Error("expected a business ID to be assigned")
	}
	if ride.StorageID == 0 {
		t.Error("expected a storage ID to be assigned")
	}

	// The record must exist in the store before the call returns.
	stored := rideRepo.GetRide(ride.BusinessID)
	if stored == nil {
		t.Fatal("expected ride to be persisted")
	}
	if stored.Status != domain.RideStatusPending {
		t.Errorf("expected persisted status pending, got %s", stored.Status)
	}

	events := publisher.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(events))
	}
	if events[0].BusinessID != ride.BusinessID {
		t.Errorf("event business ID %s does not match ride %s", events[0].BusinessID, ride.BusinessID)
	}
	if events[0].FareAmount != 20.0 {
		t.Errorf("expected event fare 20.0, got %f", events[0].FareAmount)
	}
}

func TestIntake_AssignsDistinctBusinessIDs(t *testing.T) {
	rideRepo := NewMockRideRepository()
	publisher := NewMockPublisher()
	intake := service.NewIntakeService(rideRepo, publisher)

	first, err := intake.Submit(context.Background(), validSubmitRequest())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	second, err := intake.Submit(context.Background(), validSubmitRequest())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if first.BusinessID == second.BusinessID {
		t.Errorf("expected distinct business IDs, both were %s", first.BusinessID)
	}
}

func TestIntake_Validation(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*service.SubmitRideRequest)
		wantErr error
	}{
		{"empty passenger name", func(r *service.SubmitRideRequest) { r.Passenger.Name = "" }, service.ErrInvalidPassengerName},
		{"empty driver name", func(r *service.SubmitRideRequest) { r.Driver.Name = "" }, service.ErrInvalidDriverName},
		{"negative fare", func(r *service.SubmitRideRequest) { r.FareAmount = -1.0 }, service.ErrInvalidFareAmount},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rideRepo := NewMockRideRepository()
			publisher := NewMockPublisher()
			intake := service.NewIntakeService(rideRepo, publisher)

			req := validSubmitRequest()
			tc.mutate(&req)

			_, err := intake.Submit(context.Background(), req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
			if rideRepo.InsertCallCount != 0 {
				t.Error("expected no insert on validation failure")
			}
			if publisher.PublishCallCount != 0 {
				t.Error("expected no publish on validation failure")
			}
		})
	}
}

func TestIntake_ZeroFareIsAccepted(t *testing.T) {
	rideRepo := NewMockRideRepository()
	publisher := NewMockPublisher()
	intake := service.NewIntakeService(rideRepo, publisher)

	req := validSubmitRequest()
	req.FareAmount = 0

	if _, err := intake.Submit(context.Background(), req); err != nil {
		t.Errorf("expected zero fare to be valid, got %v", err)
	}
}

func TestIntake_InsertFailurePublishesNothing(t *testing.T) {
	rideRepo := NewMockRideRepository()
	rideRepo.InsertError = errors.New("store unreachable")
	publisher := NewMockPublisher()
	intake := service.NewIntakeService(rideRepo, publisher)

	_, err := intake.Submit(context.Background(), validSubmitRequest())
	if err == nil {
		t.Fatal("expected error when insert fails")
	}

	if publisher.PublishCallCount != 0 {
		t.Error("expected no orphan event when insert fails")
	}
}

func TestIntake_PublishFailureKeepsRecord(t *testing.T) {
	rideRepo := NewMockRideRepository()
	publisher := NewMockPublisher()
	publisher.PublishError = errors.New("channel unreachable")
	intake := service.NewIntakeService(rideRepo, publisher)

	_, err := intake.Submit(context.Background(), validSubmitRequest())
	if err == nil {
		t.Fatal("expected error when publish fails")
	}

	// The record stays persisted: the reconciliation sweep re-emits it.
	if rideRepo.CountRides() != 1 {
		t.Errorf("expected the record to remain persisted, found %d rides", rideRepo.CountRides())
	}
}

func TestReconciler_RepublishesStalePending(t *testing.T) {
	rideRepo := NewMockRideRepository()
	publisher := NewMockPublisher()

	rideRepo.AddRide(&domain.Ride{
		BusinessID: "stale-1",
		Driver:     domain.Driver{Name: "Carla"},
		FareAmount: 10.0,
		Status:     domain.RideStatusPending,
		CreatedAt:  time.Now().Add(-time.Hour),
	})
	rideRepo.AddRide(&domain.Ride{
		BusinessID: "fresh-1",
		Driver:     domain.Driver{Name: "Carla"},
		FareAmount: 5.0,
		Status:     domain.RideStatusPending,
		CreatedAt:  time.Now(),
	})
	rideRepo.AddRide(&domain.Ride{
		BusinessID: "done-1",
		Driver:     domain.Driver{Name: "Carla"},
		FareAmount: 7.0,
		Status:     domain.RideStatusProcessed,
		CreatedAt:  time.Now().Add(-time.Hour),
	})

	reconciler := service.NewReconciler(rideRepo, publisher, 5*time.Minute, 100)

	published, err := reconciler.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("expected sweep to succeed, got %v", err)
	}

	if published != 1 {
		t.Fatalf("expected 1 re-published event, got %d", published)
	}

	events := publisher.Events()
	if events[0].BusinessID != "stale-1" {
		t.Errorf("expected stale-1 to be re-published, got %s", events[0].BusinessID)
	}
}
