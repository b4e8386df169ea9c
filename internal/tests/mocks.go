package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"transflow/internal/domain"
	"transflow/internal/redis"
	"transflow/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of repository.RideRepository.
type MockRideRepository struct {
	mu     sync.RWMutex
	rides  map[string]*domain.Ride
	nextID int64

	// Counters for verification
	InsertCallCount        int32
	MarkProcessedCallCount int32

	// Error injection
	InsertError        error
	MarkProcessedError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide seeds a ride into the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.BusinessID] = ride
}

func (m *MockRideRepository) Insert(ctx context.Context, ride *domain.Ride) (int64, error) {
	atomic.AddInt32(&m.InsertCallCount, 1)
	if m.InsertError != nil {
		return 0, m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	ride.StorageID = m.nextID
	m.rides[ride.BusinessID] = ride
	return ride.StorageID, nil
}

func (m *MockRideRepository) MarkProcessed(ctx context.Context, businessID string, settledFare float64) (bool, error) {
	atomic.AddInt32(&m.MarkProcessedCallCount, 1)
	if m.MarkProcessedError != nil {
		return false, m.MarkProcessedError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[businessID]
	if !ok || ride.Status != domain.RideStatusPending {
		return false, nil
	}
	ride.Status = domain.RideStatusProcessed
	ride.SettledFare = settledFare
	return true, nil
}

func (m *MockRideRepository) GetByBusinessID(ctx context.Context, businessID string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[businessID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0, len(m.rides))
	for _, r := range m.rides {
		copy := *r
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockRideRepository) GetByPaymentMethod(ctx context.Context, method string) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Ride
	for _, r := range m.rides {
		if r.PaymentMethod == method {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockRideRepository) GetStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Ride
	for _, r := range m.rides {
		if r.Status == domain.RideStatusPending && r.CreatedAt.Before(createdBefore) && len(result) < limit {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result, nil
}

// GetRide returns the ride by business ID (for test assertions).
func (m *MockRideRepository) GetRide(businessID string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[businessID]
}

// CountRides returns the number of rides.
func (m *MockRideRepository) CountRides() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rides)
}

// ──────────────────────────────────────────────
// MOCK BALANCE STORE
// ──────────────────────────────────────────────

// MockBalanceStore is a mock implementation of redis.BalanceStoreInterface.
// It normalizes keys with the real key derivation so case-insensitivity is
// exercised by the same code paths the Redis store uses.
type MockBalanceStore struct {
	mu       sync.Mutex
	balances map[string]float64

	// Counters for verification
	IncrementCallCount int32

	// Error injection
	IncrementError error
	GetError       error
}

// NewMockBalanceStore creates a new mock balance store.
func NewMockBalanceStore() *MockBalanceStore {
	return &MockBalanceStore{
		balances: make(map[string]float64),
	}
}

func (m *MockBalanceStore) Increment(ctx context.Context, driverName string, amount float64) (float64, error) {
	atomic.AddInt32(&m.IncrementCallCount, 1)
	if m.IncrementError != nil {
		return 0, m.IncrementError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := redis.BalanceKey(driverName)
	m.balances[key] += amount
	return m.balances[key], nil
}

func (m *MockBalanceStore) Get(ctx context.Context, driverName string) (float64, error) {
	if m.GetError != nil {
		return 0, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[redis.BalanceKey(driverName)], nil
}

// Balance returns the stored balance for assertions.
func (m *MockBalanceStore) Balance(driverName string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[redis.BalanceKey(driverName)]
}

// ──────────────────────────────────────────────
// MOCK SETTLEMENT PUBLISHER
// ──────────────────────────────────────────────

// MockPublisher is a mock implementation of service.SettlementPublisher.
type MockPublisher struct {
	mu     sync.Mutex
	events []domain.RideSettlementEvent

	// Counters for verification
	PublishCallCount int32

	// Error injection
	PublishError error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishSettlement(ctx context.Context, event domain.RideSettlementEvent) error {
	atomic.AddInt32(&m.PublishCallCount, 1)
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns the published events for assertions.
func (m *MockPublisher) Events() []domain.RideSettlementEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]domain.RideSettlementEvent, len(m.events))
	copy(result, m.events)
	return result
}

// ──────────────────────────────────────────────
// MOCK SETTLEMENT GUARD
// ──────────────────────────────────────────────

// MockSettlementGuard is a mock implementation of
// redis.SettlementGuardInterface.
type MockSettlementGuard struct {
	mu      sync.Mutex
	settled map[string]bool

	// Error injection
	MarkError   error
	UnmarkError error
}

// NewMockSettlementGuard creates a new mock settlement guard.
func NewMockSettlementGuard() *MockSettlementGuard {
	return &MockSettlementGuard{
		settled: make(map[string]bool),
	}
}

func (m *MockSettlementGuard) MarkSettled(ctx context.Context, businessID string) (bool, error) {
	if m.MarkError != nil {
		return false, m.MarkError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settled[businessID] {
		return false, nil
	}
	m.settled[businessID] = true
	return true, nil
}

func (m *MockSettlementGuard) Unmark(ctx context.Context, businessID string) error {
	if m.UnmarkError != nil {
		return m.UnmarkError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.settled, businessID)
	return nil
}

// Ensure mocks satisfy the interfaces they stand in for.
var (
	_ repository.RideRepository      = (*MockRideRepository)(nil)
	_ redis.BalanceStoreInterface    = (*MockBalanceStore)(nil)
	_ redis.SettlementGuardInterface = (*MockSettlementGuard)(nil)
)
