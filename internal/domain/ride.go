package domain

import "time"

// RideStatus represents the settlement status of a ride.
type RideStatus string

const (
	// RideStatusPending means the ride is recorded but the driver has not
	// been credited yet.
	RideStatusPending RideStatus = "pending"

	// RideStatusProcessed means settlement has credited the driver and the
	// record is terminal. A ride never leaves this status.
	RideStatusProcessed RideStatus = "processed"
)

// Passenger identifies who took the ride.
type Passenger struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Driver identifies who drove the ride. Name is the only identity the
// balance store knows; it is lower-cased before being used as a key.
type Driver struct {
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
}

// Ride represents a ride record in the system.
//
// BusinessID is assigned at intake time and is the join key between the
// record store and settlement events. StorageID is assigned by the record
// store on insert and is exposed to clients but never used for settlement
// lookups.
type Ride struct {
	BusinessID    string
	StorageID     int64
	Passenger     Passenger
	Driver        Driver
	Origin        string
	Destination   string
	FareAmount    float64
	PaymentMethod string
	Status        RideStatus
	SettledFare   float64
	CreatedAt     time.Time
}
