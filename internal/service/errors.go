package service

import "errors"

var (
	// ErrInvalidPassengerName is returned when the passenger name is empty.
	ErrInvalidPassengerName = errors.New("invalid passenger name")

	// ErrInvalidDriverName is returned when the driver name is empty.
	ErrInvalidDriverName = errors.New("invalid driver name")

	// ErrInvalidFareAmount is returned when the fare amount is negative.
	ErrInvalidFareAmount = errors.New("invalid fare amount")
)
