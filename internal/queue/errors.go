package queue

import "errors"

var (
	// ErrMalformedEvent is returned when a delivered message cannot be
	// decoded into a settlement event. Such messages are acknowledged and
	// dropped: requeueing a payload that can never decode would loop
	// forever.
	ErrMalformedEvent = errors.New("malformed settlement event")
)
