package domain

// RideSettlementEvent is the wire payload published to the settlement
// queue. It carries enough of the ride to settle without re-reading the
// record store. Redelivery with the same business_id and fare_amount must
// be tolerated by the consumer.
type RideSettlementEvent struct {
	BusinessID    string    `json:"business_id"`
	Passenger     Passenger `json:"passenger"`
	Driver        Driver    `json:"driver"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	FareAmount    float64   `json:"fare_amount"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
}

// SettlementEventFromRide builds the event published when a ride is
// accepted.
func SettlementEventFromRide(ride *Ride) RideSettlementEvent {
	return RideSettlementEvent{
		BusinessID:    ride.BusinessID,
		Passenger:     ride.Passenger,
		Driver:        ride.Driver,
		Origin:        ride.Origin,
		Destination:   ride.Destination,
		FareAmount:    ride.FareAmount,
		PaymentMethod: ride.PaymentMethod,
		Status:        string(ride.Status),
	}
}
