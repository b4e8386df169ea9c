package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"transflow/internal/domain"
	"transflow/internal/repository"
	"transflow/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	intakeService *service.IntakeService
	rideRepo      repository.RideRepository
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(intakeService *service.IntakeService, rideRepo repository.RideRepository) *RideHandler {
	return &RideHandler{
		intakeService: intakeService,
		rideRepo:      rideRepo,
	}
}

// PassengerPayload is the passenger sub-object of a create-ride request.
type PassengerPayload struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// DriverPayload is the driver sub-object of a create-ride request.
type DriverPayload struct {
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
}

// CreateRideRequest is the HTTP request body for registering a ride.
type CreateRideRequest struct {
	Passenger     PassengerPayload `json:"passenger"`
	Driver        DriverPayload    `json:"driver"`
	Origin        string           `json:"origin"`
	Destination   string           `json:"destination"`
	FareAmount    float64          `json:"fare_amount"`
	PaymentMethod string           `json:"payment_method"`
}

// RideResponse is the HTTP representation of a ride record.
type RideResponse struct {
	BusinessID    string           `json:"business_id"`
	StorageID     int64            `json:"storage_id"`
	Passenger     PassengerPayload `json:"passenger"`
	Driver        DriverPayload    `json:"driver"`
	Origin        string           `json:"origin"`
	Destination   string           `json:"destination"`
	FareAmount    float64          `json:"fare_amount"`
	PaymentMethod string           `json:"payment_method"`
	Status        string           `json:"status"`
	SettledFare   float64          `json:"settled_fare,omitempty"`
	CreatedAt     string           `json:"created_at,omitempty"`
}

// CreateRide handles POST /corridas
func (h *RideHandler) CreateRide(c *gin.Context) {
	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.intakeService.Submit(c.Request.Context(), service.SubmitRideRequest{
		Passenger:     domain.Passenger{Name: req.Passenger.Name, Phone: req.Passenger.Phone},
		Driver:        domain.Driver{Name: req.Driver.Name, Rating: req.Driver.Rating},
		Origin:        req.Origin,
		Destination:   req.Destination,
		FareAmount:    req.FareAmount,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, rideToResponse(ride))
}

// GetAll handles GET /corridas
func (h *RideHandler) GetAll(c *gin.Context) {
	rides, err := h.rideRepo.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ridesToResponse(rides))
}

// GetByPaymentMethod handles GET /corridas/:payment_method
func (h *RideHandler) GetByPaymentMethod(c *gin.Context) {
	method := c.Param("payment_method")

	rides, err := h.rideRepo.GetByPaymentMethod(c.Request.Context(), method)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ridesToResponse(rides))
}

func rideToResponse(ride *domain.Ride) RideResponse {
	resp := RideResponse{
		BusinessID:    ride.BusinessID,
		StorageID:     ride.StorageID,
		Passenger:     PassengerPayload{Name: ride.Passenger.Name, Phone: ride.Passenger.Phone},
		Driver:        DriverPayload{Name: ride.Driver.Name, Rating: ride.Driver.Rating},
		Origin:        ride.Origin,
		Destination:   ride.Destination,
		FareAmount:    ride.FareAmount,
		PaymentMethod: ride.PaymentMethod,
		Status:        string(ride.Status),
		SettledFare:   ride.SettledFare,
	}

	if !ride.CreatedAt.IsZero() {
		resp.CreatedAt = ride.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	return resp
}

func ridesToResponse(rides []*domain.Ride) []RideResponse {
	response := make([]RideResponse, 0, len(rides))
	for _, r := range rides {
		response = append(response, rideToResponse(r))
	}
	return response
}
