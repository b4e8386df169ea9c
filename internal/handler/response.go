package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"transflow/internal/repository"
	"transflow/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrInvalidPassengerName),
		errors.Is(err, service.ErrInvalidDriverName),
		errors.Is(err, service.ErrInvalidFareAmount):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
