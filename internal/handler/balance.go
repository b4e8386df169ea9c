package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"transflow/internal/redis"
)

// BalanceHandler handles HTTP requests for driver balances.
type BalanceHandler struct {
	balances redis.BalanceStoreInterface
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balances redis.BalanceStoreInterface) *BalanceHandler {
	return &BalanceHandler{balances: balances}
}

// BalanceResponse is the HTTP representation of a driver balance. The
// field names are the system's original wire contract.
type BalanceResponse struct {
	Driver  string  `json:"motorista"`
	Balance float64 `json:"saldo"`
}

// GetBalance handles GET /saldo/:driver_name
//
// A driver that was never settled reads as 0.0, not as an error.
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	driver := strings.ToLower(c.Param("driver_name"))

	balance, err := h.balances.Get(c.Request.Context(), driver)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BalanceResponse{
		Driver:  driver,
		Balance: balance,
	})
}
