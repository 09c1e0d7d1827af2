package dto

import (
	"github.com/arcline/studio-backend/internal/models"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a standardized success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ChangeOrderResponse represents a change order with derived fields.
// allowed_actions отдаёт UI полный набор легальных действий, чтобы guard-логика
// не дублировалась на клиенте.
type ChangeOrderResponse struct {
	*models.ChangeOrder
	DepositAmount  float64                    `json:"deposit_amount"`
	AllowedActions []models.ChangeOrderAction `json:"allowed_actions"`
}

// NewChangeOrderResponse creates a ChangeOrderResponse from a record
func NewChangeOrderResponse(co *models.ChangeOrder) *ChangeOrderResponse {
	return &ChangeOrderResponse{
		ChangeOrder:    co,
		DepositAmount:  co.DepositAmount(),
		AllowedActions: co.AllowedActions(),
	}
}

// NewChangeOrderListResponse converts a slice of records
func NewChangeOrderListResponse(orders []models.ChangeOrder) []*ChangeOrderResponse {
	out := make([]*ChangeOrderResponse, len(orders))
	for i := range orders {
		out[i] = NewChangeOrderResponse(&orders[i])
	}
	return out
}
