package dto

import (
	"github.com/arcline/studio-backend/internal/signature"
)

// LineItemRequest represents a single line item of a change order
type LineItemRequest struct {
	Name        string  `json:"name" binding:"required"`
	Amount      float64 `json:"amount" binding:"required"`
	Description string  `json:"description"`
}

// CreateChangeOrderRequest represents the request to create a change order
type CreateChangeOrderRequest struct {
	ProjectID         string            `json:"project_id" binding:"required"`
	Title             string            `json:"title" binding:"required"`
	Description       string            `json:"description" binding:"required"`
	Reason            *string           `json:"reason"`
	Notes             *string           `json:"notes"`
	RequestedBy       string            `json:"requested_by" binding:"required"`
	DepositPercentage float64           `json:"deposit_percentage"`
	LineItems         []LineItemRequest `json:"line_items" binding:"required"`
	AsDraft           bool              `json:"as_draft"`
}

// UpdateChangeOrderRequest represents a partial update of a change order.
// Nil-поля не меняются; line_items заменяются целиком, если переданы.
type UpdateChangeOrderRequest struct {
	Title             *string           `json:"title"`
	Description       *string           `json:"description"`
	Reason            *string           `json:"reason"`
	Notes             *string           `json:"notes"`
	RequestedBy       *string           `json:"requested_by"`
	DepositPercentage *float64          `json:"deposit_percentage"`
	LineItems         []LineItemRequest `json:"line_items"`
}

// SignChangeOrderRequest represents the request to sign a change order internally.
// Штрихи приходят в координатах холста на устройстве; display_* задают его
// отображаемый размер для нормализации. use_saved_signature подставляет
// сохранённую подпись профиля, если штрихов нет.
type SignChangeOrderRequest struct {
	Strokes           [][]signature.Point `json:"strokes"`
	DisplayWidth      float64             `json:"display_width"`
	DisplayHeight     float64             `json:"display_height"`
	UseSavedSignature bool                `json:"use_saved_signature"`
	SaveSignature     *bool               `json:"save_signature"`
}

// SaveSignatureOrDefault возвращает флаг сохранения подписи в профиль
// (по умолчанию включён).
func (r *SignChangeOrderRequest) SaveSignatureOrDefault() bool {
	if r.SaveSignature == nil {
		return true
	}
	return *r.SaveSignature
}
