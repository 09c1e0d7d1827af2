package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arcline/studio-backend/internal/domain/valueobject"
	"github.com/arcline/studio-backend/internal/dto"
	"github.com/arcline/studio-backend/internal/http/handlers/common"
	"github.com/arcline/studio-backend/internal/models"
	"github.com/arcline/studio-backend/internal/pkg/apperror"
	"github.com/arcline/studio-backend/internal/repository"
	"github.com/arcline/studio-backend/internal/service"
	"github.com/arcline/studio-backend/internal/signature"
	"github.com/arcline/studio-backend/internal/validation"
)

// ChangeOrderHandler обслуживает HTTP API изменений к договору.
type ChangeOrderHandler struct {
	orders *service.ChangeOrderService
	users  *repository.UserRepository
}

// NewChangeOrderHandler создаёт новый хэндлер.
func NewChangeOrderHandler(orders *service.ChangeOrderService, users *repository.UserRepository) *ChangeOrderHandler {
	return &ChangeOrderHandler{orders: orders, users: users}
}

// Create обрабатывает POST /change-orders.
func (h *ChangeOrderHandler) Create(c *gin.Context) {
	var req dto.CreateChangeOrderRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		common.RespondBadRequest(c, "project_id содержит некорректный UUID")
		return
	}

	if err := h.validateFields(req.Title, req.Description, req.Reason, req.Notes, req.LineItems); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	co, err := h.orders.Create(c.Request.Context(), service.CreateChangeOrderInput{
		ProjectID:         projectID,
		Title:             req.Title,
		Description:       req.Description,
		Reason:            req.Reason,
		Notes:             req.Notes,
		RequestedBy:       valueobject.RequestedBy(req.RequestedBy),
		DepositPercentage: req.DepositPercentage,
		LineItems:         toLineItems(req.LineItems),
	}, req.AsDraft)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, dto.NewChangeOrderResponse(co))
}

// Get обрабатывает GET /change-orders/:id.
func (h *ChangeOrderHandler) Get(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	co, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.NewChangeOrderResponse(co))
}

// ListByProject обрабатывает GET /projects/:id/change-orders.
func (h *ChangeOrderHandler) ListByProject(c *gin.Context) {
	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	orders, err := h.orders.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.NewChangeOrderListResponse(orders))
}

// Update обрабатывает PATCH /change-orders/:id.
func (h *ChangeOrderHandler) Update(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateChangeOrderRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if req.Title != nil {
		if err := validation.ValidateChangeOrderTitle(*req.Title); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}
	if req.Description != nil {
		if err := validation.ValidateChangeOrderDescription(*req.Description); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}
	if err := validation.ValidateReason(req.Reason); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateNotes(req.Notes); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if req.LineItems != nil {
		if err := validation.ValidateLineItemRequests(req.LineItems); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}

	input := service.UpdateChangeOrderInput{
		Title:             req.Title,
		Description:       req.Description,
		Reason:            req.Reason,
		Notes:             req.Notes,
		DepositPercentage: req.DepositPercentage,
	}
	if req.RequestedBy != nil {
		rb := valueobject.RequestedBy(*req.RequestedBy)
		input.RequestedBy = &rb
	}
	if req.LineItems != nil {
		input.LineItems = toLineItems(req.LineItems)
	}

	co, err := h.orders.Edit(c.Request.Context(), id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.NewChangeOrderResponse(co))
}

// Sign обрабатывает POST /change-orders/:id/sign: собирает растр подписи из
// штрихов (или сохранённой подписи профиля) и ставит внутреннюю подпись.
func (h *ChangeOrderHandler) Sign(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		common.RespondUnauthorized(c, "пользователь не найден")
		return
	}

	var req dto.SignChangeOrderRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	canvas := signature.NewCanvas()
	if req.DisplayWidth > 0 && req.DisplayHeight > 0 {
		canvas.SetDisplaySize(req.DisplayWidth, req.DisplayHeight)
	}
	if req.UseSavedSignature {
		if err := canvas.LoadSaved(user.SavedSignature); err != nil {
			respondServiceError(c, err)
			return
		}
	}
	for _, stroke := range req.Strokes {
		if len(stroke) == 0 {
			continue
		}
		canvas.BeginStroke(stroke[0].X, stroke[0].Y)
		for _, p := range stroke[1:] {
			canvas.AppendPoint(p.X, p.Y)
		}
		canvas.EndStroke()
	}

	raster, err := canvas.Export()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	co, err := h.orders.SignInternally(c.Request.Context(), id, raster, user, req.SaveSignatureOrDefault())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.NewChangeOrderResponse(co))
}

// Send обрабатывает POST /change-orders/:id/send.
func (h *ChangeOrderHandler) Send(c *gin.Context) {
	h.transition(c, h.orders.Send)
}

// Resend обрабатывает POST /change-orders/:id/resend.
func (h *ChangeOrderHandler) Resend(c *gin.Context) {
	h.transition(c, h.orders.Resend)
}

// Approve обрабатывает POST /change-orders/:id/approve.
func (h *ChangeOrderHandler) Approve(c *gin.Context) {
	h.transition(c, h.orders.Approve)
}

// Reject обрабатывает POST /change-orders/:id/reject.
func (h *ChangeOrderHandler) Reject(c *gin.Context) {
	h.transition(c, h.orders.Reject)
}

// Void обрабатывает POST /change-orders/:id/void.
func (h *ChangeOrderHandler) Void(c *gin.Context) {
	h.transition(c, h.orders.Void)
}

// Delete обрабатывает DELETE /change-orders/:id.
func (h *ChangeOrderHandler) Delete(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.orders.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "черновик удалён", nil)
}

// Document обрабатывает GET /change-orders/:id/document: отдаёт PDF для
// предпросмотра и скачивания.
func (h *ChangeOrderHandler) Document(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	artifact, fileName, err := h.orders.GenerateArtifact(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "application/pdf", artifact)
}

// Timeline обрабатывает GET /change-orders/:id/timeline.
func (h *ChangeOrderHandler) Timeline(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	entries, err := h.orders.Timeline(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, entries)
}

// transition — общий каркас действий жизненного цикла без тела запроса.
func (h *ChangeOrderHandler) transition(c *gin.Context, action func(ctx context.Context, id uuid.UUID) (*models.ChangeOrder, error)) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	co, err := action(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.NewChangeOrderResponse(co))
}

func (h *ChangeOrderHandler) validateFields(title, description string, reason, notes *string, items []dto.LineItemRequest) error {
	if err := validation.ValidateChangeOrderTitle(title); err != nil {
		return err
	}
	if err := validation.ValidateChangeOrderDescription(description); err != nil {
		return err
	}
	if err := validation.ValidateReason(reason); err != nil {
		return err
	}
	if err := validation.ValidateNotes(notes); err != nil {
		return err
	}
	return validation.ValidateLineItemRequests(items)
}

func toLineItems(items []dto.LineItemRequest) []valueobject.LineItem {
	out := make([]valueobject.LineItem, len(items))
	for i, item := range items {
		out[i] = valueobject.LineItem{
			Name:        item.Name,
			Amount:      item.Amount,
			Description: item.Description,
		}
	}
	return out
}

// respondServiceError переводит доменные ошибки движка в HTTP-ответ.
func respondServiceError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		common.RespondError(c, appErr.HTTPStatus, appErr.Message)
		return
	}
	common.RespondInternalError(c, "")
}
