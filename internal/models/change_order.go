package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/arcline/studio-backend/internal/domain/valueobject"
)

// ChangeOrder описывает изменение к договору: финансовую поправку к проекту,
// которая проходит внутреннее подписание, отправку клиенту и подписание
// клиентом. Номер CONumber присваивается при создании и больше не меняется.
type ChangeOrder struct {
	ID                uuid.UUID      `db:"id" json:"id"`
	ProjectID         uuid.UUID      `db:"project_id" json:"project_id"`
	CONumber          int            `db:"co_number" json:"co_number"`
	Title             string         `db:"title" json:"title"`
	Description       string         `db:"description" json:"description"`
	Reason            *string        `db:"reason" json:"reason,omitempty"`
	Notes             *string        `db:"notes" json:"notes,omitempty"`
	RequestedBy       string         `db:"requested_by" json:"requested_by"`
	Amount            float64        `db:"amount" json:"amount"`
	DepositPercentage float64        `db:"deposit_percentage" json:"deposit_percentage"`
	Status            string         `db:"status" json:"status"`

	// Позиции: новые записи хранят детальные строки в change_order_items,
	// исторические — только список названий услуг в legacy_service_names.
	LineItems          []ChangeOrderItem `json:"line_items,omitempty"`
	LegacyServiceNames pq.StringArray    `db:"legacy_service_names" json:"legacy_service_names,omitempty"`

	InternalSignedAt      *time.Time `db:"internal_signed_at" json:"internal_signed_at,omitempty"`
	InternalSignedBy      *string    `db:"internal_signed_by" json:"internal_signed_by,omitempty"`
	InternalSignatureData []byte     `db:"internal_signature_data" json:"-"`

	SentAt      *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	SentToEmail *string    `db:"sent_to_email" json:"sent_to_email,omitempty"`

	ClientSignedAt      *time.Time `db:"client_signed_at" json:"client_signed_at,omitempty"`
	ClientSignerName    *string    `db:"client_signer_name" json:"client_signer_name,omitempty"`
	ClientSignatureData []byte     `db:"client_signature_data" json:"-"`

	ApprovedAt *time.Time `db:"approved_at" json:"approved_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ChangeOrderItem — одна детальная позиция изменения.
type ChangeOrderItem struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ChangeOrderID uuid.UUID `db:"change_order_id" json:"change_order_id"`
	Name          string    `db:"name" json:"name"`
	Amount        float64   `db:"amount" json:"amount"`
	Description   *string   `db:"description" json:"description,omitempty"`
	Position      int       `db:"position" json:"position"`
}

// Items возвращает позиции в доменном представлении (детальные или legacy).
func (co *ChangeOrder) Items() valueobject.LineItems {
	if len(co.LineItems) == 0 && len(co.LegacyServiceNames) > 0 {
		return valueobject.LineItems{LegacyNames: co.LegacyServiceNames}
	}
	detailed := make([]valueobject.LineItem, len(co.LineItems))
	for i, item := range co.LineItems {
		li := valueobject.LineItem{Name: item.Name, Amount: item.Amount}
		if item.Description != nil {
			li.Description = *item.Description
		}
		detailed[i] = li
	}
	return valueobject.LineItems{Detailed: detailed}
}

// DepositAmount возвращает сумму аванса по текущим итогу и проценту.
func (co *ChangeOrder) DepositAmount() float64 {
	return valueobject.ComputeDeposit(co.Amount, co.DepositPercentage)
}

func (co *ChangeOrder) statusVO() valueobject.ChangeOrderStatus {
	return valueobject.ChangeOrderStatus(co.Status)
}

// Предикаты жизненного цикла. Все проверки выполняются до любых изменений
// записи: и движок, и HTTP-слой используют один и тот же набор предикатов.

// CanEdit: поля и позиции можно менять только до внутренней подписи.
func (co *ChangeOrder) CanEdit() bool {
	return co.statusVO().IsEditable()
}

// CanSignInternally: внутренняя подпись ставится один раз и недоступна
// в мёртвых статусах.
func (co *ChangeOrder) CanSignInternally() bool {
	if co.InternalSignedAt != nil {
		return false
	}
	switch co.statusVO() {
	case valueobject.StatusVoided, valueobject.StatusRejected:
		return false
	}
	return true
}

// CanSend: отправка клиенту требует внутренней подписи и ещё не
// совершённой отправки.
func (co *ChangeOrder) CanSend() bool {
	if co.InternalSignedAt == nil || co.SentAt != nil {
		return false
	}
	switch co.statusVO() {
	case valueobject.StatusApproved, valueobject.StatusVoided, valueobject.StatusRejected:
		return false
	}
	return true
}

// CanResend: повторная отправка возможна, пока клиент не подписал документ.
func (co *ChangeOrder) CanResend() bool {
	return co.InternalSignedAt != nil &&
		co.SentAt != nil &&
		co.statusVO() == valueobject.StatusPendingClient &&
		co.ClientSignedAt == nil
}

// CanApprove: утвердить можно документ, ожидающий любой из подписей.
func (co *ChangeOrder) CanApprove() bool {
	s := co.statusVO()
	return s == valueobject.StatusPendingClient || s == valueobject.StatusPendingInternal
}

// CanReject: отклонение доступно из любого немёртвого и неутверждённого статуса.
func (co *ChangeOrder) CanReject() bool {
	switch co.statusVO() {
	case valueobject.StatusRejected, valueobject.StatusVoided, valueobject.StatusApproved:
		return false
	}
	return true
}

// CanVoid: аннулирование — административная отмена, недоступная только для
// уже аннулированных и утверждённых документов.
func (co *ChangeOrder) CanVoid() bool {
	switch co.statusVO() {
	case valueobject.StatusVoided, valueobject.StatusApproved:
		return false
	}
	return true
}

// CanDelete: физически удалить можно только черновик.
func (co *ChangeOrder) CanDelete() bool {
	return co.statusVO() == valueobject.StatusDraft
}

// ChangeOrderAction — действие жизненного цикла, доступное над записью.
type ChangeOrderAction string

const (
	ActionEdit    ChangeOrderAction = "edit"
	ActionSign    ChangeOrderAction = "sign"
	ActionSend    ChangeOrderAction = "send"
	ActionResend  ChangeOrderAction = "resend"
	ActionApprove ChangeOrderAction = "approve"
	ActionReject  ChangeOrderAction = "reject"
	ActionVoid    ChangeOrderAction = "void"
	ActionDelete  ChangeOrderAction = "delete"
)

// AllowedActions возвращает полный набор действий, легальных для текущего
// состояния записи. Чистая функция от записи: UI и движок читают одну и ту же
// таблицу переходов и не дублируют guard-логику.
func (co *ChangeOrder) AllowedActions() []ChangeOrderAction {
	var actions []ChangeOrderAction
	if co.CanEdit() {
		actions = append(actions, ActionEdit)
	}
	if co.CanSignInternally() {
		actions = append(actions, ActionSign)
	}
	if co.CanSend() {
		actions = append(actions, ActionSend)
	}
	if co.CanResend() {
		actions = append(actions, ActionResend)
	}
	if co.CanApprove() {
		actions = append(actions, ActionApprove)
	}
	if co.CanReject() {
		actions = append(actions, ActionReject)
	}
	if co.CanVoid() {
		actions = append(actions, ActionVoid)
	}
	if co.CanDelete() {
		actions = append(actions, ActionDelete)
	}
	return actions
}

// TimelineEntry — событие истории документа. История не хранится отдельно,
// а выводится из ненулевых временных меток записи.
type TimelineEntry struct {
	Event string    `json:"event"`
	Actor *string   `json:"actor,omitempty"`
	At    time.Time `json:"at"`
}

// Timeline собирает события в фиксированном хронологическом порядке:
// создание → внутренняя подпись → отправка → подпись клиента → утверждение.
func (co *ChangeOrder) Timeline() []TimelineEntry {
	entries := []TimelineEntry{
		{Event: "created", At: co.CreatedAt},
	}
	if co.InternalSignedAt != nil {
		entries = append(entries, TimelineEntry{Event: "internally_signed", Actor: co.InternalSignedBy, At: *co.InternalSignedAt})
	}
	if co.SentAt != nil {
		entries = append(entries, TimelineEntry{Event: "sent", Actor: co.SentToEmail, At: *co.SentAt})
	}
	if co.ClientSignedAt != nil {
		entries = append(entries, TimelineEntry{Event: "client_signed", Actor: co.ClientSignerName, At: *co.ClientSignedAt})
	}
	if co.ApprovedAt != nil {
		entries = append(entries, TimelineEntry{Event: "approved", At: *co.ApprovedAt})
	}
	return entries
}
