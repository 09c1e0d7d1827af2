package valueobject

import "github.com/arcline/studio-backend/internal/pkg/apperror"

type ChangeOrderStatus string

const (
	StatusDraft           ChangeOrderStatus = "draft"
	StatusPendingInternal ChangeOrderStatus = "pending_internal"
	StatusPendingClient   ChangeOrderStatus = "pending_client"
	StatusApproved        ChangeOrderStatus = "approved"
	StatusRejected        ChangeOrderStatus = "rejected"
	StatusVoided          ChangeOrderStatus = "voided"
)

func (s ChangeOrderStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusPendingInternal, StatusPendingClient, StatusApproved, StatusRejected, StatusVoided:
		return true
	}
	return false
}

// IsTerminal сообщает, достигнут ли конечный статус: из него нет переходов,
// финансовые поля и подписи больше не меняются.
func (s ChangeOrderStatus) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusVoided:
		return true
	}
	return false
}

// IsEditable сообщает, можно ли менять поля и позиции документа.
// После внутренней подписи документ зафиксирован.
func (s ChangeOrderStatus) IsEditable() bool {
	return s == StatusDraft || s == StatusPendingInternal
}

func NewChangeOrderStatus(status string) (ChangeOrderStatus, error) {
	s := ChangeOrderStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус изменения к договору")
	}
	return s, nil
}

// RequestedBy определяет инициатора изменения. От инициатора зависит знак
// суммы: изменения по внутренней инициативе оформляются как кредит клиенту.
type RequestedBy string

const (
	RequestedByClient    RequestedBy = "client"
	RequestedByInternal  RequestedBy = "internal"
	RequestedByGC        RequestedBy = "gc"
	RequestedByArchitect RequestedBy = "architect"
	RequestedByEngineer  RequestedBy = "engineer"
	RequestedByAgency    RequestedBy = "agency"
)

func (r RequestedBy) IsValid() bool {
	switch r {
	case RequestedByClient, RequestedByInternal, RequestedByGC, RequestedByArchitect, RequestedByEngineer, RequestedByAgency:
		return true
	}
	return false
}

// IsCredit: внутренняя инициатива означает, что фирма компенсирует работы,
// итоговая сумма отрицательная.
func (r RequestedBy) IsCredit() bool {
	return r == RequestedByInternal
}

func (r RequestedBy) DisplayName() string {
	switch r {
	case RequestedByClient:
		return "Client"
	case RequestedByInternal:
		return "Internal"
	case RequestedByGC:
		return "General Contractor"
	case RequestedByArchitect:
		return "Architect"
	case RequestedByEngineer:
		return "Engineer"
	case RequestedByAgency:
		return "Agency"
	}
	return string(r)
}

func NewRequestedBy(value string) (RequestedBy, error) {
	r := RequestedBy(value)
	if !r.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный инициатор изменения")
	}
	return r, nil
}
