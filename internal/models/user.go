package models

import (
	"time"

	"github.com/google/uuid"
)

// User описывает сотрудника фирмы. Аутентификация живёт во внешнем сервисе,
// здесь нужны роль, отображаемое имя для подписей и сохранённая подпись.
type User struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Role        string    `db:"role" json:"role"`
	IsActive    bool      `db:"is_active" json:"is_active"`

	// SavedSignature — PNG с последней нарисованной подписью сотрудника.
	// Разделяется между всеми документами, которые он подписывает; движок
	// читает её как есть и перезаписывает только по явному согласию при
	// подписании (last-writer-wins).
	SavedSignature []byte `db:"saved_signature" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
