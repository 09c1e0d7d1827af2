package models

import (
	"time"

	"github.com/google/uuid"
)

// CompanySettings — реквизиты фирмы для шапки генерируемых документов.
// Хранится одной строкой.
type CompanySettings struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
