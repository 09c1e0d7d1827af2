package models

import (
	"time"

	"github.com/google/uuid"
)

// Project описывает проект фирмы. Изменения к договору принадлежат проекту;
// клиент проекта — получатель документов.
type Project struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	ClientID  *uuid.UUID `db:"client_id" json:"client_id,omitempty"`
	Number    string     `db:"number" json:"number"`
	Name      string     `db:"name" json:"name"`
	Address   *string    `db:"address" json:"address,omitempty"`
	Status    string     `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Client — контрагент, с которым заключён договор по проекту.
type Client struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	CompanyName *string   `db:"company_name" json:"company_name,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ClientContact — контактное лицо клиента. Email может отсутствовать,
// поэтому получатель рассылки разрешается отдельным запросом.
type ClientContact struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ClientID  uuid.UUID `db:"client_id" json:"client_id"`
	Name      string    `db:"name" json:"name"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	IsPrimary bool      `db:"is_primary" json:"is_primary"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
