package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arcline/studio-backend/internal/models"
	"github.com/arcline/studio-backend/internal/repository/common"
)

// DirectoryRepository отвечает за справочник проектов, клиентов и контактов.
type DirectoryRepository struct {
	db *sqlx.DB
}

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrClientNotFound  = errors.New("client not found")
	// ErrNoContactEmail: у клиента нет ни одного контакта с email.
	ErrNoContactEmail = errors.New("client has no contact email")
)

// NewDirectoryRepository создаёт новый экземпляр.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// GetProject возвращает проект по идентификатору.
func (r *DirectoryRepository) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return common.GetByID[models.Project](ctx, r.db, "projects", id, ErrProjectNotFound)
}

// GetClient возвращает клиента по идентификатору.
func (r *DirectoryRepository) GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	return common.GetByID[models.Client](ctx, r.db, "clients", id, ErrClientNotFound)
}

// GetClientByProject возвращает клиента, привязанного к проекту.
// ErrClientNotFound означает, что привязки нет.
func (r *DirectoryRepository) GetClientByProject(ctx context.Context, projectID uuid.UUID) (*models.Client, error) {
	var client models.Client
	query := `
		SELECT c.id, c.display_name, c.company_name, c.created_at, c.updated_at
		FROM clients c
		JOIN projects p ON p.client_id = c.id
		WHERE p.id = $1
	`
	if err := r.db.GetContext(ctx, &client, query, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("directory repository: client by project %w", err)
	}
	return &client, nil
}

// GetContactEmail возвращает контакт клиента для рассылки: сначала основной
// контакт с email, затем любой контакт с email в порядке добавления.
func (r *DirectoryRepository) GetContactEmail(ctx context.Context, clientID uuid.UUID) (*models.ClientContact, error) {
	var contact models.ClientContact
	query := `
		SELECT id, client_id, name, email, phone, is_primary, created_at
		FROM client_contacts
		WHERE client_id = $1 AND email IS NOT NULL AND email <> ''
		ORDER BY is_primary DESC, created_at
		LIMIT 1
	`
	if err := r.db.GetContext(ctx, &contact, query, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoContactEmail
		}
		return nil, fmt.Errorf("directory repository: contact email %w", err)
	}
	return &contact, nil
}
