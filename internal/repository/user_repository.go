package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arcline/studio-backend/internal/models"
)

// ErrUserNotFound возвращается, когда запись сотрудника не найдена.
var ErrUserNotFound = errors.New("user not found")

// UserRepository отвечает за работу с таблицей сотрудников.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID возвращает сотрудника по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	query := `
		SELECT id, email, display_name, role, is_active, saved_signature, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by id %w", err)
	}
	return &user, nil
}

// UpdateSavedSignature перезаписывает сохранённую подпись сотрудника.
// Семантика last-writer-wins: это настройка профиля, а не реестр подписей.
func (r *UserRepository) UpdateSavedSignature(ctx context.Context, id uuid.UUID, raster []byte) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET saved_signature = $1, updated_at = NOW() WHERE id = $2`, raster, id)
	if err != nil {
		return fmt.Errorf("user repository: update saved signature %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository: update saved signature rows affected %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
