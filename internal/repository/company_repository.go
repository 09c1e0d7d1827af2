package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/arcline/studio-backend/internal/models"
)

// CompanyRepository отдаёт реквизиты фирмы для шапки документов.
type CompanyRepository struct {
	db *sqlx.DB
}

var ErrCompanySettingsNotFound = errors.New("company settings not found")

// NewCompanyRepository создаёт новый экземпляр.
func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Get возвращает единственную строку настроек фирмы.
func (r *CompanyRepository) Get(ctx context.Context) (*models.CompanySettings, error) {
	var settings models.CompanySettings
	query := `SELECT id, name, address, email, phone, updated_at FROM company_settings ORDER BY id LIMIT 1`
	if err := r.db.GetContext(ctx, &settings, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompanySettingsNotFound
		}
		return nil, fmt.Errorf("company repository: get %w", err)
	}
	return &settings, nil
}
