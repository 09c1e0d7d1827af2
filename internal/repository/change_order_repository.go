package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/arcline/studio-backend/internal/models"
	"github.com/arcline/studio-backend/internal/repository/common"
)

// ChangeOrderRepository отвечает за хранение изменений к договору.
type ChangeOrderRepository struct {
	db *sqlx.DB
}

// Ошибки уровня репозитория.
var (
	ErrChangeOrderNotFound = errors.New("change order not found")
	// ErrStatusConflict: запись существует, но её статус не входит в
	// разрешённый набор — параллельное изменение или нарушенное предусловие.
	ErrStatusConflict = errors.New("change order status conflict")
)

// NewChangeOrderRepository создаёт новый экземпляр.
func NewChangeOrderRepository(db *sqlx.DB) *ChangeOrderRepository {
	return &ChangeOrderRepository{db: db}
}

const changeOrderColumns = `
	id, project_id, co_number, title, description, reason, notes, requested_by,
	amount, deposit_percentage, status, legacy_service_names,
	internal_signed_at, internal_signed_by, internal_signature_data,
	sent_at, sent_to_email,
	client_signed_at, client_signer_name, client_signature_data,
	approved_at, created_at, updated_at`

// GetByID возвращает запись вместе с позициями.
func (r *ChangeOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ChangeOrder, error) {
	var co models.ChangeOrder
	query := `SELECT` + changeOrderColumns + ` FROM change_orders WHERE id = $1`
	if err := r.db.GetContext(ctx, &co, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChangeOrderNotFound
		}
		return nil, fmt.Errorf("change order repository: get by id %w", err)
	}

	items, err := r.getItems(ctx, id)
	if err != nil {
		return nil, err
	}
	co.LineItems = items
	return &co, nil
}

// ListByProject возвращает все изменения проекта в порядке номеров.
func (r *ChangeOrderRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ChangeOrder, error) {
	var orders []models.ChangeOrder
	query := `SELECT` + changeOrderColumns + ` FROM change_orders WHERE project_id = $1 ORDER BY co_number`
	if err := r.db.SelectContext(ctx, &orders, query, projectID); err != nil {
		return nil, fmt.Errorf("change order repository: list by project %w", err)
	}

	for i := range orders {
		items, err := r.getItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].LineItems = items
	}
	return orders, nil
}

// Create сохраняет запись и позиции в одной транзакции. Номер документа
// выдаётся последовательно в рамках проекта; блокировка строк проекта
// исключает выдачу одного номера двум записям.
func (r *ChangeOrderRepository) Create(ctx context.Context, co *models.ChangeOrder) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		// Номер выдаётся по MAX+1 в рамках проекта; advisory lock проекта
		// исключает выдачу одного номера двум параллельным записям.
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, co.ProjectID.String()); err != nil {
			return fmt.Errorf("change order repository: project lock %w", err)
		}

		var number int
		numberQuery := `
			SELECT COALESCE(MAX(co_number), 0) + 1
			FROM change_orders
			WHERE project_id = $1
		`
		if err := tx.GetContext(ctx, &number, numberQuery, co.ProjectID); err != nil {
			return fmt.Errorf("change order repository: next number %w", err)
		}
		co.CONumber = number

		query := `
			INSERT INTO change_orders (
				id, project_id, co_number, title, description, reason, notes,
				requested_by, amount, deposit_percentage, status, legacy_service_names
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING created_at, updated_at
		`
		row := tx.QueryRowxContext(ctx, query,
			co.ID, co.ProjectID, co.CONumber, co.Title, co.Description, co.Reason, co.Notes,
			co.RequestedBy, co.Amount, co.DepositPercentage, co.Status, co.LegacyServiceNames,
		)
		if err := row.Scan(&co.CreatedAt, &co.UpdatedAt); err != nil {
			return fmt.Errorf("change order repository: insert %w", err)
		}

		return insertItems(ctx, tx, co.ID, co.LineItems)
	})
}

// UpdateGuarded перезаписывает изменяемые поля записи при условии, что её
// текущий статус входит в allowedStatuses. Ноль затронутых строк означает
// либо отсутствие записи, либо конкурентное изменение статуса — различаем
// дополнительным чтением.
func (r *ChangeOrderRepository) UpdateGuarded(ctx context.Context, co *models.ChangeOrder, allowedStatuses []string) error {
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		// legacy_service_names пишется вместе с остальными полями: правка
		// legacy-записи детальными позициями обнуляет старый список, и строка
		// в базе должна совпасть с возвращённой записью.
		query := `
			UPDATE change_orders
			SET title = $1, description = $2, reason = $3, notes = $4,
			    requested_by = $5, amount = $6, deposit_percentage = $7, status = $8,
			    legacy_service_names = $9,
			    internal_signed_at = $10, internal_signed_by = $11, internal_signature_data = $12,
			    sent_at = $13, sent_to_email = $14,
			    client_signed_at = $15, client_signer_name = $16, client_signature_data = $17,
			    approved_at = $18, updated_at = NOW()
			WHERE id = $19 AND status = ANY($20)
			RETURNING updated_at
		`
		row := tx.QueryRowxContext(ctx, query,
			co.Title, co.Description, co.Reason, co.Notes,
			co.RequestedBy, co.Amount, co.DepositPercentage, co.Status,
			co.LegacyServiceNames,
			co.InternalSignedAt, co.InternalSignedBy, co.InternalSignatureData,
			co.SentAt, co.SentToEmail,
			co.ClientSignedAt, co.ClientSignerName, co.ClientSignatureData,
			co.ApprovedAt, co.ID, pq.Array(allowedStatuses),
		)
		if err := row.Scan(&co.UpdatedAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrStatusConflict
			}
			return fmt.Errorf("change order repository: update %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM change_order_items WHERE change_order_id = $1`, co.ID); err != nil {
			return fmt.Errorf("change order repository: clear items %w", err)
		}
		return insertItems(ctx, tx, co.ID, co.LineItems)
	})

	if errors.Is(err, ErrStatusConflict) {
		// Запись могла быть удалена целиком.
		var exists bool
		checkErr := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM change_orders WHERE id = $1)`, co.ID)
		if checkErr == nil && !exists {
			return ErrChangeOrderNotFound
		}
	}
	return err
}

// Delete удаляет запись; разрешено только для черновиков, и это предусловие
// продублировано на уровне запроса.
func (r *ChangeOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM change_orders WHERE id = $1 AND status = 'draft'`, id)
	if err != nil {
		return fmt.Errorf("change order repository: delete %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("change order repository: delete rows affected %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM change_orders WHERE id = $1)`, id); err == nil && exists {
			return ErrStatusConflict
		}
		return ErrChangeOrderNotFound
	}
	return nil
}

func (r *ChangeOrderRepository) getItems(ctx context.Context, changeOrderID uuid.UUID) ([]models.ChangeOrderItem, error) {
	var items []models.ChangeOrderItem
	query := `
		SELECT id, change_order_id, name, amount, description, position
		FROM change_order_items
		WHERE change_order_id = $1
		ORDER BY position
	`
	if err := r.db.SelectContext(ctx, &items, query, changeOrderID); err != nil {
		return nil, fmt.Errorf("change order repository: get items %w", err)
	}
	return items, nil
}

func insertItems(ctx context.Context, tx *sqlx.Tx, changeOrderID uuid.UUID, items []models.ChangeOrderItem) error {
	if len(items) == 0 {
		return nil
	}
	inserter := common.NewBatchInserter(tx,
		`INSERT INTO change_order_items (id, change_order_id, name, amount, description, position)`, 6, 100)
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].ChangeOrderID = changeOrderID
		items[i].Position = i
		if err := inserter.Add(ctx, items[i].ID, changeOrderID, items[i].Name, items[i].Amount, items[i].Description, i); err != nil {
			return fmt.Errorf("change order repository: insert items %w", err)
		}
	}
	return inserter.Flush(ctx)
}
