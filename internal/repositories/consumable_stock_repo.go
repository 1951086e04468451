package repositories

import (
	"context"
	"errors"

	"shelfstock/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type ConsumableStockRepository interface {
	ListByLocation(ctx context.Context, locationID uuid.UUID) ([]*models.ConsumableStockRecord, error)
	TotalByConsumable(ctx context.Context, consumableID uuid.UUID) (decimal.Decimal, error)

	GetForUpdateTx(ctx context.Context, q Querier, locationID, consumableID uuid.UUID) (*models.ConsumableStockRecord, error)
	UpsertForUpdateTx(ctx context.Context, q Querier, locationID, consumableID uuid.UUID) (*models.ConsumableStockRecord, error)
	SetQuantitiesTx(ctx context.Context, q Querier, id uuid.UUID, quantity, reserved decimal.Decimal) error
	DeleteTx(ctx context.Context, q Querier, id uuid.UUID) error
}

type consumableStockRepo struct {
	db Querier
}

func NewConsumableStockRepository(db Querier) ConsumableStockRepository {
	return &consumableStockRepo{db: db}
}

func (r *consumableStockRepo) ListByLocation(ctx context.Context, locationID uuid.UUID) ([]*models.ConsumableStockRecord, error) {
	query := `
		SELECT id, location_id, consumable_id, quantity, reserved_quantity, last_updated
		FROM consumable_stock_records
		WHERE location_id = $1
		ORDER BY last_updated DESC
	`
	rows, err := r.db.Query(ctx, query, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.ConsumableStockRecord
	for rows.Next() {
		record := &models.ConsumableStockRecord{}
		if err := rows.Scan(&record.ID, &record.LocationID, &record.ConsumableID, &record.Quantity, &record.ReservedQuantity, &record.LastUpdated); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *consumableStockRepo) TotalByConsumable(ctx context.Context, consumableID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(quantity), 0) FROM consumable_stock_records WHERE consumable_id = $1`
	err := r.db.QueryRow(ctx, query, consumableID).Scan(&total)
	return total, err
}

// GetForUpdateTx locks the row; returns nil without error when absent.
func (r *consumableStockRepo) GetForUpdateTx(ctx context.Context, q Querier, locationID, consumableID uuid.UUID) (*models.ConsumableStockRecord, error) {
	record := &models.ConsumableStockRecord{}
	query := `
		SELECT id, location_id, consumable_id, quantity, reserved_quantity, last_updated
		FROM consumable_stock_records
		WHERE location_id = $1 AND consumable_id = $2
		FOR UPDATE
	`
	err := q.QueryRow(ctx, query, locationID, consumableID).Scan(&record.ID, &record.LocationID, &record.ConsumableID, &record.Quantity, &record.ReservedQuantity, &record.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *consumableStockRepo) UpsertForUpdateTx(ctx context.Context, q Querier, locationID, consumableID uuid.UUID) (*models.ConsumableStockRecord, error) {
	insert := `
		INSERT INTO consumable_stock_records (id, location_id, consumable_id, quantity, reserved_quantity, last_updated)
		VALUES ($1, $2, $3, 0, 0, NOW())
		ON CONFLICT (location_id, consumable_id) DO NOTHING
	`
	if _, err := q.Exec(ctx, insert, uuid.New(), locationID, consumableID); err != nil {
		return nil, err
	}

	record := &models.ConsumableStockRecord{}
	query := `
		SELECT id, location_id, consumable_id, quantity, reserved_quantity, last_updated
		FROM consumable_stock_records
		WHERE location_id = $1 AND consumable_id = $2
		FOR UPDATE
	`
	err := q.QueryRow(ctx, query, locationID, consumableID).Scan(&record.ID, &record.LocationID, &record.ConsumableID, &record.Quantity, &record.ReservedQuantity, &record.LastUpdated)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *consumableStockRepo) SetQuantitiesTx(ctx context.Context, q Querier, id uuid.UUID, quantity, reserved decimal.Decimal) error {
	query := `
		UPDATE consumable_stock_records
		SET quantity = $1, reserved_quantity = $2, last_updated = NOW()
		WHERE id = $3
	`
	_, err := q.Exec(ctx, query, quantity, reserved, id)
	return err
}

func (r *consumableStockRepo) DeleteTx(ctx context.Context, q Querier, id uuid.UUID) error {
	query := `DELETE FROM consumable_stock_records WHERE id = $1`
	_, err := q.Exec(ctx, query, id)
	return err
}
