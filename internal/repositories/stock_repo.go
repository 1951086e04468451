package repositories

import (
	"context"
	"errors"

	"shelfstock/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type StockRepository interface {
	ListByLocation(ctx context.Context, locationID uuid.UUID) ([]*models.StockRecord, error)
	TotalByItem(ctx context.Context, itemID uuid.UUID) (int, error)
	DistinctItemsByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]uuid.UUID, error)

	// Tx-scoped: run inside the caller's transaction so the read-modify-write
	// of a ledger mutation is serialized per {location, item}.
	GetForUpdateTx(ctx context.Context, q Querier, locationID, itemID uuid.UUID) (*models.StockRecord, error)
	UpsertForUpdateTx(ctx context.Context, q Querier, locationID, itemID uuid.UUID) (*models.StockRecord, error)
	SetQuantityTx(ctx context.Context, q Querier, id uuid.UUID, quantity int) error
	DeleteTx(ctx context.Context, q Querier, id uuid.UUID) error
	WarehouseTotalsTx(ctx context.Context, q Querier, warehouseID, itemID uuid.UUID) (total, sellable int, err error)
}

type stockRepo struct {
	db Querier
}

func NewStockRepository(db Querier) StockRepository {
	return &stockRepo{db: db}
}

func (r *stockRepo) ListByLocation(ctx context.Context, locationID uuid.UUID) ([]*models.StockRecord, error) {
	query := `
		SELECT id, location_id, item_id, quantity, last_updated
		FROM stock_records
		WHERE location_id = $1
		ORDER BY last_updated DESC
	`
	rows, err := r.db.Query(ctx, query, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.StockRecord
	for rows.Next() {
		record := &models.StockRecord{}
		if err := rows.Scan(&record.ID, &record.LocationID, &record.ItemID, &record.Quantity, &record.LastUpdated); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *stockRepo) TotalByItem(ctx context.Context, itemID uuid.UUID) (int, error) {
	var total int
	query := `SELECT COALESCE(SUM(quantity), 0) FROM stock_records WHERE item_id = $1`
	err := r.db.QueryRow(ctx, query, itemID).Scan(&total)
	return total, err
}

func (r *stockRepo) DistinctItemsByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT s.item_id
		FROM stock_records s
		JOIN locations l ON l.id = s.location_id
		WHERE l.warehouse_id = $1
		ORDER BY s.item_id
	`
	rows, err := r.db.Query(ctx, query, warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []uuid.UUID
	for rows.Next() {
		var itemID uuid.UUID
		if err := rows.Scan(&itemID); err != nil {
			return nil, err
		}
		items = append(items, itemID)
	}
	return items, rows.Err()
}

// GetForUpdateTx locks the row for the duration of the transaction. Returns
// nil without error when no row exists.
func (r *stockRepo) GetForUpdateTx(ctx context.Context, q Querier, locationID, itemID uuid.UUID) (*models.StockRecord, error) {
	record := &models.StockRecord{}
	query := `
		SELECT id, location_id, item_id, quantity, last_updated
		FROM stock_records
		WHERE location_id = $1 AND item_id = $2
		FOR UPDATE
	`
	err := q.QueryRow(ctx, query, locationID, itemID).Scan(&record.ID, &record.LocationID, &record.ItemID, &record.Quantity, &record.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// UpsertForUpdateTx creates a zero-quantity row when absent, then locks and
// returns it.
func (r *stockRepo) UpsertForUpdateTx(ctx context.Context, q Querier, locationID, itemID uuid.UUID) (*models.StockRecord, error) {
	insert := `
		INSERT INTO stock_records (id, location_id, item_id, quantity, last_updated)
		VALUES ($1, $2, $3, 0, NOW())
		ON CONFLICT (location_id, item_id) DO NOTHING
	`
	if _, err := q.Exec(ctx, insert, uuid.New(), locationID, itemID); err != nil {
		return nil, err
	}

	record := &models.StockRecord{}
	query := `
		SELECT id, location_id, item_id, quantity, last_updated
		FROM stock_records
		WHERE location_id = $1 AND item_id = $2
		FOR UPDATE
	`
	err := q.QueryRow(ctx, query, locationID, itemID).Scan(&record.ID, &record.LocationID, &record.ItemID, &record.Quantity, &record.LastUpdated)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *stockRepo) SetQuantityTx(ctx context.Context, q Querier, id uuid.UUID, quantity int) error {
	query := `
		UPDATE stock_records
		SET quantity = $1, last_updated = NOW()
		WHERE id = $2
	`
	_, err := q.Exec(ctx, query, quantity, id)
	return err
}

func (r *stockRepo) DeleteTx(ctx context.Context, q Querier, id uuid.UUID) error {
	query := `DELETE FROM stock_records WHERE id = $1`
	_, err := q.Exec(ctx, query, id)
	return err
}

// WarehouseTotalsTx sums the item's quantity across all locations of the
// warehouse, and the subset on sellable locations.
func (r *stockRepo) WarehouseTotalsTx(ctx context.Context, q Querier, warehouseID, itemID uuid.UUID) (int, int, error) {
	var total, sellable int
	query := `
		SELECT COALESCE(SUM(s.quantity), 0),
		       COALESCE(SUM(s.quantity) FILTER (WHERE l.sellable), 0)
		FROM stock_records s
		JOIN locations l ON l.id = s.location_id
		WHERE l.warehouse_id = $1 AND s.item_id = $2
	`
	err := q.QueryRow(ctx, query, warehouseID, itemID).Scan(&total, &sellable)
	return total, sellable, err
}
