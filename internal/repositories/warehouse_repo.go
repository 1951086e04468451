package repositories

import (
	"context"

	"shelfstock/internal/models"

	"github.com/google/uuid"
)

type WarehouseRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
	List(ctx context.Context) ([]*models.Warehouse, error)
	ChannelsTx(ctx context.Context, q Querier, warehouseID uuid.UUID) ([]*models.SalesChannel, error)
	UpsertChannelStockTx(ctx context.Context, q Querier, channelID, itemID uuid.UUID, total, sellable int) error
	GetChannelStock(ctx context.Context, channelID, itemID uuid.UUID) (*models.ChannelStock, error)
}

type warehouseRepo struct {
	db Querier
}

func NewWarehouseRepository(db Querier) WarehouseRepository {
	return &warehouseRepo{db: db}
}

func (r *warehouseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	warehouse := &models.Warehouse{}
	query := `
		SELECT id, name, code, is_active, created_at, updated_at
		FROM warehouses
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&warehouse.ID, &warehouse.Name, &warehouse.Code, &warehouse.IsActive, &warehouse.CreatedAt, &warehouse.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return warehouse, nil
}

func (r *warehouseRepo) List(ctx context.Context) ([]*models.Warehouse, error) {
	query := `
		SELECT id, name, code, is_active, created_at, updated_at
		FROM warehouses
		WHERE is_active = true
		ORDER BY code
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var warehouses []*models.Warehouse
	for rows.Next() {
		warehouse := &models.Warehouse{}
		if err := rows.Scan(&warehouse.ID, &warehouse.Name, &warehouse.Code, &warehouse.IsActive, &warehouse.CreatedAt, &warehouse.UpdatedAt); err != nil {
			return nil, err
		}
		warehouses = append(warehouses, warehouse)
	}
	return warehouses, rows.Err()
}

// ChannelsTx lists the sales channels bound to a warehouse.
func (r *warehouseRepo) ChannelsTx(ctx context.Context, q Querier, warehouseID uuid.UUID) ([]*models.SalesChannel, error) {
	query := `
		SELECT c.id, c.name, c.code, c.created_at
		FROM sales_channels c
		JOIN warehouse_channels wc ON wc.channel_id = c.id
		WHERE wc.warehouse_id = $1
		ORDER BY c.code
	`
	rows, err := q.Query(ctx, query, warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []*models.SalesChannel
	for rows.Next() {
		channel := &models.SalesChannel{}
		if err := rows.Scan(&channel.ID, &channel.Name, &channel.Code, &channel.CreatedAt); err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

// UpsertChannelStockTx publishes one availability aggregate. The committed
// quantity belongs to the order subsystem: it is read, never written, and
// sellable is floored at zero after netting it out. New rows start with
// committed 0.
func (r *warehouseRepo) UpsertChannelStockTx(ctx context.Context, q Querier, channelID, itemID uuid.UUID, total, sellable int) error {
	query := `
		INSERT INTO channel_stocks (id, channel_id, item_id, stock_quantity, sellable_quantity, reservable_quantity, committed_quantity, last_updated)
		VALUES ($1, $2, $3, $4, GREATEST($5, 0), $5, 0, NOW())
		ON CONFLICT (channel_id, item_id) DO UPDATE
		SET stock_quantity = $4,
		    sellable_quantity = GREATEST($5 - channel_stocks.committed_quantity, 0),
		    reservable_quantity = $5,
		    last_updated = NOW()
	`
	_, err := q.Exec(ctx, query, uuid.New(), channelID, itemID, total, sellable)
	return err
}

func (r *warehouseRepo) GetChannelStock(ctx context.Context, channelID, itemID uuid.UUID) (*models.ChannelStock, error) {
	snapshot := &models.ChannelStock{}
	query := `
		SELECT id, channel_id, item_id, stock_quantity, sellable_quantity, reservable_quantity, committed_quantity, last_updated
		FROM channel_stocks
		WHERE channel_id = $1 AND item_id = $2
	`
	err := r.db.QueryRow(ctx, query, channelID, itemID).Scan(
		&snapshot.ID, &snapshot.ChannelID, &snapshot.ItemID,
		&snapshot.StockQuantity, &snapshot.SellableQuantity,
		&snapshot.ReservableQuantity, &snapshot.CommittedQuantity,
		&snapshot.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}
