package repositories

import (
	"context"

	"shelfstock/internal/models"

	"github.com/google/uuid"
)

type LocationRepository interface {
	Create(ctx context.Context, location *models.Location) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	Update(ctx context.Context, location *models.Location) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*models.Location, error)
	GetByGlobalSlot(ctx context.Context, slot int) (*models.Location, error)
	GetByExternalID(ctx context.Context, externalID int64) (*models.Location, error)
	CountChildren(ctx context.Context, id uuid.UUID) (int, error)
	HasStock(ctx context.Context, id uuid.UUID) (bool, error)
	StockTotals(ctx context.Context, warehouseID uuid.UUID) (map[uuid.UUID]int, error)
	WarehouseIDFor(ctx context.Context, q Querier, locationID uuid.UUID) (uuid.UUID, error)
}

type locationRepo struct {
	db Querier
}

func NewLocationRepository(db Querier) LocationRepository {
	return &locationRepo{db: db}
}

const locationColumns = `id, warehouse_id, parent_id, name, code, path, type, global_slot, external_id, sellable, reservable, shelvable, sort_order, created_at, updated_at`

func (r *locationRepo) Create(ctx context.Context, location *models.Location) error {
	query := `
		INSERT INTO locations (id, warehouse_id, parent_id, name, code, path, type, global_slot, external_id, sellable, reservable, shelvable, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		location.ID, location.WarehouseID, location.ParentID, location.Name,
		location.Code, location.Path, location.Type, location.GlobalSlot,
		location.ExternalID, location.Sellable, location.Reservable,
		location.Shelvable, location.SortOrder,
	)
	return err
}

func (r *locationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	query := `
		SELECT ` + locationColumns + `
		FROM locations
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *locationRepo) GetByGlobalSlot(ctx context.Context, slot int) (*models.Location, error) {
	query := `
		SELECT ` + locationColumns + `
		FROM locations
		WHERE global_slot = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, slot))
}

func (r *locationRepo) GetByExternalID(ctx context.Context, externalID int64) (*models.Location, error) {
	query := `
		SELECT ` + locationColumns + `
		FROM locations
		WHERE external_id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, externalID))
}

func (r *locationRepo) Update(ctx context.Context, location *models.Location) error {
	query := `
		UPDATE locations
		SET parent_id = $1, name = $2, code = $3, path = $4, type = $5, global_slot = $6, external_id = $7, sellable = $8, reservable = $9, shelvable = $10, sort_order = $11, updated_at = NOW()
		WHERE id = $12
	`
	_, err := r.db.Exec(ctx, query,
		location.ParentID, location.Name, location.Code, location.Path,
		location.Type, location.GlobalSlot, location.ExternalID,
		location.Sellable, location.Reservable, location.Shelvable,
		location.SortOrder, location.ID,
	)
	return err
}

func (r *locationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM locations WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *locationRepo) ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*models.Location, error) {
	query := `
		SELECT ` + locationColumns + `
		FROM locations
		WHERE warehouse_id = $1
		ORDER BY sort_order, name
	`
	rows, err := r.db.Query(ctx, query, warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []*models.Location
	for rows.Next() {
		location := &models.Location{}
		if err := rows.Scan(
			&location.ID, &location.WarehouseID, &location.ParentID, &location.Name,
			&location.Code, &location.Path, &location.Type, &location.GlobalSlot,
			&location.ExternalID, &location.Sellable, &location.Reservable,
			&location.Shelvable, &location.SortOrder, &location.CreatedAt, &location.UpdatedAt,
		); err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}
	return locations, rows.Err()
}

func (r *locationRepo) CountChildren(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM locations WHERE parent_id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&count)
	return count, err
}

// HasStock reports whether either stock family still references the location.
func (r *locationRepo) HasStock(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (SELECT 1 FROM stock_records WHERE location_id = $1)
		    OR EXISTS (SELECT 1 FROM consumable_stock_records WHERE location_id = $1)
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&exists)
	return exists, err
}

// StockTotals returns the summed durable quantity per location of a
// warehouse. Locations without stock rows are absent from the map.
func (r *locationRepo) StockTotals(ctx context.Context, warehouseID uuid.UUID) (map[uuid.UUID]int, error) {
	query := `
		SELECT s.location_id, COALESCE(SUM(s.quantity), 0)
		FROM stock_records s
		JOIN locations l ON l.id = s.location_id
		WHERE l.warehouse_id = $1
		GROUP BY s.location_id
	`
	rows, err := r.db.Query(ctx, query, warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[uuid.UUID]int)
	for rows.Next() {
		var locationID uuid.UUID
		var total int
		if err := rows.Scan(&locationID, &total); err != nil {
			return nil, err
		}
		totals[locationID] = total
	}
	return totals, rows.Err()
}

func (r *locationRepo) WarehouseIDFor(ctx context.Context, q Querier, locationID uuid.UUID) (uuid.UUID, error) {
	var warehouseID uuid.UUID
	query := `SELECT warehouse_id FROM locations WHERE id = $1`
	err := q.QueryRow(ctx, query, locationID).Scan(&warehouseID)
	return warehouseID, err
}

func (r *locationRepo) scanOne(row interface{ Scan(...interface{}) error }) (*models.Location, error) {
	location := &models.Location{}
	err := row.Scan(
		&location.ID, &location.WarehouseID, &location.ParentID, &location.Name,
		&location.Code, &location.Path, &location.Type, &location.GlobalSlot,
		&location.ExternalID, &location.Sellable, &location.Reservable,
		&location.Shelvable, &location.SortOrder, &location.CreatedAt, &location.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return location, nil
}
