package repositories

import (
	"context"
	"fmt"
	"time"

	"shelfstock/internal/models"

	"github.com/google/uuid"
)

// MovementRepository is the append-only audit trail. Rows are written once,
// inside the same transaction as the ledger mutation they describe, and are
// never updated or deleted.
type MovementRepository interface {
	InsertTx(ctx context.Context, q Querier, movement *models.Movement) error
	Query(ctx context.Context, filters *models.MovementFilters, limit, offset int) (*models.MovementPage, error)
	ListCreatedBetween(ctx context.Context, start, end time.Time) ([]*models.Movement, error)
}

type movementRepo struct {
	db Querier
}

func NewMovementRepository(db Querier) MovementRepository {
	return &movementRepo{db: db}
}

const movementColumns = `id, location_id, item_id, kind, direction, quantity, quantity_before, quantity_after, order_ref, route_ref, source_location_id, target_location_id, reference_number, notes, user_id, created_at`

func (r *movementRepo) InsertTx(ctx context.Context, q Querier, movement *models.Movement) error {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	movement.CreatedAt = time.Now()

	query := `
		INSERT INTO movements (id, location_id, item_id, kind, direction, quantity, quantity_before, quantity_after, order_ref, route_ref, source_location_id, target_location_id, reference_number, notes, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := q.Exec(ctx, query,
		movement.ID, movement.LocationID, movement.ItemID, movement.Kind,
		movement.Direction, movement.Quantity, movement.QuantityBefore,
		movement.QuantityAfter, movement.OrderRef, movement.RouteRef,
		movement.SourceLocationID, movement.TargetLocationID,
		movement.ReferenceNumber, movement.Notes, movement.UserID,
		movement.CreatedAt,
	)
	return err
}

func (r *movementRepo) Query(ctx context.Context, filters *models.MovementFilters, limit, offset int) (*models.MovementPage, error) {
	if filters == nil {
		filters = &models.MovementFilters{}
	}

	where := " WHERE 1=1"
	args := []interface{}{}
	argIdx := 0

	addArg := func(clause string, value interface{}) {
		argIdx++
		where += fmt.Sprintf(clause, argIdx)
		args = append(args, value)
	}

	if filters.LocationID != nil {
		addArg(" AND location_id = $%d", *filters.LocationID)
	}
	if filters.ItemID != nil {
		addArg(" AND item_id = $%d", *filters.ItemID)
	}
	if filters.OrderRef != nil {
		addArg(" AND order_ref = $%d", *filters.OrderRef)
	}
	if filters.RouteRef != nil {
		addArg(" AND route_ref = $%d", *filters.RouteRef)
	}
	if filters.Kind != nil {
		addArg(" AND kind = $%d", *filters.Kind)
	}
	if filters.StartDate != nil {
		addArg(" AND created_at >= $%d", *filters.StartDate)
	}
	if filters.EndDate != nil {
		addArg(" AND created_at <= $%d", *filters.EndDate)
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM movements"+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := "SELECT " + movementColumns + " FROM movements" + where + " ORDER BY created_at DESC"
	argIdx++
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, limit)
	argIdx++
	query += fmt.Sprintf(" OFFSET $%d", argIdx)
	args = append(args, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	page := &models.MovementPage{Total: total, Limit: limit, Offset: offset}
	for rows.Next() {
		movement := &models.Movement{}
		if err := rows.Scan(
			&movement.ID, &movement.LocationID, &movement.ItemID, &movement.Kind,
			&movement.Direction, &movement.Quantity, &movement.QuantityBefore,
			&movement.QuantityAfter, &movement.OrderRef, &movement.RouteRef,
			&movement.SourceLocationID, &movement.TargetLocationID,
			&movement.ReferenceNumber, &movement.Notes, &movement.UserID,
			&movement.CreatedAt,
		); err != nil {
			return nil, err
		}
		page.Movements = append(page.Movements, movement)
	}
	return page, rows.Err()
}

// ListCreatedBetween feeds the archive exporter. Ordered oldest first so the
// export reads chronologically.
func (r *movementRepo) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]*models.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []*models.Movement
	for rows.Next() {
		movement := &models.Movement{}
		if err := rows.Scan(
			&movement.ID, &movement.LocationID, &movement.ItemID, &movement.Kind,
			&movement.Direction, &movement.Quantity, &movement.QuantityBefore,
			&movement.QuantityAfter, &movement.OrderRef, &movement.RouteRef,
			&movement.SourceLocationID, &movement.TargetLocationID,
			&movement.ReferenceNumber, &movement.Notes, &movement.UserID,
			&movement.CreatedAt,
		); err != nil {
			return nil, err
		}
		movements = append(movements, movement)
	}
	return movements, rows.Err()
}
