package services

import (
	"context"
	"errors"
	"fmt"

	"shelfstock/internal/common"
	"shelfstock/internal/repositories"
	"shelfstock/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AvailabilityService republishes warehouse-level stock aggregates to the
// per-channel availability rows consumed by catalog and checkout code.
type AvailabilityService interface {
	// Sync recomputes and publishes one item's availability in its own
	// transaction, keyed off the warehouse owning the triggering location.
	Sync(ctx context.Context, itemID, locationID uuid.UUID) error
	// SyncInTx does the same inside the caller's transaction, so ledger
	// mutation and published aggregate commit together.
	SyncInTx(ctx context.Context, q repositories.Querier, itemID, locationID uuid.UUID) error
	// SyncAll re-publishes every item of one warehouse (or all warehouses when
	// nil). Each item syncs in its own transaction; the sequence is idempotent
	// and safe to re-run after partial failure.
	SyncAll(ctx context.Context, warehouseID *uuid.UUID) error
}

type availabilityService struct {
	db            repositories.DB
	stockRepo     repositories.StockRepository
	locationRepo  repositories.LocationRepository
	warehouseRepo repositories.WarehouseRepository
}

func NewAvailabilityService(db repositories.DB, stockRepo repositories.StockRepository, locationRepo repositories.LocationRepository, warehouseRepo repositories.WarehouseRepository) AvailabilityService {
	return &availabilityService{
		db:            db,
		stockRepo:     stockRepo,
		locationRepo:  locationRepo,
		warehouseRepo: warehouseRepo,
	}
}

func (s *availabilityService) Sync(ctx context.Context, itemID, locationID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin availability sync: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.SyncInTx(ctx, tx, itemID, locationID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit availability sync: %w", err)
	}
	return nil
}

func (s *availabilityService) SyncInTx(ctx context.Context, q repositories.Querier, itemID, locationID uuid.UUID) error {
	warehouseID, err := s.locationRepo.WarehouseIDFor(ctx, q, locationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFoundf("location %s not found", locationID)
		}
		return fmt.Errorf("failed to resolve warehouse for location %s: %w", locationID, err)
	}
	return s.syncWarehouseItem(ctx, q, warehouseID, itemID)
}

func (s *availabilityService) syncWarehouseItem(ctx context.Context, q repositories.Querier, warehouseID, itemID uuid.UUID) error {
	total, sellable, err := s.stockRepo.WarehouseTotalsTx(ctx, q, warehouseID, itemID)
	if err != nil {
		return fmt.Errorf("failed to aggregate stock for item %s: %w", itemID, err)
	}

	channels, err := s.warehouseRepo.ChannelsTx(ctx, q, warehouseID)
	if err != nil {
		return fmt.Errorf("failed to list channels for warehouse %s: %w", warehouseID, err)
	}

	for _, channel := range channels {
		if err := s.warehouseRepo.UpsertChannelStockTx(ctx, q, channel.ID, itemID, total, sellable); err != nil {
			return fmt.Errorf("failed to publish availability to channel %s: %w", channel.Code, err)
		}
	}
	return nil
}

func (s *availabilityService) SyncAll(ctx context.Context, warehouseID *uuid.UUID) error {
	var warehouseIDs []uuid.UUID
	if warehouseID != nil {
		warehouseIDs = []uuid.UUID{*warehouseID}
	} else {
		warehouses, err := s.warehouseRepo.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list warehouses: %w", err)
		}
		for _, w := range warehouses {
			warehouseIDs = append(warehouseIDs, w.ID)
		}
	}

	for _, wid := range warehouseIDs {
		items, err := s.stockRepo.DistinctItemsByWarehouse(ctx, wid)
		if err != nil {
			return fmt.Errorf("failed to list items for warehouse %s: %w", wid, err)
		}
		for _, itemID := range items {
			if err := s.syncOne(ctx, wid, itemID); err != nil {
				return err
			}
		}
		logger.Info().Str("warehouse_id", wid.String()).Int("items", len(items)).Msg("availability re-sync finished")
	}
	return nil
}

func (s *availabilityService) syncOne(ctx context.Context, warehouseID, itemID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin availability sync: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.syncWarehouseItem(ctx, tx, warehouseID, itemID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit availability sync: %w", err)
	}
	return nil
}
