package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shelfstock/internal/caching"
	"shelfstock/internal/common"
	"shelfstock/internal/models"
	"shelfstock/internal/repositories"
	"shelfstock/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const totalStockCacheTTL = 2 * time.Minute

// LedgerService owns the per-location quantity records of both item
// families. Every mutation runs in one transaction together with its
// movement record and the availability publish it triggers.
type LedgerService interface {
	AddStock(ctx context.Context, locationID, itemID uuid.UUID, quantity int) (*models.StockRecord, error)
	RemoveStock(ctx context.Context, locationID, itemID uuid.UUID, quantity int) (*models.StockRecord, error)

	AddConsumableStock(ctx context.Context, locationID, consumableID uuid.UUID, quantity decimal.Decimal) (*models.ConsumableStockRecord, error)
	RemoveConsumableStock(ctx context.Context, locationID, consumableID uuid.UUID, quantity decimal.Decimal) (*models.ConsumableStockRecord, error)
	ReserveConsumable(ctx context.Context, locationID, consumableID uuid.UUID, quantity decimal.Decimal) (*models.ConsumableStockRecord, error)
	ReleaseConsumable(ctx context.Context, locationID, consumableID uuid.UUID, quantity decimal.Decimal) (*models.ConsumableStockRecord, error)

	GetStock(ctx context.Context, locationID uuid.UUID) ([]*models.StockRecord, error)
	GetConsumableStock(ctx context.Context, locationID uuid.UUID) ([]*models.ConsumableStockRecord, error)
	GetProductTotalStock(ctx context.Context, itemID uuid.UUID) (int, error)
	GetConsumableTotalStock(ctx context.Context, consumableID uuid.UUID) (decimal.Decimal, error)
}

type ledgerService struct {
	db             repositories.DB
	stockRepo      repositories.StockRepository
	consumableRepo repositories.ConsumableStockRepository
	locationRepo   repositories.LocationRepository
	movementRepo   repositories.MovementRepository
	availability   AvailabilityService
	cache          caching.CacheService
}

func NewLedgerService(
	db repositories.DB,
	stockRepo repositories.StockRepository,
	consumableRepo repositories.ConsumableStockRepository,
	locationRepo repositories.LocationRepository,
	movementRepo repositories.MovementRepository,
	availability AvailabilityService,
	cache caching.CacheService,
) LedgerService {
	return &ledgerService{
		db:             db,
		stockRepo:      stockRepo,
		consumableRepo: consumableRepo,
		locationRepo:   locationRepo,
		movementRepo:   movementRepo,
		availability:   availability,
		cache:          cache,
	}
}

func (s *ledgerService) AddStock(ctx context.Context, locationID, itemID uuid.UUID, quantity int) (*models.StockRecord, error) {
	if quantity <= 0 {
		return nil, common.BadRequestf("quantity must be positive, got %d", quantity)
	}
	if err := s.requireLocation(ctx, locationID); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin stock addition: %w", err)
	}
	defer tx.Rollback(ctx)

	record, err := s.stockRepo.UpsertForUpdateTx(ctx, tx, locationID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock record: %w", err)
	}

	before := record.Quantity
	record.Quantity = before + quantity
	if err := s.stockRepo.SetQuantityTx(ctx, tx, record.ID, record.Quantity); err != nil {
		return nil, fmt.Errorf("failed to update stock record: %w", err)
	}

	movement := &models.Movement{
		LocationID:     locationID,
		ItemID:         itemID,
		Kind:           models.MovementKindAdjustment,
		Direction:      models.MovementIn,
		Quantity:       quantity,
		QuantityBefore: before,
		QuantityAfter:  record.Quantity,
	}
	if err := s.movementRepo.InsertTx(ctx, tx, movement); err != nil {
		return nil, fmt.Errorf("failed to record movement: %w", err)
	}

	if err := s.availability.SyncInTx(ctx, tx, itemID, locationID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stock addition: %w", err)
	}

	s.invalidateItemTotal(ctx, itemID)
	return record, nil
}

// RemoveStock decrements clamped at zero: removing more than is present
// floors the quantity instead of erroring. Rows at zero are pruned to keep
// the ledger sparse.
func (s *ledgerService) RemoveStock(ctx context.Context, locationID, itemID uuid.UUID, quantity int) (*models.StockRecord, error) {
	if quantity <= 0 {
		return nil, common.BadRequestf("quantity must be positive, got %d", quantity)
	}
	if err := s.requireLocation(ctx, locationID); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin stock removal: %w", err)
	}
	defer tx.Rollback(ctx)

	record, err := s.stockRepo.GetForUpdateTx(ctx, tx, locationID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock record: %w", err)
	}
	if record == nil {
		// Nothing to remove; clamp semantics make this a no-op.
		return &models.StockRecord{LocationID: locationID, ItemID: itemID, Quantity: 0}, nil
	}

	before := record.Quantity
	removed := quantity
	if removed > before {
		removed = before
	}
	record.Quantity = before - removed

	if record.Quantity == 0 {
		if err := s.stockRepo.DeleteTx(ctx, tx, record.ID); err != nil {
			return nil, fmt.Errorf("failed to prune stock record: %w", err)
		}
	} else {
		if err := s.stockRepo.SetQuantityTx(ctx, tx, record.ID, record.Quantity); err != nil {
			return nil, fmt.Errorf("failed to update stock record: %w", err)
		}
	}

	if removed > 0 {
		movement := &models.Movement{
			LocationID:     locationID,
			ItemID:         itemID,
			Kind:           models.MovementKindAdjustment,
			Direction:      models.MovementOut,
			Quantity:       removed,
			QuantityBefore: before,
			QuantityAfter:  record.Quantity,
		}
		if err := s.movementRepo.InsertTx(ctx, tx, movement); err != nil {
			return nil, fmt.Errorf("failed to record movement: %w", err)
		}
	}

	if err := s.availability.SyncInTx(ctx, tx, itemID, locationID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stock removal: %w", err)
	}

	s.invalidateItemTotal(ctx, itemID)
	return record, nil
}

func (s *ledgerService) AddConsumableStock(ctx context.Context, locationID, consumableID uuid.UUID, quantity decimal.Decimal) (*models.ConsumableStockRecord, error) {
	if !quantity.IsPositive() {
		return nil, common.BadRequestf("quantity must be positive, got %s", quantity)
	}
	if err := s.requireLocation(ctx, locationID); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin consumable addition: %w", err)
	}
	defer tx.Rollback(ctx)

	record, err := s.consumableRepo.UpsertForUpdateTx(ctx, tx, locationID, consumableID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock consumable record: %w", err)
	}

	record.Quantity = record.Quantity.Add(quantity)
	if err := s.consumableRepo.SetQuantitiesTx(ctx, tx, record.ID, record.Quantity, record.ReservedQuantity); err != nil {
		return nil, fmt.Errorf("failed to update consumable record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit consumable addition: %w", err)
	}

	s.invalidateConsumableTotal(ctx, consumableID)
	return record, nil
}

// RemoveConsumableStock is strict, unlike the durable path: it rejects when
// the record is absent or when the requested quantity exceeds what is
// available after reservations.
func (s *ledgerService) RemoveConsumableStock(ctx context.Context, locationID, consumableID uuid.UUID, quantity decimal.Decimal) (*models.ConsumableStockRecord, error) {
	if !quantity.IsPositive() {
		return nil, common.BadRequestf("quantity must be positive, got %s", quantity)
	}
	if err := s.requireLocation(ctx, locationID); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin consumable removal: %w", err)
	}
	defer tx.Rollback(ctx)

	record, err := s.consumableRepo.GetForUpdateTx(ctx, tx, locationID, consumableID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock consumable record: %w", err)
	}
	if record == nil {
		return nil, common.BadRequestf("no stock of consumable %s at location %s", consumableID, locationID)
	}

	available := record.Available()
	if available.LessThan(quantity) {
		return nil, common.BadRequestf("insufficient stock: need %s, have %s", quantity, available)
	}

	record.Quantity = record.Quantity.Sub(quantity)
	if record.Quantity.IsZero() && record.ReservedQuantity.IsZero() {
		if err := s.consumableRepo.DeleteTx(ctx, tx, record.ID); err != nil {
			return nil, fmt.Errorf("failed to prune consumable record: %w", err)
		}
	} else {
		if err := s.consumableRepo.SetQuantitiesTx(ctx, tx, record.ID, record.Quantity, record.ReservedQuantity); err != nil {
			return nil, fmt.Errorf("failed to update consumable record: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit consumable removal: %w", err)
	}

	s.invalidateConsumableTotal(ctx, consumableID)
	return record, nil
}

func (s *ledgerService) ReserveConsumable(ctx context.Context, locationID, consumableID uuid.UUID, quantity decimal.Decimal) (*models.ConsumableStockRecord, error) {
	if !quantity.IsPositive() {
		return nil, common.BadRequestf("quantity must be positive, got %s", quantity)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reservation: %w", err)
	}
	defer tx.Rollback(ctx)

	record, err := s.consumableRepo.GetForUpdateTx(ctx, tx, locationID, consumableID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock consumable record: %w", err)
	}
	if record == nil {
		return nil, common.BadRequestf("no stock of consumable %s at location %s", consumableID, locationID)
	}

	available := record.Available()
	if available.LessThan(quantity) {
		return nil, common.BadRequestf("insufficient stock to reserve: need %s, have %s", quantity, available)
	}

	record.ReservedQuantity = record.ReservedQuantity.Add(quantity)
	if err := s.consumableRepo.SetQuantitiesTx(ctx, tx, record.ID, record.Quantity, record.ReservedQuantity); err != nil {
		return nil, fmt.Errorf("failed to update reservation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reservation: %w", err)
	}
	return record, nil
}

// ReleaseConsumable lowers the reservation, clamped at zero.
func (s *ledgerService) ReleaseConsumable(ctx context.Context, locationID, consumableID uuid.UUID, quantity decimal.Decimal) (*models.ConsumableStockRecord, error) {
	if !quantity.IsPositive() {
		return nil, common.BadRequestf("quantity must be positive, got %s", quantity)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reservation release: %w", err)
	}
	defer tx.Rollback(ctx)

	record, err := s.consumableRepo.GetForUpdateTx(ctx, tx, locationID, consumableID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock consumable record: %w", err)
	}
	if record == nil {
		return nil, common.BadRequestf("no stock of consumable %s at location %s", consumableID, locationID)
	}

	record.ReservedQuantity = record.ReservedQuantity.Sub(quantity)
	if record.ReservedQuantity.IsNegative() {
		record.ReservedQuantity = decimal.Zero
	}

	if record.Quantity.IsZero() && record.ReservedQuantity.IsZero() {
		if err := s.consumableRepo.DeleteTx(ctx, tx, record.ID); err != nil {
			return nil, fmt.Errorf("failed to prune consumable record: %w", err)
		}
	} else {
		if err := s.consumableRepo.SetQuantitiesTx(ctx, tx, record.ID, record.Quantity, record.ReservedQuantity); err != nil {
			return nil, fmt.Errorf("failed to update reservation: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reservation release: %w", err)
	}
	return record, nil
}

func (s *ledgerService) GetStock(ctx context.Context, locationID uuid.UUID) ([]*models.StockRecord, error) {
	return s.stockRepo.ListByLocation(ctx, locationID)
}

func (s *ledgerService) GetConsumableStock(ctx context.Context, locationID uuid.UUID) ([]*models.ConsumableStockRecord, error) {
	return s.consumableRepo.ListByLocation(ctx, locationID)
}

func (s *ledgerService) GetProductTotalStock(ctx context.Context, itemID uuid.UUID) (int, error) {
	if cached, err := s.cache.GetItemTotal(ctx, itemID); cached != nil {
		return *cached, nil
	} else if err != nil {
		logger.Warn().Err(err).Str("item_id", itemID.String()).Msg("item total cache read failed")
	}

	total, err := s.stockRepo.TotalByItem(ctx, itemID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum stock for item %s: %w", itemID, err)
	}

	if err := s.cache.SetItemTotal(ctx, itemID, total, totalStockCacheTTL); err != nil {
		logger.Warn().Err(err).Str("item_id", itemID.String()).Msg("item total cache write failed")
	}
	return total, nil
}

func (s *ledgerService) GetConsumableTotalStock(ctx context.Context, consumableID uuid.UUID) (decimal.Decimal, error) {
	if cached, err := s.cache.GetConsumableTotal(ctx, consumableID); cached != nil {
		return *cached, nil
	} else if err != nil {
		logger.Warn().Err(err).Str("consumable_id", consumableID.String()).Msg("consumable total cache read failed")
	}

	total, err := s.consumableRepo.TotalByConsumable(ctx, consumableID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum stock for consumable %s: %w", consumableID, err)
	}

	if err := s.cache.SetConsumableTotal(ctx, consumableID, total, totalStockCacheTTL); err != nil {
		logger.Warn().Err(err).Str("consumable_id", consumableID.String()).Msg("consumable total cache write failed")
	}
	return total, nil
}

func (s *ledgerService) requireLocation(ctx context.Context, locationID uuid.UUID) error {
	_, err := s.locationRepo.GetByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFoundf("location %s not found", locationID)
		}
		return fmt.Errorf("failed to load location %s: %w", locationID, err)
	}
	return nil
}

func (s *ledgerService) invalidateItemTotal(ctx context.Context, itemID uuid.UUID) {
	if err := s.cache.DeleteItemTotal(ctx, itemID); err != nil {
		logger.Warn().Err(err).Str("item_id", itemID.String()).Msg("item total cache invalidation failed")
	}
}

func (s *ledgerService) invalidateConsumableTotal(ctx context.Context, consumableID uuid.UUID) {
	if err := s.cache.DeleteConsumableTotal(ctx, consumableID); err != nil {
		logger.Warn().Err(err).Str("consumable_id", consumableID.String()).Msg("consumable total cache invalidation failed")
	}
}
