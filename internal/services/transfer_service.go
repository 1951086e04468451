package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"shelfstock/internal/caching"
	"shelfstock/internal/common"
	"shelfstock/internal/models"
	"shelfstock/internal/repositories"
	"shelfstock/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransferResult reports both resulting stock rows and the audit records a
// transfer produced.
type TransferResult struct {
	From      *models.StockRecord `json:"from"`
	To        *models.StockRecord `json:"to"`
	Movements []*models.Movement  `json:"movements"`
}

// TransferService moves durable stock between locations. Debit, credit and
// both movement records commit in one transaction, so no observer sees the
// quantity in flight.
type TransferService interface {
	Transfer(ctx context.Context, fromID, toID, itemID uuid.UUID, quantity int) (*TransferResult, error)
	TransferWithHistory(ctx context.Context, fromID, toID, itemID uuid.UUID, quantity int, provenance *models.Provenance) (*TransferResult, error)
	RemoveStockWithHistory(ctx context.Context, locationID, itemID uuid.UUID, quantity int, provenance *models.Provenance) (*models.StockRecord, error)
}

type transferService struct {
	db           repositories.DB
	stockRepo    repositories.StockRepository
	locationRepo repositories.LocationRepository
	movementRepo repositories.MovementRepository
	availability AvailabilityService
	cache        caching.CacheService
}

func NewTransferService(
	db repositories.DB,
	stockRepo repositories.StockRepository,
	locationRepo repositories.LocationRepository,
	movementRepo repositories.MovementRepository,
	availability AvailabilityService,
	cache caching.CacheService,
) TransferService {
	return &transferService{
		db:           db,
		stockRepo:    stockRepo,
		locationRepo: locationRepo,
		movementRepo: movementRepo,
		availability: availability,
		cache:        cache,
	}
}

func (s *transferService) Transfer(ctx context.Context, fromID, toID, itemID uuid.UUID, quantity int) (*TransferResult, error) {
	return s.TransferWithHistory(ctx, fromID, toID, itemID, quantity, nil)
}

func (s *transferService) TransferWithHistory(ctx context.Context, fromID, toID, itemID uuid.UUID, quantity int, provenance *models.Provenance) (*TransferResult, error) {
	if quantity <= 0 {
		return nil, common.BadRequestf("quantity must be positive, got %d", quantity)
	}
	if fromID == toID {
		return nil, common.BadRequestf("source and destination are the same location")
	}

	from, err := s.loadLocation(ctx, fromID)
	if err != nil {
		return nil, err
	}
	to, err := s.loadLocation(ctx, toID)
	if err != nil {
		return nil, err
	}
	if !to.Shelvable {
		return nil, common.BadRequestf("location %s does not accept stock", to.Name)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transfer: %w", err)
	}
	defer tx.Rollback(ctx)

	fromRecord, toRecord, err := s.lockPair(ctx, tx, fromID, toID, itemID)
	if err != nil {
		return nil, err
	}

	if fromRecord == nil || fromRecord.Quantity < quantity {
		available := 0
		if fromRecord != nil {
			available = fromRecord.Quantity
		}
		return nil, common.BadRequestf("insufficient stock: need %d, have %d", quantity, available)
	}

	fromBefore := fromRecord.Quantity
	toBefore := toRecord.Quantity

	fromRecord.Quantity = fromBefore - quantity
	if fromRecord.Quantity == 0 {
		if err := s.stockRepo.DeleteTx(ctx, tx, fromRecord.ID); err != nil {
			return nil, fmt.Errorf("failed to prune source record: %w", err)
		}
	} else {
		if err := s.stockRepo.SetQuantityTx(ctx, tx, fromRecord.ID, fromRecord.Quantity); err != nil {
			return nil, fmt.Errorf("failed to debit source: %w", err)
		}
	}

	toRecord.Quantity = toBefore + quantity
	if err := s.stockRepo.SetQuantityTx(ctx, tx, toRecord.ID, toRecord.Quantity); err != nil {
		return nil, fmt.Errorf("failed to credit destination: %w", err)
	}

	out := &models.Movement{
		LocationID:       fromID,
		ItemID:           itemID,
		Kind:             models.MovementKindTransfer,
		Direction:        models.MovementOut,
		Quantity:         quantity,
		QuantityBefore:   fromBefore,
		QuantityAfter:    fromRecord.Quantity,
		SourceLocationID: &fromID,
		TargetLocationID: &toID,
	}
	in := &models.Movement{
		LocationID:       toID,
		ItemID:           itemID,
		Kind:             models.MovementKindTransfer,
		Direction:        models.MovementIn,
		Quantity:         quantity,
		QuantityBefore:   toBefore,
		QuantityAfter:    toRecord.Quantity,
		SourceLocationID: &fromID,
		TargetLocationID: &toID,
	}
	applyProvenance(out, provenance)
	applyProvenance(in, provenance)

	if err := s.movementRepo.InsertTx(ctx, tx, out); err != nil {
		return nil, fmt.Errorf("failed to record outbound movement: %w", err)
	}
	if err := s.movementRepo.InsertTx(ctx, tx, in); err != nil {
		return nil, fmt.Errorf("failed to record inbound movement: %w", err)
	}

	if err := s.availability.SyncInTx(ctx, tx, itemID, fromID); err != nil {
		return nil, err
	}
	// Cross-warehouse transfers need the destination side published too.
	if from.WarehouseID != to.WarehouseID {
		if err := s.availability.SyncInTx(ctx, tx, itemID, toID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transfer: %w", err)
	}

	s.invalidateItemTotal(ctx, itemID)
	logger.Info().
		Str("item_id", itemID.String()).
		Str("from", from.Code).
		Str("to", to.Code).
		Int("quantity", quantity).
		Msg("stock transferred")

	return &TransferResult{
		From:      fromRecord,
		To:        toRecord,
		Movements: []*models.Movement{out, in},
	}, nil
}

// RemoveStockWithHistory decrements one location with full provenance on the
// audit record. Clamped at zero like the plain removal path.
func (s *transferService) RemoveStockWithHistory(ctx context.Context, locationID, itemID uuid.UUID, quantity int, provenance *models.Provenance) (*models.StockRecord, error) {
	if quantity <= 0 {
		return nil, common.BadRequestf("quantity must be positive, got %d", quantity)
	}
	if _, err := s.loadLocation(ctx, locationID); err != nil {
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
		applyProvenance(movement, provenance)
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

// lockPair locks both stock rows in a deterministic order so two concurrent
// opposite transfers cannot deadlock. The source row is left absent (nil)
// when it does not exist; the destination is created at zero.
func (s *transferService) lockPair(ctx context.Context, tx pgx.Tx, fromID, toID, itemID uuid.UUID) (*models.StockRecord, *models.StockRecord, error) {
	var fromRecord, toRecord *models.StockRecord
	var err error

	lockFrom := func() error {
		fromRecord, err = s.stockRepo.GetForUpdateTx(ctx, tx, fromID, itemID)
		if err != nil {
			return fmt.Errorf("failed to lock source record: %w", err)
		}
		return nil
	}
	lockTo := func() error {
		toRecord, err = s.stockRepo.UpsertForUpdateTx(ctx, tx, toID, itemID)
		if err != nil {
			return fmt.Errorf("failed to lock destination record: %w", err)
		}
		return nil
	}

	if bytes.Compare(fromID[:], toID[:]) < 0 {
		if err := lockFrom(); err != nil {
			return nil, nil, err
		}
		if err := lockTo(); err != nil {
			return nil, nil, err
		}
	} else {
		if err := lockTo(); err != nil {
			return nil, nil, err
		}
		if err := lockFrom(); err != nil {
			return nil, nil, err
		}
	}
	return fromRecord, toRecord, nil
}

func (s *transferService) loadLocation(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	location, err := s.locationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NotFoundf("location %s not found", id)
		}
		return nil, fmt.Errorf("failed to load location %s: %w", id, err)
	}
	return location, nil
}

func (s *transferService) invalidateItemTotal(ctx context.Context, itemID uuid.UUID) {
	if err := s.cache.DeleteItemTotal(ctx, itemID); err != nil {
		logger.Warn().Err(err).Str("item_id", itemID.String()).Msg("item total cache invalidation failed")
	}
}

func applyProvenance(movement *models.Movement, provenance *models.Provenance) {
	if provenance == nil {
		return
	}
	movement.OrderRef = provenance.OrderRef
	movement.RouteRef = provenance.RouteRef
	movement.ReferenceNumber = provenance.ReferenceNumber
	movement.Notes = provenance.Notes
	movement.UserID = provenance.UserID
}
