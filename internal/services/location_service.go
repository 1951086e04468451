package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"shelfstock/internal/caching"
	"shelfstock/internal/common"
	"shelfstock/internal/models"
	"shelfstock/internal/repositories"
	"shelfstock/pkg/logger"
	"shelfstock/pkg/natsort"
	"shelfstock/pkg/slug"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const locationTreeCacheTTL = 5 * time.Minute

// LocationService manages the storage hierarchy of a warehouse.
type LocationService interface {
	Create(ctx context.Context, spec *models.CreateLocationSpec) (*models.Location, error)
	Update(ctx context.Context, id uuid.UUID, patch *models.UpdateLocationSpec) (*models.Location, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Location, error)
	FindTree(ctx context.Context, warehouseID uuid.UUID) ([]*models.LocationNode, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

type locationService struct {
	locationRepo  repositories.LocationRepository
	warehouseRepo repositories.WarehouseRepository
	cache         caching.CacheService
}

func NewLocationService(locationRepo repositories.LocationRepository, warehouseRepo repositories.WarehouseRepository, cache caching.CacheService) LocationService {
	return &locationService{
		locationRepo:  locationRepo,
		warehouseRepo: warehouseRepo,
		cache:         cache,
	}
}

func (s *locationService) Create(ctx context.Context, spec *models.CreateLocationSpec) (*models.Location, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, common.BadRequestf("location name is required")
	}
	if spec.Type == "" {
		spec.Type = models.LocationTypeNormal
	}
	if !models.ValidLocationType(spec.Type) {
		return nil, common.BadRequestf("unknown location type %q", spec.Type)
	}

	if _, err := s.warehouseRepo.GetByID(ctx, spec.WarehouseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NotFoundf("warehouse %s not found", spec.WarehouseID)
		}
		return nil, fmt.Errorf("failed to load warehouse %s: %w", spec.WarehouseID, err)
	}

	var parent *models.Location
	if spec.ParentID != nil {
		var err error
		parent, err = s.locationRepo.GetByID(ctx, *spec.ParentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, common.NotFoundf("parent location %s not found", *spec.ParentID)
			}
			return nil, fmt.Errorf("failed to load parent location: %w", err)
		}
		if parent.WarehouseID != spec.WarehouseID {
			return nil, common.BadRequestf("parent location %s belongs to a different warehouse", parent.Name)
		}
	}

	if err := s.checkGlobalSlot(ctx, spec.GlobalSlot, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.checkExternalID(ctx, spec.ExternalID, uuid.Nil); err != nil {
		return nil, err
	}

	policy := models.PolicyFor(spec.Type)
	location := &models.Location{
		ID:          uuid.New(),
		WarehouseID: spec.WarehouseID,
		ParentID:    spec.ParentID,
		Name:        name,
		Type:        spec.Type,
		GlobalSlot:  spec.GlobalSlot,
		ExternalID:  spec.ExternalID,
		Sellable:    policy.Sellable,
		Reservable:  policy.Reservable,
		Shelvable:   true,
		SortOrder:   spec.SortOrder,
	}
	if spec.Sellable != nil {
		location.Sellable = *spec.Sellable
	}
	if spec.Reservable != nil {
		location.Reservable = *spec.Reservable
	}
	if spec.Shelvable != nil {
		location.Shelvable = *spec.Shelvable
	}

	if parent != nil {
		location.Path = parent.Path + "/" + slug.Make(name)
		location.Code = parent.Code + " > " + name
	} else {
		location.Path = "/" + slug.Make(name)
		location.Code = name
	}

	if err := s.locationRepo.Create(ctx, location); err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}

	s.invalidateTree(ctx, location.WarehouseID)
	logger.Info().Str("location_id", location.ID.String()).Str("path", location.Path).Msg("location created")
	return location, nil
}

// Update applies a partial patch. Path and code are NOT recomputed on rename
// or re-parenting; they record the hierarchy as it was at creation time.
func (s *locationService) Update(ctx context.Context, id uuid.UUID, patch *models.UpdateLocationSpec) (*models.Location, error) {
	location, err := s.locationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NotFoundf("location %s not found", id)
		}
		return nil, fmt.Errorf("failed to load location %s: %w", id, err)
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, common.BadRequestf("location name is required")
		}
		location.Name = name
	}

	if patch.ParentID != nil {
		if *patch.ParentID == id {
			return nil, common.BadRequestf("location cannot be its own parent")
		}
		parent, err := s.locationRepo.GetByID(ctx, *patch.ParentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, common.NotFoundf("parent location %s not found", *patch.ParentID)
			}
			return nil, fmt.Errorf("failed to load parent location: %w", err)
		}
		if parent.WarehouseID != location.WarehouseID {
			return nil, common.BadRequestf("parent location %s belongs to a different warehouse", parent.Name)
		}
		location.ParentID = patch.ParentID
	}

	if patch.Type != nil && *patch.Type != location.Type {
		if !models.ValidLocationType(*patch.Type) {
			return nil, common.BadRequestf("unknown location type %q", *patch.Type)
		}
		location.Type = *patch.Type
		// A type change re-derives the policy flags unless the caller pins
		// them in the same patch.
		policy := models.PolicyFor(*patch.Type)
		location.Sellable = policy.Sellable
		location.Reservable = policy.Reservable
	}
	if patch.Sellable != nil {
		location.Sellable = *patch.Sellable
	}
	if patch.Reservable != nil {
		location.Reservable = *patch.Reservable
	}
	if patch.Shelvable != nil {
		location.Shelvable = *patch.Shelvable
	}
	if patch.SortOrder != nil {
		location.SortOrder = *patch.SortOrder
	}

	if patch.GlobalSlot != nil {
		if err := s.checkGlobalSlot(ctx, patch.GlobalSlot, id); err != nil {
			return nil, err
		}
		location.GlobalSlot = patch.GlobalSlot
	}
	if patch.ExternalID != nil {
		if err := s.checkExternalID(ctx, patch.ExternalID, id); err != nil {
			return nil, err
		}
		location.ExternalID = patch.ExternalID
	}

	if err := s.locationRepo.Update(ctx, location); err != nil {
		return nil, fmt.Errorf("failed to update location: %w", err)
	}

	s.invalidateTree(ctx, location.WarehouseID)
	return location, nil
}

func (s *locationService) Get(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	location, err := s.locationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NotFoundf("location %s not found", id)
		}
		return nil, fmt.Errorf("failed to load location %s: %w", id, err)
	}
	return location, nil
}

// FindTree rebuilds the hierarchy from the flat location list: every row gets
// a node, children attach to their parent via an id index, and orphans (rows
// whose parent is missing) surface as roots rather than disappearing.
func (s *locationService) FindTree(ctx context.Context, warehouseID uuid.UUID) ([]*models.LocationNode, error) {
	if cached, err := s.cache.GetLocationTree(ctx, warehouseID); cached != nil {
		return cached, nil
	} else if err != nil {
		logger.Warn().Err(err).Str("warehouse_id", warehouseID.String()).Msg("location tree cache read failed")
	}

	locations, err := s.locationRepo.ListByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	totals, err := s.locationRepo.StockTotals(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum location stock: %w", err)
	}

	index := make(map[uuid.UUID]*models.LocationNode, len(locations))
	for _, location := range locations {
		index[location.ID] = &models.LocationNode{
			Location:      *location,
			TotalQuantity: totals[location.ID],
		}
	}

	var roots []*models.LocationNode
	for _, location := range locations {
		node := index[location.ID]
		if location.ParentID != nil {
			if parent, ok := index[*location.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sortNodes(roots)
	for _, node := range index {
		sortNodes(node.Children)
	}

	if err := s.cache.SetLocationTree(ctx, warehouseID, roots, locationTreeCacheTTL); err != nil {
		logger.Warn().Err(err).Str("warehouse_id", warehouseID.String()).Msg("location tree cache write failed")
	}
	return roots, nil
}

// Remove deletes a leaf location. Locations with children or residual stock
// rows are kept, so history and hierarchy stay intact.
func (s *locationService) Remove(ctx context.Context, id uuid.UUID) error {
	location, err := s.locationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFoundf("location %s not found", id)
		}
		return fmt.Errorf("failed to load location %s: %w", id, err)
	}

	children, err := s.locationRepo.CountChildren(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count children: %w", err)
	}
	if children > 0 {
		return common.BadRequestf("location %s has %d child locations", location.Name, children)
	}

	hasStock, err := s.locationRepo.HasStock(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check stock: %w", err)
	}
	if hasStock {
		return common.BadRequestf("location %s still holds stock", location.Name)
	}

	if err := s.locationRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}

	s.invalidateTree(ctx, location.WarehouseID)
	logger.Info().Str("location_id", id.String()).Str("path", location.Path).Msg("location removed")
	return nil
}

// checkGlobalSlot enforces global uniqueness of the picking slot number.
// selfID exempts the location being updated.
func (s *locationService) checkGlobalSlot(ctx context.Context, slot *int, selfID uuid.UUID) error {
	if slot == nil {
		return nil
	}
	existing, err := s.locationRepo.GetByGlobalSlot(ctx, *slot)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("failed to check global slot %d: %w", *slot, err)
	}
	if existing.ID == selfID {
		return nil
	}
	return common.Conflictf("global slot %d is already assigned to %s", *slot, existing.Name)
}

func (s *locationService) checkExternalID(ctx context.Context, externalID *int64, selfID uuid.UUID) error {
	if externalID == nil {
		return nil
	}
	existing, err := s.locationRepo.GetByExternalID(ctx, *externalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("failed to check external id %d: %w", *externalID, err)
	}
	if existing.ID == selfID {
		return nil
	}
	return common.Conflictf("external id %d is already assigned to %s", *externalID, existing.Name)
}

func (s *locationService) invalidateTree(ctx context.Context, warehouseID uuid.UUID) {
	if err := s.cache.DeleteLocationTree(ctx, warehouseID); err != nil {
		logger.Warn().Err(err).Str("warehouse_id", warehouseID.String()).Msg("location tree cache invalidation failed")
	}
}

// sortNodes orders siblings by sort order first, then naturally by name so
// "A2" comes before "A10".
func sortNodes(nodes []*models.LocationNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].SortOrder != nodes[j].SortOrder {
			return nodes[i].SortOrder < nodes[j].SortOrder
		}
		return natsort.Less(nodes[i].Name, nodes[j].Name)
	})
}
