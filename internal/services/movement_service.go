package services

import (
	"context"
	"fmt"

	"shelfstock/internal/common"
	"shelfstock/internal/models"
	"shelfstock/internal/repositories"
)

const (
	defaultMovementPageSize = 50
	maxMovementPageSize     = 500
)

// MovementService is the read side of the audit trail.
type MovementService interface {
	Query(ctx context.Context, filters *models.MovementFilters, limit, offset int) (*models.MovementPage, error)
}

type movementService struct {
	movementRepo repositories.MovementRepository
}

func NewMovementService(movementRepo repositories.MovementRepository) MovementService {
	return &movementService{movementRepo: movementRepo}
}

func (s *movementService) Query(ctx context.Context, filters *models.MovementFilters, limit, offset int) (*models.MovementPage, error) {
	if limit <= 0 {
		limit = defaultMovementPageSize
	}
	if limit > maxMovementPageSize {
		limit = maxMovementPageSize
	}
	if offset < 0 {
		offset = 0
	}
	if filters != nil && filters.Kind != nil {
		switch *filters.Kind {
		case models.MovementKindPicking, models.MovementKindPackingIn, models.MovementKindPackingOut,
			models.MovementKindReceiving, models.MovementKindTransfer, models.MovementKindAdjustment,
			models.MovementKindReturn, models.MovementKindCancel:
		default:
			return nil, common.BadRequestf("unknown movement kind %q", *filters.Kind)
		}
	}

	page, err := s.movementRepo.Query(ctx, filters, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	return page, nil
}
