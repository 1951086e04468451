package handlers

import (
	"net/http"
	"time"

	"shelfstock/internal/models"
	"shelfstock/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// MovementHandlers handles audit-trail HTTP requests
type MovementHandlers struct {
	movementService services.MovementService
}

func NewMovementHandlers(movementService services.MovementService) *MovementHandlers {
	return &MovementHandlers{movementService: movementService}
}

// ListMovementsRequest represents the query parameters for the movement log
type ListMovementsRequest struct {
	LocationID string `query:"location_id"`
	ItemID     string `query:"item_id"`
	OrderRef   string `query:"order_ref"`
	RouteRef   string `query:"route_ref"`
	Kind       string `query:"kind"`
	StartDate  string `query:"start_date"`
	EndDate    string `query:"end_date"`
	Limit      int    `query:"limit"`
	Offset     int    `query:"offset"`
}

// ListMovements returns a filtered, newest-first page of the movement log
func (h *MovementHandlers) ListMovements(c echo.Context) error {
	ctx := c.Request().Context()

	var req ListMovementsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	filters := &models.MovementFilters{}
	if req.LocationID != "" {
		id, err := uuid.Parse(req.LocationID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid location_id")
		}
		filters.LocationID = &id
	}
	if req.ItemID != "" {
		id, err := uuid.Parse(req.ItemID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid item_id")
		}
		filters.ItemID = &id
	}
	if req.OrderRef != "" {
		filters.OrderRef = &req.OrderRef
	}
	if req.RouteRef != "" {
		filters.RouteRef = &req.RouteRef
	}
	if req.Kind != "" {
		kind := models.MovementKind(req.Kind)
		filters.Kind = &kind
	}
	if req.StartDate != "" {
		start, err := time.Parse(time.RFC3339, req.StartDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid start_date, expected RFC3339")
		}
		filters.StartDate = &start
	}
	if req.EndDate != "" {
		end, err := time.Parse(time.RFC3339, req.EndDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid end_date, expected RFC3339")
		}
		filters.EndDate = &end
	}

	page, err := h.movementService.Query(ctx, filters, req.Limit, req.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, page)
}
