package handlers

import (
	"net/http"

	"shelfstock/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AvailabilityHandlers handles channel-availability HTTP requests
type AvailabilityHandlers struct {
	availabilityService services.AvailabilityService
}

func NewAvailabilityHandlers(availabilityService services.AvailabilityService) *AvailabilityHandlers {
	return &AvailabilityHandlers{availabilityService: availabilityService}
}

// SyncAllRequest optionally narrows the re-sync to one warehouse
type SyncAllRequest struct {
	WarehouseID *uuid.UUID `json:"warehouse_id,omitempty"`
}

// SyncAll re-publishes availability for every item of one or all warehouses
func (h *AvailabilityHandlers) SyncAll(c echo.Context) error {
	ctx := c.Request().Context()

	var req SyncAllRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.availabilityService.SyncAll(ctx, req.WarehouseID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "synced"})
}
