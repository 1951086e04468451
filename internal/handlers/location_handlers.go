package handlers

import (
	"net/http"

	"shelfstock/internal/models"
	"shelfstock/internal/services"

	"github.com/labstack/echo/v4"
)

// LocationHandlers handles location-tree HTTP requests
type LocationHandlers struct {
	locationService services.LocationService
}

func NewLocationHandlers(locationService services.LocationService) *LocationHandlers {
	return &LocationHandlers{locationService: locationService}
}

// CreateLocation handles creating a storage location
func (h *LocationHandlers) CreateLocation(c echo.Context) error {
	ctx := c.Request().Context()

	var spec models.CreateLocationSpec
	if err := c.Bind(&spec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	location, err := h.locationService.Create(ctx, &spec)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, location)
}

// UpdateLocation handles partial location updates
func (h *LocationHandlers) UpdateLocation(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var patch models.UpdateLocationSpec
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	location, err := h.locationService.Update(ctx, id, &patch)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, location)
}

// GetLocation returns a single location
func (h *LocationHandlers) GetLocation(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	location, err := h.locationService.Get(ctx, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, location)
}

// DeleteLocation removes a leaf location
func (h *LocationHandlers) DeleteLocation(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.locationService.Remove(ctx, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetLocationTree returns a warehouse's full hierarchy with per-location
// durable stock totals
func (h *LocationHandlers) GetLocationTree(c echo.Context) error {
	ctx := c.Request().Context()

	warehouseID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	tree, err := h.locationService.FindTree(ctx, warehouseID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"warehouse_id": warehouseID,
		"locations":    tree,
	})
}
