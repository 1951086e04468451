package handlers

import (
	"net/http"

	"shelfstock/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// StockHandlers handles ledger HTTP requests for both stock families
type StockHandlers struct {
	ledgerService services.LedgerService
}

func NewStockHandlers(ledgerService services.LedgerService) *StockHandlers {
	return &StockHandlers{ledgerService: ledgerService}
}

// StockMutationRequest is the payload for durable add/remove operations
type StockMutationRequest struct {
	LocationID uuid.UUID `json:"location_id"`
	ItemID     uuid.UUID `json:"item_id"`
	Quantity   int       `json:"quantity"`
}

// ConsumableMutationRequest is the payload for decimal-family operations
type ConsumableMutationRequest struct {
	LocationID   uuid.UUID       `json:"location_id"`
	ConsumableID uuid.UUID       `json:"consumable_id"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// AddStock handles durable stock additions
func (h *StockHandlers) AddStock(c echo.Context) error {
	ctx := c.Request().Context()

	var req StockMutationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	record, err := h.ledgerService.AddStock(ctx, req.LocationID, req.ItemID, req.Quantity)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, record)
}

// RemoveStock handles durable stock removals (clamped at zero)
func (h *StockHandlers) RemoveStock(c echo.Context) error {
	ctx := c.Request().Context()

	var req StockMutationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	record, err := h.ledgerService.RemoveStock(ctx, req.LocationID, req.ItemID, req.Quantity)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, record)
}

// AddConsumableStock handles decimal stock additions
func (h *StockHandlers) AddConsumableStock(c echo.Context) error {
	ctx := c.Request().Context()

	var req ConsumableMutationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	record, err := h.ledgerService.AddConsumableStock(ctx, req.LocationID, req.ConsumableID, req.Quantity)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, record)
}

// RemoveConsumableStock handles strict decimal stock removals
func (h *StockHandlers) RemoveConsumableStock(c echo.Context) error {
	ctx := c.Request().Context()

	var req ConsumableMutationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	record, err := h.ledgerService.RemoveConsumableStock(ctx, req.LocationID, req.ConsumableID, req.Quantity)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, record)
}

// ReserveConsumable places a reservation against available quantity
func (h *StockHandlers) ReserveConsumable(c echo.Context) error {
	ctx := c.Request().Context()

	var req ConsumableMutationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	record, err := h.ledgerService.ReserveConsumable(ctx, req.LocationID, req.ConsumableID, req.Quantity)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, record)
}

// ReleaseConsumable lowers a reservation
func (h *StockHandlers) ReleaseConsumable(c echo.Context) error {
	ctx := c.Request().Context()

	var req ConsumableMutationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	record, err := h.ledgerService.ReleaseConsumable(ctx, req.LocationID, req.ConsumableID, req.Quantity)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, record)
}

// GetLocationStock lists durable stock records at one location
func (h *StockHandlers) GetLocationStock(c echo.Context) error {
	ctx := c.Request().Context()

	locationID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	records, err := h.ledgerService.GetStock(ctx, locationID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"location_id": locationID,
		"stock":       records,
	})
}

// GetLocationConsumableStock lists consumable records at one location
func (h *StockHandlers) GetLocationConsumableStock(c echo.Context) error {
	ctx := c.Request().Context()

	locationID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	records, err := h.ledgerService.GetConsumableStock(ctx, locationID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"location_id": locationID,
		"stock":       records,
	})
}

// GetProductTotalStock returns the cross-location sum for one item
func (h *StockHandlers) GetProductTotalStock(c echo.Context) error {
	ctx := c.Request().Context()

	itemID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	total, err := h.ledgerService.GetProductTotalStock(ctx, itemID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"item_id": itemID,
		"total":   total,
	})
}

// GetConsumableTotalStock returns the cross-location sum for one consumable
func (h *StockHandlers) GetConsumableTotalStock(c echo.Context) error {
	ctx := c.Request().Context()

	consumableID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	total, err := h.ledgerService.GetConsumableTotalStock(ctx, consumableID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"consumable_id": consumableID,
		"total":         total,
	})
}
