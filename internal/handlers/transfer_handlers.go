package handlers

import (
	"net/http"

	"shelfstock/internal/models"
	"shelfstock/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TransferHandlers handles stock transfer HTTP requests
type TransferHandlers struct {
	transferService services.TransferService
}

func NewTransferHandlers(transferService services.TransferService) *TransferHandlers {
	return &TransferHandlers{transferService: transferService}
}

// TransferRequest is the payload for moving stock between locations
type TransferRequest struct {
	FromLocationID uuid.UUID          `json:"from_location_id"`
	ToLocationID   uuid.UUID          `json:"to_location_id"`
	ItemID         uuid.UUID          `json:"item_id"`
	Quantity       int                `json:"quantity"`
	Provenance     *models.Provenance `json:"provenance,omitempty"`
}

// RemoveWithHistoryRequest is the payload for an audited single-location
// removal
type RemoveWithHistoryRequest struct {
	LocationID uuid.UUID          `json:"location_id"`
	ItemID     uuid.UUID          `json:"item_id"`
	Quantity   int                `json:"quantity"`
	Provenance *models.Provenance `json:"provenance,omitempty"`
}

// Transfer moves durable stock between two locations in one transaction
func (h *TransferHandlers) Transfer(c echo.Context) error {
	ctx := c.Request().Context()

	var req TransferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	result, err := h.transferService.Transfer(ctx, req.FromLocationID, req.ToLocationID, req.ItemID, req.Quantity)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// TransferWithHistory moves stock and stamps provenance onto both movements
func (h *TransferHandlers) TransferWithHistory(c echo.Context) error {
	ctx := c.Request().Context()

	var req TransferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	result, err := h.transferService.TransferWithHistory(ctx, req.FromLocationID, req.ToLocationID, req.ItemID, req.Quantity, req.Provenance)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// RemoveStockWithHistory removes stock from one location with an audit trail
func (h *TransferHandlers) RemoveStockWithHistory(c echo.Context) error {
	ctx := c.Request().Context()

	var req RemoveWithHistoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	record, err := h.transferService.RemoveStockWithHistory(ctx, req.LocationID, req.ItemID, req.Quantity, req.Provenance)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, record)
}
