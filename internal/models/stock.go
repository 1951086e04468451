package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockRecord is the quantity of a durable item physically present at a
// location. One row per {location, item}; rows at zero are pruned.
type StockRecord struct {
	ID          uuid.UUID `json:"id" db:"id"`
	LocationID  uuid.UUID `json:"location_id" db:"location_id"`
	ItemID      uuid.UUID `json:"item_id" db:"item_id"`
	Quantity    int       `json:"quantity" db:"quantity"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}

// ConsumableStockRecord tracks a consumable material at a location together
// with the quantity reserved against it. reserved_quantity never exceeds
// quantity.
type ConsumableStockRecord struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	LocationID       uuid.UUID       `json:"location_id" db:"location_id"`
	ConsumableID     uuid.UUID       `json:"consumable_id" db:"consumable_id"`
	Quantity         decimal.Decimal `json:"quantity" db:"quantity"`
	ReservedQuantity decimal.Decimal `json:"reserved_quantity" db:"reserved_quantity"`
	LastUpdated      time.Time       `json:"last_updated" db:"last_updated"`
}

// Available is quantity minus reservation.
func (r *ConsumableStockRecord) Available() decimal.Decimal {
	return r.Quantity.Sub(r.ReservedQuantity)
}
