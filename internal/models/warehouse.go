package models

import (
	"time"

	"github.com/google/uuid"
)

// Warehouse groups a tree of storage locations.
type Warehouse struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"code" db:"code"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SalesChannel is an external sales surface (marketplace, webshop) that
// consumes published availability.
type SalesChannel struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"code" db:"code"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ChannelStock is the externally-owned availability snapshot per
// {item, sales channel}. The Availability Publisher writes into it but the
// sales-channel subsystem owns its lifecycle; committed_quantity is tracked
// by the order/fulfillment side and only read here.
type ChannelStock struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	ChannelID          uuid.UUID `json:"channel_id" db:"channel_id"`
	ItemID             uuid.UUID `json:"item_id" db:"item_id"`
	StockQuantity      int       `json:"stock_quantity" db:"stock_quantity"`
	SellableQuantity   int       `json:"sellable_quantity" db:"sellable_quantity"`
	ReservableQuantity int       `json:"reservable_quantity" db:"reservable_quantity"`
	CommittedQuantity  int       `json:"committed_quantity" db:"committed_quantity"`
	LastUpdated        time.Time `json:"last_updated" db:"last_updated"`
}
