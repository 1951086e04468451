package models

import (
	"time"

	"github.com/google/uuid"
)

// MovementKind classifies the cause of a quantity change.
type MovementKind string

const (
	MovementKindPicking    MovementKind = "picking"
	MovementKindPackingIn  MovementKind = "packing_in"
	MovementKindPackingOut MovementKind = "packing_out"
	MovementKindReceiving  MovementKind = "receiving"
	MovementKindTransfer   MovementKind = "transfer"
	MovementKindAdjustment MovementKind = "adjustment"
	MovementKindReturn     MovementKind = "return"
	MovementKindCancel     MovementKind = "cancel"
)

// MovementDirection is the sign of a movement.
type MovementDirection string

const (
	MovementIn  MovementDirection = "in"
	MovementOut MovementDirection = "out"
)

// Movement is one immutable audit entry describing a single directional
// quantity change at one location. Never updated or deleted after creation.
type Movement struct {
	ID               uuid.UUID         `json:"id" db:"id"`
	LocationID       uuid.UUID         `json:"location_id" db:"location_id"`
	ItemID           uuid.UUID         `json:"item_id" db:"item_id"`
	Kind             MovementKind      `json:"kind" db:"kind"`
	Direction        MovementDirection `json:"direction" db:"direction"`
	Quantity         int               `json:"quantity" db:"quantity"`
	QuantityBefore   int               `json:"quantity_before" db:"quantity_before"`
	QuantityAfter    int               `json:"quantity_after" db:"quantity_after"`
	OrderRef         *string           `json:"order_ref,omitempty" db:"order_ref"`
	RouteRef         *string           `json:"route_ref,omitempty" db:"route_ref"`
	SourceLocationID *uuid.UUID        `json:"source_location_id,omitempty" db:"source_location_id"`
	TargetLocationID *uuid.UUID        `json:"target_location_id,omitempty" db:"target_location_id"`
	ReferenceNumber  *string           `json:"reference_number,omitempty" db:"reference_number"`
	Notes            *string           `json:"notes,omitempty" db:"notes"`
	UserID           *uuid.UUID        `json:"user_id,omitempty" db:"user_id"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
}

// MovementFilters narrows a movement query. Nil fields are ignored.
type MovementFilters struct {
	LocationID *uuid.UUID    `json:"location_id,omitempty"`
	ItemID     *uuid.UUID    `json:"item_id,omitempty"`
	OrderRef   *string       `json:"order_ref,omitempty"`
	RouteRef   *string       `json:"route_ref,omitempty"`
	Kind       *MovementKind `json:"kind,omitempty"`
	StartDate  *time.Time    `json:"start_date,omitempty"`
	EndDate    *time.Time    `json:"end_date,omitempty"`
}

// MovementPage is one page of the audit trail, newest first.
type MovementPage struct {
	Movements []*Movement `json:"movements"`
	Total     int         `json:"total"`
	Limit     int         `json:"limit"`
	Offset    int         `json:"offset"`
}

// Provenance carries optional external references recorded on history-aware
// ledger operations.
type Provenance struct {
	OrderRef        *string    `json:"order_ref,omitempty"`
	RouteRef        *string    `json:"route_ref,omitempty"`
	ReferenceNumber *string    `json:"reference_number,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	UserID          *uuid.UUID `json:"user_id,omitempty"`
}
