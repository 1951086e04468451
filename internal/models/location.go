package models

import (
	"time"

	"github.com/google/uuid"
)

// LocationType is the closed set of storage-location types. The type drives
// the default sellable/reservable policy of a location.
type LocationType string

const (
	LocationTypeNormal        LocationType = "normal"
	LocationTypeDamaged       LocationType = "damaged"
	LocationTypePacking       LocationType = "packing"
	LocationTypePicking       LocationType = "picking"
	LocationTypeReceiving     LocationType = "receiving"
	LocationTypeReturn        LocationType = "return"
	LocationTypeReturnDamaged LocationType = "return_damaged"
)

// LocationPolicy holds the type-derived defaults applied when a caller does
// not set the flags explicitly.
type LocationPolicy struct {
	Sellable   bool
	Reservable bool
}

var locationTypePolicies = map[LocationType]LocationPolicy{
	LocationTypeNormal:        {Sellable: true, Reservable: true},
	LocationTypeDamaged:       {Sellable: false, Reservable: false},
	LocationTypePacking:       {Sellable: false, Reservable: false},
	LocationTypePicking:       {Sellable: true, Reservable: true},
	LocationTypeReceiving:     {Sellable: false, Reservable: false},
	LocationTypeReturn:        {Sellable: false, Reservable: false},
	LocationTypeReturnDamaged: {Sellable: false, Reservable: false},
}

// PolicyFor returns the default policy for a location type. Unknown types get
// the most restrictive policy.
func PolicyFor(t LocationType) LocationPolicy {
	if p, ok := locationTypePolicies[t]; ok {
		return p
	}
	return LocationPolicy{}
}

// ValidLocationType reports whether t belongs to the closed type set.
func ValidLocationType(t LocationType) bool {
	_, ok := locationTypePolicies[t]
	return ok
}

// Location is a node in a warehouse's storage hierarchy.
type Location struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	WarehouseID uuid.UUID    `json:"warehouse_id" db:"warehouse_id"`
	ParentID    *uuid.UUID   `json:"parent_id,omitempty" db:"parent_id"`
	Name        string       `json:"name" db:"name"`
	Code        string       `json:"code" db:"code"`
	Path        string       `json:"path" db:"path"`
	Type        LocationType `json:"type" db:"type"`
	GlobalSlot  *int         `json:"global_slot,omitempty" db:"global_slot"`
	ExternalID  *int64       `json:"external_id,omitempty" db:"external_id"`
	Sellable    bool         `json:"sellable" db:"sellable"`
	Reservable  bool         `json:"reservable" db:"reservable"`
	Shelvable   bool         `json:"shelvable" db:"shelvable"`
	SortOrder   int          `json:"sort_order" db:"sort_order"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// LocationNode is a tree view of a location with its descendants attached and
// the durable stock held on that exact location (not descendants).
type LocationNode struct {
	Location
	TotalQuantity int             `json:"total_quantity"`
	Children      []*LocationNode `json:"children"`
}

// CreateLocationSpec is the input for LocationService.Create.
type CreateLocationSpec struct {
	WarehouseID uuid.UUID    `json:"warehouse_id"`
	ParentID    *uuid.UUID   `json:"parent_id,omitempty"`
	Name        string       `json:"name"`
	Type        LocationType `json:"type"`
	GlobalSlot  *int         `json:"global_slot,omitempty"`
	ExternalID  *int64       `json:"external_id,omitempty"`
	Sellable    *bool        `json:"sellable,omitempty"`
	Reservable  *bool        `json:"reservable,omitempty"`
	Shelvable   *bool        `json:"shelvable,omitempty"`
	SortOrder   int          `json:"sort_order"`
}

// UpdateLocationSpec is the partial input for LocationService.Update. Nil
// fields are left untouched.
type UpdateLocationSpec struct {
	Name       *string       `json:"name,omitempty"`
	ParentID   *uuid.UUID    `json:"parent_id,omitempty"`
	Type       *LocationType `json:"type,omitempty"`
	GlobalSlot *int          `json:"global_slot,omitempty"`
	ExternalID *int64        `json:"external_id,omitempty"`
	Sellable   *bool         `json:"sellable,omitempty"`
	Reservable *bool         `json:"reservable,omitempty"`
	Shelvable  *bool         `json:"shelvable,omitempty"`
	SortOrder  *int          `json:"sort_order,omitempty"`
}
