package stock

import "time"

// MovementKind enumerates supported stock movements.
type MovementKind string

const (
	// MovementInternal is a relocation between two locations of the same
	// warehouse.
	MovementInternal MovementKind = "INTERNAL"
	// MovementAdjustment records a correction applied by reconciliation.
	MovementAdjustment MovementKind = "STOCK_ADJUSTMENT"
	// MovementReception is an inbound arrival.
	MovementReception MovementKind = "RECEPTION"
	// MovementShipment is an outbound departure.
	MovementShipment MovementKind = "SHIPMENT"
)

// TriggerKind tells whether a human or the system caused the movement.
type TriggerKind string

const (
	TriggerOperator TriggerKind = "OPERATOR"
	TriggerSystem   TriggerKind = "SYSTEM"
)

// Origin tags the workflow that produced the movement.
type Origin string

const (
	OriginInventory   Origin = "INVENTORY"
	OriginReception   Origin = "RECEPTION"
	OriginRequisition Origin = "REQUISITION"
	OriginReturn      Origin = "RETURN"
)

// Endpoint is one side of a movement: either a concrete location or an
// abstract tag such as "in-transit" or "customer".
type Endpoint struct {
	LocationID *int64 `json:"location_id,omitempty" db:"location_id"`
	Tag        string `json:"tag,omitempty" db:"tag"`
}

// LocationEndpoint builds an endpoint for a concrete location.
func LocationEndpoint(locationID int64) Endpoint {
	return Endpoint{LocationID: &locationID}
}

// TagEndpoint builds an endpoint for an abstract area.
func TagEndpoint(tag string) Endpoint {
	return Endpoint{Tag: tag}
}

// Movement is one append-only ledger row. Every unit relocation is paired
// 1:1 with exactly one movement.
type Movement struct {
	ID          int64        `json:"id" db:"id"`
	Kind        MovementKind `json:"kind" db:"kind"`
	Trigger     TriggerKind  `json:"trigger" db:"trigger"`
	Origin      Origin       `json:"origin" db:"origin"`
	ItemID      int64        `json:"item_id" db:"item_id"`
	Source      Endpoint     `json:"source"`
	Target      Endpoint     `json:"target"`
	InventoryID *int64       `json:"inventory_id,omitempty" db:"inventory_id"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}
