package catalog

import (
	"errors"
	"time"
)

// ErrProductNotFound indicates a missing product row.
var ErrProductNotFound = errors.New("catalog: product not found")

// ErrVariantNotFound indicates a missing variant row.
var ErrVariantNotFound = errors.New("catalog: variant not found")

// ErrItemNotFound indicates an unknown barcode.
var ErrItemNotFound = errors.New("catalog: item not found")

// ItemState is the lifecycle state of a serialized physical unit. Each state
// maps to exactly one quantity bucket on the owning variant and product.
type ItemState string

const (
	StateAvailable            ItemState = "AVAILABLE"
	StateReserved             ItemState = "RESERVED"
	StateInTransit            ItemState = "IN_TRANSIT"
	StateDeliveryProcessing   ItemState = "DELIVERY_PROCESSING"
	StateAwaitingSAV          ItemState = "AWAITING_SAV"
	StateDelivered            ItemState = "DELIVERED"
	StateGotOut               ItemState = "GOT_OUT"
	StatePendingInvestigation ItemState = "PENDING_INVESTIGATION"
	StateLost                 ItemState = "LOST"
	StateDead                 ItemState = "DEAD"
	StatePendingReception     ItemState = "PENDING_RECEPTION"
	StateDiscovered           ItemState = "DISCOVERED"
)

// IsValid checks if the state is a known lifecycle state.
func (s ItemState) IsValid() bool {
	_, ok := stateBuckets[s]
	return ok
}

// ItemStatus is the coarse workflow status of a unit.
type ItemStatus string

const (
	StatusInStock       ItemStatus = "IN_STOCK"
	StatusToInvestigate ItemStatus = "TO_INVESTIGATE"
	StatusOut           ItemStatus = "OUT"
)

// Product groups variants and carries the product-level quantity ledger.
type Product struct {
	ID        int64     `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	Quantity  Quantity  `json:"quantity" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProductVariant is a sellable variation of a product; its quantity ledger
// must always equal the sum of its units' states in the matching bucket.
type ProductVariant struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	SKU       string    `json:"sku" db:"sku"`
	Name      string    `json:"name" db:"name"`
	Quantity  Quantity  `json:"quantity" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProductItem is one serialized physical unit of a variant. A unit is in
// exactly one location at any time.
type ProductItem struct {
	ID         int64      `json:"id" db:"id"`
	Barcode    string     `json:"barcode" db:"barcode"`
	VariantID  int64      `json:"variant_id" db:"variant_id"`
	LocationID *int64     `json:"location_id,omitempty" db:"location_id"`
	State      ItemState  `json:"state" db:"state"`
	Status     ItemStatus `json:"status" db:"status"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}
