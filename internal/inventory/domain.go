package inventory

import (
	"errors"
	"time"

	"github.com/atlas-wms/atlas-wms/internal/catalog"
)

// ErrInventoryNotFound indicates a missing session row.
var ErrInventoryNotFound = errors.New("inventory: session not found")

// Status is the lifecycle status of a counting session. Transitions are one
// directional: SAVED -> PENDING -> VALIDATED, with CANCELED reachable from
// SAVED and PENDING. VALIDATED and CANCELED are terminal.
type Status string

const (
	StatusSaved     Status = "SAVED"
	StatusPending   Status = "PENDING"
	StatusValidated Status = "VALIDATED"
	StatusCanceled  Status = "CANCELED"
)

// CanEdit reports whether session metadata may still change.
func (s Status) CanEdit() bool {
	return s == StatusSaved
}

// CanConfirm reports whether a count may be submitted. Re-confirming a
// PENDING session replaces the prior count.
func (s Status) CanConfirm() bool {
	return s == StatusSaved || s == StatusPending
}

// CanValidate reports whether reconciliation may run.
func (s Status) CanValidate() bool {
	return s == StatusPending
}

// CanCancel reports whether the session may be abandoned.
func (s Status) CanCancel() bool {
	return s == StatusSaved || s == StatusPending
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusValidated || s == StatusCanceled
}

// Inventory is one physical stock-count exercise scoped to a location and
// its subtree.
type Inventory struct {
	ID          int64      `json:"id" db:"id"`
	Reference   string     `json:"reference" db:"reference"`
	Title       string     `json:"title" db:"title"`
	LocationID  int64      `json:"location_id" db:"location_id"`
	Status      Status     `json:"status" db:"status"`
	CreatedBy   int64      `json:"created_by" db:"created_by"`
	ConfirmedBy *int64     `json:"confirmed_by,omitempty" db:"confirmed_by"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty" db:"confirmed_at"`
	ValidatedBy *int64     `json:"validated_by,omitempty" db:"validated_by"`
	ValidatedAt *time.Time `json:"validated_at,omitempty" db:"validated_at"`
	CanceledBy  *int64     `json:"canceled_by,omitempty" db:"canceled_by"`
	CanceledAt  *time.Time `json:"canceled_at,omitempty" db:"canceled_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Classification is the verdict for one barcode against the expected set.
type Classification string

const (
	// ClassFound means the unit was expected in scope and was scanned.
	ClassFound Classification = "FOUND"
	// ClassNotFound means the unit was expected in scope but not scanned.
	ClassNotFound Classification = "NOT_FOUND"
	// ClassInSurplus means the unit was scanned but not expected in scope.
	ClassInSurplus Classification = "IN_SURPLUS"
)

// ItemEntry is one classified barcode of a state row. Order matters:
// scanned units come first in submission order, missing units after.
type ItemEntry struct {
	Barcode        string         `json:"barcode"`
	Classification Classification `json:"classification"`
}

// State is the per-variant snapshot produced at confirm time. It is fully
// derived from the diff between submitted barcodes and the expected set and
// is never hand-edited.
type State struct {
	ID          int64            `json:"id" db:"id"`
	InventoryID int64            `json:"inventory_id" db:"inventory_id"`
	VariantID   int64            `json:"variant_id" db:"variant_id"`
	InStock     catalog.Quantity `json:"in_stock" db:"in_stock"`
	Counted     catalog.Quantity `json:"counted" db:"counted"`
	Items       []ItemEntry      `json:"items" db:"items"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
}

// CountInput is one submitted variant count: the barcodes physically
// scanned for that variant.
type CountInput struct {
	VariantID int64    `json:"variant_id"`
	Barcodes  []string `json:"barcodes"`
}

// EditPatch carries the mutable session metadata.
type EditPatch struct {
	Title *string `json:"title,omitempty"`
}
