package warehouse

import (
	"errors"
	"time"
)

// AreaKind distinguishes ordinary areas from system-default ones.
type AreaKind string

const (
	AreaKindOrdinary  AreaKind = "ORDINARY"
	AreaKindDeadStock AreaKind = "DEAD_STOCK"
)

// LocationKind distinguishes ordinary locations from system-default ones.
// An investigation location holds units whose physical location is unknown
// and can never be the target of a counting session.
type LocationKind string

const (
	LocationKindOrdinary      LocationKind = "ORDINARY"
	LocationKindInvestigation LocationKind = "INVESTIGATION"
)

// StoragePoint is a warehouse, the root of a location hierarchy.
type StoragePoint struct {
	ID        int64     `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Area groups root locations under a storage point.
type Area struct {
	ID             int64     `json:"id" db:"id"`
	StoragePointID int64     `json:"storage_point_id" db:"storage_point_id"`
	Name           string    `json:"name" db:"name"`
	Kind           AreaKind  `json:"kind" db:"kind"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Location is one node of the hierarchy. Root locations link up to an Area;
// child locations link up to a parent location. Descendants are derived by
// traversal, never stored, which keeps ownership acyclic.
type Location struct {
	ID         int64        `json:"id" db:"id"`
	ParentID   *int64       `json:"parent_id,omitempty" db:"parent_id"`
	AreaID     *int64       `json:"area_id,omitempty" db:"area_id"`
	Reference  string       `json:"reference" db:"reference"`
	Barcode    string       `json:"barcode" db:"barcode"`
	Kind       LocationKind `json:"kind" db:"kind"`
	TotalItems int          `json:"total_items" db:"total_items"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" db:"updated_at"`
}

// IsRoot reports whether the location sits directly under an area.
func (l Location) IsRoot() bool {
	return l.ParentID == nil
}

var (
	// ErrStoragePointNotFound indicates a missing storage point row.
	ErrStoragePointNotFound = errors.New("warehouse: storage point not found")
	// ErrAreaNotFound indicates a missing area row.
	ErrAreaNotFound = errors.New("warehouse: area not found")
	// ErrLocationNotFound indicates a missing location row.
	ErrLocationNotFound = errors.New("warehouse: location not found")
	// ErrOrphanLocation indicates a root walk ended on a node without an
	// area link, which means the tree is corrupt.
	ErrOrphanLocation = errors.New("warehouse: location chain has no area link")
)
