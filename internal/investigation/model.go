package investigation

import (
	"errors"
	"time"
)

// ErrInvestigationNotFound indicates a missing case row.
var ErrInvestigationNotFound = errors.New("investigation: case not found")

// Status is the lifecycle status of a case. Reconciliation only ever opens
// cases as PENDING; resolution happens in downstream tooling.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusResolved Status = "RESOLVED"
	StatusClosed   Status = "CLOSED"
)

// Investigation is a case opened for one unit that could not be physically
// located during reconciliation.
type Investigation struct {
	ID          int64     `json:"id" db:"id"`
	Reference   string    `json:"reference" db:"reference"`
	Status      Status    `json:"status" db:"status"`
	InventoryID int64     `json:"inventory_id" db:"inventory_id"`
	ItemID      int64     `json:"item_id" db:"item_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
