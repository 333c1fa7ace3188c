package inventory

import (
	"github.com/atlas-wms/atlas-wms/internal/catalog"
	"github.com/atlas-wms/atlas-wms/internal/stock"
)

// PlannedMove is one corrective relocation computed from a classification.
// Applying it relocates the unit, rewrites its state and workflow status,
// appends the paired ledger row and shifts one quantity bucket on the
// owning variant and product.
type PlannedMove struct {
	Barcode           string
	VariantID         int64
	TargetLocationID  int64
	NewState          catalog.ItemState
	NewStatus         catalog.ItemStatus
	MovementKind      stock.MovementKind
	OpenInvestigation bool
}

// Plan is the full set of corrections for one session. FOUND units produce
// no move and are left untouched.
type Plan struct {
	Moves []PlannedMove
	// VariantIDs lists every variant with at least one move, in state-row
	// order. These are the variants whose quantity ledger will change.
	VariantIDs []int64
}

// Empty reports whether the count matched the records exactly.
func (p Plan) Empty() bool {
	return len(p.Moves) == 0
}

// BuildPlan partitions every classified barcode of the session into
// corrective moves. NOT_FOUND units head to the warehouse's investigation
// location as pending-investigation; IN_SURPLUS units head into the session
// location as available. The function is pure.
func BuildPlan(states []State, sessionLocationID, investigationLocationID int64) Plan {
	var plan Plan
	touched := make(map[int64]bool)

	for _, state := range states {
		variantTouched := false
		for _, entry := range state.Items {
			switch entry.Classification {
			case ClassNotFound:
				plan.Moves = append(plan.Moves, PlannedMove{
					Barcode:           entry.Barcode,
					VariantID:         state.VariantID,
					TargetLocationID:  investigationLocationID,
					NewState:          catalog.StatePendingInvestigation,
					NewStatus:         catalog.StatusToInvestigate,
					MovementKind:      stock.MovementInternal,
					OpenInvestigation: true,
				})
				variantTouched = true
			case ClassInSurplus:
				plan.Moves = append(plan.Moves, PlannedMove{
					Barcode:          entry.Barcode,
					VariantID:        state.VariantID,
					TargetLocationID: sessionLocationID,
					NewState:         catalog.StateAvailable,
					NewStatus:        catalog.StatusInStock,
					MovementKind:     stock.MovementAdjustment,
				})
				variantTouched = true
			}
		}
		if variantTouched && !touched[state.VariantID] {
			touched[state.VariantID] = true
			plan.VariantIDs = append(plan.VariantIDs, state.VariantID)
		}
	}
	return plan
}

// transition is one bucket shift on a quantity ledger.
type transition struct {
	from catalog.ItemState
	to   catalog.ItemState
}

// applyTransitions folds a series of bucket shifts into a quantity value.
func applyTransitions(q catalog.Quantity, transitions []transition) (catalog.Quantity, error) {
	var err error
	for _, t := range transitions {
		q, err = q.ApplyTransition(t.from, t.to)
		if err != nil {
			return catalog.Quantity{}, err
		}
	}
	return q, nil
}
