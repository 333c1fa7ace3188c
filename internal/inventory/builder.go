package inventory

import (
	"fmt"

	"github.com/atlas-wms/atlas-wms/internal/catalog"
)

// ErrForeignBarcode is returned when a scanned barcode belongs to a variant
// other than the one it was submitted under.
type ErrForeignBarcode struct {
	Barcode   string
	VariantID int64
}

func (e *ErrForeignBarcode) Error() string {
	return fmt.Sprintf("inventory: barcode %s does not belong to variant %d", e.Barcode, e.VariantID)
}

// BuildState diffs the scanned units against the expected set of one variant
// and produces the per-variant snapshot stored on the session.
//
// Scanned units are classified FOUND when they sit in the expected set and
// IN_SURPLUS otherwise; expected units never scanned become NOT_FOUND. The
// two quantity snapshots tally the current states of the expected set
// (inStock) and of the scanned units (counted). The function is pure: it
// reads nothing and writes nothing.
func BuildState(inventoryID, variantID int64, scanned, expected []catalog.ProductItem) (State, error) {
	for _, item := range scanned {
		if item.VariantID != variantID {
			return State{}, &ErrForeignBarcode{Barcode: item.Barcode, VariantID: variantID}
		}
	}

	expectedByBarcode := make(map[string]catalog.ProductItem, len(expected))
	for _, item := range expected {
		expectedByBarcode[item.Barcode] = item
	}

	entries := make([]ItemEntry, 0, len(scanned)+len(expected))
	scannedBarcodes := make(map[string]bool, len(scanned))
	for _, item := range scanned {
		if scannedBarcodes[item.Barcode] {
			continue
		}
		scannedBarcodes[item.Barcode] = true
		classification := ClassInSurplus
		if _, ok := expectedByBarcode[item.Barcode]; ok {
			classification = ClassFound
		}
		entries = append(entries, ItemEntry{Barcode: item.Barcode, Classification: classification})
	}
	for _, item := range expected {
		if !scannedBarcodes[item.Barcode] {
			entries = append(entries, ItemEntry{Barcode: item.Barcode, Classification: ClassNotFound})
		}
	}

	inStock, err := catalog.TallyStates(itemStates(expected))
	if err != nil {
		return State{}, err
	}
	counted, err := catalog.TallyStates(itemStates(dedupe(scanned)))
	if err != nil {
		return State{}, err
	}

	return State{
		InventoryID: inventoryID,
		VariantID:   variantID,
		InStock:     inStock,
		Counted:     counted,
		Items:       entries,
	}, nil
}

func itemStates(items []catalog.ProductItem) []catalog.ItemState {
	states := make([]catalog.ItemState, len(items))
	for i, item := range items {
		states[i] = item.State
	}
	return states
}

func dedupe(items []catalog.ProductItem) []catalog.ProductItem {
	seen := make(map[string]bool, len(items))
	out := make([]catalog.ProductItem, 0, len(items))
	for _, item := range items {
		if seen[item.Barcode] {
			continue
		}
		seen[item.Barcode] = true
		out = append(out, item)
	}
	return out
}
