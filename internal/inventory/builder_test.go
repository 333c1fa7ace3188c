package inventory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlas-wms/atlas-wms/internal/catalog"
)

func unit(barcode string, variantID int64, state catalog.ItemState) catalog.ProductItem {
	return catalog.ProductItem{Barcode: barcode, VariantID: variantID, State: state}
}

func TestBuildStateClassifications(t *testing.T) {
	expected := []catalog.ProductItem{
		unit("A", 10, catalog.StateAvailable),
		unit("B", 10, catalog.StateAvailable),
	}
	scanned := []catalog.ProductItem{
		unit("A", 10, catalog.StateAvailable),
		unit("C", 10, catalog.StateAvailable),
	}

	state, err := BuildState(1, 10, scanned, expected)
	require.NoError(t, err)
	require.Equal(t, []ItemEntry{
		{Barcode: "A", Classification: ClassFound},
		{Barcode: "C", Classification: ClassInSurplus},
		{Barcode: "B", Classification: ClassNotFound},
	}, state.Items)

	require.Equal(t, 2, state.InStock.Available)
	require.Equal(t, 2, state.InStock.Total())
	require.Equal(t, 2, state.Counted.Available)
	require.Equal(t, 2, state.Counted.Total())
}

func TestBuildStateTalliesMixedStates(t *testing.T) {
	expected := []catalog.ProductItem{
		unit("A", 10, catalog.StateAvailable),
		unit("B", 10, catalog.StateReserved),
		unit("C", 10, catalog.StateInTransit),
	}

	state, err := BuildState(1, 10, nil, expected)
	require.NoError(t, err)
	require.Equal(t, 1, state.InStock.Available)
	require.Equal(t, 1, state.InStock.Reserved)
	require.Equal(t, 1, state.InStock.InTransit)
	require.Equal(t, 0, state.Counted.Total())
	for _, entry := range state.Items {
		require.Equal(t, ClassNotFound, entry.Classification)
	}
}

func TestBuildStateRejectsForeignBarcode(t *testing.T) {
	scanned := []catalog.ProductItem{unit("X", 99, catalog.StateAvailable)}

	_, err := BuildState(1, 10, scanned, nil)
	var foreign *ErrForeignBarcode
	require.ErrorAs(t, err, &foreign)
	require.Equal(t, "X", foreign.Barcode)
}

func TestBuildStateDeduplicatesScans(t *testing.T) {
	expected := []catalog.ProductItem{unit("A", 10, catalog.StateAvailable)}
	scanned := []catalog.ProductItem{
		unit("A", 10, catalog.StateAvailable),
		unit("A", 10, catalog.StateAvailable),
	}

	state, err := BuildState(1, 10, scanned, expected)
	require.NoError(t, err)
	require.Len(t, state.Items, 1)
	require.Equal(t, 1, state.Counted.Available)
}

func TestBuildStateEmptyCountMarksEverythingMissing(t *testing.T) {
	expected := []catalog.ProductItem{
		unit("A", 10, catalog.StateAvailable),
		unit("B", 10, catalog.StateAvailable),
	}

	state, err := BuildState(1, 10, nil, expected)
	require.NoError(t, err)
	require.Len(t, state.Items, 2)
	require.Equal(t, 2, state.InStock.Available)
	require.Equal(t, 0, state.Counted.Total())
}
