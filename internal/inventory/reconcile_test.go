package inventory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlas-wms/atlas-wms/internal/catalog"
	"github.com/atlas-wms/atlas-wms/internal/stock"
)

func TestBuildPlanPartitionsClassifications(t *testing.T) {
	states := []State{
		{
			VariantID: 10,
			Items: []ItemEntry{
				{Barcode: "A", Classification: ClassFound},
				{Barcode: "B", Classification: ClassNotFound},
			},
		},
		{
			VariantID: 20,
			Items: []ItemEntry{
				{Barcode: "C", Classification: ClassInSurplus},
			},
		},
	}

	plan := BuildPlan(states, 100, 900)
	require.Len(t, plan.Moves, 2)
	require.Equal(t, []int64{10, 20}, plan.VariantIDs)

	lost := plan.Moves[0]
	require.Equal(t, "B", lost.Barcode)
	require.Equal(t, int64(900), lost.TargetLocationID)
	require.Equal(t, catalog.StatePendingInvestigation, lost.NewState)
	require.Equal(t, catalog.StatusToInvestigate, lost.NewStatus)
	require.Equal(t, stock.MovementInternal, lost.MovementKind)
	require.True(t, lost.OpenInvestigation)

	surplus := plan.Moves[1]
	require.Equal(t, "C", surplus.Barcode)
	require.Equal(t, int64(100), surplus.TargetLocationID)
	require.Equal(t, catalog.StateAvailable, surplus.NewState)
	require.Equal(t, catalog.StatusInStock, surplus.NewStatus)
	require.Equal(t, stock.MovementAdjustment, surplus.MovementKind)
	require.False(t, surplus.OpenInvestigation)
}

func TestBuildPlanFoundOnlyIsEmpty(t *testing.T) {
	states := []State{
		{
			VariantID: 10,
			Items: []ItemEntry{
				{Barcode: "A", Classification: ClassFound},
				{Barcode: "B", Classification: ClassFound},
			},
		},
	}

	plan := BuildPlan(states, 100, 900)
	require.True(t, plan.Empty())
	require.Empty(t, plan.VariantIDs)
}

func TestApplyTransitionsConservesTotal(t *testing.T) {
	q := catalog.Quantity{Available: 3, Reserved: 1}

	out, err := applyTransitions(q, []transition{
		{from: catalog.StateAvailable, to: catalog.StatePendingInvestigation},
		{from: catalog.StateReserved, to: catalog.StateAvailable},
	})
	require.NoError(t, err)
	require.Equal(t, q.Total(), out.Total())
	require.Equal(t, 3, out.Available)
	require.Equal(t, 0, out.Reserved)
	require.Equal(t, 1, out.PendingInvestigation)
}

func TestApplyTransitionsRejectsNegativeBucket(t *testing.T) {
	q := catalog.Quantity{}

	_, err := applyTransitions(q, []transition{
		{from: catalog.StateAvailable, to: catalog.StateLost},
	})
	require.ErrorIs(t, err, catalog.ErrNegativeBucket)
}
