package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyTransitionMovesExactlyOneUnit(t *testing.T) {
	q := Quantity{Available: 3, Reserved: 1}

	next, err := q.ApplyTransition(StateAvailable, StatePendingInvestigation)
	require.NoError(t, err)
	require.Equal(t, 2, next.Available)
	require.Equal(t, 1, next.PendingInvestigation)
	require.Equal(t, q.Total(), next.Total())

	// original value untouched
	require.Equal(t, 3, q.Available)
	require.Equal(t, 0, q.PendingInvestigation)
}

func TestApplyTransitionRefusesNegativeBucket(t *testing.T) {
	q := Quantity{Reserved: 2}

	_, err := q.ApplyTransition(StateAvailable, StateReserved)
	require.ErrorIs(t, err, ErrNegativeBucket)
}

func TestApplyTransitionUnknownState(t *testing.T) {
	q := Quantity{Available: 1}

	_, err := q.ApplyTransition(ItemState("BROKEN"), StateAvailable)
	require.Error(t, err)
}

func TestAddGuardsEveryBucket(t *testing.T) {
	var q Quantity

	for state, bucket := range stateBuckets {
		_, err := q.Add(bucket, -1)
		require.ErrorIs(t, err, ErrNegativeBucket, "bucket %s (state %s) accepted a negative count", bucket, state)
	}
}

func TestTallyStates(t *testing.T) {
	q, err := TallyStates([]ItemState{
		StateAvailable, StateAvailable, StateReserved, StateInTransit,
	})
	require.NoError(t, err)
	require.Equal(t, 2, q.Available)
	require.Equal(t, 1, q.Reserved)
	require.Equal(t, 1, q.InTransit)
	require.Equal(t, 4, q.Total())
}

func TestBucketForCoversAllStates(t *testing.T) {
	states := []ItemState{
		StateAvailable, StateReserved, StateInTransit, StateDeliveryProcessing,
		StateAwaitingSAV, StateDelivered, StateGotOut, StatePendingInvestigation,
		StateLost, StateDead, StatePendingReception, StateDiscovered,
	}
	seen := map[Bucket]bool{}
	for _, state := range states {
		bucket, err := BucketFor(state)
		require.NoError(t, err)
		require.False(t, seen[bucket], "bucket %s mapped twice", bucket)
		seen[bucket] = true
	}
	require.Len(t, seen, 12)
}
