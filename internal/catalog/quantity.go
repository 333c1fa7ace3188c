package catalog

import (
	"errors"
	"fmt"
)

// Bucket names one counter of the quantity ledger.
type Bucket string

const (
	BucketAvailable            Bucket = "available"
	BucketReserved             Bucket = "reserved"
	BucketInTransit            Bucket = "in_transit"
	BucketDeliveryProcessing   Bucket = "delivery_processing"
	BucketAwaitingSAV          Bucket = "awaiting_sav"
	BucketDelivered            Bucket = "delivered"
	BucketGotOut               Bucket = "got_out"
	BucketPendingInvestigation Bucket = "pending_investigation"
	BucketLost                 Bucket = "lost"
	BucketDead                 Bucket = "is_dead"
	BucketPendingReception     Bucket = "pending_reception"
	BucketDiscovered           Bucket = "discovered"
)

var stateBuckets = map[ItemState]Bucket{
	StateAvailable:            BucketAvailable,
	StateReserved:             BucketReserved,
	StateInTransit:            BucketInTransit,
	StateDeliveryProcessing:   BucketDeliveryProcessing,
	StateAwaitingSAV:          BucketAwaitingSAV,
	StateDelivered:            BucketDelivered,
	StateGotOut:               BucketGotOut,
	StatePendingInvestigation: BucketPendingInvestigation,
	StateLost:                 BucketLost,
	StateDead:                 BucketDead,
	StatePendingReception:     BucketPendingReception,
	StateDiscovered:           BucketDiscovered,
}

// ErrNegativeBucket is triggered when a transition would drive a quantity
// counter below zero.
var ErrNegativeBucket = errors.New("catalog: quantity bucket must not go negative")

// BucketFor maps a unit state to its ledger bucket.
func BucketFor(state ItemState) (Bucket, error) {
	bucket, ok := stateBuckets[state]
	if !ok {
		return "", fmt.Errorf("catalog: no bucket for state %q", state)
	}
	return bucket, nil
}

// Quantity is the named-bucket integer summary of unit states for a variant
// or product. It is a pure value object: reconciliation computes new values
// and persists them transactionally as the last step, so no shared counter
// can be adjusted twice.
type Quantity struct {
	Available            int `json:"available" db:"qty_available"`
	Reserved             int `json:"reserved" db:"qty_reserved"`
	InTransit            int `json:"in_transit" db:"qty_in_transit"`
	DeliveryProcessing   int `json:"delivery_processing" db:"qty_delivery_processing"`
	AwaitingSAV          int `json:"awaiting_sav" db:"qty_awaiting_sav"`
	Delivered            int `json:"delivered" db:"qty_delivered"`
	GotOut               int `json:"got_out" db:"qty_got_out"`
	PendingInvestigation int `json:"pending_investigation" db:"qty_pending_investigation"`
	Lost                 int `json:"lost" db:"qty_lost"`
	Dead                 int `json:"is_dead" db:"qty_is_dead"`
	PendingReception     int `json:"pending_reception" db:"qty_pending_reception"`
	Discovered           int `json:"discovered" db:"qty_discovered"`
}

// Get returns the counter for the bucket.
func (q Quantity) Get(bucket Bucket) int {
	switch bucket {
	case BucketAvailable:
		return q.Available
	case BucketReserved:
		return q.Reserved
	case BucketInTransit:
		return q.InTransit
	case BucketDeliveryProcessing:
		return q.DeliveryProcessing
	case BucketAwaitingSAV:
		return q.AwaitingSAV
	case BucketDelivered:
		return q.Delivered
	case BucketGotOut:
		return q.GotOut
	case BucketPendingInvestigation:
		return q.PendingInvestigation
	case BucketLost:
		return q.Lost
	case BucketDead:
		return q.Dead
	case BucketPendingReception:
		return q.PendingReception
	case BucketDiscovered:
		return q.Discovered
	}
	return 0
}

// Add returns a copy with the bucket adjusted by delta. Every bucket
// participates in the non-negative guard, not only available.
func (q Quantity) Add(bucket Bucket, delta int) (Quantity, error) {
	next := q.Get(bucket) + delta
	if next < 0 {
		return q, fmt.Errorf("%w: %s would become %d", ErrNegativeBucket, bucket, next)
	}
	switch bucket {
	case BucketAvailable:
		q.Available = next
	case BucketReserved:
		q.Reserved = next
	case BucketInTransit:
		q.InTransit = next
	case BucketDeliveryProcessing:
		q.DeliveryProcessing = next
	case BucketAwaitingSAV:
		q.AwaitingSAV = next
	case BucketDelivered:
		q.Delivered = next
	case BucketGotOut:
		q.GotOut = next
	case BucketPendingInvestigation:
		q.PendingInvestigation = next
	case BucketLost:
		q.Lost = next
	case BucketDead:
		q.Dead = next
	case BucketPendingReception:
		q.PendingReception = next
	case BucketDiscovered:
		q.Discovered = next
	default:
		return q, fmt.Errorf("catalog: unknown bucket %q", bucket)
	}
	return q, nil
}

// ApplyTransition subtracts one unit from the bucket of the old state and
// adds one to the bucket of the new state.
func (q Quantity) ApplyTransition(from, to ItemState) (Quantity, error) {
	fromBucket, err := BucketFor(from)
	if err != nil {
		return q, err
	}
	toBucket, err := BucketFor(to)
	if err != nil {
		return q, err
	}
	out, err := q.Add(fromBucket, -1)
	if err != nil {
		return q, err
	}
	return out.Add(toBucket, 1)
}

// Total sums all buckets. A state transition conserves the total; only the
// two modeled entry points (surplus gain, loss to investigation) may change
// bucket distribution from outside the unit set.
func (q Quantity) Total() int {
	return q.Available + q.Reserved + q.InTransit + q.DeliveryProcessing +
		q.AwaitingSAV + q.Delivered + q.GotOut + q.PendingInvestigation +
		q.Lost + q.Dead + q.PendingReception + q.Discovered
}

// TallyStates counts one per state into a fresh quantity snapshot.
func TallyStates(states []ItemState) (Quantity, error) {
	var q Quantity
	for _, state := range states {
		bucket, err := BucketFor(state)
		if err != nil {
			return Quantity{}, err
		}
		q, err = q.Add(bucket, 1)
		if err != nil {
			return Quantity{}, err
		}
	}
	return q, nil
}
