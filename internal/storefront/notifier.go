package storefront

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// TaskSyncVariants is the queue task propagating quantity changes to the
// storefront.
const TaskSyncVariants = "storefront:sync_variants"

// SyncPayload carries the variants whose quantity ledger changed.
type SyncPayload struct {
	InventoryID int64   `json:"inventory_id"`
	VariantIDs  []int64 `json:"variant_ids"`
}

// Notifier propagates quantity ledger changes to the external storefront.
// Delivery is fire-and-forget: a failure here never rolls back the
// reconciliation that produced the change.
type Notifier interface {
	VariantsChanged(ctx context.Context, inventoryID int64, variantIDs []int64) error
}

// QueueNotifier enqueues sync tasks on Redis via asynq.
type QueueNotifier struct {
	client *asynq.Client
}

// NewQueueNotifier constructs QueueNotifier.
func NewQueueNotifier(client *asynq.Client) *QueueNotifier {
	return &QueueNotifier{client: client}
}

// VariantsChanged enqueues one sync task for the touched variants.
func (n *QueueNotifier) VariantsChanged(ctx context.Context, inventoryID int64, variantIDs []int64) error {
	if len(variantIDs) == 0 {
		return nil
	}
	payload, err := json.Marshal(SyncPayload{InventoryID: inventoryID, VariantIDs: variantIDs})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TaskSyncVariants, payload)
	_, err = n.client.EnqueueContext(ctx, task,
		asynq.Queue("default"),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	return err
}

// NopNotifier discards notifications. Used in tests and when no storefront
// is configured.
type NopNotifier struct{}

func (NopNotifier) VariantsChanged(context.Context, int64, []int64) error { return nil }
