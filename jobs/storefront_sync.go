package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"

	"github.com/atlas-wms/atlas-wms/internal/storefront"
)

// NewStorefrontSyncHandler returns the handler for storefront sync tasks.
// It pushes the changed variant ids to the storefront endpoint; with no
// endpoint configured the task is logged and dropped.
func NewStorefrontSyncHandler(endpoint string, logger *slog.Logger) asynq.HandlerFunc {
	client := &http.Client{Timeout: 15 * time.Second}
	return func(ctx context.Context, t *asynq.Task) error {
		var payload storefront.SyncPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if endpoint == "" {
			logger.Info("storefront sync skipped, no endpoint configured",
				slog.Int64("inventory_id", payload.InventoryID),
				slog.Int("variants", len(payload.VariantIDs)))
			return nil
		}

		body, err := json.Marshal(payload)
		if err != nil {
			return asynq.SkipRetry
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("jobs: storefront sync returned %d", resp.StatusCode)
		}
		logger.Info("storefront sync pushed",
			slog.Int64("inventory_id", payload.InventoryID),
			slog.Int("variants", len(payload.VariantIDs)))
		return nil
	}
}
