package jobs

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/atlas-wms/atlas-wms/internal/storefront"
)

func syncTask(t *testing.T, payload storefront.SyncPayload) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(storefront.TaskSyncVariants, body)
}

func TestStorefrontSyncPushesPayload(t *testing.T) {
	var received storefront.SyncPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	handler := NewStorefrontSyncHandler(server.URL, slog.Default())
	err := handler(context.Background(), syncTask(t, storefront.SyncPayload{InventoryID: 5, VariantIDs: []int64{10, 11}}))
	require.NoError(t, err)
	require.Equal(t, int64(5), received.InventoryID)
	require.Equal(t, []int64{10, 11}, received.VariantIDs)
}

func TestStorefrontSyncFailsOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	handler := NewStorefrontSyncHandler(server.URL, slog.Default())
	err := handler(context.Background(), syncTask(t, storefront.SyncPayload{InventoryID: 1}))
	require.Error(t, err)
}

func TestStorefrontSyncSkipsWithoutEndpoint(t *testing.T) {
	handler := NewStorefrontSyncHandler("", slog.Default())
	err := handler(context.Background(), syncTask(t, storefront.SyncPayload{InventoryID: 1}))
	require.NoError(t, err)
}

func TestStorefrontSyncDropsMalformedPayload(t *testing.T) {
	handler := NewStorefrontSyncHandler("http://127.0.0.1:0", slog.Default())
	err := handler(context.Background(), asynq.NewTask(storefront.TaskSyncVariants, []byte("not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
