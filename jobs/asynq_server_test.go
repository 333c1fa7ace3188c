package jobs

import (
	"context"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/atlas-wms/atlas-wms/internal/storefront"
)

func TestNewWorkerRegistersEachConfiguredHandlerOnce(t *testing.T) {
	var mailCalls, syncCalls, cleanupCalls int

	var worker *Worker
	var err error
	require.NotPanics(t, func() {
		worker, err = NewWorker(WorkerConfig{
			RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:6379"},
			Logger:    slog.Default(),
			Handlers: []TaskHandler{
				{Type: storefront.TaskSyncVariants, Handler: func(ctx context.Context, t *asynq.Task) error {
					syncCalls++
					return nil
				}},
				{Type: TaskTypeSendEmail, Handler: func(ctx context.Context, t *asynq.Task) error {
					mailCalls++
					return nil
				}},
				{Type: TaskIdempotencyCleanup, Handler: func(ctx context.Context, t *asynq.Task) error {
					cleanupCalls++
					return nil
				}},
			},
		})
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, worker.mux.ProcessTask(ctx, asynq.NewTask(TaskTypeSendEmail, nil)))
	require.NoError(t, worker.mux.ProcessTask(ctx, asynq.NewTask(storefront.TaskSyncVariants, nil)))
	require.NoError(t, worker.mux.ProcessTask(ctx, asynq.NewTask(TaskIdempotencyCleanup, nil)))

	require.Equal(t, 1, mailCalls)
	require.Equal(t, 1, syncCalls)
	require.Equal(t, 1, cleanupCalls)
}

func TestNewWorkerSkipsEmptyHandlerEntries(t *testing.T) {
	worker, err := NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:6379"},
		Logger:    slog.Default(),
		Handlers: []TaskHandler{
			{Type: "", Handler: func(ctx context.Context, t *asynq.Task) error { return nil }},
			{Type: TaskTypeSendEmail, Handler: nil},
		},
	})
	require.NoError(t, err)

	err = worker.mux.ProcessTask(context.Background(), asynq.NewTask(TaskTypeSendEmail, nil))
	require.Error(t, err)
}
