package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlas-wms/atlas-wms/internal/shared"
)

type memoryRepo struct {
	movements []Movement
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1}
}

func (r *memoryRepo) Insert(ctx context.Context, movement Movement) (Movement, error) {
	movement.ID = r.nextID
	r.nextID++
	r.movements = append(r.movements, movement)
	return movement, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Movement, error) {
	for _, m := range r.movements {
		if m.ID == id {
			return m, nil
		}
	}
	return Movement{}, ErrMovementNotFound
}

func (r *memoryRepo) List(ctx context.Context, filters ListFilters) ([]Movement, int, error) {
	out := make([]Movement, 0, len(r.movements))
	for _, m := range r.movements {
		if filters.ItemID != nil && m.ItemID != *filters.ItemID {
			continue
		}
		out = append(out, m)
	}
	return out, len(out), nil
}

func TestRecordDefaultsKindAndTrigger(t *testing.T) {
	service := NewService(newMemoryRepo())

	movement, err := service.Record(context.Background(), Movement{
		ItemID: 42,
		Source: LocationEndpoint(1),
		Target: LocationEndpoint(2),
	})
	require.NoError(t, err)
	require.Equal(t, MovementInternal, movement.Kind)
	require.Equal(t, TriggerOperator, movement.Trigger)
	require.NotZero(t, movement.ID)
}

func TestRecordValidatesEndpoints(t *testing.T) {
	service := NewService(newMemoryRepo())

	_, err := service.Record(context.Background(), Movement{
		ItemID: 42,
		Target: LocationEndpoint(2),
	})
	require.Equal(t, shared.KindValidation, shared.KindOf(err))

	_, err = service.Record(context.Background(), Movement{
		ItemID: 42,
		Source: TagEndpoint("unassigned"),
	})
	require.Equal(t, shared.KindValidation, shared.KindOf(err))

	_, err = service.Record(context.Background(), Movement{
		Source: LocationEndpoint(1),
		Target: LocationEndpoint(2),
	})
	require.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestGetMapsMissingMovement(t *testing.T) {
	service := NewService(newMemoryRepo())

	_, err := service.Get(context.Background(), 99)
	require.Equal(t, shared.KindNotFound, shared.KindOf(err))
}

func TestListFiltersByItem(t *testing.T) {
	repo := newMemoryRepo()
	service := NewService(repo)

	_, err := service.Record(context.Background(), Movement{ItemID: 1, Source: LocationEndpoint(1), Target: LocationEndpoint(2)})
	require.NoError(t, err)
	_, err = service.Record(context.Background(), Movement{ItemID: 2, Source: LocationEndpoint(1), Target: LocationEndpoint(2)})
	require.NoError(t, err)

	itemID := int64(1)
	movements, total, err := service.List(context.Background(), ListFilters{ItemID: &itemID})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, movements, 1)
	require.Equal(t, int64(1), movements[0].ItemID)
}
