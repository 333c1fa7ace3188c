package warehouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const treeVersionKey = "warehouse:tree:version"

// TreeCache caches subtree shapes in Redis behind a version counter; any
// structural change bumps the version, invalidating every cached subtree at
// once.
type TreeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTreeCache instantiates the cache helper.
func NewTreeCache(client *redis.Client, ttl time.Duration) *TreeCache {
	return &TreeCache{client: client, ttl: ttl}
}

func (c *TreeCache) version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, treeVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.Set(ctx, treeVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// FetchSubtree loads a cached subtree or populates it using the loader.
// With no client configured it degrades to a plain loader call.
func (c *TreeCache) FetchSubtree(ctx context.Context, rootID int64, dest *[]Location, loader func(context.Context) ([]Location, error)) error {
	if c == nil || c.client == nil {
		locations, err := loader(ctx)
		if err != nil {
			return err
		}
		*dest = locations
		return nil
	}
	ver, err := c.version(ctx)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("warehouse:tree:%d:%d", rootID, ver)

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(raw, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}

	locations, err := loader(ctx)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(locations)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		return err
	}
	*dest = locations
	return nil
}

// Invalidate bumps the tree version. Errors are swallowed: a stale subtree
// read only affects display listings, never reconciliation, which always
// reads live rows.
func (c *TreeCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Incr(ctx, treeVersionKey).Err()
}
