package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "todos:"

// TaskCache keeps each owner's todo list in Redis. Errors are logged and
// treated as misses so the store stays the source of truth.
//
// Lists live under a per-owner generation: todos:<owner>:gen is bumped on every
// write and the list is stored at todos:<owner>:v<gen>. A list read from the
// store is only written back if the generation has not moved since the lookup.
type TaskCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTaskCache(client *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{client: client, ttl: ttl}
}

func genKey(ownerID int64) string {
	return keyPrefix + strconv.FormatInt(ownerID, 10) + ":gen"
}

func listKey(ownerID, gen int64) string {
	return keyPrefix + strconv.FormatInt(ownerID, 10) + ":v" + strconv.FormatInt(gen, 10)
}

func (c *TaskCache) enabled() bool {
	return c != nil && c.client != nil
}

func (c *TaskCache) generation(ctx context.Context, ownerID int64) (int64, error) {
	gen, err := c.client.Get(ctx, genKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get returns the cached list and the generation it was looked up under. The
// generation must be handed back to Set. A negative generation disables Set.
func (c *TaskCache) Get(ctx context.Context, ownerID int64) ([]*domain.Task, int64, bool) {
	if !c.enabled() {
		return nil, -1, false
	}

	gen, err := c.generation(ctx, ownerID)
	if err != nil {
		CacheLookups.WithLabelValues("error").Inc()
		logger.WithContext(ctx).Warn("task cache generation lookup failed", "error", err)
		return nil, -1, false
	}

	b, err := c.client.Get(ctx, listKey(ownerID, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		CacheLookups.WithLabelValues("miss").Inc()
		return nil, gen, false
	}
	if err != nil {
		CacheLookups.WithLabelValues("error").Inc()
		logger.WithContext(ctx).Warn("task cache get failed", "error", err)
		return nil, -1, false
	}

	var tasks []*domain.Task
	if err := json.Unmarshal(b, &tasks); err != nil {
		CacheLookups.WithLabelValues("error").Inc()
		c.Invalidate(ctx, ownerID)
		return nil, -1, false
	}
	for _, t := range tasks {
		if t == nil || t.UserID != ownerID {
			c.Invalidate(ctx, ownerID)
			return nil, -1, false
		}
	}
	CacheLookups.WithLabelValues("hit").Inc()
	return tasks, gen, true
}

// Set stores tasks under gen unless a write has bumped the generation since.
func (c *TaskCache) Set(ctx context.Context, ownerID, gen int64, tasks []*domain.Task) {
	if !c.enabled() || gen < 0 {
		return
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	b, err := json.Marshal(tasks)
	if err != nil {
		return
	}

	gk := genKey(ownerID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, gk).Int64()
		if errors.Is(err, redis.Nil) {
			cur, err = 0, nil
		}
		if err != nil {
			return err
		}
		if cur != gen {
			CacheLookups.WithLabelValues("stale").Inc()
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, listKey(ownerID, gen), b, c.ttl)
			return nil
		})
		return err
	}, gk)
	if errors.Is(err, redis.TxFailedErr) {
		CacheLookups.WithLabelValues("stale").Inc()
		return
	}
	if err != nil {
		logger.WithContext(ctx).Warn("task cache set failed", "error", err)
	}
}

// Invalidate bumps the owner's generation, orphaning every list cached so far.
func (c *TaskCache) Invalidate(ctx context.Context, ownerID int64) {
	if !c.enabled() {
		return
	}
	if err := c.client.Incr(ctx, genKey(ownerID)).Err(); err != nil {
		logger.WithContext(ctx).Warn("task cache invalidate failed", "error", err)
	}
}
