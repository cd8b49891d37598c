// Package cache puts a Redis read-through cache in front of a task repository.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nadmax/ganttline/internal/logging"
	"github.com/nadmax/ganttline/internal/metrics"
	"github.com/nadmax/ganttline/internal/repository"
	"github.com/nadmax/ganttline/internal/task"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	tasksKey   = "ganttline:tasks"
	listKey    = "ganttline:tasks:all"
	versionKey = "ganttline:tasks:version"
)

// errStaleList aborts a list snapshot write that raced with a mutation.
var errStaleList = errors.New("task list changed during read")

// Repository serves reads from Redis and writes through to the wrapped
// repository. Redis failures are logged and fall back to the backend.
type Repository struct {
	next   repository.TaskRepository
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

var _ repository.TaskRepository = (*Repository)(nil)

func NewRepository(ctx context.Context, redisAddr string, ttl time.Duration, next repository.TaskRepository) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Repository{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logging.Component("cache"),
	}, nil
}

func (c *Repository) ListTasks(ctx context.Context) ([]task.Task, error) {
	cached, err := c.client.Get(ctx, listKey).Result()
	switch {
	case err == nil:
		var tasks []task.Task
		if jsonErr := json.Unmarshal([]byte(cached), &tasks); jsonErr == nil {
			metrics.RecordCacheHit("list")
			return tasks, nil
		}
		c.logger.Warn().Msg("discarding undecodable cached task list")
		metrics.RecordCacheError("list")
	case errors.Is(err, redis.Nil):
		metrics.RecordCacheMiss("list")
	default:
		c.logger.Warn().Err(err).Msg("task list cache read failed")
		metrics.RecordCacheError("list")
	}

	version, versionErr := c.version(ctx)

	tasks, err := c.next.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	if versionErr == nil {
		c.storeList(ctx, version, tasks)
	}

	return tasks, nil
}

func (c *Repository) GetTask(ctx context.Context, taskID string) (*task.Task, error) {
	taskJSON, err := c.client.HGet(ctx, tasksKey, taskID).Result()
	switch {
	case err == nil:
		if t, jsonErr := task.TaskFromJSON(taskJSON); jsonErr == nil {
			metrics.RecordCacheHit("get")
			return t, nil
		}
		metrics.RecordCacheError("get")
	case errors.Is(err, redis.Nil):
		metrics.RecordCacheMiss("get")
	default:
		c.logger.Warn().Err(err).Str("task_id", taskID).Msg("task cache read failed")
		metrics.RecordCacheError("get")
	}

	t, err := c.next.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	c.store(ctx, t)
	return t, nil
}

func (c *Repository) CreateTask(ctx context.Context, t *task.Task) error {
	if err := c.next.CreateTask(ctx, t); err != nil {
		return err
	}

	c.store(ctx, t)
	return nil
}

func (c *Repository) UpdateTask(ctx context.Context, t *task.Task) error {
	if err := c.next.UpdateTask(ctx, t); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.evict(ctx, t.ID)
		}
		return err
	}

	c.store(ctx, t)
	return nil
}

func (c *Repository) DeleteTask(ctx context.Context, taskID string) error {
	err := c.next.DeleteTask(ctx, taskID)
	if err == nil || errors.Is(err, repository.ErrTaskNotFound) {
		c.evict(ctx, taskID)
	}
	return err
}

// Invalidate drops every cached entry, e.g. after a bulk import.
func (c *Repository) Invalidate(ctx context.Context) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, tasksKey, listKey)
	pipe.Incr(ctx, versionKey)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *Repository) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return c.next.Ping(ctx)
}

func (c *Repository) Close() error {
	return errors.Join(c.client.Close(), c.next.Close())
}

// store writes the task into the hash and drops the list snapshot.
func (c *Repository) store(ctx context.Context, t *task.Task) {
	taskJSON, err := t.ToJSON()
	if err != nil {
		return
	}

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, tasksKey, t.ID, taskJSON)
	if c.ttl > 0 {
		pipe.Expire(ctx, tasksKey, c.ttl)
	}
	pipe.Del(ctx, listKey)
	pipe.Incr(ctx, versionKey)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn().Err(err).Str("task_id", t.ID).Msg("task cache write failed")
	}
}

func (c *Repository) evict(ctx context.Context, taskID string) {
	pipe := c.client.TxPipeline()
	pipe.HDel(ctx, tasksKey, taskID)
	pipe.Del(ctx, listKey)
	pipe.Incr(ctx, versionKey)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn().Err(err).Str("task_id", taskID).Msg("task cache evict failed")
	}
}

// version reads the mutation counter bumped by every write.
func (c *Repository) version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// storeList caches a list snapshot only if no write happened since version
// was read, so a slow read cannot overwrite a fresher invalidation.
func (c *Repository) storeList(ctx context.Context, version int64, tasks []task.Task) {
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleList
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, listKey, data, c.ttl)
			return nil
		})
		return err
	}, versionKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleList), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug().Int64("version", version).Msg("task list changed during read, snapshot not cached")
	default:
		c.logger.Warn().Err(err).Msg("task list cache write failed")
	}
}
