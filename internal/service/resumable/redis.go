package resumable

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by a Redis list per stream plus a pub/sub
// channel for wake-ups. Keys expire after ttl.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to url and verifies the connection.
func NewRedisStore(ctx context.Context, url, prefix string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	c := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &RedisStore{client: c, prefix: prefix, ttl: ttl}, nil
}

// Ensure interface compliance at compile time
var _ Store = (*RedisStore)(nil)

func (r *RedisStore) framesKey(id string) string { return r.prefix + "stream:" + id + ":frames" }
func (r *RedisStore) doneKey(id string) string   { return r.prefix + "stream:" + id + ":done" }
func (r *RedisStore) liveKey(id string) string   { return r.prefix + "stream:" + id + ":live" }

func (r *RedisStore) Append(ctx context.Context, streamID string, frame []byte) error {
	key := r.framesKey(streamID)
	pipe := r.client.TxPipeline()
	seq := pipe.RPush(ctx, key, frame)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: append frame: %w", err)
	}
	return r.client.Publish(ctx, r.liveKey(streamID), seq.Val()-1).Err()
}

func (r *RedisStore) Finish(ctx context.Context, streamID string) error {
	if err := r.client.Set(ctx, r.doneKey(streamID), 1, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis: mark done: %w", err)
	}
	return r.client.Publish(ctx, r.liveKey(streamID), "done").Err()
}

func (r *RedisStore) State(ctx context.Context, streamID string) (bool, bool, error) {
	pipe := r.client.Pipeline()
	started := pipe.Exists(ctx, r.framesKey(streamID))
	done := pipe.Exists(ctx, r.doneKey(streamID))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, false, fmt.Errorf("redis: stream state: %w", err)
	}
	return started.Val() > 0, done.Val() > 0, nil
}

func (r *RedisStore) Range(ctx context.Context, streamID string, from int64) ([][]byte, error) {
	vals, err := r.client.LRange(ctx, r.framesKey(streamID), from, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: read frames: %w", err)
	}
	frames := make([][]byte, len(vals))
	for i, v := range vals {
		frames[i] = []byte(v)
	}
	return frames, nil
}

func (r *RedisStore) Subscribe(ctx context.Context, streamID string) (<-chan struct{}, func(), error) {
	ps := r.client.Subscribe(ctx, r.liveKey(streamID))
	// Wait for the subscription to be confirmed so no publish is missed
	// between subscribing and the first Range.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("redis: subscribe: %w", err)
	}

	signals := make(chan struct{}, 1)
	go func() {
		defer close(signals)
		for range ps.Channel() {
			select {
			case signals <- struct{}{}:
			default:
			}
		}
	}()

	return signals, func() { _ = ps.Close() }, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
