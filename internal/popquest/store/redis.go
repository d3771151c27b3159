package store

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

// RedisSlot stores the blob under a single redis key, the server-side
// equivalent of the browser's localStorage slot.
type RedisSlot struct {
	client *redis.Client
	key    string
}

func NewRedisSlot(ctx context.Context, addr, password string, db int, key string) (*RedisSlot, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "client.Ping failed: ")
	}
	return &RedisSlot{client: client, key: key}, nil
}

func (r *RedisSlot) Get(ctx context.Context) ([]byte, error) {
	blob, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, errors.Wrap(err, "client.Get failed: ")
	}
	return blob, nil
}

func (r *RedisSlot) Set(ctx context.Context, blob []byte) error {
	if err := r.client.Set(ctx, r.key, blob, 0).Err(); err != nil {
		return errors.Wrap(err, "client.Set failed: ")
	}
	return nil
}

func (r *RedisSlot) Close() error {
	return r.client.Close()
}
